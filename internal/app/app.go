package app

import (
	"log/slog"

	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Connections *usecase.ConnectionCache
	Sink        usecase.ProgressSink

	// Use cases
	RunScripts      *usecase.RunScripts
	DeployContract  *usecase.DeployContract
	ListDeployments *usecase.ListDeployments
	ShowDeployment  *usecase.ShowDeployment
	ListAccounts    *usecase.ListAccounts
	ListNetworks    *usecase.ListNetworks
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	connections *usecase.ConnectionCache,
	sink usecase.ProgressSink,
	runScripts *usecase.RunScripts,
	deployContract *usecase.DeployContract,
	listDeployments *usecase.ListDeployments,
	showDeployment *usecase.ShowDeployment,
	listAccounts *usecase.ListAccounts,
	listNetworks *usecase.ListNetworks,
) *App {
	return &App{
		Config:          cfg,
		Log:             log,
		Connections:     connections,
		Sink:            sink,
		RunScripts:      runScripts,
		DeployContract:  deployContract,
		ListDeployments: listDeployments,
		ShowDeployment:  showDeployment,
		ListAccounts:    listAccounts,
		ListNetworks:    listNetworks,
	}
}

// ProvideConnectionCache provides the per-process connection cache and
// closes it on cleanup
func ProvideConnectionCache(cfg *config.RuntimeConfig, factory usecase.ProviderFactory, log *slog.Logger) (*usecase.ConnectionCache, func()) {
	cache := usecase.NewConnectionCache(cfg, factory, log)
	return cache, cache.Close
}
