//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/solidity-kit/kitdeploy/internal/adapters"
	"github.com/solidity-kit/kitdeploy/internal/config"
	"github.com/solidity-kit/kitdeploy/internal/logging"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		ProvideConnectionCache,
		usecase.NewAccountResolver,
		usecase.NewDeployContract,
		usecase.NewRunScripts,
		usecase.NewListDeployments,
		usecase.NewShowDeployment,
		usecase.NewListAccounts,
		usecase.NewListNetworks,

		// App
		NewApp,
	)
	return nil, nil, nil
}
