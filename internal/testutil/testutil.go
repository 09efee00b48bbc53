// Package testutil wires the deployment use cases against an in-process
// simulated chain and the fixture artifacts in testdata/.
package testutil

import (
	"context"
	"embed"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solidity-kit/kitdeploy/internal/adapters/artifacts"
	"github.com/solidity-kit/kitdeploy/internal/adapters/ledger"
	"github.com/solidity-kit/kitdeploy/internal/adapters/network"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

//go:embed testdata/out
var fixtures embed.FS

// Role names used by the fixture project
const (
	DeployerRole   = "solidity-kit:deployer"
	TimeOwnerRole  = "solidity-kit:time-owner"
	TokenOwnerRole = "solidity-kit:token-owner"
)

// Logger discards everything
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ArtifactsDir copies the fixture artifacts (Foundry layout) into a temp dir
func ArtifactsDir(t testing.TB) string {
	t.Helper()
	sub, err := fs.Sub(fixtures, "testdata/out")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.CopyFS(dir, sub))
	return dir
}

// ProjectConfig returns the fixture role configuration: the deployer is
// account 0, the time owner account 1 and the token owner account 2.
func ProjectConfig() *config.ProjectConfig {
	return &config.ProjectConfig{
		DefaultNetwork: config.SimulatedNetworkName,
		FallbackRole:   DeployerRole,
		Ledger:         config.LedgerConfig{Backend: config.LedgerBackendMemory},
		Roles: map[string]config.RoleConfig{
			DeployerRole:   {Default: ptr(config.IndexRef(0))},
			TimeOwnerRole:  {Default: ptr(config.IndexRef(1))},
			TokenOwnerRole: {Default: ptr(config.IndexRef(2))},
		},
	}
}

// SimulatedNetwork returns the built-in simulated network with n dev accounts
func SimulatedNetwork(n int) *config.Network {
	return &config.Network{
		Name:      config.SimulatedNetworkName,
		ChainID:   config.SimulatedChainID,
		Simulated: true,
		Accounts:  n,
	}
}

// Harness is a fully wired set of use cases over one simulated chain
type Harness struct {
	Config      *config.RuntimeConfig
	Connections *usecase.ConnectionCache
	Accounts    *usecase.AccountResolver
	Artifacts   *artifacts.Registry
	Ledger      *ledger.MemoryLedger
	Factory     *network.Create2Factory
	Deployer    *usecase.DeployContract
}

// NewHarness wires the use cases. The connection is closed when the test ends.
func NewHarness(t testing.TB, project *config.ProjectConfig) *Harness {
	t.Helper()
	if project == nil {
		project = ProjectConfig()
	}

	log := Logger()
	cfg := &config.RuntimeConfig{
		ProjectRoot:  t.TempDir(),
		ArtifactsDir: ArtifactsDir(t),
		Network:      SimulatedNetwork(5),
		Timeout:      time.Minute,
		Project:      project,
	}
	cfg.DataDir = filepath.Join(cfg.ProjectRoot, ".kitdeploy")
	cfg.ScriptsDir = filepath.Join(cfg.ProjectRoot, "deploy")

	connections := usecase.NewConnectionCache(cfg, network.NewDialer(log), log)
	t.Cleanup(connections.Close)

	h := &Harness{
		Config:      cfg,
		Connections: connections,
		Accounts:    usecase.NewAccountResolver(cfg, connections),
		Artifacts:   artifacts.NewRegistry(cfg.ArtifactsDir, log),
		Ledger:      ledger.NewMemoryLedger(),
		Factory:     network.NewCreate2Factory(log),
	}
	h.Deployer = usecase.NewDeployContract(connections, h.Ledger, h.Factory, usecase.NopProgress{}, log)
	return h
}

// Runner builds a script runner over the harness with the given scripts
func (h *Harness) Runner(scripts ...*usecase.Script) *usecase.RunScripts {
	return usecase.NewRunScripts(
		StaticScripts(scripts),
		h.Artifacts,
		h.Accounts,
		h.Deployer,
		h.Connections,
		usecase.NopProgress{},
		Logger(),
	)
}

// StaticScripts is a usecase.ScriptSource over a fixed list
type StaticScripts []*usecase.Script

// Load implements usecase.ScriptSource
func (s StaticScripts) Load(context.Context) ([]*usecase.Script, error) {
	return s, nil
}

func ptr[T any](v T) *T { return &v }
