package adapters

import (
	"fmt"
	"log/slog"

	"github.com/google/wire"
	"github.com/solidity-kit/kitdeploy/internal/adapters/artifacts"
	"github.com/solidity-kit/kitdeploy/internal/adapters/interactive"
	"github.com/solidity-kit/kitdeploy/internal/adapters/ledger"
	"github.com/solidity-kit/kitdeploy/internal/adapters/network"
	"github.com/solidity-kit/kitdeploy/internal/adapters/progress"
	"github.com/solidity-kit/kitdeploy/internal/adapters/scripts"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// ProvideArtifactRegistry provides the registry over the project's build output
func ProvideArtifactRegistry(cfg *config.RuntimeConfig, log *slog.Logger) *artifacts.Registry {
	return artifacts.NewRegistry(cfg.ArtifactsDir, log)
}

// ProvideLedger picks the ledger backend. Ephemeral networks always use the
// in-memory ledger since their records would be stale on the next run.
func ProvideLedger(cfg *config.RuntimeConfig, log *slog.Logger) (usecase.DeploymentLedger, func(), error) {
	backend := cfg.Project.Ledger.Backend
	if cfg.Network.IsEphemeral() {
		backend = config.LedgerBackendMemory
	}

	log.Debug("using ledger", "backend", backend, "network", cfg.Network.Name)

	switch backend {
	case config.LedgerBackendMemory:
		return ledger.NewMemoryLedger(), func() {}, nil
	case config.LedgerBackendRedis:
		prefix := cfg.Project.Ledger.Prefix
		if prefix == "" {
			prefix = ledger.DefaultRedisPrefix
		}
		l, err := ledger.NewRedisLedger(cfg.Project.Ledger.RedisURL, prefix)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { _ = l.Close() }, nil
	case config.LedgerBackendFile, "":
		l, err := ledger.NewFileRepository(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return l, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", backend)
	}
}

// ProvideProgressSink shows a spinner for interactive sessions and logs otherwise
func ProvideProgressSink(cfg *config.RuntimeConfig, log *slog.Logger) usecase.ProgressSink {
	if cfg.NonInteractive {
		return progress.NewLogSink(log)
	}
	return progress.NewSpinnerSink()
}

// NetworkSet provides network access and the CREATE2 factory
var NetworkSet = wire.NewSet(
	network.NewDialer,
	wire.Bind(new(usecase.ProviderFactory), new(*network.Dialer)),

	network.NewCreate2Factory,
	wire.Bind(new(usecase.DeterministicDeployer), new(*network.Create2Factory)),
)

// ArtifactSet provides compiled contract lookup
var ArtifactSet = wire.NewSet(
	ProvideArtifactRegistry,
	wire.Bind(new(usecase.ArtifactRegistry), new(*artifacts.Registry)),
)

// LedgerSet provides deployment record storage
var LedgerSet = wire.NewSet(
	ProvideLedger,
)

// ScriptSet provides the deployment script source
var ScriptSet = wire.NewSet(
	scripts.NewYAMLSource,
	wire.Bind(new(usecase.ScriptSource), new(*scripts.YAMLSource)),
)

// ProgressSet provides progress reporting
var ProgressSet = wire.NewSet(
	ProvideProgressSink,
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.DeploymentSelector), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	NetworkSet,
	ArtifactSet,
	LedgerSet,
	ScriptSet,
	ProgressSet,
	InteractiveSet,
)
