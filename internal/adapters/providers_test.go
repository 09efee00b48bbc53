package adapters

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidity-kit/kitdeploy/internal/adapters/ledger"
	"github.com/solidity-kit/kitdeploy/internal/adapters/progress"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/testutil"
)

func TestProvideLedger(t *testing.T) {
	rpcNetwork := &config.Network{Name: "sepolia", ChainID: 11155111, RPCURL: "http://127.0.0.1:8545"}
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		network *config.Network
		ledger  config.LedgerConfig
		check   func(t *testing.T, l any)
		wantErr string
	}{
		{
			name:    "simulated network always uses memory",
			network: testutil.SimulatedNetwork(1),
			ledger:  config.LedgerConfig{Backend: config.LedgerBackendRedis, RedisURL: "redis://unused:1"},
			check: func(t *testing.T, l any) {
				assert.IsType(t, &ledger.MemoryLedger{}, l)
			},
		},
		{
			name:    "file by default",
			network: rpcNetwork,
			check: func(t *testing.T, l any) {
				assert.IsType(t, &ledger.FileRepository{}, l)
			},
		},
		{
			name:    "redis",
			network: rpcNetwork,
			ledger:  config.LedgerConfig{Backend: config.LedgerBackendRedis, RedisURL: "redis://" + mr.Addr()},
			check: func(t *testing.T, l any) {
				assert.IsType(t, &ledger.RedisLedger{}, l)
			},
		},
		{
			name:    "unknown backend",
			network: rpcNetwork,
			ledger:  config.LedgerConfig{Backend: "etcd"},
			wantErr: `unknown ledger backend "etcd"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.RuntimeConfig{
				DataDir: filepath.Join(t.TempDir(), ".kitdeploy"),
				Network: tt.network,
				Project: &config.ProjectConfig{Ledger: tt.ledger},
			}

			l, cleanup, err := ProvideLedger(cfg, testutil.Logger())
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer cleanup()
			tt.check(t, l)
		})
	}
}

func TestProvideProgressSink(t *testing.T) {
	assert.IsType(t, &progress.LogSink{}, ProvideProgressSink(&config.RuntimeConfig{NonInteractive: true}, testutil.Logger()))
	assert.IsType(t, &progress.SpinnerSink{}, ProvideProgressSink(&config.RuntimeConfig{}, testutil.Logger()))
}
