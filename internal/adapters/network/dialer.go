package network

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// Dialer implements usecase.ProviderFactory
type Dialer struct {
	log *slog.Logger
}

// NewDialer creates a new network dialer
func NewDialer(log *slog.Logger) *Dialer {
	return &Dialer{log: log.With("component", "dialer")}
}

// Dial connects to the network, starting an in-process chain for simulated networks
func (d *Dialer) Dial(ctx context.Context, network *config.Network) (usecase.Provider, error) {
	if network.Simulated {
		if network.Accounts < 0 {
			return nil, fmt.Errorf("network %s: invalid account count %d", network.Name, network.Accounts)
		}
		d.log.Debug("starting simulated chain", "network", network.Name, "accounts", network.Accounts)
		return NewSimulatedProvider(network.Accounts), nil
	}

	d.log.Debug("dialing rpc", "network", network.Name, "url", network.RPCURL)
	return DialRPC(ctx, network)
}

var _ usecase.ProviderFactory = (*Dialer)(nil)
