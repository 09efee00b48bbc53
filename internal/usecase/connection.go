package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
)

// Connection is the process-wide handle to the active network
type Connection struct {
	Network  *config.Network
	ChainID  *big.Int
	Provider Provider
	Wallet   WalletClient
	Public   PublicClient
	Accounts []common.Address // local keys first, then node accounts
}

// HasAccount reports whether addr is one of the connection accounts
func (c *Connection) HasAccount(addr common.Address) bool {
	return lo.Contains(c.Accounts, addr)
}

// ConnectionCache builds the Connection on first use and hands out the same
// value afterwards. A failed attempt leaves the cache empty so the next call
// dials again.
type ConnectionCache struct {
	network *config.Network
	factory ProviderFactory
	log     *slog.Logger

	mu   sync.Mutex
	conn *Connection
}

// NewConnectionCache creates a cache for the configured network
func NewConnectionCache(cfg *config.RuntimeConfig, factory ProviderFactory, log *slog.Logger) *ConnectionCache {
	return &ConnectionCache{
		network: cfg.Network,
		factory: factory,
		log:     log.With("component", "connection"),
	}
}

// Network returns the network this cache connects to
func (c *ConnectionCache) Network() *config.Network {
	return c.network
}

// Get returns the cached connection, dialing the network on first use
func (c *ConnectionCache) Get(ctx context.Context) (*Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, &domain.ConnectionError{Network: c.network.Name, Err: err}
	}
	c.conn = conn
	return conn, nil
}

// Close releases the provider. A later Get dials again.
func (c *ConnectionCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Provider.Close()
		c.conn = nil
	}
}

func (c *ConnectionCache) connect(ctx context.Context) (*Connection, error) {
	c.log.Debug("dialing network", "network", c.network.Name, "simulated", c.network.Simulated)

	provider, err := c.factory.Dial(ctx, c.network)
	if err != nil {
		return nil, err
	}

	public := provider.Public()
	chainID, err := public.ChainID(ctx)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if c.network.ChainID != 0 && chainID.Uint64() != c.network.ChainID {
		provider.Close()
		return nil, fmt.Errorf("%w: configured chain ID %d, provider reports %d",
			domain.ErrNetworkMismatch, c.network.ChainID, chainID.Uint64())
	}

	nodeAccounts, err := provider.NodeAccounts(ctx)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to list node accounts: %w", err)
	}
	accounts := lo.Uniq(append(append([]common.Address{}, provider.LocalAccounts()...), nodeAccounts...))

	c.log.Debug("connected", "network", c.network.Name, "chainId", chainID, "accounts", len(accounts))

	return &Connection{
		Network:  c.network,
		ChainID:  chainID,
		Provider: provider,
		Wallet:   provider.Wallet(chainID),
		Public:   public,
		Accounts: accounts,
	}, nil
}
