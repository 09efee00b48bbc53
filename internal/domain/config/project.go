package config

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// SimulatedNetworkName is the network used when nothing else is configured
const SimulatedNetworkName = "simulated"

// SimulatedChainID is the chain ID of the in-process network
const SimulatedChainID uint64 = 1337

// DefaultFallbackRole is used when a role has no configuration at all
const DefaultFallbackRole = "deployer"

// LedgerBackend selects where deployment records are stored
type LedgerBackend string

const (
	LedgerBackendFile   LedgerBackend = "file"
	LedgerBackendRedis  LedgerBackend = "redis"
	LedgerBackendMemory LedgerBackend = "memory"
)

// ProjectConfig represents kitdeploy.toml
type ProjectConfig struct {
	DefaultNetwork string                `toml:"default_network,omitempty"`
	FallbackRole   string                `toml:"fallback_role,omitempty"`
	Artifacts      string                `toml:"artifacts,omitempty"` // relative to the project root
	Scripts        string                `toml:"scripts,omitempty"`   // relative to the project root
	Ledger         LedgerConfig          `toml:"ledger"`
	Networks       map[string]*Network   `toml:"networks"`
	Roles          map[string]RoleConfig `toml:"-"` // decoded separately, see ParseAccountRef
}

// LedgerConfig represents the [ledger] section
type LedgerConfig struct {
	Backend  LedgerBackend `toml:"backend,omitempty"`
	RedisURL string        `toml:"redis_url,omitempty"`
	Prefix   string        `toml:"prefix,omitempty"` // redis key prefix
}

// Network represents a [networks.<name>] section
type Network struct {
	Name        string   `toml:"-"`
	RPCURL      string   `toml:"rpc_url,omitempty"`
	ChainID     uint64   `toml:"chain_id,omitempty"`     // 0 means "accept whatever the node reports"
	PrivateKeys []string `toml:"private_keys,omitempty"` //nolint:gosec // usually ${VAR} references
	Simulated   bool     `toml:"simulated,omitempty"`
	Accounts    int      `toml:"accounts,omitempty"` // funded dev accounts on simulated networks
}

// IsEphemeral reports whether state is lost when the process exits
func (n *Network) IsEphemeral() bool {
	return n.Simulated
}

// RoleConfig represents a [roles."<role>"] section
type RoleConfig struct {
	Default  *AccountRef
	Networks map[string]AccountRef // keyed by network name or chain ID
}

// AccountRef points at an account either by index into the connection's
// account list or by literal address. In TOML it is an integer or a string.
type AccountRef struct {
	Index   int
	Address common.Address
	Literal bool // Address is set, Index is ignored
}

// IndexRef returns a reference to the i-th connection account
func IndexRef(i int) AccountRef { return AccountRef{Index: i} }

// AddressRef returns a reference to a literal address
func AddressRef(addr common.Address) AccountRef { return AccountRef{Address: addr, Literal: true} }

// ParseAccountRef converts a decoded TOML value (integer or string) into an AccountRef
func ParseAccountRef(v any) (AccountRef, error) {
	switch val := v.(type) {
	case int64:
		if val < 0 {
			return AccountRef{}, fmt.Errorf("account index must not be negative, got %d", val)
		}
		return IndexRef(int(val)), nil
	case int:
		if val < 0 {
			return AccountRef{}, fmt.Errorf("account index must not be negative, got %d", val)
		}
		return IndexRef(val), nil
	case string:
		if common.IsHexAddress(val) {
			return AddressRef(common.HexToAddress(val)), nil
		}
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return AccountRef{}, fmt.Errorf("invalid account reference %q: expected an index or an address", val)
		}
		return IndexRef(i), nil
	default:
		return AccountRef{}, fmt.Errorf("invalid account reference of type %T", v)
	}
}

func (r AccountRef) String() string {
	if r.Literal {
		return r.Address.Hex()
	}
	return fmt.Sprintf("#%d", r.Index)
}
