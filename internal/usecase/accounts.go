package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
)

// AccountResolver maps named account roles to addresses on the active network.
//
// Order of precedence for a role:
//  1. an override for the network, keyed by network name or chain ID
//  2. the role's default
//  3. if the role has no configuration at all, the fallback role (steps 1-2)
type AccountResolver struct {
	network      *config.Network
	roles        map[string]config.RoleConfig
	fallbackRole string
	connections  *ConnectionCache
}

// NewAccountResolver creates a resolver over the project role configuration
func NewAccountResolver(cfg *config.RuntimeConfig, connections *ConnectionCache) *AccountResolver {
	return &AccountResolver{
		network:      cfg.Network,
		roles:        cfg.Project.Roles,
		fallbackRole: cfg.Project.FallbackRole,
		connections:  connections,
	}
}

// Roles returns the configured role names in sorted order
func (r *AccountResolver) Roles() []string {
	names := make([]string, 0, len(r.roles))
	for name := range r.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the address for role
func (r *AccountResolver) Resolve(ctx context.Context, role string) (common.Address, error) {
	rc, ok := r.roles[role]
	if !ok {
		if r.fallbackRole == "" || r.fallbackRole == role {
			return common.Address{}, r.unresolved(role, "no configuration for role")
		}
		fallback, ok := r.roles[r.fallbackRole]
		if !ok {
			return common.Address{}, r.unresolved(role, fmt.Sprintf("no configuration for role or fallback role %q", r.fallbackRole))
		}
		rc = fallback
	}

	ref, ok, err := r.pick(ctx, rc)
	if err != nil {
		return common.Address{}, err
	}
	if !ok {
		return common.Address{}, r.unresolved(role, "no default and no override for this network")
	}
	if ref.Literal {
		return ref.Address, nil
	}

	conn, err := r.connections.Get(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if ref.Index >= len(conn.Accounts) {
		return common.Address{}, r.unresolved(role,
			fmt.Sprintf("account index %d out of range (%d accounts available)", ref.Index, len(conn.Accounts)))
	}
	return conn.Accounts[ref.Index], nil
}

// ResolveAll resolves every role, stopping at the first failure
func (r *AccountResolver) ResolveAll(ctx context.Context, roles []string) (map[string]common.Address, error) {
	resolved := make(map[string]common.Address, len(roles))
	for _, role := range roles {
		addr, err := r.Resolve(ctx, role)
		if err != nil {
			return nil, err
		}
		resolved[role] = addr
	}
	return resolved, nil
}

// pick selects the reference that applies to the active network
func (r *AccountResolver) pick(ctx context.Context, rc config.RoleConfig) (config.AccountRef, bool, error) {
	if ref, ok := rc.Networks[r.network.Name]; ok {
		return ref, true, nil
	}
	if len(rc.Networks) > 0 {
		chainID := r.network.ChainID
		if chainID == 0 {
			conn, err := r.connections.Get(ctx)
			if err != nil {
				return config.AccountRef{}, false, err
			}
			chainID = conn.ChainID.Uint64()
		}
		if ref, ok := rc.Networks[strconv.FormatUint(chainID, 10)]; ok {
			return ref, true, nil
		}
	}
	if rc.Default != nil {
		return *rc.Default, true, nil
	}
	return config.AccountRef{}, false, nil
}

func (r *AccountResolver) unresolved(role, reason string) error {
	return &domain.UnresolvedRoleError{Role: role, Network: r.network.Name, Reason: reason}
}
