package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ListAccountsResult contains the accounts of the active network and the
// addresses every configured role resolves to
type ListAccountsResult struct {
	Network  string
	ChainID  uint64
	Accounts []AccountInfo
	Roles    []RoleAssignment
}

// AccountInfo is one connection account
type AccountInfo struct {
	Index   int
	Address common.Address
	Balance *big.Int // nil if the balance could not be read
}

// RoleAssignment is a role and what it resolves to
type RoleAssignment struct {
	Role    string
	Address common.Address
	Error   error
}

// ListAccounts is the use case behind the accounts command
type ListAccounts struct {
	connections *ConnectionCache
	resolver    *AccountResolver
}

// NewListAccounts creates a new ListAccounts use case
func NewListAccounts(connections *ConnectionCache, resolver *AccountResolver) *ListAccounts {
	return &ListAccounts{
		connections: connections,
		resolver:    resolver,
	}
}

// Run executes the use case. Role failures are reported per role rather
// than failing the whole listing.
func (uc *ListAccounts) Run(ctx context.Context) (*ListAccountsResult, error) {
	conn, err := uc.connections.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := &ListAccountsResult{
		Network: conn.Network.Name,
		ChainID: conn.ChainID.Uint64(),
	}

	for i, addr := range conn.Accounts {
		info := AccountInfo{Index: i, Address: addr}
		if balance, err := conn.Public.BalanceAt(ctx, addr, nil); err == nil {
			info.Balance = balance
		}
		result.Accounts = append(result.Accounts, info)
	}

	for _, role := range uc.resolver.Roles() {
		addr, err := uc.resolver.Resolve(ctx, role)
		result.Roles = append(result.Roles, RoleAssignment{Role: role, Address: addr, Error: err})
	}

	return result, nil
}
