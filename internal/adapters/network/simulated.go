package network

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// DevAccountBalance is the genesis balance of every simulated dev account
var DevAccountBalance = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))

// DevKey returns the i-th deterministic dev key of the simulated network.
// Keys are stable across runs so scripted addresses are reproducible.
func DevKey(i int) *ecdsa.PrivateKey {
	seed := crypto.Keccak256([]byte(fmt.Sprintf("kitdeploy simulated account %d", i)))
	key, err := crypto.ToECDSA(seed)
	if err != nil {
		panic(fmt.Sprintf("invalid dev key %d: %v", i, err))
	}
	return key
}

// SimulatedProvider is an in-process chain that mines a block for every
// transaction. The CREATE2 factory is part of its genesis state.
type SimulatedProvider struct {
	backend *simulated.Backend
	keys    []*ecdsa.PrivateKey
	addrs   []common.Address
}

// NewSimulatedProvider starts a simulated chain with n funded dev accounts
func NewSimulatedProvider(n int) *SimulatedProvider {
	keys := make([]*ecdsa.PrivateKey, n)
	addrs := make([]common.Address, n)
	alloc := types.GenesisAlloc{
		FactoryAddress: {Code: factoryRuntimeCode, Balance: new(big.Int)},
	}
	for i := range keys {
		keys[i] = DevKey(i)
		addrs[i] = crypto.PubkeyToAddress(keys[i].PublicKey)
		alloc[addrs[i]] = types.Account{Balance: new(big.Int).Set(DevAccountBalance)}
	}

	return &SimulatedProvider{
		backend: simulated.NewBackend(alloc),
		keys:    keys,
		addrs:   addrs,
	}
}

// Public implements usecase.Provider
func (p *SimulatedProvider) Public() usecase.PublicClient {
	return p.backend.Client()
}

// Wallet implements usecase.Provider
func (p *SimulatedProvider) Wallet(chainID *big.Int) usecase.WalletClient {
	return newWallet(p.backend.Client(), chainID, p.keys, nil, func() { p.backend.Commit() })
}

// LocalAccounts implements usecase.Provider
func (p *SimulatedProvider) LocalAccounts() []common.Address {
	return append([]common.Address(nil), p.addrs...)
}

// NodeAccounts implements usecase.Provider. The simulated node holds no keys.
func (p *SimulatedProvider) NodeAccounts(context.Context) ([]common.Address, error) {
	return nil, nil
}

// Commit mines a block
func (p *SimulatedProvider) Commit() {
	p.backend.Commit()
}

// Close implements usecase.Provider
func (p *SimulatedProvider) Close() {
	_ = p.backend.Close()
}

var _ usecase.Provider = (*SimulatedProvider)(nil)
