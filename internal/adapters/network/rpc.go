package network

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// methodNotFound is the JSON-RPC error code for unsupported methods
const methodNotFound = -32601

// RPCProvider talks to a node over JSON-RPC
type RPCProvider struct {
	rpc    *rpc.Client
	client *ethclient.Client
	keys   []*ecdsa.PrivateKey
	addrs  []common.Address
}

// DialRPC connects to the network's RPC endpoint
func DialRPC(ctx context.Context, network *config.Network) (*RPCProvider, error) {
	keys, err := ParsePrivateKeys(network.PrivateKeys)
	if err != nil {
		return nil, err
	}

	rc, err := rpc.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	addrs := make([]common.Address, len(keys))
	for i, k := range keys {
		addrs[i] = crypto.PubkeyToAddress(k.PublicKey)
	}

	return &RPCProvider{
		rpc:    rc,
		client: ethclient.NewClient(rc),
		keys:   keys,
		addrs:  addrs,
	}, nil
}

// ParsePrivateKeys parses hex private keys, with or without 0x prefix
func ParsePrivateKeys(raw []string) ([]*ecdsa.PrivateKey, error) {
	keys := make([]*ecdsa.PrivateKey, 0, len(raw))
	for i, r := range raw {
		r = strings.TrimPrefix(strings.TrimSpace(r), "0x")
		if r == "" {
			return nil, fmt.Errorf("private key #%d is empty (unset environment variable?)", i)
		}
		key, err := crypto.HexToECDSA(r)
		if err != nil {
			return nil, fmt.Errorf("private key #%d is invalid: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Public implements usecase.Provider
func (p *RPCProvider) Public() usecase.PublicClient {
	return p.client
}

// Wallet implements usecase.Provider
func (p *RPCProvider) Wallet(chainID *big.Int) usecase.WalletClient {
	return newWallet(p.client, chainID, p.keys, p, nil)
}

// LocalAccounts implements usecase.Provider
func (p *RPCProvider) LocalAccounts() []common.Address {
	return append([]common.Address(nil), p.addrs...)
}

// NodeAccounts implements usecase.Provider. Nodes that do not support
// eth_accounts have none.
func (p *RPCProvider) NodeAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == methodNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("eth_accounts failed: %w", err)
	}
	return accounts, nil
}

// SendNodeTransaction asks the node to sign and broadcast with eth_sendTransaction
func (p *RPCProvider) SendNodeTransaction(ctx context.Context, req usecase.TxRequest) (common.Hash, error) {
	args := map[string]any{
		"from": req.From,
		"data": hexutil.Bytes(req.Data),
	}
	if req.To != nil {
		args["to"] = req.To
	}
	if req.Value != nil {
		args["value"] = (*hexutil.Big)(req.Value)
	}
	if req.Gas != 0 {
		args["gas"] = hexutil.Uint64(req.Gas)
	}

	var hash common.Hash
	if err := p.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction failed: %w", err)
	}
	return hash, nil
}

// Close implements usecase.Provider
func (p *RPCProvider) Close() {
	p.rpc.Close()
}

var _ usecase.Provider = (*RPCProvider)(nil)
