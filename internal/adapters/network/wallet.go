package network

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// chainClient is a PublicClient that can also broadcast signed transactions
type chainClient interface {
	usecase.PublicClient
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// nodeSigner submits transactions for accounts the node holds keys for
type nodeSigner interface {
	SendNodeTransaction(ctx context.Context, req usecase.TxRequest) (common.Hash, error)
}

// Wallet signs with local keys and falls back to the node for accounts it
// has no key for
type Wallet struct {
	client  chainClient
	chainID *big.Int
	keys    map[common.Address]*ecdsa.PrivateKey
	node    nodeSigner // nil if the node cannot sign
	mined   func()     // called after each broadcast on automining networks

	mu sync.Mutex
}

func newWallet(client chainClient, chainID *big.Int, keys []*ecdsa.PrivateKey, node nodeSigner, mined func()) *Wallet {
	byAddr := make(map[common.Address]*ecdsa.PrivateKey, len(keys))
	for _, k := range keys {
		byAddr[crypto.PubkeyToAddress(k.PublicKey)] = k
	}
	return &Wallet{
		client:  client,
		chainID: chainID,
		keys:    byAddr,
		node:    node,
		mined:   mined,
	}
}

// SendTransaction implements usecase.WalletClient
func (w *Wallet) SendTransaction(ctx context.Context, req usecase.TxRequest) (common.Hash, error) {
	key, ok := w.keys[req.From]
	if !ok {
		if w.node == nil {
			return common.Hash{}, fmt.Errorf("no signer available for account %s", req.From.Hex())
		}
		hash, err := w.node.SendNodeTransaction(ctx, req)
		if err != nil {
			return common.Hash{}, err
		}
		w.afterSend()
		return hash, nil
	}

	// nonce lookup and broadcast must not interleave
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.buildTx(ctx, req)
	if err != nil {
		return common.Hash{}, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	w.afterSend()
	return signed.Hash(), nil
}

// SendRawTransaction implements usecase.WalletClient
func (w *Wallet) SendRawTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := w.client.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	w.afterSend()
	return nil
}

func (w *Wallet) buildTx(ctx context.Context, req usecase.TxRequest) (*types.Transaction, error) {
	nonce, err := w.client.PendingNonceAt(ctx, req.From)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gas := req.Gas
	if gas == 0 {
		gas, err = w.client.EstimateGas(ctx, ethereum.CallMsg{From: req.From, To: req.To, Data: req.Data, Value: value})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
	}

	head, err := w.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}

	if head.BaseFee != nil {
		tip, err := w.client.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   w.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        req.To,
			Value:     value,
			Data:      req.Data,
		}), nil
	}

	price, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: price,
		Gas:      gas,
		To:       req.To,
		Value:    value,
		Data:     req.Data,
	}), nil
}

func (w *Wallet) afterSend() {
	if w.mined != nil {
		w.mined()
	}
}

var _ usecase.WalletClient = (*Wallet)(nil)
