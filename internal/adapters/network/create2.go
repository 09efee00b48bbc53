package network

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// FactoryAddress is the deterministic deployment proxy present on most EVM
// networks. Calldata is salt (32 bytes) followed by init code; it returns the
// created address.
var FactoryAddress = common.HexToAddress("0x4e59b44847b379578588920cA78FbF26c0B4956C")

var (
	factoryRuntimeCode = common.FromHex("0x7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe03601600081602082378035828234f58015156039578182fd5b8082525050506014600cf3")
	factoryInitCode    = append(common.FromHex("0x604580600e600039806000f350fe"), factoryRuntimeCode...)

	factoryGasPrice = big.NewInt(100 * params.GWei)
	factoryGasLimit = uint64(100_000)
)

// Create2Factory implements usecase.DeterministicDeployer for the
// deterministic deployment proxy
type Create2Factory struct {
	address      common.Address
	pollInterval time.Duration
	log          *slog.Logger
}

// NewCreate2Factory creates the factory adapter
func NewCreate2Factory(log *slog.Logger) *Create2Factory {
	return &Create2Factory{
		address:      FactoryAddress,
		pollInterval: usecase.DefaultPollInterval,
		log:          log.With("component", "create2"),
	}
}

// Address implements usecase.DeterministicDeployer
func (f *Create2Factory) Address() common.Address {
	return f.address
}

// PredictAddress implements usecase.DeterministicDeployer
func (f *Create2Factory) PredictAddress(salt common.Hash, initCode []byte) common.Address {
	return crypto.CreateAddress2(f.address, salt, crypto.Keccak256(initCode))
}

// Calldata implements usecase.DeterministicDeployer
func (f *Create2Factory) Calldata(salt common.Hash, initCode []byte) []byte {
	data := make([]byte, 0, common.HashLength+len(initCode))
	data = append(data, salt.Bytes()...)
	return append(data, initCode...)
}

// Ensure implements usecase.DeterministicDeployer. When the factory is
// missing, the keyless deployer of the presigned installation transaction is
// topped up from funder and the transaction is broadcast. Nodes that reject
// unprotected (pre-EIP-155) transactions cannot be bootstrapped this way.
func (f *Create2Factory) Ensure(ctx context.Context, conn *usecase.Connection, funder common.Address) error {
	code, err := conn.Public.CodeAt(ctx, f.address, nil)
	if err != nil {
		return fmt.Errorf("failed to read factory code: %w", err)
	}
	if len(code) > 0 {
		return nil
	}

	tx := bootstrapTransaction()
	deployer, err := types.Sender(types.HomesteadSigner{}, tx)
	if err != nil {
		return fmt.Errorf("failed to recover factory deployer: %w", err)
	}
	f.log.Info("installing deterministic deployment factory", "factory", f.address.Hex(), "deployer", deployer.Hex())

	balance, err := conn.Public.BalanceAt(ctx, deployer, nil)
	if err != nil {
		return fmt.Errorf("failed to read factory deployer balance: %w", err)
	}
	if cost := tx.Cost(); balance.Cmp(cost) < 0 {
		hash, err := conn.Wallet.SendTransaction(ctx, usecase.TxRequest{
			From:  funder,
			To:    &deployer,
			Value: new(big.Int).Sub(cost, balance),
			Gas:   params.TxGas,
		})
		if err != nil {
			return fmt.Errorf("failed to fund factory deployer: %w", err)
		}
		if err := f.waitSuccess(ctx, conn, hash); err != nil {
			return fmt.Errorf("failed to fund factory deployer: %w", err)
		}
	}

	if err := conn.Wallet.SendRawTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to install factory: %w", err)
	}
	if err := f.waitSuccess(ctx, conn, tx.Hash()); err != nil {
		return fmt.Errorf("failed to install factory: %w", err)
	}

	code, err = conn.Public.CodeAt(ctx, f.address, nil)
	if err != nil {
		return fmt.Errorf("failed to read factory code: %w", err)
	}
	if !bytes.Equal(code, factoryRuntimeCode) {
		return fmt.Errorf("unexpected code at factory address %s", f.address.Hex())
	}
	return nil
}

func (f *Create2Factory) waitSuccess(ctx context.Context, conn *usecase.Connection, hash common.Hash) error {
	receipt, err := usecase.WaitForReceipt(ctx, conn.Public, hash, f.pollInterval)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", hash.Hex())
	}
	return nil
}

// bootstrapTransaction is the presigned keyless installation transaction
func bootstrapTransaction() *types.Transaction {
	sig := new(big.Int).SetBytes(bytes.Repeat([]byte{0x22}, 32))
	return types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: factoryGasPrice,
		Gas:      factoryGasLimit,
		To:       nil,
		Value:    new(big.Int),
		Data:     factoryInitCode,
		V:        big.NewInt(27),
		R:        sig,
		S:        new(big.Int).Set(sig),
	})
}

var _ usecase.DeterministicDeployer = (*Create2Factory)(nil)
