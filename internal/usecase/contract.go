package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

// BoundContract reads from and writes to a deployed contract through the
// active connection
type BoundContract struct {
	Address common.Address
	ABI     abi.ABI

	conn         *Connection
	pollInterval time.Duration
}

// NewBoundContract binds a deployment record to a connection
func NewBoundContract(conn *Connection, record *models.DeploymentRecord) (*BoundContract, error) {
	parsed, err := abi.JSON(bytes.NewReader(record.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI of %s: %w", record.ContractName, err)
	}
	return &BoundContract{
		Address:      common.HexToAddress(record.Address),
		ABI:          parsed,
		conn:         conn,
		pollInterval: DefaultPollInterval,
	}, nil
}

// Read performs an eth_call and unpacks the outputs
func (c *BoundContract) Read(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	out, err := c.conn.Public.CallContract(ctx, ethereum.CallMsg{To: &c.Address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s failed: %w", method, err)
	}

	values, err := c.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return values, nil
}

// Write sends a transaction from one of the connection accounts and waits for it to be mined
func (c *BoundContract) Write(ctx context.Context, from common.Address, method string, args ...any) (*types.Receipt, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	gas, err := c.conn.Public.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &c.Address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("gas estimation for %s failed: %w", method, err)
	}

	hash, err := c.conn.Wallet.SendTransaction(ctx, TxRequest{From: from, To: &c.Address, Data: data, Gas: withGasBuffer(gas)})
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}

	receipt, err := WaitForReceipt(ctx, c.conn.Public, hash, c.pollInterval)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s reverted (tx %s)", method, hash.Hex())
	}
	return receipt, nil
}
