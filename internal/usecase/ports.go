package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

// ArtifactRegistry provides access to compiled contracts
type ArtifactRegistry interface {
	// Get returns a copy of the artifact for "Name" or "path:Name".
	// Missing names wrap domain.ErrArtifactNotFound.
	Get(ctx context.Context, name string) (*models.Artifact, error)
	List(ctx context.Context) ([]*models.Artifact, error)
}

// DeploymentLedger persists deployment records per network
type DeploymentLedger interface {
	// Get returns the record stored under identity, or domain.ErrNotFound
	Get(ctx context.Context, network, identity string) (*models.DeploymentRecord, error)
	// GetByName returns the latest record saved under a contract name, or domain.ErrNotFound
	GetByName(ctx context.Context, network, name string) (*models.DeploymentRecord, error)
	// Save stores the record and points its name at it
	Save(ctx context.Context, record *models.DeploymentRecord) error
	List(ctx context.Context, network string) ([]*models.DeploymentRecord, error)
}

// PublicClient reads chain state. Both *ethclient.Client and the simulated
// backend client satisfy it.
type PublicClient interface {
	ethereum.ContractCaller
	ethereum.GasEstimator
	ethereum.GasPricer
	ethereum.GasPricer1559
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TxRequest is an unsigned transaction from one of the connection accounts
type TxRequest struct {
	From  common.Address
	To    *common.Address // nil creates a contract
	Data  []byte
	Value *big.Int
	Gas   uint64
}

// WalletClient submits transactions
type WalletClient interface {
	// SendTransaction signs with a local key, or asks the node to sign for
	// node-managed accounts, and broadcasts.
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	// SendRawTransaction broadcasts an already signed transaction
	SendRawTransaction(ctx context.Context, tx *types.Transaction) error
}

// Provider is a dialed network
type Provider interface {
	Public() PublicClient
	Wallet(chainID *big.Int) WalletClient
	// LocalAccounts returns the addresses of locally held keys in configuration order
	LocalAccounts() []common.Address
	// NodeAccounts returns accounts the node signs for (eth_accounts)
	NodeAccounts(ctx context.Context) ([]common.Address, error)
	Close()
}

// ProviderFactory dials networks
type ProviderFactory interface {
	Dial(ctx context.Context, network *config.Network) (Provider, error)
}

// DeterministicDeployer is a CREATE2 factory contract
type DeterministicDeployer interface {
	Address() common.Address
	PredictAddress(salt common.Hash, initCode []byte) common.Address
	Calldata(salt common.Hash, initCode []byte) []byte
	// Ensure installs the factory if the network does not have it yet,
	// using funder to pay for the installation.
	Ensure(ctx context.Context, conn *Connection, funder common.Address) error
}

// ScriptSource loads deployment scripts
type ScriptSource interface {
	Load(ctx context.Context) ([]*Script, error)
}

// DeploymentSelector picks one deployment among candidates, interactively or not
type DeploymentSelector interface {
	SelectDeployment(ctx context.Context, candidates []*models.DeploymentRecord, prompt string) (*models.DeploymentRecord, error)
}

// Script is a unit of deployment work
type Script struct {
	domain.ScriptUnit
	Run func(ctx context.Context, env *Environment) error
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Current int
	Total   int
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
