package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

// DeployStatus describes what a deploy call did
type DeployStatus string

const (
	// DeployStatusDeployed means a transaction created the contract
	DeployStatusDeployed DeployStatus = "deployed"
	// DeployStatusExisting means the ledger already held a matching record
	DeployStatusExisting DeployStatus = "existing"
	// DeployStatusAdopted means code was already present at the predicted CREATE2 address
	DeployStatusAdopted DeployStatus = "adopted"
)

// DeployResult is the outcome of a single deployment request
type DeployResult struct {
	Record *models.DeploymentRecord
	Status DeployStatus
}

// DeployContract deploys a contract unless an equivalent deployment exists
type DeployContract struct {
	connections  *ConnectionCache
	ledger       DeploymentLedger
	factory      DeterministicDeployer
	sink         ProgressSink
	log          *slog.Logger
	pollInterval time.Duration
	now          func() time.Time
}

// NewDeployContract creates a new DeployContract use case
func NewDeployContract(
	connections *ConnectionCache,
	ledger DeploymentLedger,
	factory DeterministicDeployer,
	sink ProgressSink,
	log *slog.Logger,
) *DeployContract {
	return &DeployContract{
		connections:  connections,
		ledger:       ledger,
		factory:      factory,
		sink:         sink,
		log:          log.With("component", "deployer"),
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
}

// Deploy returns the deployment record for req, deploying only when no
// equivalent record exists
func (uc *DeployContract) Deploy(ctx context.Context, req models.DeploymentRequest) (*models.DeploymentRecord, error) {
	result, err := uc.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return result.Record, nil
}

// Get returns the latest deployment recorded under name on the active network
func (uc *DeployContract) Get(ctx context.Context, name string) (*models.DeploymentRecord, error) {
	return uc.ledger.GetByName(ctx, uc.connections.Network().Name, name)
}

// Run executes the deployment request and reports how it was satisfied
func (uc *DeployContract) Run(ctx context.Context, req models.DeploymentRequest) (*DeployResult, error) {
	if req.ContractName == "" && req.Artifact != nil {
		req.ContractName = req.Artifact.Name
	}
	initCode, encodedArgs, err := prepareInitCode(req)
	if err != nil {
		return nil, err
	}

	network := uc.connections.Network().Name
	identity := DeploymentIdentity(req, encodedArgs)
	log := uc.log.With("contract", req.ContractName, "network", network, "identity", identity)

	if !req.Force {
		existing, err := uc.ledger.Get(ctx, network, identity)
		switch {
		case err == nil:
			log.Debug("deployment already recorded", "address", existing.Address)
			return &DeployResult{Record: existing, Status: DeployStatusExisting}, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
	}

	conn, err := uc.connections.Get(ctx)
	if err != nil {
		return nil, err
	}

	record := &models.DeploymentRecord{
		Identity:     identity,
		Network:      network,
		ChainID:      conn.ChainID.Uint64(),
		ContractName: req.ContractName,
		ArtifactName: req.Artifact.FullyQualifiedName(),
		Deployer:     req.Account.Hex(),
		BytecodeHash: crypto.Keccak256Hash(req.Artifact.Bytecode).Hex(),
		ABI:          append([]byte(nil), req.Artifact.ABI...),
		Script:       req.Script,
		RunID:        req.RunID,
	}
	if len(encodedArgs) > 0 {
		record.ConstructorArgs = hexutil.Encode(encodedArgs)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "deploying",
		Message: fmt.Sprintf("Deploying %s", req.ContractName),
		Spinner: true,
	})
	defer uc.sink.OnProgress(ctx, ProgressEvent{Stage: "deploying"})

	status := DeployStatusDeployed
	if req.Deterministic {
		status, err = uc.deployDeterministic(ctx, conn, req, initCode, record)
	} else {
		err = uc.deployCreate(ctx, conn, req, initCode, record)
	}
	if err != nil {
		return nil, err
	}

	record.CreatedAt = uc.now().UTC()
	if err := uc.ledger.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("deployed %s at %s but failed to record it: %w", req.ContractName, record.Address, err)
	}

	log.Info("deployment recorded", "address", record.Address, "status", status, "tx", record.TransactionHash)
	return &DeployResult{Record: record, Status: status}, nil
}

func (uc *DeployContract) deployCreate(ctx context.Context, conn *Connection, req models.DeploymentRequest, initCode []byte, record *models.DeploymentRecord) error {
	receipt, err := uc.submit(ctx, conn, req.ContractName, TxRequest{From: req.Account, Data: initCode})
	if err != nil {
		return err
	}

	record.Address = receipt.ContractAddress.Hex()
	record.TransactionHash = receipt.TxHash.Hex()
	record.BlockNumber = receipt.BlockNumber.Uint64()
	record.Strategy = models.DeploymentStrategy{Method: models.DeploymentMethodCreate}
	return nil
}

func (uc *DeployContract) deployDeterministic(ctx context.Context, conn *Connection, req models.DeploymentRequest, initCode []byte, record *models.DeploymentRecord) (DeployStatus, error) {
	predicted := uc.factory.PredictAddress(req.Salt, initCode)
	record.Address = predicted.Hex()
	record.Strategy = models.DeploymentStrategy{
		Method:       models.DeploymentMethodCreate2,
		Salt:         req.Salt.Hex(),
		Factory:      uc.factory.Address().Hex(),
		InitCodeHash: crypto.Keccak256Hash(initCode).Hex(),
	}

	code, err := conn.Public.CodeAt(ctx, predicted, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read code at %s: %w", predicted.Hex(), err)
	}
	if len(code) > 0 {
		block, err := conn.Public.BlockNumber(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read block number: %w", err)
		}
		record.BlockNumber = block
		uc.log.Debug("code already present at predicted address", "contract", req.ContractName, "address", predicted.Hex())
		return DeployStatusAdopted, nil
	}

	if err := uc.factory.Ensure(ctx, conn, req.Account); err != nil {
		return "", &domain.DeploymentFailedError{
			Contract: req.ContractName,
			Reason:   "deterministic deployment factory unavailable",
			Err:      err,
		}
	}

	to := uc.factory.Address()
	receipt, err := uc.submit(ctx, conn, req.ContractName, TxRequest{
		From: req.Account,
		To:   &to,
		Data: uc.factory.Calldata(req.Salt, initCode),
	})
	if err != nil {
		return "", err
	}

	code, err = conn.Public.CodeAt(ctx, predicted, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read code at %s: %w", predicted.Hex(), err)
	}
	if len(code) == 0 {
		return "", &domain.DeploymentFailedError{
			Contract:        req.ContractName,
			TransactionHash: receipt.TxHash.Hex(),
			Reason:          fmt.Sprintf("no code at predicted address %s", predicted.Hex()),
		}
	}

	record.TransactionHash = receipt.TxHash.Hex()
	record.BlockNumber = receipt.BlockNumber.Uint64()
	return DeployStatusDeployed, nil
}

// submit estimates gas, sends the transaction and waits for a successful receipt
func (uc *DeployContract) submit(ctx context.Context, conn *Connection, contract string, tx TxRequest) (*types.Receipt, error) {
	gas, err := conn.Public.EstimateGas(ctx, ethereum.CallMsg{From: tx.From, To: tx.To, Data: tx.Data, Value: tx.Value})
	if err != nil {
		return nil, &domain.DeploymentFailedError{Contract: contract, Reason: "gas estimation failed", Err: err}
	}
	tx.Gas = withGasBuffer(gas)

	hash, err := conn.Wallet.SendTransaction(ctx, tx)
	if err != nil {
		return nil, &domain.DeploymentFailedError{Contract: contract, Reason: "failed to send transaction", Err: err}
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "waiting",
		Message: fmt.Sprintf("Waiting for %s (%s)", contract, hash.Hex()),
		Spinner: true,
	})

	receipt, err := WaitForReceipt(ctx, conn.Public, hash, uc.pollInterval)
	if err != nil {
		return nil, &domain.DeploymentFailedError{Contract: contract, TransactionHash: hash.Hex(), Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &domain.DeploymentFailedError{Contract: contract, TransactionHash: hash.Hex(), Reason: "transaction reverted"}
	}
	return receipt, nil
}

// DeploymentIdentity returns the ledger key for a request. Deterministic
// deployments are keyed by what determines their address and sender, the
// others by contract name.
func DeploymentIdentity(req models.DeploymentRequest, encodedArgs []byte) string {
	if !req.Deterministic {
		return req.ContractName
	}
	return crypto.Keccak256Hash(req.Artifact.Bytecode, encodedArgs, req.Account.Bytes(), req.Salt.Bytes()).Hex()
}

// prepareInitCode validates the artifact and returns creation code with the
// ABI-encoded constructor arguments appended
func prepareInitCode(req models.DeploymentRequest) (initCode, encodedArgs []byte, err error) {
	if req.Artifact == nil {
		return nil, nil, &domain.InvalidArtifactError{Artifact: req.ContractName, Reason: "no artifact given"}
	}
	name := req.Artifact.FullyQualifiedName()
	if len(req.Artifact.Bytecode) == 0 {
		return nil, nil, &domain.InvalidArtifactError{Artifact: name, Reason: "empty bytecode (abstract contract or interface?)"}
	}

	parsed, err := req.Artifact.ParseABI()
	if err != nil {
		return nil, nil, &domain.InvalidArtifactError{Artifact: name, Reason: "malformed ABI", Err: err}
	}
	if len(req.ConstructorArgs) > 0 || len(parsed.Constructor.Inputs) > 0 {
		encodedArgs, err = parsed.Pack("", req.ConstructorArgs...)
		if err != nil {
			return nil, nil, &domain.InvalidArtifactError{Artifact: name, Reason: "constructor arguments do not match ABI", Err: err}
		}
	}

	initCode = make([]byte, 0, len(req.Artifact.Bytecode)+len(encodedArgs))
	initCode = append(initCode, req.Artifact.Bytecode...)
	initCode = append(initCode, encodedArgs...)
	return initCode, encodedArgs, nil
}

func withGasBuffer(gas uint64) uint64 {
	return gas + gas/5
}
