package models

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeploymentMethod represents how the contract was deployed
type DeploymentMethod string

const (
	DeploymentMethodCreate  DeploymentMethod = "CREATE"
	DeploymentMethodCreate2 DeploymentMethod = "CREATE2"
)

// DeploymentRequest describes a single contract deployment
type DeploymentRequest struct {
	ContractName    string // name the record is stored under
	Artifact        *Artifact
	Account         common.Address // sender
	ConstructorArgs []any
	Deterministic   bool
	Salt            common.Hash
	Force           bool // replace an existing record

	// Provenance copied onto the record
	Script string
	RunID  string
}

// DeploymentStrategy captures how the address was derived
type DeploymentStrategy struct {
	Method       DeploymentMethod `json:"method"`
	Salt         string           `json:"salt,omitempty"`
	Factory      string           `json:"factory,omitempty"`
	InitCodeHash string           `json:"initCodeHash,omitempty"`
}

// DeploymentRecord is the persisted outcome of a deployment
type DeploymentRecord struct {
	Identity        string             `json:"identity"` // ledger key within a network
	Network         string             `json:"network"`
	ChainID         uint64             `json:"chainId"`
	ContractName    string             `json:"contractName"`
	ArtifactName    string             `json:"artifact"`
	Address         string             `json:"address"`
	TransactionHash string             `json:"transactionHash,omitempty"` // empty when existing code was adopted
	BlockNumber     uint64             `json:"blockNumber"`
	Deployer        string             `json:"deployer"`
	ConstructorArgs string             `json:"constructorArgs,omitempty"` // ABI-encoded, hex
	BytecodeHash    string             `json:"bytecodeHash"`
	Strategy        DeploymentStrategy `json:"strategy"`
	ABI             json.RawMessage    `json:"abi,omitempty"`
	Script          string             `json:"script,omitempty"`
	RunID           string             `json:"runId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// IsDeterministic reports whether the record was deployed through CREATE2
func (r *DeploymentRecord) IsDeterministic() bool {
	return r.Strategy.Method == DeploymentMethodCreate2
}

// Clone returns a deep copy of the record
func (r *DeploymentRecord) Clone() *DeploymentRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.ABI != nil {
		c.ABI = append(json.RawMessage(nil), r.ABI...)
	}
	return &c
}
