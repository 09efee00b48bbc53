package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract as produced by the build toolchain
type Artifact struct {
	Name             string          `json:"contractName"`
	SourcePath       string          `json:"sourceName"` // e.g. "src/Time.sol"
	ABI              json.RawMessage `json:"abi"`
	Bytecode         []byte          `json:"-"` // creation code
	DeployedBytecode []byte          `json:"-"` // runtime code
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

// FullyQualifiedName returns "path:Name", or just the name when the source is unknown
func (a *Artifact) FullyQualifiedName() string {
	if a.SourcePath == "" {
		return a.Name
	}
	return fmt.Sprintf("%s:%s", a.SourcePath, a.Name)
}

// ParseABI parses the artifact ABI
func (a *Artifact) ParseABI() (abi.ABI, error) {
	if len(a.ABI) == 0 {
		return abi.ABI{}, nil
	}
	return abi.JSON(bytes.NewReader(a.ABI))
}

// Clone returns a deep copy so callers cannot mutate registry state
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	return &Artifact{
		Name:             a.Name,
		SourcePath:       a.SourcePath,
		ABI:              bytes.Clone(a.ABI),
		Bytecode:         bytes.Clone(a.Bytecode),
		DeployedBytecode: bytes.Clone(a.DeployedBytecode),
		Metadata:         bytes.Clone(a.Metadata),
	}
}
