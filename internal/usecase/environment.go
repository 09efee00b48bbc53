package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

// DeployOptions configures a deployment made from a script
type DeployOptions struct {
	Artifact      string // defaults to the deployment name
	From          string // named account role
	Args          []any
	Deterministic bool
	Salt          common.Hash
}

// Environment is what a script sees while it runs. All scripts of a run
// share one environment and therefore one connection.
type Environment struct {
	runID string
	force bool

	script    string
	artifacts ArtifactRegistry
	accounts  *AccountResolver
	deployer  *DeployContract
	conns     *ConnectionCache

	results []*DeployResult
}

// RunID identifies the current run
func (e *Environment) RunID() string { return e.runID }

// Network returns the active network name
func (e *Environment) Network() string { return e.conns.Network().Name }

// Connection returns the shared network connection
func (e *Environment) Connection(ctx context.Context) (*Connection, error) {
	return e.conns.Get(ctx)
}

// NamedAccount resolves a role to an address
func (e *Environment) NamedAccount(ctx context.Context, role string) (common.Address, error) {
	return e.accounts.Resolve(ctx, role)
}

// Artifact returns a copy of the named artifact
func (e *Environment) Artifact(ctx context.Context, name string) (*models.Artifact, error) {
	a, err := e.artifacts.Get(ctx, name)
	if err != nil {
		return nil, &domain.InvalidArtifactError{Artifact: name, Err: err}
	}
	return a, nil
}

// Deploy deploys name unless an equivalent deployment is already recorded
func (e *Environment) Deploy(ctx context.Context, name string, opts DeployOptions) (*models.DeploymentRecord, error) {
	artifactName := opts.Artifact
	if artifactName == "" {
		artifactName = name
	}
	artifact, err := e.Artifact(ctx, artifactName)
	if err != nil {
		return nil, err
	}

	from, err := e.NamedAccount(ctx, opts.From)
	if err != nil {
		return nil, err
	}

	result, err := e.deployer.Run(ctx, models.DeploymentRequest{
		ContractName:    name,
		Artifact:        artifact,
		Account:         from,
		ConstructorArgs: opts.Args,
		Deterministic:   opts.Deterministic,
		Salt:            opts.Salt,
		Force:           e.force,
		Script:          e.script,
		RunID:           e.runID,
	})
	if err != nil {
		return nil, err
	}
	e.results = append(e.results, result)
	return result.Record, nil
}

// Get returns the latest deployment recorded under name
func (e *Environment) Get(ctx context.Context, name string) (*models.DeploymentRecord, error) {
	record, err := e.deployer.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("deployment %s: %w", name, err)
	}
	return record, nil
}

// Contract binds a recorded deployment for reads and writes
func (e *Environment) Contract(ctx context.Context, name string) (*BoundContract, error) {
	record, err := e.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	conn, err := e.Connection(ctx)
	if err != nil {
		return nil, err
	}
	return NewBoundContract(conn, record)
}
