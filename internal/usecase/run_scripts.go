package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/solidity-kit/kitdeploy/internal/domain"
)

// RunScriptsParams contains parameters for a deployment run
type RunScriptsParams struct {
	Tags  []string
	Force bool
	// Scripts overrides the configured script source
	Scripts []*Script
}

// RunScriptsResult contains the result of a deployment run
type RunScriptsResult struct {
	RunID    string
	Network  string
	Executed []string
	Results  []*DeployResult
}

// RunScripts selects scripts by tag, orders them by dependency and runs
// each one once against a shared environment
type RunScripts struct {
	source      ScriptSource
	artifacts   ArtifactRegistry
	accounts    *AccountResolver
	deployer    *DeployContract
	connections *ConnectionCache
	sink        ProgressSink
	log         *slog.Logger
}

// NewRunScripts creates a new RunScripts use case
func NewRunScripts(
	source ScriptSource,
	artifacts ArtifactRegistry,
	accounts *AccountResolver,
	deployer *DeployContract,
	connections *ConnectionCache,
	sink ProgressSink,
	log *slog.Logger,
) *RunScripts {
	return &RunScripts{
		source:      source,
		artifacts:   artifacts,
		accounts:    accounts,
		deployer:    deployer,
		connections: connections,
		sink:        sink,
		log:         log.With("component", "runner"),
	}
}

// Plan returns the scripts a run with these tags would execute, in order.
// Nothing is sent to the network.
func (uc *RunScripts) Plan(ctx context.Context, params RunScriptsParams) ([]*Script, error) {
	scripts := params.Scripts
	if scripts == nil {
		var err error
		scripts, err = uc.source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load scripts: %w", err)
		}
	}

	graph, err := NewDependencyGraph(scripts)
	if err != nil {
		return nil, err
	}
	return graph.TopologicalSort(graph.Select(params.Tags))
}

// Run executes the run
func (uc *RunScripts) Run(ctx context.Context, params RunScriptsParams) (*RunScriptsResult, error) {
	ordered, err := uc.Plan(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := uc.validate(ctx, ordered); err != nil {
		return nil, err
	}

	env := &Environment{
		runID:     uuid.NewString(),
		force:     params.Force,
		artifacts: uc.artifacts,
		accounts:  uc.accounts,
		deployer:  uc.deployer,
		conns:     uc.connections,
	}
	result := &RunScriptsResult{RunID: env.runID, Network: uc.connections.Network().Name}

	uc.log.Debug("starting run", "run", env.runID, "scripts", len(ordered), "tags", params.Tags)

	for i, script := range ordered {
		uc.sink.OnProgress(ctx, ProgressEvent{
			Stage:   "script",
			Current: i + 1,
			Total:   len(ordered),
			Message: fmt.Sprintf("Running %s", script.ID),
			Spinner: true,
		})

		env.script = script.ID
		if script.Run != nil {
			if err := script.Run(ctx, env); err != nil {
				uc.sink.OnProgress(ctx, ProgressEvent{Stage: "script"})
				result.Results = env.results
				return result, fmt.Errorf("script %s: %w", script.ID, err)
			}
		}
		result.Executed = append(result.Executed, script.ID)
	}
	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "completed"})

	result.Results = env.results
	return result, nil
}

// validate checks every declared artifact and role before anything is sent
func (uc *RunScripts) validate(ctx context.Context, scripts []*Script) error {
	artifacts := lo.Uniq(lo.FlatMap(scripts, func(s *Script, _ int) []string { return s.Artifacts }))
	sort.Strings(artifacts)
	for _, name := range artifacts {
		if _, err := uc.artifacts.Get(ctx, name); err != nil {
			var invalid *domain.InvalidArtifactError
			if errors.As(err, &invalid) {
				return err
			}
			return &domain.InvalidArtifactError{Artifact: name, Err: err}
		}
	}

	roles := lo.Uniq(lo.FlatMap(scripts, func(s *Script, _ int) []string { return s.Accounts }))
	sort.Strings(roles)
	if _, err := uc.accounts.ResolveAll(ctx, roles); err != nil {
		return err
	}
	return nil
}
