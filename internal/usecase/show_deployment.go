package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

const maxSuggestions = 5

// ShowDeploymentParams contains parameters for showing a deployment
type ShowDeploymentParams struct {
	// Query is a contract name, a deployment identity or an address
	Query string
}

// ShowDeployment is the use case for showing deployment details
type ShowDeployment struct {
	config   *config.RuntimeConfig
	ledger   DeploymentLedger
	selector DeploymentSelector
	sink     ProgressSink
}

// NewShowDeployment creates a new ShowDeployment use case
func NewShowDeployment(cfg *config.RuntimeConfig, ledger DeploymentLedger, selector DeploymentSelector, sink ProgressSink) *ShowDeployment {
	return &ShowDeployment{
		config:   cfg,
		ledger:   ledger,
		selector: selector,
		sink:     sink,
	}
}

// Run executes the show deployment use case
func (uc *ShowDeployment) Run(ctx context.Context, params ShowDeploymentParams) (*models.DeploymentRecord, error) {
	if params.Query == "" {
		return nil, fmt.Errorf("a deployment name, identity or address is required")
	}
	network := uc.config.Network.Name

	record, err := uc.ledger.GetByName(ctx, network, params.Query)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	all, err := uc.ledger.List(ctx, network)
	if err != nil {
		return nil, err
	}

	if match, ok := lo.Find(all, func(d *models.DeploymentRecord) bool {
		return strings.EqualFold(d.Identity, params.Query) || strings.EqualFold(d.Address, params.Query)
	}); ok {
		return match, nil
	}

	candidates := fuzzyMatches(params.Query, all)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("deployment %q on network %s: %w", params.Query, network, domain.ErrNotFound)
	}
	if uc.config.NonInteractive || uc.selector == nil {
		names := lo.Map(candidates, func(d *models.DeploymentRecord, _ int) string { return d.ContractName })
		return nil, fmt.Errorf("deployment %q on network %s: %w (did you mean: %s?)",
			params.Query, network, domain.ErrNotFound, strings.Join(names, ", "))
	}

	return uc.selector.SelectDeployment(ctx, candidates, fmt.Sprintf("No deployment named %q. Select one:", params.Query))
}

// fuzzyMatches returns the best matching deployments by contract name, best first
func fuzzyMatches(query string, deployments []*models.DeploymentRecord) []*models.DeploymentRecord {
	names := lo.Map(deployments, func(d *models.DeploymentRecord, _ int) string { return d.ContractName })
	matches := fuzzy.Find(query, names)

	result := make([]*models.DeploymentRecord, 0, maxSuggestions)
	seen := make(map[string]bool)
	for _, m := range matches {
		d := deployments[m.Index]
		if seen[d.Identity] {
			continue
		}
		seen[d.Identity] = true
		result = append(result, d)
		if len(result) == maxSuggestions {
			break
		}
	}
	return result
}
