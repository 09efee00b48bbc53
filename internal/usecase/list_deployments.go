package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

// ListDeploymentsParams contains parameters for listing deployments
type ListDeploymentsParams struct {
	ContractName string // case-insensitive exact match, empty for all
}

// DeploymentListResult contains the result of listing deployments
type DeploymentListResult struct {
	Network     string
	Deployments []*models.DeploymentRecord
	Summary     DeploymentSummary
}

// DeploymentSummary counts deployments by strategy
type DeploymentSummary struct {
	Total         int
	Deterministic int
}

// ListDeployments is the use case for listing deployments
type ListDeployments struct {
	config *config.RuntimeConfig
	ledger DeploymentLedger
	sink   ProgressSink
}

// NewListDeployments creates a new ListDeployments use case
func NewListDeployments(cfg *config.RuntimeConfig, ledger DeploymentLedger, sink ProgressSink) *ListDeployments {
	return &ListDeployments{
		config: cfg,
		ledger: ledger,
		sink:   sink,
	}
}

// Run executes the list deployments use case
func (uc *ListDeployments) Run(ctx context.Context, params ListDeploymentsParams) (*DeploymentListResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployments from ledger",
		Spinner: true,
	})

	deployments, err := uc.ledger.List(ctx, uc.config.Network.Name)
	if err != nil {
		return nil, err
	}

	if params.ContractName != "" {
		deployments = lo.Filter(deployments, func(d *models.DeploymentRecord, _ int) bool {
			return strings.EqualFold(d.ContractName, params.ContractName)
		})
	}

	sortDeployments(deployments)

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(deployments),
		Total:   len(deployments),
		Message: "Deployments loaded",
	})

	return &DeploymentListResult{
		Network:     uc.config.Network.Name,
		Deployments: deployments,
		Summary: DeploymentSummary{
			Total:         len(deployments),
			Deterministic: lo.CountBy(deployments, (*models.DeploymentRecord).IsDeterministic),
		},
	}, nil
}

// sortDeployments sorts deployments by contract name, then creation time
func sortDeployments(deployments []*models.DeploymentRecord) {
	sort.SliceStable(deployments, func(i, j int) bool {
		if deployments[i].ContractName != deployments[j].ContractName {
			return deployments[i].ContractName < deployments[j].ContractName
		}
		return deployments[i].CreatedAt.Before(deployments[j].CreatedAt)
	})
}
