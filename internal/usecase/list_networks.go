package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
)

const networkProbeTimeout = 5 * time.Second

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct {
	// Probe dials RPC networks to read their chain ID
	Probe bool
}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Active   string
	Networks []NetworkStatus
}

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Name      string
	ChainID   uint64 // reported by the node when probed, configured otherwise
	Simulated bool
	RPCURL    string
	Error     error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	config  *config.RuntimeConfig
	factory ProviderFactory
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(cfg *config.RuntimeConfig, factory ProviderFactory) *ListNetworks {
	return &ListNetworks{
		config:  cfg,
		factory: factory,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	result := &ListNetworksResult{Active: uc.config.Network.Name}

	for _, name := range sortedNetworkNames(uc.config.Project) {
		n := uc.config.Project.Networks[name]
		status := NetworkStatus{
			Name:      name,
			ChainID:   n.ChainID,
			Simulated: n.Simulated,
			RPCURL:    n.RPCURL,
		}
		if params.Probe && !n.Simulated {
			status.ChainID, status.Error = uc.probe(ctx, n)
		}
		result.Networks = append(result.Networks, status)
	}

	return result, nil
}

func (uc *ListNetworks) probe(ctx context.Context, n *config.Network) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, networkProbeTimeout)
	defer cancel()

	provider, err := uc.factory.Dial(ctx, n)
	if err != nil {
		return 0, err
	}
	defer provider.Close()

	chainID, err := provider.Public().ChainID(ctx)
	if err != nil {
		return 0, err
	}
	return chainID.Uint64(), nil
}

func sortedNetworkNames(project *config.ProjectConfig) []string {
	names := lo.Keys(project.Networks)
	sort.Strings(names)
	return names
}
