package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// SelectorAdapter lets the user pick among candidate deployments
type SelectorAdapter struct {
	config *config.RuntimeConfig
	run    func(prompt *promptui.Select) (int, error)
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{
		config: cfg,
		run: func(p *promptui.Select) (int, error) {
			index, _, err := p.Run()
			return index, err
		},
	}
}

// SelectDeployment implements usecase.DeploymentSelector
func (s *SelectorAdapter) SelectDeployment(ctx context.Context, candidates []*models.DeploymentRecord, prompt string) (*models.DeploymentRecord, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no deployments to select from")
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if s.config.NonInteractive {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}

	options := formatDeploymentOptions(candidates)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, / to search, Enter to select"),
	}

	index, err := s.run(&promptui.Select{
		Label:     prompt,
		Items:     options,
		Templates: templates,
		Size:      10,
		Searcher:  fuzzySearcher(options),
	})
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return candidates[index], nil
}

// formatDeploymentOptions renders "Name 0xaddr (CREATE2)" for each candidate
func formatDeploymentOptions(candidates []*models.DeploymentRecord) []string {
	options := make([]string, len(candidates))
	for i, d := range candidates {
		name := color.New(color.FgWhite, color.Bold).Sprint(d.ContractName)
		addr := color.New(color.FgBlue).Sprint(d.Address)
		options[i] = fmt.Sprintf("%s %s (%s)", name, addr, d.Strategy.Method)
	}
	return options
}

// fuzzySearcher matches by substring first, then fuzzily
func fuzzySearcher(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}
		input = strings.ToLower(input)
		item := strings.ToLower(items[index])
		if strings.Contains(item, input) {
			return true
		}
		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

var _ usecase.DeploymentSelector = (*SelectorAdapter)(nil)
