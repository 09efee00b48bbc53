package interactive

import (
	"context"
	"errors"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

func candidates() []*models.DeploymentRecord {
	return []*models.DeploymentRecord{
		{ContractName: "Time", Address: "0x1111111111111111111111111111111111111111", Strategy: models.DeploymentStrategy{Method: models.DeploymentMethodCreate2}},
		{ContractName: "TestTokens", Address: "0x2222222222222222222222222222222222222222", Strategy: models.DeploymentStrategy{Method: models.DeploymentMethodCreate}},
	}
}

func TestSelectorAdapter_SelectDeployment(t *testing.T) {
	ctx := context.Background()

	t.Run("single candidate needs no prompt", func(t *testing.T) {
		s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
		got, err := s.SelectDeployment(ctx, candidates()[:1], "pick")
		require.NoError(t, err)
		assert.Equal(t, "Time", got.ContractName)
	})

	t.Run("non-interactive refuses to prompt", func(t *testing.T) {
		s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
		_, err := s.SelectDeployment(ctx, candidates(), "pick")
		assert.ErrorContains(t, err, "non-interactive")
	})

	t.Run("returns the chosen candidate", func(t *testing.T) {
		s := NewSelectorAdapter(&config.RuntimeConfig{})
		var shown []string
		s.run = func(p *promptui.Select) (int, error) {
			shown = p.Items.([]string)
			return 1, nil
		}

		got, err := s.SelectDeployment(ctx, candidates(), "pick")
		require.NoError(t, err)
		assert.Equal(t, "TestTokens", got.ContractName)
		require.Len(t, shown, 2)
		assert.Contains(t, shown[0], "CREATE2")
	})

	t.Run("cancelled", func(t *testing.T) {
		s := NewSelectorAdapter(&config.RuntimeConfig{})
		s.run = func(*promptui.Select) (int, error) { return -1, promptui.ErrInterrupt }

		_, err := s.SelectDeployment(ctx, candidates(), "pick")
		assert.True(t, errors.Is(err, promptui.ErrInterrupt))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewSelectorAdapter(&config.RuntimeConfig{}).SelectDeployment(ctx, nil, "pick")
		assert.Error(t, err)
	})
}

func TestFuzzySearcher(t *testing.T) {
	search := fuzzySearcher([]string{"Time 0x11 (CREATE2)", "TestTokens 0x22 (CREATE)"})

	assert.True(t, search("", 0))
	assert.True(t, search("time", 0))
	assert.True(t, search("tsttk", 1))
	assert.False(t, search("zzz", 0))
}
