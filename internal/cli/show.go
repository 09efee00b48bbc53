package cli

import (
	"github.com/spf13/cobra"
	"github.com/solidity-kit/kitdeploy/internal/cli/render"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <deployment>",
		Short: "Show detailed information about a deployment",
		Long: `Show detailed information about a deployment on the active network.

The deployment can be given by contract name or by address. When nothing
matches exactly, similar names are offered for selection, or listed as
suggestions with --non-interactive.`,
		Example: `  kitdeploy show TestTokens
  kitdeploy show 0x1234567890abcdef1234567890abcdef12345678`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			record, err := app.ShowDeployment.Run(cmd.Context(), usecase.ShowDeploymentParams{Query: args[0]})
			if err != nil {
				return err
			}

			return render.NewDeploymentRenderer(cmd.OutOrStdout()).Render(record)
		},
	}

	return cmd
}
