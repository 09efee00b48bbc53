package cli

import (
	"github.com/spf13/cobra"
	"github.com/solidity-kit/kitdeploy/internal/cli/render"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		tags   []string
		force  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Run deployment scripts",
		Long: `Run the deployment scripts in the scripts directory against the active network.

With --tags only scripts carrying one of the tags run, together with every
script they depend on. Scripts run in dependency order and each runs once.
Contracts that are already recorded for the network are not deployed again
unless --force is given.`,
		Example: `  # Run every script on the simulated network
  kitdeploy deploy

  # Deploy TestTokens and whatever it depends on to sepolia
  kitdeploy deploy --tags TestTokens --network sepolia

  # Show what would run
  kitdeploy deploy --tags TestTokens --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.RunScriptsParams{Tags: tags, Force: force}
			renderer := render.NewRunRenderer(cmd.OutOrStdout())

			if dryRun {
				plan, err := app.RunScripts.Plan(cmd.Context(), params)
				if err != nil {
					return err
				}
				return renderer.RenderPlan(app.Config.Network.Name, plan)
			}

			result, err := app.RunScripts.Run(cmd.Context(), params)
			if err != nil {
				if result != nil && len(result.Results) > 0 {
					_ = renderer.Render(result)
				}
				return err
			}
			return renderer.Render(result)
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Only run scripts with these tags (comma separated)")
	cmd.Flags().BoolVar(&force, "force", false, "Deploy again even when a deployment is recorded")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the scripts that would run without running them")

	return cmd
}
