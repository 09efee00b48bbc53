package cli

import (
	"github.com/spf13/cobra"
	"github.com/solidity-kit/kitdeploy/internal/cli/render"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List networks configured in kitdeploy.toml",
		Long: `List all networks configured in kitdeploy.toml, including the built-in
simulated network. With --probe each RPC network is dialed to read its chain ID.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListNetworks.Run(cmd.Context(), usecase.ListNetworksParams{Probe: probe})
			if err != nil {
				return err
			}

			return render.NewNetworksRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Dial each RPC network to read its chain ID")

	return cmd
}
