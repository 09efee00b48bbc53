package cli

import (
	"github.com/spf13/cobra"
	"github.com/solidity-kit/kitdeploy/internal/cli/render"
)

// NewAccountsCmd creates the accounts command
func NewAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "Show the accounts of the active network and what each role resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListAccounts.Run(cmd.Context())
			if err != nil {
				return err
			}

			return render.NewAccountsRenderer(cmd.OutOrStdout()).Render(result)
		},
	}
}
