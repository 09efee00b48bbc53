package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/solidity-kit/kitdeploy/internal/config"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kitdeploy",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kitdeploy version %s\n", config.Version)
			if config.Commit != "unknown" {
				fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\nbuilt: %s\n", config.Commit, config.Date)
			}
		},
	}
}
