package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

// DeploymentRenderer renders detailed information about a single deployment
type DeploymentRenderer struct {
	out io.Writer
}

// NewDeploymentRenderer creates a new deployment renderer
func NewDeploymentRenderer(out io.Writer) *DeploymentRenderer {
	return &DeploymentRenderer{out: out}
}

// Render renders detailed deployment information
func (r *DeploymentRenderer) Render(d *models.DeploymentRecord) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Deployment: %s\n", d.ContractName)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	fmt.Fprintln(r.out, "\nBasic Information:")
	fmt.Fprintf(r.out, "  Contract: %s\n", color.New(color.FgYellow).Sprint(d.ContractName))
	if d.ArtifactName != "" && d.ArtifactName != d.ContractName {
		fmt.Fprintf(r.out, "  Artifact: %s\n", d.ArtifactName)
	}
	fmt.Fprintf(r.out, "  Address: %s\n", d.Address)
	fmt.Fprintf(r.out, "  Network: %s (chain %d)\n", d.Network, d.ChainID)
	fmt.Fprintf(r.out, "  Identity: %s\n", d.Identity)

	fmt.Fprintln(r.out, "\nDeployment Strategy:")
	fmt.Fprintf(r.out, "  Method: %s\n", d.Strategy.Method)
	if d.Strategy.Factory != "" {
		fmt.Fprintf(r.out, "  Factory: %s\n", d.Strategy.Factory)
	}
	if d.Strategy.Salt != "" && d.Strategy.Salt != (common.Hash{}).Hex() {
		fmt.Fprintf(r.out, "  Salt: %s\n", d.Strategy.Salt)
	}
	if d.Strategy.InitCodeHash != "" {
		fmt.Fprintf(r.out, "  Init Code Hash: %s\n", d.Strategy.InitCodeHash)
	}
	fmt.Fprintf(r.out, "  Bytecode Hash: %s\n", d.BytecodeHash)
	if d.ConstructorArgs != "" {
		fmt.Fprintf(r.out, "  Constructor Args: %s\n", d.ConstructorArgs)
	}

	fmt.Fprintln(r.out, "\nTransaction:")
	if d.TransactionHash != "" {
		fmt.Fprintf(r.out, "  Hash: %s\n", d.TransactionHash)
	} else {
		fmt.Fprintf(r.out, "  Hash: %s\n", timestampStyle.Sprint("none, existing code was adopted"))
	}
	fmt.Fprintf(r.out, "  Block: %d\n", d.BlockNumber)
	fmt.Fprintf(r.out, "  Deployer: %s\n", d.Deployer)

	if d.Script != "" || d.RunID != "" {
		fmt.Fprintln(r.out, "\nProvenance:")
		if d.Script != "" {
			fmt.Fprintf(r.out, "  Script: %s\n", d.Script)
		}
		if d.RunID != "" {
			fmt.Fprintf(r.out, "  Run: %s\n", d.RunID)
		}
	}

	fmt.Fprintf(r.out, "\nCreated: %s\n", d.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

var _ Renderer[*models.DeploymentRecord] = (*DeploymentRenderer)(nil)
