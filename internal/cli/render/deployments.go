package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// DeploymentsRenderer renders deployment lists grouped by strategy
type DeploymentsRenderer struct {
	out io.Writer
}

// NewDeploymentsRenderer creates a new deployments renderer
func NewDeploymentsRenderer(out io.Writer) *DeploymentsRenderer {
	return &DeploymentsRenderer{out: out}
}

// Render renders the deployments of one network
func (r *DeploymentsRenderer) Render(result *usecase.DeploymentListResult) error {
	if len(result.Deployments) == 0 {
		fmt.Fprintf(r.out, "No deployments found on %s\n", result.Network)
		return nil
	}

	fmt.Fprintln(r.out, networkHeader.Sprintf(" ⛓ %-10s", "network:")+networkHeaderBold.Sprintf("%-30s", result.Network))
	fmt.Fprintln(r.out, "│")

	var deterministic, created []*models.DeploymentRecord
	for _, d := range result.Deployments {
		if d.IsDeterministic() {
			deterministic = append(deterministic, d)
		} else {
			created = append(created, d)
		}
	}

	sections := 0
	for _, section := range []struct {
		title       string
		deployments []*models.DeploymentRecord
	}{
		{"DETERMINISTIC", deterministic},
		{"CREATE", created},
	} {
		if len(section.deployments) == 0 {
			continue
		}
		if sections > 0 {
			fmt.Fprintln(r.out, "│")
		}
		fmt.Fprintf(r.out, "│ %s\n", sectionHeaderStyle.Sprint(section.title))
		fmt.Fprint(r.out, renderRows(r.rows(section.deployments), "│ "))
		sections++
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Total deployments: %d (%d deterministic)\n", result.Summary.Total, result.Summary.Deterministic)
	return nil
}

func (r *DeploymentsRenderer) rows(deployments []*models.DeploymentRecord) [][]string {
	rows := make([][]string, 0, len(deployments))
	for _, d := range deployments {
		name := color.New(color.FgGreen, color.Bold).Sprint(d.ContractName)
		if d.ArtifactName != "" && d.ArtifactName != d.ContractName {
			name += " " + labelStyle.Sprintf("(%s)", d.ArtifactName)
		}
		script := ""
		if d.Script != "" {
			script = labelStyle.Sprint(d.Script)
		}
		rows = append(rows, []string{
			name,
			addressStyle.Sprint(d.Address),
			script,
			timestampStyle.Sprint(d.CreatedAt.Format("2006-01-02 15:04:05")),
		})
	}
	return rows
}

var _ Renderer[*usecase.DeploymentListResult] = (*DeploymentsRenderer)(nil)
