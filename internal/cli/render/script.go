package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// RunRenderer renders the outcome of a deployment run
type RunRenderer struct {
	out io.Writer
}

// NewRunRenderer creates a new run renderer
func NewRunRenderer(out io.Writer) *RunRenderer {
	return &RunRenderer{out: out}
}

// Render renders the executed scripts and each deployment's status
func (r *RunRenderer) Render(result *usecase.RunScriptsResult) error {
	fmt.Fprintf(r.out, "Run %s on %s\n\n", timestampStyle.Sprint(result.RunID), labelStyle.Sprint(result.Network))

	if len(result.Executed) == 0 {
		fmt.Fprintln(r.out, "No scripts matched")
		return nil
	}

	fmt.Fprintln(r.out, sectionHeaderStyle.Sprint("SCRIPTS"))
	for i, id := range result.Executed {
		fmt.Fprintf(r.out, "  [%d/%d] %s\n", i+1, len(result.Executed), id)
	}

	if len(result.Results) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, sectionHeaderStyle.Sprint("DEPLOYMENTS"))
		rows := make([][]string, 0, len(result.Results))
		for _, res := range result.Results {
			rows = append(rows, []string{
				color.New(color.Bold).Sprint(res.Record.ContractName),
				addressStyle.Sprint(res.Record.Address),
				statusStyle(res.Status).Sprint(Title(string(res.Status))),
				timestampStyle.Sprint(string(res.Record.Strategy.Method)),
			})
		}
		fmt.Fprint(r.out, renderRows(rows, "  "))
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%d script(s) executed", len(result.Executed))))
	return nil
}

// RenderPlan renders the scripts a run would execute
func (r *RunRenderer) RenderPlan(network string, plan []*usecase.Script) error {
	if len(plan) == 0 {
		fmt.Fprintln(r.out, "No scripts matched")
		return nil
	}
	fmt.Fprintf(r.out, "Would run on %s:\n", labelStyle.Sprint(network))
	for i, s := range plan {
		line := fmt.Sprintf("  [%d/%d] %s", i+1, len(plan), s.ID)
		if len(s.Tags) > 0 {
			line += " " + timestampStyle.Sprintf("%v", s.Tags)
		}
		fmt.Fprintln(r.out, line)
	}
	return nil
}

func statusStyle(status usecase.DeployStatus) *color.Color {
	switch status {
	case usecase.DeployStatusDeployed:
		return color.New(color.FgGreen)
	case usecase.DeployStatusAdopted:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgYellow)
	}
}

var _ Renderer[*usecase.RunScriptsResult] = (*RunRenderer)(nil)
