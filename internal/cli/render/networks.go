package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// Render renders the configured networks, marking the active one
func (r *NetworksRenderer) Render(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, n := range result.Networks {
		marker := "  "
		if n.Name == result.Active {
			marker = color.New(color.FgGreen).Sprint("▸ ")
		}

		switch {
		case n.Error != nil:
			fmt.Fprintf(r.out, "%s❌ %s - Error: %v\n", marker, n.Name, n.Error)
		case n.Simulated:
			fmt.Fprintf(r.out, "%s✅ %s - Chain ID: %d %s\n", marker, n.Name, n.ChainID, timestampStyle.Sprint("(in-process)"))
		case n.ChainID == 0:
			fmt.Fprintf(r.out, "%s✅ %s - %s\n", marker, n.Name, addressStyle.Sprint(n.RPCURL))
		default:
			fmt.Fprintf(r.out, "%s✅ %s - Chain ID: %d\n", marker, n.Name, n.ChainID)
		}
	}

	return nil
}

var _ Renderer[*usecase.ListNetworksResult] = (*NetworksRenderer)(nil)
