package render

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// AccountsRenderer renders connection accounts and role assignments
type AccountsRenderer struct {
	out io.Writer
}

// NewAccountsRenderer creates a new accounts renderer
func NewAccountsRenderer(out io.Writer) *AccountsRenderer {
	return &AccountsRenderer{out: out}
}

// Render renders the accounts of the active network
func (r *AccountsRenderer) Render(result *usecase.ListAccountsResult) error {
	fmt.Fprintf(r.out, "Network: %s (chain %d)\n\n", result.Network, result.ChainID)

	fmt.Fprintln(r.out, sectionHeaderStyle.Sprint("ACCOUNTS"))
	if len(result.Accounts) == 0 {
		fmt.Fprintln(r.out, "  No accounts available")
	}
	rows := make([][]string, 0, len(result.Accounts))
	for _, a := range result.Accounts {
		rows = append(rows, []string{
			fmt.Sprintf("#%d", a.Index),
			addressStyle.Sprint(a.Address.Hex()),
			formatEther(a.Balance),
		})
	}
	fmt.Fprint(r.out, renderRows(rows, "  "))

	if len(result.Roles) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, sectionHeaderStyle.Sprint("ROLES"))
		rows = rows[:0]
		for _, role := range result.Roles {
			value := addressStyle.Sprint(role.Address.Hex())
			if role.Error != nil {
				value = errorStyle.Sprint(role.Error.Error())
			}
			rows = append(rows, []string{labelStyle.Sprint(role.Role), value})
		}
		fmt.Fprint(r.out, renderRows(rows, "  "))
	}

	return nil
}

// formatEther renders a wei amount in ether with four decimals
func formatEther(wei *big.Int) string {
	if wei == nil {
		return timestampStyle.Sprint("unknown")
	}
	ether := new(big.Rat).SetFrac(wei, big.NewInt(params.Ether))
	return ether.FloatString(4) + " ETH"
}

var _ Renderer[*usecase.ListAccountsResult] = (*AccountsRenderer)(nil)
