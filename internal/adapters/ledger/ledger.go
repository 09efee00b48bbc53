// Package ledger persists deployment records per network
package ledger

import (
	"sort"

	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

// sortRecords orders records by creation time, then by contract name
func sortRecords(records []*models.DeploymentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ContractName < records[j].ContractName
	})
}
