package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// MemoryLedger keeps records for the lifetime of the process. It backs
// ephemeral networks, whose state is gone when the process exits anyway.
type MemoryLedger struct {
	mu       sync.RWMutex
	networks map[string]*memoryNetwork
}

type memoryNetwork struct {
	records map[string]*models.DeploymentRecord // key: identity
	names   map[string]string                   // contract name -> identity
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{networks: make(map[string]*memoryNetwork)}
}

// Get implements usecase.DeploymentLedger
func (l *MemoryLedger) Get(ctx context.Context, network, identity string) (*models.DeploymentRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n, ok := l.networks[network]; ok {
		if r, ok := n.records[identity]; ok {
			return r.Clone(), nil
		}
	}
	return nil, fmt.Errorf("deployment %s on %s: %w", identity, network, domain.ErrNotFound)
}

// GetByName implements usecase.DeploymentLedger
func (l *MemoryLedger) GetByName(ctx context.Context, network, name string) (*models.DeploymentRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n, ok := l.networks[network]; ok {
		if id, ok := n.names[name]; ok {
			return n.records[id].Clone(), nil
		}
	}
	return nil, fmt.Errorf("deployment %s on %s: %w", name, network, domain.ErrNotFound)
}

// Save implements usecase.DeploymentLedger
func (l *MemoryLedger) Save(ctx context.Context, record *models.DeploymentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.networks[record.Network]
	if !ok {
		n = &memoryNetwork{
			records: make(map[string]*models.DeploymentRecord),
			names:   make(map[string]string),
		}
		l.networks[record.Network] = n
	}
	for _, existing := range n.records {
		if existing.ChainID != record.ChainID {
			return fmt.Errorf("%w: ledger for %s holds chain %d, record is for chain %d",
				domain.ErrNetworkMismatch, record.Network, existing.ChainID, record.ChainID)
		}
		break
	}

	n.records[record.Identity] = record.Clone()
	n.names[record.ContractName] = record.Identity
	return nil
}

// List implements usecase.DeploymentLedger
func (l *MemoryLedger) List(ctx context.Context, network string) ([]*models.DeploymentRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n, ok := l.networks[network]
	if !ok {
		return nil, nil
	}
	records := make([]*models.DeploymentRecord, 0, len(n.records))
	for _, r := range n.records {
		records = append(records, r.Clone())
	}
	sortRecords(records)
	return records, nil
}

var _ usecase.DeploymentLedger = (*MemoryLedger)(nil)
