package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

const (
	DeploymentsDir  = "deployments"
	DeploymentsFile = "deployments.json"
)

// networkFile is the on-disk shape of one network's ledger
type networkFile struct {
	ChainID     uint64                              `json:"chainId"`
	Deployments map[string]*models.DeploymentRecord `json:"deployments"` // key: identity
	Names       map[string]string                   `json:"names"`       // contract name -> identity
}

// FileRepository stores deployment records as JSON, one directory per network:
// <dataDir>/deployments/<network>/deployments.json
type FileRepository struct {
	rootDir string
	mu      sync.RWMutex
}

// NewFileRepository creates a file ledger under dataDir
func NewFileRepository(dataDir string) (*FileRepository, error) {
	rootDir := filepath.Join(dataDir, DeploymentsDir)
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create deployments directory: %w", err)
	}
	return &FileRepository{rootDir: rootDir}, nil
}

// Get implements usecase.DeploymentLedger
func (r *FileRepository) Get(ctx context.Context, network, identity string) (*models.DeploymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := r.load(network)
	if err != nil {
		return nil, err
	}
	record, ok := f.Deployments[identity]
	if !ok {
		return nil, fmt.Errorf("deployment %s on %s: %w", identity, network, domain.ErrNotFound)
	}
	return record, nil
}

// GetByName implements usecase.DeploymentLedger
func (r *FileRepository) GetByName(ctx context.Context, network, name string) (*models.DeploymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := r.load(network)
	if err != nil {
		return nil, err
	}
	if identity, ok := f.Names[name]; ok {
		if record, ok := f.Deployments[identity]; ok {
			return record, nil
		}
	}
	return nil, fmt.Errorf("deployment %s on %s: %w", name, network, domain.ErrNotFound)
}

// Save implements usecase.DeploymentLedger. The network file is re-read
// before every write so concurrent processes only lose the race, not records.
func (r *FileRepository) Save(ctx context.Context, record *models.DeploymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.load(record.Network)
	if err != nil {
		return err
	}
	if f.ChainID == 0 {
		f.ChainID = record.ChainID
	}
	if f.ChainID != record.ChainID {
		return fmt.Errorf("%w: ledger for %s holds chain %d, record is for chain %d",
			domain.ErrNetworkMismatch, record.Network, f.ChainID, record.ChainID)
	}

	f.Deployments[record.Identity] = record.Clone()
	f.Names[record.ContractName] = record.Identity

	if err := r.save(record.Network, f); err != nil {
		return fmt.Errorf("failed to save deployments: %w", err)
	}
	return nil
}

// List implements usecase.DeploymentLedger
func (r *FileRepository) List(ctx context.Context, network string) ([]*models.DeploymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := r.load(network)
	if err != nil {
		return nil, err
	}
	records := make([]*models.DeploymentRecord, 0, len(f.Deployments))
	for _, record := range f.Deployments {
		records = append(records, record)
	}
	sortRecords(records)
	return records, nil
}

func (r *FileRepository) path(network string) string {
	return filepath.Join(r.rootDir, network, DeploymentsFile)
}

// load reads a network file; a missing file is an empty ledger
func (r *FileRepository) load(network string) (*networkFile, error) {
	f := &networkFile{
		Deployments: make(map[string]*models.DeploymentRecord),
		Names:       make(map[string]string),
	}

	data, err := os.ReadFile(r.path(network))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to load deployments: %w", err)
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.path(network), err)
	}
	if f.Deployments == nil {
		f.Deployments = make(map[string]*models.DeploymentRecord)
	}
	if f.Names == nil {
		f.Names = make(map[string]string)
	}
	return f, nil
}

// save writes through a temp file and an atomic rename
func (r *FileRepository) save(network string, f *networkFile) error {
	path := r.path(network)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

var _ usecase.DeploymentLedger = (*FileRepository)(nil)
