package artifacts

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// Registry indexes compiled artifacts from a Foundry out/ or Hardhat
// artifacts/ directory. The directory is read once, on first use.
type Registry struct {
	dir string
	log *slog.Logger

	mu      sync.Mutex
	loaded  bool
	byKey   map[string]*entry   // key: "path:Name"
	byName  map[string][]*entry // key: contract name
	loadErr error
}

type entry struct {
	artifact *models.Artifact
	invalid  string // non-empty when the bytecode cannot be deployed as is
}

// NewRegistry creates a registry over dir
func NewRegistry(dir string, log *slog.Logger) *Registry {
	return &Registry{
		dir: dir,
		log: log.With("component", "artifacts"),
	}
}

// Get implements usecase.ArtifactRegistry. The name may be a bare contract
// name or a fully qualified "path:Name".
func (r *Registry) Get(ctx context.Context, name string) (*models.Artifact, error) {
	if err := r.load(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if e.invalid != "" {
		return nil, &domain.InvalidArtifactError{Artifact: name, Reason: e.invalid}
	}
	return e.artifact.Clone(), nil
}

// List implements usecase.ArtifactRegistry, sorted by fully qualified name
func (r *Registry) List(ctx context.Context) ([]*models.Artifact, error) {
	if err := r.load(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := lo.Keys(r.byKey)
	sort.Strings(keys)
	return lo.Map(keys, func(k string, _ int) *models.Artifact {
		return r.byKey[k].artifact.Clone()
	}), nil
}

func (r *Registry) lookup(name string) (*entry, error) {
	if strings.Contains(name, ":") {
		if e, ok := r.byKey[name]; ok {
			return e, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, name)
	}

	matches := r.byName[name]
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, name)
	case 1:
		return matches[0], nil
	default:
		paths := lo.Map(matches, func(e *entry, _ int) string { return e.artifact.FullyQualifiedName() })
		sort.Strings(paths)
		return nil, fmt.Errorf("%w: %s matches %s", domain.ErrAmbiguousArtifact, name, strings.Join(paths, ", "))
	}
}

func (r *Registry) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.loadErr
	}
	r.loaded = true
	r.byKey = make(map[string]*entry)
	r.byName = make(map[string][]*entry)
	r.loadErr = r.index()
	return r.loadErr
}

func (r *Registry) index() error {
	if _, err := os.Stat(r.dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("artifacts directory not found", "dir", r.dir)
			return nil
		}
		return fmt.Errorf("failed to read artifacts directory: %w", err)
	}

	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}
		return r.processArtifact(path)
	})
	if err != nil {
		return fmt.Errorf("failed to index artifacts: %w", err)
	}

	r.log.Debug("indexed artifacts", "dir", r.dir, "count", len(r.byKey))
	return nil
}

// rawArtifact covers both the Foundry and the Hardhat artifact shapes
type rawArtifact struct {
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         bytecodeField   `json:"bytecode"`
	DeployedBytecode bytecodeField   `json:"deployedBytecode"`
	Metadata         json.RawMessage `json:"metadata"`
}

// bytecodeField is either a hex string (Hardhat) or {"object": "0x..."} (Foundry)
type bytecodeField string

func (b *bytecodeField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = bytecodeField(s)
		return nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*b = bytecodeField(obj.Object)
	return nil
}

// processArtifact indexes one artifact file. Files that are not artifacts,
// and artifacts without creation code (interfaces, abstract contracts), are skipped.
func (r *Registry) processArtifact(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		r.log.Debug("skipping unparseable artifact", "path", path, "error", err)
		return nil
	}
	if len(raw.ABI) == 0 {
		return nil
	}

	code := strings.TrimPrefix(string(raw.Bytecode), "0x")
	if code == "" {
		return nil
	}

	name, source := raw.ContractName, raw.SourceName
	if name == "" {
		name, source = compilationTarget(raw.Metadata)
	}
	if name == "" {
		// Foundry layout: out/<File>.sol/<Name>.json
		name = strings.TrimSuffix(filepath.Base(path), ".json")
		source = filepath.Base(filepath.Dir(path))
	}

	e := &entry{artifact: &models.Artifact{
		Name:       name,
		SourcePath: source,
		ABI:        raw.ABI,
		Metadata:   raw.Metadata,
	}}

	if strings.Contains(code, "__") {
		e.invalid = "bytecode has unlinked library references"
	} else if e.artifact.Bytecode, err = hex.DecodeString(code); err != nil {
		e.invalid = fmt.Sprintf("bytecode is not valid hex: %v", err)
	}
	if deployed := strings.TrimPrefix(string(raw.DeployedBytecode), "0x"); deployed != "" && e.invalid == "" {
		e.artifact.DeployedBytecode, _ = hex.DecodeString(deployed)
	}

	key := e.artifact.FullyQualifiedName()
	if _, exists := r.byKey[key]; exists {
		return nil
	}
	r.byKey[key] = e
	r.byName[name] = append(r.byName[name], e)
	return nil
}

// compilationTarget reads the single entry of metadata.settings.compilationTarget.
// Foundry emits metadata as an object, Hardhat as an encoded string.
func compilationTarget(metadata json.RawMessage) (name, source string) {
	if len(metadata) == 0 {
		return "", ""
	}
	if metadata[0] == '"' {
		var s string
		if err := json.Unmarshal(metadata, &s); err != nil {
			return "", ""
		}
		metadata = json.RawMessage(s)
	}

	var meta struct {
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(metadata, &meta); err != nil {
		return "", ""
	}
	for src, contract := range meta.Settings.CompilationTarget {
		return contract, src
	}
	return "", ""
}

var _ usecase.ArtifactRegistry = (*Registry)(nil)
