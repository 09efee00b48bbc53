package scripts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
	"gopkg.in/yaml.v3"
)

// File is the document shape of a scripts YAML file
type File struct {
	Scripts []ScriptSpec `yaml:"scripts"`
}

// ScriptSpec is one script unit as written in YAML
type ScriptSpec struct {
	ID           string       `yaml:"id"`
	Tags         []string     `yaml:"tags"`
	Dependencies []string     `yaml:"dependencies"`
	Deploy       []DeploySpec `yaml:"deploy"`
}

// DeploySpec is a single deployment step
type DeploySpec struct {
	Name          string `yaml:"name"`
	Artifact      string `yaml:"artifact"` // defaults to name
	Account       string `yaml:"account"`  // named account role, defaults to the fallback role
	Args          []any  `yaml:"args"`
	Deterministic bool   `yaml:"deterministic"`
	Salt          string `yaml:"salt"`
}

// YAMLSource loads script units from *.yaml and *.yml files in a directory
type YAMLSource struct {
	dir            string
	defaultAccount string
	log            *slog.Logger
}

// NewYAMLSource creates a script source over the configured scripts directory
func NewYAMLSource(cfg *config.RuntimeConfig, log *slog.Logger) *YAMLSource {
	account := config.DefaultFallbackRole
	if cfg.Project != nil && cfg.Project.FallbackRole != "" {
		account = cfg.Project.FallbackRole
	}
	return &YAMLSource{
		dir:            cfg.ScriptsDir,
		defaultAccount: account,
		log:            log.With("component", "scripts"),
	}
}

// Load implements usecase.ScriptSource. Files are read in name order.
func (s *YAMLSource) Load(ctx context.Context) ([]*usecase.Script, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("scripts directory not found", "dir", s.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scripts directory: %w", err)
	}

	files := lo.FilterMap(entries, func(e fs.DirEntry, _ int) (string, bool) {
		ext := filepath.Ext(e.Name())
		return e.Name(), !e.IsDir() && (ext == ".yaml" || ext == ".yml")
	})
	sort.Strings(files)

	var scripts []*usecase.Script
	for _, name := range files {
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		loaded, err := s.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s.log.Debug("loaded scripts", "file", name, "count", len(loaded))
		scripts = append(scripts, loaded...)
	}
	return scripts, nil
}

// Parse builds scripts from one YAML document
func (s *YAMLSource) Parse(data []byte) ([]*usecase.Script, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scripts := make([]*usecase.Script, 0, len(file.Scripts))
	for i, spec := range file.Scripts {
		if err := s.validate(spec); err != nil {
			return nil, fmt.Errorf("script #%d: %w", i, err)
		}
		scripts = append(scripts, s.build(spec))
	}
	return scripts, nil
}

func (s *YAMLSource) validate(spec ScriptSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("missing id")
	}
	for i, step := range spec.Deploy {
		if step.Name == "" {
			return fmt.Errorf("script %s: deploy step #%d is missing a name", spec.ID, i)
		}
	}
	return nil
}

func (s *YAMLSource) build(spec ScriptSpec) *usecase.Script {
	steps := lo.Map(spec.Deploy, func(step DeploySpec, _ int) DeploySpec {
		if step.Artifact == "" {
			step.Artifact = step.Name
		}
		if step.Account == "" {
			step.Account = s.defaultAccount
		}
		return step
	})

	var roles []string
	for _, step := range steps {
		roles = append(roles, step.Account)
		roles = append(roles, referencedRoles(step.Args)...)
	}

	return &usecase.Script{
		ScriptUnit: domain.ScriptUnit{
			ID:           spec.ID,
			Tags:         spec.Tags,
			Dependencies: spec.Dependencies,
			Accounts:     lo.Uniq(roles),
			Artifacts:    lo.Uniq(lo.Map(steps, func(step DeploySpec, _ int) string { return step.Artifact })),
		},
		Run: func(ctx context.Context, env *usecase.Environment) error {
			for _, step := range steps {
				if err := runStep(ctx, env, step); err != nil {
					return fmt.Errorf("deploy %s: %w", step.Name, err)
				}
			}
			return nil
		},
	}
}

func runStep(ctx context.Context, env *usecase.Environment, step DeploySpec) error {
	artifact, err := env.Artifact(ctx, step.Artifact)
	if err != nil {
		return err
	}
	parsed, err := artifact.ParseABI()
	if err != nil {
		return &domain.InvalidArtifactError{Artifact: step.Artifact, Reason: "invalid ABI", Err: err}
	}
	args, err := convertArgs(ctx, env, parsed.Constructor.Inputs, step.Args)
	if err != nil {
		return err
	}

	_, err = env.Deploy(ctx, step.Name, usecase.DeployOptions{
		Artifact:      step.Artifact,
		From:          step.Account,
		Args:          args,
		Deterministic: step.Deterministic,
		Salt:          parseSalt(step.Salt),
	})
	return err
}

// referencedRoles collects @role references, including inside array
// arguments. Escaped literals ("@@...") are not references.
func referencedRoles(args []any) []string {
	var roles []string
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			if strings.HasPrefix(v, "@") && !strings.HasPrefix(v, "@@") {
				roles = append(roles, v[1:])
			}
		case []any:
			roles = append(roles, referencedRoles(v)...)
		}
	}
	return roles
}

var _ usecase.ScriptSource = (*YAMLSource)(nil)
