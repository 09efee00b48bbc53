package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
)

const (
	// ConfigFileName is the project configuration file
	ConfigFileName = "kitdeploy.toml"
	// DataDirName holds local state such as the file ledger
	DataDirName = ".kitdeploy"

	defaultSimulatedAccounts = 10
)

// LoadProjectConfig loads kitdeploy.toml from projectRoot. A missing file is
// not an error: the defaults describe a project with only the simulated network.
func LoadProjectConfig(projectRoot string) (*config.ProjectConfig, error) {
	loadDotEnv(projectRoot)

	cfg := &config.ProjectConfig{}
	path := filepath.Join(projectRoot, ConfigFileName)
	var raw rawRoles
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
		}
	} else if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	roles, err := raw.resolve()
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}
	cfg.Roles = roles

	expandEnv(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// rawRoles mirrors the [roles.*] tables, whose values may be integers or strings
type rawRoles struct {
	Roles map[string]struct {
		Default  any            `toml:"default"`
		Networks map[string]any `toml:"networks"`
	} `toml:"roles"`
}

func (r rawRoles) resolve() (map[string]config.RoleConfig, error) {
	roles := make(map[string]config.RoleConfig, len(r.Roles))
	for name, raw := range r.Roles {
		role := config.RoleConfig{Networks: make(map[string]config.AccountRef, len(raw.Networks))}
		if raw.Default != nil {
			ref, err := config.ParseAccountRef(expandValue(raw.Default))
			if err != nil {
				return nil, fmt.Errorf("role %s: default: %w", name, err)
			}
			role.Default = &ref
		}
		for network, v := range raw.Networks {
			ref, err := config.ParseAccountRef(expandValue(v))
			if err != nil {
				return nil, fmt.Errorf("role %s: network %s: %w", name, network, err)
			}
			role.Networks[network] = ref
		}
		roles[name] = role
	}
	return roles, nil
}

func expandValue(v any) any {
	if s, ok := v.(string); ok {
		return os.ExpandEnv(s)
	}
	return v
}

// ResolveNetwork returns a copy of the named network configuration
func ResolveNetwork(project *config.ProjectConfig, name string) (*config.Network, error) {
	n, ok := project.Networks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", domain.ErrNetworkNotConfigured, name, NetworkNames(project))
	}
	c := *n
	c.PrivateKeys = append([]string(nil), n.PrivateKeys...)
	return &c, nil
}

// NetworkNames returns configured network names in sorted order
func NetworkNames(project *config.ProjectConfig) []string {
	names := make([]string, 0, len(project.Networks))
	for name := range project.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadDotEnv loads .env files so ${VAR} references can be expanded.
// Variables already set in the environment win.
func loadDotEnv(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

func expandEnv(cfg *config.ProjectConfig) {
	cfg.Ledger.RedisURL = os.ExpandEnv(cfg.Ledger.RedisURL)
	for _, n := range cfg.Networks {
		if n == nil {
			continue
		}
		n.RPCURL = os.ExpandEnv(n.RPCURL)
		for i, key := range n.PrivateKeys {
			n.PrivateKeys[i] = os.ExpandEnv(key)
		}
	}
}

func applyDefaults(cfg *config.ProjectConfig) {
	if cfg.FallbackRole == "" {
		cfg.FallbackRole = config.DefaultFallbackRole
	}
	if cfg.Artifacts == "" {
		cfg.Artifacts = "out"
	}
	if cfg.Scripts == "" {
		cfg.Scripts = "deploy"
	}
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = config.LedgerBackendFile
	}
	if cfg.Ledger.Prefix == "" {
		cfg.Ledger.Prefix = "kitdeploy"
	}
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]*config.Network)
	}
	if cfg.Roles == nil {
		cfg.Roles = make(map[string]config.RoleConfig)
	}
	if _, ok := cfg.Networks[config.SimulatedNetworkName]; !ok {
		cfg.Networks[config.SimulatedNetworkName] = &config.Network{Simulated: true}
	}

	for name, n := range cfg.Networks {
		if n == nil {
			n = &config.Network{}
			cfg.Networks[name] = n
		}
		n.Name = name
		if n.Simulated {
			if n.ChainID == 0 {
				n.ChainID = config.SimulatedChainID
			}
			if n.Accounts == 0 {
				n.Accounts = defaultSimulatedAccounts
			}
		}
	}
}

func validate(cfg *config.ProjectConfig) error {
	switch cfg.Ledger.Backend {
	case config.LedgerBackendFile, config.LedgerBackendMemory:
	case config.LedgerBackendRedis:
		if cfg.Ledger.RedisURL == "" {
			return fmt.Errorf("ledger backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	for _, name := range NetworkNames(cfg) {
		n := cfg.Networks[name]
		if n.Simulated && n.RPCURL != "" {
			return fmt.Errorf("network %s: simulated networks cannot have an rpc_url", name)
		}
		if !n.Simulated && n.RPCURL == "" {
			return fmt.Errorf("network %s: rpc_url is required", name)
		}
		if n.Accounts < 0 {
			return fmt.Errorf("network %s: accounts must not be negative", name)
		}
		if n.Simulated && n.ChainID != config.SimulatedChainID {
			return fmt.Errorf("network %s: simulated networks always use chain ID %d", name, config.SimulatedChainID)
		}
	}
	return nil
}
