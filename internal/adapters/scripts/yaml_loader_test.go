package scripts

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidity-kit/kitdeploy/internal/domain/config"
)

const timeScripts = `
scripts:
  - id: deploy_time
    tags: [Time, Time_deploy]
    deploy:
      - name: Time
        account: solidity-kit:deployer
        args: ["@solidity-kit:time-owner"]
        deterministic: true
  - id: deploy_tokens
    tags: [TestTokens]
    dependencies: [deploy_time]
    deploy:
      - name: TestTokens
        artifact: src/TestTokens.sol:TestTokens
        args: ["@solidity-kit:token-owner", "1000 ether"]
      - name: Registry
        args: [["$Time", "@treasury"]]
`

func newTestSource(t *testing.T, dir string) *YAMLSource {
	t.Helper()
	cfg := &config.RuntimeConfig{
		ScriptsDir: dir,
		Project:    &config.ProjectConfig{FallbackRole: "admin"},
	}
	return NewYAMLSource(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestYAMLSource_Parse(t *testing.T) {
	src := newTestSource(t, t.TempDir())

	scripts, err := src.Parse([]byte(timeScripts))
	require.NoError(t, err)
	require.Len(t, scripts, 2)

	timeScript := scripts[0]
	assert.Equal(t, "deploy_time", timeScript.ID)
	assert.Equal(t, []string{"Time", "Time_deploy"}, timeScript.Tags)
	assert.Empty(t, timeScript.Dependencies)
	assert.Equal(t, []string{"solidity-kit:deployer", "solidity-kit:time-owner"}, timeScript.Accounts)
	assert.Equal(t, []string{"Time"}, timeScript.Artifacts)
	assert.NotNil(t, timeScript.Run)

	tokens := scripts[1]
	assert.Equal(t, []string{"deploy_time"}, tokens.Dependencies)
	// steps without an account use the fallback role
	assert.Equal(t, []string{"admin", "solidity-kit:token-owner", "treasury"}, tokens.Accounts)
	assert.Equal(t, []string{"src/TestTokens.sol:TestTokens", "Registry"}, tokens.Artifacts)
}

func TestYAMLSource_ParseErrors(t *testing.T) {
	src := newTestSource(t, t.TempDir())

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "unknown field", doc: "scripts:\n  - id: a\n    tagz: [x]\n", wantErr: "tagz"},
		{name: "missing id", doc: "scripts:\n  - tags: [x]\n", wantErr: "missing id"},
		{name: "step without name", doc: "scripts:\n  - id: a\n    deploy:\n      - artifact: Time\n", wantErr: "missing a name"},
		{name: "not yaml", doc: "scripts: [", wantErr: "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	scripts, err := src.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, scripts)
}

func TestYAMLSource_EscapedReferences(t *testing.T) {
	src := newTestSource(t, t.TempDir())

	scripts, err := src.Parse([]byte(`
scripts:
  - id: greeter
    deploy:
      - name: Greeter
        account: deployer
        args: ["@@handle", ["@@tag", "@owner"]]
`))
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, []string{"deployer", "owner"}, scripts[0].Accounts)
}

func TestYAMLSource_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02_tokens.yml"), []byte("scripts:\n  - id: tokens\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01_time.yaml"), []byte("scripts:\n  - id: time\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# ignored"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	scripts, err := newTestSource(t, dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	assert.Equal(t, "time", scripts[0].ID)
	assert.Equal(t, "tokens", scripts[1].ID)
}

func TestYAMLSource_LoadMissingDir(t *testing.T) {
	scripts, err := newTestSource(t, filepath.Join(t.TempDir(), "missing")).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scripts)
}

func TestYAMLSource_DefaultFallbackRole(t *testing.T) {
	src := NewYAMLSource(&config.RuntimeConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	scripts, err := src.Parse([]byte("scripts:\n  - id: a\n    deploy:\n      - name: Time\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{config.DefaultFallbackRole}, scripts[0].Accounts)
}
