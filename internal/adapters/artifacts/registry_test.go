package artifacts_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidity-kit/kitdeploy/internal/adapters/artifacts"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/testutil"
)

const hardhatArtifact = `{
  "_format": "hh-sol-artifact-1",
  "contractName": "Greeter",
  "sourceName": "contracts/Greeter.sol",
  "abi": [{"type": "constructor", "inputs": [], "stateMutability": "nonpayable"}],
  "bytecode": "0x6080604052",
  "deployedBytecode": "0x60806040"
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRegistry_FoundryOutput(t *testing.T) {
	ctx := context.Background()
	r := artifacts.NewRegistry(testutil.ArtifactsDir(t), testutil.Logger())

	tokens, err := r.Get(ctx, "TestTokens")
	require.NoError(t, err)
	assert.Equal(t, "TestTokens", tokens.Name)
	assert.Equal(t, "src/TestTokens.sol", tokens.SourcePath)
	assert.Len(t, tokens.Bytecode, 83)
	assert.NotEmpty(t, tokens.DeployedBytecode)

	parsed, err := tokens.ParseABI()
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "decimals")
	assert.Len(t, parsed.Constructor.Inputs, 2)

	byPath, err := r.Get(ctx, "src/Time.sol:Time")
	require.NoError(t, err)
	assert.Len(t, byPath.Bytecode, 36)

	all, err := r.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, a := range all {
		names[i] = a.FullyQualifiedName()
	}
	assert.Equal(t, []string{"src/Reverting.sol:Reverting", "src/TestTokens.sol:TestTokens", "src/Time.sol:Time"}, names)
}

func TestRegistry_HardhatOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "contracts", "Greeter.sol", "Greeter.json"), hardhatArtifact)
	writeFile(t, filepath.Join(dir, "contracts", "Greeter.sol", "Greeter.dbg.json"), `{"buildInfo": "../../build-info/x.json"}`)
	writeFile(t, filepath.Join(dir, "build-info", "x.json"), `{"abi": [], "bytecode": "0x00"}`)

	r := artifacts.NewRegistry(dir, testutil.Logger())
	greeter, err := r.Get(context.Background(), "Greeter")
	require.NoError(t, err)
	assert.Equal(t, "contracts/Greeter.sol:Greeter", greeter.FullyQualifiedName())
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, greeter.Bytecode)

	all, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegistry_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	artifact := func(source, code string) string {
		return `{"contractName": "Vault", "sourceName": "` + source + `", "abi": [], "bytecode": "` + code + `"}`
	}
	writeFile(t, filepath.Join(dir, "a", "Vault.json"), artifact("src/a/Vault.sol", "0x6000"))
	writeFile(t, filepath.Join(dir, "b", "Vault.json"), artifact("src/b/Vault.sol", "0x6001"))
	writeFile(t, filepath.Join(dir, "Linked.json"), `{"contractName": "Linked", "sourceName": "src/Linked.sol", "abi": [], "bytecode": "0x73__$abcdef$__6000"}`)
	writeFile(t, filepath.Join(dir, "IFace.json"), `{"contractName": "IFace", "sourceName": "src/IFace.sol", "abi": [], "bytecode": "0x"}`)
	writeFile(t, filepath.Join(dir, "notes.json"), `[1, 2, 3]`)

	r := artifacts.NewRegistry(dir, testutil.Logger())

	t.Run("ambiguous bare name", func(t *testing.T) {
		_, err := r.Get(ctx, "Vault")
		require.ErrorIs(t, err, domain.ErrAmbiguousArtifact)
		assert.Contains(t, err.Error(), "src/a/Vault.sol:Vault, src/b/Vault.sol:Vault")
	})

	t.Run("qualified name disambiguates", func(t *testing.T) {
		a, err := r.Get(ctx, "src/b/Vault.sol:Vault")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x60, 0x01}, a.Bytecode)
	})

	t.Run("unlinked libraries", func(t *testing.T) {
		_, err := r.Get(ctx, "Linked")
		var invalid *domain.InvalidArtifactError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "unlinked")
	})

	t.Run("no creation code is skipped", func(t *testing.T) {
		_, err := r.Get(ctx, "IFace")
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.Get(ctx, "Nope")
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
		_, err = r.Get(ctx, "src/Nope.sol:Nope")
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	})
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := artifacts.NewRegistry(testutil.ArtifactsDir(t), testutil.Logger())

	first, err := r.Get(ctx, "Time")
	require.NoError(t, err)
	first.Bytecode[0] ^= 0xff
	first.Name = "Mutated"

	second, err := r.Get(ctx, "Time")
	require.NoError(t, err)
	assert.Equal(t, "Time", second.Name)
	assert.NotEqual(t, first.Bytecode[0], second.Bytecode[0])
}

func TestRegistry_MissingDirectory(t *testing.T) {
	r := artifacts.NewRegistry(filepath.Join(t.TempDir(), "out"), testutil.Logger())

	all, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = r.Get(context.Background(), "Time")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}
