package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidity-kit/kitdeploy/internal/adapters/ledger"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/config"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
	"github.com/solidity-kit/kitdeploy/internal/testutil"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

var oneMillion = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))

func artifact(t *testing.T, h *testutil.Harness, name string) *models.Artifact {
	t.Helper()
	a, err := h.Artifacts.Get(context.Background(), name)
	require.NoError(t, err)
	return a
}

func role(t *testing.T, h *testutil.Harness, name string) common.Address {
	t.Helper()
	addr, err := h.Accounts.Resolve(context.Background(), name)
	require.NoError(t, err)
	return addr
}

func blockNumber(t *testing.T, h *testutil.Harness) uint64 {
	t.Helper()
	conn, err := h.Connections.Get(context.Background())
	require.NoError(t, err)
	n, err := conn.Public.BlockNumber(context.Background())
	require.NoError(t, err)
	return n
}

func TestDeployContract_Create(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t, nil)
	deployer := role(t, h, testutil.DeployerRole)
	owner := role(t, h, testutil.TokenOwnerRole)

	req := models.DeploymentRequest{
		ContractName:    "TestTokens",
		Artifact:        artifact(t, h, "TestTokens"),
		Account:         deployer,
		ConstructorArgs: []any{owner, oneMillion},
	}

	first, err := h.Deployer.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, usecase.DeployStatusDeployed, first.Status)

	record := first.Record
	assert.Equal(t, "TestTokens", record.Identity)
	assert.Equal(t, "simulated", record.Network)
	assert.Equal(t, uint64(1337), record.ChainID)
	assert.Equal(t, "src/TestTokens.sol:TestTokens", record.ArtifactName)
	assert.Equal(t, deployer.Hex(), record.Deployer)
	assert.Equal(t, models.DeploymentMethodCreate, record.Strategy.Method)
	assert.NotEmpty(t, record.TransactionHash)
	assert.NotEmpty(t, record.ConstructorArgs)
	assert.False(t, record.CreatedAt.IsZero())

	t.Run("contract is callable", func(t *testing.T) {
		conn, err := h.Connections.Get(ctx)
		require.NoError(t, err)
		token, err := usecase.NewBoundContract(conn, record)
		require.NoError(t, err)

		out, err := token.Read(ctx, "decimals")
		require.NoError(t, err)
		assert.Equal(t, uint8(18), out[0])

		out, err = token.Read(ctx, "totalSupply")
		require.NoError(t, err)
		assert.Equal(t, 0, oneMillion.Cmp(out[0].(*big.Int)))
	})

	t.Run("second deploy reuses the record", func(t *testing.T) {
		before := blockNumber(t, h)

		second, err := h.Deployer.Run(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, usecase.DeployStatusExisting, second.Status)
		assert.Equal(t, record.Address, second.Record.Address)
		assert.Equal(t, record.TransactionHash, second.Record.TransactionHash)
		assert.Equal(t, before, blockNumber(t, h), "no transaction is sent")
	})

	t.Run("force redeploys", func(t *testing.T) {
		forced := req
		forced.Force = true

		third, err := h.Deployer.Run(ctx, forced)
		require.NoError(t, err)
		assert.Equal(t, usecase.DeployStatusDeployed, third.Status)
		assert.NotEqual(t, record.Address, third.Record.Address)

		latest, err := h.Deployer.Get(ctx, "TestTokens")
		require.NoError(t, err)
		assert.Equal(t, third.Record.Address, latest.Address)
	})
}

func TestDeployContract_Deterministic(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t, nil)
	deployer := role(t, h, testutil.DeployerRole)
	owner := role(t, h, testutil.TimeOwnerRole)
	timeArtifact := artifact(t, h, "Time")

	req := models.DeploymentRequest{
		ContractName:    "Time",
		Artifact:        timeArtifact,
		Account:         deployer,
		ConstructorArgs: []any{owner},
		Deterministic:   true,
		Salt:            common.HexToHash("0x01"),
	}

	first, err := h.Deployer.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, usecase.DeployStatusDeployed, first.Status)

	initCode, err := initCodeFor(timeArtifact, owner)
	require.NoError(t, err)
	predicted := h.Factory.PredictAddress(req.Salt, initCode)
	assert.Equal(t, predicted.Hex(), first.Record.Address)
	assert.Equal(t, models.DeploymentMethodCreate2, first.Record.Strategy.Method)
	assert.Equal(t, h.Factory.Address().Hex(), first.Record.Strategy.Factory)
	assert.True(t, first.Record.IsDeterministic())

	conn, err := h.Connections.Get(ctx)
	require.NoError(t, err)
	bound, err := usecase.NewBoundContract(conn, first.Record)
	require.NoError(t, err)
	out, err := bound.Read(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, owner, out[0])

	t.Run("same request deploys once", func(t *testing.T) {
		second, err := h.Deployer.Run(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, usecase.DeployStatusExisting, second.Status)

		records, err := h.Ledger.List(ctx, "simulated")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("existing code is adopted", func(t *testing.T) {
		fresh := usecase.NewDeployContract(h.Connections, ledger.NewMemoryLedger(), h.Factory, usecase.NopProgress{}, testutil.Logger())

		adopted, err := fresh.Run(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, usecase.DeployStatusAdopted, adopted.Status)
		assert.Equal(t, first.Record.Address, adopted.Record.Address)
		assert.Empty(t, adopted.Record.TransactionHash)
	})

	t.Run("different salt gives a different address", func(t *testing.T) {
		other := req
		other.Salt = common.HexToHash("0x02")

		res, err := h.Deployer.Run(ctx, other)
		require.NoError(t, err)
		assert.NotEqual(t, first.Record.Address, res.Record.Address)
		assert.NotEqual(t, first.Record.Identity, res.Record.Identity)
	})
}

func TestDeployContract_DeterministicAcrossRoleMappings(t *testing.T) {
	ctx := context.Background()
	salt := common.HexToHash("0x2a")

	byIndex := testutil.NewHarness(t, nil)
	deployer := role(t, byIndex, testutil.DeployerRole)
	owner := role(t, byIndex, testutil.TimeOwnerRole)

	// same accounts, reached through literal addresses and a different index layout
	project := testutil.ProjectConfig()
	project.Roles[testutil.DeployerRole] = config.RoleConfig{Default: ref(config.AddressRef(deployer))}
	project.Roles[testutil.TimeOwnerRole] = config.RoleConfig{Default: ref(config.AddressRef(owner))}
	project.Roles[testutil.TokenOwnerRole] = config.RoleConfig{Default: ref(config.IndexRef(1))}
	byLiteral := testutil.NewHarness(t, project)
	require.Equal(t, deployer, role(t, byLiteral, testutil.DeployerRole))
	require.Equal(t, owner, role(t, byLiteral, testutil.TimeOwnerRole))

	deploy := func(h *testutil.Harness) *models.DeploymentRecord {
		res, err := h.Deployer.Run(ctx, models.DeploymentRequest{
			ContractName:    "Time",
			Artifact:        artifact(t, h, "Time"),
			Account:         role(t, h, testutil.DeployerRole),
			ConstructorArgs: []any{role(t, h, testutil.TimeOwnerRole)},
			Deterministic:   true,
			Salt:            salt,
		})
		require.NoError(t, err)
		require.Equal(t, usecase.DeployStatusDeployed, res.Status)
		return res.Record
	}

	first := deploy(byIndex)

	// move the second chain's nonces before deploying
	_, err := byLiteral.Deployer.Run(ctx, models.DeploymentRequest{
		ContractName:    "TestTokens",
		Artifact:        artifact(t, byLiteral, "TestTokens"),
		Account:         deployer,
		ConstructorArgs: []any{owner, oneMillion},
	})
	require.NoError(t, err)
	second := deploy(byLiteral)

	assert.Equal(t, first.Address, second.Address)
	assert.Equal(t, first.Identity, second.Identity)
}

func TestDeployContract_Failures(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t, nil)
	deployer := role(t, h, testutil.DeployerRole)

	t.Run("reverting constructor leaves no record", func(t *testing.T) {
		_, err := h.Deployer.Run(ctx, models.DeploymentRequest{
			ContractName: "Reverting",
			Artifact:     artifact(t, h, "Reverting"),
			Account:      deployer,
		})
		var failed *domain.DeploymentFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "Reverting", failed.Contract)

		_, err = h.Ledger.GetByName(ctx, "simulated", "Reverting")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty bytecode", func(t *testing.T) {
		_, err := h.Deployer.Run(ctx, models.DeploymentRequest{
			ContractName: "IThing",
			Artifact:     &models.Artifact{Name: "IThing", ABI: json.RawMessage(`[]`)},
			Account:      deployer,
		})
		var invalid *domain.InvalidArtifactError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("constructor arguments must match the ABI", func(t *testing.T) {
		_, err := h.Deployer.Run(ctx, models.DeploymentRequest{
			ContractName:    "Time",
			Artifact:        artifact(t, h, "Time"),
			Account:         deployer,
			ConstructorArgs: []any{"not an address"},
		})
		var invalid *domain.InvalidArtifactError
		require.ErrorAs(t, err, &invalid)

		records, err := h.Ledger.List(ctx, "simulated")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("unknown sender", func(t *testing.T) {
		_, err := h.Deployer.Run(ctx, models.DeploymentRequest{
			ContractName:    "Time",
			Artifact:        artifact(t, h, "Time"),
			Account:         common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
			ConstructorArgs: []any{deployer},
		})
		var failed *domain.DeploymentFailedError
		assert.True(t, errors.As(err, &failed))
	})
}

func initCodeFor(a *models.Artifact, args ...any) ([]byte, error) {
	parsed, err := a.ParseABI()
	if err != nil {
		return nil, err
	}
	encoded, err := parsed.Pack("", args...)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, a.Bytecode...), encoded...), nil
}
