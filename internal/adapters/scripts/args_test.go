package scripts

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

type fakeResolver struct {
	roles       map[string]common.Address
	deployments map[string]string
}

func (f *fakeResolver) NamedAccount(_ context.Context, role string) (common.Address, error) {
	addr, ok := f.roles[role]
	if !ok {
		return common.Address{}, &domain.UnresolvedRoleError{Role: role, Network: "test"}
	}
	return addr, nil
}

func (f *fakeResolver) Get(_ context.Context, name string) (*models.DeploymentRecord, error) {
	addr, ok := f.deployments[name]
	if !ok {
		return nil, fmt.Errorf("deployment %s: %w", name, domain.ErrNotFound)
	}
	return &models.DeploymentRecord{ContractName: name, Address: addr}, nil
}

func mustType(t *testing.T, s string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(s, "", nil)
	require.NoError(t, err)
	return typ
}

func TestConvertArg(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token := "0x00000000000000000000000000000000000000bb"
	r := &fakeResolver{
		roles:       map[string]common.Address{"solidity-kit:time-owner": owner},
		deployments: map[string]string{"TestTokens": token},
	}

	tests := []struct {
		name     string
		typ      string
		value    any
		expected any
		wantErr  string
	}{
		{name: "role reference", typ: "address", value: "@solidity-kit:time-owner", expected: owner},
		{name: "deployment reference", typ: "address", value: "$TestTokens", expected: common.HexToAddress(token)},
		{name: "literal address", typ: "address", value: token, expected: common.HexToAddress(token)},
		{name: "invalid address", typ: "address", value: "0x1234", wantErr: "invalid address"},
		{name: "unknown role", typ: "address", value: "@nobody", wantErr: "nobody"},
		{name: "unknown deployment", typ: "address", value: "$Missing", wantErr: "not found"},
		{name: "yaml int as uint256", typ: "uint256", value: 42, expected: big.NewInt(42)},
		{name: "decimal string", typ: "uint256", value: "1000", expected: big.NewInt(1000)},
		{name: "hex string", typ: "uint256", value: "0xff", expected: big.NewInt(255)},
		{name: "ether amount", typ: "uint256", value: "10 ether", expected: new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))},
		{name: "fractional gwei", typ: "uint256", value: "1.5 gwei", expected: big.NewInt(1_500_000_000)},
		{name: "sub-wei amount", typ: "uint256", value: "0.5 wei", wantErr: "whole number"},
		{name: "unknown unit", typ: "uint256", value: "1 finney", wantErr: "unknown unit"},
		{name: "uint8 uses native type", typ: "uint8", value: 18, expected: uint8(18)},
		{name: "uint8 overflow", typ: "uint8", value: 256, wantErr: "out of range"},
		{name: "negative uint", typ: "uint256", value: -1, wantErr: "out of range"},
		{name: "int64 negative", typ: "int64", value: -5, expected: int64(-5)},
		{name: "bool", typ: "bool", value: true, expected: true},
		{name: "bool string", typ: "bool", value: "false", expected: false},
		{name: "string", typ: "string", value: "hello", expected: "hello"},
		{name: "escaped at sign", typ: "string", value: "@@handle", expected: "@handle"},
		{name: "escaped dollar sign", typ: "string", value: "$$5", expected: "$5"},
		{name: "role reference as string", typ: "string", value: "@solidity-kit:time-owner", expected: owner.Hex()},
		{name: "bytes", typ: "bytes", value: "0xdeadbeef", expected: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "bytes4", typ: "bytes4", value: "0x313ce567", expected: [4]byte{0x31, 0x3c, 0xe5, 0x67}},
		{name: "bytes4 wrong size", typ: "bytes4", value: "0x31", wantErr: "expected 4 bytes"},
		{
			name:     "address array",
			typ:      "address[]",
			value:    []any{"@solidity-kit:time-owner", "$TestTokens"},
			expected: []common.Address{owner, common.HexToAddress(token)},
		},
		{name: "fixed array size", typ: "uint256[2]", value: []any{1}, wantErr: "expected 2 elements"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertArg(context.Background(), r, mustType(t, tt.typ), tt.value)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvertArgs_Packs(t *testing.T) {
	r := &fakeResolver{roles: map[string]common.Address{"owner": common.HexToAddress("0x01")}}
	parsed, err := abi.JSON(strings.NewReader(`[{"type":"constructor","inputs":[{"name":"owner_","type":"address"},{"name":"amount","type":"uint256"}]}]`))
	require.NoError(t, err)

	args, err := convertArgs(context.Background(), r, parsed.Constructor.Inputs, []any{"@owner", "5 ether"})
	require.NoError(t, err)

	packed, err := parsed.Pack("", args...)
	require.NoError(t, err)
	assert.Len(t, packed, 64)

	_, err = convertArgs(context.Background(), r, parsed.Constructor.Inputs, []any{"@owner"})
	assert.ErrorContains(t, err, "takes 2 arguments")

	_, err = convertArgs(context.Background(), r, parsed.Constructor.Inputs, []any{"@owner", "lots"})
	assert.ErrorContains(t, err, "argument amount")
}

func TestParseSalt(t *testing.T) {
	assert.Equal(t, common.Hash{}, parseSalt(""))

	hex := "0x0000000000000000000000000000000000000000000000000000000000000007"
	assert.Equal(t, common.HexToHash(hex), parseSalt(hex))

	assert.Equal(t, crypto.Keccak256Hash([]byte("v1")), parseSalt("v1"))
}
