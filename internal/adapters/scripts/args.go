package scripts

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
)

// argResolver looks up the values that @role and $Name arguments refer to
type argResolver interface {
	NamedAccount(ctx context.Context, role string) (common.Address, error)
	Get(ctx context.Context, name string) (*models.DeploymentRecord, error)
}

var units = map[string]*big.Int{
	"wei":   big.NewInt(1),
	"gwei":  big.NewInt(params.GWei),
	"ether": big.NewInt(params.Ether),
}

// convertArgs converts YAML values into the Go values abi.Pack expects for inputs
func convertArgs(ctx context.Context, r argResolver, inputs abi.Arguments, values []any) ([]any, error) {
	if len(values) != len(inputs) {
		return nil, fmt.Errorf("constructor takes %d arguments, got %d", len(inputs), len(values))
	}
	out := make([]any, len(values))
	for i, v := range values {
		converted, err := convertArg(ctx, r, inputs[i].Type, v)
		if err != nil {
			name := inputs[i].Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, inputs[i].Type.String(), err)
		}
		out[i] = converted
	}
	return out, nil
}

func convertArg(ctx context.Context, r argResolver, t abi.Type, v any) (any, error) {
	if s, ok := v.(string); ok {
		resolved, err := resolveReference(ctx, r, s)
		if err != nil {
			return nil, err
		}
		v = resolved
	}

	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.IntTy, abi.UintTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return fitInteger(t, n)
	case abi.BoolTy:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	case abi.StringTy:
		return fmt.Sprint(v), nil
	case abi.BytesTy:
		s, ok := v.(string)
		if !ok {
			break
		}
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		s, ok := v.(string)
		if !ok {
			break
		}
		raw, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(raw) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(raw))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(raw))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		items, ok := v.([]any)
		if !ok {
			break
		}
		if t.T == abi.ArrayTy && len(items) != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(items))
		}
		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), len(items), len(items))
		} else {
			out = reflect.New(t.GetType()).Elem()
		}
		for i, item := range items {
			converted, err := convertArg(ctx, r, *t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(converted))
		}
		return out.Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported type %s", t.String())
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, t.String())
}

// resolveReference expands @role and $Name. A doubled prefix ("@@handle",
// "$$5") is a literal with one prefix removed. Other strings pass through.
func resolveReference(ctx context.Context, r argResolver, s string) (any, error) {
	switch {
	case strings.HasPrefix(s, "@@"), strings.HasPrefix(s, "$$"):
		return s[1:], nil
	case strings.HasPrefix(s, "@"):
		addr, err := r.NamedAccount(ctx, s[1:])
		if err != nil {
			return nil, err
		}
		return addr, nil
	case strings.HasPrefix(s, "$"):
		record, err := r.Get(ctx, s[1:])
		if err != nil {
			return nil, err
		}
		return common.HexToAddress(record.Address), nil
	}
	return s, nil
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("invalid address %q", a)
		}
		return common.HexToAddress(a), nil
	}
	return common.Address{}, fmt.Errorf("cannot use %v (%T) as address", v, v)
}

// toBigInt accepts YAML integers, decimal or 0x strings and "<n> <unit>"
// amounts such as "10 ether" or "1.5 gwei"
func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case common.Address:
		return new(big.Int).SetBytes(n.Bytes()), nil
	case string:
		return parseAmount(n)
	}
	return nil, fmt.Errorf("cannot use %v (%T) as integer", v, v)
}

func parseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	fields := strings.Fields(s)
	if len(fields) == 2 {
		unit, ok := units[strings.ToLower(fields[1])]
		if !ok {
			return nil, fmt.Errorf("unknown unit %q", fields[1])
		}
		amount, ok := new(big.Rat).SetString(fields[0])
		if !ok {
			return nil, fmt.Errorf("invalid amount %q", fields[0])
		}
		amount.Mul(amount, new(big.Rat).SetInt(unit))
		if !amount.IsInt() {
			return nil, fmt.Errorf("%q is not a whole number of wei", s)
		}
		return amount.Num(), nil
	}

	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// fitInteger range-checks n and converts it to the Go type abi.Pack wants
// for t: uint8..uint64/int8..int64 for small sizes, *big.Int otherwise
func fitInteger(t abi.Type, n *big.Int) (any, error) {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s out of range for %s", n, t.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s out of range for %s", n, t.String())
		}
	}

	goType := t.GetType()
	if goType == reflect.TypeOf(new(big.Int)) {
		return n, nil
	}
	if t.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
}

// parseSalt accepts a 32-byte hex salt; any other string is hashed
func parseSalt(s string) common.Hash {
	if s == "" {
		return common.Hash{}
	}
	if raw, err := hexutil.Decode(s); err == nil && len(raw) == common.HashLength {
		return common.BytesToHash(raw)
	}
	return crypto.Keccak256Hash([]byte(s))
}
