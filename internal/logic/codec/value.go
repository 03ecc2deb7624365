package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/blocto/solana-go-sdk/common"

	"solana-idlgen/internal/types"
)

// 动态值的 Go 表示：
//
//	bool / uintN / intN / floatN   对应同宽度的 Go 原生类型
//	u128 / i128                    *big.Int
//	string                         string
//	publicKey                      common.PublicKey（编码时也接受 base58 字符串）
//	Vec<u8>                        []byte
//	数组 / Vec                     []any
//	Option                         nil 或 Some（编码时非 nil 的裸值视为 Some）
//	结构体                         map[string]any，键为 IDL 字段原始名
//	枚举                           Enum

// Some 是 Option 的有值分支，用于区分 Option<Option<T>> 的两层
type Some struct {
	V any
}

// Enum 是枚举值：Value 对 unit 分支为 nil，具名分支为 map[string]any，元组分支为 []any
type Enum struct {
	Variant string
	Value   any
}

var (
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
)

// toBig 把各种整数表示统一为 big.Int，命令行与 JSON 输入都会走到这里
func toBig(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Int).Set(n), true
	case big.Int:
		return new(big.Int).Set(&n), true
	case int:
		return big.NewInt(int64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, false
		}
		b, _ := big.NewFloat(n).Int(nil)
		return b, true
	case json.Number:
		return new(big.Int).SetString(string(n), 10)
	case string:
		return new(big.Int).SetString(n, 0)
	default:
		return nil, false
	}
}

func toUint(v any, width int) (uint64, error) {
	b, ok := toBig(v)
	if !ok {
		return 0, fmt.Errorf("expected u%d, got %T", width, v)
	}
	if b.Sign() < 0 || b.BitLen() > width {
		return 0, fmt.Errorf("value %s out of range for u%d", b, width)
	}
	return b.Uint64(), nil
}

func toInt(v any, width int) (int64, error) {
	b, ok := toBig(v)
	if !ok {
		return 0, fmt.Errorf("expected i%d, got %T", width, v)
	}
	if !b.IsInt64() {
		return 0, fmt.Errorf("value %s out of range for i%d", b, width)
	}
	n := b.Int64()
	limit := int64(1) << (width - 1)
	if width < 64 && (n < -limit || n >= limit) {
		return 0, fmt.Errorf("value %d out of range for i%d", n, width)
	}
	return n, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	}
	if b, ok := toBig(v); ok {
		f, _ := new(big.Float).SetInt(b).Float64()
		return f, nil
	}
	return 0, fmt.Errorf("expected float, got %T", v)
}

func toPublicKey(v any) (common.PublicKey, error) {
	switch k := v.(type) {
	case common.PublicKey:
		return k, nil
	case types.Pubkey:
		return k.ToCommon(), nil
	case [32]byte:
		return types.Pubkey(k).ToCommon(), nil
	case string:
		pk, err := types.TryPubkeyFromBase58(k)
		if err != nil {
			return common.PublicKey{}, err
		}
		return pk.ToCommon(), nil
	default:
		return common.PublicKey{}, fmt.Errorf("expected public key, got %T", v)
	}
}

// put128 按小端写 16 字节，有符号数用二进制补码
func put128(b *big.Int, signed bool) ([]byte, error) {
	if signed {
		if b.Cmp(minI128) < 0 || b.Cmp(maxI128) > 0 {
			return nil, fmt.Errorf("value %s out of range for i128", b)
		}
		if b.Sign() < 0 {
			b = new(big.Int).Add(b, two128)
		}
	} else if b.Sign() < 0 || b.Cmp(maxU128) > 0 {
		return nil, fmt.Errorf("value %s out of range for u128", b)
	}
	be := b.FillBytes(make([]byte, 16))
	out := make([]byte, 16)
	for i := range be {
		out[15-i] = be[i]
	}
	return out, nil
}

func get128(le []byte, signed bool) *big.Int {
	be := make([]byte, 16)
	for i := range le {
		be[15-i] = le[i]
	}
	b := new(big.Int).SetBytes(be)
	if signed && le[15]&0x80 != 0 {
		b.Sub(b, two128)
	}
	return b
}
