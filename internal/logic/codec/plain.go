package codec

import (
	"encoding/hex"
	"math/big"

	"github.com/blocto/solana-go-sdk/common"
)

// Plain 把解码值转换为便于 JSON 输出的形式：公钥转 base58，字节串转 hex，
// Some 展开为内部值，枚举转为 {"分支名": 数据}（unit 分支为分支名字符串）
func Plain(v any) any {
	switch x := v.(type) {
	case common.PublicKey:
		return x.ToBase58()
	case []byte:
		return hex.EncodeToString(x)
	case *big.Int:
		return x.String()
	case Some:
		return Plain(x.V)
	case Enum:
		if x.Value == nil {
			return x.Variant
		}
		return map[string]any{x.Variant: Plain(x.Value)}
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Plain(item)
		}
		return out
	default:
		return v
	}
}
