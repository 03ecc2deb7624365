package utils

import (
	"encoding/json"
	"math"
	"strconv"
)

// 加载器交给核心的是已反序列化的对象树：JSON 来源为 map[string]any / []any / json.Number，
// YAML 来源的整数是 int。这里统一做类型收窄。

func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func AsList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// AsInt64 接受各种整数表示，浮点数必须是整值
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint8:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Kind 返回节点的简短类型名，用于报错
func Kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		if _, ok := AsInt64(v); ok {
			return "number"
		}
		return "unknown"
	}
}
