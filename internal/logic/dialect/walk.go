package dialect

import (
	"fmt"
	"strconv"

	"github.com/zeromicro/go-zero/core/jsonx"

	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/naming"
	"solana-idlgen/internal/logic/resolver"
	"solana-idlgen/internal/utils"
)

// 文档遍历的小工具，所有报错都带上 JSON path 风格的位置

func at(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func idx(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func (p *parser) malformed(path, format string, args ...any) error {
	return &ParseError{
		Kind:    Malformed,
		Dialect: p.dialect,
		Entry:   p.entry,
		Path:    path,
		Reason:  fmt.Sprintf(format, args...),
	}
}

func (p *parser) badType(path string, err error) error {
	return &ParseError{Kind: BadType, Dialect: p.dialect, Entry: p.entry, Path: path, Err: err}
}

func (p *parser) object(v any, path string) (map[string]any, error) {
	m, ok := utils.AsMap(v)
	if !ok {
		return nil, p.malformed(path, "expected object, got %s", utils.Kind(v))
	}
	return m, nil
}

// list 读取数组字段；字段缺失时返回 nil（required 为 true 时报错）
func (p *parser) list(m map[string]any, key, path string, required bool) ([]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return nil, p.malformed(at(path, key), "missing required array")
		}
		return nil, nil
	}
	l, ok := utils.AsList(v)
	if !ok {
		return nil, p.malformed(at(path, key), "expected array, got %s", utils.Kind(v))
	}
	return l, nil
}

func (p *parser) str(m map[string]any, key, path string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", p.malformed(at(path, key), "missing required string")
	}
	s, ok := utils.AsString(v)
	if !ok || s == "" {
		return "", p.malformed(at(path, key), "expected non-empty string, got %s", utils.Kind(v))
	}
	return s, nil
}

func (p *parser) optStr(m map[string]any, key, path string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := utils.AsString(v)
	if !ok {
		return "", p.malformed(at(path, key), "expected string, got %s", utils.Kind(v))
	}
	return s, nil
}

// flag 读取第一个出现的布尔字段，都缺失时为 false
func (p *parser) flag(m map[string]any, path string, keys ...string) (bool, error) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		b, ok := utils.AsBool(v)
		if !ok {
			return false, p.malformed(at(path, key), "expected bool, got %s", utils.Kind(v))
		}
		return b, nil
	}
	return false, nil
}

// docs 读取 docs 字符串数组，shank 的 desc 单行描述同样接受
func (p *parser) docs(m map[string]any, path string) ([]string, error) {
	if s, ok := utils.AsString(m["desc"]); ok && s != "" {
		return []string{s}, nil
	}
	raw, err := p.list(m, "docs", path, false)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for i, d := range raw {
		s, ok := utils.AsString(d)
		if !ok {
			return nil, p.malformed(idx(at(path, "docs"), i), "expected string, got %s", utils.Kind(d))
		}
		out = append(out, s)
	}
	return out, nil
}

// opaque 把不做求值的节点（如 pda seeds）压成紧凑 JSON 文本透传
func (p *parser) opaque(v any, path string) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := jsonx.Marshal(v)
	if err != nil {
		return "", p.malformed(path, "cannot encode: %v", err)
	}
	return string(b), nil
}

func (p *parser) ident(name, path string) (string, error) {
	id := naming.Exported(name)
	if id == "" {
		return "", p.malformed(at(path, "name"), "name %q has no identifier characters", name)
	}
	return id, nil
}

// typ 第一遍类型解析，DefinedRef 在 resolveRefs 中统一校验
func (p *parser) typ(node any, path string) (ir.ResolvedType, error) {
	if node == nil {
		return ir.ResolvedType{}, p.malformed(path, "missing type")
	}
	t, err := resolver.Resolve(node, path)
	if err != nil {
		return ir.ResolvedType{}, p.badType(path, err)
	}
	return t, nil
}

// fields 解析 [{name, type, docs}] 形式的字段列表
func (p *parser) fields(raw []any, path string) ([]ir.Field, error) {
	out := make([]ir.Field, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, v := range raw {
		fp := idx(path, i)
		m, err := p.object(v, fp)
		if err != nil {
			return nil, err
		}
		name, err := p.str(m, "name", fp)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, p.malformed(at(fp, "name"), "duplicate field %q", name)
		}
		seen[name] = struct{}{}

		id, err := p.ident(name, fp)
		if err != nil {
			return nil, err
		}
		t, err := p.typ(m["type"], at(fp, "type"))
		if err != nil {
			return nil, err
		}
		docs, err := p.docs(m, fp)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.Field{Name: name, Ident: id, Type: t, Docs: docs})
	}
	return out, nil
}
