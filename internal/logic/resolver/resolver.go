// Package resolver 把 IDL 类型节点解析为 ir.ResolvedType。
//
// 解析分两遍：第一遍（Resolve）只做语法解析，DefinedRef 只记录名字；
// 第二遍（Resolver.Check / CheckDefinitions）在所有类型定义收集完后校验引用存在并检测环，
// 因此前向引用是合法的。
package resolver

import (
	"fmt"
	"strings"

	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/naming"
	"solana-idlgen/internal/utils"
)

// maxArrayLen 定长数组长度上限，超过视为文档错误
const maxArrayLen = 1 << 20

func primitive(name string) (ir.ResolvedType, bool) {
	switch name {
	case "bool":
		return ir.Bool(), true
	case "u8":
		return ir.Uint(8), true
	case "u16":
		return ir.Uint(16), true
	case "u32":
		return ir.Uint(32), true
	case "u64":
		return ir.Uint(64), true
	case "u128":
		return ir.Uint(128), true
	case "i8":
		return ir.Int(8), true
	case "i16":
		return ir.Int(16), true
	case "i32":
		return ir.Int(32), true
	case "i64":
		return ir.Int(64), true
	case "i128":
		return ir.Int(128), true
	case "f32":
		return ir.Float(32), true
	case "f64":
		return ir.Float(64), true
	case "string":
		return ir.String(), true
	case "publicKey", "pubkey":
		return ir.PublicKey(), true
	case "bytes":
		return ir.DynamicList(ir.Uint(8)), true
	}
	return ir.ResolvedType{}, false
}

// unsupported 是 IDL 中存在但本生成器明确拒绝的复合类型
var unsupported = map[string]string{
	"coption":             "COption uses a 4-byte tag that borsh bindings cannot express",
	"tuple":               "tuple types are not supported",
	"hashMap":             "map types are not supported",
	"hashSet":             "set types are not supported",
	"bTreeMap":            "map types are not supported",
	"generic":             "generic type parameters are not supported",
	"definedWithTypeArgs": "generic type arguments are not supported",
}

// Resolve 第一遍：把类型节点解析为 ResolvedType，不校验 DefinedRef 是否存在。
// path 是节点在文档中的位置，只用于报错。
func Resolve(node any, path string) (ir.ResolvedType, error) {
	switch n := node.(type) {
	case string:
		if t, ok := primitive(n); ok {
			return t, nil
		}
		return ir.ResolvedType{}, errUnknown(n, path)
	case map[string]any:
		return resolveComposite(n, path)
	default:
		return ir.ResolvedType{}, errMalformed(path, "expected type name or object, got %s", utils.Kind(node))
	}
}

func resolveComposite(n map[string]any, path string) (ir.ResolvedType, error) {
	if len(n) != 1 {
		return ir.ResolvedType{}, errMalformed(path, "type object must have exactly one key, got %d", len(n))
	}
	for key, val := range n {
		switch key {
		case "vec":
			elem, err := Resolve(val, path+".vec")
			if err != nil {
				return ir.ResolvedType{}, err
			}
			return ir.DynamicList(elem), nil

		case "option":
			elem, err := Resolve(val, path+".option")
			if err != nil {
				return ir.ResolvedType{}, err
			}
			return ir.Optional(elem), nil

		case "array":
			return resolveArray(val, path+".array")

		case "defined":
			name, err := definedName(val, path+".defined")
			if err != nil {
				return ir.ResolvedType{}, err
			}
			return ir.Defined(name), nil

		default:
			if reason, ok := unsupported[key]; ok {
				return ir.ResolvedType{}, errMalformed(path, "%s", reason)
			}
			return ir.ResolvedType{}, errUnknown(key, path)
		}
	}
	panic("unreachable")
}

func resolveArray(val any, path string) (ir.ResolvedType, error) {
	pair, ok := utils.AsList(val)
	if !ok || len(pair) != 2 {
		return ir.ResolvedType{}, errMalformed(path, "expected [type, length]")
	}
	n, ok := utils.AsInt64(pair[1])
	if !ok {
		// const generic 长度（如 "N"）无法在生成期确定
		return ir.ResolvedType{}, errMalformed(path+"[1]", "array length must be an integer literal, got %s", utils.Kind(pair[1]))
	}
	if n < 0 || n > maxArrayLen {
		return ir.ResolvedType{}, errMalformed(path+"[1]", "array length %d out of range", n)
	}
	elem, err := Resolve(pair[0], path+"[0]")
	if err != nil {
		return ir.ResolvedType{}, err
	}
	return ir.FixedArray(elem, int(n)), nil
}

// definedName 支持 "Name"、"Name<'info>" 以及 {"name": "Name"} 三种写法。
// 生命周期参数直接丢弃，其余泛型实参一律拒绝。
func definedName(val any, path string) (string, error) {
	var raw string
	switch v := val.(type) {
	case string:
		raw = v
	case map[string]any:
		s, ok := utils.AsString(v["name"])
		if !ok {
			return "", errMalformed(path, "defined type object requires a string \"name\"")
		}
		if g, ok := utils.AsList(v["generics"]); ok && len(g) > 0 {
			return "", errMalformed(path, "generic type arguments are not supported")
		}
		raw = s
	default:
		return "", errMalformed(path, "expected type name, got %s", utils.Kind(val))
	}

	for _, arg := range naming.GenericArgs(raw) {
		if !strings.HasPrefix(arg, "'") {
			return "", errMalformed(path, "generic type argument %q in %q is not supported", arg, raw)
		}
	}
	name := naming.StripGenerics(raw)
	if name == "" {
		return "", errMalformed(path, "empty type name")
	}
	return name, nil
}

// ResolveIn 单节点的完整解析：第一遍解析后立即按 defined 名字集合校验引用
func ResolveIn(node any, defined map[string]struct{}, path string) (ir.ResolvedType, error) {
	t, err := Resolve(node, path)
	if err != nil {
		return ir.ResolvedType{}, err
	}
	var missing string
	t.Walk(func(sub ir.ResolvedType) {
		if sub.Kind != ir.KindDefined || missing != "" {
			return
		}
		if _, ok := defined[sub.Name]; !ok {
			missing = sub.Name
		}
	})
	if missing != "" {
		return ir.ResolvedType{}, errUnknown(missing, path)
	}
	return t, nil
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

// Resolver 第二遍校验器，持有所有可被 DefinedRef 引用的类型定义
type Resolver struct {
	defs  map[string]*ir.TypeDef
	order []string
	state map[string]visitState
}

func New(defs []ir.TypeDef) *Resolver {
	r := &Resolver{
		defs:  make(map[string]*ir.TypeDef, len(defs)),
		state: make(map[string]visitState, len(defs)),
	}
	for i := range defs {
		if _, dup := r.defs[defs[i].Name]; dup {
			continue // 重名由解析器报错
		}
		r.defs[defs[i].Name] = &defs[i]
		r.order = append(r.order, defs[i].Name)
	}
	return r
}

// Check 校验 t 中所有 DefinedRef 都能找到定义
func (r *Resolver) Check(t ir.ResolvedType, path string) error {
	var err error
	t.Walk(func(sub ir.ResolvedType) {
		if err != nil || sub.Kind != ir.KindDefined {
			return
		}
		if _, ok := r.defs[sub.Name]; !ok {
			err = errUnknown(sub.Name, path)
		}
	})
	return err
}

// CheckDefinitions 按声明顺序校验所有类型定义：引用存在，且不存在按值包含自身的环。
// Vec 是间接层，经由 Vec 的自引用是合法的；Option 与定长数组不是。
func (r *Resolver) CheckDefinitions() error {
	for _, name := range r.order {
		if err := r.visit(name, nil, ""); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) visit(name string, chain []string, path string) error {
	def, ok := r.defs[name]
	if !ok {
		return errUnknown(name, path)
	}
	switch r.state[name] {
	case done:
		return nil
	case inProgress:
		return &TypeResolutionError{
			Kind:  Cyclic,
			Name:  name,
			Chain: append(append([]string(nil), chain...), name),
			Path:  path,
		}
	}

	r.state[name] = inProgress
	chain = append(chain, name)
	for _, f := range fieldsOf(def) {
		fieldPath := fmt.Sprintf("%s.%s", name, f.Name)
		if err := r.Check(f.Type, fieldPath); err != nil {
			return err
		}
		if err := r.visitByValue(f.Type, chain, fieldPath); err != nil {
			return err
		}
	}
	r.state[name] = done
	return nil
}

func (r *Resolver) visitByValue(t ir.ResolvedType, chain []string, path string) error {
	switch t.Kind {
	case ir.KindDefined:
		return r.visit(t.Name, chain, path)
	case ir.KindOptional, ir.KindFixedArray:
		return r.visitByValue(*t.Elem, chain, path)
	default:
		return nil
	}
}

func fieldsOf(def *ir.TypeDef) []ir.Field {
	if def.Kind == ir.TypeStruct {
		return def.Fields
	}
	var out []ir.Field
	for _, v := range def.Variants {
		out = append(out, v.Fields...)
	}
	return out
}
