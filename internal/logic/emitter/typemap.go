package emitter

import (
	"fmt"
	"strconv"

	"solana-idlgen/internal/logic/ir"
)

// goType 把 ResolvedType 映射为生成代码中的 Go 类型。
// Option<T> → *T（borsh-go 按指针编码 Option），u128/i128 → [16]uint8（小端原始字节）。
func (e *emitter) goType(g *generator, t ir.ResolvedType) string {
	switch t.Kind {
	case ir.KindPrimitive:
		return primitiveType(t)
	case ir.KindString:
		return "string"
	case ir.KindPublicKey:
		g.use(importCommon)
		return "common.PublicKey"
	case ir.KindFixedArray:
		return "[" + strconv.Itoa(t.Len) + "]" + e.goType(g, *t.Elem)
	case ir.KindDynamicList:
		if t.IsBytes() {
			return "[]byte"
		}
		return "[]" + e.goType(g, *t.Elem)
	case ir.KindOptional:
		return "*" + e.goType(g, *t.Elem)
	case ir.KindDefined:
		ident, ok := e.defined[t.Name]
		if !ok {
			// 解析阶段已保证引用存在
			panic(fmt.Sprintf("unresolved defined type %q", t.Name))
		}
		return ident
	}
	panic(fmt.Sprintf("unknown type kind %d", t.Kind))
}

func primitiveType(t ir.ResolvedType) string {
	switch t.Prim {
	case ir.PrimBool:
		return "bool"
	case ir.PrimFloat:
		return "float" + strconv.Itoa(t.Width)
	case ir.PrimUint, ir.PrimInt:
		if t.Width == 128 {
			return "[16]uint8"
		}
		if t.Prim == ir.PrimUint {
			return "uint" + strconv.Itoa(t.Width)
		}
		return "int" + strconv.Itoa(t.Width)
	}
	panic(fmt.Sprintf("unknown primitive kind %d", t.Prim))
}

// fields 输出结构体字段，带 IDL 文档注释
func (e *emitter) fields(g *generator, fields []ir.Field) {
	for _, f := range fields {
		g.docs(f.Docs)
		typ := e.goType(g, f.Type)
		if f.Type.Kind == ir.KindPrimitive && f.Type.Width == 128 {
			g.emitLinef("%s %s // %s, little-endian", f.Ident, typ, f.Type)
			continue
		}
		g.emitLinef("%s %s", f.Ident, typ)
	}
}
