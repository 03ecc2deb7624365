package emitter

import (
	"solana-idlgen/internal/logic/ir"
)

// genTypes 自定义类型：结构体、纯 unit 枚举（borsh.Enum 常量）与带数据的枚举（borsh 复合枚举）
func (e *emitter) genTypes(g *generator) {
	for i := range e.m.Types {
		t := &e.m.Types[i]
		switch {
		case t.Kind == ir.TypeStruct:
			e.genStruct(g, t)
		case t.HasDataVariants():
			e.genDataEnum(g, t)
		default:
			e.genUnitEnum(g, t)
		}
	}
}

func (e *emitter) genStruct(g *generator, t *ir.TypeDef) {
	g.docs(t.Docs)
	g.emitLinef("type %s struct {", t.Ident)
	g.incIndent()
	e.fields(g, t.Fields)
	g.decIndent()
	g.emitLine("}")
	g.blank()
	e.genPlainCodec(g, t.Ident)
}

func (e *emitter) genUnitEnum(g *generator, t *ir.TypeDef) {
	g.use(importBorsh)
	g.use(importFmt)

	g.docs(t.Docs)
	g.emitLinef("type %s borsh.Enum", t.Ident)
	g.blank()
	g.emitLine("const (")
	g.incIndent()
	for i, v := range t.Variants {
		if i == 0 {
			g.emitLinef("%s %s = iota", variantType(t.Ident, v.Ident), t.Ident)
			continue
		}
		g.emitLine(variantType(t.Ident, v.Ident))
	}
	g.decIndent()
	g.emitLine(")")
	g.blank()

	g.emitLinef("func (v %s) String() string {", t.Ident)
	g.incIndent()
	g.emitLine("switch v {")
	for _, v := range t.Variants {
		g.emitLinef("case %s:", variantType(t.Ident, v.Ident))
		g.emitLinef("\treturn %q", v.Name)
	}
	g.emitLine("}")
	g.emitLinef("return fmt.Sprintf(\"%s(%%d)\", uint8(v))", t.Ident)
	g.decIndent()
	g.emitLine("}")
	g.blank()
	e.genPlainCodec(g, t.Ident)
}

// genDataEnum borsh-go 的复合枚举：首字段为带 borsh_enum 标签的 borsh.Enum，
// 其后每个分支一个结构体字段，字段顺序即分支序号
func (e *emitter) genDataEnum(g *generator, t *ir.TypeDef) {
	g.use(importBorsh)

	g.docs(t.Docs)
	g.emitLinef("type %s struct {", t.Ident)
	g.incIndent()
	g.emitLine("Enum borsh.Enum `borsh_enum:\"true\"`")
	for _, v := range t.Variants {
		g.emitLinef("%s %s", v.Ident, variantType(t.Ident, v.Ident))
	}
	g.decIndent()
	g.emitLine("}")
	g.blank()

	g.emitLine("const (")
	g.incIndent()
	for i, v := range t.Variants {
		if i == 0 {
			g.emitLinef("%s borsh.Enum = iota", variantTag(t.Ident, v.Ident))
			continue
		}
		g.emitLine(variantTag(t.Ident, v.Ident))
	}
	g.decIndent()
	g.emitLine(")")
	g.blank()

	for _, v := range t.Variants {
		if len(v.Fields) == 0 {
			g.emitLinef("type %s struct{}", variantType(t.Ident, v.Ident))
			g.blank()
			continue
		}
		g.emitLinef("type %s struct {", variantType(t.Ident, v.Ident))
		g.incIndent()
		e.fields(g, v.Fields)
		g.decIndent()
		g.emitLine("}")
		g.blank()
	}
	e.genPlainCodec(g, t.Ident)
}

// genPlainCodec 不带 discriminator 的 borsh 编解码
func (e *emitter) genPlainCodec(g *generator, typ string) {
	g.use(importBorsh)

	g.emitLinef("func (v *%s) Serialize() ([]byte, error) {", typ)
	g.emitLine("\treturn borsh.Serialize(*v)")
	g.emitLine("}")
	g.blank()

	g.emitLinef("func Deserialize%s(data []byte) (*%s, error) {", typ, typ)
	g.incIndent()
	g.emitLinef("v := new(%s)", typ)
	g.emitLine("if err := borsh.Deserialize(v, data); err != nil {")
	g.emitLine("\treturn nil, err")
	g.emitLine("}")
	g.emitLine("return v, nil")
	g.decIndent()
	g.emitLine("}")
	g.blank()
}
