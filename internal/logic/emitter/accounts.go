package emitter

import (
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/utils"
)

// genAccounts 持久化账户布局：discriminator 前缀 + borsh 结构体
func (e *emitter) genAccounts(g *generator) {
	for _, a := range e.m.Accounts {
		e.genPrefixedStruct(g, a.Ident, a.Ident+"AccountDiscm", a.Docs, a.Fields, a.Discriminator, false)
	}
}

// genEvents anchor 事件，编码方式与账户相同，只是命名空间不同
func (e *emitter) genEvents(g *generator) {
	for _, ev := range e.m.Events {
		e.genPrefixedStruct(g, ev.Ident, ev.Ident+"EventDiscm", ev.Docs, ev.Fields, ev.Discriminator, true)
	}
}

func (e *emitter) genPrefixedStruct(g *generator, ident, discm string, docs []string, fields []ir.Field, d ir.Discriminator, strict bool) {
	g.emitLinef("var %s = %s", discm, utils.ByteArrayLiteral(d.Bytes))
	g.blank()

	g.docs(docs)
	g.emitLinef("type %s struct {", ident)
	g.incIndent()
	e.fields(g, fields)
	g.decIndent()
	g.emitLine("}")
	g.blank()

	e.genPrefixedCodec(g, ident, "Deserialize"+ident, discm, strict)
}
