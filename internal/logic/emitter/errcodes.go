package emitter

// genErrors 程序自定义错误码：uint32 命名类型，实现 error 接口
func (e *emitter) genErrors(g *generator) {
	typ := e.errorType()
	g.use(importFmt)

	g.emitLinef("// %s is a custom error code returned by the program.", typ)
	g.emitLinef("type %s uint32", typ)
	g.blank()

	if len(e.m.Errors) > 0 {
		g.emitLine("const (")
		g.incIndent()
		for _, er := range e.m.Errors {
			g.emitLinef("%s %s = %d", errConst(er.Ident), typ, er.Code)
		}
		g.decIndent()
		g.emitLine(")")
		g.blank()
	}

	g.emitLinef("func (e %s) Name() string {", typ)
	g.incIndent()
	if len(e.m.Errors) > 0 {
		g.emitLine("switch e {")
		for _, er := range e.m.Errors {
			g.emitLinef("case %s:", errConst(er.Ident))
			g.emitLinef("\treturn %q", er.Name)
		}
		g.emitLine("}")
	}
	g.emitLine("return \"\"")
	g.decIndent()
	g.emitLine("}")
	g.blank()

	g.emitLinef("func (e %s) Error() string {", typ)
	g.incIndent()
	if len(e.m.Errors) > 0 {
		g.emitLine("switch e {")
		for _, er := range e.m.Errors {
			msg := er.Msg
			if msg == "" {
				msg = er.Name
			}
			g.emitLinef("case %s:", errConst(er.Ident))
			g.emitLinef("\treturn %q", msg)
		}
		g.emitLine("}")
	}
	g.emitLine("return fmt.Sprintf(\"%s: custom program error %d\", ProgramName, uint32(e))")
	g.decIndent()
	g.emitLine("}")
	g.blank()

	g.emitLinef("// %sFromCode reports whether code is a known error of the program.", typ)
	g.emitLinef("func %sFromCode(code uint32) (%s, bool) {", typ, typ)
	g.emitLinef("\te := %s(code)", typ)
	g.emitLine("\treturn e, e.Name() != \"\"")
	g.emitLine("}")
}
