package emitter

import (
	"math"
	"strconv"
	"strings"

	"solana-idlgen/internal/consts"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/types"
	"solana-idlgen/internal/utils"
)

// genProgram 程序级内容：程序地址、账户句柄、哨兵错误、常量与指令分发
func (e *emitter) genProgram(g *generator) {
	m := e.m
	g.use(importCommon)
	g.use(importErrors)

	g.docs(m.Docs)
	g.emitLinef("const ProgramName = %q", m.Name)
	g.blank()
	g.emitLine("// ProgramID is the address the program is deployed at.")
	g.emitLinef("var ProgramID = common.PublicKeyFromString(%q)", m.ProgramID.String())
	g.blank()

	g.emitLine("var (")
	g.incIndent()
	for _, s := range []struct{ name, msg string }{
		{"ErrDiscmMismatch", "discriminator mismatch"},
		{"ErrUnknownDiscm", "unknown discriminator"},
		{"ErrTrailingBytes", "trailing bytes after payload"},
		{"ErrKeyMismatch", "account key mismatch"},
		{"ErrNotWritable", "account is not writable"},
		{"ErrNotSigner", "account is not a signer"},
	} {
		g.emitLinef("%s = errors.New(%q)", s.name, m.Name+": "+s.msg)
	}
	g.decIndent()
	g.emitLine(")")
	g.blank()

	g.emitLine("// AccountInfo is an account handle passed alongside an instruction.")
	g.emitLine("type AccountInfo struct {")
	g.incIndent()
	g.emitLine("Key        common.PublicKey")
	g.emitLine("IsSigner   bool")
	g.emitLine("IsWritable bool")
	g.emitLine("Data       []byte")
	g.decIndent()
	g.emitLine("}")
	g.blank()

	for _, c := range m.Constants {
		e.genConstant(g, c)
	}

	e.genDispatch(g)
}

func (e *emitter) genDispatch(g *generator) {
	iface := e.instructionIface()
	marker := "is" + iface

	g.emitLinef("// %s is implemented by the argument payload of every instruction of the program.", iface)
	g.emitLinef("type %s interface {", iface)
	g.incIndent()
	g.emitLine("Serialize() ([]byte, error)")
	g.emitLinef("%s()", marker)
	g.decIndent()
	g.emitLine("}")
	g.blank()

	for _, ix := range e.m.Instructions {
		g.emitLinef("func (*%sIxArgs) %s() {}", ix.Ident, marker)
	}
	if len(e.m.Instructions) > 0 {
		g.blank()
	}

	discmLen := consts.HashDiscmLen
	if e.m.Dialect == ir.DialectShank {
		discmLen = consts.SmallDiscmLen
	}

	g.emitLinef("// Decode%s decodes instruction data by its leading discriminator.", iface)
	g.emitLinef("func Decode%s(data []byte) (%s, error) {", iface, iface)
	g.incIndent()
	g.emitLinef("if len(data) < %d {", discmLen)
	g.emitLine("\treturn nil, ErrUnknownDiscm")
	g.emitLine("}")
	if len(e.m.Instructions) == 0 {
		g.emitLine("return nil, ErrUnknownDiscm")
		g.decIndent()
		g.emitLine("}")
		return
	}

	if discmLen == consts.HashDiscmLen {
		g.use(importBinary)
		g.emitLine("switch binary.BigEndian.Uint64(data[:8]) {")
	} else {
		g.emitLine("switch data[0] {")
	}
	for _, ix := range e.m.Instructions {
		g.emitLinef("case %s:", utils.HexUint(ix.Discriminator.Bytes))
		g.incIndent()
		g.emitLinef("ix, err := Deserialize%sIxArgs(data)", ix.Ident)
		g.emitLine("if err != nil {")
		g.emitLine("\treturn nil, err")
		g.emitLine("}")
		g.emitLine("return ix, nil")
		g.decIndent()
	}
	g.emitLine("default:")
	g.emitLine("\treturn nil, ErrUnknownDiscm")
	g.emitLine("}")
	g.decIndent()
	g.emitLine("}")
}

// genConstant 按声明类型解释 IDL 中的常量原文，无法解释时保留原文字符串
func (e *emitter) genConstant(g *generator, c ir.ConstantDef) {
	if decl, ok := e.constDecl(g, c); ok {
		g.emitLine(decl)
		g.blank()
		return
	}
	g.emitLinef("// %s is the raw idl value of a %s constant.", c.Ident, c.Type)
	g.emitLinef("const %s = %q", c.Ident, c.Value)
	g.blank()
}

func (e *emitter) constDecl(g *generator, c ir.ConstantDef) (string, bool) {
	raw := strings.TrimSpace(c.Value)
	t := c.Type

	switch {
	case t.Kind == ir.KindPrimitive && t.Prim == ir.PrimBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return "const " + c.Ident + " = " + strconv.FormatBool(b), true
		}

	case t.Kind == ir.KindPrimitive && t.Width < 128 && (t.Prim == ir.PrimUint || t.Prim == ir.PrimInt):
		lit := strings.TrimSuffix(strings.ReplaceAll(raw, "_", ""), t.String())
		var err error
		if t.Prim == ir.PrimUint {
			_, err = strconv.ParseUint(lit, 0, t.Width)
		} else {
			_, err = strconv.ParseInt(lit, 0, t.Width)
		}
		if err == nil {
			return "const " + c.Ident + " " + primitiveType(t) + " = " + lit, true
		}

	case t.Kind == ir.KindPrimitive && t.Prim == ir.PrimFloat:
		lit := strings.TrimSuffix(strings.ReplaceAll(raw, "_", ""), t.String())
		if f, err := strconv.ParseFloat(lit, t.Width); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return "const " + c.Ident + " " + primitiveType(t) + " = " + lit, true
		}

	case t.Kind == ir.KindString:
		s, err := strconv.Unquote(raw)
		if err != nil {
			s = raw
		}
		return "const " + c.Ident + " = " + strconv.Quote(s), true

	case t.Kind == ir.KindPublicKey:
		addr := strings.Trim(raw, `"`)
		if _, err := types.TryPubkeyFromBase58(addr); err == nil {
			g.use(importCommon)
			return "var " + c.Ident + " = common.PublicKeyFromString(" + strconv.Quote(addr) + ")", true
		}

	case t.IsBytes() || (t.Kind == ir.KindFixedArray && t.Elem.Kind == ir.KindPrimitive &&
		t.Elem.Prim == ir.PrimUint && t.Elem.Width == 8):
		b, ok := parseByteList(raw)
		if !ok {
			return "", false
		}
		if t.Kind == ir.KindFixedArray {
			if len(b) != t.Len {
				return "", false
			}
			return "var " + c.Ident + " = " + byteLiteral("["+strconv.Itoa(t.Len)+"]byte", b), true
		}
		return "var " + c.Ident + " = " + byteLiteral("[]byte", b), true
	}
	return "", false
}

// parseByteList 解析 "[1, 2, 3]" 形式的字节列表
func parseByteList(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, false
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []byte{}, true
	}
	parts := strings.Split(inner, ",")
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 0, 8)
		if err != nil {
			return nil, false
		}
		out = append(out, byte(n))
	}
	return out, true
}

func byteLiteral(typ string, b []byte) string {
	var sb strings.Builder
	sb.WriteString(typ)
	sb.WriteString("{")
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteString("}")
	return sb.String()
}
