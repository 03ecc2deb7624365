package dialect

import (
	"fmt"
	"strings"

	"solana-idlgen/internal/logic/ir"
)

type ErrorKind uint8

const (
	// Malformed 文档结构不符合方言约定
	Malformed ErrorKind = iota + 1
	// UnrecognizedDialect 无法识别文档方言，或指定了未知方言
	UnrecognizedDialect
	// BadType 字段类型无法解析，Err 为 *resolver.TypeResolutionError
	BadType
)

func (k ErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed idl"
	case UnrecognizedDialect:
		return "unrecognized dialect"
	case BadType:
		return "bad type"
	default:
		return "parse error"
	}
}

// ParseError 解析失败，Path 形如 instructions[2].args[0].type
type ParseError struct {
	Kind    ErrorKind
	Dialect ir.Dialect
	Entry   string // 出错的指令/账户/类型名，未知时为空
	Path    string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Dialect != ir.DialectUnknown {
		fmt.Fprintf(&b, " [%s]", e.Dialect)
	}
	if e.Entry != "" {
		fmt.Fprintf(&b, " in %q", e.Entry)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
