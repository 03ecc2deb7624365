package resolver

import (
	"fmt"
	"strings"
)

type ErrorKind uint8

const (
	// UnknownType 引用了不存在的类型名，或使用了未知的原语名
	UnknownType ErrorKind = iota + 1
	// Cyclic 类型在解析完成前被按值再次进入
	Cyclic
	// Malformed 类型节点结构非法或使用了不支持的构造
	Malformed
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownType:
		return "unknown type"
	case Cyclic:
		return "cyclic type"
	case Malformed:
		return "malformed type"
	default:
		return "type error"
	}
}

// TypeResolutionError 类型解析失败
type TypeResolutionError struct {
	Kind   ErrorKind
	Name   string   // 相关的类型名
	Path   string   // 类型节点在文档中的位置（由解析器补充）
	Chain  []string // Cyclic 时的引用链
	Reason string
}

func (e *TypeResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Chain, " -> "))
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func errUnknown(name, path string) error {
	return &TypeResolutionError{Kind: UnknownType, Name: name, Path: path}
}

func errMalformed(path, format string, args ...any) error {
	return &TypeResolutionError{Kind: Malformed, Path: path, Reason: fmt.Sprintf(format, args...)}
}
