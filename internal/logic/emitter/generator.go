package emitter

import (
	"fmt"
	"sort"
	"strings"
)

const (
	importBinary = "encoding/binary"
	importBytes  = "bytes"
	importErrors = "errors"
	importFmt    = "fmt"
	importCommon = "github.com/blocto/solana-go-sdk/common"
	importTypes  = "github.com/blocto/solana-go-sdk/types"
	importBorsh  = "github.com/near/borsh-go"
)

const generatedHeader = "// Code generated by idlgen. DO NOT EDIT."

// generator 逐行拼接一个生成文件的正文，并记录正文用到的 import
type generator struct {
	sb      strings.Builder
	indent  int
	imports map[string]struct{}
}

func newGenerator() *generator {
	return &generator{imports: make(map[string]struct{})}
}

func (g *generator) use(path string) {
	g.imports[path] = struct{}{}
}

func (g *generator) emitLine(s string) {
	if s == "" {
		g.sb.WriteString("\n")
		return
	}
	g.sb.WriteString(strings.Repeat("\t", g.indent))
	g.sb.WriteString(s)
	g.sb.WriteString("\n")
}

func (g *generator) emitLinef(format string, args ...any) {
	g.emitLine(fmt.Sprintf(format, args...))
}

func (g *generator) blank() { g.sb.WriteString("\n") }

func (g *generator) incIndent() { g.indent++ }
func (g *generator) decIndent() { g.indent-- }

// docs 输出注释行；IDL 文档可能包含多行
func (g *generator) docs(lines []string) {
	for _, l := range lines {
		for _, part := range strings.Split(l, "\n") {
			part = strings.TrimRight(part, " \t\r")
			if part == "" {
				g.emitLine("//")
				continue
			}
			g.emitLine("// " + part)
		}
	}
}

// file 组装完整文件：头注释、package 子句、分组排序的 import 与正文
func (g *generator) file(pkg string) string {
	var std, third []string
	for path := range g.imports {
		if strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
			third = append(third, path)
		} else {
			std = append(std, path)
		}
	}
	sort.Strings(std)
	sort.Strings(third)

	var out strings.Builder
	out.WriteString(generatedHeader)
	out.WriteString("\n\npackage ")
	out.WriteString(pkg)
	out.WriteString("\n")

	if len(std)+len(third) > 0 {
		out.WriteString("\nimport (\n")
		for _, p := range std {
			fmt.Fprintf(&out, "\t%q\n", p)
		}
		if len(std) > 0 && len(third) > 0 {
			out.WriteString("\n")
		}
		for _, p := range third {
			fmt.Fprintf(&out, "\t%q\n", p)
		}
		out.WriteString(")\n")
	}

	if body := g.sb.String(); body != "" {
		out.WriteString("\n")
		out.WriteString(body)
	}
	return out.String()
}
