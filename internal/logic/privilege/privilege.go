// Package privilege 把指令声明的账户列表（可能引用具名账户组）展平为有序的 AccountUsage 序列。
//
// 展平顺序即链上 AccountMeta 顺序：深度优先、从左到右，组引用在原位置展开为连续的一段。
// signer / writable 标志原样复制，不做推断或默认。
package privilege

import (
	"fmt"
	"strings"

	"solana-idlgen/internal/logic/ir"
)

type ErrorKind uint8

const (
	// UnknownGroup 引用了不存在的账户组
	UnknownGroup ErrorKind = iota + 1
	// Cyclic 账户组直接或间接引用了自身
	Cyclic
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownGroup:
		return "unknown account group"
	case Cyclic:
		return "cyclic account group"
	default:
		return "flatten error"
	}
}

// FlattenError 展平指令账户列表失败
type FlattenError struct {
	Kind        ErrorKind
	Instruction string
	Group       string
	Chain       []string // Cyclic 时的组引用链
	Path        string
}

func (e *FlattenError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q in instruction %q", e.Kind, e.Group, e.Instruction)
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Chain, " -> "))
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	return b.String()
}

type flattener struct {
	ix         string
	groups     map[string]*ir.AccountGroup
	inProgress map[string]struct{}
	chain      []string
	out        []ir.AccountUsage
}

// Flatten 展平一条指令的账户列表
func Flatten(ix *ir.InstructionDef, groups map[string]*ir.AccountGroup) ([]ir.AccountUsage, error) {
	f := &flattener{
		ix:         ix.Name,
		groups:     groups,
		inProgress: make(map[string]struct{}),
		out:        make([]ir.AccountUsage, 0, len(ix.Items)),
	}
	if err := f.expand(ix.Items); err != nil {
		return nil, err
	}
	return f.out, nil
}

func (f *flattener) expand(items []ir.AccountItem) error {
	for _, it := range items {
		if !it.IsGroup() {
			f.out = append(f.out, *it.Leaf)
			continue
		}

		g, ok := f.groups[it.Group]
		if !ok {
			return &FlattenError{Kind: UnknownGroup, Instruction: f.ix, Group: it.Group, Path: it.Path}
		}
		if _, cyclic := f.inProgress[it.Group]; cyclic {
			return &FlattenError{
				Kind:        Cyclic,
				Instruction: f.ix,
				Group:       it.Group,
				Chain:       append(append([]string(nil), f.chain...), it.Group),
				Path:        it.Path,
			}
		}

		f.inProgress[it.Group] = struct{}{}
		f.chain = append(f.chain, it.Group)
		if err := f.expand(g.Items); err != nil {
			return err
		}
		f.chain = f.chain[:len(f.chain)-1]
		delete(f.inProgress, it.Group)
	}
	return nil
}

// Annotate 就地为模型中每条指令填充展平后的账户列表
func Annotate(m *ir.ProgramModel) error {
	if err := ir.RequireStage(m, ir.StageParsed, "privilege"); err != nil {
		return err
	}
	groups := m.GroupMap()
	for i := range m.Instructions {
		ix := &m.Instructions[i]
		accounts, err := Flatten(ix, groups)
		if err != nil {
			return err
		}
		ix.Accounts = accounts
	}
	return nil
}

// Counts 统计展平后账户列表中 signer / writable 的数量，用于日志
func Counts(accounts []ir.AccountUsage) (signers, writable int) {
	for _, a := range accounts {
		if a.IsSigner {
			signers++
		}
		if a.IsWritable {
			writable++
		}
	}
	return signers, writable
}
