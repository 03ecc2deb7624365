// Package discriminator 为指令、账户与事件分配链上 discriminator 并查重。
//
// anchor: sha256(namespace + name) 前 8 字节，指令名转 snake_case，账户/事件名转 PascalCase，
// 与 anchor 客户端库的约定逐字节一致。
// shank:  1 字节，取文档中显式给出的 discriminant，缺省为条目在同类中的位置（从 0 开始）。
package discriminator

import (
	"fmt"

	"solana-idlgen/internal/consts"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/naming"
	"solana-idlgen/internal/types"
)

// Category 是 discriminator 的查重范围
type Category string

const (
	CategoryInstruction Category = "instruction"
	CategoryAccount     Category = "account"
	CategoryEvent       Category = "event"
)

// DiscriminatorCollisionError 同一类别中两个条目得到了相同的 discriminator
type DiscriminatorCollisionError struct {
	Category Category
	Dialect  ir.Dialect
	First    string
	Second   string
	Tag      ir.Discriminator
}

func (e *DiscriminatorCollisionError) Error() string {
	return fmt.Sprintf("discriminator collision [%s]: %s %q and %s %q both use tag %s",
		e.Dialect, e.Category, e.First, e.Category, e.Second, e.Tag)
}

func hashed(namespace, name string) ir.Discriminator {
	prefix := types.Sha256(namespace, name).Prefix8()
	return ir.Discriminator{Kind: ir.DiscmFixedHash, Bytes: prefix[:]}
}

// ForInstruction anchor 指令 discriminator："global:" + snake_case(name)
func ForInstruction(name string) ir.Discriminator {
	return hashed(consts.NamespaceInstruction, naming.SnakeCase(name))
}

// ForAccount anchor 账户 discriminator："account:" + PascalCase(name)
func ForAccount(name string) ir.Discriminator {
	return hashed(consts.NamespaceAccount, naming.PascalCase(name))
}

// ForEvent anchor 事件 discriminator："event:" + PascalCase(name)
func ForEvent(name string) ir.Discriminator {
	return hashed(consts.NamespaceEvent, naming.PascalCase(name))
}

// Small shank 单字节 discriminator
func Small(v uint8) ir.Discriminator {
	return ir.Discriminator{Kind: ir.DiscmSmallInteger, Bytes: []byte{v}}
}

func small(explicit *uint8, position int) (ir.Discriminator, error) {
	if explicit != nil {
		return Small(*explicit), nil
	}
	if position < 0 || position > 0xff {
		return ir.Discriminator{}, fmt.Errorf("position %d does not fit a single-byte discriminant", position)
	}
	return Small(uint8(position)), nil
}

// Assign 就地为模型中所有条目分配 discriminator，随后按类别查重。
// 模型必须已完成解析；失败时模型处于部分标注状态，调用方应丢弃。
func Assign(m *ir.ProgramModel) error {
	if err := ir.RequireStage(m, ir.StageParsed, "discriminator"); err != nil {
		return err
	}

	switch m.Dialect {
	case ir.DialectAnchor:
		for i := range m.Instructions {
			m.Instructions[i].Discriminator = ForInstruction(m.Instructions[i].Name)
		}
		for i := range m.Accounts {
			m.Accounts[i].Discriminator = ForAccount(m.Accounts[i].Name)
		}
		for i := range m.Events {
			m.Events[i].Discriminator = ForEvent(m.Events[i].Name)
		}

	case ir.DialectShank:
		for i := range m.Instructions {
			ix := &m.Instructions[i]
			d, err := small(ix.Explicit, ix.Position)
			if err != nil {
				return fmt.Errorf("instruction %q: %w", ix.Name, err)
			}
			ix.Discriminator = d
		}
		for i := range m.Accounts {
			acc := &m.Accounts[i]
			d, err := small(acc.Explicit, acc.Position)
			if err != nil {
				return fmt.Errorf("account %q: %w", acc.Name, err)
			}
			acc.Discriminator = d
		}
		if len(m.Events) > 0 {
			return &ir.InvariantError{Stage: "discriminator", Reason: "shank model carries events"}
		}

	default:
		return &ir.InvariantError{Stage: "discriminator", Reason: "model has no dialect"}
	}

	return Check(m)
}

type tagged struct {
	name string
	tag  ir.Discriminator
}

// Check 按类别扫描重复的 discriminator，报告声明顺序上最先冲突的一对
func Check(m *ir.ProgramModel) error {
	ixs := make([]tagged, 0, len(m.Instructions))
	for _, ix := range m.Instructions {
		ixs = append(ixs, tagged{ix.Name, ix.Discriminator})
	}
	accs := make([]tagged, 0, len(m.Accounts))
	for _, acc := range m.Accounts {
		accs = append(accs, tagged{acc.Name, acc.Discriminator})
	}
	evs := make([]tagged, 0, len(m.Events))
	for _, ev := range m.Events {
		evs = append(evs, tagged{ev.Name, ev.Discriminator})
	}

	for _, group := range []struct {
		category Category
		entries  []tagged
	}{
		{CategoryInstruction, ixs},
		{CategoryAccount, accs},
		{CategoryEvent, evs},
	} {
		if err := checkUnique(m.Dialect, group.category, group.entries); err != nil {
			return err
		}
	}
	return nil
}

func checkUnique(d ir.Dialect, category Category, entries []tagged) error {
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.tag.IsZero() {
			return &ir.InvariantError{
				Stage:  "discriminator",
				Reason: fmt.Sprintf("%s %q has no discriminator", category, e.name),
			}
		}
		key := string(e.tag.Bytes)
		if first, dup := seen[key]; dup {
			return &DiscriminatorCollisionError{
				Category: category,
				Dialect:  d,
				First:    first,
				Second:   e.name,
				Tag:      e.tag,
			}
		}
		seen[key] = e.name
	}
	return nil
}
