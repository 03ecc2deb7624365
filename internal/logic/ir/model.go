package ir

import (
	"bytes"
	"encoding/hex"

	"solana-idlgen/internal/consts"
	"solana-idlgen/internal/types"
)

// Dialect 表示 IDL 文档的方言
type Dialect int

const (
	DialectUnknown Dialect = 0
	DialectAnchor  Dialect = consts.DialectAnchor // hash discriminator
	DialectShank   Dialect = consts.DialectShank  // small-integer discriminator
)

func (d Dialect) String() string {
	return consts.DialectName(int(d))
}

// ParseDialect 解析配置中的方言名，空串返回 DialectUnknown, true（交由自动识别）
func ParseDialect(s string) (Dialect, bool) {
	switch s {
	case "":
		return DialectUnknown, true
	case "anchor":
		return DialectAnchor, true
	case "shank":
		return DialectShank, true
	default:
		return DialectUnknown, false
	}
}

// Stage 标记模型在流水线中的阶段，后续阶段依赖前面阶段建立的不变量
type Stage int

const (
	StageNew       Stage = iota
	StageParsed          // 解析完成且所有 DefinedRef 已校验
	StageAnnotated       // discriminator 已分配并查重、账户列表已展平
)

type DiscriminatorKind uint8

const (
	DiscmNone DiscriminatorKind = iota
	DiscmFixedHash
	DiscmSmallInteger
)

// Discriminator 是序列化数据前缀的标签字节
type Discriminator struct {
	Kind  DiscriminatorKind
	Bytes []byte
}

func (d Discriminator) IsZero() bool {
	return d.Kind == DiscmNone || len(d.Bytes) == 0
}

func (d Discriminator) Equal(other Discriminator) bool {
	return d.Kind == other.Kind && bytes.Equal(d.Bytes, other.Bytes)
}

func (d Discriminator) String() string {
	return hex.EncodeToString(d.Bytes)
}

// Field 是 struct / 参数 / 账户布局中的一个字段
type Field struct {
	Name  string // IDL 原始名
	Ident string // 归一化后的 Go 标识符
	Type  ResolvedType
	Docs  []string
}

// AccountUsage 是展平后指令账户列表中的一项，顺序即链上 AccountMeta 顺序
type AccountUsage struct {
	Name       string
	Ident      string
	IsSigner   bool
	IsWritable bool
	IsOptional bool     // 仅作文档透传
	Docs       []string
	PDA        string // PDA seeds 的原文描述，不做求值
}

// AccountItem 是指令声明中的一项：叶子账户或账户组引用，二者只能有一个
type AccountItem struct {
	Leaf  *AccountUsage
	Group string // 引用的账户组名
	Path  string // 在源文档中的位置，用于报错
}

func (it AccountItem) IsGroup() bool {
	return it.Leaf == nil
}

// AccountGroup 是可复用的具名账户组，可以再引用其他组
type AccountGroup struct {
	Name  string
	Items []AccountItem
}

type InstructionDef struct {
	Name  string
	Ident string
	Docs  []string
	Items []AccountItem // 声明顺序，可能包含组引用
	Args  []Field

	// Explicit 是源文档中显式给出的 discriminant（仅 shank）
	Explicit      *uint8
	Position      int
	Discriminator Discriminator
	Accounts      []AccountUsage // 由 privilege.Annotate 填充
}

type AccountDef struct {
	Name          string
	Ident         string
	Docs          []string
	Fields        []Field
	Explicit      *uint8
	Position      int
	Discriminator Discriminator
}

type EventDef struct {
	Name          string
	Ident         string
	Docs          []string
	Fields        []Field
	Discriminator Discriminator
}

type TypeDefKind uint8

const (
	TypeStruct TypeDefKind = iota + 1
	TypeEnum
)

type VariantKind uint8

const (
	VariantUnit VariantKind = iota + 1
	VariantNamed
	VariantTuple
)

// Variant 是枚举的一个分支；VariantTuple 的字段以位置命名（Field0, Field1...）
type Variant struct {
	Name   string
	Ident  string
	Kind   VariantKind
	Fields []Field
}

type TypeDef struct {
	Name     string
	Ident    string
	Docs     []string
	Kind     TypeDefKind
	Fields   []Field   // TypeStruct
	Variants []Variant // TypeEnum
}

// HasDataVariants 判断枚举是否存在携带数据的分支
func (t *TypeDef) HasDataVariants() bool {
	for _, v := range t.Variants {
		if v.Kind != VariantUnit {
			return true
		}
	}
	return false
}

type ConstantDef struct {
	Name  string
	Ident string
	Type  ResolvedType
	Value string // IDL 中的原始值文本
}

type ErrorDef struct {
	Code  uint32
	Name  string
	Ident string
	Msg   string
}

// ProgramModel 是一份 IDL 的统一中间表示。
// 解析后只允许 discriminator 引擎和 privilege 分析器就地标注，之后只读。
type ProgramModel struct {
	Name      string
	Version   string
	Dialect   Dialect
	Address   string       // program id 的 base58 文本
	ProgramID types.Pubkey // 解码后的 32 字节
	Docs      []string

	Instructions []InstructionDef
	Accounts     []AccountDef
	Types        []TypeDef
	Constants    []ConstantDef
	Errors       []ErrorDef
	Events       []EventDef
	Groups       []AccountGroup

	Stage Stage
}

// GroupMap 返回按组名索引的账户组
func (m *ProgramModel) GroupMap() map[string]*AccountGroup {
	out := make(map[string]*AccountGroup, len(m.Groups))
	for i := range m.Groups {
		out[m.Groups[i].Name] = &m.Groups[i]
	}
	return out
}

// TypeByName 按 IDL 原始名查找类型定义
func (m *ProgramModel) TypeByName(name string) (*TypeDef, bool) {
	for i := range m.Types {
		if m.Types[i].Name == name {
			return &m.Types[i], true
		}
	}
	return nil, false
}

func (m *ProgramModel) InstructionByName(name string) (*InstructionDef, bool) {
	for i := range m.Instructions {
		if m.Instructions[i].Name == name {
			return &m.Instructions[i], true
		}
	}
	return nil, false
}

func (m *ProgramModel) AccountByName(name string) (*AccountDef, bool) {
	for i := range m.Accounts {
		if m.Accounts[i].Name == name {
			return &m.Accounts[i], true
		}
	}
	return nil, false
}
