// Package emitter 把标注完成的 ProgramModel 生成为一个 Go 包的源码。
//
// 生成的包依赖 blocto/solana-go-sdk（公钥、Instruction、AccountMeta）与 near/borsh-go（载荷编解码），
// 每个关注点一个文件。Emit 是模型的纯函数：只遍历切片，import 排序，输出经 go/format 格式化，
// 同一模型多次生成结果逐字节相同。
package emitter

import (
	"fmt"
	"go/format"
	"sort"

	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/naming"
)

// Module 是生成包中的逻辑模块，对应一个源文件
type Module string

const (
	ModuleInstructions Module = "instructions"
	ModuleAccounts     Module = "accounts"
	ModuleTypes        Module = "types"
	ModuleErrors       Module = "errors"
	ModuleProgram      Module = "program"
	ModuleEvents       Module = "events"
)

// FileName 模块对应的文件名
func (m Module) FileName() string {
	return string(m) + ".go"
}

type Options struct {
	// Package 生成包名，为空时由程序名推导
	Package string
}

type emitter struct {
	m    *ir.ProgramModel
	pkg  string
	prog string // 程序名的导出形式，用作分发接口与错误类型的前缀

	// defined 按 IDL 原始名索引可被引用的类型（types 与 accounts）
	defined map[string]string
}

// Emit 生成全部模块。模型必须已完成标注。
func Emit(m *ir.ProgramModel, opts Options) (map[Module]string, error) {
	if err := ir.RequireStage(m, ir.StageAnnotated, "emitter"); err != nil {
		return nil, err
	}

	e := &emitter{
		m:       m,
		pkg:     opts.Package,
		prog:    naming.Exported(m.Name),
		defined: make(map[string]string, len(m.Types)+len(m.Accounts)),
	}
	if e.pkg == "" {
		e.pkg = naming.PackageName(m.Name)
	}
	if e.prog == "" {
		e.prog = "Program"
	}
	for _, t := range m.Types {
		e.defined[t.Name] = t.Ident
	}
	for _, a := range m.Accounts {
		e.defined[a.Name] = a.Ident
	}

	if err := e.checkNames(); err != nil {
		return nil, err
	}

	gens := []struct {
		module Module
		gen    func(*generator)
	}{
		{ModuleProgram, e.genProgram},
		{ModuleInstructions, e.genInstructions},
		{ModuleAccounts, e.genAccounts},
		{ModuleTypes, e.genTypes},
		{ModuleErrors, e.genErrors},
	}
	if len(m.Events) > 0 {
		gens = append(gens, struct {
			module Module
			gen    func(*generator)
		}{ModuleEvents, e.genEvents})
	}

	out := make(map[Module]string, len(gens))
	for _, item := range gens {
		g := newGenerator()
		item.gen(g)
		src := g.file(e.pkg)
		formatted, err := format.Source([]byte(src))
		if err != nil {
			return nil, &ir.InvariantError{
				Stage:  "emitter",
				Reason: fmt.Sprintf("generated %s does not format: %v", item.module.FileName(), err),
			}
		}
		out[item.module] = string(formatted)
	}
	return out, nil
}

// SortedModules 返回按名字排序的模块列表，写文件与日志按此顺序
func SortedModules(out map[Module]string) []Module {
	mods := make([]Module, 0, len(out))
	for mod := range out {
		mods = append(mods, mod)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i] < mods[j] })
	return mods
}

// 生成代码中各类标识符的拼接规则集中在这里，checkNames 与各模块生成共用

func ixNames(ident string) []string {
	return []string{
		ident + "Accounts",
		ident + "Keys",
		ident + "KeysFromArray",
		ident + "AccountsFromArray",
		ident + "IxArgs",
		ident + "IxDiscm",
		"Deserialize" + ident + "IxArgs",
		ident + "Ix",
		ident + "IxWithProgramID",
		ident + "IxAccountsLen",
		ident + "VerifyAccountKeys",
		ident + "VerifyWritablePrivileges",
		ident + "VerifySignerPrivileges",
		ident + "VerifyAccountPrivileges",
	}
}

func variantType(enum, variant string) string { return enum + variant }

func variantTag(enum, variant string) string { return enum + "Tag" + variant }

func errConst(ident string) string { return "Err" + ident }

func (e *emitter) instructionIface() string { return e.prog + "Instruction" }

func (e *emitter) errorType() string { return e.prog + "Error" }

// checkNames 在生成前把所有包级标识符登记一遍，任何冲突都直接失败
func (e *emitter) checkNames() error {
	pkg := newRegistry("package " + e.pkg)

	if err := pkg.claimAll("program", "ProgramName", "ProgramID", "AccountInfo",
		"ErrDiscmMismatch", "ErrUnknownDiscm", "ErrTrailingBytes", "ErrKeyMismatch", "ErrNotWritable", "ErrNotSigner",
		e.instructionIface(), "Decode"+e.instructionIface(),
		e.errorType(), e.errorType()+"FromCode",
	); err != nil {
		return err
	}

	for _, c := range e.m.Constants {
		if err := pkg.claim(c.Ident, fmt.Sprintf("constant %q", c.Name)); err != nil {
			return err
		}
	}

	for _, t := range e.m.Types {
		owner := fmt.Sprintf("type %q", t.Name)
		if err := pkg.claimAll(owner, t.Ident, "Deserialize"+t.Ident); err != nil {
			return err
		}
		if err := e.checkTypeDef(pkg, &t, owner); err != nil {
			return err
		}
	}

	for _, a := range e.m.Accounts {
		owner := fmt.Sprintf("account %q", a.Name)
		if err := pkg.claimAll(owner, a.Ident, a.Ident+"AccountDiscm", "Deserialize"+a.Ident); err != nil {
			return err
		}
		if err := checkFields(a.Ident, a.Fields, "Serialize"); err != nil {
			return err
		}
	}

	for _, ev := range e.m.Events {
		owner := fmt.Sprintf("event %q", ev.Name)
		if err := pkg.claimAll(owner, ev.Ident, ev.Ident+"EventDiscm", "Deserialize"+ev.Ident); err != nil {
			return err
		}
		if err := checkFields(ev.Ident, ev.Fields, "Serialize"); err != nil {
			return err
		}
	}

	for _, ix := range e.m.Instructions {
		owner := fmt.Sprintf("instruction %q", ix.Name)
		if err := pkg.claimAll(owner, ixNames(ix.Ident)...); err != nil {
			return err
		}
		if err := checkFields(ix.Ident+"IxArgs", ix.Args, "Serialize"); err != nil {
			return err
		}

		// 账户句柄与 key 结构体共用字段名，方法名不能再作字段
		accounts := newRegistry("struct " + ix.Ident + "Accounts")
		if err := accounts.claimAll("method", "Keys", "Array", "AccountMetas"); err != nil {
			return err
		}
		for _, acc := range ix.Accounts {
			if err := accounts.claim(acc.Ident, fmt.Sprintf("account %q", acc.Name)); err != nil {
				return err
			}
		}
	}

	for _, er := range e.m.Errors {
		if err := pkg.claim(errConst(er.Ident), fmt.Sprintf("error %q", er.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) checkTypeDef(pkg *registry, t *ir.TypeDef, owner string) error {
	if t.Kind == ir.TypeStruct {
		return checkFields(t.Ident, t.Fields, "Serialize")
	}

	data := t.HasDataVariants()
	variants := newRegistry("enum " + t.Ident)
	if data {
		if err := variants.claimAll("enum", "Enum", "Serialize"); err != nil {
			return err
		}
	}
	for _, v := range t.Variants {
		vOwner := fmt.Sprintf("variant %q", v.Name)
		if err := variants.claim(v.Ident, vOwner); err != nil {
			return err
		}
		if data {
			if err := pkg.claimAll(owner+" "+vOwner, variantType(t.Ident, v.Ident), variantTag(t.Ident, v.Ident)); err != nil {
				return err
			}
			if err := checkFields(variantType(t.Ident, v.Ident), v.Fields); err != nil {
				return err
			}
		} else if err := pkg.claim(variantType(t.Ident, v.Ident), owner+" "+vOwner); err != nil {
			return err
		}
	}
	return nil
}

// checkFields 校验结构体字段归一化后不重名，也不与该结构体的方法重名
func checkFields(structName string, fields []ir.Field, methods ...string) error {
	r := newRegistry("struct " + structName)
	if err := r.claimAll("method", methods...); err != nil {
		return err
	}
	for _, f := range fields {
		if err := r.claim(f.Ident, fmt.Sprintf("field %q", f.Name)); err != nil {
			return err
		}
	}
	return nil
}
