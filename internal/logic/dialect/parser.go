// Package dialect 把两种方言的 IDL 文档树解析为统一的 ir.ProgramModel。
//
// 输入是加载器反序列化出的对象树（map[string]any / []any / 标量），解析过程是纯函数。
// 类型解析分两遍：先按文档顺序解析所有节点，再在全部类型名已知后校验引用与环。
package dialect

import (
	"errors"
	"strconv"

	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/naming"
	"solana-idlgen/internal/logic/resolver"
	"solana-idlgen/internal/types"
	"solana-idlgen/internal/utils"
)

// Options 解析选项
type Options struct {
	// ProgramID 覆盖文档 metadata.address 中的程序地址（base58）
	ProgramID string
}

type parser struct {
	dialect ir.Dialect
	opts    Options
	model   *ir.ProgramModel
	entry   string // 当前正在解析的条目名，用于报错

	groupNames map[string]struct{}
}

// Parse 解析一份 IDL 文档。d 为 DialectUnknown 时按 Detect 自动识别。
func Parse(tree any, d ir.Dialect, opts Options) (*ir.ProgramModel, error) {
	if d == ir.DialectUnknown {
		detected, err := Detect(tree)
		if err != nil {
			return nil, err
		}
		d = detected
	}
	if d != ir.DialectAnchor && d != ir.DialectShank {
		return nil, &ParseError{Kind: UnrecognizedDialect, Reason: "unknown dialect tag " + strconv.Itoa(int(d))}
	}

	p := &parser{
		dialect:    d,
		opts:       opts,
		model:      &ir.ProgramModel{Dialect: d},
		groupNames: make(map[string]struct{}),
	}
	root, err := p.object(tree, "$")
	if err != nil {
		return nil, err
	}
	if err := p.parse(root); err != nil {
		return nil, err
	}
	p.model.Stage = ir.StageParsed
	return p.model, nil
}

func (p *parser) parse(root map[string]any) error {
	var err error
	m := p.model

	// 1. 程序元信息
	if m.Name, err = p.str(root, "name", ""); err != nil {
		return err
	}
	if m.Version, err = p.optStr(root, "version", ""); err != nil {
		return err
	}
	if m.Docs, err = p.docs(root, ""); err != nil {
		return err
	}

	// 2. 顺序有意义：类型与账户布局先于指令，账户组先于引用它们的指令
	steps := []func(map[string]any) error{
		p.parseProgramID,
		p.parseTypes,
		p.parseAccounts,
		p.parseGroups,
		p.parseInstructions,
		p.parseEvents,
		p.parseConstants,
		p.parseErrors,
	}
	for _, step := range steps {
		p.entry = ""
		if err = step(root); err != nil {
			return err
		}
	}

	// 3. 第二遍：所有类型名已知，校验 DefinedRef 与按值环
	p.entry = ""
	return p.resolveRefs()
}

func (p *parser) parseProgramID(root map[string]any) error {
	addr := p.opts.ProgramID
	path := "metadata.address"
	if addr == "" {
		if meta, ok := utils.AsMap(root["metadata"]); ok {
			addr, _ = utils.AsString(meta["address"])
		}
	} else {
		path = "program_id"
	}
	if addr == "" {
		return p.malformed(path, "program address is required")
	}
	pk, err := types.TryPubkeyFromBase58(addr)
	if err != nil {
		return p.malformed(path, "invalid program address %q: %v", addr, err)
	}
	p.model.Address = addr
	p.model.ProgramID = pk
	return nil
}

func (p *parser) parseTypes(root map[string]any) error {
	raw, err := p.list(root, "types", "", false)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(raw))
	for i, v := range raw {
		path := idx("types", i)
		def, err := p.typeDef(v, path)
		if err != nil {
			return err
		}
		if _, dup := seen[def.Name]; dup {
			return p.malformed(at(path, "name"), "duplicate type %q", def.Name)
		}
		seen[def.Name] = struct{}{}
		p.model.Types = append(p.model.Types, def)
	}
	return nil
}

// typeDef 解析 {name, docs, type: {kind: struct|enum, fields|variants}}
func (p *parser) typeDef(v any, path string) (ir.TypeDef, error) {
	m, err := p.object(v, path)
	if err != nil {
		return ir.TypeDef{}, err
	}
	name, err := p.str(m, "name", path)
	if err != nil {
		return ir.TypeDef{}, err
	}
	p.entry = name
	id, err := p.ident(name, path)
	if err != nil {
		return ir.TypeDef{}, err
	}
	docs, err := p.docs(m, path)
	if err != nil {
		return ir.TypeDef{}, err
	}

	body, err := p.object(m["type"], at(path, "type"))
	if err != nil {
		return ir.TypeDef{}, err
	}
	kind, err := p.str(body, "kind", at(path, "type"))
	if err != nil {
		return ir.TypeDef{}, err
	}

	def := ir.TypeDef{Name: name, Ident: id, Docs: docs}
	switch kind {
	case "struct":
		raw, err := p.list(body, "fields", at(path, "type"), false)
		if err != nil {
			return ir.TypeDef{}, err
		}
		def.Kind = ir.TypeStruct
		if def.Fields, err = p.fields(raw, at(path, "type.fields")); err != nil {
			return ir.TypeDef{}, err
		}
	case "enum":
		raw, err := p.list(body, "variants", at(path, "type"), true)
		if err != nil {
			return ir.TypeDef{}, err
		}
		def.Kind = ir.TypeEnum
		if def.Variants, err = p.variants(raw, at(path, "type.variants")); err != nil {
			return ir.TypeDef{}, err
		}
	default:
		return ir.TypeDef{}, p.malformed(at(path, "type.kind"), "unsupported type kind %q", kind)
	}
	return def, nil
}

// variants 解析枚举分支：无 fields 为 unit；fields 为 [{name,type}] 为具名分支；
// fields 为类型节点数组为位置分支
func (p *parser) variants(raw []any, path string) ([]ir.Variant, error) {
	if len(raw) == 0 {
		return nil, p.malformed(path, "enum has no variants")
	}
	if len(raw) > 256 {
		return nil, p.malformed(path, "enum has %d variants, borsh tag is a single byte", len(raw))
	}
	out := make([]ir.Variant, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, v := range raw {
		vp := idx(path, i)
		m, err := p.object(v, vp)
		if err != nil {
			return nil, err
		}
		name, err := p.str(m, "name", vp)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, p.malformed(at(vp, "name"), "duplicate variant %q", name)
		}
		seen[name] = struct{}{}
		id, err := p.ident(name, vp)
		if err != nil {
			return nil, err
		}

		variant := ir.Variant{Name: name, Ident: id, Kind: ir.VariantUnit}
		fieldList, err := p.list(m, "fields", vp, false)
		if err != nil {
			return nil, err
		}
		if len(fieldList) > 0 {
			if isNamedField(fieldList[0]) {
				variant.Kind = ir.VariantNamed
				variant.Fields, err = p.fields(fieldList, at(vp, "fields"))
			} else {
				variant.Kind = ir.VariantTuple
				variant.Fields, err = p.tupleFields(fieldList, at(vp, "fields"))
			}
			if err != nil {
				return nil, err
			}
		}
		out = append(out, variant)
	}
	return out, nil
}

func isNamedField(v any) bool {
	m, ok := utils.AsMap(v)
	if !ok {
		return false
	}
	_, hasName := m["name"]
	_, hasType := m["type"]
	return hasName && hasType
}

func (p *parser) tupleFields(raw []any, path string) ([]ir.Field, error) {
	out := make([]ir.Field, 0, len(raw))
	for i, node := range raw {
		fp := idx(path, i)
		if isNamedField(node) {
			return nil, p.malformed(fp, "mixed named and positional fields")
		}
		t, err := p.typ(node, fp)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.Field{
			Name:  strconv.Itoa(i),
			Ident: "Field" + strconv.Itoa(i),
			Type:  t,
		})
	}
	return out, nil
}

func (p *parser) parseAccounts(root map[string]any) error {
	raw, err := p.list(root, "accounts", "", false)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(raw))
	for i, v := range raw {
		path := idx("accounts", i)
		def, err := p.typeDef(v, path)
		if err != nil {
			return err
		}
		if def.Kind != ir.TypeStruct {
			return p.malformed(at(path, "type.kind"), "account layout must be a struct")
		}
		if _, dup := seen[def.Name]; dup {
			return p.malformed(at(path, "name"), "duplicate account %q", def.Name)
		}
		if _, dup := p.model.TypeByName(def.Name); dup {
			return p.malformed(at(path, "name"), "account %q is also declared as a type", def.Name)
		}
		seen[def.Name] = struct{}{}

		acc := ir.AccountDef{
			Name:     def.Name,
			Ident:    def.Ident,
			Docs:     def.Docs,
			Fields:   def.Fields,
			Position: i,
		}
		if p.dialect == ir.DialectShank {
			m, _ := utils.AsMap(v)
			if acc.Explicit, err = p.shankDiscriminant(m, path); err != nil {
				return err
			}
		}
		p.model.Accounts = append(p.model.Accounts, acc)
	}
	return nil
}

func (p *parser) parseInstructions(root map[string]any) error {
	raw, err := p.list(root, "instructions", "", true)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(raw))
	for i, v := range raw {
		path := idx("instructions", i)
		m, err := p.object(v, path)
		if err != nil {
			return err
		}
		name, err := p.str(m, "name", path)
		if err != nil {
			return err
		}
		p.entry = name
		if _, dup := seen[name]; dup {
			return p.malformed(at(path, "name"), "duplicate instruction %q", name)
		}
		seen[name] = struct{}{}

		ix := ir.InstructionDef{Name: name, Position: i}
		if ix.Ident, err = p.ident(name, path); err != nil {
			return err
		}
		if ix.Docs, err = p.docs(m, path); err != nil {
			return err
		}

		switch p.dialect {
		case ir.DialectAnchor:
			if _, ok := m["discriminator"]; ok {
				return p.malformed(at(path, "discriminator"), "explicit discriminator arrays belong to the new anchor idl format, which is not supported")
			}
		case ir.DialectShank:
			if ix.Explicit, err = p.shankDiscriminant(m, path); err != nil {
				return err
			}
		}

		items, err := p.list(m, "accounts", path, false)
		if err != nil {
			return err
		}
		if ix.Items, err = p.accountItems(items, at(path, "accounts"), ixOwner+name); err != nil {
			return err
		}

		args, err := p.list(m, "args", path, false)
		if err != nil {
			return err
		}
		if ix.Args, err = p.fields(args, at(path, "args")); err != nil {
			return err
		}
		p.model.Instructions = append(p.model.Instructions, ix)
	}
	return nil
}

// leaf 解析叶子账户 {name, isMut, isSigner, isOptional, docs, pda}
func (p *parser) leaf(m map[string]any, path string) (*ir.AccountUsage, error) {
	name, err := p.str(m, "name", path)
	if err != nil {
		return nil, err
	}
	u := &ir.AccountUsage{Name: name}
	if u.Ident, err = p.ident(name, path); err != nil {
		return nil, err
	}
	if u.IsWritable, err = p.flag(m, path, "isMut"); err != nil {
		return nil, err
	}
	if u.IsSigner, err = p.flag(m, path, "isSigner"); err != nil {
		return nil, err
	}
	if u.IsOptional, err = p.flag(m, path, "isOptional", "optional"); err != nil {
		return nil, err
	}
	if u.Docs, err = p.docs(m, path); err != nil {
		return nil, err
	}
	if u.PDA, err = p.opaque(m["pda"], at(path, "pda")); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *parser) parseEvents(root map[string]any) error {
	raw, err := p.list(root, "events", "", false)
	if err != nil {
		return err
	}
	if len(raw) > 0 && p.dialect != ir.DialectAnchor {
		return p.malformed("events", "events are only supported for anchor idls")
	}
	seen := make(map[string]struct{}, len(raw))
	for i, v := range raw {
		path := idx("events", i)
		m, err := p.object(v, path)
		if err != nil {
			return err
		}
		name, err := p.str(m, "name", path)
		if err != nil {
			return err
		}
		p.entry = name
		if _, dup := seen[name]; dup {
			return p.malformed(at(path, "name"), "duplicate event %q", name)
		}
		seen[name] = struct{}{}

		ev := ir.EventDef{Name: name}
		if ev.Ident, err = p.ident(name, path); err != nil {
			return err
		}
		if ev.Docs, err = p.docs(m, path); err != nil {
			return err
		}
		fields, err := p.list(m, "fields", path, false)
		if err != nil {
			return err
		}
		if ev.Fields, err = p.fields(fields, at(path, "fields")); err != nil {
			return err
		}
		p.model.Events = append(p.model.Events, ev)
	}
	return nil
}

func (p *parser) parseConstants(root map[string]any) error {
	raw, err := p.list(root, "constants", "", false)
	if err != nil {
		return err
	}
	for i, v := range raw {
		path := idx("constants", i)
		m, err := p.object(v, path)
		if err != nil {
			return err
		}
		name, err := p.str(m, "name", path)
		if err != nil {
			return err
		}
		p.entry = name
		c := ir.ConstantDef{Name: name, Ident: naming.Constant(name)}
		if c.Ident == "" {
			return p.malformed(at(path, "name"), "name %q has no identifier characters", name)
		}
		if c.Type, err = p.typ(m["type"], at(path, "type")); err != nil {
			return err
		}
		switch val := m["value"].(type) {
		case string:
			c.Value = val
		case nil:
			return p.malformed(at(path, "value"), "missing constant value")
		default:
			if n, ok := utils.AsInt64(val); ok {
				c.Value = strconv.FormatInt(n, 10)
			} else if c.Value, err = p.opaque(val, at(path, "value")); err != nil {
				return err
			}
		}
		p.model.Constants = append(p.model.Constants, c)
	}
	return nil
}

func (p *parser) parseErrors(root map[string]any) error {
	raw, err := p.list(root, "errors", "", false)
	if err != nil {
		return err
	}
	codes := make(map[uint32]string, len(raw))
	for i, v := range raw {
		path := idx("errors", i)
		m, err := p.object(v, path)
		if err != nil {
			return err
		}
		name, err := p.str(m, "name", path)
		if err != nil {
			return err
		}
		p.entry = name
		code, ok := utils.AsInt64(m["code"])
		if !ok || code < 0 || code > 0xffffffff {
			return p.malformed(at(path, "code"), "error code must be a u32")
		}
		if prev, dup := codes[uint32(code)]; dup {
			return p.malformed(at(path, "code"), "error code %d already used by %q", code, prev)
		}
		codes[uint32(code)] = name

		e := ir.ErrorDef{Code: uint32(code), Name: name}
		if e.Ident, err = p.ident(name, path); err != nil {
			return err
		}
		if e.Msg, err = p.optStr(m, "msg", path); err != nil {
			return err
		}
		p.model.Errors = append(p.model.Errors, e)
	}
	return nil
}

// resolveRefs 第二遍：账户布局也可以被 defined 引用，与类型一起参与解析
func (p *parser) resolveRefs() error {
	m := p.model
	defs := make([]ir.TypeDef, 0, len(m.Types)+len(m.Accounts))
	defs = append(defs, m.Types...)
	for _, acc := range m.Accounts {
		defs = append(defs, ir.TypeDef{Name: acc.Name, Ident: acc.Ident, Kind: ir.TypeStruct, Fields: acc.Fields})
	}
	r := resolver.New(defs)
	if err := r.CheckDefinitions(); err != nil {
		return p.refError(err)
	}

	for i, ix := range m.Instructions {
		for j, f := range ix.Args {
			path := idx(at(idx("instructions", i), "args"), j) + ".type"
			if err := r.Check(f.Type, path); err != nil {
				p.entry = ix.Name
				return p.refError(err)
			}
		}
	}
	for i, ev := range m.Events {
		for j, f := range ev.Fields {
			path := idx(at(idx("events", i), "fields"), j) + ".type"
			if err := r.Check(f.Type, path); err != nil {
				p.entry = ev.Name
				return p.refError(err)
			}
		}
	}
	for i, c := range m.Constants {
		if err := r.Check(c.Type, at(idx("constants", i), "type")); err != nil {
			p.entry = c.Name
			return p.refError(err)
		}
	}
	return nil
}

func (p *parser) refError(err error) error {
	var te *resolver.TypeResolutionError
	if errors.As(err, &te) {
		if p.entry == "" && len(te.Chain) > 0 {
			p.entry = te.Chain[0]
		}
		return p.badType(te.Path, te)
	}
	return p.badType("", err)
}
