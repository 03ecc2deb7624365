// Package codec 在运行期按 ProgramModel 描述的布局编解码 borsh 数据，
// 不依赖生成代码即可解析链上指令、账户与事件。
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"

	"solana-idlgen/internal/consts"
	"solana-idlgen/internal/logic/ir"
)

var (
	ErrUnknownDiscriminator = errors.New("unknown discriminator")
	ErrTrailingBytes        = errors.New("trailing bytes after payload")
	ErrShortBuffer          = errors.New("unexpected end of data")
)

// ValueError 值与声明类型不匹配，Path 形如 "args.mode.Active.since"
type ValueError struct {
	Path string
	Err  error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

// Codec 绑定一个已标注的 ProgramModel
type Codec struct {
	m       *ir.ProgramModel
	defined map[string]*ir.TypeDef
}

// DecodedInstruction 解码结果，Args 的键为参数原始名
type DecodedInstruction struct {
	Name string
	Args map[string]any
}

// Decoded 账户或事件的解码结果
type Decoded struct {
	Name   string
	Fields map[string]any
}

func New(m *ir.ProgramModel) (*Codec, error) {
	if err := ir.RequireStage(m, ir.StageAnnotated, "codec"); err != nil {
		return nil, err
	}
	c := &Codec{m: m, defined: make(map[string]*ir.TypeDef, len(m.Types)+len(m.Accounts))}
	for i := range m.Types {
		c.defined[m.Types[i].Name] = &m.Types[i]
	}
	// 账户布局也可以被类型引用，按结构体处理
	for _, a := range m.Accounts {
		c.defined[a.Name] = &ir.TypeDef{Name: a.Name, Ident: a.Ident, Kind: ir.TypeStruct, Fields: a.Fields}
	}
	return c, nil
}

// Encode 按 t 编码单个值
func (c *Codec) Encode(t ir.ResolvedType, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encode(&buf, t, v, "$"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode 按 t 解码单个值，data 必须被恰好消费完
func (c *Codec) Decode(t ir.ResolvedType, data []byte) (any, error) {
	r := &reader{data: data}
	v, err := c.decode(r, t, "$")
	if err != nil {
		return nil, err
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, len(data)-r.off)
	}
	return v, nil
}

// EncodeInstruction discriminator + 参数载荷
func (c *Codec) EncodeInstruction(name string, args map[string]any) ([]byte, error) {
	ix, ok := c.m.InstructionByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown instruction %q", name)
	}
	return c.encodePrefixed(ix.Discriminator, ix.Args, args, "args")
}

func (c *Codec) DecodeInstruction(data []byte) (*DecodedInstruction, error) {
	for i := range c.m.Instructions {
		ix := &c.m.Instructions[i]
		if !hasPrefix(data, ix.Discriminator) {
			continue
		}
		args, err := c.decodePrefixed(data, ix.Discriminator, ix.Args, "args")
		if err != nil {
			return nil, fmt.Errorf("instruction %s: %w", ix.Name, err)
		}
		return &DecodedInstruction{Name: ix.Name, Args: args}, nil
	}
	return nil, ErrUnknownDiscriminator
}

func (c *Codec) EncodeAccount(name string, fields map[string]any) ([]byte, error) {
	a, ok := c.m.AccountByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown account %q", name)
	}
	return c.encodePrefixed(a.Discriminator, a.Fields, fields, a.Name)
}

// DecodeAccount 账户数据末尾常有预留空间，允许尾随字节
func (c *Codec) DecodeAccount(data []byte) (*Decoded, error) {
	for i := range c.m.Accounts {
		a := &c.m.Accounts[i]
		if !hasPrefix(data, a.Discriminator) {
			continue
		}
		r := &reader{data: data, off: len(a.Discriminator.Bytes)}
		fields, err := c.decodeFields(r, a.Fields, a.Name)
		if err != nil {
			return nil, err
		}
		return &Decoded{Name: a.Name, Fields: fields}, nil
	}
	return nil, ErrUnknownDiscriminator
}

func (c *Codec) EncodeEvent(name string, fields map[string]any) ([]byte, error) {
	for i := range c.m.Events {
		if ev := &c.m.Events[i]; ev.Name == name {
			return c.encodePrefixed(ev.Discriminator, ev.Fields, fields, ev.Name)
		}
	}
	return nil, fmt.Errorf("unknown event %q", name)
}

func (c *Codec) DecodeEvent(data []byte) (*Decoded, error) {
	for i := range c.m.Events {
		ev := &c.m.Events[i]
		if !hasPrefix(data, ev.Discriminator) {
			continue
		}
		fields, err := c.decodePrefixed(data, ev.Discriminator, ev.Fields, ev.Name)
		if err != nil {
			return nil, err
		}
		return &Decoded{Name: ev.Name, Fields: fields}, nil
	}
	return nil, ErrUnknownDiscriminator
}

// BuildInstruction 按展平后的账户顺序组装指令。keys 以账户原始名索引；
// 缺省的可选账户以程序地址占位
func (c *Codec) BuildInstruction(name string, keys map[string]common.PublicKey, args map[string]any) (types.Instruction, error) {
	ix, ok := c.m.InstructionByName(name)
	if !ok {
		return types.Instruction{}, fmt.Errorf("unknown instruction %q", name)
	}
	data, err := c.EncodeInstruction(name, args)
	if err != nil {
		return types.Instruction{}, err
	}

	programID := c.m.ProgramID.ToCommon()
	metas := make([]types.AccountMeta, 0, len(ix.Accounts))
	for _, acc := range ix.Accounts {
		key, ok := keys[acc.Name]
		if !ok {
			if !acc.IsOptional {
				return types.Instruction{}, fmt.Errorf("instruction %s: missing account %q", name, acc.Name)
			}
			key = programID
		}
		metas = append(metas, types.AccountMeta{PubKey: key, IsSigner: acc.IsSigner, IsWritable: acc.IsWritable})
	}
	return types.Instruction{ProgramID: programID, Accounts: metas, Data: data}, nil
}

func hasPrefix(data []byte, d ir.Discriminator) bool {
	return !d.IsZero() && bytes.HasPrefix(data, d.Bytes)
}

func (c *Codec) encodePrefixed(d ir.Discriminator, fields []ir.Field, values map[string]any, path string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(d.Bytes)
	if err := c.encodeFields(&buf, fields, values, path); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) decodePrefixed(data []byte, d ir.Discriminator, fields []ir.Field, path string) (map[string]any, error) {
	r := &reader{data: data, off: len(d.Bytes)}
	out, err := c.decodeFields(r, fields, path)
	if err != nil {
		return nil, err
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, len(data)-r.off)
	}
	return out, nil
}

func (c *Codec) encodeFields(buf *bytes.Buffer, fields []ir.Field, values map[string]any, path string) error {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.Name] = struct{}{}
		v, ok := values[f.Name]
		if !ok && f.Type.Kind != ir.KindOptional {
			return &ValueError{Path: path + "." + f.Name, Err: errors.New("missing field")}
		}
		if err := c.encode(buf, f.Type, v, path+"."+f.Name); err != nil {
			return err
		}
	}
	var extra []string
	for k := range values {
		if _, ok := known[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return &ValueError{Path: path, Err: fmt.Errorf("unknown fields %v", extra)}
	}
	return nil
}

func (c *Codec) decodeFields(r *reader, fields []ir.Field, path string) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := c.decode(r, f.Type, path+"."+f.Name)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func (c *Codec) encode(buf *bytes.Buffer, t ir.ResolvedType, v any, path string) error {
	fail := func(err error) error { return &ValueError{Path: path, Err: err} }

	switch t.Kind {
	case ir.KindPrimitive:
		b, err := encodePrimitive(t, v)
		if err != nil {
			return fail(err)
		}
		buf.Write(b)
		return nil

	case ir.KindString:
		s, ok := v.(string)
		if !ok {
			return fail(fmt.Errorf("expected string, got %T", v))
		}
		b, err := borsh.Serialize(s)
		if err != nil {
			return fail(err)
		}
		buf.Write(b)
		return nil

	case ir.KindPublicKey:
		pk, err := toPublicKey(v)
		if err != nil {
			return fail(err)
		}
		buf.Write(pk[:])
		return nil

	case ir.KindOptional:
		if s, ok := v.(Some); ok {
			buf.WriteByte(1)
			return c.encode(buf, *t.Elem, s.V, path)
		}
		if v == nil {
			buf.WriteByte(0)
			return nil
		}
		buf.WriteByte(1)
		return c.encode(buf, *t.Elem, v, path)

	case ir.KindFixedArray:
		items, err := c.items(t, v)
		if err != nil {
			return fail(err)
		}
		if len(items) != t.Len {
			return fail(fmt.Errorf("expected %d elements, got %d", t.Len, len(items)))
		}
		for i, item := range items {
			if err := c.encode(buf, *t.Elem, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case ir.KindDynamicList:
		items, err := c.items(t, v)
		if err != nil {
			return fail(err)
		}
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(items)))
		buf.Write(n[:])
		for i, item := range items {
			if err := c.encode(buf, *t.Elem, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case ir.KindDefined:
		def, ok := c.defined[t.Name]
		if !ok {
			return fail(fmt.Errorf("unknown type %q", t.Name))
		}
		if def.Kind == ir.TypeStruct {
			m, ok := v.(map[string]any)
			if !ok {
				return fail(fmt.Errorf("expected object for %s, got %T", def.Name, v))
			}
			return c.encodeFields(buf, def.Fields, m, path)
		}
		return c.encodeEnum(buf, def, v, path)
	}
	return fail(fmt.Errorf("unsupported type %s", t))
}

// items 把数组值统一为 []any；Vec<u8> / [u8; N] 也接受 []byte
func (c *Codec) items(t ir.ResolvedType, v any) ([]any, error) {
	switch l := v.(type) {
	case []any:
		return l, nil
	case []byte:
		if t.Elem.Kind != ir.KindPrimitive || t.Elem.Prim != ir.PrimUint || t.Elem.Width != 8 {
			return nil, fmt.Errorf("byte slice given for %s", t)
		}
		out := make([]any, len(l))
		for i, b := range l {
			out[i] = b
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected list for %s, got %T", t, v)
	}
}

func (c *Codec) encodeEnum(buf *bytes.Buffer, def *ir.TypeDef, v any, path string) error {
	var ev Enum
	switch e := v.(type) {
	case Enum:
		ev = e
	case string:
		ev = Enum{Variant: e}
	default:
		return &ValueError{Path: path, Err: fmt.Errorf("expected %s variant, got %T", def.Name, v)}
	}

	for i, variant := range def.Variants {
		if variant.Name != ev.Variant {
			continue
		}
		buf.WriteByte(byte(i))
		vpath := path + "." + variant.Name
		switch variant.Kind {
		case ir.VariantUnit:
			return nil
		case ir.VariantNamed:
			m, ok := ev.Value.(map[string]any)
			if !ok {
				return &ValueError{Path: vpath, Err: fmt.Errorf("expected object, got %T", ev.Value)}
			}
			return c.encodeFields(buf, variant.Fields, m, vpath)
		default:
			l, ok := ev.Value.([]any)
			if !ok || len(l) != len(variant.Fields) {
				return &ValueError{Path: vpath, Err: fmt.Errorf("expected %d tuple elements", len(variant.Fields))}
			}
			for j, f := range variant.Fields {
				if err := c.encode(buf, f.Type, l[j], fmt.Sprintf("%s[%d]", vpath, j)); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return &ValueError{Path: path, Err: fmt.Errorf("unknown %s variant %q", def.Name, ev.Variant)}
}

func (c *Codec) decode(r *reader, t ir.ResolvedType, path string) (any, error) {
	fail := func(err error) error { return &ValueError{Path: path, Err: err} }

	switch t.Kind {
	case ir.KindPrimitive:
		v, err := decodePrimitive(r, t)
		if err != nil {
			return nil, fail(err)
		}
		return v, nil

	case ir.KindString:
		n, err := r.u32()
		if err != nil {
			return nil, fail(err)
		}
		b, err := r.take(int(n))
		if err != nil {
			return nil, fail(err)
		}
		return string(b), nil

	case ir.KindPublicKey:
		b, err := r.take(consts.PubkeyLen)
		if err != nil {
			return nil, fail(err)
		}
		return common.PublicKeyFromBytes(b), nil

	case ir.KindOptional:
		tag, err := r.take(1)
		if err != nil {
			return nil, fail(err)
		}
		switch tag[0] {
		case 0:
			return nil, nil
		case 1:
			v, err := c.decode(r, *t.Elem, path)
			if err != nil {
				return nil, err
			}
			return Some{V: v}, nil
		default:
			return nil, fail(fmt.Errorf("invalid option tag %d", tag[0]))
		}

	case ir.KindFixedArray:
		return c.decodeList(r, t, t.Len, path)

	case ir.KindDynamicList:
		n, err := r.u32()
		if err != nil {
			return nil, fail(err)
		}
		if t.IsBytes() {
			b, err := r.take(int(n))
			if err != nil {
				return nil, fail(err)
			}
			return append([]byte{}, b...), nil
		}
		// 按元素最小长度预检，伪造的长度前缀不会触发大分配
		if size := c.minSize(*t.Elem, nil); size > 0 && int(n) > r.remaining()/size {
			return nil, fail(fmt.Errorf("%w: list of %d elements", ErrShortBuffer, n))
		}
		return c.decodeList(r, t, int(n), path)

	case ir.KindDefined:
		def, ok := c.defined[t.Name]
		if !ok {
			return nil, fail(fmt.Errorf("unknown type %q", t.Name))
		}
		if def.Kind == ir.TypeStruct {
			return c.decodeFields(r, def.Fields, path)
		}
		return c.decodeEnum(r, def, path)
	}
	return nil, fail(fmt.Errorf("unsupported type %s", t))
}

func (c *Codec) decodeList(r *reader, t ir.ResolvedType, n int, path string) (any, error) {
	out := make([]any, 0, min(n, r.remaining()))
	for i := 0; i < n; i++ {
		v, err := c.decode(r, *t.Elem, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Codec) decodeEnum(r *reader, def *ir.TypeDef, path string) (any, error) {
	tag, err := r.take(1)
	if err != nil {
		return nil, &ValueError{Path: path, Err: err}
	}
	if int(tag[0]) >= len(def.Variants) {
		return nil, &ValueError{Path: path, Err: fmt.Errorf("invalid %s variant index %d", def.Name, tag[0])}
	}
	variant := def.Variants[tag[0]]
	vpath := path + "." + variant.Name
	switch variant.Kind {
	case ir.VariantUnit:
		return Enum{Variant: variant.Name}, nil
	case ir.VariantNamed:
		fields, err := c.decodeFields(r, variant.Fields, vpath)
		if err != nil {
			return nil, err
		}
		return Enum{Variant: variant.Name, Value: fields}, nil
	default:
		items := make([]any, 0, len(variant.Fields))
		for j, f := range variant.Fields {
			v, err := c.decode(r, f.Type, fmt.Sprintf("%s[%d]", vpath, j))
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return Enum{Variant: variant.Name, Value: items}, nil
	}
}

// minSize 类型编码后的最小字节数，按值自引用的类型在回环处记为 0
func (c *Codec) minSize(t ir.ResolvedType, visiting map[string]bool) int {
	switch t.Kind {
	case ir.KindPrimitive:
		return t.Width / 8
	case ir.KindPublicKey:
		return consts.PubkeyLen
	case ir.KindOptional:
		return 1
	case ir.KindString, ir.KindDynamicList:
		return 4
	case ir.KindFixedArray:
		return t.Len * c.minSize(*t.Elem, visiting)
	case ir.KindDefined:
		def, ok := c.defined[t.Name]
		if !ok || visiting[t.Name] {
			return 0
		}
		if visiting == nil {
			visiting = make(map[string]bool)
		}
		visiting[t.Name] = true
		defer delete(visiting, t.Name)

		if def.Kind == ir.TypeStruct {
			return c.fieldsMinSize(def.Fields, visiting)
		}
		least := -1
		for _, v := range def.Variants {
			if n := c.fieldsMinSize(v.Fields, visiting); least < 0 || n < least {
				least = n
			}
		}
		return 1 + max(least, 0)
	}
	return 0
}

func (c *Codec) fieldsMinSize(fields []ir.Field, visiting map[string]bool) int {
	total := 0
	for _, f := range fields {
		total += c.minSize(f.Type, visiting)
	}
	return total
}
