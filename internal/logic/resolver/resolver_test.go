package resolver

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-idlgen/internal/logic/ir"
)

func node(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestResolvePrimitives(t *testing.T) {
	cases := map[string]string{
		`"u8"`:        "u8",
		`"i128"`:      "i128",
		`"bool"`:      "bool",
		`"f64"`:       "f64",
		`"string"`:    "string",
		`"publicKey"`: "publicKey",
		`"pubkey"`:    "publicKey",
		`"bytes"`:     "Vec<u8>",
	}
	for in, want := range cases {
		got, err := Resolve(node(t, in), "t")
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
}

func TestResolveComposites(t *testing.T) {
	got, err := Resolve(node(t, `{"option": {"vec": {"array": ["u8", 32]}}}`), "t")
	require.NoError(t, err)
	assert.Equal(t, "Option<Vec<[u8; 32]>>", got.String())

	got, err = Resolve(node(t, `{"defined": "Pool<'info>"}`), "t")
	require.NoError(t, err)
	assert.Equal(t, ir.KindDefined, got.Kind)
	assert.Equal(t, "Pool", got.Name)

	got, err = Resolve(node(t, `{"defined": {"name": "Fees"}}`), "t")
	require.NoError(t, err)
	assert.Equal(t, "Fees", got.Name)

	got, err = Resolve(node(t, `{"vec": "bytes"}`), "t")
	require.NoError(t, err)
	assert.Equal(t, "Vec<Vec<u8>>", got.String())
	assert.True(t, got.Elem.IsBytes())
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var te *TypeResolutionError
	require.True(t, errors.As(err, &te), "unexpected error %v", err)
	return te.Kind
}

func TestResolveErrors(t *testing.T) {
	cases := []struct {
		in   string
		kind ErrorKind
	}{
		{`"u256"`, UnknownType},
		{`{"unknownKey": "u8"}`, UnknownType},
		{`{"coption": "publicKey"}`, Malformed},
		{`{"tuple": ["u8", "u16"]}`, Malformed},
		{`{"hashMap": ["u8", "u16"]}`, Malformed},
		{`{"array": ["u8"]}`, Malformed},
		{`{"array": ["u8", -1]}`, Malformed},
		{`{"array": ["u8", "N"]}`, Malformed},
		{`{"defined": "Wrapper<u64>"}`, Malformed},
		{`{"defined": {"name": "W", "generics": [{"kind": "type"}]}}`, Malformed},
		{`{"vec": "u8", "option": "u8"}`, Malformed},
		{`42`, Malformed},
		{`{"vec": {"option": "nope"}}`, UnknownType},
	}
	for _, c := range cases {
		_, err := Resolve(node(t, c.in), "instructions[0].args[0].type")
		require.Error(t, err, c.in)
		assert.Equal(t, c.kind, kindOf(t, err), c.in)
	}
}

func TestResolveErrorCarriesPath(t *testing.T) {
	_, err := Resolve(node(t, `{"vec": "u256"}`), "types[1].fields[2].type")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "types[1].fields[2].type.vec")
	assert.Contains(t, err.Error(), `"u256"`)
}

func TestResolveIn(t *testing.T) {
	defined := map[string]struct{}{"Pool": {}}
	_, err := ResolveIn(node(t, `{"option": {"defined": "Pool"}}`), defined, "t")
	assert.NoError(t, err)

	_, err = ResolveIn(node(t, `{"vec": {"defined": "Missing"}}`), defined, "t")
	require.Error(t, err)
	assert.Equal(t, UnknownType, kindOf(t, err))
}

func structDef(name string, fields ...ir.Field) ir.TypeDef {
	return ir.TypeDef{Name: name, Kind: ir.TypeStruct, Fields: fields}
}

func field(name string, typ ir.ResolvedType) ir.Field {
	return ir.Field{Name: name, Type: typ}
}

func TestCheckDefinitionsForwardRef(t *testing.T) {
	// A 引用声明在其后的 B
	defs := []ir.TypeDef{
		structDef("A", field("b", ir.Defined("B"))),
		structDef("B", field("x", ir.Uint(64))),
	}
	assert.NoError(t, New(defs).CheckDefinitions())
}

func TestCheckDefinitionsUnknown(t *testing.T) {
	defs := []ir.TypeDef{structDef("A", field("b", ir.Optional(ir.Defined("Nope"))))}
	err := New(defs).CheckDefinitions()
	require.Error(t, err)
	assert.Equal(t, UnknownType, kindOf(t, err))
	assert.Contains(t, err.Error(), "A.b")
}

func TestCheckDefinitionsCycles(t *testing.T) {
	t.Run("self by value", func(t *testing.T) {
		err := New([]ir.TypeDef{structDef("Node", field("next", ir.Defined("Node")))}).CheckDefinitions()
		require.Error(t, err)
		assert.Equal(t, Cyclic, kindOf(t, err))
	})

	t.Run("mutual through option", func(t *testing.T) {
		defs := []ir.TypeDef{
			structDef("A", field("b", ir.Optional(ir.Defined("B")))),
			structDef("B", field("a", ir.FixedArray(ir.Defined("A"), 2))),
		}
		err := New(defs).CheckDefinitions()
		require.Error(t, err)
		var te *TypeResolutionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, Cyclic, te.Kind)
		assert.Equal(t, []string{"A", "B", "A"}, te.Chain)
	})

	t.Run("vec breaks cycle", func(t *testing.T) {
		defs := []ir.TypeDef{
			structDef("Tree", field("children", ir.DynamicList(ir.Defined("Tree")))),
		}
		assert.NoError(t, New(defs).CheckDefinitions())
	})

	t.Run("enum variant", func(t *testing.T) {
		defs := []ir.TypeDef{{
			Name: "Expr",
			Kind: ir.TypeEnum,
			Variants: []ir.Variant{
				{Name: "Lit", Kind: ir.VariantTuple, Fields: []ir.Field{field("0", ir.Uint(64))}},
				{Name: "Neg", Kind: ir.VariantTuple, Fields: []ir.Field{field("0", ir.Defined("Expr"))}},
			},
		}}
		err := New(defs).CheckDefinitions()
		require.Error(t, err)
		assert.Equal(t, Cyclic, kindOf(t, err))
	})

	t.Run("diamond is fine", func(t *testing.T) {
		defs := []ir.TypeDef{
			structDef("Top", field("l", ir.Defined("L")), field("r", ir.Defined("R"))),
			structDef("L", field("s", ir.Defined("Shared"))),
			structDef("R", field("s", ir.Defined("Shared"))),
			structDef("Shared", field("v", ir.Uint(8))),
		}
		assert.NoError(t, New(defs).CheckDefinitions())
	})
}
