package emitter_test

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/jsonx"

	"solana-idlgen/internal/logic/dialect"
	"solana-idlgen/internal/logic/discriminator"
	"solana-idlgen/internal/logic/emitter"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/privilege"
)

func annotated(t *testing.T, name string) *ir.ProgramModel {
	t.Helper()
	b, err := os.ReadFile("../../../testdata/" + name)
	require.NoError(t, err)
	var tree any
	require.NoError(t, jsonx.Unmarshal(b, &tree))

	m, err := dialect.Parse(tree, ir.DialectUnknown, dialect.Options{})
	require.NoError(t, err)
	require.NoError(t, discriminator.Assign(m))
	require.NoError(t, privilege.Annotate(m))
	m.Stage = ir.StageAnnotated
	return m
}

// diff 输出统一格式差异，便于定位生成结果的变化
func diff(want, got string) string {
	d, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	return d
}

// declared 解析全部模块并收集包级声明名
func declared(t *testing.T, out map[emitter.Module]string) map[string]struct{} {
	t.Helper()
	names := make(map[string]struct{})
	fset := token.NewFileSet()
	pkg := ""
	for _, mod := range emitter.SortedModules(out) {
		f, err := parser.ParseFile(fset, mod.FileName(), out[mod], parser.ParseComments)
		require.NoError(t, err, mod)
		if pkg == "" {
			pkg = f.Name.Name
		}
		assert.Equal(t, pkg, f.Name.Name, mod)

		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					names[d.Name.Name] = struct{}{}
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						names[s.Name.Name] = struct{}{}
					case *ast.ValueSpec:
						for _, n := range s.Names {
							names[n.Name] = struct{}{}
						}
					}
				}
			}
		}
	}
	return names
}

func TestEmitAnchorModules(t *testing.T) {
	out, err := emitter.Emit(annotated(t, "counter.json"), emitter.Options{})
	require.NoError(t, err)

	assert.Equal(t, []emitter.Module{
		emitter.ModuleAccounts, emitter.ModuleErrors, emitter.ModuleEvents,
		emitter.ModuleInstructions, emitter.ModuleProgram, emitter.ModuleTypes,
	}, emitter.SortedModules(out))

	names := declared(t, out)
	for _, want := range []string{
		"ProgramName", "ProgramID", "AccountInfo", "ErrDiscmMismatch",
		"CounterInstruction", "DecodeCounterInstruction",
		"InitializeIxArgs", "InitializeIxDiscm", "InitializeIxAccountsLen", "InitializeAccounts", "InitializeKeys",
		"DeserializeInitializeIxArgs", "InitializeIxWithProgramID", "TransferVerifyAccountPrivileges",
		"Counter", "CounterAccountDiscm", "DeserializeCounter",
		"Fees", "DeserializeFees", "Mode", "ModePaused", "ModeActive", "ModeLimited", "ModeTagLimited",
		"Transferred", "TransferredEventDiscm",
		"CounterError", "ErrOverflow", "ErrUnauthorized", "CounterErrorFromCode",
		"Seed", "MaxCount",
	} {
		assert.Contains(t, names, want)
	}

	for _, s := range out {
		assert.Contains(t, s, "// Code generated by idlgen. DO NOT EDIT.")
	}
}

func TestEmitDeterministic(t *testing.T) {
	for _, name := range []string{"counter.json", "token_vault.json"} {
		first, err := emitter.Emit(annotated(t, name), emitter.Options{})
		require.NoError(t, err)
		second, err := emitter.Emit(annotated(t, name), emitter.Options{})
		require.NoError(t, err)
		for mod, src := range first {
			assert.Equal(t, src, second[mod], "%s %s\n%s", name, mod, diff(src, second[mod]))
		}
	}
}

func TestEmitAnchorDiscriminators(t *testing.T) {
	out, err := emitter.Emit(annotated(t, "counter.json"), emitter.Options{})
	require.NoError(t, err)

	ix := out[emitter.ModuleInstructions]
	assert.Contains(t, ix, "var InitializeIxDiscm = [8]byte{0xaf, 0xaf, 0x6d, 0x1f, 0x0d, 0x98, 0x9b, 0xed}")
	assert.Contains(t, ix, "var IncrementIxDiscm = [8]byte{0x0b, 0x12, 0x68, 0x09, 0x68, 0xae, 0x3b, 0x21}")

	prog := out[emitter.ModuleProgram]
	assert.Contains(t, prog, "switch binary.BigEndian.Uint64(data[:8]) {")
	assert.Contains(t, prog, "case 0xafaf6d1f0d989bed:")
	assert.Contains(t, prog, "case 0xa334c8e78c0345ba:")
	assert.Contains(t, prog, `var ProgramID = common.PublicKeyFromString("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")`)
	assert.Contains(t, prog, "var Seed = []byte{99, 111, 117, 110, 116}")
	assert.Contains(t, prog, "const MaxCount uint64 = 1000000")

	assert.Contains(t, out[emitter.ModuleAccounts], "var CounterAccountDiscm = [8]byte{0xff, 0xb0, 0x04, 0xf5, 0xbc, 0xfd, 0x7c, 0x19}")
	assert.Contains(t, out[emitter.ModuleEvents], "var TransferredEventDiscm = [8]byte{0x15, 0x84, 0xef, 0x40, 0x92, 0xef, 0xa6, 0x44}")
}

func TestEmitFlattenedAccountOrder(t *testing.T) {
	out, err := emitter.Emit(annotated(t, "counter.json"), emitter.Options{})
	require.NoError(t, err)

	ix := out[emitter.ModuleInstructions]
	assert.Contains(t, ix, "const TransferIxAccountsLen = 6")
	assert.Contains(t, ix, "return [TransferIxAccountsLen]common.PublicKey{k.Vault, k.VaultAuthority, k.Mint, k.Destination, k.TokenProgram, k.Authority}")
	assert.Contains(t, ix, "{PubKey: k.Destination, IsSigner: false, IsWritable: true},")
	assert.Contains(t, ix, "for _, acc := range []AccountInfo{accounts.Vault, accounts.Destination} {")
	assert.Contains(t, ix, "// writable, optional")
}

func TestEmitShankModules(t *testing.T) {
	out, err := emitter.Emit(annotated(t, "token_vault.json"), emitter.Options{Package: "vault"})
	require.NoError(t, err)

	_, ok := out[emitter.ModuleEvents]
	assert.False(t, ok)
	names := declared(t, out)
	assert.Contains(t, names, "DecodeTokenVaultInstruction")

	ix := out[emitter.ModuleInstructions]
	assert.Contains(t, ix, "var InitVaultIxDiscm = [1]byte{0x00}")
	assert.Contains(t, ix, "var WithdrawIxDiscm = [1]byte{0x02}")

	prog := out[emitter.ModuleProgram]
	assert.Contains(t, prog, "package vault")
	assert.Contains(t, prog, "switch data[0] {")
	assert.Contains(t, prog, "case 0x02:")
	assert.NotContains(t, prog, "encoding/binary")

	types := out[emitter.ModuleTypes]
	assert.Contains(t, types, "type LockUntil struct {")
	assert.Contains(t, types, "Field0 int64")
	assert.Contains(t, types, "Note   []byte")
}

const counterErrors = `// Code generated by idlgen. DO NOT EDIT.

package counter

import (
	"fmt"
)

// CounterError is a custom error code returned by the program.
type CounterError uint32

const (
	ErrOverflow     CounterError = 6000
	ErrUnauthorized CounterError = 6001
)

func (e CounterError) Name() string {
	switch e {
	case ErrOverflow:
		return "Overflow"
	case ErrUnauthorized:
		return "Unauthorized"
	}
	return ""
}

func (e CounterError) Error() string {
	switch e {
	case ErrOverflow:
		return "Counter overflowed"
	case ErrUnauthorized:
		return "Unauthorized"
	}
	return fmt.Sprintf("%s: custom program error %d", ProgramName, uint32(e))
}

// CounterErrorFromCode reports whether code is a known error of the program.
func CounterErrorFromCode(code uint32) (CounterError, bool) {
	e := CounterError(code)
	return e, e.Name() != ""
}
`

func TestEmitErrorsGolden(t *testing.T) {
	out, err := emitter.Emit(annotated(t, "counter.json"), emitter.Options{})
	require.NoError(t, err)

	got := out[emitter.ModuleErrors]
	if got != counterErrors {
		t.Fatalf("errors module mismatch:\n%s", diff(counterErrors, got))
	}
}

func TestEmitNameCollision(t *testing.T) {
	m := annotated(t, "counter.json")
	m.Constants = append(m.Constants, ir.ConstantDef{Name: "max-count", Ident: "MaxCount", Type: ir.Uint(8), Value: "1"})

	_, err := emitter.Emit(m, emitter.Options{})
	var nce *emitter.NameCollisionError
	require.True(t, errors.As(err, &nce), "got %v", err)
	assert.Equal(t, "MaxCount", nce.Ident)
	assert.Equal(t, `constant "MAX_COUNT"`, nce.First)
	assert.Equal(t, `constant "max-count"`, nce.Second)
}

func TestEmitReservedIdentifierCollision(t *testing.T) {
	m := annotated(t, "counter.json")
	m.Types = append(m.Types, ir.TypeDef{Name: "CounterInstruction", Ident: "CounterInstruction", Kind: ir.TypeStruct})

	_, err := emitter.Emit(m, emitter.Options{})
	var nce *emitter.NameCollisionError
	require.True(t, errors.As(err, &nce), "got %v", err)
	assert.Equal(t, "CounterInstruction", nce.Ident)
	assert.Equal(t, "program", nce.First)
}

func TestEmitAccountFieldShadowsMethod(t *testing.T) {
	m := annotated(t, "counter.json")
	m.Instructions[1].Accounts = append(m.Instructions[1].Accounts, ir.AccountUsage{Name: "keys", Ident: "Keys"})

	_, err := emitter.Emit(m, emitter.Options{})
	var nce *emitter.NameCollisionError
	require.True(t, errors.As(err, &nce), "got %v", err)
	assert.Equal(t, "Keys", nce.Ident)
}

func TestEmitRequiresAnnotatedModel(t *testing.T) {
	m := annotated(t, "counter.json")
	m.Stage = ir.StageParsed

	_, err := emitter.Emit(m, emitter.Options{})
	var ie *ir.InvariantError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "emitter", ie.Stage)
}

func TestEmitTrailingBytesCheck(t *testing.T) {
	out, err := emitter.Emit(annotated(t, "counter.json"), emitter.Options{})
	require.NoError(t, err)

	assert.Contains(t, out[emitter.ModuleProgram], `ErrTrailingBytes = errors.New("counter: trailing bytes after payload")`)

	ix := out[emitter.ModuleInstructions]
	assert.Equal(t, 3, strings.Count(ix, "return nil, ErrTrailingBytes"))
	assert.Contains(t, ix, "if len(InitializeIxDiscm)+len(payload) != len(data) {")
	assert.Contains(t, out[emitter.ModuleEvents], "if len(TransferredEventDiscm)+len(payload) != len(data) {")

	// 账户数据允许尾部预留空间
	accounts := out[emitter.ModuleAccounts]
	assert.NotContains(t, accounts, "ErrTrailingBytes")
	assert.Contains(t, accounts, "// Bytes after the payload are ignored.\nfunc DeserializeCounter(data []byte) (*Counter, error) {")
}
