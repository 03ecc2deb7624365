package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-idlgen/internal/loader"
	"solana-idlgen/internal/logic/dialect"
	"solana-idlgen/internal/logic/discriminator"
	"solana-idlgen/internal/logic/emitter"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/privilege"
)

func load(t *testing.T, name string) any {
	t.Helper()
	tree, err := loader.LoadFile("../../../testdata/" + name)
	require.NoError(t, err)
	return tree
}

func TestCompileFixtures(t *testing.T) {
	res, err := Compile(load(t, "counter.json"), Options{})
	require.NoError(t, err)
	assert.Equal(t, ir.StageAnnotated, res.Model.Stage)
	assert.Len(t, res.Modules, 6)
	assert.Contains(t, res.Modules[emitter.ModuleProgram], "package counter")

	res, err = Compile(load(t, "token_vault.json"), Options{Dialect: ir.DialectShank, Package: "vault"})
	require.NoError(t, err)
	assert.Equal(t, ir.DialectShank, res.Model.Dialect)
	assert.Len(t, res.Modules, 5)
}

func TestCompileProgramIDOverride(t *testing.T) {
	res, err := Compile(load(t, "counter.json"), Options{ProgramID: "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"})
	require.NoError(t, err)
	assert.Contains(t, res.Modules[emitter.ModuleProgram], `common.PublicKeyFromString("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")`)
}

func TestCompileErrorsPassThrough(t *testing.T) {
	tree, err := loader.Load([]byte(`{"name": "x", "instructions": [{"name": "run", "accounts": [], "args": [{"name": "a", "type": "u257"}]}],
		"metadata": {"address": "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"}}`), loader.FormatJSON)
	require.NoError(t, err)

	_, err = Compile(tree, Options{})
	var pe *dialect.ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, dialect.BadType, pe.Kind)
	assert.False(t, IsInvariant(err))

	tree, err = loader.Load([]byte(`{"name": "x", "instructions": [
		{"name": "setAuthority", "accounts": [], "args": []},
		{"name": "set_authority", "accounts": [], "args": []}],
		"metadata": {"address": "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"}}`), loader.FormatJSON)
	require.NoError(t, err)
	_, err = Compile(tree, Options{})
	var dce *discriminator.DiscriminatorCollisionError
	assert.True(t, errors.As(err, &dce), "got %v", err)

	tree, err = loader.Load([]byte(`{"name": "x", "instructions": [
		{"name": "run", "accounts": [{"name": "g", "group": "Missing"}], "args": []}],
		"metadata": {"address": "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"}}`), loader.FormatJSON)
	require.NoError(t, err)
	_, err = Compile(tree, Options{})
	var fe *privilege.FlattenError
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Equal(t, privilege.UnknownGroup, fe.Kind)
}

func TestIsInvariant(t *testing.T) {
	assert.True(t, IsInvariant(&ir.InvariantError{Stage: "emitter", Reason: "x"}))
	assert.False(t, IsInvariant(errors.New("x")))
}
