package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-idlgen/internal/logic/emitter"
)

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "counter")
	modules := map[emitter.Module]string{
		emitter.ModuleTypes:   "package counter\n",
		emitter.ModuleProgram: "package counter\n\nconst ProgramName = \"counter\"\n",
	}

	files, err := Write(dir, modules, "example.com/counter")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "go.mod"),
		filepath.Join(dir, "program.go"),
		filepath.Join(dir, "types.go"),
	}, files)

	b, err := os.ReadFile(filepath.Join(dir, "program.go"))
	require.NoError(t, err)
	assert.Equal(t, modules[emitter.ModuleProgram], string(b))

	b, err = os.ReadFile(filepath.Join(dir, "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "module example.com/counter\n")
	assert.Contains(t, string(b), "github.com/near/borsh-go")

	// 不留临时文件
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestWriteWithoutModule(t *testing.T) {
	dir := t.TempDir()
	files, err := Write(dir, map[emitter.Module]string{emitter.ModuleErrors: "package x\n"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "errors.go")}, files)
}
