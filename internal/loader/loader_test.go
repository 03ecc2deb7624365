package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONKeepsNumbers(t *testing.T) {
	tree, err := Load([]byte(`{"code": 18446744073709551615, "name": "x"}`), FormatJSON)
	require.NoError(t, err)
	m := tree.(map[string]any)
	assert.Equal(t, json.Number("18446744073709551615"), m["code"])
	assert.Equal(t, "x", m["name"])
}

func TestLoadYAML(t *testing.T) {
	tree, err := Load([]byte("name: demo\ninstructions:\n  - name: run\n    args: []\n"), FormatYAML)
	require.NoError(t, err)
	m := tree.(map[string]any)
	assert.Equal(t, "demo", m["name"])
	ixs := m["instructions"].([]any)
	require.Len(t, ixs, 1)
	assert.Equal(t, "run", ixs[0].(map[string]any)["name"])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load([]byte(`{"name": `), FormatJSON)
	assert.Error(t, err)
	_, err = Load([]byte("null"), FormatJSON)
	assert.Error(t, err)
	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadFile(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("a/b.YML"))
	assert.Equal(t, FormatJSON, FormatOf("a/b.idl"))

	tree, err := LoadFile("../../testdata/counter.json")
	require.NoError(t, err)
	assert.Equal(t, "counter", tree.(map[string]any)["name"])
}
