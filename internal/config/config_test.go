package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/conf"
	"gopkg.in/yaml.v3"
)

const etcFile = "../../etc/idlgen.yaml"

func TestLoadEtc(t *testing.T) {
	var c GenConfig
	require.NoError(t, conf.Load(etcFile, &c))

	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, "console", c.LogConf.Format)
	assert.Equal(t, "info", c.LogConf.Level)
	require.Len(t, c.Programs, 2)
	assert.Equal(t, "testdata/counter.json", c.Programs[0].IDL)
	assert.Equal(t, "gen/counter", c.Programs[0].OutDir)
	assert.Equal(t, "example.com/bindings/counter", c.Programs[0].Module)
	assert.Equal(t, "shank", c.Programs[1].Dialect)
	assert.Equal(t, "tokenvault", c.Programs[1].Package)

	// 直接按 yaml 标签解码得到同样的结果
	b, err := os.ReadFile(etcFile)
	require.NoError(t, err)
	var y GenConfig
	require.NoError(t, yaml.Unmarshal(b, &y))
	assert.Equal(t, c, y)
}

func TestToLogOption(t *testing.T) {
	c := LogConfig{Format: "json", LogDir: "logs", Level: "debug", Compress: true}
	opt := c.ToLogOption()
	assert.Equal(t, "json", opt.Format)
	assert.Equal(t, "logs", opt.LogDir)
	assert.Equal(t, "debug", opt.Level)
	assert.True(t, opt.Compress)
}
