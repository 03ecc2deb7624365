// Package loader 读取 IDL 文件并反序列化为通用对象树（map[string]any / []any / 标量）。
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/jsonx"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatJSON Format = iota + 1
	FormatYAML
)

// FormatOf 按扩展名判断格式，未知扩展名按 JSON 处理
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile 读取并解析 IDL 文件
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree, err := Load(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// Load JSON 数字保留为 json.Number，避免大整数经 float64 丢精度
func Load(data []byte, f Format) (any, error) {
	var tree any
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	default:
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if err := jsonx.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	}
	if tree == nil {
		return nil, fmt.Errorf("empty document")
	}
	return tree, nil
}
