// Package writer 把生成的模块落盘，并按需生成 go.mod。
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solana-idlgen/internal/logic/emitter"
)

// 生成包自身的依赖，与本仓库 go.mod 中的版本保持一致
var requires = [][2]string{
	{"github.com/blocto/solana-go-sdk", "v1.30.0"},
	{"github.com/near/borsh-go", "v0.3.2-0.20220516180422-1ff87d108454"},
}

const goVersion = "1.24"

// GoMod 生成 go.mod 内容
func GoMod(module string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n\ngo %s\n\nrequire (\n", module, goVersion)
	for _, r := range requires {
		fmt.Fprintf(&b, "\t%s %s\n", r[0], r[1])
	}
	b.WriteString(")\n")
	return b.String()
}

// Write 把模块写入 dir，module 非空时额外写 go.mod。返回写入的文件路径（按文件名排序）。
// 每个文件先写临时文件再 rename，避免中途失败留下半截源码。
func Write(dir string, modules map[emitter.Module]string, module string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	files := make([][2]string, 0, len(modules)+1)
	if module != "" {
		files = append(files, [2]string{"go.mod", GoMod(module)})
	}
	for _, mod := range emitter.SortedModules(modules) {
		files = append(files, [2]string{mod.FileName(), modules[mod]})
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f[0])
		if err := writeFile(path, f[1]); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
