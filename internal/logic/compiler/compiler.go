// Package compiler 串联整条生成流水线：方言解析 → discriminator 分配 → 账户展平 → 代码生成。
package compiler

import (
	"errors"
	"fmt"
	"runtime/debug"

	"solana-idlgen/internal/logic/dialect"
	"solana-idlgen/internal/logic/discriminator"
	"solana-idlgen/internal/logic/emitter"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/privilege"
	"solana-idlgen/pkg/logger"
)

type Options struct {
	Dialect   ir.Dialect // DialectUnknown 时自动识别
	ProgramID string     // 覆盖文档中的程序地址
	Package   string     // 生成包名
}

type Result struct {
	Model   *ir.ProgramModel
	Modules map[emitter.Module]string
}

// Compile 对一份已反序列化的 IDL 文档执行完整流水线。
// 阶段内部的 panic 视为程序缺陷，转换为 InvariantError 返回。
func Compile(tree any, opts Options) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Compiler] panic: %v\nstack: %s", r, debug.Stack())
			res = nil
			err = &ir.InvariantError{Stage: "compiler", Reason: fmt.Sprint(r)}
		}
	}()

	m, err := Annotate(tree, opts)
	if err != nil {
		return nil, err
	}

	modules, err := emitter.Emit(m, emitter.Options{Package: opts.Package})
	if err != nil {
		return nil, err
	}
	return &Result{Model: m, Modules: modules}, nil
}

// Annotate 只执行到标注阶段，供运行期编解码使用
func Annotate(tree any, opts Options) (*ir.ProgramModel, error) {
	m, err := dialect.Parse(tree, opts.Dialect, dialect.Options{ProgramID: opts.ProgramID})
	if err != nil {
		return nil, err
	}
	if err := discriminator.Assign(m); err != nil {
		return nil, err
	}
	if err := privilege.Annotate(m); err != nil {
		return nil, err
	}
	m.Stage = ir.StageAnnotated

	var signers, writable int
	for _, ix := range m.Instructions {
		s, w := privilege.Counts(ix.Accounts)
		signers += s
		writable += w
	}
	logger.Debugf("[Compiler] %s (%s): %d 条指令, %d 个账户, %d 个类型, %d 个事件, signer %d, writable %d",
		m.Name, m.Dialect, len(m.Instructions), len(m.Accounts), len(m.Types), len(m.Events), signers, writable)
	return m, nil
}

// IsInvariant 判断错误是否源自内部缺陷而非输入文档
func IsInvariant(err error) bool {
	var ie *ir.InvariantError
	return errors.As(err, &ie)
}
