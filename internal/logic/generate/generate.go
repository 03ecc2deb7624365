// Package generate 按配置批量生成 binding：每个程序独立加载、编译、落盘，互不影响。
package generate

import (
	"context"
	"time"

	"solana-idlgen/internal/config"
	"solana-idlgen/internal/loader"
	"solana-idlgen/internal/logic/compiler"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/svc"
	"solana-idlgen/internal/writer"
	"solana-idlgen/pkg/logger"
	"solana-idlgen/pkg/utils"
)

// Report 单个程序的生成结果
type Report struct {
	IDL     string
	Program string // IDL 中的程序名，加载失败时为空
	Files   []string
	Err     error
}

// Run 并发处理配置中的全部程序，结果顺序与配置一致。ctx 取消后尚未开始的程序直接返回 ctx.Err()。
func Run(ctx context.Context, svcCtx *svc.ServiceContext) []Report {
	start := time.Now()
	reports := utils.ParallelMap(svcCtx.Config.Programs, svcCtx.Workers, func(p config.ProgramConfig) Report {
		if err := ctx.Err(); err != nil {
			return Report{IDL: p.IDL, Err: err}
		}
		return runOne(p)
	})

	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}
	logger.Infof("[Generate] 完成 %d 个程序, 失败 %d, 耗时 %v", len(reports), failed, time.Since(start))
	return reports
}

func runOne(p config.ProgramConfig) Report {
	r := Report{IDL: p.IDL}

	// 1. 加载
	tree, err := loader.LoadFile(p.IDL)
	if err != nil {
		logger.Errorf("[Generate] 加载 IDL 失败: %s, err=%v", p.IDL, err)
		r.Err = err
		return r
	}

	// 2. 编译
	d, _ := ir.ParseDialect(p.Dialect)
	res, err := compiler.Compile(tree, compiler.Options{
		Dialect:   d,
		ProgramID: p.ProgramID,
		Package:   p.Package,
	})
	if err != nil {
		if compiler.IsInvariant(err) {
			logger.Errorf("[Generate] 内部错误: %s, err=%v", p.IDL, err)
		} else {
			logger.Warnf("[Generate] IDL 无效: %s, err=%v", p.IDL, err)
		}
		r.Err = err
		return r
	}
	r.Program = res.Model.Name

	// 3. 落盘
	files, err := writer.Write(p.OutDir, res.Modules, p.Module)
	r.Files = files
	if err != nil {
		logger.Errorf("[Generate] 写入失败: %s, err=%v", p.OutDir, err)
		r.Err = err
		return r
	}
	logger.Infof("[Generate] %s (%s) → %s, %d 个文件", res.Model.Name, res.Model.Dialect, p.OutDir, len(files))
	return r
}

// ExitCode 汇总退出码：0 全部成功，1 存在无效输入或 IO 错误，2 存在内部错误
func ExitCode(reports []Report) int {
	code := 0
	for _, r := range reports {
		switch {
		case r.Err == nil:
		case compiler.IsInvariant(r.Err):
			return 2
		default:
			code = 1
		}
	}
	return code
}
