package svc

import (
	"fmt"

	"solana-idlgen/internal/config"
	"solana-idlgen/internal/consts"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/pkg/logger"
)

// ServiceContext 包含一次生成任务共享的资源
type ServiceContext struct {
	Config  config.GenConfig
	Workers int
}

// NewServiceContext 初始化日志并校验配置
func NewServiceContext(c config.GenConfig) (*ServiceContext, error) {
	// 1. 初始化日志
	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		return nil, fmt.Errorf("logger 初始化失败: %w", err)
	}

	// 2. 校验程序列表
	if len(c.Programs) == 0 {
		return nil, fmt.Errorf("配置中没有待生成的程序")
	}
	for i, p := range c.Programs {
		if p.IDL == "" || p.OutDir == "" {
			return nil, fmt.Errorf("programs[%d]: idl 与 out_dir 不能为空", i)
		}
		if _, ok := ir.ParseDialect(p.Dialect); !ok {
			return nil, fmt.Errorf("programs[%d]: 未知方言 %q", i, p.Dialect)
		}
	}

	// 3. 并发度，默认取 CPU 核数
	workers := c.Workers
	if workers <= 0 {
		workers = consts.CpuCount
	}

	ctx := &ServiceContext{
		Config:  c,
		Workers: workers,
	}
	logger.Infof("[Svc] 服务上下文初始化完成, programs=%d, workers=%d", len(c.Programs), workers)
	return ctx, nil
}

// Close 刷新日志缓冲
func (ctx *ServiceContext) Close() {
	logger.Sync()
}
