package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/zeromicro/go-zero/core/conf"

	"solana-idlgen/internal/config"
	"solana-idlgen/internal/logic/generate"
	"solana-idlgen/internal/svc"
	"solana-idlgen/pkg/logger"
)

var configFile = flag.String("f", "etc/idlgen.yaml", "the config file")

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			code = 2
		}
	}()

	flag.Parse()

	var c config.GenConfig
	conf.MustLoad(*configFile, &c)

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		return 1
	}
	defer serviceContext.Close()

	// 收到退出信号后不再开始新的程序
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("Starting idlgen, config=%s", *configFile)
	reports := generate.Run(ctx, serviceContext)
	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.IDL, r.Err)
		}
	}
	return generate.ExitCode(reports)
}
