package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"docFetcher/internal/cli"
	"docFetcher/internal/config"
	"docFetcher/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.New(cfg, log).Execute(ctx); err != nil {
		log.Error("Ошибка выполнения", zap.Error(err))
		log.Sync()
		stop()
		os.Exit(1)
	}
}
