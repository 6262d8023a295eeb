package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stockprices-service/internal/bootstrap"
	"stockprices-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, cleanup, err := bootstrap.InitConsumer(ctx)
	if err != nil {
		log.Fatal("init consumer", zap.Error(err))
	}
	defer cleanup()

	// members rejoin after storage outages, so Start returning early means
	// the pool broke; the orchestrator restarts the process then
	w.Start(ctx)
	if ctx.Err() == nil {
		log.Error("consumer pool exited before shutdown")
		cleanup()
		os.Exit(1)
	}
	log.Info("consumer stopped")
}
