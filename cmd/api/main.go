package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"stockprices-service/internal/bootstrap"
	"stockprices-service/internal/config"
	infraconfig "stockprices-service/internal/infrastructure/config"
	httpserver "stockprices-service/internal/infrastructure/http"
	"stockprices-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	defer func() { _ = logger.Sync() }()
	cfg := config.Load()
	addr := ":" + cfg.Port

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logger.Fatal("bootstrap api", zap.Error(err))
	}
	defer cleanup()

	// EMBED_CONSUMER: feed ingestion into this process's store
	var wg sync.WaitGroup
	if app.Consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Consumer.Start(ctx)
			if ctx.Err() == nil {
				logger.Error("embedded consumer exited before shutdown")
				cancel()
			}
		}()
		logger.Info("embedded consumer started")
	}

	server := &http.Server{
		Addr:    addr,
		Handler: httpserver.NewRouter(app.Server),
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("storage", cfg.Storage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	wg.Wait()
	logger.Info("server stopped")
}
