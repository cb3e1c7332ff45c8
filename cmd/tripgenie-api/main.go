// README: Entry point; loads config, wires the trip pipeline and serves the HTTP API until signalled.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tripgenie/internal/app"
	"tripgenie/internal/config"
	httptransport "tripgenie/internal/http"
	"tripgenie/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("wire tripgenie", zap.Error(err))
	}

	// Writes must outlive the slowest trip request.
	srv := httptransport.NewServer(cfg.HTTP.Addr, a.Router(), cfg.HTTP.RequestTimeout+10*time.Second, zl.Named("http"))
	runErr := srv.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		zl.Warn("shutdown", zap.Error(err))
	}
	if runErr != nil {
		zl.Fatal("http server", zap.Error(runErr))
	}
}
