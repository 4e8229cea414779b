package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/agamariel/orderservice/internal/config"
	"github.com/agamariel/orderservice/internal/observability"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instruments, shutdownTelemetry, err := observability.Init(rootCtx, cfg.ServiceName)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	app, err := NewApp(rootCtx, cfg, instruments)
	if err != nil {
		instruments.Logger.Error("failed to initialize application", slog.String("error", err.Error()))
		log.Fatal(err)
	}

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(app.Start)
	g.Go(func() error {
		<-gctx.Done()

		// Graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.Shutdown(ctx); err != nil {
			return err
		}
		return shutdownTelemetry(ctx)
	})

	if err := g.Wait(); err != nil {
		instruments.Logger.Error("order service stopped with error", slog.String("error", err.Error()))
		log.Fatal(err)
	}
}
