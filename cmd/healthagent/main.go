package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthagent"
	"healthagent/server"
	"healthagent/service"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("healthagent: %s", err)
	}
}

func run() (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := healthagent.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := healthagent.InitOtel(ctx, cfg.Server.OtelEnabled)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if serr := otelShutdown(context.Background()); serr != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", serr)
		}
	}()

	svc, err := service.New(ctx, cfg, service.Options{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to wire service: %w", err)
	}
	defer func() {
		err = errors.Join(err, svc.Close())
	}()

	srv := server.New(server.Options{
		Dispatcher: svc.Dispatcher,
		Agents:     svc.Registry.Catalog(),
		Tracer:     tracerProvider.Tracer(healthagent.TracerNameServer),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("SERVER: Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
