package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"healthagent"
	"healthagent/service"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()

	cfg, err := healthagent.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	tracerProvider, meterProvider, _, err := healthagent.InitOtel(ctx, cfg.Server.OtelEnabled)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %s", err)
	}

	// Warm invocations reuse the connection pool and handlers.
	svc, err := service.New(ctx, cfg, service.Options{
		InteractionLogger: healthagent.NewStdoutInteractionLogger(),
		TracerProvider:    tracerProvider,
		MeterProvider:     meterProvider,
	})
	if err != nil {
		log.Fatalf("Failed to wire service: %s", err)
	}

	fn := func(ctx context.Context, req healthagent.ChatRequest) (healthagent.ChatResponse, error) {
		if strings.TrimSpace(req.Message) == "" {
			return healthagent.ChatResponse{}, fmt.Errorf("message is required: %w", healthagent.ErrValidation)
		}
		slog.Info("DISPATCH: Lambda invocation", "has_user_id", req.UserID != nil)
		return svc.Dispatcher.Dispatch(ctx, req), nil
	}

	lambda.Start(fn)
}
