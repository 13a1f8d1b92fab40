// Package service assembles the store, generator and dispatcher from Config.
// Every entry point (HTTP, Lambda, CLI) builds its dependencies here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"healthagent"
	"healthagent/agents"
	"healthagent/llm"
	"healthagent/llm/bedrock"
	"healthagent/llm/openai"
	"healthagent/slack"
	"healthagent/store"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Service is a fully wired dispatcher and the resources behind it.
type Service struct {
	Store      *store.SQLite
	Registry   *agents.Registry
	Dispatcher *agents.Dispatcher

	cleanups []func() error
}

// Options let callers swap pieces that are otherwise built from Config.
type Options struct {
	// Generator replaces the provider client, mostly for tests.
	Generator         healthagent.Generator
	InteractionLogger healthagent.InteractionLogger
	TracerProvider    trace.TracerProvider
	MeterProvider     metric.MeterProvider
}

// New opens and migrates the database, then wires the handlers and dispatcher.
func New(ctx context.Context, cfg healthagent.Config, opts Options) (*Service, error) {
	db, err := OpenStore(ctx, cfg.Store.DBFile)
	if err != nil {
		return nil, err
	}
	svc := &Service{Store: db, cleanups: []func() error{db.Close}}

	tp, mp := opts.TracerProvider, opts.MeterProvider
	if tp == nil || mp == nil {
		tp, mp, _, _ = healthagent.InitOtel(ctx, false)
	}

	gen := opts.Generator
	if gen == nil {
		gen, err = NewGenerator(ctx, cfg.Model)
		if err != nil {
			return nil, errors.Join(err, svc.Close())
		}
	}
	gen = llm.NewInstrumented(
		llm.NewRetrying(gen, cfg.Model.MaxRetries),
		cfg.Model.Model(),
		tp.Tracer(healthagent.TracerNameGenerator),
		mp.Meter(healthagent.TracerNameGenerator),
	)

	logger := opts.InteractionLogger
	if logger == nil {
		l, cleanup, err := healthagent.NewInteractionLogger(cfg.Server.InteractionLog, cfg.Model.Model())
		if err != nil {
			return nil, errors.Join(err, svc.Close())
		}
		logger = l
		svc.cleanups = append(svc.cleanups, cleanup)
	}

	deps := agents.Deps{Store: db, Generator: gen}
	if cfg.Alert.SlackWebhookURL != "" {
		deps.Slack = slack.NewClient(cfg.Alert.SlackWebhookURL, &http.Client{Timeout: agents.AlertTimeout})
		deps.SlackChannel = cfg.Alert.SlackChannel
		slog.Info("SETUP: Slack alerts enabled", "channel", cfg.Alert.SlackChannel)
	}

	svc.Registry = agents.NewRegistry(deps)
	svc.Dispatcher = agents.NewDispatcher(svc.Registry,
		agents.WithInteractionLogger(logger),
		agents.WithTelemetry(tp, mp),
	)
	slog.Info("SETUP: Dispatcher ready",
		"provider", cfg.Model.Provider,
		"model", cfg.Model.Model(),
		"agents", len(svc.Registry.Handlers()),
	)
	return svc, nil
}

// Close releases the database and interaction log, newest first.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		errs = append(errs, s.cleanups[i]())
	}
	s.cleanups = nil
	return errors.Join(errs...)
}

// OpenStore opens the SQLite file, creating its directory, and applies the schema.
func OpenStore(ctx context.Context, path string) (*store.SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.NewSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	slog.Info("SETUP: Database ready", "path", path)
	return db, nil
}

// NewGenerator builds the provider client named by cfg.Provider. Without an
// API key the OpenAI-compatible provider is replaced by llm.Unavailable.
func NewGenerator(ctx context.Context, cfg healthagent.ModelConfig) (healthagent.Generator, error) {
	switch cfg.Provider {
	case healthagent.ProviderOpenAI, "":
		if cfg.APIKey() == "" {
			slog.Warn("SETUP: No GROQ_API_KEY or OPENAI_API_KEY set, generation disabled")
			return llm.NewUnavailable("no API key configured"), nil
		}
		client, err := openai.NewClient(openai.ClientOpts{
			BaseEndpoint: cfg.Endpoint(),
			APIKey:       cfg.APIKey(),
			ModelID:      cfg.ModelID,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
			TopP:         cfg.TopP,
			Timeout:      cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case healthagent.ProviderBedrock:
		brc, err := newBedrockRuntimeClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Bedrock client: %w", err)
		}
		return bedrock.NewClient(brc, bedrock.Options{
			ModelID:     cfg.BedrockModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			Timeout:     cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}
