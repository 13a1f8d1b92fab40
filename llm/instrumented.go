package llm

import (
	"context"
	"log/slog"
	"time"

	"healthagent"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumented records a span and call metrics around every generation.
type Instrumented struct {
	next     healthagent.Generator
	model    string
	tracer   trace.Tracer
	calls    metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewInstrumented(next healthagent.Generator, model string, tracer trace.Tracer, meter metric.Meter) *Instrumented {
	calls, err := meter.Int64Counter("llm_calls_total",
		metric.WithDescription("Total number of text generation calls"))
	if err != nil {
		slog.Warn("LLM_CLIENT: Failed to create counter", "name", "llm_calls_total", "error", err)
	}
	failures, err := meter.Int64Counter("llm_calls_failed_total",
		metric.WithDescription("Total number of text generation calls that failed"))
	if err != nil {
		slog.Warn("LLM_CLIENT: Failed to create counter", "name", "llm_calls_failed_total", "error", err)
	}
	latency, err := meter.Float64Histogram("llm_response_time_seconds",
		metric.WithDescription("Time taken to receive a generated response in seconds"))
	if err != nil {
		slog.Warn("LLM_CLIENT: Failed to create histogram", "name", "llm_response_time_seconds", "error", err)
	}

	return &Instrumented{
		next:     next,
		model:    model,
		tracer:   tracer,
		calls:    calls,
		failures: failures,
		latency:  latency,
	}
}

func (i *Instrumented) Generate(ctx context.Context, req healthagent.GenerateRequest) (string, error) {
	ctx, span := i.tracer.Start(ctx, "Generator.Generate")
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("model", i.model))
	span.SetAttributes(
		attribute.String("model", i.model),
		attribute.Int("prompt_size_bytes", len(req.Prompt)),
	)

	start := time.Now()
	text, err := i.next.Generate(ctx, req)
	elapsed := time.Since(start).Seconds()

	if i.calls != nil {
		i.calls.Add(ctx, 1, attrs)
	}
	if i.latency != nil {
		i.latency.Record(ctx, elapsed, attrs)
	}

	if err != nil {
		if i.failures != nil {
			i.failures.Add(ctx, 1, attrs)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", err
	}

	span.SetAttributes(attribute.Int("response_content_length", len(text)))
	span.SetStatus(codes.Ok, "")
	return text, nil
}
