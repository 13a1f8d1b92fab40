package agents

import (
	"context"
	"log/slog"
	"time"

	"healthagent"
	"healthagent/router"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type requestIDKey struct{}

// WithRequestID attaches a request id that Dispatch will log under.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Dispatcher routes each message to one handler and turns unexpected
// failures into the fallback reply.
type Dispatcher struct {
	registry *Registry
	logger   healthagent.InteractionLogger
	tracer   trace.Tracer

	dispatches metric.Int64Counter
	fallbacks  metric.Int64Counter
	duration   metric.Float64Histogram
}

type Option func(*Dispatcher)

// WithInteractionLogger records every dispatched message.
func WithInteractionLogger(l healthagent.InteractionLogger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithTelemetry traces and counts dispatches.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(d *Dispatcher) {
		d.tracer = tp.Tracer(healthagent.TracerNameDispatcher)
		d.instrument(mp.Meter(healthagent.TracerNameDispatcher))
	}
}

func NewDispatcher(r *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: r,
		logger:   healthagent.NewNoOpInteractionLogger(),
		tracer:   tracenoop.NewTracerProvider().Tracer(healthagent.TracerNameDispatcher),
	}
	d.instrument(metricnoop.NewMeterProvider().Meter(healthagent.TracerNameDispatcher))
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) instrument(meter metric.Meter) {
	var err error
	if d.dispatches, err = meter.Int64Counter("dispatches_total",
		metric.WithDescription("Total number of chat messages dispatched")); err != nil {
		slog.Warn("DISPATCH: Failed to create counter", "name", "dispatches_total", "error", err)
	}
	if d.fallbacks, err = meter.Int64Counter("dispatch_fallbacks_total",
		metric.WithDescription("Total number of replies replaced by the fallback")); err != nil {
		slog.Warn("DISPATCH: Failed to create counter", "name", "dispatch_fallbacks_total", "error", err)
	}
	if d.duration, err = meter.Float64Histogram("dispatch_duration_seconds",
		metric.WithDescription("Time taken to answer one chat message in seconds")); err != nil {
		slog.Warn("DISPATCH: Failed to create histogram", "name", "dispatch_duration_seconds", "error", err)
	}
}

// Registry exposes the handlers behind the dispatcher.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch answers one chat message. It never returns an error: every
// failure becomes the fallback reply.
func (d *Dispatcher) Dispatch(ctx context.Context, req healthagent.ChatRequest) healthagent.ChatResponse {
	start := time.Now()
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}

	ctx, span := d.tracer.Start(ctx, "Dispatcher.Dispatch")
	defer span.End()

	decision := router.Route(req.Message)
	in := Input{
		UserID:  decision.UserID(req.UserID),
		Message: req.Message,
		Number:  decision.Number,
	}
	h := d.registry.ForIntent(decision.Intent)

	slog.Info("DISPATCH: Routed message",
		"request_id", requestID,
		"intent", decision.Intent,
		"agent", h.Name(),
	)
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("intent", string(decision.Intent)),
		attribute.String("agent", h.Name()),
	)

	reply, err := h.Handle(ctx, in)
	var errText string
	if err != nil {
		errText = err.Error()
		slog.Error("DISPATCH: Handler failed, serving fallback",
			"request_id", requestID,
			"agent", h.Name(),
			"unexpected", healthagent.Unexpected(err),
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		if d.fallbacks != nil {
			d.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("agent", h.Name())))
		}
		reply = FallbackReply()
	} else {
		span.SetStatus(codes.Ok, "")
	}

	elapsed := time.Since(start)
	attrs := metric.WithAttributes(
		attribute.String("intent", string(decision.Intent)),
		attribute.String("agent", reply.Agent),
	)
	if d.dispatches != nil {
		d.dispatches.Add(ctx, 1, attrs)
	}
	if d.duration != nil {
		d.duration.Record(ctx, elapsed.Seconds(), attrs)
	}

	if lerr := d.logger.LogInteraction(healthagent.InteractionLog{
		RequestID: requestID,
		Timestamp: start.UTC(),
		UserID:    in.UserID,
		Intent:    string(decision.Intent),
		Agent:     reply.Agent,
		Message:   req.Message,
		Response:  reply.Content,
		Duration:  float64(elapsed.Microseconds()) / 1000,
		Error:     errText,
	}); lerr != nil {
		slog.Warn("DISPATCH: Failed to write interaction log", "request_id", requestID, "error", lerr)
	}

	return healthagent.ChatResponse{
		Content: reply.Content,
		Role:    healthagent.RoleAssistant,
		Agent:   reply.Agent,
	}
}
