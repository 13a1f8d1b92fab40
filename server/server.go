// Package server exposes the chat dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"healthagent"
	"healthagent/agents"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	ServiceName     = "Healthcare Multi-Agent System"
	RequestIDHeader = "X-Request-ID"

	localsRequestID = "request_id"
)

// Dispatcher answers one chat message.
type Dispatcher interface {
	Dispatch(ctx context.Context, req healthagent.ChatRequest) healthagent.ChatResponse
}

type Options struct {
	Dispatcher Dispatcher
	// Agents is served as-is by GET /agno/agents.
	Agents    []agents.AgentInfo
	Validator *validator.Validate
	Tracer    trace.Tracer
}

type Server struct {
	app        *fiber.App
	dispatcher Dispatcher
	agents     []agents.AgentInfo
	validate   *validator.Validate
	tracer     trace.Tracer
}

// New builds the fiber app with CORS, panic recovery, request ids and routes.
func New(opts Options) *Server {
	if opts.Validator == nil {
		opts.Validator = validator.New(validator.WithRequiredStructEnabled())
	}
	if opts.Tracer == nil {
		opts.Tracer = tracenoop.NewTracerProvider().Tracer(healthagent.TracerNameServer)
	}

	s := &Server{
		dispatcher: opts.Dispatcher,
		agents:     opts.Agents,
		validate:   opts.Validator,
		tracer:     opts.Tracer,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// generation may take up to its own timeout plus retries
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, " + RequestIDHeader,
	}))
	s.app.Use(s.requestContext)

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)
	s.app.Get("/agno", s.agnoRoot)
	s.app.Post("/agno", s.chat)
	s.app.Get("/agno/agents", s.listAgents)
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	slog.Info("SETUP: HTTP server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// requestContext assigns a request id, traces the request and logs its outcome.
func (s *Server) requestContext(c *fiber.Ctx) error {
	start := time.Now()

	rid := c.Get(RequestIDHeader)
	if rid == "" {
		rid = uuid.NewString()
	}
	c.Locals(localsRequestID, rid)
	c.Set(RequestIDHeader, rid)

	ctx, span := s.tracer.Start(c.UserContext(), c.Method()+" "+c.Path())
	defer span.End()
	c.SetUserContext(agents.WithRequestID(ctx, rid))

	err := c.Next()
	if err != nil {
		// let the error handler write the status before it is logged
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	span.SetAttributes(
		attribute.String("request_id", rid),
		attribute.Int("http.status_code", status),
	)
	slog.Info("SERVER: Request handled",
		"request_id", rid,
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("SERVER: Request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
