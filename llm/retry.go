// Package llm holds Generator decorators shared by every model backend.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"healthagent"

	"github.com/cenkalti/backoff/v5"
)

// retryable is implemented by errors that know whether a resend can succeed.
type retryable interface {
	Retryable() bool
}

// Retrying re-sends failed generations with exponential backoff.
type Retrying struct {
	next       healthagent.Generator
	maxRetries int
	initial    time.Duration
}

// NewRetrying wraps next so that each Generate makes at most maxRetries+1 attempts.
func NewRetrying(next healthagent.Generator, maxRetries int) *Retrying {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrying{next: next, maxRetries: maxRetries, initial: 500 * time.Millisecond}
}

func (r *Retrying) Generate(ctx context.Context, req healthagent.GenerateRequest) (string, error) {
	attempt := 0
	op := func() (string, error) {
		attempt++
		text, err := r.next.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		var re retryable
		if errors.As(err, &re) && !re.Retryable() {
			return "", backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		slog.Warn("LLM_CLIENT: Generation attempt failed", "attempt", attempt, "error", err)
		return "", err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.initial

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(r.maxRetries+1)),
	)
	if err != nil {
		if !errors.Is(err, healthagent.ErrGeneration) {
			return "", errors.Join(healthagent.ErrGeneration, err)
		}
		return "", err
	}
	return text, nil
}
