package llm

import (
	"context"

	"healthagent"
)

// UnavailableError is returned by Unavailable. It is never retried.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string   { return "generation unavailable: " + e.Reason }
func (e *UnavailableError) Unwrap() error   { return healthagent.ErrGeneration }
func (e *UnavailableError) Retryable() bool { return false }

// Unavailable stands in for a provider that cannot be configured, so only
// the handlers that generate text fall back.
type Unavailable struct {
	reason string
}

func NewUnavailable(reason string) *Unavailable {
	return &Unavailable{reason: reason}
}

func (u *Unavailable) Generate(ctx context.Context, req healthagent.GenerateRequest) (string, error) {
	return "", &UnavailableError{Reason: u.reason}
}
