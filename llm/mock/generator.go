// Package mock provides a deterministic Generator for tests and offline runs.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"healthagent"
)

// Generator answers with canned text keyed on prompt content. It records
// every request so tests can inspect what was sent.
type Generator struct {
	mu       sync.Mutex
	replies  []reply
	fallback string
	err      error
	requests []healthagent.GenerateRequest
}

type reply struct {
	substr string
	text   string
}

// NewGenerator returns a generator that answers every unmatched prompt with text.
func NewGenerator(text string) *Generator {
	return &Generator{fallback: text}
}

// NewGeneratorWithError returns a generator whose every call fails with ErrGeneration.
func NewGeneratorWithError() *Generator {
	return &Generator{err: fmt.Errorf("%w: mock failure", healthagent.ErrGeneration)}
}

// On registers text as the reply for prompts containing substr. The first registered match wins.
func (g *Generator) On(substr, text string) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, reply{substr: substr, text: text})
	return g
}

// Fail makes every following call return err.
func (g *Generator) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *Generator) Generate(ctx context.Context, req healthagent.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	slog.Info("LLM_CLIENT: Invoked", "model", "mock", "prompt_len", len(req.Prompt))
	g.requests = append(g.requests, req)

	if g.err != nil {
		return "", g.err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", healthagent.ErrGeneration, err)
	}
	for _, r := range g.replies {
		if strings.Contains(req.Prompt, r.substr) {
			return r.text, nil
		}
	}
	return g.fallback, nil
}

// Requests returns a copy of every request received so far.
func (g *Generator) Requests() []healthagent.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]healthagent.GenerateRequest(nil), g.requests...)
}

// Calls returns the number of requests received so far.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}
