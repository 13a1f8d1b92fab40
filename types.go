package healthagent

import (
	"context"
	"net/http"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Generator produces text from a hosted model. Implementations wrap failures in ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest is a single-turn completion: one system instruction and one user prompt.
type GenerateRequest struct {
	System    string `json:"system"`
	Prompt    string `json:"prompt"`
	MaxTokens int32  `json:"max_tokens,omitempty"`
}

// ChatRequest is the inbound chat payload shared by the HTTP and Lambda surfaces.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
	UserID  *int   `json:"user_id,omitempty"`
}

// ChatResponse is the normalized reply: role is always "assistant", agent names the handler.
type ChatResponse struct {
	Content string `json:"content"`
	Role    string `json:"role"`
	Agent   string `json:"agent"`
}

const RoleAssistant = "assistant"
