// Package openai talks to OpenAI-compatible chat completion endpoints (Groq, OpenAI).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"healthagent"
)

const (
	defaultModelID     = "llama-3.1-70b-versatile"
	defaultMaxTokens   = 1024
	defaultTemperature = 0.2
	defaultTopP        = 0.9
	defaultTimeout     = 30 * time.Second
)

type Client struct {
	endpoint   string
	apiKey     string
	httpClient healthagent.HTTPClient
	opts       ClientOpts
}

type ClientOpts struct {
	BaseEndpoint string
	APIKey       string
	ModelID      string
	MaxTokens    int32
	Temperature  float32
	TopP         float32
	Timeout      time.Duration
	HTTPClient   healthagent.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.BaseEndpoint) == "" {
		return nil, fmt.Errorf("missing base endpoint")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("missing API key")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	return &Client{
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/chat/completions",
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		opts:       opts,
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type wireResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate sends one system+user exchange and returns the first choice's text.
func (c *Client) Generate(ctx context.Context, req healthagent.GenerateRequest) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.opts.ModelID, "prompt_len", len(req.Prompt))

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	maxTokens := c.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	msgs := make([]wireMessage, 0, 2)
	if sp := strings.TrimSpace(req.System); sp != "" {
		msgs = append(msgs, wireMessage{Role: "system", Content: sp})
	}
	msgs = append(msgs, wireMessage{Role: "user", Content: req.Prompt})

	reqBytes, err := json.Marshal(wireRequest{
		Model:       c.opts.ModelID,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", healthagent.ErrGeneration, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %w", healthagent.ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", healthagent.ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", healthagent.ErrGeneration, err)
	}
	if len(wr.Choices) == 0 {
		return "", fmt.Errorf("%w: response had no choices", healthagent.ErrGeneration)
	}

	choice := wr.Choices[0]
	slog.Info("LLM_CLIENT: Invoke succeeded",
		"finish_reason", choice.FinishReason,
		"input_tokens", wr.Usage.PromptTokens,
		"output_tokens", wr.Usage.CompletionTokens,
	)
	if choice.FinishReason == "length" {
		slog.Warn("LLM_CLIENT: Model hit max_tokens limit; returning truncated text")
	}

	return strings.TrimSpace(choice.Message.Content), nil
}

// StatusError is a non-200 reply from the completion endpoint.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("LLM_CLIENT: %s: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return healthagent.ErrGeneration }

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}
