package healthagent

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// InteractionLogger records one entry per handled chat message.
type InteractionLogger interface {
	LogInteraction(entry InteractionLog) error
}

// NewInteractionLogFilePath returns a file path based on a cleaned up model id, so logs from different models are easy to tell apart.
func NewInteractionLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.jsonl",
		time.Now().Unix(),
		strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model)),
	)
}

// InteractionLog represents a single routed message and its reply.
type InteractionLog struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    *int      `json:"user_id,omitempty"`
	Intent    string    `json:"intent"`
	Agent     string    `json:"agent"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Duration  float64   `json:"duration_ms"`
	Error     string    `json:"error,omitempty"`
}

// JSONLInteractionLogger writes each entry as a JSON line. Safe for concurrent use.
type JSONLInteractionLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewJSONLInteractionLogger creates a logger writing to w.
func NewJSONLInteractionLogger(w io.Writer) *JSONLInteractionLogger {
	return &JSONLInteractionLogger{writer: w}
}

// NewStdoutInteractionLogger writes entries to os.Stdout (for Lambda/CloudWatch).
func NewStdoutInteractionLogger() *JSONLInteractionLogger {
	return NewJSONLInteractionLogger(os.Stdout)
}

// LogInteraction marshals and writes the entry followed by a newline.
func (l *JSONLInteractionLogger) LogInteraction(entry InteractionLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction log: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintln(l.writer, string(data)); err != nil {
		return fmt.Errorf("failed to write interaction log: %w", err)
	}
	return nil
}

// NoOpInteractionLogger discards all entries.
type NoOpInteractionLogger struct{}

func NewNoOpInteractionLogger() *NoOpInteractionLogger {
	return &NoOpInteractionLogger{}
}

func (nop *NoOpInteractionLogger) LogInteraction(entry InteractionLog) error {
	return nil
}

// NewInteractionLogger resolves the INTERACTION_LOG setting: "none", "stdout", or a file path
// ("auto" picks a path under ./logs named after the model). The returned cleanup closes any opened file.
func NewInteractionLogger(target, modelID string) (InteractionLogger, func() error, error) {
	noop := func() error { return nil }

	switch target {
	case "", "none":
		return NewNoOpInteractionLogger(), noop, nil
	case "stdout":
		return NewStdoutInteractionLogger(), noop, nil
	case "auto":
		target = NewInteractionLogFilePath(modelID)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, noop, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewJSONLInteractionLogger(f), f.Close, nil
}
