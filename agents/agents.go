// Package agents implements the per-intent chat handlers and the dispatcher
// that routes a message to exactly one of them.
package agents

import (
	"context"
	"errors"
	"fmt"

	"healthagent"
	"healthagent/store"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Agent labels reported in ChatResponse.Agent.
const (
	AgentGreeting    = "greeting"
	AgentMood        = "mood"
	AgentCGM         = "cgm"
	AgentFood        = "food"
	AgentMealPlanner = "meal_planner"
	AgentInterrupt   = "interrupt"
	AgentFallback    = "fallback"
)

const (
	MinUserID = 1
	MaxUserID = 100
)

// Input is what every handler receives after routing.
type Input struct {
	UserID  *int
	Message string
	// Number is the first integer found in Message.
	Number *int
}

// Reply is a handler's answer before it is wrapped into a ChatResponse.
type Reply struct {
	Content string
	Agent   string
}

// Handler answers one kind of intent. Expected user-input problems are
// answered with a re-prompt; only store and generation failures are returned
// as errors.
type Handler interface {
	Name() string
	Description() string
	InputSchema() *jsonschema.Schema
	Handle(ctx context.Context, in Input) (Reply, error)
}

const capabilities = `How can I assist you today? I can help you with:
- Logging your mood
- Recording CGM readings
- Tracking food intake
- Generating personalized meal plans
- Answering general questions`

const fallbackText = `I'm experiencing some technical difficulties right now, but I'm still here to help! Please try asking me about:
- Logging your mood
- Recording CGM readings
- Tracking food intake
- Generating meal plans`

// FallbackReply is served in place of any handler that failed unexpectedly.
func FallbackReply() Reply {
	return Reply{Content: fallbackText, Agent: AgentFallback}
}

// ValidateUserID checks the accepted ID range.
func ValidateUserID(id *int) error {
	if id == nil {
		return fmt.Errorf("%w: user id is required", healthagent.ErrValidation)
	}
	if *id < MinUserID || *id > MaxUserID {
		return fmt.Errorf("%w: user id %d outside %d-%d", healthagent.ErrValidation, *id, MinUserID, MaxUserID)
	}
	return nil
}

// resolveProfile returns the profile for in.UserID. A missing, out-of-range
// or unknown ID comes back as ErrValidation or ErrNotFound; any other error
// is a store failure.
func resolveProfile(ctx context.Context, s store.Store, id *int) (store.Profile, error) {
	if err := ValidateUserID(id); err != nil {
		return store.Profile{}, err
	}
	return s.GetProfile(ctx, *id)
}

// expected reports whether err is a user-input condition to re-prompt on.
func expected(err error) bool {
	return errors.Is(err, healthagent.ErrValidation) || errors.Is(err, healthagent.ErrNotFound)
}

func userIDSchema() *jsonschema.Schema {
	lo, hi := float64(MinUserID), float64(MaxUserID)
	return &jsonschema.Schema{
		Type:        "integer",
		Description: "Registered user ID",
		Minimum:     &lo,
		Maximum:     &hi,
	}
}

func messageSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}
