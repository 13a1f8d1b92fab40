package agents

import (
	"fmt"

	"healthagent"
	"healthagent/router"
	"healthagent/store"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Store     store.Store
	Generator healthagent.Generator
	// Slack is optional; when set, glucose alerts are posted to SlackChannel.
	Slack        healthagent.SlackClient
	SlackChannel string
}

// Registry maps intents to handlers and keeps the catalog order.
type Registry struct {
	byIntent map[router.Intent]Handler
	ordered  []Handler
}

// NewRegistry wires one handler per intent.
func NewRegistry(deps Deps) *Registry {
	greeting := NewGreeting(deps.Store)
	mood := NewMood(deps.Store)
	glucose := NewGlucose(deps.Store, deps.Slack, deps.SlackChannel)
	food := NewFood(deps.Store, deps.Generator)
	planner := NewMealPlanner(deps.Store, deps.Generator)
	interrupt := NewInterrupt(deps.Generator)

	return &Registry{
		byIntent: map[router.Intent]Handler{
			router.Greeting:  greeting,
			router.Mood:      mood,
			router.Glucose:   glucose,
			router.Food:      food,
			router.MealPlan:  planner,
			router.GeneralQA: interrupt,
		},
		ordered: []Handler{greeting, mood, glucose, food, planner, interrupt},
	}
}

// ForIntent returns the handler for intent; unknown intents get the general handler.
func (r *Registry) ForIntent(intent router.Intent) Handler {
	if h, ok := r.byIntent[intent]; ok {
		return h
	}
	return r.byIntent[router.GeneralQA]
}

// Get retrieves a handler by agent name.
func (r *Registry) Get(name string) (Handler, error) {
	for _, h := range r.ordered {
		if h.Name() == name {
			return h, nil
		}
	}
	return nil, fmt.Errorf("agent %q not found in registry", name)
}

// Handlers returns every handler in catalog order.
func (r *Registry) Handlers() []Handler {
	return append([]Handler(nil), r.ordered...)
}

// AgentInfo describes one handler for the agents endpoint.
type AgentInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Catalog lists every agent with the request fields it consumes.
func (r *Registry) Catalog() []AgentInfo {
	infos := make([]AgentInfo, 0, len(r.ordered))
	for _, h := range r.ordered {
		infos = append(infos, AgentInfo{
			Name:        h.Name(),
			Description: h.Description(),
			InputSchema: h.InputSchema(),
		})
	}
	return infos
}
