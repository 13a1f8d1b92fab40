package agents

import (
	"context"
	"fmt"

	"healthagent/store"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

const invalidUserID = "❌ Invalid User ID. Please enter a valid ID between 1 and 100."

// Greeting validates a user ID and greets the user with their profile.
type Greeting struct{ store store.Store }

func NewGreeting(s store.Store) *Greeting { return &Greeting{store: s} }

func (g *Greeting) Name() string        { return AgentGreeting }
func (g *Greeting) Description() string { return "Greets users and validates their ID" }

func (g *Greeting) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"message": messageSchema("Greeting containing the user ID, e.g. 'hi, my id is 5'"),
			"user_id": userIDSchema(),
		},
		Required: []string{"message"},
	}
}

func (g *Greeting) Handle(ctx context.Context, in Input) (Reply, error) {
	p, err := resolveProfile(ctx, g.store, in.UserID)
	if err != nil {
		if expected(err) {
			return Reply{Content: invalidUserID, Agent: AgentGreeting}, nil
		}
		return Reply{}, err
	}

	content := fmt.Sprintf(`Hello, %s from %s! 👋

User ID %d validated successfully!

Name: %s %s
City: %s
Diet: %s
Medical Conditions: %s
Physical Limitations: %s

%s`,
		p.FirstName, p.City,
		p.UserID,
		p.FirstName, p.LastName,
		p.City,
		p.DietPreference,
		p.MedicalConditions,
		p.PhysicalLimitations,
		capabilities,
	)
	return Reply{Content: content, Agent: AgentGreeting}, nil
}
