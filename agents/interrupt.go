package agents

import (
	"context"
	"strings"

	"healthagent"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// RedirectSentence closes every general answer.
const RedirectSentence = "Is there anything else related to your health tracking I can help you with?"

const interruptSystem = `You are a general knowledge assistant.
You can answer ANY question the user asks, even if unrelated to healthcare.
Be concise but informative.
After answering, ALWAYS say: 'Is there anything else related to your health tracking I can help you with?'`

// Interrupt answers anything the router could not place.
type Interrupt struct{ gen healthagent.Generator }

func NewInterrupt(gen healthagent.Generator) *Interrupt { return &Interrupt{gen: gen} }

func (i *Interrupt) Name() string        { return AgentInterrupt }
func (i *Interrupt) Description() string { return "Handles general Q&A and interruptions" }

func (i *Interrupt) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"message": messageSchema("Any question"),
		},
		Required: []string{"message"},
	}
}

func (i *Interrupt) Handle(ctx context.Context, in Input) (Reply, error) {
	text, err := i.gen.Generate(ctx, healthagent.GenerateRequest{
		System: interruptSystem,
		Prompt: in.Message,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: withRedirect(text), Agent: AgentInterrupt}, nil
}

// withRedirect makes text end with RedirectSentence exactly once.
func withRedirect(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, RedirectSentence) {
		return text
	}
	if text == "" {
		return RedirectSentence
	}
	return text + "\n\n" + RedirectSentence
}
