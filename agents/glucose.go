package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"healthagent"
	"healthagent/store"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Readings outside [MinReading, MaxReading] are treated as typos and re-prompted.
const (
	MinReading = 50
	MaxReading = 500
)

const (
	glucoseNeedsUser = "I can help you log your CGM reading! Please share your User ID (1-100) first."
	glucoseAskAgain  = "I can help you log your CGM reading! What's your current glucose reading in mg/dL? (accepted range 50-500)"
	glucoseAlert     = "⚠️ ALERT: Glucose reading outside normal range (80-300 mg/dL)"
)

// AlertTimeout bounds each Slack alert post.
const AlertTimeout = 5 * time.Second

// Glucose logs a CGM reading, flags out-of-range values and reports the
// recent average.
type Glucose struct {
	store        store.Store
	slack        healthagent.SlackClient
	channel      string
	alertTimeout time.Duration
}

// NewGlucose creates the CGM handler. slack may be nil to disable alert posts.
func NewGlucose(s store.Store, slack healthagent.SlackClient, channel string) *Glucose {
	return &Glucose{store: s, slack: slack, channel: channel, alertTimeout: AlertTimeout}
}

func (g *Glucose) Name() string        { return AgentCGM }
func (g *Glucose) Description() string { return "Logs CGM readings and provides alerts" }

func (g *Glucose) InputSchema() *jsonschema.Schema {
	lo, hi := float64(MinReading), float64(MaxReading)
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"message": messageSchema("Message carrying the glucose reading in mg/dL, e.g. 'cgm reading 145'"),
			"user_id": userIDSchema(),
			"glucose_reading": {
				Type:        "integer",
				Description: "Reading in mg/dL, taken from the first number in the message",
				Minimum:     &lo,
				Maximum:     &hi,
			},
		},
		Required: []string{"message", "user_id"},
	}
}

func (g *Glucose) Handle(ctx context.Context, in Input) (Reply, error) {
	p, err := resolveProfile(ctx, g.store, in.UserID)
	if err != nil {
		if expected(err) {
			return Reply{Content: glucoseNeedsUser, Agent: AgentCGM}, nil
		}
		return Reply{}, err
	}

	if err := ValidateReading(in.Number); err != nil {
		return Reply{Content: glucoseAskAgain, Agent: AgentCGM}, nil
	}
	reading := *in.Number

	ack, err := g.store.AppendGlucose(ctx, p.UserID, reading)
	if err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ CGM reading %d mg/dL logged", reading)
	if ack.Alert {
		b.WriteString("\n\n" + glucoseAlert)
		g.notify(ctx, p, reading)
	}

	recent, err := g.store.RecentGlucose(ctx, p.UserID, store.DefaultLimit)
	if err != nil {
		return Reply{}, err
	}
	if avg, ok := Average(recent); ok {
		fmt.Fprintf(&b, "\n\n📊 7-day average: %.1f mg/dL", avg)
	}
	return Reply{Content: b.String(), Agent: AgentCGM}, nil
}

func (g *Glucose) notify(ctx context.Context, p store.Profile, reading int) {
	if g.slack == nil {
		return
	}
	msg := fmt.Sprintf("⚠️ Glucose alert for user %d (%s %s): %d mg/dL is outside %d-%d mg/dL",
		p.UserID, p.FirstName, p.LastName, reading, store.AlertLow, store.AlertHigh)
	ctx, cancel := context.WithTimeout(ctx, g.alertTimeout)
	defer cancel()
	if err := g.slack.PostMessage(ctx, g.channel, msg); err != nil {
		slog.Warn("DISPATCH: Failed to post glucose alert", "user_id", p.UserID, "error", err)
	}
}

// ValidateReading checks the accepted reading range.
func ValidateReading(n *int) error {
	if n == nil {
		return fmt.Errorf("%w: glucose reading is required", healthagent.ErrValidation)
	}
	if *n < MinReading || *n > MaxReading {
		return fmt.Errorf("%w: glucose reading %d outside %d-%d", healthagent.ErrValidation, *n, MinReading, MaxReading)
	}
	return nil
}

// Average returns the arithmetic mean of the readings, false when there are none.
func Average(entries []store.GlucoseEntry) (float64, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	sum := 0
	for _, e := range entries {
		sum += e.Reading
	}
	return float64(sum) / float64(len(entries)), true
}
