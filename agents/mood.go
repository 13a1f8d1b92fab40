package agents

import (
	"context"
	"fmt"
	"strings"

	"healthagent/store"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// MoodVocabulary is searched in order; the first contained word wins.
var MoodVocabulary = []string{"happy", "sad", "tired", "excited", "anxious", "angry", "calm", "stressed"}

const (
	moodNeedsUser = "I'd be happy to help you log your mood! Please share your User ID (1-100) first."
	moodAskAgain  = "I'd be happy to help you log your mood! How are you feeling right now? (happy, sad, tired, excited, anxious, etc.)"
)

// Mood logs a detected mood and summarizes the last week of entries.
type Mood struct{ store store.Store }

func NewMood(s store.Store) *Mood { return &Mood{store: s} }

func (m *Mood) Name() string        { return AgentMood }
func (m *Mood) Description() string { return "Tracks user mood and provides summaries" }

func (m *Mood) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"message": messageSchema("How the user feels: " + strings.Join(MoodVocabulary, ", ")),
			"user_id": userIDSchema(),
		},
		Required: []string{"message", "user_id"},
	}
}

func (m *Mood) Handle(ctx context.Context, in Input) (Reply, error) {
	p, err := resolveProfile(ctx, m.store, in.UserID)
	if err != nil {
		if expected(err) {
			return Reply{Content: moodNeedsUser, Agent: AgentMood}, nil
		}
		return Reply{}, err
	}

	mood := DetectMood(in.Message)
	if mood == "" {
		return Reply{Content: moodAskAgain, Agent: AgentMood}, nil
	}

	if err := m.store.AppendMood(ctx, p.UserID, mood); err != nil {
		return Reply{}, err
	}
	recent, err := m.store.RecentMoods(ctx, p.UserID, store.DefaultLimit)
	if err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Mood '%s' logged successfully\n\n", mood)
	b.WriteString("📊 Your 7-day mood summary:\n")
	for _, c := range Histogram(recent) {
		fmt.Fprintf(&b, "• %s: %d\n", c.Mood, c.Count)
	}
	b.WriteString("\nYour mood has been logged successfully!")
	return Reply{Content: b.String(), Agent: AgentMood}, nil
}

// DetectMood returns the first vocabulary word contained in message, or "".
func DetectMood(message string) string {
	lower := strings.ToLower(message)
	for _, mood := range MoodVocabulary {
		if strings.Contains(lower, mood) {
			return mood
		}
	}
	return ""
}

type MoodCount struct {
	Mood  string
	Count int
}

// Histogram counts entries per mood, ordered by first occurrence.
func Histogram(entries []store.MoodEntry) []MoodCount {
	var counts []MoodCount
	index := map[string]int{}
	for _, e := range entries {
		i, ok := index[e.Mood]
		if !ok {
			index[e.Mood] = len(counts)
			counts = append(counts, MoodCount{Mood: e.Mood, Count: 1})
			continue
		}
		counts[i].Count++
	}
	return counts
}
