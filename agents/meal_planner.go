package agents

import (
	"context"
	"errors"
	"strings"

	"healthagent"
	"healthagent/mealplan"
	"healthagent/store"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

const (
	planHeader = "🍽️ **Your Personalized Meal Plan**"
	planFooter = "---\n✅ This plan has been generated based on your current health data and will help you achieve your wellness goals!"

	planMoods     = 3
	planMaxTokens = 1000
)

// MealPlanner generates an adaptive three-meal plan from the user's health
// state, or a static plan when no profile is known.
type MealPlanner struct {
	store store.Store
	gen   healthagent.Generator
}

func NewMealPlanner(s store.Store, gen healthagent.Generator) *MealPlanner {
	return &MealPlanner{store: s, gen: gen}
}

func (m *MealPlanner) Name() string        { return AgentMealPlanner }
func (m *MealPlanner) Description() string { return "Generates personalized meal plans" }

func (m *MealPlanner) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"message": messageSchema("Request for a plan, e.g. 'suggest a menu for today'"),
			"user_id": userIDSchema(),
		},
		Required: []string{"message"},
	}
}

func (m *MealPlanner) Handle(ctx context.Context, in Input) (Reply, error) {
	p, err := resolveProfile(ctx, m.store, in.UserID)
	if err != nil {
		if expected(err) {
			return Reply{Content: mealplan.StaticPlan(), Agent: AgentMealPlanner}, nil
		}
		return Reply{}, err
	}

	plan, err := m.Input(ctx, p)
	if err != nil {
		return Reply{}, err
	}
	constraints := mealplan.Derive(plan)

	text, err := m.gen.Generate(ctx, healthagent.GenerateRequest{
		System:    mealplan.SystemPrompt,
		Prompt:    mealplan.BuildPrompt(plan, constraints),
		MaxTokens: planMaxTokens,
	})
	if err != nil {
		return Reply{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Reply{}, errors.Join(healthagent.ErrGeneration, errors.New("empty meal plan"))
	}

	var b strings.Builder
	b.WriteString(planHeader + "\n\n")
	if labels := constraints.Labels(); len(labels) > 0 {
		b.WriteString("🎯 Adapted for: " + strings.Join(labels, ", ") + "\n\n")
	}
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n" + planFooter)
	return Reply{Content: b.String(), Agent: AgentMealPlanner}, nil
}

// Input gathers the rule-engine input for p: its profile, the latest glucose
// reading and the last three moods.
func (m *MealPlanner) Input(ctx context.Context, p store.Profile) (mealplan.Input, error) {
	in := mealplan.Input{
		Diet:        p.DietPreference,
		Conditions:  mealplan.ParseConditions(p.MedicalConditions),
		Limitations: p.PhysicalLimitations,
	}

	readings, err := m.store.RecentGlucose(ctx, p.UserID, 1)
	if err != nil {
		return mealplan.Input{}, err
	}
	if len(readings) > 0 {
		latest := readings[0].Reading
		in.Glucose = &latest
	}

	moods, err := m.store.RecentMoods(ctx, p.UserID, planMoods)
	if err != nil {
		return mealplan.Input{}, err
	}
	for _, e := range moods {
		in.Moods = append(in.Moods, e.Mood)
	}
	return in, nil
}
