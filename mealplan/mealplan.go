// Package mealplan derives dietary constraints from a user's health state and
// turns them into a prompt for a three-meal daily plan.
package mealplan

import (
	"fmt"
	"strings"
)

const (
	// Glucose above GlucoseHigh or below GlucoseLow mg/dL triggers glycemic stabilization.
	GlucoseHigh = 200
	GlucoseLow  = 85

	ConditionDiabetes = "Type 2 Diabetes"
	ConditionCeliac   = "Celiac Disease"

	DietVegan         = "vegan"
	DietVegetarian    = "vegetarian"
	DietNonVegetarian = "non-vegetarian"
)

// Input is everything the rule engine looks at.
type Input struct {
	Diet        string
	Conditions  []string
	Limitations string
	Glucose     *int
	Moods       []string
}

// Constraints are the derived rules; all that apply are combined.
type Constraints struct {
	GlycemicStabilization bool
	DiabetesFriendly      bool
	GlutenFree            bool
	SoftFoods             bool
	Diet                  DietFilter
}

// DietFilter is the hard food filter implied by the diet preference.
type DietFilter int

const (
	Unrestricted DietFilter = iota
	NoMeatOrFish
	NoAnimalProducts
)

func (f DietFilter) String() string {
	switch f {
	case NoAnimalProducts:
		return "vegan (no animal products at all)"
	case NoMeatOrFish:
		return "vegetarian (no meat or fish)"
	default:
		return "non-vegetarian (unrestricted)"
	}
}

// ParseConditions splits a comma-joined condition list, dropping blanks and "None".
func ParseConditions(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		c = strings.TrimSpace(c)
		if c == "" || strings.EqualFold(c, "none") {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Derive applies the adaptive rules to in.
func Derive(in Input) Constraints {
	var c Constraints

	if in.Glucose != nil && (*in.Glucose > GlucoseHigh || *in.Glucose < GlucoseLow) {
		c.GlycemicStabilization = true
	}
	for _, cond := range in.Conditions {
		switch {
		case strings.EqualFold(cond, ConditionDiabetes):
			c.DiabetesFriendly = true
		case strings.EqualFold(cond, ConditionCeliac):
			c.GlutenFree = true
		}
	}
	if strings.Contains(strings.ToLower(in.Limitations), "swallow") {
		c.SoftFoods = true
	}

	switch strings.ToLower(strings.TrimSpace(in.Diet)) {
	case DietVegan:
		c.Diet = NoAnimalProducts
	case DietVegetarian:
		c.Diet = NoMeatOrFish
	default:
		c.Diet = Unrestricted
	}
	return c
}

// Rules renders each active constraint as one instruction line.
func (c Constraints) Rules() []string {
	var rules []string
	if c.GlycemicStabilization {
		rules = append(rules, "Latest glucose is outside the stable range: prioritize LOW-CARB, HIGH-FIBER, low glycemic index meals to stabilize glucose.")
	}
	if c.DiabetesFriendly {
		rules = append(rules, "Type 2 Diabetes: every meal must be diabetes-friendly (low glycemic index, high fiber).")
	}
	if c.GlutenFree {
		rules = append(rules, "Celiac Disease: every meal must be strictly gluten-free.")
	}
	if c.SoftFoods {
		rules = append(rules, "Swallowing difficulties: recommend soft, easy-to-swallow foods.")
	}
	rules = append(rules, "Diet is a hard filter: "+c.Diet.String()+".")
	return rules
}

// Labels lists the short names of the active health constraints.
func (c Constraints) Labels() []string {
	var labels []string
	if c.GlycemicStabilization {
		labels = append(labels, "glycemic stabilization")
	}
	if c.DiabetesFriendly {
		labels = append(labels, "diabetes-friendly")
	}
	if c.GlutenFree {
		labels = append(labels, "gluten-free")
	}
	if c.SoftFoods {
		labels = append(labels, "soft foods")
	}
	return labels
}

const SystemPrompt = "You are an expert nutritionist and meal planner."

const outputTemplate = `Format your response EXACTLY as:

🌅 BREAKFAST: [Meal Name]
- [Item 1]
- [Item 2]
- [Item 3]
📊 Macros: Carbs: Xg | Protein: Yg | Fat: Zg
💡 Note: [Why this meal is appropriate]

☀️ LUNCH: [Meal Name]
- [Item 1]
- [Item 2]
- [Item 3]
📊 Macros: Carbs: Xg | Protein: Yg | Fat: Zg
💡 Note: [Why this meal is appropriate]

🌙 DINNER: [Meal Name]
- [Item 1]
- [Item 2]
- [Item 3]
📊 Macros: Carbs: Xg | Protein: Yg | Fat: Zg
💡 Note: [Why this meal is appropriate]

🎯 PLAN RATIONALE:
[1-2 sentences explaining why this plan is adaptive to their current health status]`

// BuildPrompt assembles the user prompt. Moods are soft context only.
func BuildPrompt(in Input, c Constraints) string {
	glucose := "No data"
	if in.Glucose != nil {
		glucose = fmt.Sprintf("%d mg/dL (Normal: 80-300)", *in.Glucose)
	}
	moods := "No data"
	if len(in.Moods) > 0 {
		moods = strings.Join(in.Moods, ", ")
	}
	conditions := "None"
	if len(in.Conditions) > 0 {
		conditions = strings.Join(in.Conditions, ", ")
	}
	limitations := in.Limitations
	if strings.TrimSpace(limitations) == "" {
		limitations = "None"
	}

	var b strings.Builder
	b.WriteString("Generate a personalized 3-meal plan for today.\n\n")
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Diet: %s\n", in.Diet)
	fmt.Fprintf(&b, "- Medical Conditions: %s\n", conditions)
	fmt.Fprintf(&b, "- Physical Limitations: %s\n", limitations)
	fmt.Fprintf(&b, "- Latest CGM: %s\n", glucose)
	fmt.Fprintf(&b, "- Recent Moods: %s\n\n", moods)

	b.WriteString("MANDATORY CONSTRAINTS (all apply):\n")
	for i, r := range c.Rules() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\nUse the recent moods only as soft context (for example comfort or energy), never to override a constraint.\n\n")
	b.WriteString(outputTemplate)
	return b.String()
}

// StaticPlan is the non-personalized plan served when no profile is known.
func StaticPlan() string {
	return `🍽️ **Your Personalized Meal Plan**

🌅 BREAKFAST: Healthy Oatmeal Bowl
- Steel-cut oats with berries
- Greek yogurt
- Nuts and seeds
📊 Macros: Carbs: 45g | Protein: 20g | Fat: 12g
💡 Note: High fiber for stable glucose

☀️ LUNCH: Grilled Chicken Salad
- Mixed greens with vegetables
- Grilled chicken breast
- Olive oil dressing
📊 Macros: Carbs: 15g | Protein: 35g | Fat: 18g
💡 Note: Low-carb, high protein

🌙 DINNER: Baked Salmon with Quinoa
- Baked salmon fillet
- Quinoa and vegetables
- Herbs and lemon
📊 Macros: Carbs: 35g | Protein: 30g | Fat: 15g
💡 Note: Omega-3 rich, balanced meal

🎯 PLAN RATIONALE: This plan provides balanced nutrition with controlled carbohydrates to help maintain stable blood glucose levels.`
}
