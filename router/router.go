// Package router classifies free-text chat messages into intents.
package router

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type Intent string

const (
	Greeting  Intent = "greeting"
	Mood      Intent = "mood"
	Glucose   Intent = "glucose"
	Food      Intent = "food"
	MealPlan  Intent = "meal_plan"
	GeneralQA Intent = "general_qa"
)

// Rule maps a keyword set to an intent. A keyword matches at the start of a
// word, so "moods" and "readings" match but "this" does not match "hi". A
// multi-word keyword matches the same words in sequence.
type Rule struct {
	Intent   Intent
	Keywords []string
}

// Matches reports whether any keyword occurs in the normalized message.
func (r Rule) Matches(normalized string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(normalized, " "+kw) {
			return true
		}
	}
	return false
}

// Rules is evaluated top to bottom and the first match wins. Keyword sets
// overlap ("breakfast" is both food and meal-plan vocabulary), so order is
// the only disambiguation.
var Rules = []Rule{
	{Intent: Greeting, Keywords: []string{"hello", "hi", "start", "begin", "user id", "id"}},
	{Intent: Mood, Keywords: []string{"mood", "feeling", "happy", "sad", "tired", "excited"}},
	{Intent: Glucose, Keywords: []string{"glucose", "cgm", "blood sugar", "reading"}},
	{Intent: Food, Keywords: []string{"food", "meal", "ate", "eating", "breakfast", "lunch", "dinner"}},
	{Intent: MealPlan, Keywords: []string{"plan", "meal plan", "menu", "suggest"}},
}

var digits = regexp.MustCompile(`[0-9]+`)

// Decision is the routing result for one message.
type Decision struct {
	Intent Intent
	// Number is the first run of decimal digits in the message, if any.
	Number *int
}

// Route classifies message. Messages that match no rule are GeneralQA.
func Route(message string) Decision {
	d := Decision{Intent: GeneralQA, Number: FirstNumber(message)}

	normalized := Normalize(message)
	for _, r := range Rules {
		if r.Matches(normalized) {
			d.Intent = r.Intent
			break
		}
	}
	return d
}

// UserID resolves which user the message is about. A greeting carries the ID
// in its text; a glucose message carries the reading, so only the known ID
// counts; everything else prefers the known ID and falls back to the text.
func (d Decision) UserID(known *int) *int {
	switch d.Intent {
	case Greeting:
		if d.Number != nil {
			return d.Number
		}
		return known
	case Glucose:
		return known
	default:
		if known != nil {
			return known
		}
		return d.Number
	}
}

// Reading returns the glucose reading carried by a glucose message.
func (d Decision) Reading() *int {
	if d.Intent != Glucose {
		return nil
	}
	return d.Number
}

// Normalize case-folds message and collapses it to space-separated
// alphanumeric words, padded with a space on both ends.
func Normalize(message string) string {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

// FirstNumber extracts the first maximal run of decimal digits.
func FirstNumber(message string) *int {
	m := digits.FindString(message)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}
