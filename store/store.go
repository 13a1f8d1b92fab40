// Package store persists user profiles and the mood, glucose and food log streams.
package store

import (
	"context"
	"time"
)

// DefaultLimit bounds Recent* queries when the caller passes a non-positive limit.
const DefaultLimit = 7

// Glucose readings outside [AlertLow, AlertHigh] mg/dL flag an alert but are still stored.
const (
	AlertLow  = 80
	AlertHigh = 300
)

type Profile struct {
	UserID              int    `json:"user_id"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	City                string `json:"city"`
	DietPreference      string `json:"diet_preference"`
	MedicalConditions   string `json:"medical_conditions"`
	PhysicalLimitations string `json:"physical_limitations"`
}

type MoodEntry struct {
	UserID    int       `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Mood      string    `json:"mood"`
}

type GlucoseEntry struct {
	UserID    int       `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Reading   int       `json:"glucose_reading"`
}

type FoodEntry struct {
	LogID       int64     `json:"log_id"`
	UserID      int       `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"meal_description"`
	Nutrients   *string   `json:"nutrients"`
}

// GlucoseAck acknowledges a stored reading.
type GlucoseAck struct {
	Alert bool `json:"alert"`
}

// Store is the profile/log backend consumed by the agents.
type Store interface {
	GetProfile(ctx context.Context, userID int) (Profile, error)
	AppendMood(ctx context.Context, userID int, mood string) error
	AppendGlucose(ctx context.Context, userID int, reading int) (GlucoseAck, error)
	AppendFood(ctx context.Context, userID int, description string, nutrients *string) (int64, error)
	SetFoodNutrients(ctx context.Context, logID int64, nutrients string) error
	RecentMoods(ctx context.Context, userID int, limit int) ([]MoodEntry, error)
	RecentGlucose(ctx context.Context, userID int, limit int) ([]GlucoseEntry, error)
	RecentFood(ctx context.Context, userID int, limit int) ([]FoodEntry, error)
}

// IsAlert reports whether a reading is outside the normal range.
func IsAlert(reading int) bool {
	return reading < AlertLow || reading > AlertHigh
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
