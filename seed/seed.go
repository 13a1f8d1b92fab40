// Package seed generates synthetic user profiles for local development.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"healthagent/store"

	"github.com/brianvoe/gofakeit/v7"
)

const NumUsers = 100

var (
	Cities = []string{"New York", "London", "Tokyo", "Bangalore", "Sydney", "Toronto", "Berlin", "Singapore"}
	Diets  = []string{"vegetarian", "non-vegetarian", "vegan"}

	MedicalConditions = []string{
		"Type 2 Diabetes",
		"Hypertension",
		"Celiac Disease",
		"Heart Disease",
		"High Cholesterol",
		"None",
	}

	PhysicalLimitations = []string{
		"None",
		"Mobility issues",
		"Swallowing difficulties",
		"Visual impairment",
		"Hearing impairment",
	}
)

const diabetes = "Type 2 Diabetes"

// Generator produces profiles. The same seed yields the same profiles;
// seed 0 picks a random one.
type Generator struct {
	faker *gofakeit.Faker
}

func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Profiles returns profiles with IDs 1..n.
func (g *Generator) Profiles(n int) []store.Profile {
	profiles := make([]store.Profile, 0, n)
	for id := 1; id <= n; id++ {
		profiles = append(profiles, g.Profile(id))
	}
	return profiles
}

// Profile builds one profile. Diets rotate by ID, every fifth user has
// Type 2 Diabetes, and "None" never appears next to a real condition.
func (g *Generator) Profile(id int) store.Profile {
	return store.Profile{
		UserID:              id,
		FirstName:           g.faker.FirstName(),
		LastName:            g.faker.LastName(),
		City:                g.faker.RandomString(Cities),
		DietPreference:      Diets[(id-1)%len(Diets)],
		MedicalConditions:   strings.Join(g.conditions(id), ", "),
		PhysicalLimitations: g.faker.RandomString(PhysicalLimitations),
	}
}

func (g *Generator) conditions(id int) []string {
	pool := slices.Clone(MedicalConditions)
	g.faker.ShuffleStrings(pool)
	conditions := pool[:g.faker.IntRange(1, 2)]

	if id%5 == 0 && !slices.Contains(conditions, diabetes) {
		conditions[0] = diabetes
	}
	if len(conditions) > 1 {
		conditions = slices.DeleteFunc(conditions, func(c string) bool { return c == "None" })
	}
	return conditions
}

// ProfileWriter is the subset of the SQLite store the seeder needs.
type ProfileWriter interface {
	Migrate(ctx context.Context) error
	InsertProfiles(ctx context.Context, profiles []store.Profile) error
	CountProfiles(ctx context.Context) (int, error)
}

// Seed creates the schema, writes profiles and returns the resulting row count.
func Seed(ctx context.Context, w ProfileWriter, profiles []store.Profile) (int, error) {
	if err := w.Migrate(ctx); err != nil {
		return 0, fmt.Errorf("failed to migrate: %w", err)
	}
	if err := w.InsertProfiles(ctx, profiles); err != nil {
		return 0, fmt.Errorf("failed to insert profiles: %w", err)
	}
	count, err := w.CountProfiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	slog.Info("SEED: Generated user records",
		"count", count,
		"cities", len(Cities),
		"diets", strings.Join(Diets, ", "),
		"medical_conditions", len(MedicalConditions),
		"physical_limitations", len(PhysicalLimitations),
	)
	return count, nil
}
