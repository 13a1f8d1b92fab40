package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"healthagent"
)

// Memory is an in-process Store for tests and local experiments. Set Err to
// make every call fail with ErrStoreUnavailable.
type Memory struct {
	mu       sync.Mutex
	profiles map[int]Profile
	moods    []MoodEntry
	glucose  []GlucoseEntry
	food     []FoodEntry
	clock    time.Time

	Err error
}

// NewMemory creates a Memory store preloaded with the given profiles.
func NewMemory(profiles ...Profile) *Memory {
	m := &Memory{
		profiles: make(map[int]Profile, len(profiles)),
		clock:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}
	for _, p := range profiles {
		m.profiles[p.UserID] = p
	}
	return m
}

// NewMemoryWithError creates a Memory store whose every operation fails.
func NewMemoryWithError() *Memory {
	m := NewMemory()
	m.Err = fmt.Errorf("%w: connection refused", healthagent.ErrStoreUnavailable)
	return m
}

// tick advances the fake clock so inserts are strictly ordered.
func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *Memory) GetProfile(ctx context.Context, userID int) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Profile{}, m.Err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, fmt.Errorf("user %d: %w", userID, healthagent.ErrNotFound)
	}
	return p, nil
}

func (m *Memory) AppendMood(ctx context.Context, userID int, mood string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.moods = append(m.moods, MoodEntry{UserID: userID, Timestamp: m.tick(), Mood: mood})
	return nil
}

func (m *Memory) AppendGlucose(ctx context.Context, userID int, reading int) (GlucoseAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return GlucoseAck{}, m.Err
	}
	m.glucose = append(m.glucose, GlucoseEntry{UserID: userID, Timestamp: m.tick(), Reading: reading})
	return GlucoseAck{Alert: IsAlert(reading)}, nil
}

func (m *Memory) AppendFood(ctx context.Context, userID int, description string, nutrients *string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	id := int64(len(m.food) + 1)
	m.food = append(m.food, FoodEntry{LogID: id, UserID: userID, Timestamp: m.tick(), Description: description, Nutrients: nutrients})
	return id, nil
}

func (m *Memory) SetFoodNutrients(ctx context.Context, logID int64, nutrients string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if logID < 1 || logID > int64(len(m.food)) {
		return fmt.Errorf("food log %d: %w", logID, healthagent.ErrNotFound)
	}
	m.food[logID-1].Nutrients = &nutrients
	return nil
}

func (m *Memory) RecentMoods(ctx context.Context, userID int, limit int) ([]MoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return newestFirst(m.moods, userID, limit, func(e MoodEntry) int { return e.UserID }), nil
}

func (m *Memory) RecentGlucose(ctx context.Context, userID int, limit int) ([]GlucoseEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return newestFirst(m.glucose, userID, limit, func(e GlucoseEntry) int { return e.UserID }), nil
}

func (m *Memory) RecentFood(ctx context.Context, userID int, limit int) ([]FoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return newestFirst(m.food, userID, limit, func(e FoodEntry) int { return e.UserID }), nil
}

// newestFirst walks an append-only slice backwards, keeping up to limit entries for userID.
func newestFirst[T any](entries []T, userID, limit int, owner func(T) int) []T {
	limit = normalizeLimit(limit)
	out := make([]T, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		if owner(entries[i]) == userID {
			out = append(out, entries[i])
		}
	}
	return out
}
