package agents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"healthagent"
	"healthagent/llm/mock"
	"healthagent/mealplan"
	"healthagent/slack"
	"healthagent/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func testProfiles() []store.Profile {
	return []store.Profile{
		{
			UserID:              1,
			FirstName:           "Ada",
			LastName:            "Lovelace",
			City:                "London",
			DietPreference:      "vegetarian",
			MedicalConditions:   "Type 2 Diabetes",
			PhysicalLimitations: "None",
		},
		{
			UserID:              2,
			FirstName:           "Kenji",
			LastName:            "Sato",
			City:                "Tokyo",
			DietPreference:      "vegan",
			MedicalConditions:   "Celiac Disease, Hypertension",
			PhysicalLimitations: "Swallowing difficulties",
		},
	}
}

var errDown = fmt.Errorf("%w: disk I/O error", healthagent.ErrStoreUnavailable)

// failingStore fails the named operation and delegates the rest.
type failingStore struct {
	store.Store
	failOn string
}

func (f *failingStore) AppendMood(ctx context.Context, userID int, mood string) error {
	if f.failOn == "AppendMood" {
		return errDown
	}
	return f.Store.AppendMood(ctx, userID, mood)
}

func (f *failingStore) AppendGlucose(ctx context.Context, userID int, reading int) (store.GlucoseAck, error) {
	if f.failOn == "AppendGlucose" {
		return store.GlucoseAck{}, errDown
	}
	return f.Store.AppendGlucose(ctx, userID, reading)
}

func (f *failingStore) AppendFood(ctx context.Context, userID int, description string, nutrients *string) (int64, error) {
	if f.failOn == "AppendFood" {
		return 0, errDown
	}
	return f.Store.AppendFood(ctx, userID, description, nutrients)
}

func (f *failingStore) RecentMoods(ctx context.Context, userID int, limit int) ([]store.MoodEntry, error) {
	if f.failOn == "RecentMoods" {
		return nil, errDown
	}
	return f.Store.RecentMoods(ctx, userID, limit)
}

type recordingSlack struct {
	channel  string
	messages []string
	err      error
}

func (r *recordingSlack) PostMessage(ctx context.Context, channel string, message string) error {
	r.channel = channel
	r.messages = append(r.messages, message)
	return r.err
}

func assertNoWrites(t *testing.T, s store.Store, userID int) {
	t.Helper()
	ctx := context.Background()
	moods, err := s.RecentMoods(ctx, userID, 0)
	require.NoError(t, err)
	glucose, err := s.RecentGlucose(ctx, userID, 0)
	require.NoError(t, err)
	food, err := s.RecentFood(ctx, userID, 0)
	require.NoError(t, err)
	assert.Empty(t, moods)
	assert.Empty(t, glucose)
	assert.Empty(t, food)
}

func TestGreeting(t *testing.T) {
	ctx := context.Background()

	t.Run("known user gets every profile field", func(t *testing.T) {
		for _, p := range testProfiles() {
			reply, err := NewGreeting(store.NewMemory(testProfiles()...)).Handle(ctx, Input{UserID: intp(p.UserID)})
			require.NoError(t, err)
			assert.Equal(t, AgentGreeting, reply.Agent)
			for _, field := range []string{p.FirstName, p.LastName, p.City, p.DietPreference, p.MedicalConditions, p.PhysicalLimitations} {
				assert.Contains(t, reply.Content, field)
			}
			assert.Contains(t, reply.Content, "Generating personalized meal plans")
		}
	})

	invalid := []struct {
		name string
		id   *int
	}{
		{name: "absent", id: nil},
		{name: "zero", id: intp(0)},
		{name: "negative", id: intp(-3)},
		{name: "above range", id: intp(101)},
		{name: "in range but unknown", id: intp(42)},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory(testProfiles()...)
			reply, err := NewGreeting(s).Handle(ctx, Input{UserID: tt.id})
			require.NoError(t, err)
			assert.Equal(t, invalidUserID, reply.Content)
			if tt.id != nil {
				assertNoWrites(t, s, *tt.id)
			}
		})
	}

	t.Run("store failure is returned", func(t *testing.T) {
		_, err := NewGreeting(store.NewMemoryWithError()).Handle(ctx, Input{UserID: intp(1)})
		assert.True(t, healthagent.Unexpected(err))
	})
}

func TestMood(t *testing.T) {
	ctx := context.Background()

	t.Run("needs a user", func(t *testing.T) {
		reply, err := NewMood(store.NewMemory(testProfiles()...)).Handle(ctx, Input{Message: "I'm happy"})
		require.NoError(t, err)
		assert.Equal(t, moodNeedsUser, reply.Content)
	})

	t.Run("no mood word asks again without writing", func(t *testing.T) {
		s := store.NewMemory(testProfiles()...)
		reply, err := NewMood(s).Handle(ctx, Input{UserID: intp(1), Message: "my mood is meh"})
		require.NoError(t, err)
		assert.Equal(t, moodAskAgain, reply.Content)
		assertNoWrites(t, s, 1)
	})

	t.Run("logs and summarizes in first-seen order", func(t *testing.T) {
		s := store.NewMemory(testProfiles()...)
		h := NewMood(s)
		var reply Reply
		for _, msg := range []string{"happy", "feeling sad", "happy again", "so happy"} {
			var err error
			reply, err = h.Handle(ctx, Input{UserID: intp(1), Message: msg})
			require.NoError(t, err)
		}
		assert.Equal(t, AgentMood, reply.Agent)
		assert.Contains(t, reply.Content, "✅ Mood 'happy' logged successfully")
		assert.Contains(t, reply.Content, "• happy: 3\n• sad: 1\n")
	})

	t.Run("summary covers the last seven entries", func(t *testing.T) {
		s := store.NewMemory(testProfiles()...)
		h := NewMood(s)
		for i := 0; i < 9; i++ {
			_, err := h.Handle(ctx, Input{UserID: intp(2), Message: "tired"})
			require.NoError(t, err)
		}
		reply, err := h.Handle(ctx, Input{UserID: intp(2), Message: "calm"})
		require.NoError(t, err)
		assert.Contains(t, reply.Content, "• calm: 1\n• tired: 6\n")
	})

	t.Run("append failure is returned", func(t *testing.T) {
		s := &failingStore{Store: store.NewMemory(testProfiles()...), failOn: "AppendMood"}
		_, err := NewMood(s).Handle(ctx, Input{UserID: intp(1), Message: "happy"})
		assert.True(t, errors.Is(err, healthagent.ErrStoreUnavailable))
	})
}

func TestDetectMood(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{message: "I'm so happy and sad", want: "happy"},
		{message: "sad and happy", want: "happy"},
		{message: "Feeling STRESSED", want: "stressed"},
		{message: "pretty calm today", want: "calm"},
		{message: "unhappy", want: "happy"},
		{message: "meh", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMood(tt.message))
		})
	}
}

func TestHistogram(t *testing.T) {
	entries := []store.MoodEntry{{Mood: "sad"}, {Mood: "happy"}, {Mood: "sad"}, {Mood: "calm"}}
	assert.Equal(t, []MoodCount{{"sad", 2}, {"happy", 1}, {"calm", 1}}, Histogram(entries))
	assert.Empty(t, Histogram(nil))
}

func TestGlucose(t *testing.T) {
	ctx := context.Background()

	t.Run("needs a user", func(t *testing.T) {
		reply, err := NewGlucose(store.NewMemory(testProfiles()...), nil, "").Handle(ctx, Input{Number: intp(120)})
		require.NoError(t, err)
		assert.Equal(t, glucoseNeedsUser, reply.Content)
	})

	for _, n := range []*int{nil, intp(49), intp(501)} {
		name := "missing"
		if n != nil {
			name = fmt.Sprint(*n)
		}
		t.Run("rejects reading "+name, func(t *testing.T) {
			s := store.NewMemory(testProfiles()...)
			reply, err := NewGlucose(s, nil, "").Handle(ctx, Input{UserID: intp(1), Number: n})
			require.NoError(t, err)
			assert.Equal(t, glucoseAskAgain, reply.Content)
			assertNoWrites(t, s, 1)
		})
	}

	alertCases := []struct {
		reading int
		alert   bool
	}{
		{reading: 50, alert: true},
		{reading: 79, alert: true},
		{reading: 80, alert: false},
		{reading: 145, alert: false},
		{reading: 300, alert: false},
		{reading: 301, alert: true},
		{reading: 500, alert: true},
	}
	for _, tt := range alertCases {
		t.Run(fmt.Sprintf("reading %d", tt.reading), func(t *testing.T) {
			slack := &recordingSlack{}
			reply, err := NewGlucose(store.NewMemory(testProfiles()...), slack, "#health-alerts").
				Handle(ctx, Input{UserID: intp(1), Number: intp(tt.reading)})
			require.NoError(t, err)
			assert.Equal(t, AgentCGM, reply.Agent)
			assert.Contains(t, reply.Content, fmt.Sprintf("✅ CGM reading %d mg/dL logged", tt.reading))
			assert.Contains(t, reply.Content, fmt.Sprintf("📊 7-day average: %d.0 mg/dL", tt.reading))
			if tt.alert {
				assert.Contains(t, reply.Content, glucoseAlert)
				require.Len(t, slack.messages, 1)
				assert.Equal(t, "#health-alerts", slack.channel)
				assert.Contains(t, slack.messages[0], fmt.Sprintf("%d mg/dL", tt.reading))
				assert.Contains(t, slack.messages[0], "Ada Lovelace")
			} else {
				assert.NotContains(t, reply.Content, "ALERT")
				assert.Empty(t, slack.messages)
			}
		})
	}

	t.Run("seven day average", func(t *testing.T) {
		h := NewGlucose(store.NewMemory(testProfiles()...), nil, "")
		var reply Reply
		for _, r := range []int{90, 100, 110} {
			var err error
			reply, err = h.Handle(ctx, Input{UserID: intp(2), Number: intp(r)})
			require.NoError(t, err)
		}
		assert.True(t, strings.HasSuffix(reply.Content, "📊 7-day average: 100.0 mg/dL"))
	})

	t.Run("slack failure does not fail the reply", func(t *testing.T) {
		slack := &recordingSlack{err: errors.New("webhook down")}
		reply, err := NewGlucose(store.NewMemory(testProfiles()...), slack, "#c").Handle(ctx, Input{UserID: intp(1), Number: intp(320)})
		require.NoError(t, err)
		assert.Contains(t, reply.Content, glucoseAlert)
	})

	t.Run("stalled webhook does not block the reply", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		h := NewGlucose(store.NewMemory(testProfiles()...), slack.NewClient(srv.URL, http.DefaultClient), "#c")
		h.alertTimeout = 50 * time.Millisecond

		done := make(chan Reply, 1)
		go func() {
			reply, err := h.Handle(ctx, Input{UserID: intp(1), Number: intp(350)})
			assert.NoError(t, err)
			done <- reply
		}()

		select {
		case reply := <-done:
			assert.Contains(t, reply.Content, glucoseAlert)
			assert.Contains(t, reply.Content, "✅ CGM reading 350 mg/dL logged")
		case <-time.After(2 * time.Second):
			t.Fatal("glucose reply blocked on the alert webhook")
		}
	})

	t.Run("append failure is returned", func(t *testing.T) {
		s := &failingStore{Store: store.NewMemory(testProfiles()...), failOn: "AppendGlucose"}
		_, err := NewGlucose(s, nil, "").Handle(ctx, Input{UserID: intp(1), Number: intp(120)})
		assert.True(t, healthagent.Unexpected(err))
	})
}

func TestAverage(t *testing.T) {
	_, ok := Average(nil)
	assert.False(t, ok)

	avg, ok := Average([]store.GlucoseEntry{{Reading: 90}, {Reading: 100}, {Reading: 110}})
	require.True(t, ok)
	assert.Equal(t, 100.0, avg)

	avg, _ = Average([]store.GlucoseEntry{{Reading: 100}, {Reading: 101}})
	assert.Equal(t, "100.5", fmt.Sprintf("%.1f", avg))
}

func TestFood(t *testing.T) {
	ctx := context.Background()

	t.Run("needs a user", func(t *testing.T) {
		reply, err := NewFood(store.NewMemory(testProfiles()...), mock.NewGenerator("x")).Handle(ctx, Input{Message: "I ate toast"})
		require.NoError(t, err)
		assert.Equal(t, foodNeedsUser, reply.Content)
	})

	t.Run("stores categorized nutrients", func(t *testing.T) {
		s := store.NewMemory(testProfiles()...)
		gen := mock.NewGenerator(" Carbs: 40g, Protein: 12g, Fat: 8g ")
		reply, err := NewFood(s, gen).Handle(ctx, Input{UserID: intp(1), Message: "I ate oatmeal with berries"})
		require.NoError(t, err)
		assert.Equal(t, AgentFood, reply.Agent)
		assert.Contains(t, reply.Content, "🍽️ Meal: I ate oatmeal with berries")
		assert.Contains(t, reply.Content, "📊 Estimated nutrients: Carbs: 40g, Protein: 12g, Fat: 8g")

		logs, err := s.RecentFood(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "I ate oatmeal with berries", logs[0].Description)
		require.NotNil(t, logs[0].Nutrients)
		assert.Equal(t, "Carbs: 40g, Protein: 12g, Fat: 8g", *logs[0].Nutrients)

		require.Len(t, gen.Requests(), 1)
		req := gen.Requests()[0]
		assert.Equal(t, nutrientSystem, req.System)
		assert.Equal(t, "Analyze this meal: I ate oatmeal with berries", req.Prompt)
		assert.Equal(t, int32(50), req.MaxTokens)
	})

	t.Run("categorization failure stores placeholder", func(t *testing.T) {
		s := store.NewMemory(testProfiles()...)
		reply, err := NewFood(s, mock.NewGeneratorWithError()).Handle(ctx, Input{UserID: intp(2), Message: "rice and beans for lunch"})
		require.NoError(t, err)
		assert.Contains(t, reply.Content, PlaceholderNutrients)

		logs, err := s.RecentFood(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, PlaceholderNutrients, *logs[0].Nutrients)
	})

	t.Run("append failure skips categorization", func(t *testing.T) {
		gen := mock.NewGenerator("x")
		s := &failingStore{Store: store.NewMemory(testProfiles()...), failOn: "AppendFood"}
		_, err := NewFood(s, gen).Handle(ctx, Input{UserID: intp(1), Message: "toast"})
		assert.True(t, healthagent.Unexpected(err))
		assert.Zero(t, gen.Calls())
	})
}

func TestMealPlanner(t *testing.T) {
	ctx := context.Background()

	for _, id := range []*int{nil, intp(42), intp(500)} {
		t.Run("static plan without profile", func(t *testing.T) {
			gen := mock.NewGenerator("should not be used")
			reply, err := NewMealPlanner(store.NewMemory(testProfiles()...), gen).Handle(ctx, Input{UserID: id})
			require.NoError(t, err)
			assert.Equal(t, mealplan.StaticPlan(), reply.Content)
			assert.Equal(t, AgentMealPlanner, reply.Agent)
			assert.Zero(t, gen.Calls())
		})
	}

	t.Run("high glucose with diabetes flags both constraints", func(t *testing.T) {
		s := store.NewMemory(testProfiles()...)
		_, err := s.AppendGlucose(ctx, 1, 260)
		require.NoError(t, err)
		require.NoError(t, s.AppendMood(ctx, 1, "tired"))

		gen := mock.NewGenerator("🌅 BREAKFAST: Chia pudding")
		reply, err := NewMealPlanner(s, gen).Handle(ctx, Input{UserID: intp(1)})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(reply.Content, planHeader))
		assert.Contains(t, reply.Content, "🎯 Adapted for: glycemic stabilization, diabetes-friendly")
		assert.Contains(t, reply.Content, "🌅 BREAKFAST: Chia pudding")
		assert.True(t, strings.HasSuffix(reply.Content, planFooter))

		require.Len(t, gen.Requests(), 1)
		req := gen.Requests()[0]
		assert.Equal(t, mealplan.SystemPrompt, req.System)
		assert.Contains(t, req.Prompt, "LOW-CARB, HIGH-FIBER")
		assert.Contains(t, req.Prompt, "diabetes-friendly")
		assert.Contains(t, req.Prompt, "- Latest CGM: 260 mg/dL")
		assert.Contains(t, req.Prompt, "- Recent Moods: tired")
	})

	t.Run("input uses latest reading and three newest moods", func(t *testing.T) {
		s := store.NewMemory(testProfiles()...)
		for _, r := range []int{150, 70} {
			_, err := s.AppendGlucose(ctx, 2, r)
			require.NoError(t, err)
		}
		for _, m := range []string{"happy", "sad", "tired", "calm"} {
			require.NoError(t, s.AppendMood(ctx, 2, m))
		}

		p, err := s.GetProfile(ctx, 2)
		require.NoError(t, err)
		in, err := NewMealPlanner(s, mock.NewGenerator("")).Input(ctx, p)
		require.NoError(t, err)

		assert.Equal(t, intp(70), in.Glucose)
		assert.Equal(t, []string{"calm", "tired", "sad"}, in.Moods)
		assert.Equal(t, []string{"Celiac Disease", "Hypertension"}, in.Conditions)
		assert.Equal(t, mealplan.Constraints{
			GlycemicStabilization: true,
			GlutenFree:            true,
			SoftFoods:             true,
			Diet:                  mealplan.NoAnimalProducts,
		}, mealplan.Derive(in))
	})

	t.Run("generation failure is returned", func(t *testing.T) {
		_, err := NewMealPlanner(store.NewMemory(testProfiles()...), mock.NewGeneratorWithError()).Handle(ctx, Input{UserID: intp(1)})
		assert.True(t, errors.Is(err, healthagent.ErrGeneration))
	})

	t.Run("empty plan is a generation failure", func(t *testing.T) {
		_, err := NewMealPlanner(store.NewMemory(testProfiles()...), mock.NewGenerator("  ")).Handle(ctx, Input{UserID: intp(1)})
		assert.True(t, errors.Is(err, healthagent.ErrGeneration))
	})

	t.Run("store failure is returned", func(t *testing.T) {
		s := &failingStore{Store: store.NewMemory(testProfiles()...), failOn: "RecentMoods"}
		_, err := NewMealPlanner(s, mock.NewGenerator("plan")).Handle(ctx, Input{UserID: intp(1)})
		assert.True(t, errors.Is(err, healthagent.ErrStoreUnavailable))
	})
}

func TestInterrupt(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "appends redirect", reply: "Paris is the capital of France.", want: "Paris is the capital of France.\n\n" + RedirectSentence},
		{name: "keeps existing redirect", reply: "Sunny today. " + RedirectSentence, want: "Sunny today. " + RedirectSentence},
		{name: "empty answer", reply: "", want: RedirectSentence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := mock.NewGenerator(tt.reply)
			reply, err := NewInterrupt(gen).Handle(ctx, Input{Message: "what's the capital of France"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Content)
			assert.Equal(t, AgentInterrupt, reply.Agent)
			assert.Equal(t, "what's the capital of France", gen.Requests()[0].Prompt)
		})
	}

	t.Run("generation failure is returned", func(t *testing.T) {
		_, err := NewInterrupt(mock.NewGeneratorWithError()).Handle(ctx, Input{Message: "q"})
		assert.True(t, errors.Is(err, healthagent.ErrGeneration))
	})
}

func TestValidateUserID(t *testing.T) {
	assert.NoError(t, ValidateUserID(intp(1)))
	assert.NoError(t, ValidateUserID(intp(100)))
	assert.ErrorIs(t, ValidateUserID(nil), healthagent.ErrValidation)
	assert.ErrorIs(t, ValidateUserID(intp(0)), healthagent.ErrValidation)
	assert.ErrorIs(t, ValidateUserID(intp(101)), healthagent.ErrValidation)
}
