package reflections

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-journal/internal/events"
	"trading-journal/internal/models"
)

func weeklyReflection(id, text string, start, updated time.Time) models.Reflection {
	return models.Reflection{
		ID:             id,
		Type:           models.ReflectionWeekly,
		PeriodID:       PeriodID(models.ReflectionWeekly, start),
		PeriodStart:    start,
		PeriodEnd:      WeekEnd(WeekStart(start)),
		ReflectionText: text,
		LastUpdated:    updated,
	}
}

func TestDedupeKeepsLatest(t *testing.T) {
	st := newMemStore()
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	st.put(weeklyReflection("old", "first draft", start, time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)))
	st.put(weeklyReflection("mid", "second draft", start, time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)))
	st.put(weeklyReflection("new", "final", start, time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)))

	d := NewDeduplicator(st, nil, zerolog.Nop())
	result, err := d.Dedupe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.WeeklyRemoved)
	assert.Equal(t, 1, st.count())

	kept, err := st.GetReflection(context.Background(), models.ReflectionWeekly, "2026-08-24")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "new", kept.ID)
}

func TestDedupeBucketsByCanonicalPeriodNotStoredID(t *testing.T) {
	st := newMemStore()
	// Same week, but one record's stored id drifted mid-week.
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	drifted := weeklyReflection("drifted", "drifted", monday.AddDate(0, 0, 2), time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC))
	drifted.PeriodID = "2026-08-26"
	st.put(weeklyReflection("canonical", "canonical", monday, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)))
	st.put(drifted)

	d := NewDeduplicator(st, nil, zerolog.Nop())
	result, err := d.Dedupe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.WeeklyRemoved, "drifted id still collapses into the same week")
	assert.Equal(t, 1, st.count())
}

func TestDedupeTieBreaksOnNonEmptyText(t *testing.T) {
	st := newMemStore()
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	st.put(weeklyReflection("empty", "", start, updated))
	st.put(weeklyReflection("written", "kept notes", start, updated))

	d := NewDeduplicator(st, nil, zerolog.Nop())
	_, err := d.Dedupe(context.Background())
	require.NoError(t, err)

	kept, err := st.GetReflection(context.Background(), models.ReflectionWeekly, "2026-08-24")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "written", kept.ID)
}

func TestDedupeEmptyStore(t *testing.T) {
	d := NewDeduplicator(newMemStore(), nil, zerolog.Nop())
	result, err := d.Dedupe(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total())
}

func TestDedupeSingletonsUntouched(t *testing.T) {
	st := newMemStore()
	st.put(weeklyReflection("only", "text", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), time.Now()))

	d := NewDeduplicator(st, nil, zerolog.Nop())
	result, err := d.Dedupe(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Total())
	assert.Equal(t, 1, st.count())
}

func TestDedupePublishesEvents(t *testing.T) {
	st := newMemStore()
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	st.put(weeklyReflection("a", "", start, time.Date(2026, 8, 24, 1, 0, 0, 0, time.UTC)))
	st.put(weeklyReflection("b", "", start, time.Date(2026, 8, 24, 2, 0, 0, 0, time.UTC)))

	bus := events.NewBus()
	deduped := false
	bus.Subscribe(events.ReflectionsDeduped, func(events.Event) { deduped = true })

	d := NewDeduplicator(st, bus, zerolog.Nop())
	_, err := d.Dedupe(context.Background())
	require.NoError(t, err)
	assert.True(t, deduped)
}

func TestCleanupEmptyRemovesPlaceholders(t *testing.T) {
	st := newMemStore()
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	placeholder := weeklyReflection("placeholder", "No trades were taken this week.", start, time.Now())
	placeholder.IsPlaceholder = true
	st.put(placeholder)

	seedOnly := weeklyReflection("seed", "This week I took 3 trades.", start.AddDate(0, 0, -7), time.Now())
	seedOnly.TradeIDs = []string{"t1", "t2", "t3"}
	st.put(seedOnly)

	edited := weeklyReflection("edited", "Sized down after two losses.", start.AddDate(0, 0, -14), time.Now())
	st.put(edited)

	planned := weeklyReflection("planned", "", start.AddDate(0, 0, -21), time.Now())
	planned.PlanText = "Trade the open only."
	st.put(planned)

	d := NewDeduplicator(st, nil, zerolog.Nop())
	result, err := d.CleanupEmpty(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.WeeklyRemoved, "only the trade-less unedited placeholder goes")
	assert.Equal(t, 3, st.count())

	gone, err := st.GetReflection(context.Background(), models.ReflectionWeekly, "2026-08-24")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCleanupEmptyKeepsSeedTextWithTrades(t *testing.T) {
	st := newMemStore()
	r := weeklyReflection("r", "This week I took 2 trades.", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), time.Now())
	r.TradeIDs = []string{"a", "b"}
	st.put(r)

	d := NewDeduplicator(st, nil, zerolog.Nop())
	result, err := d.CleanupEmpty(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Total())
	assert.Equal(t, 1, st.count())
}

func TestIsRemovableNoise(t *testing.T) {
	base := models.Reflection{Type: models.ReflectionWeekly}

	seed := base
	seed.ReflectionText = "No trades were taken this week."
	assert.True(t, isRemovableNoise(seed))

	edited := base
	edited.ReflectionText = "Real notes."
	assert.False(t, isRemovableNoise(edited))

	withTrades := seed
	withTrades.TradeIDs = []string{"t"}
	assert.False(t, isRemovableNoise(withTrades))

	withPlan := seed
	withPlan.PlanText = "plan"
	assert.False(t, isRemovableNoise(withPlan))
}
