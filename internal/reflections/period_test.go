package reflections

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trading-journal/internal/models"
)

func TestWeekStartIsMonday(t *testing.T) {
	for name, tc := range map[string]struct {
		in   time.Time
		want time.Time
	}{
		"monday":    {time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		"wednesday": {time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC), time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		"sunday":    {time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC), time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		"across month boundary": {
			time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), // Saturday
			time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC),
		},
	} {
		t.Run(name, func(t *testing.T) {
			got := WeekStart(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestWeekEndIsInclusive(t *testing.T) {
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	end := WeekEnd(start)

	assert.True(t, end.Before(start.AddDate(0, 0, 7)))
	assert.Equal(t, start, WeekStart(end), "last instant still belongs to the same week")
}

func TestMonthBounds(t *testing.T) {
	in := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

	start := MonthStart(in)
	end := MonthEnd(start)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.True(t, end.Before(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.February, end.Month())
}

func TestPeriodID(t *testing.T) {
	wednesday := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-08-24", PeriodID(models.ReflectionWeekly, wednesday))
	assert.Equal(t, "2026-08", PeriodID(models.ReflectionMonthly, wednesday))
}

func TestPeriodIDNormalizesDriftedStart(t *testing.T) {
	// A stored periodStart mid-week still maps to the canonical Monday.
	drifted := time.Date(2026, 8, 27, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-24", PeriodID(models.ReflectionWeekly, drifted))
}

func TestWeekOfAndMonthOf(t *testing.T) {
	in := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	week := WeekOf(in)
	assert.Equal(t, models.ReflectionWeekly, week.Type)
	assert.Equal(t, "2026-08-24", week.ID)
	assert.True(t, !in.Before(week.Start) && !in.After(week.End))

	month := MonthOf(in)
	assert.Equal(t, models.ReflectionMonthly, month.Type)
	assert.Equal(t, "2026-08", month.ID)
	assert.True(t, !in.Before(month.Start) && !in.After(month.End))
}
