// Package reflections generates, schedules, and reconciles weekly and
// monthly journal reflections from closed trades.
package reflections

import (
	"time"

	"trading-journal/internal/models"
)

// Period identifies one reflection bucket: its type, canonical id, and
// inclusive time bounds.
type Period struct {
	Type  models.ReflectionType
	ID    string
	Start time.Time
	End   time.Time
}

// WeekStart returns midnight of the Monday starting the week containing t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns the last instant of the week starting at start.
func WeekEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// MonthStart returns midnight of the first day of the month containing t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd returns the last instant of the month starting at start.
func MonthEnd(start time.Time) time.Time {
	return start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// PeriodID derives the canonical period id from a period start time:
// the ISO date of the Monday for weekly, YYYY-MM for monthly. This is
// the single source of period identity; stored id fields are never
// trusted because they can drift.
func PeriodID(typ models.ReflectionType, periodStart time.Time) string {
	if typ == models.ReflectionMonthly {
		return MonthStart(periodStart).Format("2006-01")
	}
	return WeekStart(periodStart).Format("2006-01-02")
}

// WeekOf returns the weekly period containing t.
func WeekOf(t time.Time) Period {
	start := WeekStart(t)
	return Period{
		Type:  models.ReflectionWeekly,
		ID:    PeriodID(models.ReflectionWeekly, start),
		Start: start,
		End:   WeekEnd(start),
	}
}

// MonthOf returns the monthly period containing t.
func MonthOf(t time.Time) Period {
	start := MonthStart(t)
	return Period{
		Type:  models.ReflectionMonthly,
		ID:    PeriodID(models.ReflectionMonthly, start),
		Start: start,
		End:   MonthEnd(start),
	}
}
