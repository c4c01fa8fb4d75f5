package reflections

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"trading-journal/internal/events"
	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
)

// DedupeResult reports reflections removed per type.
type DedupeResult struct {
	WeeklyRemoved  int
	MonthlyRemoved int
}

// Total returns the combined removal count.
func (r DedupeResult) Total() int {
	return r.WeeklyRemoved + r.MonthlyRemoved
}

// Deduplicator reconciles the reflection store: it collapses duplicate
// records per calendar period and removes empty auto-generated
// placeholders. Nothing guarantees uniqueness at write time, so this
// runs on startup and on demand.
type Deduplicator struct {
	store  store.ReflectionStore
	bus    *events.Bus
	logger zerolog.Logger
}

// NewDeduplicator creates a deduplicator. Bus may be nil.
func NewDeduplicator(st store.ReflectionStore, bus *events.Bus, logger zerolog.Logger) *Deduplicator {
	return &Deduplicator{store: st, bus: bus, logger: logger}
}

// Dedupe collapses every period bucket to a single reflection. Buckets
// are keyed by the canonical period id derived from periodStart — the
// stored id field may drift and is never trusted. Within a bucket the
// record with the most recent lastUpdated wins; on a tie or missing
// timestamps, a record with non-empty reflection text is preferred.
// Safe on an empty store.
func (d *Deduplicator) Dedupe(ctx context.Context) (DedupeResult, error) {
	started := time.Now()
	var result DedupeResult

	weekly, err := d.dedupeType(ctx, models.ReflectionWeekly)
	if err != nil {
		return result, err
	}
	result.WeeklyRemoved = weekly

	monthly, err := d.dedupeType(ctx, models.ReflectionMonthly)
	if err != nil {
		return result, err
	}
	result.MonthlyRemoved = monthly

	logging.LogDedupe(d.logger, result.WeeklyRemoved, result.MonthlyRemoved, time.Since(started))

	if result.Total() > 0 && d.bus != nil {
		d.bus.Publish(events.Event{
			Type: events.ReflectionsDeduped,
			Payload: map[string]interface{}{
				"weekly":  result.WeeklyRemoved,
				"monthly": result.MonthlyRemoved,
			},
		})
		d.bus.Publish(events.Event{Type: events.DataChanged})
	}

	return result, nil
}

func (d *Deduplicator) dedupeType(ctx context.Context, typ models.ReflectionType) (int, error) {
	all, err := d.store.ListReflections(ctx, typ)
	if err != nil {
		return 0, err
	}

	buckets := make(map[string][]models.Reflection)
	for _, r := range all {
		id := PeriodID(typ, r.PeriodStart)
		buckets[id] = append(buckets[id], r)
	}

	removed := 0
	for periodID, bucket := range buckets {
		if len(bucket) < 2 {
			continue
		}
		keeper := pickKeeper(bucket)
		for _, r := range bucket {
			if r.ID == keeper.ID {
				continue
			}
			if err := d.store.DeleteReflection(ctx, r.ID); err != nil {
				// Per-item failure; the rest of the bucket still gets cleaned.
				d.logger.Error().Err(err).Str("period_id", periodID).Str("id", r.ID).Msg("Failed to delete duplicate reflection")
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// pickKeeper chooses the reflection to keep from a duplicate bucket.
func pickKeeper(bucket []models.Reflection) models.Reflection {
	sorted := make([]models.Reflection, len(bucket))
	copy(sorted, bucket)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.LastUpdated.Equal(b.LastUpdated) {
			return a.LastUpdated.After(b.LastUpdated)
		}
		return a.ReflectionText != "" && b.ReflectionText == ""
	})
	return sorted[0]
}

// CleanupEmpty removes auto-generated placeholders that have no
// associated trades and were never edited: noise records for periods
// with no activity. Safe on an empty store.
func (d *Deduplicator) CleanupEmpty(ctx context.Context) (DedupeResult, error) {
	var result DedupeResult

	weekly, err := d.cleanupType(ctx, models.ReflectionWeekly)
	if err != nil {
		return result, err
	}
	result.WeeklyRemoved = weekly

	monthly, err := d.cleanupType(ctx, models.ReflectionMonthly)
	if err != nil {
		return result, err
	}
	result.MonthlyRemoved = monthly

	d.logger.Info().
		Int("weekly_removed", result.WeeklyRemoved).
		Int("monthly_removed", result.MonthlyRemoved).
		Msg("Empty-reflection cleanup completed")

	if result.Total() > 0 && d.bus != nil {
		d.bus.Publish(events.Event{Type: events.DataChanged})
	}

	return result, nil
}

func (d *Deduplicator) cleanupType(ctx context.Context, typ models.ReflectionType) (int, error) {
	all, err := d.store.ListReflections(ctx, typ)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, r := range all {
		if !isRemovableNoise(r) {
			continue
		}
		if err := d.store.DeleteReflection(ctx, r.ID); err != nil {
			d.logger.Error().Err(err).Str("id", r.ID).Msg("Failed to delete empty reflection")
			continue
		}
		removed++
	}
	return removed, nil
}

// isRemovableNoise reports whether a reflection is an unedited,
// trade-less placeholder.
func isRemovableNoise(r models.Reflection) bool {
	if len(r.TradeIDs) > 0 {
		return false
	}
	if r.PlanText != "" {
		return false
	}
	if r.IsPlaceholder {
		return true
	}
	return IsSeedText(r.ReflectionText, r.Type)
}
