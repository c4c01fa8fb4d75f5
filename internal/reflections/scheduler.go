package reflections

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	errs "trading-journal/internal/errors"
	"trading-journal/internal/events"
	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/notify"
	"trading-journal/internal/store"
)

// SchedulerConfig controls batch generation pacing.
type SchedulerConfig struct {
	// MinInterval is the minimum gap between generation passes; rapid
	// re-triggers inside it are dropped.
	MinInterval time.Duration
	// BatchSize is the number of periods processed between yields.
	BatchSize int
	// YieldDelay is the pause between batches so a large run never
	// monopolizes the caller.
	YieldDelay time.Duration
}

// DefaultSchedulerConfig returns the default pacing configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MinInterval: 30 * time.Second,
		BatchSize:   8,
		YieldDelay:  25 * time.Millisecond,
	}
}

// GenerationResult reports one batch generation pass.
type GenerationResult struct {
	WeeklyCreated  int
	MonthlyCreated int
	Skipped        int
	Failed         int
}

// Created returns the total number of reflections created.
func (r GenerationResult) Created() int {
	return r.WeeklyCreated + r.MonthlyCreated
}

// Scheduler owns idempotent batch generation of missing reflections.
// It is the single holder of the generation lock, the throttle
// timestamp, and the generated-period caches; callers share one
// instance instead of module-level state. The caches are an
// optimization only — the store is re-checked before every write.
type Scheduler struct {
	store    store.ReflectionStore
	bus      *events.Bus
	notifier notify.Notifier
	logger   zerolog.Logger
	cfg      SchedulerConfig

	mu         sync.Mutex
	generating bool
	lastRun    time.Time
	generated  map[models.ReflectionType]map[string]bool
}

// NewScheduler creates a scheduler. Bus and notifier may be nil.
func NewScheduler(st store.ReflectionStore, bus *events.Bus, notifier notify.Notifier, logger zerolog.Logger, cfg SchedulerConfig) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSchedulerConfig().BatchSize
	}
	if cfg.YieldDelay <= 0 {
		cfg.YieldDelay = DefaultSchedulerConfig().YieldDelay
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Scheduler{
		store:    st,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		generated: map[models.ReflectionType]map[string]bool{
			models.ReflectionWeekly:  {},
			models.ReflectionMonthly: {},
		},
	}
}

// GenerateMissing buckets trades by week and month, creates a
// reflection for every bucket not already in the store, and persists
// it. Safe to invoke repeatedly: existence is checked before each
// write. A call while a pass is in flight is dropped with
// ErrGenerationInFlight; a call within MinInterval of the previous pass
// is dropped with ErrGenerationThrottled. Both drops are logged, never
// queued.
func (s *Scheduler) GenerateMissing(ctx context.Context, trades []models.TradeWithMetrics) (GenerationResult, error) {
	if err := s.begin(); err != nil {
		s.logger.Debug().Err(err).Msg("Generation pass dropped")
		return GenerationResult{}, err
	}
	defer s.end()

	periods := bucketPeriods(trades)
	var result GenerationResult

	for i, period := range periods {
		if i > 0 && i%s.cfg.BatchSize == 0 {
			if err := s.yield(ctx); err != nil {
				return result, err
			}
		}
		s.processPeriod(ctx, period, trades, &result)
	}

	s.logger.Info().
		Int("weekly_created", result.WeeklyCreated).
		Int("monthly_created", result.MonthlyCreated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Generation pass completed")

	if result.Created() > 0 && s.bus != nil {
		s.bus.Publish(events.Event{
			Type: events.ReflectionsGenerated,
			Payload: map[string]interface{}{
				"weekly":  result.WeeklyCreated,
				"monthly": result.MonthlyCreated,
			},
		})
		s.bus.Publish(events.Event{Type: events.DataChanged})
	}

	if result.Failed > 0 && result.Created() == 0 {
		s.notifier.Send(ctx, notify.Notification{
			Type:    notify.NotificationError,
			Title:   "Reflection generation failed",
			Message: "No reflections could be written; see the log for details.",
		})
	}

	return result, nil
}

// begin acquires the generation lock and applies the throttle. The
// throttle timestamp is taken at pass start so a slow pass does not
// extend its own window.
func (s *Scheduler) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generating {
		return errs.ErrGenerationInFlight
	}
	if !s.lastRun.IsZero() && time.Since(s.lastRun) < s.cfg.MinInterval {
		return errs.ErrGenerationThrottled
	}
	s.generating = true
	s.lastRun = time.Now()
	return nil
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.generating = false
	s.mu.Unlock()
}

// yield pauses between batches, honoring cancellation.
func (s *Scheduler) yield(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.YieldDelay):
		return nil
	}
}

// processPeriod generates and persists one period's reflection unless
// one already exists. Store failures are logged and counted, never
// propagated: one bad period must not abort the pass.
func (s *Scheduler) processPeriod(ctx context.Context, period Period, trades []models.TradeWithMetrics, result *GenerationResult) {
	logger := s.logger.With().Str("period_type", string(period.Type)).Str("period_id", period.ID).Logger()

	if s.alreadyGenerated(period) {
		result.Skipped++
		return
	}

	existing, err := s.store.GetReflection(ctx, period.Type, period.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to check for existing reflection")
		result.Failed++
		return
	}
	if existing != nil {
		s.markGenerated(period)
		result.Skipped++
		return
	}

	reflection := Generate(period, trades)
	if err := s.store.SaveReflection(ctx, &reflection); err != nil {
		logger.Error().Err(errs.NewGenerationError(string(period.Type), period.ID, err)).Msg("Failed to save reflection")
		result.Failed++
		return
	}

	s.markGenerated(period)
	logging.LogReflectionCreated(s.logger, string(period.Type), period.ID, len(reflection.TradeIDs), reflection.TotalPnL)
	switch period.Type {
	case models.ReflectionMonthly:
		result.MonthlyCreated++
	default:
		result.WeeklyCreated++
	}
}

func (s *Scheduler) alreadyGenerated(period Period) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generated[period.Type][period.ID]
}

func (s *Scheduler) markGenerated(period Period) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generated[period.Type][period.ID] = true
}

// bucketPeriods returns the distinct weekly and monthly periods covered
// by the trades' exit dates, in deterministic order.
func bucketPeriods(trades []models.TradeWithMetrics) []Period {
	seen := make(map[string]Period)
	for _, t := range trades {
		exit := t.ExitTime()
		if exit == nil {
			continue
		}
		week := WeekOf(*exit)
		month := MonthOf(*exit)
		seen[string(week.Type)+"/"+week.ID] = week
		seen[string(month.Type)+"/"+month.ID] = month
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	periods := make([]Period, 0, len(keys))
	for _, k := range keys {
		periods = append(periods, seen[k])
	}
	return periods
}
