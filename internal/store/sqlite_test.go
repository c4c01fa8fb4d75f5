package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-journal/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleTrade(id string) models.Trade {
	return models.Trade{
		ID:              id,
		Symbol:          "AAPL",
		Direction:       models.Long,
		Instrument:      models.InstrumentStock,
		Quantity:        10,
		EntryPrice:      100,
		EntryDate:       time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC),
		InitialStopLoss: models.Float64(95),
		StopLoss:        models.Float64(95),
		TakeProfit:      models.Float64(110),
		Fees:            1.5,
		Status:          models.StatusOpen,
		Strategy:        "breakout",
		Notes:           "gap and go",
		CreatedAt:       time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC),
	}
}

func TestSaveAndGetTrade(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := sampleTrade("t1")
	in.PartialExits = []models.PartialExit{
		{ID: "p1", Date: time.Date(2026, 8, 4, 10, 0, 0, 0, time.UTC), Price: 105, Quantity: 4, Fees: 0.5},
	}
	in.Contract = &models.ContractDetails{TickSize: 0.25, TickValue: 12.5}
	require.NoError(t, st.SaveTrade(ctx, &in))

	got, err := st.GetTrade(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, in.Symbol, got.Symbol)
	assert.Equal(t, in.Direction, got.Direction)
	assert.Equal(t, in.Quantity, got.Quantity)
	require.NotNil(t, got.InitialStopLoss)
	assert.Equal(t, 95.0, *got.InitialStopLoss)
	assert.Nil(t, got.ExitPrice)
	assert.Nil(t, got.ExitDate)
	require.Len(t, got.PartialExits, 1)
	assert.Equal(t, "p1", got.PartialExits[0].ID)
	assert.Equal(t, 4.0, got.PartialExits[0].Quantity)
	require.NotNil(t, got.Contract)
	assert.Equal(t, 0.25, got.Contract.TickSize)
	assert.Equal(t, "breakout", got.Strategy)
	assert.True(t, in.EntryDate.Equal(got.EntryDate))
}

func TestGetTradeMissing(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetTrade(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveTradeUpsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	trade := sampleTrade("t1")
	require.NoError(t, st.SaveTrade(ctx, &trade))

	trade.Status = models.StatusClosed
	trade.ExitPrice = models.Float64(108)
	trade.ExitDate = models.Time(time.Date(2026, 8, 5, 15, 0, 0, 0, time.UTC))
	require.NoError(t, st.SaveTrade(ctx, &trade))

	got, err := st.GetTrade(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusClosed, got.Status)
	require.NotNil(t, got.ExitPrice)
	assert.Equal(t, 108.0, *got.ExitPrice)

	all, err := st.GetTrades(ctx, TradeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "replace must not create a second row")
}

func TestGetTradesFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := sampleTrade("a")
	b := sampleTrade("b")
	b.Symbol = "TSLA"
	b.Status = models.StatusClosed
	b.EntryDate = a.EntryDate.AddDate(0, 0, 5)
	c := sampleTrade("c")
	c.EntryDate = a.EntryDate.AddDate(0, 0, 10)
	for _, tr := range []*models.Trade{&a, &b, &c} {
		require.NoError(t, st.SaveTrade(ctx, tr))
	}

	bySymbol, err := st.GetTrades(ctx, TradeFilter{Symbol: "TSLA"})
	require.NoError(t, err)
	require.Len(t, bySymbol, 1)
	assert.Equal(t, "b", bySymbol[0].ID)

	byStatus, err := st.GetTrades(ctx, TradeFilter{Status: models.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	byDate, err := st.GetTrades(ctx, TradeFilter{StartDate: a.EntryDate.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	limited, err := st.GetTrades(ctx, TradeFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID, "newest entry first")
}

func TestDeleteTrade(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	trade := sampleTrade("t1")
	require.NoError(t, st.SaveTrade(ctx, &trade))
	require.NoError(t, st.DeleteTrade(ctx, "t1"))

	got, err := st.GetTrade(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func sampleReflection(id, periodID string, updated time.Time) models.Reflection {
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	return models.Reflection{
		ID:             id,
		Type:           models.ReflectionWeekly,
		PeriodID:       periodID,
		PeriodStart:    start,
		PeriodEnd:      start.AddDate(0, 0, 7).Add(-time.Nanosecond),
		ReflectionText: "This week I took 2 trades.",
		Grade:          models.GradeB,
		TradeIDs:       []string{"t1", "t2"},
		TotalPnL:       75,
		TotalR:         1.5,
		LastUpdated:    updated,
		CreatedAt:      updated,
	}
}

func TestSaveAndGetReflection(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := sampleReflection("r1", "2026-08-24", time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC))
	require.NoError(t, st.SaveReflection(ctx, &in))

	got, err := st.GetReflection(ctx, models.ReflectionWeekly, "2026-08-24")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, models.ReflectionWeekly, got.Type)
	assert.Equal(t, []string{"t1", "t2"}, got.TradeIDs)
	assert.Equal(t, 75.0, got.TotalPnL)
	assert.Equal(t, models.GradeB, got.Grade)
	assert.False(t, got.IsPlaceholder)
}

func TestGetReflectionMissing(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetReflection(context.Background(), models.ReflectionWeekly, "2026-01-05")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetReflectionReturnsMostRecentlyUpdated(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Duplicate rows for one period are allowed by the schema.
	old := sampleReflection("old", "2026-08-24", time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
	newer := sampleReflection("newer", "2026-08-24", time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC))
	require.NoError(t, st.SaveReflection(ctx, &old))
	require.NoError(t, st.SaveReflection(ctx, &newer))

	got, err := st.GetReflection(ctx, models.ReflectionWeekly, "2026-08-24")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "newer", got.ID)

	all, err := st.ListReflections(ctx, models.ReflectionWeekly)
	require.NoError(t, err)
	assert.Len(t, all, 2, "both duplicate rows survive until dedupe")
}

func TestGetReflectionTypeSeparation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	weekly := sampleReflection("w", "2026-08-24", time.Now().UTC())
	monthly := sampleReflection("m", "2026-08", time.Now().UTC())
	monthly.Type = models.ReflectionMonthly
	require.NoError(t, st.SaveReflection(ctx, &weekly))
	require.NoError(t, st.SaveReflection(ctx, &monthly))

	got, err := st.GetReflection(ctx, models.ReflectionMonthly, "2026-08-24")
	require.NoError(t, err)
	assert.Nil(t, got, "type and period id must both match")
}

func TestDeleteReflection(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	r := sampleReflection("r1", "2026-08-24", time.Now().UTC())
	require.NoError(t, st.SaveReflection(ctx, &r))
	require.NoError(t, st.DeleteReflection(ctx, "r1"))

	got, err := st.GetReflection(ctx, models.ReflectionWeekly, "2026-08-24")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReflectionPlaceholderRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	r := sampleReflection("r1", "2026-08-24", time.Now().UTC())
	r.ReflectionText = "No trades were taken this week."
	r.TradeIDs = nil
	r.IsPlaceholder = true
	require.NoError(t, st.SaveReflection(ctx, &r))

	got, err := st.GetReflection(ctx, models.ReflectionWeekly, "2026-08-24")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsPlaceholder)
	assert.Empty(t, got.TradeIDs)
}
