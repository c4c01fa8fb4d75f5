// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"trading-journal/internal/models"
)

// TradeStore defines persistence for trade records.
type TradeStore interface {
	SaveTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	DeleteTrade(ctx context.Context, id string) error
}

// ReflectionStore defines persistence for period reflections, keyed by
// period id. Semantics are last-write-wins and the backend enforces no
// uniqueness on the period id; duplicate rows per period are possible
// and reconciled by the deduplicator.
type ReflectionStore interface {
	// GetReflection returns the most recently updated reflection for the
	// period, or nil when none exists.
	GetReflection(ctx context.Context, typ models.ReflectionType, periodID string) (*models.Reflection, error)
	SaveReflection(ctx context.Context, r *models.Reflection) error
	ListReflections(ctx context.Context, typ models.ReflectionType) ([]models.Reflection, error)
	DeleteReflection(ctx context.Context, id string) error
}

// DataStore combines all persistence concerns.
type DataStore interface {
	TradeStore
	ReflectionStore
	Close() error
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	Symbol    string
	Status    models.TradeStatus
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
