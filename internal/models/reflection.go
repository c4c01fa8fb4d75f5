package models

import "time"

// ReflectionType distinguishes weekly from monthly reflections.
type ReflectionType string

const (
	ReflectionWeekly  ReflectionType = "weekly"
	ReflectionMonthly ReflectionType = "monthly"
)

// Grade is a letter grade for a reflection period.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Reflection is a journal entry aggregating the trades closed within a
// calendar week or month.
//
// PeriodID is the canonical period key: the ISO date of the Monday
// starting the week for weekly reflections, YYYY-MM for monthly. The
// store does not enforce uniqueness on it; the deduplicator reconciles
// duplicates after the fact.
type Reflection struct {
	ID             string         `json:"id"`
	Type           ReflectionType `json:"type"`
	PeriodID       string         `json:"periodId"`
	PeriodStart    time.Time      `json:"periodStart"`
	PeriodEnd      time.Time      `json:"periodEnd"`
	ReflectionText string         `json:"reflectionText"`
	PlanText       string         `json:"planText,omitempty"`
	Grade          Grade          `json:"grade"`
	TradeIDs       []string       `json:"tradeIds"`
	TotalPnL       float64        `json:"totalPnL"`
	TotalR         float64        `json:"totalR"`
	LastUpdated    time.Time      `json:"lastUpdated"`
	IsPlaceholder  bool           `json:"isPlaceholder"`
	CreatedAt      time.Time      `json:"createdAt"`
}
