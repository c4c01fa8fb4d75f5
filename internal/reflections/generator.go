package reflections

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"trading-journal/internal/models"
)

// Generate produces a draft reflection for the period from the trades
// whose exit time falls inside it. Text and grade are seed values a
// human is expected to edit; the scheduler never regenerates a period
// that already has a stored reflection, so edits are never overwritten.
func Generate(period Period, trades []models.TradeWithMetrics) models.Reflection {
	now := time.Now()

	var tradeIDs []string
	var totalPnL, totalR float64
	for _, t := range TradesInPeriod(period, trades) {
		tradeIDs = append(tradeIDs, t.ID)
		totalPnL += t.Metrics.PnL()
		totalR += t.Metrics.R()
	}

	return models.Reflection{
		ID:             ulid.Make().String(),
		Type:           period.Type,
		PeriodID:       period.ID,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		ReflectionText: seedText(period.Type, len(tradeIDs)),
		Grade:          seedGrade(len(tradeIDs)),
		TradeIDs:       tradeIDs,
		TotalPnL:       totalPnL,
		TotalR:         totalR,
		LastUpdated:    now,
		IsPlaceholder:  len(tradeIDs) == 0,
		CreatedAt:      now,
	}
}

// TradesInPeriod filters trades to those whose latest exit date
// (preferred) or exit date falls within the period, bounds inclusive.
func TradesInPeriod(period Period, trades []models.TradeWithMetrics) []models.TradeWithMetrics {
	var out []models.TradeWithMetrics
	for _, t := range trades {
		exit := t.ExitTime()
		if exit == nil {
			continue
		}
		if exit.Before(period.Start) || exit.After(period.End) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func seedText(typ models.ReflectionType, count int) string {
	noun := "week"
	if typ == models.ReflectionMonthly {
		noun = "month"
	}
	if count == 0 {
		return fmt.Sprintf("No trades were taken this %s.", noun)
	}
	return fmt.Sprintf("This %s I took %d trades.", noun, count)
}

func seedGrade(count int) models.Grade {
	if count == 0 {
		return models.GradeA
	}
	return models.GradeB
}

// IsSeedText reports whether the reflection text is still one of the
// generated templates, meaning a user never edited it.
func IsSeedText(text string, typ models.ReflectionType) bool {
	if text == "" {
		return true
	}
	noun := "week"
	if typ == models.ReflectionMonthly {
		noun = "month"
	}
	if text == fmt.Sprintf("No trades were taken this %s.", noun) {
		return true
	}
	var n int
	pattern := fmt.Sprintf("This %s I took %%d trades.", noun)
	if _, err := fmt.Sscanf(text, pattern, &n); err == nil {
		return text == fmt.Sprintf(pattern, n)
	}
	return false
}
