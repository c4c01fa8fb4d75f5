// Package metrics derives per-trade and portfolio-level statistics from
// raw trade records. Every function here is pure: no I/O, no mutation
// of inputs, and no errors — incomplete trades degrade to absent fields.
package metrics

import (
	"math"
	"time"

	"trading-journal/internal/models"
)

// Calculate derives TradeMetrics from a trade. It never fails: a trade
// missing its entry price or quantity yields an empty metrics value so
// one bad record cannot break an aggregate view.
//
// R-multiple and risk/reward ratio are always based on the initial
// stop-loss, frozen at entry. Moving the stop during trade management
// changes RiskedAmount but never retroactively changes the grade.
func Calculate(t models.Trade) models.TradeMetrics {
	var m models.TradeMetrics

	if t.EntryPrice <= 0 || t.Quantity <= 0 {
		return m
	}

	pointValue := t.PointValue()
	sign := t.Direction.Sign()

	m.WeightedExitPrice = weightedExitPrice(t)
	m.LatestExitDate = latestExitDate(t)

	if pnl, ok := profitLoss(t, sign, pointValue); ok {
		m.ProfitLoss = models.Float64(pnl)
		costBasis := t.EntryPrice * t.Quantity * pointValue
		if costBasis != 0 {
			m.ProfitLossPercent = models.Float64(pnl / costBasis * 100)
		}
	}

	if t.StopLoss != nil {
		m.RiskedAmount = models.Float64(math.Abs(t.EntryPrice-*t.StopLoss) * t.Quantity * pointValue)
	}
	if t.InitialStopLoss != nil {
		m.InitialRiskedAmount = models.Float64(math.Abs(t.EntryPrice-*t.InitialStopLoss) * t.Quantity * pointValue)
	}

	// R grading applies to closed trades only; a zero initial risk
	// (stop at entry) leaves the R-multiple absent rather than infinite.
	if t.IsClosed() && m.ProfitLoss != nil && m.InitialRiskedAmount != nil && *m.InitialRiskedAmount > 0 {
		m.RMultiple = models.Float64(*m.ProfitLoss / *m.InitialRiskedAmount)
	}

	if t.TakeProfit != nil && t.InitialStopLoss != nil {
		risk := math.Abs(t.EntryPrice - *t.InitialStopLoss)
		if risk > 0 {
			m.RiskRewardRatio = models.Float64(math.Abs(*t.TakeProfit-t.EntryPrice) / risk)
		}
	}

	if t.MaxFavorablePrice != nil {
		m.MaxFavorableExcursion = models.Float64(math.Abs(*t.MaxFavorablePrice-t.EntryPrice) * t.Quantity * pointValue)
	}
	if t.MaxAdversePrice != nil {
		m.MaxAdverseExcursion = models.Float64(math.Abs(*t.MaxAdversePrice-t.EntryPrice) * t.Quantity * pointValue)
	}
	if m.ProfitLoss != nil && m.MaxFavorableExcursion != nil {
		captured := 0.0
		if *m.MaxFavorableExcursion > 0 {
			captured = *m.ProfitLoss / *m.MaxFavorableExcursion * 100
		}
		m.CapturedProfitPercent = models.Float64(captured)
	}

	return m
}

// WithMetrics attaches freshly computed metrics to each trade.
func WithMetrics(trades []models.Trade) []models.TradeWithMetrics {
	out := make([]models.TradeWithMetrics, 0, len(trades))
	for _, t := range trades {
		out = append(out, models.TradeWithMetrics{Trade: t, Metrics: Calculate(t)})
	}
	return out
}

// weightedExitPrice returns the quantity-weighted average exit price
// across partial exits plus the final exit price for the remaining
// quantity. With no partial exits it is the exit price itself. Nil when
// nothing has been exited.
func weightedExitPrice(t models.Trade) *float64 {
	if len(t.PartialExits) == 0 {
		return t.ExitPrice
	}

	var qty, notional float64
	for _, pe := range t.PartialExits {
		qty += pe.Quantity
		notional += pe.Price * pe.Quantity
	}

	if remaining := t.Quantity - qty; remaining > 0 && t.ExitPrice != nil {
		qty += remaining
		notional += *t.ExitPrice * remaining
	}

	if qty <= 0 {
		return nil
	}
	return models.Float64(notional / qty)
}

// profitLoss computes realized P/L over every exited unit, marking the
// open remainder at the last known price when one exists. Fees are
// subtracted last. The second return is false when no exit basis exists
// at all (nothing exited and no mark price).
func profitLoss(t models.Trade, sign, pointValue float64) (float64, bool) {
	var pnl float64
	var covered float64

	for _, pe := range t.PartialExits {
		pnl += (pe.Price - t.EntryPrice) * pe.Quantity * sign * pointValue
		covered += pe.Quantity
	}

	if remaining := t.Quantity - covered; remaining > 0 {
		var mark *float64
		if t.IsClosed() {
			mark = t.ExitPrice
		} else {
			mark = t.LastPrice
		}
		if mark != nil {
			pnl += (*mark - t.EntryPrice) * remaining * sign * pointValue
			covered += remaining
		}
	}

	if covered <= 0 {
		return 0, false
	}
	return pnl - t.TotalFees(), true
}

// latestExitDate returns the most recent of the trade's exit date and
// all partial-exit dates.
func latestExitDate(t models.Trade) *time.Time {
	var latest *time.Time
	if t.ExitDate != nil {
		d := *t.ExitDate
		latest = &d
	}
	for _, pe := range t.PartialExits {
		if pe.Date.IsZero() {
			continue
		}
		if latest == nil || pe.Date.After(*latest) {
			d := pe.Date
			latest = &d
		}
	}
	return latest
}
