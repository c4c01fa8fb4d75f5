package models

import "time"

// TradeMetrics holds values derived from a Trade. Metrics are recomputed
// from the authoritative trade on every read and never persisted on
// their own. A nil field means the input needed to derive it was absent;
// callers must not read nil as zero.
type TradeMetrics struct {
	ProfitLoss            *float64   `json:"profitLoss,omitempty"`
	ProfitLossPercent     *float64   `json:"profitLossPercentage,omitempty"`
	RiskedAmount          *float64   `json:"riskedAmount,omitempty"`
	InitialRiskedAmount   *float64   `json:"initialRiskedAmount,omitempty"`
	RMultiple             *float64   `json:"rMultiple,omitempty"`
	RiskRewardRatio       *float64   `json:"riskRewardRatio,omitempty"`
	MaxFavorableExcursion *float64   `json:"maxFavorableExcursion,omitempty"`
	MaxAdverseExcursion   *float64   `json:"maxAdverseExcursion,omitempty"`
	CapturedProfitPercent *float64   `json:"capturedProfitPercent,omitempty"`
	WeightedExitPrice     *float64   `json:"weightedExitPrice,omitempty"`
	LatestExitDate        *time.Time `json:"latestExitDate,omitempty"`
}

// PnL returns the profit/loss, or 0 when it is not computable.
func (m TradeMetrics) PnL() float64 {
	if m.ProfitLoss == nil {
		return 0
	}
	return *m.ProfitLoss
}

// R returns the R-multiple, or 0 when it is not computable.
func (m TradeMetrics) R() float64 {
	if m.RMultiple == nil {
		return 0
	}
	return *m.RMultiple
}

// TradeWithMetrics pairs a trade with its derived metrics.
type TradeWithMetrics struct {
	Trade
	Metrics TradeMetrics `json:"metrics"`
}

// ExitTime returns the best-known exit timestamp: the derived latest
// exit date when present, otherwise the trade's exit date.
func (t TradeWithMetrics) ExitTime() *time.Time {
	if t.Metrics.LatestExitDate != nil {
		return t.Metrics.LatestExitDate
	}
	return t.ExitDate
}
