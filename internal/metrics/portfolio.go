package metrics

import (
	"math"
	"sort"
	"time"

	"trading-journal/internal/models"
)

// PortfolioStats aggregates closed-trade statistics for dashboards.
// ProfitFactor and Expectancy may be +Inf; callers special-case display.
type PortfolioStats struct {
	TotalTrades   int     `json:"totalTrades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"winRate"`
	GrossProfit   float64 `json:"grossProfit"`
	GrossLoss     float64 `json:"grossLoss"` // positive magnitude
	NetPnL        float64 `json:"netPnL"`
	AvgWin        float64 `json:"avgWin"`
	AvgLoss       float64 `json:"avgLoss"` // positive magnitude
	ProfitFactor  float64 `json:"profitFactor"`
	Expectancy    float64 `json:"expectancy"`
	ExpectedValue float64 `json:"expectedValue"`
	MaxDrawdown   float64 `json:"maxDrawdown"`
	CalmarRatio   float64 `json:"calmarRatio"`
	ParetoIndex   float64 `json:"paretoIndex"`
	TotalR        float64 `json:"totalR"`
}

// ComputePortfolioStats computes all portfolio statistics in one pass
// over the closed trades. Empty input yields a zero value, never NaN.
func ComputePortfolioStats(trades []models.TradeWithMetrics) PortfolioStats {
	closed := closedWithPnL(trades)

	var s PortfolioStats
	s.TotalTrades = len(closed)
	if s.TotalTrades == 0 {
		return s
	}

	for _, t := range closed {
		pnl := t.Metrics.PnL()
		s.NetPnL += pnl
		s.TotalR += t.Metrics.R()
		if pnl > 0 {
			s.Wins++
			s.GrossProfit += pnl
		} else {
			s.Losses++
			s.GrossLoss += -pnl
		}
	}

	s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
	if s.Wins > 0 {
		s.AvgWin = s.GrossProfit / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.Losses)
	}
	s.ProfitFactor = ProfitFactor(trades)
	s.Expectancy = Expectancy(trades)
	s.ExpectedValue = ExpectedValue(trades)
	s.MaxDrawdown = MaxDrawdown(trades)
	s.CalmarRatio = CalmarRatio(trades)
	s.ParetoIndex = ParetoIndex(trades)
	return s
}

// WinRate returns winning closed trades as a percentage of all closed
// trades, 0 for empty input.
func WinRate(trades []models.TradeWithMetrics) float64 {
	closed := closedWithPnL(trades)
	if len(closed) == 0 {
		return 0
	}
	wins := 0
	for _, t := range closed {
		if t.Metrics.PnL() > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(closed)) * 100
}

// ProfitFactor returns gross profit divided by gross loss magnitude.
// With zero gross loss it is +Inf when any profit exists, else 0.
func ProfitFactor(trades []models.TradeWithMetrics) float64 {
	var grossProfit, grossLoss float64
	for _, t := range closedWithPnL(trades) {
		pnl := t.Metrics.PnL()
		if pnl > 0 {
			grossProfit += pnl
		} else {
			grossLoss += -pnl
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// Expectancy is R-based when any closed trade carries a risked amount:
// the mean of profitLoss/riskedAmount over those trades. Without risk
// data it falls back to winRate*avgWin/avgLoss - lossRate computed from
// raw P/L. The fallback is +Inf when there are wins but no losses; the
// dual-path switch is kept for compatibility with existing journals.
func Expectancy(trades []models.TradeWithMetrics) float64 {
	closed := closedWithPnL(trades)
	if len(closed) == 0 {
		return 0
	}

	var rSum float64
	var rCount int
	for _, t := range closed {
		if t.Metrics.RiskedAmount != nil && *t.Metrics.RiskedAmount > 0 {
			rSum += t.Metrics.PnL() / *t.Metrics.RiskedAmount
			rCount++
		}
	}
	if rCount > 0 {
		return rSum / float64(rCount)
	}

	var grossProfit, grossLoss float64
	var wins, losses int
	for _, t := range closed {
		pnl := t.Metrics.PnL()
		if pnl > 0 {
			wins++
			grossProfit += pnl
		} else {
			losses++
			grossLoss += -pnl
		}
	}
	winRate := float64(wins) / float64(len(closed))
	lossRate := float64(losses) / float64(len(closed))
	if losses == 0 || grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	avgWin := 0.0
	if wins > 0 {
		avgWin = grossProfit / float64(wins)
	}
	avgLoss := grossLoss / float64(losses)
	return winRate*(avgWin/avgLoss) - lossRate
}

// ExpectedValue returns winRate*avgWin - lossRate*avgLoss, signed, with
// avgLoss as a positive magnitude.
func ExpectedValue(trades []models.TradeWithMetrics) float64 {
	closed := closedWithPnL(trades)
	if len(closed) == 0 {
		return 0
	}
	var grossProfit, grossLoss float64
	var wins, losses int
	for _, t := range closed {
		pnl := t.Metrics.PnL()
		if pnl > 0 {
			wins++
			grossProfit += pnl
		} else {
			losses++
			grossLoss += -pnl
		}
	}
	var avgWin, avgLoss float64
	if wins > 0 {
		avgWin = grossProfit / float64(wins)
	}
	if losses > 0 {
		avgLoss = grossLoss / float64(losses)
	}
	winRate := float64(wins) / float64(len(closed))
	lossRate := float64(losses) / float64(len(closed))
	return winRate*avgWin - lossRate*avgLoss
}

// MaxDrawdown walks the cumulative P/L sequence in chronological exit
// order and returns the largest peak-to-trough decline as a positive
// amount.
func MaxDrawdown(trades []models.TradeWithMetrics) float64 {
	ordered := byExitOrder(closedWithPnL(trades))
	var cumulative, peak, maxDD float64
	for _, t := range ordered {
		cumulative += t.Metrics.PnL()
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// CalmarRatio returns annualized return divided by maximum drawdown,
// 0 when drawdown is zero or the trade history is empty.
func CalmarRatio(trades []models.TradeWithMetrics) float64 {
	closed := closedWithPnL(trades)
	if len(closed) == 0 {
		return 0
	}
	maxDD := MaxDrawdown(trades)
	if maxDD == 0 {
		return 0
	}

	var total float64
	first := closed[0].EntryDate
	last := closed[0].EntryDate
	for _, t := range closed {
		total += t.Metrics.PnL()
		if t.EntryDate.Before(first) {
			first = t.EntryDate
		}
		if exit := t.ExitTime(); exit != nil && exit.After(last) {
			last = *exit
		}
	}

	days := last.Sub(first).Hours() / 24
	if days < 1 {
		days = 1
	}
	annualized := total * 365 / days
	return annualized / maxDD
}

// ParetoIndex returns the share (percent) of total net profit
// contributed by the top 20% of trades ranked by P/L descending. Zero
// when the portfolio is empty or not net-profitable.
func ParetoIndex(trades []models.TradeWithMetrics) float64 {
	closed := closedWithPnL(trades)
	if len(closed) == 0 {
		return 0
	}

	pnls := make([]float64, len(closed))
	var total float64
	for i, t := range closed {
		pnls[i] = t.Metrics.PnL()
		total += pnls[i]
	}
	if total <= 0 {
		return 0
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(pnls)))
	topN := int(math.Ceil(float64(len(pnls)) * 0.2))
	if topN < 1 {
		topN = 1
	}
	var top float64
	for _, pnl := range pnls[:topN] {
		top += pnl
	}
	return top / total * 100
}

func closedWithPnL(trades []models.TradeWithMetrics) []models.TradeWithMetrics {
	out := make([]models.TradeWithMetrics, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() && t.Metrics.ProfitLoss != nil {
			out = append(out, t)
		}
	}
	return out
}

// byExitOrder returns a sorted copy; the input is never reordered.
func byExitOrder(trades []models.TradeWithMetrics) []models.TradeWithMetrics {
	out := make([]models.TradeWithMetrics, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return exitOrDefault(out[i]).Before(exitOrDefault(out[j]))
	})
	return out
}

func exitOrDefault(t models.TradeWithMetrics) time.Time {
	if exit := t.ExitTime(); exit != nil {
		return *exit
	}
	return t.EntryDate
}
