// Package utils provides shared formatting helpers.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrency formats an amount with thousands separators, e.g.
// "$1,234.56".
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := groupThousands(parts[0])

	result := "$" + intPart + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var groups []string
	for n > 3 {
		groups = append([]string{s[n-3:]}, groups...)
		s = s[:n-3]
		n = len(s)
	}
	return s + "," + strings.Join(groups, ",")
}

// FormatPnL formats P&L with an explicit sign on gains.
func FormatPnL(pnl float64) string {
	formatted := FormatCurrency(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatCompact formats a number in compact form (K/M).
func FormatCompact(amount float64) string {
	abs := math.Abs(amount)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", amount/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.2fK", amount/1_000)
	}
	return FormatCurrency(amount)
}

// FormatRatio renders a ratio, using the infinity sign for +Inf values
// such as a profit factor with zero gross loss.
func FormatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	if math.IsInf(v, -1) {
		return "-∞"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatR formats an R-multiple, e.g. "1.50R".
func FormatR(r float64) string {
	return fmt.Sprintf("%.2fR", r)
}
