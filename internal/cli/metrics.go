package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"trading-journal/internal/metrics"
	"trading-journal/internal/models"
	"trading-journal/pkg/utils"
)

// addMetricsCommands adds portfolio statistics commands.
func addMetricsCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Portfolio statistics",
	}

	cmd.AddCommand(newMetricsReportCmd(app))
	cmd.AddCommand(newMetricsSymbolsCmd(app))

	rootCmd.AddCommand(cmd)
}

func newMetricsReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show aggregate portfolio statistics",
		Long:  "Computes win rate, profit factor, expectancy, drawdown, and related statistics over all closed trades.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			trades, err := app.loadTradesWithMetrics(ctx)
			if err != nil {
				output.Error("Failed to fetch trades: %v", err)
				return err
			}

			stats := metrics.ComputePortfolioStats(trades)
			if output.IsJSON() {
				return output.JSON(stats)
			}

			if stats.TotalTrades == 0 {
				output.Info("No closed trades yet.")
				return nil
			}

			output.Box("Portfolio Report", []string{
				fmt.Sprintf("Closed trades:  %d (%d wins / %d losses)", stats.TotalTrades, stats.Wins, stats.Losses),
				fmt.Sprintf("Win rate:       %.1f%%", stats.WinRate),
				fmt.Sprintf("Net P&L:        %s", utils.FormatPnL(stats.NetPnL)),
				fmt.Sprintf("Gross profit:   %s", utils.FormatCurrency(stats.GrossProfit)),
				fmt.Sprintf("Gross loss:     %s", utils.FormatCurrency(stats.GrossLoss)),
				fmt.Sprintf("Avg win:        %s", utils.FormatCurrency(stats.AvgWin)),
				fmt.Sprintf("Avg loss:       %s", utils.FormatCurrency(stats.AvgLoss)),
				fmt.Sprintf("Profit factor:  %s", utils.FormatRatio(stats.ProfitFactor)),
				fmt.Sprintf("Expectancy:     %s", utils.FormatRatio(stats.Expectancy)),
				fmt.Sprintf("Expected value: %s", utils.FormatCurrency(stats.ExpectedValue)),
				fmt.Sprintf("Max drawdown:   %s", utils.FormatCurrency(stats.MaxDrawdown)),
				fmt.Sprintf("Calmar ratio:   %s", utils.FormatRatio(stats.CalmarRatio)),
				fmt.Sprintf("Pareto index:   %.1f%%", stats.ParetoIndex),
				fmt.Sprintf("Total R:        %s", utils.FormatR(stats.TotalR)),
			})
			return nil
		},
	}
}

// symbolStats is one per-symbol row of the breakdown report.
type symbolStats struct {
	Symbol string                 `json:"symbol"`
	Stats  metrics.PortfolioStats `json:"stats"`
}

func newMetricsSymbolsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "Show statistics broken down by symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			trades, err := app.loadTradesWithMetrics(ctx)
			if err != nil {
				output.Error("Failed to fetch trades: %v", err)
				return err
			}

			bySymbol := make(map[string][]models.TradeWithMetrics)
			for _, t := range trades {
				bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
			}

			rows := make([]symbolStats, 0, len(bySymbol))
			for symbol, group := range bySymbol {
				stats := metrics.ComputePortfolioStats(group)
				if stats.TotalTrades == 0 {
					continue
				}
				rows = append(rows, symbolStats{Symbol: symbol, Stats: stats})
			}
			sortSymbolStats(rows)

			if output.IsJSON() {
				return output.JSON(rows)
			}

			if len(rows) == 0 {
				output.Info("No closed trades yet.")
				return nil
			}

			table := NewTable(output, "Symbol", "Trades", "Win%", "Net P&L", "PF", "Total R")
			for _, row := range rows {
				table.AddRow(
					row.Symbol,
					fmt.Sprintf("%d", row.Stats.TotalTrades),
					fmt.Sprintf("%.1f", row.Stats.WinRate),
					output.FormatPnL(row.Stats.NetPnL),
					utils.FormatRatio(row.Stats.ProfitFactor),
					utils.FormatR(row.Stats.TotalR),
				)
			}
			table.Render()
			return nil
		},
	}
}

// sortSymbolStats orders rows by net P&L descending, then symbol.
func sortSymbolStats(rows []symbolStats) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Stats.NetPnL != rows[j].Stats.NetPnL {
			return rows[i].Stats.NetPnL > rows[j].Stats.NetPnL
		}
		return rows[i].Symbol < rows[j].Symbol
	})
}
