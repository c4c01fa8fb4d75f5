package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	errs "trading-journal/internal/errors"
	"trading-journal/internal/logging"
	"trading-journal/internal/metrics"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
	"trading-journal/pkg/utils"
)

// addTradeCommands adds trade management commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Trade management",
		Long:  "Log, close, and review trades.",
	}

	cmd.AddCommand(newTradeAddCmd(app))
	cmd.AddCommand(newTradeCloseCmd(app))
	cmd.AddCommand(newTradePartialCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeShowCmd(app))
	cmd.AddCommand(newTradeExportCmd(app))

	rootCmd.AddCommand(cmd)
}

func newTradeAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <symbol>",
		Short: "Log a new trade",
		Example: `  journal trade add AAPL --direction long --qty 10 --entry 100 --stop 95 --target 110
  journal trade add ES --instrument futures --qty 1 --entry 4500 --stop 4480 --tick-size 0.25 --tick-value 12.50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			direction, _ := cmd.Flags().GetString("direction")
			instrument, _ := cmd.Flags().GetString("instrument")
			qty, _ := cmd.Flags().GetFloat64("qty")
			entry, _ := cmd.Flags().GetFloat64("entry")
			entryDateStr, _ := cmd.Flags().GetString("entry-date")
			stop, _ := cmd.Flags().GetFloat64("stop")
			target, _ := cmd.Flags().GetFloat64("target")
			fees, _ := cmd.Flags().GetFloat64("fees")
			tickSize, _ := cmd.Flags().GetFloat64("tick-size")
			tickValue, _ := cmd.Flags().GetFloat64("tick-value")
			strategy, _ := cmd.Flags().GetString("strategy")
			notes, _ := cmd.Flags().GetString("notes")

			if qty <= 0 {
				return errs.NewValidationError("qty", qty, "must be positive")
			}
			if entry <= 0 {
				return errs.NewValidationError("entry", entry, "must be positive")
			}
			if direction != string(models.Long) && direction != string(models.Short) {
				return errs.NewValidationError("direction", direction, "must be 'long' or 'short'")
			}

			entryDate, err := parseDate(entryDateStr)
			if err != nil {
				return err
			}
			if entryDate.IsZero() {
				entryDate = time.Now()
			}

			now := time.Now()
			trade := models.Trade{
				ID:         ulid.Make().String(),
				Symbol:     args[0],
				Direction:  models.Direction(direction),
				Instrument: models.InstrumentType(instrument),
				Quantity:   qty,
				EntryPrice: entry,
				EntryDate:  entryDate,
				Fees:       fees,
				Status:     models.StatusOpen,
				Strategy:   strategy,
				Notes:      notes,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if stop > 0 {
				// The initial stop is frozen here; later stop moves only
				// change StopLoss.
				trade.InitialStopLoss = models.Float64(stop)
				trade.StopLoss = models.Float64(stop)
			}
			if target > 0 {
				trade.TakeProfit = models.Float64(target)
			}
			if tickValue > 0 {
				trade.Contract = &models.ContractDetails{TickSize: tickSize, TickValue: tickValue}
			}

			if err := app.Store.SaveTrade(ctx, &trade); err != nil {
				output.Error("Failed to save trade: %v", err)
				return err
			}

			output.Success("✓ Trade %s logged: %s %s %.4g @ %s", trade.ID, direction, trade.Symbol, qty, FormatPrice(entry))
			return nil
		},
	}

	cmd.Flags().String("direction", "long", "Trade direction (long, short)")
	cmd.Flags().String("instrument", "stock", "Instrument type (stock, futures, forex, crypto, options)")
	cmd.Flags().Float64("qty", 0, "Quantity")
	cmd.Flags().Float64("entry", 0, "Entry price")
	cmd.Flags().String("entry-date", "", "Entry date (YYYY-MM-DD, default now)")
	cmd.Flags().Float64("stop", 0, "Initial stop-loss price")
	cmd.Flags().Float64("target", 0, "Take-profit price")
	cmd.Flags().Float64("fees", 0, "Entry fees")
	cmd.Flags().Float64("tick-size", 0, "Futures tick size")
	cmd.Flags().Float64("tick-value", 0, "Futures tick value")
	cmd.Flags().String("strategy", "", "Strategy name")
	cmd.Flags().String("notes", "", "Free-form notes")

	return cmd
}

func newTradeCloseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close <trade-id>",
		Short: "Close a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			exit, _ := cmd.Flags().GetFloat64("exit")
			exitDateStr, _ := cmd.Flags().GetString("exit-date")
			fees, _ := cmd.Flags().GetFloat64("fees")

			trade, err := app.Store.GetTrade(ctx, args[0])
			if err != nil {
				return err
			}
			if trade == nil {
				return errs.Wrapf(errs.ErrNotFound, "trade %s", args[0])
			}
			if trade.IsClosed() {
				return errs.ErrTradeAlreadyClosed
			}

			exitDate, err := parseDate(exitDateStr)
			if err != nil {
				return err
			}
			if exitDate.IsZero() {
				exitDate = time.Now()
			}

			remaining := trade.Quantity - trade.ExitedQuantity()
			if remaining > 0 && exit <= 0 {
				return errs.NewValidationError("exit", exit, "exit price required while position remains open")
			}
			if exit > 0 {
				trade.ExitPrice = models.Float64(exit)
				trade.ExitDate = models.Time(exitDate)
			}
			trade.Fees += fees
			trade.Status = models.StatusClosed
			trade.UpdatedAt = time.Now()

			if err := app.Store.SaveTrade(ctx, trade); err != nil {
				output.Error("Failed to close trade: %v", err)
				return err
			}

			m := metrics.Calculate(*trade)
			logging.LogTradeClosed(app.Logger, trade.ID, trade.Symbol, m.PnL())
			output.Success("✓ Trade %s closed", trade.ID)
			if m.ProfitLoss != nil {
				output.Printf("  P&L:        %s\n", output.FormatPnL(*m.ProfitLoss))
			}
			if m.RMultiple != nil {
				output.Printf("  R-multiple: %s\n", utils.FormatR(*m.RMultiple))
			}
			return nil
		},
	}

	cmd.Flags().Float64("exit", 0, "Exit price for the remaining quantity")
	cmd.Flags().String("exit-date", "", "Exit date (YYYY-MM-DD, default now)")
	cmd.Flags().Float64("fees", 0, "Exit fees")

	return cmd
}

func newTradePartialCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partial <trade-id>",
		Short: "Record a partial exit",
		Long:  "Record a fill that closes part of an open position. When partial exits cover the full quantity the trade is closed automatically.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			price, _ := cmd.Flags().GetFloat64("price")
			qty, _ := cmd.Flags().GetFloat64("qty")
			dateStr, _ := cmd.Flags().GetString("date")
			fees, _ := cmd.Flags().GetFloat64("fees")

			if price <= 0 {
				return errs.NewValidationError("price", price, "must be positive")
			}
			if qty <= 0 {
				return errs.NewValidationError("qty", qty, "must be positive")
			}

			trade, err := app.Store.GetTrade(ctx, args[0])
			if err != nil {
				return err
			}
			if trade == nil {
				return errs.Wrapf(errs.ErrNotFound, "trade %s", args[0])
			}
			if trade.IsClosed() {
				return errs.ErrTradeAlreadyClosed
			}
			if trade.ExitedQuantity()+qty > trade.Quantity {
				return errs.ErrQuantityExceeded
			}

			date, err := parseDate(dateStr)
			if err != nil {
				return err
			}
			if date.IsZero() {
				date = time.Now()
			}

			trade.PartialExits = append(trade.PartialExits, models.PartialExit{
				ID:       ulid.Make().String(),
				Date:     date,
				Price:    price,
				Quantity: qty,
				Fees:     fees,
			})
			if trade.ExitedQuantity() >= trade.Quantity {
				trade.Status = models.StatusClosed
			}
			trade.UpdatedAt = time.Now()

			if err := app.Store.SaveTrade(ctx, trade); err != nil {
				output.Error("Failed to save partial exit: %v", err)
				return err
			}

			remaining := trade.Quantity - trade.ExitedQuantity()
			if trade.IsClosed() {
				output.Success("✓ Partial exit recorded; position fully closed")
			} else {
				output.Success("✓ Partial exit recorded; %.4g remaining", remaining)
			}
			return nil
		},
	}

	cmd.Flags().Float64("price", 0, "Exit price")
	cmd.Flags().Float64("qty", 0, "Quantity exited")
	cmd.Flags().String("date", "", "Exit date (YYYY-MM-DD, default now)")
	cmd.Flags().Float64("fees", 0, "Exit fees")

	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades with derived metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			status, _ := cmd.Flags().GetString("status")
			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			trades, err := app.Store.GetTrades(ctx, store.TradeFilter{
				Symbol: symbol,
				Status: models.TradeStatus(status),
				Limit:  limit,
			})
			if err != nil {
				output.Error("Failed to fetch trades: %v", err)
				return err
			}

			withMetrics := metrics.WithMetrics(trades)
			if output.IsJSON() {
				return output.JSON(withMetrics)
			}

			if len(withMetrics) == 0 {
				output.Info("No trades found.")
				return nil
			}

			table := NewTable(output, "ID", "Symbol", "Dir", "Qty", "Entry", "Exit", "P&L", "R", "Status")
			for _, t := range withMetrics {
				table.AddRow(
					TruncateString(t.ID, 10),
					t.Symbol,
					string(t.Direction),
					fmt.Sprintf("%.4g", t.Quantity),
					FormatPrice(t.EntryPrice),
					dashIfNil(t.Metrics.WeightedExitPrice, FormatPrice),
					dashIfNil(t.Metrics.ProfitLoss, func(v float64) string { return output.FormatPnL(v) }),
					dashIfNil(t.Metrics.RMultiple, utils.FormatR),
					string(t.Status),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("status", "", "Filter by status (open, closed)")
	cmd.Flags().String("symbol", "", "Filter by symbol")
	cmd.Flags().Int("limit", 100, "Maximum trades to list")

	return cmd
}

func newTradeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show a trade and its metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			trade, err := app.Store.GetTrade(ctx, args[0])
			if err != nil {
				return err
			}
			if trade == nil {
				return errs.Wrapf(errs.ErrNotFound, "trade %s", args[0])
			}

			t := models.TradeWithMetrics{Trade: *trade, Metrics: metrics.Calculate(*trade)}
			if output.IsJSON() {
				return output.JSON(t)
			}

			lines := []string{
				fmt.Sprintf("%s %s %.4g @ %s  (%s)", t.Direction, t.Symbol, t.Quantity, FormatPrice(t.EntryPrice), t.Status),
				fmt.Sprintf("Entry:      %s", FormatDateTime(t.EntryDate)),
			}
			if t.Metrics.WeightedExitPrice != nil {
				lines = append(lines, fmt.Sprintf("Exit:       %s (weighted)", FormatPrice(*t.Metrics.WeightedExitPrice)))
			}
			if t.Metrics.ProfitLoss != nil {
				lines = append(lines, fmt.Sprintf("P&L:        %s", utils.FormatPnL(*t.Metrics.ProfitLoss)))
			}
			if t.Metrics.InitialRiskedAmount != nil {
				lines = append(lines, fmt.Sprintf("Risked:     %s (initial)", utils.FormatCurrency(*t.Metrics.InitialRiskedAmount)))
			}
			if t.Metrics.RMultiple != nil {
				lines = append(lines, fmt.Sprintf("R-multiple: %s", utils.FormatR(*t.Metrics.RMultiple)))
			}
			if t.Metrics.RiskRewardRatio != nil {
				lines = append(lines, fmt.Sprintf("R/R ratio:  %s", FormatRiskReward(*t.Metrics.RiskRewardRatio)))
			}
			if t.Metrics.CapturedProfitPercent != nil {
				lines = append(lines, fmt.Sprintf("Captured:   %.1f%% of max favorable excursion", *t.Metrics.CapturedProfitPercent))
			}
			if len(t.PartialExits) > 0 {
				lines = append(lines, fmt.Sprintf("Partials:   %d fills, %.4g of %.4g exited", len(t.PartialExits), t.ExitedQuantity(), t.Quantity))
			}
			output.Box("Trade "+TruncateString(t.ID, 12), lines)
			return nil
		},
	}
}

// tradeCSVRow flattens a trade for CSV export.
type tradeCSVRow struct {
	ID         string  `csv:"id"`
	Symbol     string  `csv:"symbol"`
	Direction  string  `csv:"direction"`
	Instrument string  `csv:"instrument"`
	Quantity   float64 `csv:"quantity"`
	EntryPrice float64 `csv:"entry_price"`
	EntryDate  string  `csv:"entry_date"`
	ExitPrice  string  `csv:"exit_price"`
	ExitDate   string  `csv:"exit_date"`
	Fees       float64 `csv:"fees"`
	Status     string  `csv:"status"`
	ProfitLoss string  `csv:"profit_loss"`
	RMultiple  string  `csv:"r_multiple"`
	Strategy   string  `csv:"strategy"`
}

func newTradeExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trades to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			path, _ := cmd.Flags().GetString("out")

			trades, err := app.loadTradesWithMetrics(ctx)
			if err != nil {
				output.Error("Failed to fetch trades: %v", err)
				return err
			}

			rows := make([]tradeCSVRow, 0, len(trades))
			for _, t := range trades {
				row := tradeCSVRow{
					ID:         t.ID,
					Symbol:     t.Symbol,
					Direction:  string(t.Direction),
					Instrument: string(t.Instrument),
					Quantity:   t.Quantity,
					EntryPrice: t.EntryPrice,
					EntryDate:  t.EntryDate.Format(time.RFC3339),
					Fees:       t.TotalFees(),
					Status:     string(t.Status),
					Strategy:   t.Strategy,
				}
				if t.Metrics.WeightedExitPrice != nil {
					row.ExitPrice = fmt.Sprintf("%.4f", *t.Metrics.WeightedExitPrice)
				}
				if exit := t.ExitTime(); exit != nil {
					row.ExitDate = exit.Format(time.RFC3339)
				}
				if t.Metrics.ProfitLoss != nil {
					row.ProfitLoss = fmt.Sprintf("%.2f", *t.Metrics.ProfitLoss)
				}
				if t.Metrics.RMultiple != nil {
					row.RMultiple = fmt.Sprintf("%.2f", *t.Metrics.RMultiple)
				}
				rows = append(rows, row)
			}

			f, err := os.Create(path)
			if err != nil {
				return errs.Wrapf(err, "creating %s", path)
			}
			defer f.Close()

			if err := gocsv.MarshalFile(&rows, f); err != nil {
				return errs.Wrap(err, "writing CSV")
			}

			output.Success("✓ Exported %d trades to %s", len(rows), path)
			return nil
		},
	}

	cmd.Flags().String("out", "trades.csv", "Output file path")

	return cmd
}
