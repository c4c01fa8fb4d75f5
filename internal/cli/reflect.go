package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	errs "trading-journal/internal/errors"
	"trading-journal/internal/models"
	"trading-journal/internal/reflections"
	"trading-journal/pkg/utils"
)

// addReflectionCommands adds weekly and monthly reflection commands.
func addReflectionCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Weekly and monthly reflections",
		Long:  "Generate, review, and edit period reflections derived from closed trades.",
	}

	cmd.AddCommand(newReflectGenerateCmd(app))
	cmd.AddCommand(newReflectListCmd(app))
	cmd.AddCommand(newReflectShowCmd(app))
	cmd.AddCommand(newReflectEditCmd(app))
	cmd.AddCommand(newReflectDedupeCmd(app))
	cmd.AddCommand(newReflectCleanupCmd(app))

	rootCmd.AddCommand(cmd)
}

// reflectionType parses the --type flag shared by reflection commands.
func reflectionType(cmd *cobra.Command) (models.ReflectionType, error) {
	typ, _ := cmd.Flags().GetString("type")
	switch typ {
	case "weekly":
		return models.ReflectionWeekly, nil
	case "monthly":
		return models.ReflectionMonthly, nil
	default:
		return "", errs.Wrapf(errs.ErrUnknownPeriodType, "%q", typ)
	}
}

func newReflectGenerateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate missing reflections for all traded periods",
		Long: `Buckets closed trades into weeks and months and creates a draft
reflection for every period that does not have one yet. Existing
reflections are never touched, so the command is safe to re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Scheduler == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			trades, err := app.loadTradesWithMetrics(ctx)
			if err != nil {
				output.Error("Failed to fetch trades: %v", err)
				return err
			}

			result, err := app.Scheduler.GenerateMissing(ctx, trades)
			switch {
			case errs.Is(err, errs.ErrGenerationInFlight):
				output.Warning("A generation pass is already running; this trigger was dropped.")
				return nil
			case errs.Is(err, errs.ErrGenerationThrottled):
				output.Warning("A generation pass ran recently; try again shortly.")
				return nil
			case err != nil:
				output.Error("Generation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ Created %d reflections (%d weekly, %d monthly), skipped %d existing",
				result.Created(), result.WeeklyCreated, result.MonthlyCreated, result.Skipped)
			if result.Failed > 0 {
				output.Warning("%d periods failed; see the log for details.", result.Failed)
			}
			return nil
		},
	}
}

func newReflectListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reflections",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			typ, err := reflectionType(cmd)
			if err != nil {
				return err
			}

			all, err := app.Store.ListReflections(ctx, typ)
			if err != nil {
				output.Error("Failed to fetch reflections: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(all)
			}

			if len(all) == 0 {
				output.Info("No %s reflections yet. Run 'journal reflect generate'.", typ)
				return nil
			}

			table := NewTable(output, "Period", "Grade", "Trades", "P&L", "R", "Updated")
			for _, r := range all {
				table.AddRow(
					r.PeriodID,
					string(r.Grade),
					fmt.Sprintf("%d", len(r.TradeIDs)),
					output.FormatPnL(r.TotalPnL),
					utils.FormatR(r.TotalR),
					FormatDate(r.LastUpdated),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("type", "weekly", "Reflection type (weekly, monthly)")

	return cmd
}

func newReflectShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <period-id>",
		Short: "Show one period's reflection",
		Example: `  journal reflect show 2026-08-24
  journal reflect show 2026-08 --type monthly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			typ, err := reflectionType(cmd)
			if err != nil {
				return err
			}

			r, err := app.Store.GetReflection(ctx, typ, args[0])
			if err != nil {
				return err
			}
			if r == nil {
				return errs.Wrapf(errs.ErrReflectionNotFound, "%s %s", typ, args[0])
			}

			if output.IsJSON() {
				return output.JSON(r)
			}

			lines := []string{
				fmt.Sprintf("Period:  %s to %s", FormatDate(r.PeriodStart), FormatDate(r.PeriodEnd)),
				fmt.Sprintf("Grade:   %s", r.Grade),
				fmt.Sprintf("Trades:  %d", len(r.TradeIDs)),
				fmt.Sprintf("P&L:     %s  (%s)", utils.FormatPnL(r.TotalPnL), utils.FormatR(r.TotalR)),
				fmt.Sprintf("Updated: %s", FormatDateTime(r.LastUpdated)),
			}
			output.Box(fmt.Sprintf("%s reflection %s", typ, r.PeriodID), lines)
			output.Println()
			output.Bold("Reflection")
			output.Println(r.ReflectionText)
			if r.PlanText != "" {
				output.Println()
				output.Bold("Plan")
				output.Println(r.PlanText)
			}
			return nil
		},
	}

	cmd.Flags().String("type", "weekly", "Reflection type (weekly, monthly)")

	return cmd
}

func newReflectEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <period-id>",
		Short: "Edit a reflection's text, plan, or grade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Store == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			typ, err := reflectionType(cmd)
			if err != nil {
				return err
			}

			r, err := app.Store.GetReflection(ctx, typ, args[0])
			if err != nil {
				return err
			}
			if r == nil {
				return errs.Wrapf(errs.ErrReflectionNotFound, "%s %s", typ, args[0])
			}

			changed := false
			if cmd.Flags().Changed("text") {
				text, _ := cmd.Flags().GetString("text")
				r.ReflectionText = text
				changed = true
			}
			if cmd.Flags().Changed("plan") {
				plan, _ := cmd.Flags().GetString("plan")
				r.PlanText = plan
				changed = true
			}
			if cmd.Flags().Changed("grade") {
				grade, _ := cmd.Flags().GetString("grade")
				parsed, err := parseGrade(grade)
				if err != nil {
					return err
				}
				r.Grade = parsed
				changed = true
			}
			if !changed {
				output.Warning("Nothing to change; pass --text, --plan, or --grade.")
				return nil
			}

			// A human touched it; it is no longer cleanup-eligible noise.
			r.IsPlaceholder = false
			r.LastUpdated = time.Now()

			if err := app.Store.SaveReflection(ctx, r); err != nil {
				output.Error("Failed to save reflection: %v", err)
				return err
			}

			output.Success("✓ Updated %s reflection %s", typ, r.PeriodID)
			return nil
		},
	}

	cmd.Flags().String("type", "weekly", "Reflection type (weekly, monthly)")
	cmd.Flags().String("text", "", "Reflection text")
	cmd.Flags().String("plan", "", "Plan for the next period")
	cmd.Flags().String("grade", "", "Self-assessed grade (A-F)")

	return cmd
}

func parseGrade(s string) (models.Grade, error) {
	switch models.Grade(s) {
	case models.GradeA, models.GradeB, models.GradeC, models.GradeD, models.GradeF:
		return models.Grade(s), nil
	}
	return "", errs.NewValidationError("grade", s, "must be one of A, B, C, D, F")
}

func newReflectDedupeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Collapse duplicate reflections per period",
		Long: `Groups reflections by the canonical period derived from their start
date and keeps only the most recently updated record per period.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Dedup == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			result, err := app.Dedup.Dedupe(ctx)
			if err != nil {
				output.Error("Dedupe failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			printRemoval(output, result, "duplicate")
			return nil
		},
	}
}

func newReflectCleanupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove empty auto-generated placeholders",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			if app.Dedup == nil {
				output.Warning("Store not initialized.")
				return nil
			}

			result, err := app.Dedup.CleanupEmpty(ctx)
			if err != nil {
				output.Error("Cleanup failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			printRemoval(output, result, "empty")
			return nil
		},
	}
}

func printRemoval(output *Output, result reflections.DedupeResult, kind string) {
	if result.Total() == 0 {
		output.Info("No %s reflections found.", kind)
		return
	}
	output.Success("✓ Removed %d %s reflections (%d weekly, %d monthly)",
		result.Total(), kind, result.WeeklyRemoved, result.MonthlyRemoved)
}
