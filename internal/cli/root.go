package cli

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trading-journal/internal/config"
	"trading-journal/internal/events"
	"trading-journal/internal/logging"
	"trading-journal/internal/metrics"
	"trading-journal/internal/models"
	"trading-journal/internal/notify"
	"trading-journal/internal/reflections"
	"trading-journal/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.DataStore
	Bus       *events.Bus
	Notifier  notify.Notifier
	Scheduler *reflections.Scheduler
	Dedup     *reflections.Deduplicator
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Bus:    events.NewBus(),
	}

	dataStore, err := store.NewSQLiteStore(cfg.Journal.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Journal.DBPath).Msg("SQLite store initialized")
	}

	app.Notifier = buildNotifier(cfg)

	if app.Store != nil {
		app.Scheduler = reflections.NewScheduler(app.Store, app.Bus, app.Notifier, logger, reflections.SchedulerConfig{
			MinInterval: cfg.Generation.MinInterval(),
			BatchSize:   cfg.Generation.BatchSize,
			YieldDelay:  cfg.Generation.YieldDelay(),
		})
		app.Dedup = reflections.NewDeduplicator(app.Store, app.Bus, logger)
	}

	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Personal trading journal with metrics and period reflections",
		Long: `journal is a personal trading journal CLI.

Log trades with stops, targets, and partial exits; review derived
metrics such as R-multiples and profit factor; and keep weekly and
monthly reflections that are generated automatically from closed trades.

Use 'journal help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			// Reflection commands manage generation and dedupe
			// explicitly; running maintenance first would consume the
			// throttle window they expect to own.
			path := cmd.CommandPath()
			if !strings.HasPrefix(path, "journal reflect") && path != "journal version" {
				app.startupMaintenance(cmd.Context())
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Store != nil {
				if err := app.Store.Close(); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to close store")
				}
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trading-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addTradeCommands(rootCmd, app)
	addMetricsCommands(rootCmd, app)
	addReflectionCommands(rootCmd, app)
	addVersionCommand(rootCmd)

	return rootCmd
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.Notifications.Enabled {
		return notify.NopNotifier{}
	}
	multi := notify.NewMultiNotifier(
		notify.NotificationLevel(cfg.Notifications.Level),
		notify.NewTerminalNotifier(isTerminal()),
	)
	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL != "" {
		multi.AddChannel(notify.NewWebhookNotifier(cfg.Notifications.Webhook.URL))
	}
	return multi
}

// loadTradesWithMetrics loads all trades and attaches freshly computed
// metrics; metrics are always derived on read, never persisted.
func (app *App) loadTradesWithMetrics(ctx context.Context) ([]models.TradeWithMetrics, error) {
	trades, err := app.Store.GetTrades(ctx, store.TradeFilter{})
	if err != nil {
		return nil, err
	}
	return metrics.WithMetrics(trades), nil
}

// startupMaintenance reconciles the reflection store before a command
// runs: dedupe first so generation sees a clean store, then a
// generation pass for any periods still missing.
func (app *App) startupMaintenance(ctx context.Context) {
	if app.Dedup != nil {
		if _, err := app.Dedup.Dedupe(ctx); err != nil {
			app.Logger.Warn().Err(err).Msg("Startup dedupe failed")
		}
	}
	app.maybeGenerateOnStartup(ctx)
}

// maybeGenerateOnStartup runs a generation pass when configured to do
// so. In-flight and throttle drops are expected here, not failures.
func (app *App) maybeGenerateOnStartup(ctx context.Context) {
	if !app.Config.Generation.OnStartup || app.Scheduler == nil {
		return
	}
	trades, err := app.loadTradesWithMetrics(ctx)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("Startup generation skipped: failed to load trades")
		return
	}
	if _, err := app.Scheduler.GenerateMissing(ctx, trades); err != nil {
		app.Logger.Debug().Err(err).Msg("Startup generation dropped")
	}
}

func addVersionCommand(rootCmd *cobra.Command) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			output.Printf("journal %s\n", Version)
		},
	})
}

// commandContext returns a bounded context for store operations.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
