package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"datacap-hq/datacap/pkg/cli"
	"datacap-hq/datacap/pkg/command"
	"datacap-hq/datacap/pkg/config"
	"datacap-hq/datacap/pkg/metering"
	"datacap-hq/datacap/pkg/metering/account"
	"datacap-hq/datacap/pkg/metering/storage"
	"datacap-hq/datacap/pkg/sensor"
)

var runFlags struct {
	dbPath   string
	logLevel string
	dryRun   bool
	watch    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the datacap daemon",
	Long: `Start the datacap daemon with the specified configuration.

The daemon loads the account from the database, accepts top-up and status
commands on stdin, and persists every state change asynchronously.

Examples:
  # Start with default config
  datacap run

  # Start with custom config
  datacap run --config /etc/datacap/config.yaml

  # Override database path
  datacap run --db /var/lib/datacap/datacap.db

  # Validate config without starting
  datacap run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.dbPath, "db", "", "override database path")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload configuration on file change")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.dbPath != "" {
		cfg.Storage.Path = runFlags.dbPath
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	// Logging. A LevelVar lets a config reload adjust the level without
	// replacing the handler.
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLogLevel(cfg.Telemetry.Logging.Level))

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: levelVar}
	if cfg.Telemetry.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// One cancellation point: SIGINT/SIGTERM, stdin EOF, and the exit
	// command all stop the daemon through this context.
	ctx, stop := cli.ShutdownContext(cmd.Context())
	defer stop()

	// Persistence backend
	var backend storage.Backend
	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := storage.OpenSQLite(storage.SQLiteConfig{
			Path:        cfg.Storage.Path,
			BusyTimeout: cfg.Storage.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		backend = db
	case "memory":
		backend = storage.NewMemory()
	default:
		return fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}

	engine, err := metering.New(metering.Config{
		AccountID:     cfg.Account.ID,
		Backend:       backend,
		QueueCapacity: cfg.Storage.QueueCapacity,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer engine.Close()

	engine.RegisterObserver(metering.ObserverFunc(func(acct account.Account) {
		slog.Debug("account updated",
			"balance_bytes", acct.BalanceBytes,
			"buckets", len(acct.Buckets),
			"locked", acct.Locked,
		)
	}))

	// Usage history retention (SQLite only; the memory backend forgets on
	// exit anyway)
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.Retention.Days > 0 {
		retention := storage.NewRetention(backend, storage.RetentionConfig{
			Days:     cfg.Storage.Retention.Days,
			Schedule: cfg.Storage.Retention.Schedule,
		})
		if err := retention.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer retention.Stop()
		}
	}

	if cfg.Sensor.Enabled {
		s := sensor.New(engine, sensor.Config{
			Interfaces: cfg.Sensor.Interfaces,
			Interval:   cfg.Sensor.Interval,
		})
		go s.Run(ctx)
	}

	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, promhttp.Handler())
		metricsSrv := &http.Server{
			Addr:              cfg.Telemetry.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("metrics listener started",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path,
			)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics listener failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, slog.Default())
		if err != nil {
			slog.Warn("failed to start configuration watcher", "error", err)
		} else {
			go func() {
				_ = watcher.Watch(ctx, func(next *config.Config) {
					// Only the log level is safe to apply live.
					levelVar.Set(parseLogLevel(next.Telemetry.Logging.Level))
				})
			}()
		}
	}

	fmt.Printf("Datacap v%s\n", Version)
	fmt.Printf("✓ Account %q loaded (%.2f GB remaining)\n", cfg.Account.ID, float64(engine.Balance())/1e9)
	fmt.Println("Commands: 'YouTube 2GB', 'Social 500MB', status, history, lock, unlock, exit")

	return commandLoop(ctx, stop, engine)
}

// commandLoop reads commands from stdin until EOF, "exit", or cancellation
// of ctx (which ShutdownContext ties to SIGINT/SIGTERM).
func commandLoop(ctx context.Context, stop context.CancelFunc, engine *metering.Engine) error {
	parser := command.NewParser(engine)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
			return nil

		case line, ok := <-lines:
			if !ok {
				stop()
				return nil
			}
			if done := dispatch(parser, engine, line); done {
				stop()
				return nil
			}
		}
	}
}

// dispatch handles one stdin line. Lock management and history are daemon
// commands; everything else goes through the top-up parser. Returns true
// when the daemon should exit.
func dispatch(parser *command.Parser, engine *metering.Engine, line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return false
	case "exit", "quit":
		return true
	case "unlock":
		engine.Unlock()
		fmt.Println("Account unlocked.")
		return false
	case "lock":
		engine.Lock()
		fmt.Println("Account locked.")
		return false
	case "history":
		if engine.Locked() {
			fmt.Println("Unlock required.")
			return false
		}
		printHistory(engine)
		return false
	default:
		fmt.Println(parser.Handle(line))
		return false
	}
}

func printHistory(engine *metering.Engine) {
	records := engine.UsageHistory(20)
	if len(records) == 0 {
		fmt.Println("No usage recorded yet.")
		return
	}
	for _, rec := range records {
		fmt.Printf("%s  %10d bytes  %s\n",
			time.Unix(rec.Timestamp, 0).Format(time.RFC3339),
			rec.Amount,
			rec.Category,
		)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
