package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"custodia-hq/custodia/pkg/access/scopes"
	"custodia-hq/custodia/pkg/audit/retention"
	"custodia-hq/custodia/pkg/config"
	"custodia-hq/custodia/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evidence service",
	Long: `Run the long-lived evidence service.

The service keeps the actor scope store hot-reloaded from disk, prunes
the audit trail on the configured cron schedule, and exposes Prometheus
metrics and a health endpoint on the telemetry listen address.

Examples:
  # Run with the default config
  custodia run

  # Run with a custom config
  custodia run --config /etc/custodia/config.yaml

  # Validate the config without starting
  custodia run --dry-run`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the service")
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	configureLogging(cfg.Telemetry.Logging, verbose)

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := newCollector(&cfg.Telemetry.Metrics)

	// Scope store with hot-reload.
	watchCfg := scopes.DefaultWatcherConfig()
	watchCfg.DebounceInterval = cfg.Scopes.DebounceInterval
	manager := scopes.NewManager(cfg.Scopes.Path, watchCfg, nil)
	if err := manager.Load(ctx); err != nil {
		return err
	}
	slog.Info("actor scopes loaded", "path", cfg.Scopes.Path, "scope_count", manager.Store().Len())

	if cfg.Scopes.Watch {
		go func() {
			if err := manager.Watch(ctx); err != nil {
				slog.Error("scope watcher stopped", "error", err)
			}
		}()
	}

	// Audit storage and scheduled retention.
	store, err := buildAuditStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Audit.Retention.Schedule != "" {
		pruner := retention.NewPruner(store, &retention.Config{
			RetentionDays:       cfg.Audit.Retention.Days,
			PruneSchedule:       cfg.Audit.Retention.Schedule,
			MaxEntries:          cfg.Audit.Retention.MaxEntries,
			ArchiveBeforeDelete: cfg.Audit.Retention.ArchiveBeforeDelete,
			ArchivePath:         cfg.Audit.Retention.ArchivePath,
		})
		if err := pruner.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				slog.Info("audit retention scheduler started", "next_pruning", next)
			}
		}
	}

	// Telemetry endpoint.
	var srv *http.Server
	errChan := make(chan error, 1)
	if collector != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})

		srv = &http.Server{Addr: cfg.Telemetry.Metrics.ListenAddress, Handler: mux}
		go func() {
			slog.Info("telemetry endpoint listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("telemetry server error: %w", err)
			}
		}()
	}

	fmt.Println("custodia service started")
	fmt.Printf("  scopes:  %s (watch: %t)\n", cfg.Scopes.Path, cfg.Scopes.Watch)
	fmt.Printf("  audit:   %s backend\n", cfg.Audit.Backend)
	if srv != nil {
		fmt.Printf("  metrics: http://%s/metrics\n", srv.Addr)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		fmt.Printf("\nreceived signal %s, shutting down\n", sig)
		cancel()

		if srv != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("telemetry server shutdown failed: %w", err)
			}
		}
		return nil
	}
}

// configureLogging installs the process-wide logger per the telemetry
// configuration. The global --verbose flag forces debug regardless of the
// configured level.
func configureLogging(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := parseLogLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel maps a config level string to a slog level, defaulting to
// info for anything unrecognized.
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

// newCollector builds the Prometheus collector from the telemetry
// configuration, or nil when metrics are disabled. A nil collector is a
// no-op on every instrumented path.
func newCollector(cfg *config.MetricsConfig) *metrics.Collector {
	if !cfg.Enabled {
		return nil
	}
	return metrics.NewCollector(&metrics.Config{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
	}, nil)
}
