package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"custodia-hq/custodia/pkg/audit"
	"custodia-hq/custodia/pkg/audit/export"
	"custodia-hq/custodia/pkg/audit/retention"
	"custodia-hq/custodia/pkg/audit/storage"
	"custodia-hq/custodia/pkg/config"
	"custodia-hq/custodia/pkg/evidence"
)

var auditFlags struct {
	timeRange string
	actor     string
	action    string
	result    string
	resource  string
	limit     int
	offset    int
	format    string
	output    string
	days      int
	maxCount  int64
	archive   bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query, export and prune the audit trail",
	Long: `Work with the append-only audit trail.

Subcommands:
  query  - List audit entries with filters
  export - Export entries to JSON or CSV
  prune  - Apply retention limits to the trail

Examples:
  # Denied decisions for one actor
  custodia audit query --actor actor-1 --result denied

  # Export a time window to CSV
  custodia audit export --format csv --output trail.csv \
    --time-range "2026-08-01T00:00:00Z/2026-08-28T00:00:00Z"

  # Prune entries older than 90 days
  custodia audit prune --days 90`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List audit entries",
	RunE:  queryAudit,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit entries",
	RunE:  exportAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply retention limits",
	Long: `Delete audit entries beyond the age or count limits. With no
flags the limits come from the retention section of the config file.`,
	RunE: pruneAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditExportCmd, auditPruneCmd)

	for _, cmd := range []*cobra.Command{auditQueryCmd, auditExportCmd} {
		cmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		cmd.Flags().StringVar(&auditFlags.actor, "actor", "", "filter by actor ID")
		cmd.Flags().StringVar(&auditFlags.action, "action", "", "filter by action")
		cmd.Flags().StringVar(&auditFlags.result, "result", "", "filter by result (success, denied, error)")
		cmd.Flags().StringVar(&auditFlags.resource, "resource", "", "filter by resource ID")
		cmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "max results")
		cmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	}
	auditExportCmd.Flags().StringVar(&auditFlags.format, "format", "json", "export format: json, csv")
	auditExportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")

	auditPruneCmd.Flags().IntVar(&auditFlags.days, "days", 0, "delete entries older than this many days")
	auditPruneCmd.Flags().Int64Var(&auditFlags.maxCount, "max-entries", 0, "keep at most this many entries")
	auditPruneCmd.Flags().BoolVar(&auditFlags.archive, "archive", false, "archive entries to JSON before deletion")
}

// buildAuditStorage opens the storage backend named in the configuration.
func buildAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		return storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Audit.SQLite.Path,
			MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
			WALMode:      cfg.Audit.SQLite.WALMode,
			BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryStorage(cfg.Audit.Memory.Capacity), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend %q", cfg.Audit.Backend)
	}
}

// buildAuditFilter assembles a filter from the shared query flags.
func buildAuditFilter() (*audit.Filter, error) {
	filter := &audit.Filter{
		ActorID:    auditFlags.actor,
		Result:     audit.Result(auditFlags.result),
		ResourceID: auditFlags.resource,
		Limit:      auditFlags.limit,
		Offset:     auditFlags.offset,
	}

	if auditFlags.action != "" {
		action, err := evidence.ParseAction(auditFlags.action)
		if err != nil {
			return nil, err
		}
		filter.Action = action
	}

	if auditFlags.timeRange != "" {
		parts := strings.Split(auditFlags.timeRange, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid time range format (expected: start/end)")
		}
		start, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start time: %w", err)
		}
		end, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end time: %w", err)
		}
		filter.StartTime = &start
		filter.EndTime = &end
	}

	return filter, nil
}

func queryAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := buildAuditStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	filter, err := buildAuditFilter()
	if err != nil {
		return err
	}

	entries, err := store.List(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("audit query failed: %w", err)
	}

	fmt.Printf("Total entries: %d\n\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("%s  %-7s %-8s actor=%s resource=%s",
			entry.Timestamp.Format(time.RFC3339), entry.Action, entry.Result,
			entry.ActorID, entry.ResourceID)
		if entry.Reason != "" {
			fmt.Printf("  reason=%q", entry.Reason)
		}
		if override := entry.Metadata["seal_override"]; override == "true" {
			fmt.Printf("  seal_override=true")
		}
		fmt.Println()
	}
	return nil
}

func exportAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := buildAuditStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	filter, err := buildAuditFilter()
	if err != nil {
		return err
	}

	entries, err := store.List(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("audit query failed: %w", err)
	}

	output := os.Stdout
	if auditFlags.output != "" {
		output, err = os.Create(auditFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	var exporter export.Exporter
	switch auditFlags.format {
	case "json":
		exporter = export.NewJSONExporter(true)
	case "csv":
		exporter = export.NewCSVExporter(true)
	default:
		return fmt.Errorf("unsupported export format %q (want json or csv)", auditFlags.format)
	}

	return exporter.Export(context.Background(), entries, output)
}

func pruneAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := buildAuditStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	retentionCfg := &retention.Config{
		RetentionDays:       cfg.Audit.Retention.Days,
		MaxEntries:          cfg.Audit.Retention.MaxEntries,
		ArchiveBeforeDelete: cfg.Audit.Retention.ArchiveBeforeDelete,
		ArchivePath:         cfg.Audit.Retention.ArchivePath,
	}
	if auditFlags.days > 0 {
		retentionCfg.RetentionDays = auditFlags.days
	}
	if auditFlags.maxCount > 0 {
		retentionCfg.MaxEntries = auditFlags.maxCount
	}
	if auditFlags.archive {
		retentionCfg.ArchiveBeforeDelete = true
	}

	pruner := retention.NewPruner(store, retentionCfg)
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d audit entries\n", deleted)
	return nil
}
