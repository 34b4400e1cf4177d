// Package retention enforces operational retention limits on the audit
// trail. Pruning is an operational policy applied from the oldest end of
// the trail; it never reorders or mutates the entries that remain.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"custodia-hq/custodia/pkg/audit"
	"custodia-hq/custodia/pkg/audit/export"
)

// Config contains configuration for the audit retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain audit entries.
	// 0 means keep entries forever (no age-based pruning).
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM).
	PruneSchedule string

	// MaxEntries is the maximum number of entries to keep.
	// 0 means unlimited.
	MaxEntries int64

	// ArchiveBeforeDelete exports entries to JSON before deleting them.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory for archive files.
	ArchivePath string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays:       365,
		PruneSchedule:       "0 3 * * *",
		MaxEntries:          0,
		ArchiveBeforeDelete: false,
		ArchivePath:         "data/archives/",
	}
}

// Pruner enforces the retention configuration against an audit storage
// backend.
type Pruner struct {
	storage   audit.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage audit.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "audit.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)
	return pruner
}

// Prune applies the age and count limits in one pass and returns the
// number of entries deleted. With both limits at zero it is a no-op.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 && p.config.MaxEntries <= 0 {
		p.logger.Debug("no retention limits configured, skipping prune")
		return 0, nil
	}

	var cutoff time.Time
	if p.config.RetentionDays > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -p.config.RetentionDays)
	}

	if p.config.ArchiveBeforeDelete && !cutoff.IsZero() {
		if err := p.archive(ctx, cutoff); err != nil {
			return 0, fmt.Errorf("archive before delete failed: %w", err)
		}
	}

	deleted, err := p.storage.Prune(ctx, cutoff, p.config.MaxEntries)
	if err != nil {
		return 0, fmt.Errorf("audit prune failed: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("audit entries pruned",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
			"max_entries", p.config.MaxEntries,
		)
	} else {
		p.logger.Debug("no audit entries pruned",
			"retention_days", p.config.RetentionDays,
			"max_entries", p.config.MaxEntries,
		)
	}

	return deleted, nil
}

// archive exports the entries older than cutoff to a timestamped JSON
// file before they are deleted.
func (p *Pruner) archive(ctx context.Context, cutoff time.Time) error {
	entries, err := p.storage.List(ctx, &audit.Filter{EndTime: &cutoff})
	if err != nil {
		return fmt.Errorf("failed to list entries for archiving: %w", err)
	}
	if len(entries) == 0 {
		p.logger.Debug("no entries to archive")
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archiveFile := filepath.Join(p.config.ArchivePath,
		fmt.Sprintf("audit-%s.json", time.Now().UTC().Format("2006-01-02-150405")))
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	exporter := export.NewJSONExporter(true)
	if err := exporter.Export(ctx, entries, f); err != nil {
		return fmt.Errorf("failed to export entries to archive: %w", err)
	}

	p.logger.Info("audit entries archived",
		"archive_file", archiveFile,
		"entry_count", len(entries),
	)
	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
