package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"custodia-hq/custodia/pkg/audit"
	"custodia-hq/custodia/pkg/audit/storage"
	"custodia-hq/custodia/pkg/evidence"
)

// seedStorage fills a memory backend with entries aged in whole days.
func seedStorage(t *testing.T, ageDays ...int) *storage.MemoryStorage {
	t.Helper()
	s := storage.NewMemoryStorage(0)
	ctx := context.Background()
	now := time.Now().UTC()

	// Oldest first so append order matches timestamp order.
	for i := len(ageDays) - 1; i >= 0; i-- {
		entry := &audit.Entry{
			ID:           fmt.Sprintf("entry-%d", i),
			Timestamp:    now.AddDate(0, 0, -ageDays[i]),
			ActorID:      "actor-1",
			Action:       evidence.ActionView,
			ResourceType: audit.ResourceTypeEvidence,
			ResourceID:   "ev-1",
			Result:       audit.ResultSuccess,
		}
		if err := audit.Sanitize(entry); err != nil {
			t.Fatalf("Sanitize() failed: %v", err)
		}
		if err := s.Append(ctx, entry); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}
	return s
}

// TestPruner_ByAge deletes entries older than the retention period only.
func TestPruner_ByAge(t *testing.T) {
	s := seedStorage(t, 1, 30, 100, 400, 500)

	pruner := NewPruner(s, &Config{RetentionDays: 365})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted entries, got %d", deleted)
	}

	count, err := s.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 retained entries, got %d", count)
	}
}

// TestPruner_ByCount keeps only the newest MaxEntries.
func TestPruner_ByCount(t *testing.T) {
	s := seedStorage(t, 1, 2, 3, 4, 5)

	pruner := NewPruner(s, &Config{MaxEntries: 2})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted entries, got %d", deleted)
	}

	entries, err := s.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 retained entries, got %d", len(entries))
	}
	if entries[0].ID != "entry-0" || entries[1].ID != "entry-1" {
		t.Errorf("Newest entries not retained: %s, %s", entries[0].ID, entries[1].ID)
	}
}

// TestPruner_NoLimits verifies a zero configuration never deletes.
func TestPruner_NoLimits(t *testing.T) {
	s := seedStorage(t, 1000, 2000)

	pruner := NewPruner(s, &Config{})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected no deletions, got %d", deleted)
	}
}

// TestPruner_ArchiveBeforeDelete verifies old entries land in a JSON
// archive file before deletion.
func TestPruner_ArchiveBeforeDelete(t *testing.T) {
	s := seedStorage(t, 1, 400, 500)
	archiveDir := t.TempDir()

	pruner := NewPruner(s, &Config{
		RetentionDays:       365,
		ArchiveBeforeDelete: true,
		ArchivePath:         archiveDir,
	})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted entries, got %d", deleted)
	}

	files, err := filepath.Glob(filepath.Join(archiveDir, "audit-*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("Expected 1 archive file, got %v (err=%v)", files, err)
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	var archived []*audit.Entry
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("Archive is not valid JSON: %v", err)
	}
	if len(archived) != 2 {
		t.Errorf("Expected 2 archived entries, got %d", len(archived))
	}
}

// TestScheduler_InvalidCron verifies a bad expression fails Start.
func TestScheduler_InvalidCron(t *testing.T) {
	s := storage.NewMemoryStorage(0)
	pruner := NewPruner(s, &Config{RetentionDays: 30, PruneSchedule: "not a cron"})

	if err := pruner.Start(context.Background()); err == nil {
		t.Fatal("Expected Start() to fail on invalid cron expression")
	}
}

// TestScheduler_EmptySchedule verifies an empty schedule is a clean
// no-op.
func TestScheduler_EmptySchedule(t *testing.T) {
	s := storage.NewMemoryStorage(0)
	pruner := NewPruner(s, &Config{RetentionDays: 30, PruneSchedule: ""})

	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if pruner.scheduler.IsRunning() {
		t.Error("Scheduler must not run without a schedule")
	}
	if pruner.NextPruning() != nil {
		t.Error("Expected no next pruning time")
	}
}

// TestScheduler_StartStop verifies lifecycle and the next-run query.
func TestScheduler_StartStop(t *testing.T) {
	s := storage.NewMemoryStorage(0)
	pruner := NewPruner(s, &Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !pruner.scheduler.IsRunning() {
		t.Fatal("Scheduler should be running")
	}

	next := pruner.NextPruning()
	if next == nil || !next.After(time.Now()) {
		t.Errorf("Expected a future next run, got %v", next)
	}

	pruner.Stop()
	if pruner.scheduler.IsRunning() {
		t.Error("Scheduler still running after Stop()")
	}
}
