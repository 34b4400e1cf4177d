package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"custodia-hq/custodia/pkg/evidence"
	"custodia-hq/custodia/pkg/telemetry/metrics"
)

// Config contains configuration for the audit logger.
type Config struct {
	// Enabled enables audit recording. When false, Record is a no-op.
	Enabled bool

	// AsyncBuffer is the size of the async append channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for a single storage append.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Event is the caller-facing input to Record. The logger turns it into a
// sanitized Entry with ID, timestamp and resource type filled in.
type Event struct {
	ActorID    string
	ActorName  string
	Action     evidence.Action
	ResourceID string
	IPAddress  string
	UserAgent  string
	Result     Result
	Reason     string
	Metadata   map[string]string
}

// Logger records security-relevant events as immutable, sanitized audit
// entries.
//
// Writes are fire-and-forget from the caller's perspective but internally
// serialized through a single-writer worker goroutine, so concurrent
// sensitive operations never interleave partial entries. Storage failures
// are swallowed after local logging: audit-sink unavailability must not
// become a denial-of-service vector for the sensitive operations it
// observes. Operators watch Dropped() and the metrics counters instead.
type Logger struct {
	storage Storage
	config  *Config
	metrics *metrics.Collector

	entryChan chan *Entry
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Int64
	pending   atomic.Int64
	logger    *slog.Logger
}

// NewLogger creates an audit logger backed by the given storage and starts
// its single-writer worker.
func NewLogger(storage Storage, config *Config, collector *metrics.Collector) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{
		storage:   storage,
		config:    config,
		metrics:   collector,
		entryChan: make(chan *Entry, config.AsyncBuffer),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "audit.logger"),
	}

	l.wg.Add(1)
	go l.worker()

	return l
}

// Record sanitizes and enqueues one audit entry. It never blocks on
// storage and never returns an error to the caller: a full buffer drops
// the entry, increments the dropped counter, and logs locally.
func (l *Logger) Record(ctx context.Context, ev Event) {
	if !l.config.Enabled {
		return
	}

	entry := &Entry{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		ActorID:      ev.ActorID,
		ActorName:    ev.ActorName,
		Action:       ev.Action,
		ResourceType: ResourceTypeEvidence,
		ResourceID:   ev.ResourceID,
		IPAddress:    ev.IPAddress,
		UserAgent:    ev.UserAgent,
		Result:       ev.Result,
		Reason:       ev.Reason,
		Metadata:     ev.Metadata,
	}

	// Sanitize before the entry can reach any sink.
	if err := Sanitize(entry); err != nil {
		l.dropped.Add(1)
		l.metrics.ObserveAuditDropped()
		l.logger.Error("failed to sanitize audit entry, dropping",
			"entry_id", entry.ID,
			"error", err,
		)
		return
	}

	select {
	case l.entryChan <- entry:
		l.pending.Add(1)
	case <-l.done:
		l.dropped.Add(1)
		l.metrics.ObserveAuditDropped()
		l.logger.Warn("audit logger shutting down, dropping entry",
			"entry_id", entry.ID,
			"action", entry.Action,
		)
	default:
		l.dropped.Add(1)
		l.metrics.ObserveAuditDropped()
		l.logger.Error("audit channel full, dropping entry",
			"entry_id", entry.ID,
			"action", entry.Action,
			"channel_capacity", l.config.AsyncBuffer,
		)
	}
}

// List retrieves stored entries matching the filter, newest-first.
func (l *Logger) List(ctx context.Context, filter *Filter) ([]*Entry, error) {
	return l.storage.List(ctx, filter)
}

// Dropped returns the number of entries lost to sanitization failures,
// full buffers, or shutdown.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Flush blocks until every entry enqueued before the call has been handed
// to storage. Intended for tests and graceful shutdown paths that need the
// trail complete before reading it.
func (l *Logger) Flush() {
	for l.pending.Load() > 0 {
		time.Sleep(time.Millisecond)
	}
}

// Close drains the channel and stops the worker.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return nil
}

// worker is the single writer: it serializes all appends so entries are
// never interleaved or reordered under contention.
func (l *Logger) worker() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.entryChan:
			l.append(entry)

		case <-l.done:
			// Drain remaining entries before exit.
			for {
				select {
				case entry := <-l.entryChan:
					l.append(entry)
				default:
					return
				}
			}
		}
	}
}

// append writes one entry, recovering storage failures locally.
func (l *Logger) append(entry *Entry) {
	defer l.pending.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
	defer cancel()

	if err := l.storage.Append(ctx, entry); err != nil {
		// Fail open: log locally and move on.
		l.metrics.ObserveAuditWrite(false)
		l.logger.Error("failed to append audit entry",
			"entry_id", entry.ID,
			"action", entry.Action,
			"result", entry.Result,
			"error", err,
		)
		return
	}

	l.metrics.ObserveAuditWrite(true)
	l.logger.Debug("audit entry recorded",
		"entry_id", entry.ID,
		"actor_id", entry.ActorID,
		"action", entry.Action,
		"result", entry.Result,
	)
}
