package audit

import (
	"context"
	"time"

	"custodia-hq/custodia/pkg/evidence"
)

// ResourceTypeEvidence is the resource type recorded for every entry this
// subsystem produces.
const ResourceTypeEvidence = "evidence"

// Result classifies the outcome of the audited operation.
type Result string

const (
	// ResultSuccess means the operation was allowed and completed.
	ResultSuccess Result = "success"

	// ResultDenied means the operation was refused by access control.
	ResultDenied Result = "denied"

	// ResultError means the operation was attempted but failed.
	ResultError Result = "error"
)

// Valid reports whether the result is one of the defined outcomes.
func (r Result) Valid() bool {
	switch r {
	case ResultSuccess, ResultDenied, ResultError:
		return true
	}
	return false
}

// Entry is one immutable audit log record. Entries are append-only: this
// subsystem never mutates or deletes them (retention pruning of old
// entries is an operational policy handled separately).
type Entry struct {
	// ID is a UUID v4 assigned at record time.
	ID string `json:"id"`

	// Timestamp is the UTC time the entry was recorded.
	Timestamp time.Time `json:"timestamp"`

	// ActorID identifies who attempted the operation.
	ActorID string `json:"actor_id"`

	// ActorName is the actor's display name at record time.
	ActorName string `json:"actor_name"`

	// Action is the sensitive operation attempted (closed enum).
	Action evidence.Action `json:"action"`

	// ResourceType is always "evidence" for entries from this subsystem.
	ResourceType string `json:"resource_type"`

	// ResourceID identifies the evidence record acted upon.
	ResourceID string `json:"resource_id"`

	// IPAddress is the caller's network address, if known.
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent is the caller's user agent, truncated by the sanitizer.
	UserAgent string `json:"user_agent,omitempty"`

	// Result is the outcome of the operation.
	Result Result `json:"result"`

	// Reason explains a denial or error. Sanitized: no CR/LF, capped
	// length.
	Reason string `json:"reason,omitempty"`

	// Metadata carries small structured context (e.g. denial reason
	// code, seal override marker).
	Metadata map[string]string `json:"metadata,omitempty"`

	// Sanitized is set only after the sanitizer ran successfully. An
	// entry is never persisted with Sanitized false.
	Sanitized bool `json:"sanitized"`
}

// Filter defines filter parameters for listing audit entries.
type Filter struct {
	// StartTime is the inclusive lower bound on Timestamp.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the inclusive upper bound on Timestamp.
	EndTime *time.Time `json:"end_time,omitempty"`

	// ActorID filters by actor.
	ActorID string `json:"actor_id,omitempty"`

	// Action filters by action.
	Action evidence.Action `json:"action,omitempty"`

	// Result filters by outcome.
	Result Result `json:"result,omitempty"`

	// ResourceID filters by evidence record.
	ResourceID string `json:"resource_id,omitempty"`

	// Limit caps the number of entries returned. 0 means no cap.
	Limit int `json:"limit,omitempty"`

	// Offset skips the first N matching entries.
	Offset int `json:"offset,omitempty"`
}

// Matches reports whether the entry satisfies every set filter field.
func (f *Filter) Matches(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Result != "" && e.Result != f.Result {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	return true
}

// Storage defines the interface for audit log storage backends.
// Implementations must be safe for concurrent use and must preserve the
// order and content of retained entries even while evicting old ones.
type Storage interface {
	// Append persists an entry. The entry must already be sanitized;
	// implementations reject unsanitized entries.
	Append(ctx context.Context, entry *Entry) error

	// List retrieves entries matching the filter, ordered newest-first.
	List(ctx context.Context, filter *Filter) ([]*Entry, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter *Filter) (int64, error)

	// Prune deletes entries older than the cutoff and, if keepMax > 0,
	// the oldest entries beyond keepMax. Returns the number deleted.
	// Used only by retention enforcement, never by the logger.
	Prune(ctx context.Context, cutoff time.Time, keepMax int64) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}
