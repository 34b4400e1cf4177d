// Package storage provides audit log storage backends: an in-memory
// capped ring buffer for tests and small deployments, and SQLite for
// durable single-node storage.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"custodia-hq/custodia/pkg/audit"
)

// DefaultMemoryCapacity is the default maximum number of retained entries.
const DefaultMemoryCapacity = 10000

// MemoryStorage implements audit.Storage with a capped in-memory buffer.
// When the capacity is reached the oldest entries are evicted; eviction
// never reorders or mutates the retained entries.
type MemoryStorage struct {
	mu       sync.RWMutex
	entries  []*audit.Entry // append order: oldest first
	capacity int
}

// NewMemoryStorage creates a memory backend retaining at most capacity
// entries. A capacity <= 0 uses DefaultMemoryCapacity.
func NewMemoryStorage(capacity int) *MemoryStorage {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStorage{capacity: capacity}
}

// Append persists an entry, evicting the oldest entry if at capacity.
func (s *MemoryStorage) Append(ctx context.Context, entry *audit.Entry) error {
	if entry == nil {
		return audit.NewStorageError("memory", "append", errors.New("nil entry"))
	}
	if !entry.Sanitized {
		return audit.NewStorageError("memory", "append", errors.New("entry not sanitized"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later caller mutation cannot reach the stored entry.
	s.entries = append(s.entries, cloneEntry(entry))
	if len(s.entries) > s.capacity {
		evict := len(s.entries) - s.capacity
		s.entries = append([]*audit.Entry(nil), s.entries[evict:]...)
	}

	return nil
}

// List retrieves entries matching the filter, newest-first.
func (s *MemoryStorage) List(ctx context.Context, filter *audit.Filter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*audit.Entry
	// Walk backwards: newest entries were appended last. Results are
	// clones; mutating one cannot reach the retained trail.
	for i := len(s.entries) - 1; i >= 0; i-- {
		if filter.Matches(s.entries[i]) {
			results = append(results, cloneEntry(s.entries[i]))
		}
	}

	return paginate(results, filter), nil
}

// cloneEntry copies an entry including its metadata map, so neither side
// of the storage boundary can mutate the other's view.
func cloneEntry(entry *audit.Entry) *audit.Entry {
	clone := *entry
	if entry.Metadata != nil {
		clone.Metadata = make(map[string]string, len(entry.Metadata))
		for k, v := range entry.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// paginate applies offset and limit to an already-ordered result set.
func paginate(results []*audit.Entry, filter *audit.Filter) []*audit.Entry {
	if filter == nil {
		return results
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return []*audit.Entry{}
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results
}

// Count returns the number of entries matching the filter.
func (s *MemoryStorage) Count(ctx context.Context, filter *audit.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, e := range s.entries {
		if filter.Matches(e) {
			count++
		}
	}
	return count, nil
}

// Prune deletes entries older than the cutoff and, if keepMax > 0, the
// oldest entries beyond keepMax.
func (s *MemoryStorage) Prune(ctx context.Context, cutoff time.Time, keepMax int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var deleted int64
	for _, e := range s.entries {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}

	if keepMax > 0 && int64(len(kept)) > keepMax {
		evict := int64(len(kept)) - keepMax
		deleted += evict
		kept = kept[evict:]
	}

	s.entries = append([]*audit.Entry(nil), kept...)
	return deleted, nil
}

// Close releases the backend. A closed memory backend keeps its entries;
// there is nothing to release.
func (s *MemoryStorage) Close() error {
	return nil
}
