package scopes

import (
	"context"
	"fmt"
	"log/slog"

	"custodia-hq/custodia/pkg/evidence"
)

// Manager ties a file source, a live store and an optional watcher
// together. The typical lifecycle is NewManager, Load, then Watch in a
// goroutine for hot-reload.
type Manager struct {
	source *FileSource
	store  *Store
	config *WatcherConfig
	logger *slog.Logger
}

// NewManager creates a scope manager for the given path.
func NewManager(path string, config *WatcherConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default().With("component", "scopes.manager")
	}
	if config == nil {
		config = DefaultWatcherConfig()
	}
	config.Path = path

	return &Manager{
		source: NewFileSource(path, logger),
		store:  NewStore(),
		config: config,
		logger: logger,
	}
}

// Load performs the initial load into the store. Unlike reloads, a
// failure here is fatal: starting with zero scopes would deny everyone
// silently.
func (m *Manager) Load(ctx context.Context) error {
	scopes, err := m.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("initial scope load failed: %w", err)
	}
	m.store.Replace(scopes)
	return nil
}

// Watch blocks watching the scope path, replacing the store on every
// valid change. Call after a successful Load.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := NewWatcher(m.config, m.logger)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	return watcher.Watch(ctx, func() error {
		scopes, err := m.source.Load(ctx)
		if err != nil {
			return err
		}
		m.store.Replace(scopes)
		m.logger.Info("actor scopes replaced", "scope_count", len(scopes))
		return nil
	})
}

// Resolve returns the live scope for an actor ID.
func (m *Manager) Resolve(actorID string) (*evidence.ActorScope, bool) {
	return m.store.Resolve(actorID)
}

// Store exposes the live store for callers that share it directly.
func (m *Manager) Store() *Store {
	return m.store
}
