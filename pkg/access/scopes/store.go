package scopes

import (
	"sync"

	"custodia-hq/custodia/pkg/evidence"
)

// Store holds the live scope set. Reads are lock-cheap lookups by actor
// ID; Replace swaps the whole set atomically so a reload is all-or-nothing.
type Store struct {
	mu     sync.RWMutex
	scopes map[string]*evidence.ActorScope
}

// NewStore creates an empty scope store.
func NewStore() *Store {
	return &Store{
		scopes: make(map[string]*evidence.ActorScope),
	}
}

// Resolve returns the scope for an actor ID. The second return is false
// when the actor has no scope on file; the caller must treat that as no
// access, never as a default scope.
func (s *Store) Resolve(actorID string) (*evidence.ActorScope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scope, ok := s.scopes[actorID]
	return scope, ok
}

// Replace swaps the entire scope set.
func (s *Store) Replace(scopes []*evidence.ActorScope) {
	next := make(map[string]*evidence.ActorScope, len(scopes))
	for _, scope := range scopes {
		next[scope.ActorID] = scope
	}

	s.mu.Lock()
	s.scopes = next
	s.mu.Unlock()
}

// Len returns the number of actors with a scope on file.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scopes)
}

// ActorIDs returns the IDs of all actors with a scope on file.
func (s *Store) ActorIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.scopes))
	for id := range s.scopes {
		ids = append(ids, id)
	}
	return ids
}
