// Package scopes resolves actor authorization scopes from YAML files.
//
// Scopes are pre-resolved into an in-memory store so the access decision
// path never touches the filesystem. A file watcher with debouncing lets
// operators edit scope files without restarting the service; an invalid
// edit is rejected as a whole and the previous scope set stays live.
package scopes

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"custodia-hq/custodia/pkg/evidence"
)

// scopeFile is the on-disk document shape.
type scopeFile struct {
	Scopes []*evidence.ActorScope `yaml:"scopes"`
}

// FileSource loads actor scopes from YAML files on disk. The path can be
// a single file or a directory; for a directory every .yaml and .yml file
// is loaded.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based scope source.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default().With("component", "scopes.source")
	}
	return &FileSource{
		path:   path,
		logger: logger,
	}
}

// Load reads and validates all scopes from the configured path. Any
// validation failure rejects the whole load so a partially applied scope
// set can never go live.
func (s *FileSource) Load(ctx context.Context) ([]*evidence.ActorScope, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scope path %q: %w", s.path, err)
	}

	var scopes []*evidence.ActorScope
	if info.IsDir() {
		scopes, err = s.loadDirectory(ctx)
	} else {
		scopes, err = s.loadFile(ctx, s.path)
	}
	if err != nil {
		return nil, err
	}

	if err := validateScopes(scopes); err != nil {
		return nil, err
	}

	s.logger.Info("loaded actor scopes",
		"path", s.path,
		"scope_count", len(scopes),
	)

	return scopes, nil
}

// loadDirectory loads scope files from every YAML file under the path.
func (s *FileSource) loadDirectory(ctx context.Context) ([]*evidence.ActorScope, error) {
	var scopes []*evidence.ActorScope

	err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		fileScopes, err := s.loadFile(ctx, path)
		if err != nil {
			return err
		}
		scopes = append(scopes, fileScopes...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk scope directory %q: %w", s.path, err)
	}

	return scopes, nil
}

// loadFile parses one scope file.
func (s *FileSource) loadFile(ctx context.Context, path string) ([]*evidence.ActorScope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scope file %q: %w", path, err)
	}

	var doc scopeFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scope file %q: %w", path, err)
	}

	s.logger.Debug("loaded scope file",
		"path", path,
		"scope_count", len(doc.Scopes),
	)

	return doc.Scopes, nil
}

// validateScopes checks every scope and rejects duplicates. Unknown roles
// and sensitivity labels are configuration errors, not silent no-access;
// each failure is reported as a ScopeError naming the offending actor.
func validateScopes(scopes []*evidence.ActorScope) error {
	seen := make(map[string]bool, len(scopes))
	for i, scope := range scopes {
		if scope == nil {
			return evidence.NewScopeError("", fmt.Errorf("scope %d: empty entry", i))
		}
		if scope.ActorID == "" {
			return evidence.NewScopeError("", fmt.Errorf("scope %d: actor_id is required", i))
		}
		if seen[scope.ActorID] {
			return evidence.NewScopeError(scope.ActorID, fmt.Errorf("duplicate actor_id"))
		}
		seen[scope.ActorID] = true

		if !scope.Role.Valid() {
			return evidence.NewScopeError(scope.ActorID, fmt.Errorf("unknown role %q", scope.Role))
		}
		for _, label := range scope.AllowedSensitivities {
			if !label.Valid() {
				return evidence.NewScopeError(scope.ActorID, fmt.Errorf("unknown sensitivity %q", label))
			}
		}
	}
	return nil
}
