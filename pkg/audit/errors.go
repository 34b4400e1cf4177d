package audit

import "fmt"

// StorageError represents an error from an audit storage backend.
type StorageError struct {
	Backend   string // Backend type ("memory", "sqlite")
	Operation string // Operation that failed ("append", "list", "prune", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// SanitizeError reports an entry that could not be made safe for storage.
type SanitizeError struct {
	Field string // Entry field that failed sanitization
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *SanitizeError) Error() string {
	return fmt.Sprintf("sanitize error [field=%s]: %v", e.Field, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *SanitizeError) Unwrap() error {
	return e.Cause
}

// NewSanitizeError creates a new SanitizeError.
func NewSanitizeError(field string, cause error) *SanitizeError {
	return &SanitizeError{Field: field, Cause: cause}
}

// ExportError represents an error during audit trail export.
type ExportError struct {
	Format     string // Export format ("json", "csv")
	EntryCount int    // Entries processed before the failure
	Cause      error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("audit export error [format=%s, entries=%d]: %v", e.Format, e.EntryCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, entryCount int, cause error) *ExportError {
	return &ExportError{
		Format:     format,
		EntryCount: entryCount,
		Cause:      cause,
	}
}
