// Package audit implements the append-only, sanitized audit trail for the
// evidence core. Every access decision and sensitive action is recorded as
// an immutable Entry; entries are never mutated or deleted by this
// subsystem (retention pruning is a separate operational concern under
// audit/retention).
//
// # Recording Flow
//
//	Sensitive operation → access.Engine.Decide
//	     ↓
//	audit.Logger.Record (fire-and-forget)
//	     ↓
//	Sanitize (strip CR/LF, cap lengths); never persisted unsanitized
//	     ↓
//	Single-writer worker (serialized appends)
//	     ↓
//	Storage backend (memory ring buffer or SQLite)
//
// # Fail-open trade-off
//
// Storage failures are logged locally and swallowed: an unavailable audit
// sink must not deny service to the operations it observes. Deployments
// needing "no log, no action" chain-of-custody guarantees should put a
// fail-closed Storage in front (commit the append before reporting
// success) - the Storage interface supports both designs.
package audit
