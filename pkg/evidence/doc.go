// Package evidence defines the domain model for the evidence integrity and
// access-control core: evidence records under chain-of-custody control,
// their multi-algorithm digest sets, lifecycle statuses, sensitivity
// labels, actor scopes, and the closed set of sensitive actions.
//
// # Architecture
//
// Four components are built on this model, bottom-up:
//
//  1. Hash Engine (integrity) - computes and verifies content digests
//  2. Preservation Policy Engine (preservation) - status-keyed retention policy
//  3. Access Control Engine (access) - the authorization chokepoint
//  4. Audit Logger (audit) - append-only, sanitized decision trail
//
// Control flow: a caller requesting a sensitive operation invokes the
// Access Control Engine, which consults the Preservation Policy Engine and
// forwards every resulting decision - allow or deny - to the Audit Logger.
// The Hash Engine runs independently at acquisition (producing the
// reference DigestSet stored with the record) and at any later integrity
// check.
//
// # Invariants
//
//   - Once a record's status is sealed or archived, its digest set and
//     content are immutable except by a logged admin override.
//   - The action set is closed; an unknown action is denied, never
//     default-allowed.
//   - DigestSet is write-once; the workflow layer never mutates it after
//     acquisition.
//
// This package holds only types and typed errors. It has no dependencies
// on the other evidence packages, so every component can import it without
// cycles.
package evidence
