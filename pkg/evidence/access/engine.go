// Package access implements the access control engine: the single
// authorization chokepoint every sensitive evidence operation passes
// through before it executes.
//
// Decisions are evaluated as an ordered pipeline - scope, then
// sensitivity, then role, then preservation state - with the first
// failing stage determining the denial reason. The ordering is a
// deterministic tie-break: an actor failing both scope and sensitivity is
// always reported as a scope violation.
//
// The engine runs on in-memory actor and evidence attributes only; scopes
// must be pre-resolved by the caller. Every decision, allow or deny, is
// forwarded to the audit logger by the engine itself so no caller can
// forget the trail.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"custodia-hq/custodia/pkg/audit"
	"custodia-hq/custodia/pkg/evidence"
	"custodia-hq/custodia/pkg/evidence/preservation"
	"custodia-hq/custodia/pkg/telemetry/metrics"
)

// Engine resolves access decisions for (actor, evidence, action) triples.
type Engine struct {
	auditLog *audit.Logger
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewEngine creates an access control engine. The audit logger is a hard
// dependency: the trail is the only record of who attempted what, so the
// engine refuses to exist without one.
func NewEngine(auditLog *audit.Logger, collector *metrics.Collector) (*Engine, error) {
	if auditLog == nil {
		return nil, fmt.Errorf("access engine requires an audit logger")
	}

	return &Engine{
		auditLog: auditLog,
		metrics:  collector,
		logger:   slog.Default().With("component", "access.engine"),
	}, nil
}

// Decide resolves an access decision and records it in the audit trail.
// See DecideWithCaller for the variant that attaches caller network
// attributes to the audit entry.
func (e *Engine) Decide(ctx context.Context, actor *evidence.ActorScope, record *evidence.EvidenceRecord, action evidence.Action) Decision {
	return e.DecideWithCaller(ctx, actor, record, action, Caller{})
}

// DecideWithCaller resolves an access decision, records it in the audit
// trail with the caller's network attributes, and returns it. Denials are
// structured results, never errors, so callers can render the specific
// reason.
func (e *Engine) DecideWithCaller(ctx context.Context, actor *evidence.ActorScope, record *evidence.EvidenceRecord, action evidence.Action, caller Caller) Decision {
	start := time.Now()
	decision := e.evaluate(actor, record, action)
	e.record(ctx, actor, record, action, caller, decision)

	result := "allowed"
	if !decision.Allowed {
		result = "denied"
	}
	e.metrics.ObserveDecision(string(action), result, string(decision.Reason), time.Since(start))

	return decision
}

// evaluate runs the ordered pipeline without side effects.
func (e *Engine) evaluate(actor *evidence.ActorScope, record *evidence.EvidenceRecord, action evidence.Action) Decision {
	// Contract check: an action outside the closed set fails closed.
	if !action.Valid() {
		return Decision{
			Reason:  DenialUnknownAction,
			Message: fmt.Sprintf("action %q is not a recognized sensitive action", action),
		}
	}

	// Stage 1: scope. Admin bypasses; everyone else needs an exact
	// location match.
	if actor.Role != evidence.RoleAdmin && !actor.AllowsLocation(record.LocationLabel) {
		return Decision{
			Reason:  DenialScope,
			Message: fmt.Sprintf("evidence location %q is outside your allowed locations", record.LocationLabel),
		}
	}

	// Stage 2: sensitivity. Clearance is independent of role; admin gets
	// no bypass here.
	if !actor.AllowsSensitivity(record.Sensitivity) {
		return Decision{
			Reason:  DenialSensitivity,
			Message: fmt.Sprintf("you are not cleared for %q evidence", record.Sensitivity),
		}
	}

	// Stage 3: role. Approve and seal are reviewer-tier operations.
	if action == evidence.ActionApprove || action == evidence.ActionSeal {
		if actor.Role != evidence.RoleAdmin && actor.Role != evidence.RoleReviewer {
			return Decision{
				Reason:  DenialRole,
				Message: fmt.Sprintf("role %q may not %s evidence; reviewer or admin required", actor.Role, action),
			}
		}
	}

	// Stage 4: preservation state.
	return e.checkPreservation(actor, record, action)
}

// checkPreservation applies the lifecycle-state rules: seal protection on
// edit/delete, sealing eligibility, the sealed-only unseal rule, and the
// restricted-download rule. Admin is the only role that may override seal
// protection, and the override is flagged for distinct audit logging.
func (e *Engine) checkPreservation(actor *evidence.ActorScope, record *evidence.EvidenceRecord, action evidence.Action) Decision {
	switch action {
	case evidence.ActionEdit, evidence.ActionDelete:
		if record.Sealed() {
			if actor.Role != evidence.RoleAdmin {
				check := preservation.CheckAction(record.Status, action)
				return Decision{
					Reason:  DenialPreservation,
					Message: check.Reason,
				}
			}
			return Decision{Allowed: true, Reason: DenialNone, SealOverride: true}
		}

	case evidence.ActionSeal:
		if policy := preservation.PolicyFor(record.Status); !policy.SealEnabled {
			check := preservation.CheckAction(record.Status, action)
			return Decision{
				Reason:  DenialPreservation,
				Message: check.Reason,
			}
		}

	case evidence.ActionUnseal:
		if check := preservation.CheckAction(record.Status, action); !check.Allowed {
			// Archived evidence is never unsealed by rule; only the
			// admin role may override, and that override is logged.
			if record.Status == evidence.StatusArchived && actor.Role == evidence.RoleAdmin {
				return Decision{Allowed: true, Reason: DenialNone, SealOverride: true}
			}
			return Decision{
				Reason:  DenialPreservation,
				Message: check.Reason,
			}
		}

	case evidence.ActionDownload:
		if actor.Role == evidence.RoleViewer && record.Sensitivity == evidence.SensitivityRestricted {
			return Decision{
				Reason:  DenialPreservation,
				Message: fmt.Sprintf("role %q may not download %q evidence", actor.Role, record.Sensitivity),
			}
		}
	}

	return Decision{Allowed: true, Reason: DenialNone}
}

// record forwards the decision to the audit trail. This is a hard
// contract of Decide, not an optimization.
func (e *Engine) record(ctx context.Context, actor *evidence.ActorScope, record *evidence.EvidenceRecord, action evidence.Action, caller Caller, decision Decision) {
	result := audit.ResultSuccess
	if !decision.Allowed {
		result = audit.ResultDenied
	}

	metadata := map[string]string{
		"denial_reason": string(decision.Reason),
	}
	if decision.SealOverride {
		metadata["seal_override"] = "true"
		e.logger.Warn("seal protection overridden by admin",
			"actor_id", actor.ActorID,
			"resource_id", record.ID,
			"action", action,
			"status", record.Status,
		)
	}

	e.auditLog.Record(ctx, audit.Event{
		ActorID:    actor.ActorID,
		ActorName:  actor.ActorName,
		Action:     action,
		ResourceID: record.ID,
		IPAddress:  caller.IPAddress,
		UserAgent:  caller.UserAgent,
		Result:     result,
		Reason:     decision.Message,
		Metadata:   metadata,
	})
}
