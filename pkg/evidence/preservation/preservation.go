// Package preservation implements the preservation policy engine: a pure
// mapping from evidence lifecycle status to retention policy, and the
// derived per-action permission checks.
//
// The engine is deliberately actor-blind. Role-based overrides (such as
// the admin seal override) are layered on top by the access control
// engine, keeping this component's contract simple and independently
// testable.
package preservation

import (
	"fmt"

	"custodia-hq/custodia/pkg/evidence"
)

// Policy is the retention policy derived from a lifecycle status. It is
// computed, never stored.
type Policy struct {
	// SealEnabled reports whether the status permits sealing.
	SealEnabled bool `json:"seal_enabled"`

	// RetentionDays is the minimum retention period for the record.
	RetentionDays int `json:"retention_days"`

	// AllowEdit reports whether content edits are permitted.
	AllowEdit bool `json:"allow_edit"`

	// AllowDelete reports whether deletion is permitted.
	AllowDelete bool `json:"allow_delete"`

	// RequireApproval reports whether changes need reviewer approval.
	RequireApproval bool `json:"require_approval"`
}

// Retention periods, in days.
const (
	RetentionSealed   = 2555 // 7 years
	RetentionApproved = 1825 // 5 years
	RetentionInReview = 730  // 2 years
	RetentionDraft    = 365  // 1 year
	RetentionUnknown  = 365
)

// PolicyFor maps a lifecycle status to its preservation policy. The
// function is total: an unrecognized status degrades to the draft-like
// default row (short retention, edit/delete allowed, no approval) rather
// than erroring, so an unexpected status can never block the rest of the
// system.
func PolicyFor(status evidence.LifecycleStatus) Policy {
	switch status {
	case evidence.StatusSealed, evidence.StatusArchived:
		return Policy{
			SealEnabled:     true,
			RetentionDays:   RetentionSealed,
			AllowEdit:       false,
			AllowDelete:     false,
			RequireApproval: true,
		}
	case evidence.StatusApproved:
		return Policy{
			SealEnabled:     true,
			RetentionDays:   RetentionApproved,
			AllowEdit:       false,
			AllowDelete:     false,
			RequireApproval: true,
		}
	case evidence.StatusInReview, evidence.StatusSubmitted:
		return Policy{
			SealEnabled:     false,
			RetentionDays:   RetentionInReview,
			AllowEdit:       false,
			AllowDelete:     false,
			RequireApproval: true,
		}
	case evidence.StatusDraft, evidence.StatusNeedMoreInfo:
		return Policy{
			SealEnabled:     false,
			RetentionDays:   RetentionDraft,
			AllowEdit:       true,
			AllowDelete:     true,
			RequireApproval: false,
		}
	default:
		return Policy{
			SealEnabled:     false,
			RetentionDays:   RetentionUnknown,
			AllowEdit:       true,
			AllowDelete:     true,
			RequireApproval: false,
		}
	}
}

// ActionCheck is the result of asking whether an action is currently
// allowed by the preservation policy.
type ActionCheck struct {
	// Allowed reports whether the policy permits the action.
	Allowed bool `json:"allowed"`

	// Reason explains a refusal in human-readable form. Empty when
	// Allowed is true.
	Reason string `json:"reason,omitempty"`
}

// CheckAction reports whether the preservation policy for the given status
// currently allows the action. Only edit, delete, seal and unseal are
// preservation-gated; the check knows nothing about the requesting actor.
//
// Seal additionally requires the status to have sealing enabled. Unseal
// requires the status to be exactly sealed - unsealing an archived record
// is never permitted by this rule, only by a higher-privilege override in
// the access control engine.
func CheckAction(status evidence.LifecycleStatus, action evidence.Action) ActionCheck {
	policy := PolicyFor(status)

	switch action {
	case evidence.ActionEdit:
		if !policy.AllowEdit {
			return ActionCheck{Reason: fmt.Sprintf("evidence in status %q cannot be edited", status)}
		}
		return ActionCheck{Allowed: true}

	case evidence.ActionDelete:
		if !policy.AllowDelete {
			return ActionCheck{Reason: fmt.Sprintf("evidence in status %q cannot be deleted", status)}
		}
		return ActionCheck{Allowed: true}

	case evidence.ActionSeal:
		if !policy.SealEnabled {
			return ActionCheck{Reason: fmt.Sprintf("evidence in status %q is not eligible for sealing", status)}
		}
		return ActionCheck{Allowed: true}

	case evidence.ActionUnseal:
		if status != evidence.StatusSealed {
			return ActionCheck{Reason: fmt.Sprintf("only sealed evidence can be unsealed, status is %q", status)}
		}
		return ActionCheck{Allowed: true}

	default:
		// Actions outside the gated set are not restricted by
		// preservation state.
		return ActionCheck{Allowed: true}
	}
}
