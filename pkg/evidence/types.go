package evidence

import (
	"time"
)

// LifecycleStatus represents the workflow state of an evidence record.
// Transitions are driven by the surrounding workflow layer; this subsystem
// only reads the status to gate actions.
type LifecycleStatus string

const (
	// StatusDraft is the initial state of a newly acquired evidence record.
	StatusDraft LifecycleStatus = "draft"

	// StatusNeedMoreInfo indicates the record was returned to the submitter
	// for additional information.
	StatusNeedMoreInfo LifecycleStatus = "needMoreInfo"

	// StatusSubmitted indicates the record has been submitted for review.
	StatusSubmitted LifecycleStatus = "submitted"

	// StatusInReview indicates the record is under active review.
	StatusInReview LifecycleStatus = "inReview"

	// StatusApproved indicates the record passed review.
	StatusApproved LifecycleStatus = "approved"

	// StatusSealed indicates the record is under seal protection. Content
	// and digests are immutable except by admin override, which is logged.
	StatusSealed LifecycleStatus = "sealed"

	// StatusArchived indicates the record reached end of active life.
	// Archived records are never unsealed by rule, only by admin override.
	StatusArchived LifecycleStatus = "archived"
)

// Statuses lists all defined lifecycle statuses.
func Statuses() []LifecycleStatus {
	return []LifecycleStatus{
		StatusDraft,
		StatusNeedMoreInfo,
		StatusSubmitted,
		StatusInReview,
		StatusApproved,
		StatusSealed,
		StatusArchived,
	}
}

// Valid reports whether the status is one of the defined lifecycle statuses.
func (s LifecycleStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusNeedMoreInfo, StatusSubmitted, StatusInReview,
		StatusApproved, StatusSealed, StatusArchived:
		return true
	}
	return false
}

// SensitivityLabel classifies how widely an evidence record may be seen.
type SensitivityLabel string

const (
	// SensitivityPublic marks evidence visible to any authenticated actor.
	SensitivityPublic SensitivityLabel = "public"

	// SensitivityInternal marks evidence restricted to internal staff.
	SensitivityInternal SensitivityLabel = "internal"

	// SensitivityConfidential marks evidence requiring elevated clearance.
	SensitivityConfidential SensitivityLabel = "confidential"

	// SensitivityRestricted marks the highest sensitivity tier.
	SensitivityRestricted SensitivityLabel = "restricted"
)

// Valid reports whether the label is one of the defined sensitivity labels.
func (l SensitivityLabel) Valid() bool {
	switch l {
	case SensitivityPublic, SensitivityInternal, SensitivityConfidential,
		SensitivityRestricted:
		return true
	}
	return false
}

// Role identifies the authorization role of an actor.
type Role string

const (
	// RoleAdmin may operate on any location and override seal protection.
	// Sensitivity clearance still applies to admins.
	RoleAdmin Role = "admin"

	// RoleReviewer may approve and seal evidence within scope.
	RoleReviewer Role = "reviewer"

	// RoleInspector may create and work on evidence within scope.
	RoleInspector Role = "inspector"

	// RoleViewer has read-only access within scope.
	RoleViewer Role = "viewer"
)

// Valid reports whether the role is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleReviewer, RoleInspector, RoleViewer:
		return true
	}
	return false
}

// Action is a sensitive operation on an evidence record. The set is closed:
// an action outside this set must be denied (fail closed) and can never be
// authorized. Any new sensitive action added to the surrounding system must
// be added here before it can be logged or authorized.
type Action string

const (
	ActionView     Action = "view"
	ActionDownload Action = "download"
	ActionExport   Action = "export"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionSeal     Action = "seal"
	ActionUnseal   Action = "unseal"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
)

// Valid reports whether the action is a member of the closed action set.
func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionDownload, ActionExport, ActionApprove,
		ActionReject, ActionSeal, ActionUnseal, ActionEdit, ActionDelete:
		return true
	}
	return false
}

// ParseAction converts a raw string into a member of the closed action
// set. A value outside the set returns an UnknownActionError; callers
// must treat that as a refusal, never as a default.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", NewUnknownActionError(s)
	}
	return a, nil
}

// DigestSet is the multi-algorithm hash record computed at acquisition.
// It is write-once: the workflow layer never mutates it after acquisition.
// Digests are lowercase hex (64 chars SHA-256, 128 chars SHA-512, 32 chars
// MD5) for interoperability with external verification tools.
type DigestSet struct {
	// SHA256 is the hex-encoded SHA-256 digest of the evidence content.
	SHA256 string `json:"sha256"`

	// SHA512 is the hex-encoded SHA-512 digest of the evidence content.
	SHA512 string `json:"sha512"`

	// MD5 is the hex-encoded MD5 digest, kept for legacy-system
	// interoperability only. MD5 is cryptographically weak and is not
	// relied upon for tamper detection; SHA-256/SHA-512 carry the
	// integrity guarantee. May be empty when the acquiring tool could
	// not produce one.
	MD5 string `json:"md5"`

	// ComputedAt is the UTC time the digests were computed.
	ComputedAt time.Time `json:"computed_at"`

	// ComputedBy is the ID of the actor who ran the acquisition hashing.
	ComputedBy string `json:"computed_by"`
}

// EvidenceRecord represents one piece of digital evidence under
// chain-of-custody control. Snapshots are supplied by the workflow layer;
// this subsystem never drives lifecycle transitions itself.
type EvidenceRecord struct {
	// ID is an opaque immutable identifier.
	ID string `json:"id"`

	// LocationLabel is the free-text jurisdiction/location string used for
	// scope matching (exact match against an actor's allowed locations).
	// Immutable once set.
	LocationLabel string `json:"location_label"`

	// Sensitivity classifies the record's visibility tier.
	Sensitivity SensitivityLabel `json:"sensitivity"`

	// Status is the current lifecycle state.
	Status LifecycleStatus `json:"status"`

	// Digests is the write-once multi-algorithm hash record computed at
	// acquisition. Once Status is sealed or archived it is immutable
	// except by a logged admin override.
	Digests *DigestSet `json:"digests,omitempty"`

	// SubmitterID is the actor who created the record.
	SubmitterID string `json:"submitter_id"`
}

// Sealed reports whether the record is under seal protection (sealed or
// archived).
func (r *EvidenceRecord) Sealed() bool {
	return r.Status == StatusSealed || r.Status == StatusArchived
}

// ActorScope is the pre-resolved authorization context of a caller.
// The identity/session provider supplies it fully populated; the decision
// path never fetches attributes lazily.
type ActorScope struct {
	// ActorID identifies the actor.
	ActorID string `json:"actor_id" yaml:"actor_id"`

	// ActorName is the display name recorded in audit entries.
	ActorName string `json:"actor_name" yaml:"actor_name"`

	// Role is the actor's authorization role.
	Role Role `json:"role" yaml:"role"`

	// AllowedLocations is the set of location labels the actor may operate
	// on. An empty set means no access for any role except admin.
	AllowedLocations []string `json:"allowed_locations" yaml:"allowed_locations"`

	// AllowedSensitivities is the set of sensitivity labels the actor may
	// read or act on. Sensitivity clearance is independent of role.
	AllowedSensitivities []SensitivityLabel `json:"allowed_sensitivities" yaml:"allowed_sensitivities"`
}

// AllowsLocation reports whether the actor may operate on the given
// location label. Matching is exact, not fuzzy.
func (a *ActorScope) AllowsLocation(label string) bool {
	for _, loc := range a.AllowedLocations {
		if loc == label {
			return true
		}
	}
	return false
}

// AllowsSensitivity reports whether the actor is cleared for the given
// sensitivity label.
func (a *ActorScope) AllowsSensitivity(label SensitivityLabel) bool {
	for _, s := range a.AllowedSensitivities {
		if s == label {
			return true
		}
	}
	return false
}
