package access

// DenialReason classifies why an access decision was refused. The codes
// are stable identifiers for support and appeal workflows; Message on the
// Decision carries the human-readable text.
type DenialReason string

const (
	// DenialNone means the decision was allowed.
	DenialNone DenialReason = "none"

	// DenialScope means the evidence location is outside the actor's
	// allowed locations.
	DenialScope DenialReason = "scopeViolation"

	// DenialSensitivity means the actor lacks clearance for the
	// evidence's sensitivity label.
	DenialSensitivity DenialReason = "sensitivityViolation"

	// DenialRole means the actor's role may not perform the action.
	DenialRole DenialReason = "roleViolation"

	// DenialPreservation means the evidence lifecycle state forbids the
	// action (seal protection, sealing eligibility, restricted
	// download).
	DenialPreservation DenialReason = "preservationViolation"

	// DenialUnknownAction means the requested action is outside the
	// closed action set. Contract errors fail closed, never
	// default-allow.
	DenialUnknownAction DenialReason = "unknownAction"
)

// Descriptions maps denial reason codes to short, locale-neutral
// descriptions. UI layers key their localized message catalogs off the
// reason code; Decision.Message carries the specific English sentence.
var Descriptions = map[DenialReason]string{
	DenialNone:          "allowed",
	DenialScope:         "evidence location outside actor's allowed locations",
	DenialSensitivity:   "actor not cleared for evidence sensitivity",
	DenialRole:          "actor role may not perform this action",
	DenialPreservation:  "evidence lifecycle state forbids this action",
	DenialUnknownAction: "action not in the closed action set",
}

// Decision is the result of one authorization query.
type Decision struct {
	// Allowed reports whether the action may proceed.
	Allowed bool `json:"allowed"`

	// Reason is the denial classification; DenialNone when allowed.
	Reason DenialReason `json:"reason"`

	// Message is a human-readable explanation distinct enough to tell
	// the caller why (wrong district vs. wrong clearance vs. wrong role
	// vs. item sealed). Never a generic "access denied".
	Message string `json:"message,omitempty"`

	// SealOverride marks an allowed decision that bypassed seal
	// protection via the admin role. Such decisions are logged
	// distinctly in the audit trail.
	SealOverride bool `json:"seal_override,omitempty"`
}

// Caller carries request-level attributes recorded in the audit trail.
// All fields are optional.
type Caller struct {
	IPAddress string
	UserAgent string
}
