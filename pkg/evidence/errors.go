package evidence

import "fmt"

// UnknownActionError reports an action outside the closed action set
// reaching a decision or logging path. Callers treat it as a denial,
// never as a default-allow.
type UnknownActionError struct {
	Action string // Raw action value that was rejected
}

// Error implements the error interface.
func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q: not in the closed action set", e.Action)
}

// NewUnknownActionError creates a new UnknownActionError.
func NewUnknownActionError(action string) *UnknownActionError {
	return &UnknownActionError{Action: action}
}

// ScopeError reports an invalid or unloadable actor scope definition.
type ScopeError struct {
	ActorID string // Actor the scope belongs to, if known
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ScopeError) Error() string {
	if e.ActorID != "" {
		return fmt.Sprintf("scope error [actor_id=%s]: %v", e.ActorID, e.Cause)
	}
	return fmt.Sprintf("scope error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ScopeError) Unwrap() error {
	return e.Cause
}

// NewScopeError creates a new ScopeError.
func NewScopeError(actorID string, cause error) *ScopeError {
	return &ScopeError{ActorID: actorID, Cause: cause}
}
