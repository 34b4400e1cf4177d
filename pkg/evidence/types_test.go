package evidence

import (
	"errors"
	"testing"
)

// TestParseAction verifies every member of the closed action set parses
// and anything else is rejected with a typed error.
func TestParseAction(t *testing.T) {
	for _, want := range []Action{
		ActionView, ActionDownload, ActionExport, ActionApprove,
		ActionReject, ActionSeal, ActionUnseal, ActionEdit, ActionDelete,
	} {
		got, err := ParseAction(string(want))
		if err != nil {
			t.Errorf("ParseAction(%q) failed: %v", want, err)
		}
		if got != want {
			t.Errorf("ParseAction(%q) = %q", want, got)
		}
	}
}

// TestParseAction_Unknown verifies values outside the set return an
// UnknownActionError naming the rejected value.
func TestParseAction_Unknown(t *testing.T) {
	for _, raw := range []string{"", "escalate", "VIEW", "delete "} {
		_, err := ParseAction(raw)
		if err == nil {
			t.Errorf("ParseAction(%q) accepted a value outside the action set", raw)
			continue
		}
		var unknownErr *UnknownActionError
		if !errors.As(err, &unknownErr) {
			t.Errorf("ParseAction(%q) returned %T, want *UnknownActionError", raw, err)
			continue
		}
		if unknownErr.Action != raw {
			t.Errorf("UnknownActionError.Action = %q, want %q", unknownErr.Action, raw)
		}
	}
}
