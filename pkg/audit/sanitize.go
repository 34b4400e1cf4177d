package audit

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MaxReasonLength caps the reason field. Longer reasons are truncated.
	MaxReasonLength = 500

	// MaxUserAgentLength caps the user-agent field.
	MaxUserAgentLength = 200
)

// crlfReplacer strips carriage-return and line-feed characters so a
// hostile reason string cannot forge extra log lines in line-oriented
// sinks.
var crlfReplacer = strings.NewReplacer("\r", " ", "\n", " ")

// Sanitize makes an entry safe for storage: it strips CR/LF from the
// reason, caps reason and user-agent lengths, and marks the entry
// sanitized. The Sanitized flag is set only after every step succeeded;
// an entry must never be persisted unsanitized.
func Sanitize(entry *Entry) error {
	if entry == nil {
		return NewSanitizeError("entry", errors.New("nil entry"))
	}

	entry.Reason = truncate(crlfReplacer.Replace(entry.Reason), MaxReasonLength)
	entry.UserAgent = truncate(crlfReplacer.Replace(entry.UserAgent), MaxUserAgentLength)

	for k, v := range entry.Metadata {
		entry.Metadata[k] = truncate(crlfReplacer.Replace(v), MaxReasonLength)
	}

	entry.Sanitized = true
	return nil
}

// truncate cuts s to at most maxLen bytes, backing off to the nearest
// rune boundary so a cut can never produce invalid UTF-8.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
