// Package integrity implements the hash engine for evidence content.
// It computes multi-algorithm acquisition digests and re-verifies them,
// reporting integrity outcomes as data rather than errors so a failed or
// unreadable check never aborts the surrounding workflow.
package integrity

import (
	"time"

	"custodia-hq/custodia/pkg/evidence"
)

// Algorithm identifies a digest algorithm in the acquisition set.
type Algorithm string

const (
	// AlgorithmSHA256 is the primary integrity algorithm.
	AlgorithmSHA256 Algorithm = "sha256"

	// AlgorithmSHA512 is the secondary integrity algorithm.
	AlgorithmSHA512 Algorithm = "sha512"

	// AlgorithmMD5 exists for legacy-system interoperability only.
	// It is cryptographically weak and never carries the integrity
	// guarantee on its own.
	AlgorithmMD5 Algorithm = "md5"
)

// Weak reports whether the algorithm is considered cryptographically weak
// and unsuitable as the sole basis for tamper detection.
func (a Algorithm) Weak() bool {
	return a == AlgorithmMD5
}

// HexLength returns the expected lowercase-hex digest length for the
// algorithm (64 for SHA-256, 128 for SHA-512, 32 for MD5).
func (a Algorithm) HexLength() int {
	switch a {
	case AlgorithmSHA256:
		return 64
	case AlgorithmSHA512:
		return 128
	case AlgorithmMD5:
		return 32
	}
	return 0
}

// Algorithms lists the algorithms in the acquisition digest set, in the
// order they are reported.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmSHA256, AlgorithmSHA512, AlgorithmMD5}
}

// CheckStatus is the overall outcome of an integrity check.
//
// The three outcomes stay distinguishable because "content unreadable" and
// "content tampered" require different human responses.
type CheckStatus string

const (
	// StatusVerified means every checkable algorithm matched.
	StatusVerified CheckStatus = "verified"

	// StatusFailed means content was read successfully but at least one
	// digest mismatched, or no digest could be checked at all.
	StatusFailed CheckStatus = "failed"

	// StatusCorrupted means content could not be read or hashed (I/O
	// failure or cancellation). Nothing can be said about integrity.
	StatusCorrupted CheckStatus = "corrupted"
)

// AlgorithmCheck is the result of one independent per-algorithm
// verification within an integrity check.
type AlgorithmCheck struct {
	// Algorithm identifies which digest was checked.
	Algorithm Algorithm `json:"algorithm"`

	// Expected is the digest recorded at acquisition (lowercase hex).
	Expected string `json:"expected"`

	// Actual is the recomputed digest (lowercase hex). Empty when the
	// check was skipped or the content was unreadable.
	Actual string `json:"actual"`

	// Verified reports whether expected and actual matched
	// (case-insensitively). Always false when Skipped is true.
	Verified bool `json:"verified"`

	// Skipped reports that this algorithm could not be checked - the
	// acquisition record carries no digest for it. A skipped check is
	// not a failure; callers must not conflate "not checked" with
	// "mismatched".
	Skipped bool `json:"skipped"`

	// Weak flags digests that must not be relied upon for tamper
	// detection on their own (MD5).
	Weak bool `json:"weak,omitempty"`
}

// CheckResult is the outcome of recomputing and comparing every digest in
// an acquisition set against freshly hashed content.
type CheckResult struct {
	// Status is the overall outcome. Verified iff all checkable
	// algorithms passed and at least one was actually checked.
	Status CheckStatus `json:"status"`

	// Checks holds the independent per-algorithm results, in
	// Algorithms() order. Empty when Status is corrupted.
	Checks []AlgorithmCheck `json:"checks,omitempty"`

	// CheckedAt is the UTC time the check completed.
	CheckedAt time.Time `json:"checked_at"`

	// Error describes why content could not be read when Status is
	// corrupted. It is reported data, not a Go error: integrity
	// reporting must never crash the surrounding workflow.
	Error string `json:"error,omitempty"`
}

// Verified reports whether the overall check passed.
func (r *CheckResult) Verified() bool {
	return r.Status == StatusVerified
}

// MismatchedAlgorithms returns the algorithms whose digests did not match.
func (r *CheckResult) MismatchedAlgorithms() []Algorithm {
	var out []Algorithm
	for _, c := range r.Checks {
		if !c.Skipped && !c.Verified {
			out = append(out, c.Algorithm)
		}
	}
	return out
}

// expectedDigest returns the recorded digest for the algorithm from an
// acquisition set.
func expectedDigest(set *evidence.DigestSet, alg Algorithm) string {
	switch alg {
	case AlgorithmSHA256:
		return set.SHA256
	case AlgorithmSHA512:
		return set.SHA512
	case AlgorithmMD5:
		return set.MD5
	}
	return ""
}
