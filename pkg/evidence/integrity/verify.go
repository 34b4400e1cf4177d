package integrity

import (
	"context"
	"io"
	"strings"
	"time"

	"custodia-hq/custodia/pkg/evidence"
)

// VerifyDigests recomputes every digest in the expected acquisition set
// over the content and compares each one independently, case-insensitively.
//
// The overall result is verified iff all checkable algorithms pass. An
// algorithm with no recorded digest (e.g. legacy acquisitions without MD5)
// is reported as skipped and does not fail the check; the remaining
// algorithms are still evaluated. If no algorithm can be checked at all,
// the result is failed - integrity cannot be established.
//
// Unreadable content and cancellation yield a corrupted result. The
// failure is reported inside the result, never as a returned error,
// because integrity reporting must not abort the caller's workflow.
func VerifyDigests(ctx context.Context, r io.Reader, expected *evidence.DigestSet) *CheckResult {
	if expected == nil {
		return &CheckResult{
			Status:    StatusCorrupted,
			CheckedAt: time.Now().UTC(),
			Error:     "no acquisition digest set recorded for this evidence",
		}
	}

	content, err := readAll(ctx, r)
	if err != nil {
		return &CheckResult{
			Status:    StatusCorrupted,
			CheckedAt: time.Now().UTC(),
			Error:     err.Error(),
		}
	}

	actual := digestContent(ctx, content)
	if err := ctx.Err(); err != nil {
		// A cancelled computation must never report a false verified.
		return &CheckResult{
			Status:    StatusCorrupted,
			CheckedAt: time.Now().UTC(),
			Error:     err.Error(),
		}
	}

	result := &CheckResult{CheckedAt: time.Now().UTC()}

	checked := 0
	failed := 0
	for _, alg := range Algorithms() {
		want := expectedDigest(expected, alg)
		check := AlgorithmCheck{
			Algorithm: alg,
			Expected:  strings.ToLower(want),
			Weak:      alg.Weak(),
		}

		if want == "" {
			check.Skipped = true
			result.Checks = append(result.Checks, check)
			continue
		}

		check.Actual = actual[alg]
		check.Verified = strings.EqualFold(want, check.Actual)
		if check.Verified {
			checked++
		} else {
			failed++
		}
		result.Checks = append(result.Checks, check)
	}

	switch {
	case failed > 0:
		result.Status = StatusFailed
	case checked == 0:
		// Every algorithm was skipped; nothing vouches for the content.
		result.Status = StatusFailed
	default:
		result.Status = StatusVerified
	}

	return result
}
