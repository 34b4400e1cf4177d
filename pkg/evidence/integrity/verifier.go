package integrity

import (
	"context"
	"io"
	"time"

	"custodia-hq/custodia/pkg/evidence"
	"custodia-hq/custodia/pkg/telemetry/metrics"
)

// Verifier runs integrity checks with metrics instrumentation. It wraps
// VerifyDigests; every check reports its outcome and hashing duration to
// the collector. A nil collector turns the instrumentation into a no-op.
type Verifier struct {
	metrics *metrics.Collector
}

// NewVerifier creates an instrumented verifier.
func NewVerifier(collector *metrics.Collector) *Verifier {
	return &Verifier{metrics: collector}
}

// Verify recomputes the expected digest set over the content and returns
// the check result. See VerifyDigests for the comparison semantics.
func (v *Verifier) Verify(ctx context.Context, r io.Reader, expected *evidence.DigestSet) *CheckResult {
	start := time.Now()
	result := VerifyDigests(ctx, r, expected)
	v.metrics.ObserveIntegrityCheck(string(result.Status), time.Since(start))
	return result
}
