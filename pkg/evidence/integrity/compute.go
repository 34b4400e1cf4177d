package integrity

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sync"
	"time"

	"custodia-hq/custodia/pkg/evidence"
)

// readChunkSize is the copy granularity for content reads. Cancellation is
// observed between chunks, so a user abort interrupts a large read within
// one chunk's worth of work.
const readChunkSize = 256 * 1024

// ComputeAcquisitionDigests reads the full content once and computes the
// SHA-256, SHA-512 and MD5 digests concurrently over the same immutable
// byte buffer. The returned DigestSet carries lowercase hex digests, a UTC
// timestamp, and the computing actor's ID.
//
// The operation is deterministic: byte-identical content always yields an
// identical digest set. Cancellation via ctx aborts the content read and
// returns ctx.Err(); a cancelled computation never yields a partial set.
func ComputeAcquisitionDigests(ctx context.Context, r io.Reader, actorID string) (*evidence.DigestSet, error) {
	content, err := readAll(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	digests := digestContent(ctx, content)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &evidence.DigestSet{
		SHA256:     digests[AlgorithmSHA256],
		SHA512:     digests[AlgorithmSHA512],
		MD5:        digests[AlgorithmMD5],
		ComputedAt: time.Now().UTC(),
		ComputedBy: actorID,
	}, nil
}

// digestContent hashes the buffer with every algorithm concurrently.
// Pure data-parallelism over an immutable buffer: no shared mutable state,
// so no locking beyond the WaitGroup.
func digestContent(ctx context.Context, content []byte) map[Algorithm]string {
	results := make([]string, len(Algorithms()))

	var wg sync.WaitGroup
	for i, alg := range Algorithms() {
		wg.Add(1)
		go func(i int, alg Algorithm) {
			defer wg.Done()
			h := newHasher(alg)
			h.Write(content)
			results[i] = hex.EncodeToString(h.Sum(nil))
		}(i, alg)
	}
	wg.Wait()

	out := make(map[Algorithm]string, len(results))
	for i, alg := range Algorithms() {
		out[alg] = results[i]
	}
	return out
}

// newHasher returns a fresh hash.Hash for the algorithm.
func newHasher(alg Algorithm) hash.Hash {
	switch alg {
	case AlgorithmSHA256:
		return sha256.New()
	case AlgorithmSHA512:
		return sha512.New()
	case AlgorithmMD5:
		return md5.New()
	}
	// Unreachable for the closed algorithm set; SHA-256 keeps the
	// zero value safe rather than panicking mid-check.
	return sha256.New()
}

// readAll drains the reader into memory, observing cancellation between
// chunks.
func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
