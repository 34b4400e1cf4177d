package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"custodia-hq/custodia/pkg/evidence"
	"custodia-hq/custodia/pkg/evidence/integrity"
	"custodia-hq/custodia/pkg/telemetry/metrics"
)

var hashFlags struct {
	actor   string
	format  string
	digests string
	sha256  string
	sha512  string
	md5     string
}

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute and verify evidence digests",
	Long: `Compute acquisition digests for evidence content, or verify
content against previously recorded digests.

Subcommands:
  compute - Compute SHA-256, SHA-512 and MD5 digests for a file
  verify  - Re-hash a file and compare against expected digests

Examples:
  # Compute digests at acquisition
  custodia hash compute evidence.bin --actor actor-1 --format json

  # Verify later against a stored digest set
  custodia hash verify evidence.bin --digests digests.json`,
}

var hashComputeCmd = &cobra.Command{
	Use:   "compute <file>",
	Short: "Compute acquisition digests for a file",
	Args:  cobra.ExactArgs(1),
	RunE:  computeHashes,
}

var hashVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify a file against expected digests",
	Long: `Re-hash a file and compare against expected digests.

Expected digests come from a JSON digest-set file (--digests) or from
individual flags (--sha256, --sha512, --md5). The exit status is 0 only
when the outcome is verified.`,
	Args: cobra.ExactArgs(1),
	RunE: verifyHashes,
}

func init() {
	rootCmd.AddCommand(hashCmd)
	hashCmd.AddCommand(hashComputeCmd, hashVerifyCmd)

	hashComputeCmd.Flags().StringVar(&hashFlags.actor, "actor", "", "actor ID recorded as the digest computer")
	hashComputeCmd.Flags().StringVar(&hashFlags.format, "format", "text", "output format: text, json")

	hashVerifyCmd.Flags().StringVar(&hashFlags.digests, "digests", "", "JSON file with the expected digest set")
	hashVerifyCmd.Flags().StringVar(&hashFlags.sha256, "sha256", "", "expected SHA-256 digest (hex)")
	hashVerifyCmd.Flags().StringVar(&hashFlags.sha512, "sha512", "", "expected SHA-512 digest (hex)")
	hashVerifyCmd.Flags().StringVar(&hashFlags.md5, "md5", "", "expected MD5 digest (hex)")
}

func computeHashes(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", args[0], err)
	}
	defer f.Close()

	set, err := integrity.ComputeAcquisitionDigests(context.Background(), f, hashFlags.actor)
	if err != nil {
		return fmt.Errorf("digest computation failed: %w", err)
	}

	if hashFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(set)
	}

	fmt.Printf("SHA-256: %s\n", set.SHA256)
	fmt.Printf("SHA-512: %s\n", set.SHA512)
	fmt.Printf("MD5:     %s\n", set.MD5)
	fmt.Printf("Computed at %s", set.ComputedAt.Format("2006-01-02 15:04:05 MST"))
	if set.ComputedBy != "" {
		fmt.Printf(" by %s", set.ComputedBy)
	}
	fmt.Println()
	return nil
}

func verifyHashes(cmd *cobra.Command, args []string) error {
	expected, err := expectedDigestSet()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", args[0], err)
	}
	defer f.Close()

	verifier := integrity.NewVerifier(metrics.NewCollector(nil, nil))
	result := verifier.Verify(context.Background(), f, expected)

	fmt.Printf("Outcome: %s\n", result.Status)
	if result.Error != "" {
		fmt.Printf("Error: %s\n", result.Error)
	}
	for _, check := range result.Checks {
		state := "ok"
		switch {
		case check.Skipped:
			state = "skipped (no expected digest)"
		case !check.Verified:
			state = fmt.Sprintf("MISMATCH (expected %s, got %s)", check.Expected, check.Actual)
		case check.Weak:
			state = "ok (weak algorithm, informational)"
		}
		fmt.Printf("  %-7s %s\n", check.Algorithm+":", state)
	}

	if !result.Verified() {
		return fmt.Errorf("integrity verification %s", result.Status)
	}
	return nil
}

// expectedDigestSet builds the expected set from --digests or the
// individual digest flags.
func expectedDigestSet() (*evidence.DigestSet, error) {
	if hashFlags.digests != "" {
		data, err := os.ReadFile(hashFlags.digests)
		if err != nil {
			return nil, fmt.Errorf("failed to read digest file: %w", err)
		}
		var set evidence.DigestSet
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("failed to parse digest file: %w", err)
		}
		return &set, nil
	}

	if hashFlags.sha256 == "" && hashFlags.sha512 == "" && hashFlags.md5 == "" {
		return nil, fmt.Errorf("expected digests required: use --digests or --sha256/--sha512/--md5")
	}
	return &evidence.DigestSet{
		SHA256: hashFlags.sha256,
		SHA512: hashFlags.sha512,
		MD5:    hashFlags.md5,
	}, nil
}
