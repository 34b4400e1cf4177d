package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "custodia",
	Short: "Custodia - evidence integrity and access control",
	Long: `Custodia is the integrity and access-control core for digital
evidence under chain-of-custody requirements.

It provides:
  - Multi-algorithm acquisition hashing and later re-verification
  - Lifecycle-driven preservation policies with seal protection
  - Attribute-based access decisions (scope, sensitivity, role, state)
  - A tamper-evident, append-only audit trail with export and retention`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// The run command replaces this with the configured handler;
		// --verbose still wins there via configureLogging.
		if verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
