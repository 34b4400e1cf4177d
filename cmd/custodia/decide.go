package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"custodia-hq/custodia/pkg/access/scopes"
	"custodia-hq/custodia/pkg/audit"
	"custodia-hq/custodia/pkg/config"
	"custodia-hq/custodia/pkg/evidence"
	"custodia-hq/custodia/pkg/evidence/access"
)

var decideFlags struct {
	actor       string
	scopesPath  string
	evidenceID  string
	location    string
	sensitivity string
	status      string
	action      string
	format      string
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Resolve an access decision",
	Long: `Resolve an access decision for an (actor, evidence, action)
triple and record it in the configured audit trail.

The actor's scope is resolved from the scope file; the evidence
attributes are supplied on the command line.

Examples:
  custodia decide --actor actor-1 --action edit \
    --location "District 1" --sensitivity internal --status draft

  custodia decide --actor actor-2 --action seal \
    --evidence-id ev-42 --location "District 1" \
    --sensitivity confidential --status approved --format json`,
	RunE: runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().StringVar(&decideFlags.actor, "actor", "", "actor ID (required)")
	decideCmd.Flags().StringVar(&decideFlags.scopesPath, "scopes", "", "scope file path (defaults to config)")
	decideCmd.Flags().StringVar(&decideFlags.evidenceID, "evidence-id", "", "evidence record ID")
	decideCmd.Flags().StringVar(&decideFlags.location, "location", "", "evidence location label (required)")
	decideCmd.Flags().StringVar(&decideFlags.sensitivity, "sensitivity", "", "evidence sensitivity label (required)")
	decideCmd.Flags().StringVar(&decideFlags.status, "status", "", "evidence lifecycle status (required)")
	decideCmd.Flags().StringVar(&decideFlags.action, "action", "", "requested action (required)")
	decideCmd.Flags().StringVar(&decideFlags.format, "format", "text", "output format: text, json")

	decideCmd.MarkFlagRequired("actor")
	decideCmd.MarkFlagRequired("location")
	decideCmd.MarkFlagRequired("sensitivity")
	decideCmd.MarkFlagRequired("status")
	decideCmd.MarkFlagRequired("action")
}

func runDecide(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	scopesPath := decideFlags.scopesPath
	if scopesPath == "" {
		scopesPath = cfg.Scopes.Path
	}

	ctx := context.Background()

	manager := scopes.NewManager(scopesPath, nil, nil)
	if err := manager.Load(ctx); err != nil {
		return err
	}
	actor, ok := manager.Resolve(decideFlags.actor)
	if !ok {
		return fmt.Errorf("no scope on file for actor %q", decideFlags.actor)
	}

	store, err := buildAuditStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	collector := newCollector(&cfg.Telemetry.Metrics)

	logger := audit.NewLogger(store, &audit.Config{
		Enabled:      cfg.Audit.Enabled,
		AsyncBuffer:  cfg.Audit.AsyncBuffer,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, collector)
	defer logger.Close()

	engine, err := access.NewEngine(logger, collector)
	if err != nil {
		return err
	}

	record := &evidence.EvidenceRecord{
		ID:            decideFlags.evidenceID,
		LocationLabel: decideFlags.location,
		Sensitivity:   evidence.SensitivityLabel(decideFlags.sensitivity),
		Status:        evidence.LifecycleStatus(decideFlags.status),
	}

	decision := engine.Decide(ctx, actor, record, evidence.Action(decideFlags.action))
	logger.Flush()

	if decideFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(decision); err != nil {
			return err
		}
	} else if decision.Allowed {
		fmt.Printf("allowed: %s may %s %s\n", actor.ActorID, decideFlags.action, decideFlags.location)
		if decision.SealOverride {
			fmt.Println("note: seal protection overridden by admin role (logged)")
		}
	} else {
		fmt.Printf("denied (%s): %s\n", decision.Reason, decision.Message)
	}

	if !decision.Allowed {
		return fmt.Errorf("access denied")
	}
	return nil
}
