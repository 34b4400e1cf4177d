package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custodia-hq/custodia/pkg/evidence"
	"custodia-hq/custodia/pkg/evidence/preservation"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect preservation policies",
	Long: `Inspect the preservation policy attached to each lifecycle
status, or check whether a specific action is allowed in a status.

Subcommands:
  show  - Print the policy table (or one status)
  check - Check one action against one status`,
}

var policyShowCmd = &cobra.Command{
	Use:   "show [status]",
	Short: "Print preservation policies",
	Args:  cobra.MaximumNArgs(1),
	RunE:  showPolicies,
}

var policyCheckCmd = &cobra.Command{
	Use:   "check <status> <action>",
	Short: "Check an action against a lifecycle status",
	Long: `Check whether the preservation policy for a lifecycle status
allows an action. This consults the status-driven policy only; actor
attributes play no part here.`,
	Args: cobra.ExactArgs(2),
	RunE: checkPolicy,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd, policyCheckCmd)
}

func showPolicies(cmd *cobra.Command, args []string) error {
	statuses := evidence.Statuses()
	if len(args) == 1 {
		statuses = []evidence.LifecycleStatus{evidence.LifecycleStatus(args[0])}
	}

	fmt.Printf("%-14s %-6s %-10s %-6s %-8s %-10s\n",
		"STATUS", "SEAL", "RETENTION", "EDIT", "DELETE", "APPROVAL")
	for _, status := range statuses {
		policy := preservation.PolicyFor(status)
		fmt.Printf("%-14s %-6t %-10d %-6t %-8t %-10t\n",
			status, policy.SealEnabled, policy.RetentionDays,
			policy.AllowEdit, policy.AllowDelete, policy.RequireApproval)
	}
	return nil
}

func checkPolicy(cmd *cobra.Command, args []string) error {
	status := evidence.LifecycleStatus(args[0])
	action, err := evidence.ParseAction(args[1])
	if err != nil {
		return err
	}

	check := preservation.CheckAction(status, action)
	if check.Allowed {
		fmt.Printf("allowed: %s in status %s\n", action, status)
		return nil
	}

	fmt.Printf("refused: %s\n", check.Reason)
	return fmt.Errorf("action %s refused in status %s", action, status)
}
