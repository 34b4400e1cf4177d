package access

import (
	"context"
	"testing"

	"custodia-hq/custodia/pkg/audit"
	"custodia-hq/custodia/pkg/audit/storage"
	"custodia-hq/custodia/pkg/evidence"
)

// newTestEngine wires an engine to a memory-backed audit logger.
func newTestEngine(t *testing.T) (*Engine, *audit.Logger) {
	t.Helper()

	sink := storage.NewMemoryStorage(0)
	logger := audit.NewLogger(sink, nil, nil)
	t.Cleanup(func() { logger.Close() })

	engine, err := NewEngine(logger, nil)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	return engine, logger
}

func inspector() *evidence.ActorScope {
	return &evidence.ActorScope{
		ActorID:              "actor-inspector",
		ActorName:            "Inspector One",
		Role:                 evidence.RoleInspector,
		AllowedLocations:     []string{"District 1"},
		AllowedSensitivities: []evidence.SensitivityLabel{evidence.SensitivityPublic, evidence.SensitivityInternal},
	}
}

func reviewer() *evidence.ActorScope {
	return &evidence.ActorScope{
		ActorID:              "actor-reviewer",
		ActorName:            "Reviewer One",
		Role:                 evidence.RoleReviewer,
		AllowedLocations:     []string{"District 1"},
		AllowedSensitivities: []evidence.SensitivityLabel{evidence.SensitivityPublic, evidence.SensitivityInternal, evidence.SensitivityConfidential},
	}
}

func admin() *evidence.ActorScope {
	return &evidence.ActorScope{
		ActorID:              "actor-admin",
		ActorName:            "Admin One",
		Role:                 evidence.RoleAdmin,
		AllowedSensitivities: []evidence.SensitivityLabel{evidence.SensitivityPublic, evidence.SensitivityInternal, evidence.SensitivityConfidential, evidence.SensitivityRestricted},
	}
}

func record(location string, sensitivity evidence.SensitivityLabel, status evidence.LifecycleStatus) *evidence.EvidenceRecord {
	return &evidence.EvidenceRecord{
		ID:            "ev-1",
		LocationLabel: location,
		Sensitivity:   sensitivity,
		Status:        status,
	}
}

// lastEntry flushes the logger and returns the newest audit entry.
func lastEntry(t *testing.T, logger *audit.Logger) *audit.Entry {
	t.Helper()
	logger.Flush()
	entries, err := logger.List(context.Background(), &audit.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("Expected an audit entry, got none")
	}
	return entries[0]
}

// TestEngine_ScopeViolation covers the out-of-district scenario: the
// denial carries the scope reason and one denied audit entry is recorded.
func TestEngine_ScopeViolation(t *testing.T) {
	engine, logger := newTestEngine(t)

	decision := engine.Decide(context.Background(), inspector(),
		record("District 3", evidence.SensitivityPublic, evidence.StatusDraft), evidence.ActionEdit)

	if decision.Allowed {
		t.Fatal("Expected denial")
	}
	if decision.Reason != DenialScope {
		t.Errorf("Expected scopeViolation, got %s", decision.Reason)
	}
	if decision.Message == "" {
		t.Error("Denial must carry a human-readable message")
	}

	entry := lastEntry(t, logger)
	if entry.Result != audit.ResultDenied {
		t.Errorf("Expected denied audit entry, got %s", entry.Result)
	}
	if entry.Action != evidence.ActionEdit {
		t.Errorf("Expected edit action in audit entry, got %s", entry.Action)
	}
	if entry.Metadata["denial_reason"] != string(DenialScope) {
		t.Errorf("Expected denial_reason metadata, got %+v", entry.Metadata)
	}
}

// TestEngine_SensitivityAfterScope: scope passes, sensitivity fails.
func TestEngine_SensitivityAfterScope(t *testing.T) {
	engine, _ := newTestEngine(t)

	decision := engine.Decide(context.Background(), inspector(),
		record("District 1", evidence.SensitivityRestricted, evidence.StatusDraft), evidence.ActionEdit)

	if decision.Allowed {
		t.Fatal("Expected denial")
	}
	if decision.Reason != DenialSensitivity {
		t.Errorf("Expected sensitivityViolation, got %s", decision.Reason)
	}
}

// TestEngine_DecisionOrdering: an actor failing both scope and sensitivity
// is reported as a scope violation - scope is checked first.
func TestEngine_DecisionOrdering(t *testing.T) {
	engine, _ := newTestEngine(t)

	decision := engine.Decide(context.Background(), inspector(),
		record("District 3", evidence.SensitivityRestricted, evidence.StatusDraft), evidence.ActionView)

	if decision.Reason != DenialScope {
		t.Errorf("Expected scopeViolation to win the tie-break, got %s", decision.Reason)
	}
}

// TestEngine_ReviewerSealsApproved: reviewer may seal approved evidence in
// scope (role check passes, approved has sealing enabled).
func TestEngine_ReviewerSealsApproved(t *testing.T) {
	engine, logger := newTestEngine(t)

	decision := engine.Decide(context.Background(), reviewer(),
		record("District 1", evidence.SensitivityInternal, evidence.StatusApproved), evidence.ActionSeal)

	if !decision.Allowed {
		t.Fatalf("Expected allow, got %s: %s", decision.Reason, decision.Message)
	}

	entry := lastEntry(t, logger)
	if entry.Result != audit.ResultSuccess {
		t.Errorf("Expected success audit entry, got %s", entry.Result)
	}
}

// TestEngine_RoleViolation: inspector and viewer may not approve or seal.
func TestEngine_RoleViolation(t *testing.T) {
	engine, _ := newTestEngine(t)

	actor := inspector()
	for _, action := range []evidence.Action{evidence.ActionApprove, evidence.ActionSeal} {
		decision := engine.Decide(context.Background(), actor,
			record("District 1", evidence.SensitivityPublic, evidence.StatusApproved), action)
		if decision.Allowed {
			t.Errorf("Expected %s denial for inspector", action)
		}
		if decision.Reason != DenialRole {
			t.Errorf("Expected roleViolation for %s, got %s", action, decision.Reason)
		}
	}
}

// TestEngine_SealProtection: non-admin edit/delete of sealed evidence is a
// preservation violation for every non-admin role.
func TestEngine_SealProtection(t *testing.T) {
	engine, _ := newTestEngine(t)

	actors := map[string]*evidence.ActorScope{
		"inspector": inspector(),
		"reviewer":  reviewer(),
	}
	actors["viewer"] = &evidence.ActorScope{
		ActorID:              "actor-viewer",
		Role:                 evidence.RoleViewer,
		AllowedLocations:     []string{"District 1"},
		AllowedSensitivities: []evidence.SensitivityLabel{evidence.SensitivityPublic},
	}

	for name, actor := range actors {
		for _, action := range []evidence.Action{evidence.ActionEdit, evidence.ActionDelete} {
			decision := engine.Decide(context.Background(), actor,
				record("District 1", evidence.SensitivityPublic, evidence.StatusSealed), action)
			if decision.Allowed {
				t.Errorf("%s: expected %s denial on sealed evidence", name, action)
			}
			if !decision.Allowed && decision.Reason != DenialPreservation {
				t.Errorf("%s: expected preservationViolation, got %s", name, decision.Reason)
			}
		}
	}
}

// TestEngine_AdminSealOverride: admin may edit sealed evidence, and the
// override is logged distinctly.
func TestEngine_AdminSealOverride(t *testing.T) {
	engine, logger := newTestEngine(t)

	decision := engine.Decide(context.Background(), admin(),
		record("District 9", evidence.SensitivityRestricted, evidence.StatusSealed), evidence.ActionEdit)

	if !decision.Allowed {
		t.Fatalf("Expected admin override to allow, got %s", decision.Reason)
	}
	if !decision.SealOverride {
		t.Error("Expected SealOverride flag on admin override")
	}

	entry := lastEntry(t, logger)
	if entry.Metadata["seal_override"] != "true" {
		t.Errorf("Expected seal_override metadata, got %+v", entry.Metadata)
	}
}

// TestEngine_AdminNoSensitivityBypass: sensitivity clearance is
// independent of role; an admin without restricted clearance is denied.
func TestEngine_AdminNoSensitivityBypass(t *testing.T) {
	engine, _ := newTestEngine(t)

	limited := admin()
	limited.AllowedSensitivities = []evidence.SensitivityLabel{evidence.SensitivityPublic}

	decision := engine.Decide(context.Background(), limited,
		record("District 1", evidence.SensitivityRestricted, evidence.StatusDraft), evidence.ActionView)

	if decision.Allowed {
		t.Fatal("Expected denial")
	}
	if decision.Reason != DenialSensitivity {
		t.Errorf("Expected sensitivityViolation, got %s", decision.Reason)
	}
}

// TestEngine_UnsealRules: only sealed evidence is unsealed by rule;
// archived needs the admin override, which is flagged.
func TestEngine_UnsealRules(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	if d := engine.Decide(ctx, reviewer(), record("District 1", evidence.SensitivityInternal, evidence.StatusSealed), evidence.ActionUnseal); !d.Allowed {
		t.Errorf("Expected reviewer unseal of sealed evidence, got %s: %s", d.Reason, d.Message)
	}

	if d := engine.Decide(ctx, reviewer(), record("District 1", evidence.SensitivityInternal, evidence.StatusArchived), evidence.ActionUnseal); d.Allowed {
		t.Error("Expected archived unseal denial for reviewer")
	}

	d := engine.Decide(ctx, admin(), record("District 1", evidence.SensitivityInternal, evidence.StatusArchived), evidence.ActionUnseal)
	if !d.Allowed {
		t.Fatalf("Expected admin override for archived unseal, got %s", d.Reason)
	}
	if !d.SealOverride {
		t.Error("Expected SealOverride flag on archived unseal")
	}
}

// TestEngine_ViewerRestrictedDownload: viewers may not download restricted
// evidence even when cleared for it.
func TestEngine_ViewerRestrictedDownload(t *testing.T) {
	engine, _ := newTestEngine(t)

	viewer := &evidence.ActorScope{
		ActorID:              "actor-viewer",
		Role:                 evidence.RoleViewer,
		AllowedLocations:     []string{"District 1"},
		AllowedSensitivities: []evidence.SensitivityLabel{evidence.SensitivityRestricted},
	}

	decision := engine.Decide(context.Background(), viewer,
		record("District 1", evidence.SensitivityRestricted, evidence.StatusApproved), evidence.ActionDownload)

	if decision.Allowed {
		t.Fatal("Expected restricted download denial for viewer")
	}
	if decision.Reason != DenialPreservation {
		t.Errorf("Expected preservationViolation, got %s", decision.Reason)
	}

	// The same download is fine for an inspector cleared for restricted.
	cleared := inspector()
	cleared.AllowedSensitivities = append(cleared.AllowedSensitivities, evidence.SensitivityRestricted)
	if d := engine.Decide(context.Background(), cleared,
		record("District 1", evidence.SensitivityRestricted, evidence.StatusApproved), evidence.ActionDownload); !d.Allowed {
		t.Errorf("Expected inspector download allow, got %s", d.Reason)
	}
}

// TestEngine_UnknownActionFailsClosed: an action outside the closed set is
// denied, never default-allowed.
func TestEngine_UnknownActionFailsClosed(t *testing.T) {
	engine, logger := newTestEngine(t)

	decision := engine.Decide(context.Background(), admin(),
		record("District 1", evidence.SensitivityPublic, evidence.StatusDraft), evidence.Action("transmogrify"))

	if decision.Allowed {
		t.Fatal("Unknown action must fail closed")
	}
	if decision.Reason != DenialUnknownAction {
		t.Errorf("Expected unknownAction, got %s", decision.Reason)
	}

	entry := lastEntry(t, logger)
	if entry.Result != audit.ResultDenied {
		t.Errorf("Expected denied audit entry for unknown action, got %s", entry.Result)
	}
}

// TestEngine_EveryDecisionAudited: allow and deny both produce exactly one
// entry.
func TestEngine_EveryDecisionAudited(t *testing.T) {
	engine, logger := newTestEngine(t)
	ctx := context.Background()

	engine.Decide(ctx, inspector(), record("District 1", evidence.SensitivityPublic, evidence.StatusDraft), evidence.ActionView)
	engine.Decide(ctx, inspector(), record("District 3", evidence.SensitivityPublic, evidence.StatusDraft), evidence.ActionView)
	logger.Flush()

	entries, err := logger.List(ctx, nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 audit entries, got %d", len(entries))
	}
}

// TestEngine_CallerAttributes verifies IP and user agent reach the entry.
func TestEngine_CallerAttributes(t *testing.T) {
	engine, logger := newTestEngine(t)

	engine.DecideWithCaller(context.Background(), inspector(),
		record("District 1", evidence.SensitivityPublic, evidence.StatusDraft), evidence.ActionView,
		Caller{IPAddress: "203.0.113.7", UserAgent: "custodia-ui/1.0"})

	entry := lastEntry(t, logger)
	if entry.IPAddress != "203.0.113.7" {
		t.Errorf("IP address not recorded: %q", entry.IPAddress)
	}
	if entry.UserAgent != "custodia-ui/1.0" {
		t.Errorf("User agent not recorded: %q", entry.UserAgent)
	}
}

// TestEngine_RequiresAuditLogger verifies construction fails without one.
func TestEngine_RequiresAuditLogger(t *testing.T) {
	if _, err := NewEngine(nil, nil); err == nil {
		t.Fatal("Expected NewEngine(nil, nil) to fail")
	}
}
