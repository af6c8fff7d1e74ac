package dao

import (
	"testing"

	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/jmoiron/sqlx"
)

func insertDecision(t *testing.T, d *DecisionDb, decision *db.RoutingDecision) {
	t.Helper()
	err := Tx(func(tx *sqlx.Tx) error {
		return d.Insert(decision, tx)
	})
	if err != nil {
		t.Fatalf("insert decision %s: %v", decision.Uuid, err)
	}
}

func TestOverrideAppendsWithoutMutating(t *testing.T) {
	setupTestDB(t, decisionSchema)
	d := &DecisionDb{}

	insertDecision(t, d, &db.RoutingDecision{
		Uuid:           "dec-original",
		ConversationID: 42,
		Path:           enum.PathAutoRespond,
		ComputedPath:   enum.PathAutoRespond,
		RetrievalScore: 0.91,
		Phase:          enum.PhaseAutonomous,
		Reason:         enum.ReasonHighConfidence,
		Category:       "maintenance",
		EntryKey:       "kb-leak-repair",
	})

	var override *db.RoutingDecision
	err := Tx(func(tx *sqlx.Tx) error {
		var txErr error
		override, txErr = d.Override("dec-original", "dec-override", enum.PathGenerateDraft, tx)
		return txErr
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}

	// The original row must come back exactly as written.
	original, err := d.GetByUuid("dec-original")
	if err != nil {
		t.Fatalf("reload original: %v", err)
	}
	if original.Path != enum.PathAutoRespond || original.Reason != enum.ReasonHighConfidence {
		t.Errorf("original mutated: path=%s reason=%s", original.Path, original.Reason)
	}

	if override.Path != enum.PathGenerateDraft {
		t.Errorf("override path = %s, want %s", override.Path, enum.PathGenerateDraft)
	}
	if override.ComputedPath != enum.PathAutoRespond {
		t.Errorf("override computed path = %s, want the cascade's %s", override.ComputedPath, enum.PathAutoRespond)
	}
	if override.Reason != enum.ReasonOperatorOverride {
		t.Errorf("override reason = %s, want %s", override.Reason, enum.ReasonOperatorOverride)
	}
	if !override.Overridden() {
		t.Error("override record must report Overridden")
	}

	// The override is now the effective decision of the ticket.
	latest, err := d.LatestForConversation(42)
	if err != nil {
		t.Fatalf("latest decision: %v", err)
	}
	if latest.Uuid != "dec-override" {
		t.Errorf("latest decision = %s, want dec-override", latest.Uuid)
	}
	if latest.Category != "maintenance" || latest.EntryKey != "kb-leak-repair" {
		t.Errorf("override lost context: category=%s entry=%s", latest.Category, latest.EntryKey)
	}
}

func TestOverrideStatsCountsPerComputedPath(t *testing.T) {
	setupTestDB(t, decisionSchema)
	d := &DecisionDb{}

	insertDecision(t, d, &db.RoutingDecision{
		Uuid: "s1", ConversationID: 1,
		Path: enum.PathAutoRespond, ComputedPath: enum.PathAutoRespond,
	})
	insertDecision(t, d, &db.RoutingDecision{
		Uuid: "s2", ConversationID: 2,
		Path: enum.PathAutoRespond, ComputedPath: enum.PathAutoRespond,
	})
	insertDecision(t, d, &db.RoutingDecision{
		Uuid: "s3", ConversationID: 2,
		Path: enum.PathDeepResearch, ComputedPath: enum.PathAutoRespond,
		Reason: enum.ReasonOperatorOverride,
	})
	insertDecision(t, d, &db.RoutingDecision{
		Uuid: "s4", ConversationID: 3,
		Path: enum.PathGenerateDraft, ComputedPath: enum.PathGenerateDraft,
	})

	stats, err := d.OverrideStats(0)
	if err != nil {
		t.Fatalf("override stats: %v", err)
	}

	if got := stats[enum.PathAutoRespond]; got != [2]int64{3, 1} {
		t.Errorf("auto_respond stats = %v, want [3 1]", got)
	}
	if got := stats[enum.PathGenerateDraft]; got != [2]int64{1, 0} {
		t.Errorf("generate_draft stats = %v, want [1 0]", got)
	}
}
