package dao

import (
	"fmt"
	"math"
	"testing"

	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/jmoiron/sqlx"
)

func insertExample(t *testing.T, d *TrainingDb, n int, path enum.RoutePath, outcome enum.OutcomeLabel) {
	t.Helper()
	err := Tx(func(tx *sqlx.Tx) error {
		return d.Insert(&db.TrainingExample{
			Uuid:           fmt.Sprintf("ex-%03d", n),
			ConversationID: uint(n),
			Category:       "maintenance",
			Path:           path,
			TicketText:     fmt.Sprintf("ticket %d", n),
			Outcome:        outcome,
		}, tx)
	})
	if err != nil {
		t.Fatalf("insert example %d: %v", n, err)
	}
}

func TestTrailingAutoRespondRateIgnoresOtherPaths(t *testing.T) {
	setupTestDB(t, trainingSchema)
	d := &TrainingDb{}

	// 4 validated auto-responds, 3 satisfied. The draft and refine examples
	// and the unlabelled auto-respond must not move the rate.
	insertExample(t, d, 1, enum.PathAutoRespond, enum.OutcomeSatisfied)
	insertExample(t, d, 2, enum.PathAutoRespond, enum.OutcomeUnsatisfied)
	insertExample(t, d, 3, enum.PathAutoRespond, enum.OutcomeSatisfied)
	insertExample(t, d, 4, enum.PathAutoRespond, enum.OutcomeSatisfied)
	insertExample(t, d, 5, enum.PathGenerateDraft, enum.OutcomeUnsatisfied)
	insertExample(t, d, 6, enum.PathAutoRefine, enum.OutcomeUnsatisfied)
	insertExample(t, d, 7, enum.PathAutoRespond, enum.OutcomeUnknown)

	rate, n, err := d.TrailingAutoRespondRate("maintenance", 50)
	if err != nil {
		t.Fatalf("trailing rate: %v", err)
	}
	if n != 4 {
		t.Errorf("sample size = %d, want 4", n)
	}
	if math.Abs(rate-0.75) > 1e-9 {
		t.Errorf("rate = %.4f, want 0.75", rate)
	}
}

func TestTrailingAutoRespondRateWindowsNewestFirst(t *testing.T) {
	setupTestDB(t, trainingSchema)
	d := &TrainingDb{}

	// Old failures, recent successes. A window of 3 must only see the
	// successes.
	for i := 1; i <= 3; i++ {
		insertExample(t, d, i, enum.PathAutoRespond, enum.OutcomeUnsatisfied)
	}
	for i := 4; i <= 6; i++ {
		insertExample(t, d, i, enum.PathAutoRespond, enum.OutcomeSatisfied)
	}

	rate, n, err := d.TrailingAutoRespondRate("maintenance", 3)
	if err != nil {
		t.Fatalf("trailing rate: %v", err)
	}
	if n != 3 || rate != 1.0 {
		t.Errorf("windowed rate = (%.2f, %d), want (1.00, 3)", rate, n)
	}
}

func TestGetUnembeddedSkipsUnvalidated(t *testing.T) {
	setupTestDB(t, trainingSchema)
	d := &TrainingDb{}

	insertExample(t, d, 1, enum.PathAutoRespond, enum.OutcomeSatisfied)
	insertExample(t, d, 2, enum.PathGenerateDraft, enum.OutcomeUnsatisfied)
	insertExample(t, d, 3, enum.PathAutoRespond, enum.OutcomeUnknown)

	pending, err := d.GetUnembedded(10)
	if err != nil {
		t.Fatalf("get unembedded: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d examples, want 2 (unknown outcome excluded)", len(pending))
	}

	ids := []uint{pending[0].Id, pending[1].Id}
	if err := d.MarkEmbedded(ids, 1700000000); err != nil {
		t.Fatalf("mark embedded: %v", err)
	}

	pending, err = d.GetUnembedded(10)
	if err != nil {
		t.Fatalf("get unembedded after mark: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after mark = %d examples, want 0", len(pending))
	}
}

func TestTrailingAutoRespondRateEmptyCategory(t *testing.T) {
	setupTestDB(t, trainingSchema)
	d := &TrainingDb{}

	rate, n, err := d.TrailingAutoRespondRate("levies_finance", 50)
	if err != nil {
		t.Fatalf("trailing rate: %v", err)
	}
	if rate != 0 || n != 0 {
		t.Errorf("empty category = (%.2f, %d), want (0, 0)", rate, n)
	}
}
