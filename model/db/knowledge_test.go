package db

import (
	"testing"

	"github.com/strataops/strata-triage/model/enum"
)

func TestNextSuccessRate(t *testing.T) {
	// A satisfied outcome moves the rate up, an unsatisfied one down.
	up := NextSuccessRate(0.5, true)
	if up <= 0.5 {
		t.Errorf("satisfied outcome must raise the rate, got %f", up)
	}
	down := NextSuccessRate(0.5, false)
	if down >= 0.5 {
		t.Errorf("unsatisfied outcome must lower the rate, got %f", down)
	}

	// The EMA stays inside [0,1] from any valid starting point.
	rate := 0.0
	for i := 0; i < 200; i++ {
		rate = NextSuccessRate(rate, true)
		if rate < 0 || rate > 1 {
			t.Fatalf("rate escaped [0,1]: %f", rate)
		}
	}
	if rate < 0.9 {
		t.Errorf("200 satisfied outcomes should converge near 1, got %f", rate)
	}

	rate = 1.0
	for i := 0; i < 200; i++ {
		rate = NextSuccessRate(rate, false)
		if rate < 0 || rate > 1 {
			t.Fatalf("rate escaped [0,1]: %f", rate)
		}
	}
	if rate > 0.1 {
		t.Errorf("200 unsatisfied outcomes should converge near 0, got %f", rate)
	}
}

func TestTrainingExampleValidated(t *testing.T) {
	tests := []struct {
		outcome enum.OutcomeLabel
		want    bool
	}{
		{enum.OutcomeSatisfied, true},
		{enum.OutcomeUnsatisfied, true},
		{enum.OutcomeUnknown, false},
		{"", false},
	}
	for _, tt := range tests {
		e := &TrainingExample{Outcome: tt.outcome}
		if got := e.Validated(); got != tt.want {
			t.Errorf("Validated() with outcome %q = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}
