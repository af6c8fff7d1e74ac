package user

import (
	"os"
	"testing"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	global.Log = logrus.New()
	global.Log.SetOutput(os.Stderr)
	os.Exit(m.Run())
}

func newTestLearningService() *learningService {
	return &learningService{
		phases: make(map[string]enum.Phase),
		counts: make(map[string]int64),
	}
}

func TestPhaseForCount(t *testing.T) {
	global.Config.Triage.AssistedFloor = 30
	global.Config.Triage.AutonomousFloor = 100

	tests := []struct {
		count int64
		want  enum.Phase
	}{
		{0, enum.PhaseManual},
		{29, enum.PhaseManual},
		{30, enum.PhaseAssisted},
		{99, enum.PhaseAssisted},
		{100, enum.PhaseAutonomous},
		{5000, enum.PhaseAutonomous},
	}
	for _, tt := range tests {
		if got := phaseForCount(tt.count); got != tt.want {
			t.Errorf("phaseForCount(%d) = %s, want %s", tt.count, got, tt.want)
		}
	}
}

func TestPhaseForUnknownCategory(t *testing.T) {
	s := newTestLearningService()
	if got := s.PhaseFor("never-seen"); got != enum.PhaseManual {
		t.Errorf("unknown category phase = %s, want manual", got)
	}
}

func TestDowngradePhaseOnlyMovesBack(t *testing.T) {
	s := newTestLearningService()
	s.phases["maintenance"] = enum.PhaseAssisted

	if err := s.DowngradePhase("maintenance", enum.PhaseAutonomous, "ops"); err == nil {
		t.Error("downgrade to a higher phase must be rejected")
	}
	if err := s.DowngradePhase("maintenance", enum.PhaseManual, "ops"); err != nil {
		t.Errorf("downgrade to manual failed: %v", err)
	}
	if got := s.PhaseFor("maintenance"); got != enum.PhaseManual {
		t.Errorf("phase after downgrade = %s, want manual", got)
	}

	if err := s.DowngradePhase("maintenance", enum.Phase("turbo"), "ops"); err == nil {
		t.Error("unknown phase must be rejected")
	}
}

func TestInExperimentStableAndBounded(t *testing.T) {
	s := newTestLearningService()

	global.Config.Triage.ExperimentFraction = 0
	if s.InExperiment(42) {
		t.Error("fraction 0 must put nothing in the experiment")
	}

	global.Config.Triage.ExperimentFraction = 100
	if !s.InExperiment(42) {
		t.Error("fraction 100 must put everything in the experiment")
	}

	global.Config.Triage.ExperimentFraction = 20
	first := s.InExperiment(1234)
	for i := 0; i < 10; i++ {
		if s.InExperiment(1234) != first {
			t.Fatal("experiment bucketing must be stable per conversation")
		}
	}

	inCount := 0
	for id := uint(0); id < 1000; id++ {
		if s.InExperiment(id) {
			inCount++
		}
	}
	// FNV over ids is not uniform to the decimal, but 20% of 1000 should not
	// be wildly off.
	if inCount < 100 || inCount > 350 {
		t.Errorf("experiment holdout of 1000 ids = %d, expected around 200", inCount)
	}
}

func TestThresholdsForHoldoutGetsBaseline(t *testing.T) {
	global.Config.Triage.AutoRespondMin = 0.85
	global.Config.Triage.AutoRefineMin = 0.75
	global.Config.Triage.DraftMin = 0.50

	global.Thresholds.Store(&global.ThresholdSnapshot{
		Default: global.ThresholdSet{AutoRespondMin: 0.85, AutoRefineMin: 0.75, DraftMin: 0.50},
		PerCategory: map[string]global.ThresholdSet{
			"maintenance": {AutoRespondMin: 0.79, AutoRefineMin: 0.75, DraftMin: 0.50, RetunedAt: 100},
		},
	})

	s := newTestLearningService()

	tuned := s.ThresholdsFor("maintenance", false)
	if tuned.AutoRespondMin != 0.79 {
		t.Errorf("tuned threshold = %f, want 0.79", tuned.AutoRespondMin)
	}

	holdout := s.ThresholdsFor("maintenance", true)
	if holdout.AutoRespondMin != 0.85 {
		t.Errorf("holdout threshold = %f, want baseline 0.85", holdout.AutoRespondMin)
	}

	fallback := s.ThresholdsFor("insurance", false)
	if fallback.AutoRespondMin != 0.85 {
		t.Errorf("unknown category threshold = %f, want default 0.85", fallback.AutoRespondMin)
	}
}

func TestThresholdSnapshotFallback(t *testing.T) {
	snap := &global.ThresholdSnapshot{
		Default: global.ThresholdSet{AutoRespondMin: 0.85},
		PerCategory: map[string]global.ThresholdSet{
			"insurance": {AutoRespondMin: 0.88},
		},
	}
	if got := snap.For("insurance").AutoRespondMin; got != 0.88 {
		t.Errorf("per-category set = %f, want 0.88", got)
	}
	if got := snap.For("anything-else").AutoRespondMin; got != 0.85 {
		t.Errorf("fallback set = %f, want 0.85", got)
	}
}
