package user

import (
	"testing"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
)

func routingTestEnv(validated int64) *routeEnv {
	global.Config.Triage.AssistedFloor = 30
	global.Config.Triage.AutonomousFloor = 100
	return &routeEnv{
		thresholds: global.ThresholdSet{
			AutoRespondMin: 0.85,
			AutoRefineMin:  0.75,
			DraftMin:       0.50,
		},
		validatedCount: validated,
	}
}

func TestEvaluateCascade(t *testing.T) {
	tests := []struct {
		name       string
		in         RouteInput
		validated  int64
		wantPath   enum.RoutePath
		wantReason enum.RouteReason
	}{
		{
			name:       "critical severity preempts a perfect match",
			in:         RouteInput{Severity: enum.SeverityCritical, TopScore: 0.99},
			validated:  500,
			wantPath:   enum.PathImmediateEscalation,
			wantReason: enum.ReasonCriticalSeverity,
		},
		{
			name:       "complexity five escalates",
			in:         RouteInput{Severity: enum.SeverityLow, Complexity: 5, TopScore: 0.95},
			validated:  500,
			wantPath:   enum.PathImmediateEscalation,
			wantReason: enum.ReasonHighComplexity,
		},
		{
			name:       "high score with mature category auto-responds",
			in:         RouteInput{Severity: enum.SeverityMedium, Complexity: 2, TopScore: 0.90},
			validated:  150,
			wantPath:   enum.PathAutoRespond,
			wantReason: enum.ReasonHighConfidence,
		},
		{
			name:       "manual review flag turns auto-respond into a draft",
			in:         RouteInput{Severity: enum.SeverityMedium, Complexity: 2, TopScore: 0.90, ManualReview: true},
			validated:  150,
			wantPath:   enum.PathGenerateDraft,
			wantReason: enum.ReasonManualReviewFlag,
		},
		{
			name:       "medium band refines",
			in:         RouteInput{Severity: enum.SeverityLow, Complexity: 3, TopScore: 0.80},
			validated:  150,
			wantPath:   enum.PathAutoRefine,
			wantReason: enum.ReasonMediumConfidence,
		},
		{
			name:       "low band with assisted history drafts",
			in:         RouteInput{Severity: enum.SeverityLow, Complexity: 2, TopScore: 0.60},
			validated:  50,
			wantPath:   enum.PathGenerateDraft,
			wantReason: enum.ReasonLowConfidence,
		},
		{
			name:       "no adequate match researches",
			in:         RouteInput{Severity: enum.SeverityLow, Complexity: 1, TopScore: 0.30},
			validated:  500,
			wantPath:   enum.PathDeepResearch,
			wantReason: enum.ReasonNoAdequateMatch,
		},
		{
			name:       "high score in an immature category falls through to research",
			in:         RouteInput{Severity: enum.SeverityLow, Complexity: 1, TopScore: 0.90},
			validated:  10,
			wantPath:   enum.PathDeepResearch,
			wantReason: enum.ReasonInsufficientData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, reason := evaluate(&tt.in, routingTestEnv(tt.validated))
			if path != tt.wantPath || reason != tt.wantReason {
				t.Errorf("evaluate() = (%s, %s), want (%s, %s)", path, reason, tt.wantPath, tt.wantReason)
			}
		})
	}
}

// TestEvaluateTotality walks a grid of inputs and checks the cascade always
// produces a decision.
func TestEvaluateTotality(t *testing.T) {
	severities := []enum.Severity{enum.SeverityLow, enum.SeverityMedium, enum.SeverityHigh, enum.SeverityCritical}
	scores := []float64{0, 0.3, 0.5, 0.6, 0.75, 0.8, 0.85, 0.9, 1.0}
	counts := []int64{0, 10, 30, 31, 100, 101, 1000}

	for _, sev := range severities {
		for complexity := 1; complexity <= 5; complexity++ {
			for _, score := range scores {
				for _, count := range counts {
					for _, manual := range []bool{false, true} {
						in := RouteInput{
							Severity:     sev,
							Complexity:   complexity,
							TopScore:     score,
							ManualReview: manual,
						}
						path, reason := evaluate(&in, routingTestEnv(count))
						if path == "" || reason == "" {
							t.Fatalf("cascade produced empty decision for %+v", in)
						}
					}
				}
			}
		}
	}
}

// TestEvaluateEscalationNeverAutoResponds checks that no score or sample
// count can push a critical ticket onto an automated path.
func TestEvaluateEscalationNeverAutoResponds(t *testing.T) {
	for _, score := range []float64{0.86, 0.95, 1.0} {
		in := RouteInput{Severity: enum.SeverityCritical, Complexity: 1, TopScore: score}
		path, _ := evaluate(&in, routingTestEnv(10000))
		if path != enum.PathImmediateEscalation {
			t.Errorf("critical ticket with score %.2f routed to %s", score, path)
		}
	}
}

func TestOverrideRejectsUnknownPath(t *testing.T) {
	s := &routingService{}
	if err := s.Override("some-uuid", enum.RoutePath("teleport"), "ops"); err == nil {
		t.Error("Override must reject an unknown route path")
	}
}
