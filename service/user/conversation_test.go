package user

import (
	"math"
	"testing"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
)

func turnTestEnv() {
	global.Config.Triage.PositiveDelta = 0.05
	global.Config.Triage.NegativeDelta = -0.15
	global.Config.Triage.NeutralDelta = -0.08
	global.Config.Triage.MaxFailedTurns = 3
	global.Config.Triage.EscalationFloor = 0.60
}

func TestAssessTurnScenarios(t *testing.T) {
	turnTestEnv()

	tests := []struct {
		name           string
		signal         TurnSignal
		confidence     float64
		failedTurns    int
		wantConfidence float64
		wantFailed     int
		wantResolved   bool
		wantEscalation enum.EscalationReason
	}{
		{
			name:           "neutral turn drops confidence and counts as failed",
			signal:         TurnSignal{Sentiment: enum.SentimentNeutral},
			confidence:     0.82,
			wantConfidence: 0.74,
			wantFailed:     1,
		},
		{
			name:           "positive turn resolves without counting as failed",
			signal:         TurnSignal{Sentiment: enum.SentimentPositive},
			confidence:     0.74,
			failedTurns:    1,
			wantConfidence: 0.79,
			wantFailed:     1,
			wantResolved:   true,
		},
		{
			name:           "third failed turn escalates even above the floor",
			signal:         TurnSignal{Sentiment: enum.SentimentNeutral},
			confidence:     0.90,
			failedTurns:    2,
			wantConfidence: 0.82,
			wantFailed:     3,
			wantEscalation: enum.EscalationExceededMaxTurns,
		},
		{
			name:           "confidence under the floor escalates",
			signal:         TurnSignal{Sentiment: enum.SentimentFrustrated},
			confidence:     0.70,
			wantConfidence: 0.55,
			wantFailed:     1,
			wantEscalation: enum.EscalationLowConfidence,
		},
		{
			name:           "explicit request preempts the failed-turn ceiling",
			signal:         TurnSignal{Sentiment: enum.SentimentFrustrated, EscalationRequest: true},
			confidence:     0.90,
			failedTurns:    2,
			wantConfidence: 0.75,
			wantFailed:     3,
			wantEscalation: enum.EscalationExplicitRequest,
		},
		{
			name:           "explicit request preempts a positive resolution",
			signal:         TurnSignal{Sentiment: enum.SentimentPositive, EscalationRequest: true},
			confidence:     0.90,
			wantConfidence: 0.95,
			wantResolved:   true,
			wantEscalation: enum.EscalationExplicitRequest,
		},
		{
			name:           "failed-turn ceiling outranks low confidence",
			signal:         TurnSignal{Sentiment: enum.SentimentNegative},
			confidence:     0.30,
			failedTurns:    2,
			wantConfidence: 0.15,
			wantFailed:     3,
			wantEscalation: enum.EscalationExceededMaxTurns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assessTurn(tt.signal, tt.confidence, tt.failedTurns)
			if math.Abs(got.Confidence-tt.wantConfidence) > 1e-9 {
				t.Errorf("confidence = %.4f, want %.4f", got.Confidence, tt.wantConfidence)
			}
			if got.FailedTurns != tt.wantFailed {
				t.Errorf("failed turns = %d, want %d", got.FailedTurns, tt.wantFailed)
			}
			if got.Resolved != tt.wantResolved {
				t.Errorf("resolved = %v, want %v", got.Resolved, tt.wantResolved)
			}
			if got.Escalation != tt.wantEscalation {
				t.Errorf("escalation = %q, want %q", got.Escalation, tt.wantEscalation)
			}
		})
	}
}

func TestAssessTurnClampsConfidence(t *testing.T) {
	turnTestEnv()

	high := assessTurn(TurnSignal{Sentiment: enum.SentimentPositive}, 0.98, 0)
	if high.Confidence != 1.0 {
		t.Errorf("confidence above 1 must clamp, got %.4f", high.Confidence)
	}

	low := assessTurn(TurnSignal{Sentiment: enum.SentimentNegative}, 0.05, 0)
	if low.Confidence != 0.0 {
		t.Errorf("confidence below 0 must clamp, got %.4f", low.Confidence)
	}
	if low.Escalation != enum.EscalationLowConfidence {
		t.Errorf("clamped-to-zero confidence must escalate, got %q", low.Escalation)
	}
}

func TestAssessTurnEscalatesByThirdFailedTurn(t *testing.T) {
	turnTestEnv()

	// A stream of unhelpful answers must hand off by the third failed turn
	// no matter where confidence sits.
	confidence, failed := 1.0, 0
	for turn := 1; turn <= 3; turn++ {
		got := assessTurn(TurnSignal{Sentiment: enum.SentimentNeutral}, confidence, failed)
		confidence, failed = got.Confidence, got.FailedTurns
		if turn < 3 && got.Escalation != "" {
			t.Fatalf("turn %d escalated early with %q", turn, got.Escalation)
		}
		if turn == 3 && got.Escalation != enum.EscalationExceededMaxTurns {
			t.Fatalf("turn 3 escalation = %q, want %q", got.Escalation, enum.EscalationExceededMaxTurns)
		}
	}
}
