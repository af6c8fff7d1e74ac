package user

import (
	"testing"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
)

func newTestSentimentService() *sentimentService {
	global.Config.Triage.EscalationKeywords = []string{"speak to a human", "strata manager"}
	global.Config.Triage.FrustrationKeywords = []string{"ridiculous", "still waiting"}
	global.Config.Triage.DissatisfactionKeywords = []string{"doesn't help", "not what i asked"}
	global.Config.Triage.SatisfactionKeywords = []string{"thanks", "that helps"}
	global.Config.Triage.ClarificationKeywords = []string{"also", "to clarify"}
	return NewSentimentService()
}

func TestReadCascadeOrder(t *testing.T) {
	s := newTestSentimentService()

	tests := []struct {
		name string
		text string
		want TurnSignal
	}{
		{
			name: "explicit escalation request",
			text: "Just let me speak to a human please",
			want: TurnSignal{Sentiment: enum.SentimentFrustrated, EscalationRequest: true},
		},
		{
			name: "escalation wins over satisfaction cues",
			text: "Thanks but I want to speak to a human",
			want: TurnSignal{Sentiment: enum.SentimentFrustrated, EscalationRequest: true},
		},
		{
			name: "frustration wins over satisfaction cues",
			text: "thanks for nothing, this is ridiculous",
			want: TurnSignal{Sentiment: enum.SentimentFrustrated},
		},
		{
			name: "dissatisfaction",
			text: "That doesn't help at all",
			want: TurnSignal{Sentiment: enum.SentimentNegative},
		},
		{
			name: "satisfaction",
			text: "Great, that helps!",
			want: TurnSignal{Sentiment: enum.SentimentPositive},
		},
		{
			name: "question reads as clarification",
			text: "What about the garage door?",
			want: TurnSignal{Sentiment: enum.SentimentNeutral, Clarification: true},
		},
		{
			name: "clarification cue without question mark",
			text: "Also the leak is in unit 12",
			want: TurnSignal{Sentiment: enum.SentimentNeutral, Clarification: true},
		},
		{
			name: "plain statement is neutral",
			text: "The meeting was on Tuesday.",
			want: TurnSignal{Sentiment: enum.SentimentNeutral},
		},
		{
			name: "empty reply is neutral",
			text: "   ",
			want: TurnSignal{Sentiment: enum.SentimentNeutral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Read(tt.text); got != tt.want {
				t.Errorf("Read(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
