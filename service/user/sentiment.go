package user

import (
	"strings"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/utils"
)

// TurnSignal is the reading of one customer reply.
type TurnSignal struct {
	Sentiment enum.Sentiment
	// EscalationRequest is an explicit ask for a human. It preempts every
	// other signal.
	EscalationRequest bool
	// Clarification marks a reply that adds detail rather than reacting to
	// the previous answer; the state machine re-runs retrieval on it.
	Clarification bool
}

type SentimentService interface {
	Read(text string) TurnSignal
}

type sentimentService struct {
	escalation      []string
	frustration     []string
	dissatisfaction []string
	satisfaction    []string
	clarification   []string
}

func NewSentimentService() *sentimentService {
	cfg := global.Config.Triage
	return &sentimentService{
		escalation:      lowerAll(cfg.EscalationKeywords),
		frustration:     lowerAll(cfg.FrustrationKeywords),
		dissatisfaction: lowerAll(cfg.DissatisfactionKeywords),
		satisfaction:    lowerAll(cfg.SatisfactionKeywords),
		clarification:   lowerAll(cfg.ClarificationKeywords),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Read classifies a reply by cue lists checked in a fixed order; the first
// matching list wins. No match reads as neutral.
func (s *sentimentService) Read(text string) TurnSignal {
	content := strings.ToLower(strings.TrimSpace(text))
	if content == "" {
		return TurnSignal{Sentiment: enum.SentimentNeutral}
	}

	if utils.ContainsAny(content, s.escalation) {
		return TurnSignal{Sentiment: enum.SentimentFrustrated, EscalationRequest: true}
	}
	if utils.ContainsAny(content, s.frustration) {
		return TurnSignal{Sentiment: enum.SentimentFrustrated}
	}
	if utils.ContainsAny(content, s.dissatisfaction) {
		return TurnSignal{Sentiment: enum.SentimentNegative}
	}
	if utils.ContainsAny(content, s.satisfaction) {
		return TurnSignal{Sentiment: enum.SentimentPositive}
	}

	signal := TurnSignal{Sentiment: enum.SentimentNeutral}
	// A question mark or a clarification cue means the customer is adding
	// information, not reacting.
	if strings.Contains(content, "?") || utils.ContainsAny(content, s.clarification) {
		signal.Clarification = true
	}
	return signal
}
