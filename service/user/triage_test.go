package user

import (
	"testing"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
)

func TestMapSeverity(t *testing.T) {
	tests := []struct {
		urgency  string
		platform string
		want     enum.Severity
	}{
		{"critical", "", enum.SeverityCritical},
		{"urgent", "", enum.SeverityCritical},
		{"high", "", enum.SeverityHigh},
		{"low", "", enum.SeverityLow},
		{"", "", enum.SeverityMedium},
		{"nonsense", "", enum.SeverityMedium},
		// The platform priority can only raise severity, never lower it.
		{"low", "urgent", enum.SeverityCritical},
		{"critical", "low", enum.SeverityCritical},
		{"medium", "high", enum.SeverityHigh},
		{"HIGH", " Urgent ", enum.SeverityCritical},
	}

	for _, tt := range tests {
		if got := mapSeverity(tt.urgency, tt.platform); got != tt.want {
			t.Errorf("mapSeverity(%q, %q) = %s, want %s", tt.urgency, tt.platform, got, tt.want)
		}
	}
}

func TestClassifyKeywordsFallback(t *testing.T) {
	global.Config.Triage.CategoryKeywords = map[string][]string{
		"maintenance": {"leak", "broken"},
	}
	s := NewTriageService()

	got := s.classifyKeywords("There is a LEAK in the basement")
	if got.Category != "maintenance" {
		t.Errorf("category = %s, want maintenance", got.Category)
	}
	if got.Urgency != "medium" || got.Complexity != 3 {
		t.Errorf("fallback defaults = (%s, %d), want (medium, 3)", got.Urgency, got.Complexity)
	}

	got = s.classifyKeywords("Where are the AGM minutes")
	if got.Category != "general" {
		t.Errorf("no-match category = %s, want general", got.Category)
	}
}

func TestClassifyKeywordsDeterministicOnMultiMatch(t *testing.T) {
	// Every category matches the same cue; the sorted order must decide,
	// identically on every delivery of the same ticket.
	global.Config.Triage.CategoryKeywords = map[string][]string{
		"maintenance":     {"water"},
		"levies_finance":  {"water"},
		"insurance":       {"water"},
		"bylaws_disputes": {"water"},
	}
	s := NewTriageService()

	first := s.classifyKeywords("water damage in unit 12").Category
	if first != "bylaws_disputes" {
		t.Fatalf("multi-match category = %s, want bylaws_disputes (first in sorted order)", first)
	}
	for i := 0; i < 500; i++ {
		if got := s.classifyKeywords("water damage in unit 12").Category; got != first {
			t.Fatalf("classification flipped to %s after %d runs", got, i)
		}
	}
}
