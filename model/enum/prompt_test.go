package enum

import (
	"strings"
	"testing"
)

// TestTriagePromptConsistency makes sure the labels the triage prompt asks
// the model to produce stay in sync with the constants the parser expects.
// Editing one without the other silently breaks triage.
func TestTriagePromptConsistency(t *testing.T) {
	prompt := string(SystemPromptTriage)

	urgencies := []TriageUrgency{
		TriageUrgencyCritical,
		TriageUrgencyHigh,
		TriageUrgencyMedium,
		TriageUrgencyLow,
	}

	for _, urgency := range urgencies {
		expected := `"` + string(urgency) + `"`
		if !strings.Contains(prompt, expected) {
			t.Errorf("SystemPromptTriage must mention urgency label %s", expected)
		}
	}

	for _, field := range []string{`"category"`, `"urgency"`, `"complexity"`} {
		if !strings.Contains(prompt, field) {
			t.Errorf("SystemPromptTriage must request the %s field", field)
		}
	}
}

func TestRoutePathValues(t *testing.T) {
	paths := []RoutePath{
		PathImmediateEscalation,
		PathAutoRespond,
		PathAutoRefine,
		PathGenerateDraft,
		PathDeepResearch,
	}

	seen := make(map[RoutePath]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			t.Error("route path constant must not be empty")
		}
		if _, dup := seen[p]; dup {
			t.Errorf("duplicate route path value: %s", p)
		}
		seen[p] = struct{}{}
	}
	if len(seen) != 5 {
		t.Errorf("expected exactly 5 handling paths, got %d", len(seen))
	}
}
