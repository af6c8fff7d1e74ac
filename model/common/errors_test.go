package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(Transient("redis lock busy")); got != KindTransient {
		t.Errorf("KindOf(Transient) = %v, want KindTransient", got)
	}
	if got := KindOf(Systematic("bad payload")); got != KindSystematic {
		t.Errorf("KindOf(Systematic) = %v, want KindSystematic", got)
	}
	if got := KindOf(Critical("turn sequence corrupt")); got != KindCritical {
		t.Errorf("KindOf(Critical) = %v, want KindCritical", got)
	}
	if got := KindOf(errors.New("plain")); got != KindSystematic {
		t.Errorf("unannotated errors must default to systematic, got %v", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Critical("halt: %d", 7)
	wrapped := fmt.Errorf("processing ticket: %w", inner)
	if got := KindOf(wrapped); got != KindCritical {
		t.Errorf("KindOf through wrap = %v, want KindCritical", got)
	}
	if wrapped.Error() != "processing ticket: halt: 7" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}
