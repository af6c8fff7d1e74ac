package db

import (
	"testing"

	"github.com/strataops/strata-triage/model/enum"
)

func TestRoutingDecisionOverridden(t *testing.T) {
	computed := &RoutingDecision{
		Path:         enum.PathAutoRespond,
		ComputedPath: enum.PathAutoRespond,
	}
	if computed.Overridden() {
		t.Error("matching path and computed path must not read as overridden")
	}

	overridden := &RoutingDecision{
		Path:         enum.PathImmediateEscalation,
		ComputedPath: enum.PathAutoRespond,
	}
	if !overridden.Overridden() {
		t.Error("diverging path and computed path must read as overridden")
	}

	legacy := &RoutingDecision{Path: enum.PathAutoRespond}
	if legacy.Overridden() {
		t.Error("missing computed path must not read as overridden")
	}
}
