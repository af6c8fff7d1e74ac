package db

import (
	"errors"
	"testing"

	"github.com/strataops/strata-triage/model/enum"
)

func TestCanAppend(t *testing.T) {
	open := &Conversation{ConversationID: 7, State: enum.ConversationOpen}
	if err := open.CanAppend(); err != nil {
		t.Errorf("open conversation must accept turns, got %v", err)
	}

	for _, state := range []enum.ConversationState{enum.ConversationResolved, enum.ConversationEscalated} {
		conv := &Conversation{ConversationID: 7, State: state}
		err := conv.CanAppend()
		if err == nil {
			t.Fatalf("%s conversation must reject turns", state)
		}
		if !errors.Is(err, ErrConversationClosed) {
			t.Errorf("rejection must wrap ErrConversationClosed, got %v", err)
		}
	}
}

func TestCheckTurnSequence(t *testing.T) {
	good := []Turn{{TurnNumber: 1}, {TurnNumber: 2}, {TurnNumber: 3}}
	if err := CheckTurnSequence(good); err != nil {
		t.Errorf("gapless sequence flagged: %v", err)
	}

	if err := CheckTurnSequence(nil); err != nil {
		t.Errorf("empty sequence flagged: %v", err)
	}

	gap := []Turn{{TurnNumber: 1}, {TurnNumber: 3}}
	if err := CheckTurnSequence(gap); err == nil {
		t.Error("gap in turn numbers must be detected")
	}

	zeroBased := []Turn{{TurnNumber: 0}, {TurnNumber: 1}}
	if err := CheckTurnSequence(zeroBased); err == nil {
		t.Error("zero-based numbering must be detected")
	}
}

func TestNextTurnNumber(t *testing.T) {
	if got := NextTurnNumber(nil); got != 1 {
		t.Errorf("first turn number = %d, want 1", got)
	}
	if got := NextTurnNumber([]Turn{{TurnNumber: 1}, {TurnNumber: 2}}); got != 3 {
		t.Errorf("next turn number = %d, want 3", got)
	}
}
