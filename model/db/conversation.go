package db

import (
	"errors"
	"fmt"

	"github.com/strataops/strata-triage/model/enum"
)

// ErrConversationClosed is the conflict error returned when a turn is
// appended to a terminal conversation. Callers report it, they do not retry.
var ErrConversationClosed = errors.New("conversation is terminal and accepts no further turns")

// Conversation tracks one ticket's multi-turn exchange after the initial
// automated response. One row per ticket; the row becomes immutable (bar
// archival) once State leaves open.
type Conversation struct {
	BaseField
	ConversationID   uint                   `db:"conversation_id" json:"conversation_id"`
	AccountID        uint                   `db:"account_id" json:"account_id"`
	Category         string                 `db:"category" json:"category"`
	State            enum.ConversationState `db:"state" json:"state"`
	EscalationReason enum.EscalationReason  `db:"escalation_reason" json:"escalation_reason"`
	Confidence       float64                `db:"confidence" json:"confidence"`
	FailedTurns      int                    `db:"failed_turns" json:"failed_turns"`
	EntryKey         string                 `db:"entry_key" json:"entry_key"`
	ArchivedAt       int64                  `db:"archived_at" json:"archived_at"`
}

func (Conversation) TableName() string {
	return `conversations`
}

func (c *Conversation) Terminal() bool {
	return c.State == enum.ConversationResolved || c.State == enum.ConversationEscalated
}

// CanAppend rejects appends to terminal conversations with the conflict
// error the caller must surface, not retry.
func (c *Conversation) CanAppend() error {
	if c.Terminal() {
		return fmt.Errorf("conversation %d (%s): %w", c.ConversationID, c.State, ErrConversationClosed)
	}
	return nil
}

// Turn is one customer-message/system-response exchange. TurnNumber is
// 1-based and gapless within a conversation.
type Turn struct {
	BaseField
	ConversationID uint           `db:"conversation_id" json:"conversation_id"`
	TurnNumber     int            `db:"turn_number" json:"turn_number"`
	CustomerText   string         `db:"customer_text" json:"customer_text"`
	SystemResponse string         `db:"system_response" json:"system_response"`
	Sentiment      enum.Sentiment `db:"sentiment" json:"sentiment"`
	Confidence     float64        `db:"confidence" json:"confidence"`
	EntryKey       string         `db:"entry_key" json:"entry_key"`
	// When a clarifying turn re-runs retrieval and a better entry wins,
	// the switch is recorded here for audit.
	PrevEntryKey         string  `db:"prev_entry_key" json:"prev_entry_key"`
	PrevEntryScore       float64 `db:"prev_entry_score" json:"prev_entry_score"`
	EntryScore           float64 `db:"entry_score" json:"entry_score"`
	Escalated            bool    `db:"escalated" json:"escalated"`
	ResolutionSuccessful bool    `db:"resolution_successful" json:"resolution_successful"`
}

func (Turn) TableName() string {
	return `turns`
}

// NextTurnNumber returns the turn number the next append must carry.
func NextTurnNumber(turns []Turn) int {
	return len(turns) + 1
}

// CheckTurnSequence verifies the gapless 1-based ordering invariant. A
// violation is a critical error: processing of the ticket must halt.
func CheckTurnSequence(turns []Turn) error {
	for i, t := range turns {
		if t.TurnNumber != i+1 {
			return fmt.Errorf("turn sequence corrupt: position %d holds turn_number %d", i+1, t.TurnNumber)
		}
	}
	return nil
}
