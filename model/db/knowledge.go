package db

import (
	"github.com/strataops/strata-triage/model/enum"
)

// KnowledgeEntry is one versioned corpus article. Rows are never deleted;
// retiring an entry means setting status to inactive. The embedding vector
// itself lives in the vector store keyed by EntryKey; this row carries the
// text and the usage statistics.
type KnowledgeEntry struct {
	BaseField
	EntryKey    string           `db:"entry_key" json:"entry_key"`
	Title       string           `db:"title" json:"title"`
	Body        string           `db:"body" json:"body"`
	Category    string           `db:"category" json:"category"`
	Subcategory string           `db:"subcategory" json:"subcategory"`
	Status      enum.EntryStatus `db:"status" json:"status"`
	SuccessRate float64          `db:"success_rate" json:"success_rate"`
	UsageCount  int64            `db:"usage_count" json:"usage_count"`
	Version     int64            `db:"version" json:"version"`
	// EmbeddedAt is the unix time the current Body was embedded; 0 or a
	// value older than UpdatedAt means the vector store is stale.
	EmbeddedAt int64 `db:"embedded_at" json:"embedded_at"`
}

func (KnowledgeEntry) TableName() string {
	return `knowledge_entries`
}

// SuccessRateEmaAlpha weights the newest outcome in the exponential moving
// average of the outcome signal.
const SuccessRateEmaAlpha = 0.1

// NextSuccessRate folds one outcome into the EMA. The result stays in [0,1]
// for any current value in [0,1].
func NextSuccessRate(current float64, satisfied bool) float64 {
	signal := 0.0
	if satisfied {
		signal = 1.0
	}
	return current*(1-SuccessRateEmaAlpha) + signal*SuccessRateEmaAlpha
}

// TrainingExample is an immutable validated example, except for a late
// outcome-label update once customer feedback arrives. The embedding of
// TicketText lives in the vector store's training collection, keyed by Uuid;
// EmbeddedAt is 0 until the maintenance job pushes it.
type TrainingExample struct {
	BaseField
	Uuid           string            `db:"uuid" json:"uuid"`
	ConversationID uint              `db:"conversation_id" json:"conversation_id"`
	Category       string            `db:"category" json:"category"`
	// Path is the handling path that produced the example. Threshold
	// retuning reads only auto-responded examples.
	Path       enum.RoutePath    `db:"path" json:"path"`
	TicketText string            `db:"ticket_text" json:"ticket_text"`
	Outcome    enum.OutcomeLabel `db:"outcome" json:"outcome"`
	EmbeddedAt int64             `db:"embedded_at" json:"embedded_at"`
}

func (TrainingExample) TableName() string {
	return `training_examples`
}

// Validated reports whether this example counts toward phase progression.
func (t *TrainingExample) Validated() bool {
	return t.Outcome != enum.OutcomeUnknown && t.Outcome != ""
}
