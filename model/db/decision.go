package db

import (
	"github.com/strataops/strata-triage/model/enum"
)

// RoutingDecision is the write-once audit record of one routing evaluation.
// Rows are never mutated; an operator override appends a new record whose
// Path carries the override and ComputedPath the path the cascade chose, so
// drift between operators and the cascade stays measurable.
type RoutingDecision struct {
	BaseField
	Uuid           string           `db:"uuid" json:"uuid"`
	ConversationID uint             `db:"conversation_id" json:"conversation_id"`
	Path           enum.RoutePath   `db:"path" json:"path"`
	ComputedPath   enum.RoutePath   `db:"computed_path" json:"computed_path"`
	RetrievalScore float64          `db:"retrieval_score" json:"retrieval_score"`
	Phase          enum.Phase       `db:"phase" json:"phase"`
	Reason         enum.RouteReason `db:"reason" json:"reason"`
	Category       string           `db:"category" json:"category"`
	EntryKey       string           `db:"entry_key" json:"entry_key"`
	Experiment     bool             `db:"experiment" json:"experiment"`
}

func (RoutingDecision) TableName() string {
	return `routing_decisions`
}

// Overridden reports whether an operator bypassed the cascade.
func (d *RoutingDecision) Overridden() bool {
	return d.ComputedPath != "" && d.ComputedPath != d.Path
}
