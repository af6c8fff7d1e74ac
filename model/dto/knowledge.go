package dto

// UpsertKnowledgeEntryRequest creates or updates a corpus article. A
// non-empty EntryKey updates (bumping the version); an empty one creates.
type UpsertKnowledgeEntryRequest struct {
	EntryKey    string `json:"entry_key"`
	Title       string `json:"title" binding:"required"`
	Body        string `json:"body" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Subcategory string `json:"subcategory"`
	// Activate publishes the entry immediately instead of leaving it in
	// draft for curation review.
	Activate bool `json:"activate"`
}

// RetireKnowledgeEntryRequest moves an entry to inactive. Entries are never
// deleted.
type RetireKnowledgeEntryRequest struct {
	EntryKey string `json:"entry_key" binding:"required"`
}

// OverrideRouteRequest lets an operator bypass the routing cascade for one
// ticket. The computed path is still evaluated and audited.
type OverrideRouteRequest struct {
	ConversationID uint   `json:"conversation_id" binding:"required"`
	Path           string `json:"path" binding:"required"`
	Operator       string `json:"operator" binding:"required"`
}

// PhaseDowngradeRequest forces a category back to an earlier phase. Only a
// human action can move a phase backward.
type PhaseDowngradeRequest struct {
	Category string `json:"category" binding:"required"`
	Phase    string `json:"phase" binding:"required"`
	Operator string `json:"operator" binding:"required"`
}

// RoutingPathStats is one row of operator-drift statistics: how often the
// cascade chose a path and how often an operator redirected it.
type RoutingPathStats struct {
	Path       string `json:"path"`
	Total      int64  `json:"total"`
	Overridden int64  `json:"overridden"`
}

// LearningStatus is the inspection view of one category's tracker state.
type LearningStatus struct {
	Category       string  `json:"category"`
	ValidatedCount int     `json:"validated_count"`
	Phase          string  `json:"phase"`
	AutoRespondMin float64 `json:"auto_respond_min"`
	AutoRefineMin  float64 `json:"auto_refine_min"`
	DraftMin       float64 `json:"draft_min"`
}
