package common

import (
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
)

// RetrievalFilters narrow the candidate set after fusion.
type RetrievalFilters struct {
	Category       string
	MinSuccessRate float64
	// Unix-second bounds on entry update time; zero means unbounded.
	UpdatedSince int64
	UpdatedUntil int64
}

// ScoredEntry is one fused retrieval candidate. A rank of 0 means the entry
// was absent from that sub-search.
type ScoredEntry struct {
	Entry        db.KnowledgeEntry
	Score        float64
	SemanticRank int
	LexicalRank  int
}

// TriageResult is the classification extracted from a fresh ticket.
type TriageResult struct {
	Category   string        `json:"category"`
	Severity   enum.Severity `json:"-"`
	Urgency    string        `json:"urgency"`
	Complexity int           `json:"complexity"`
}

// LlmMessage is one chat message in provider format.
type LlmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
