package task

import (
	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/internal/embedding"
)

// Manager groups the background jobs the scheduler drives.
type Manager struct {
	embeddingService embedding.Service
	knowledgeDb      dao.KnowledgeDb
	trainingDb       dao.TrainingDb
	conversationDb   dao.ConversationDb
}

var defaultManager *Manager

func NewManager(embeddingService embedding.Service) *Manager {
	defaultManager = &Manager{
		embeddingService: embeddingService,
	}
	return defaultManager
}

// Default returns the manager built at startup, for callers outside the
// scheduler (the admin resync endpoint).
func Default() *Manager {
	return defaultManager
}
