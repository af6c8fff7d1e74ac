package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/dto"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/utils"
	"github.com/jmoiron/sqlx"
)

type KnowledgeService interface {
	// Upsert creates or revises a corpus article, embeds the body and
	// pushes the vector.
	Upsert(ctx context.Context, req *dto.UpsertKnowledgeEntryRequest) (*db.KnowledgeEntry, error)
	// Retire deactivates an entry and removes its vector. The row stays.
	Retire(ctx context.Context, entryKey string) error
	List(category string) ([]db.KnowledgeEntry, error)
}

type knowledgeService struct {
	knowledgeDb *dao.KnowledgeDb
	vectorDb    *dao.VectorDb
}

func NewKnowledgeService() *knowledgeService {
	return &knowledgeService{
		knowledgeDb: &dao.KnowledgeDb{},
		vectorDb:    &dao.VectorDb{CollectionName: global.Config.VectorDb.KnowledgeCollection},
	}
}

func (s *knowledgeService) Upsert(ctx context.Context, req *dto.UpsertKnowledgeEntryRequest) (*db.KnowledgeEntry, error) {
	entryKey := strings.TrimSpace(req.EntryKey)
	if entryKey == "" {
		entryKey = utils.Hash(req.Category + "/" + req.Title)
	}

	entry := &db.KnowledgeEntry{
		EntryKey:    entryKey,
		Title:       strings.TrimSpace(req.Title),
		Body:        strings.TrimSpace(req.Body),
		Category:    strings.TrimSpace(req.Category),
		Subcategory: strings.TrimSpace(req.Subcategory),
		Status:      enum.EntryDraft,
	}
	if req.Activate {
		entry.Status = enum.EntryActive
	}

	if err := dao.Tx(func(tx *sqlx.Tx) error {
		return s.knowledgeDb.Upsert(entry, tx)
	}); err != nil {
		return nil, err
	}

	// Active entries are embedded right away so retrieval sees them without
	// waiting for the nightly sweep.
	if entry.Status == enum.EntryActive {
		if err := s.embed(ctx, entry); err != nil {
			global.Log.Warnf("[admin] embedding entry '%s' failed, the maintenance job will retry: %v", entry.EntryKey, err)
		}
	}

	return entry, nil
}

func (s *knowledgeService) embed(ctx context.Context, entry *db.KnowledgeEntry) error {
	if global.EmbeddingService == nil {
		return fmt.Errorf("embedding service not initialized")
	}

	embeds, err := global.EmbeddingService.CreateEmbeddings(ctx, []string{entry.Title + "\n" + entry.Body})
	if err != nil {
		return err
	}
	if _, err := s.vectorDb.BatchUpsert(ctx, []db.KnowledgeEntry{*entry}, embeds); err != nil {
		return err
	}
	return s.knowledgeDb.MarkEmbedded([]uint{entry.Id}, time.Now().Unix())
}

func (s *knowledgeService) Retire(ctx context.Context, entryKey string) error {
	if err := dao.Tx(func(tx *sqlx.Tx) error {
		return s.knowledgeDb.SetStatus(entryKey, enum.EntryInactive, tx)
	}); err != nil {
		return err
	}

	if _, err := global.VectorDb.DeleteByIDs(ctx, s.vectorDb.CollectionName,
		[]string{dao.KnowledgeVectorIDPrefix + entryKey}); err != nil {
		global.Log.Warnf("[admin] pruning vector of retired entry '%s' failed: %v", entryKey, err)
	}

	global.Log.Infof("[admin] entry '%s' retired", entryKey)
	return nil
}

func (s *knowledgeService) List(category string) ([]db.KnowledgeEntry, error) {
	return s.knowledgeDb.GetActiveEntries(common.RetrievalFilters{Category: category})
}
