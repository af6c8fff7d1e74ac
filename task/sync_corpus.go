package task

import (
	"context"
	"fmt"
	"time"

	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/jmoiron/sqlx"
)

// embedBatchLimit caps one embedding round trip; big corpus imports drain
// over several batches.
const embedBatchLimit = 64

// An active entry that keeps failing gets pulled out of retrieval until a
// curator revises it. Rows are never deleted.
const (
	deactivateSuccessFloor = 0.25
	deactivateMinUsage     = 10
)

// SyncCorpusEmbeddings embeds every knowledge entry whose body changed since
// its last embedding, then prunes vectors of retired entries. Runs hourly
// and at startup.
func (m *Manager) SyncCorpusEmbeddings() error {
	if m.embeddingService == nil || global.VectorDb == nil {
		global.Log.Warn("embedding or vector store client missing, skipping corpus sync")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(global.Config.LlmEmbedding.BatchTimeout)*time.Second)
	defer cancel()

	vectorDb := &dao.VectorDb{CollectionName: global.Config.VectorDb.KnowledgeCollection}

	embedded := 0
	for {
		entries, err := m.knowledgeDb.GetStaleEmbeddings(embedBatchLimit)
		if err != nil {
			return fmt.Errorf("listing stale entries failed: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		texts := make([]string, 0, len(entries))
		for _, entry := range entries {
			texts = append(texts, entry.Title+"\n"+entry.Body)
		}

		embeds, err := m.embeddingService.CreateEmbeddings(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding %d entries failed: %w", len(entries), err)
		}

		if _, err := vectorDb.BatchUpsert(ctx, entries, embeds); err != nil {
			return fmt.Errorf("upserting vectors failed: %w", err)
		}

		ids := make([]uint, 0, len(entries))
		for _, entry := range entries {
			ids = append(ids, entry.Id)
		}
		if err := m.knowledgeDb.MarkEmbedded(ids, time.Now().Unix()); err != nil {
			return fmt.Errorf("marking entries embedded failed: %w", err)
		}

		embedded += len(entries)
		if len(entries) < embedBatchLimit {
			break
		}
	}

	deactivated := m.deactivateFailingEntries()

	activeKeys, err := m.knowledgeDb.ActiveEntryKeys()
	if err != nil {
		return fmt.Errorf("listing active entry keys failed: %w", err)
	}
	pruned, err := vectorDb.PruneStale(ctx, activeKeys)
	if err != nil {
		return fmt.Errorf("pruning stale vectors failed: %w", err)
	}

	examples, err := m.syncExampleEmbeddings(ctx)
	if err != nil {
		global.Log.Errorf("[corpus] example embedding sync failed: %v", err)
	}

	if embedded > 0 || deactivated > 0 || pruned > 0 || examples > 0 {
		global.Log.Infof("[corpus] sync done, embedded: %d, deactivated: %d, pruned: %d, examples: %d",
			embedded, deactivated, pruned, examples)
	}
	return nil
}

// syncExampleEmbeddings pushes validated training examples into the few-shot
// collection so triage can vote with similar past tickets.
func (m *Manager) syncExampleEmbeddings(ctx context.Context) (int, error) {
	exampleVectors := &dao.VectorDb{CollectionName: global.Config.VectorDb.TrainingCollection}

	embedded := 0
	for {
		examples, err := m.trainingDb.GetUnembedded(embedBatchLimit)
		if err != nil {
			return embedded, fmt.Errorf("listing unembedded examples failed: %w", err)
		}
		if len(examples) == 0 {
			return embedded, nil
		}

		texts := make([]string, 0, len(examples))
		for _, example := range examples {
			texts = append(texts, example.TicketText)
		}

		embeds, err := m.embeddingService.CreateEmbeddings(ctx, texts)
		if err != nil {
			return embedded, fmt.Errorf("embedding %d examples failed: %w", len(examples), err)
		}
		if _, err := exampleVectors.UpsertExamples(ctx, examples, embeds); err != nil {
			return embedded, fmt.Errorf("upserting example vectors failed: %w", err)
		}

		ids := make([]uint, 0, len(examples))
		for _, example := range examples {
			ids = append(ids, example.Id)
		}
		if err := m.trainingDb.MarkEmbedded(ids, time.Now().Unix()); err != nil {
			return embedded, fmt.Errorf("marking examples embedded failed: %w", err)
		}

		embedded += len(examples)
		if len(examples) < embedBatchLimit {
			return embedded, nil
		}
	}
}

// deactivateFailingEntries retires entries the success-rate average marks as
// chronically failing. Their vectors drop out in the prune pass that follows.
func (m *Manager) deactivateFailingEntries() int {
	failing, err := m.knowledgeDb.GetChronicallyFailing(deactivateSuccessFloor, deactivateMinUsage)
	if err != nil {
		global.Log.Errorf("[corpus] listing failing entries failed: %v", err)
		return 0
	}

	deactivated := 0
	for _, entry := range failing {
		err := dao.Tx(func(tx *sqlx.Tx) error {
			return m.knowledgeDb.SetStatus(entry.EntryKey, enum.EntryInactive, tx)
		})
		if err != nil {
			global.Log.Errorf("[corpus] deactivating entry '%s' failed: %v", entry.EntryKey, err)
			continue
		}
		global.Log.Warnf("[corpus] entry '%s' deactivated, success rate %.2f over %d uses",
			entry.EntryKey, entry.SuccessRate, entry.UsageCount)
		deactivated++
	}
	return deactivated
}
