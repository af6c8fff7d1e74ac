package dao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/internal/vector"
	"github.com/strataops/strata-triage/model/db"
)

// KnowledgeVectorIDPrefix namespaces corpus documents in the vector store.
const KnowledgeVectorIDPrefix = "kb_"

// ExampleVectorIDPrefix namespaces few-shot training examples, which live in
// their own collection.
const ExampleVectorIDPrefix = "ex_"

// Metadata keys stored alongside each vector.
const (
	VectorMetadataKeyEntryKey = "entry_key"
	VectorMetadataKeyCategory = "category"
	VectorMetadataKeyVersion  = "version"
	VectorMetadataKeyUuid     = "uuid"
	VectorMetadataKeyOutcome  = "outcome"
)

// SemanticHit is one nearest-neighbor match from the corpus collection.
type SemanticHit struct {
	EntryKey   string
	Similarity float64
}

type VectorDb struct {
	CollectionName string
}

// BatchUpsert pushes freshly embedded entries into the vector store. The
// embeddings slice is parallel to entries.
func (d *VectorDb) BatchUpsert(ctx context.Context, entries []db.KnowledgeEntry, embeds [][]float32) (int, error) {
	if global.VectorDb == nil {
		return 0, fmt.Errorf("vector store client not initialized")
	}
	if len(entries) != len(embeds) {
		return 0, fmt.Errorf("entries and embeddings differ in length: %d vs %d", len(entries), len(embeds))
	}
	if len(entries) == 0 {
		return 0, nil
	}

	documents := make([]vector.Document, len(entries))
	for i, entry := range entries {
		documents[i] = vector.Document{
			ID: KnowledgeVectorIDPrefix + entry.EntryKey,
			Metadata: map[string]interface{}{
				VectorMetadataKeyEntryKey: entry.EntryKey,
				VectorMetadataKeyCategory: entry.Category,
				VectorMetadataKeyVersion:  entry.Version,
			},
			Embedding: embeds[i],
		}
	}

	if err := global.VectorDb.Upsert(ctx, d.CollectionName, documents); err != nil {
		return 0, fmt.Errorf("upsert corpus vectors: %w", err)
	}
	return len(entries), nil
}

// UpsertExamples pushes embedded training examples into the collection. The
// embeddings slice is parallel to examples.
func (d *VectorDb) UpsertExamples(ctx context.Context, examples []db.TrainingExample, embeds [][]float32) (int, error) {
	if global.VectorDb == nil {
		return 0, fmt.Errorf("vector store client not initialized")
	}
	if len(examples) != len(embeds) {
		return 0, fmt.Errorf("examples and embeddings differ in length: %d vs %d", len(examples), len(embeds))
	}
	if len(examples) == 0 {
		return 0, nil
	}

	documents := make([]vector.Document, len(examples))
	for i, example := range examples {
		documents[i] = vector.Document{
			ID: ExampleVectorIDPrefix + example.Uuid,
			Metadata: map[string]interface{}{
				VectorMetadataKeyUuid:     example.Uuid,
				VectorMetadataKeyCategory: example.Category,
				VectorMetadataKeyOutcome:  string(example.Outcome),
			},
			Embedding: embeds[i],
		}
	}

	if err := global.VectorDb.Upsert(ctx, d.CollectionName, documents); err != nil {
		return 0, fmt.Errorf("upsert example vectors: %w", err)
	}
	return len(examples), nil
}

// ExampleHit is one nearest-neighbor match from the training collection.
type ExampleHit struct {
	Uuid       string
	Category   string
	Outcome    string
	Similarity float64
}

// SearchExamples embeds the query and returns the nearest validated
// examples, most similar first.
func (d *VectorDb) SearchExamples(ctx context.Context, query string, topK int) ([]ExampleHit, error) {
	if global.VectorDb == nil {
		return nil, fmt.Errorf("vector store client not initialized")
	}
	if global.EmbeddingService == nil {
		return nil, fmt.Errorf("embedding service not initialized")
	}

	queryEmbeddings, err := global.EmbeddingService.CreateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryEmbeddings) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector for the query")
	}

	hits, err := global.VectorDb.Query(ctx, d.CollectionName, queryEmbeddings[0], topK, nil)
	if err != nil {
		return nil, fmt.Errorf("query example vectors: %w", err)
	}

	results := make([]ExampleHit, 0, len(hits))
	for _, hit := range hits {
		category, _ := hit.Metadata[VectorMetadataKeyCategory].(string)
		outcome, _ := hit.Metadata[VectorMetadataKeyOutcome].(string)
		results = append(results, ExampleHit{
			Uuid:       strings.TrimPrefix(hit.ID, ExampleVectorIDPrefix),
			Category:   category,
			Outcome:    outcome,
			Similarity: 1.0 / (1.0 + float64(hit.Distance)),
		})
	}
	return results, nil
}

// PruneStale removes vectors whose entry is no longer active.
func (d *VectorDb) PruneStale(ctx context.Context, activeKeys []string) (int, error) {
	if global.VectorDb == nil {
		return 0, fmt.Errorf("vector store client not initialized")
	}

	existingIDs, err := global.VectorDb.ListIDs(ctx, d.CollectionName)
	if err != nil {
		return 0, fmt.Errorf("list corpus vector ids: %w", err)
	}
	if len(existingIDs) == 0 {
		return 0, nil
	}

	activeIDSet := make(map[string]struct{}, len(activeKeys))
	for _, key := range activeKeys {
		activeIDSet[KnowledgeVectorIDPrefix+key] = struct{}{}
	}

	var staleIDs []string
	for _, id := range existingIDs {
		if !strings.HasPrefix(id, KnowledgeVectorIDPrefix) {
			continue
		}
		if _, ok := activeIDSet[id]; !ok {
			staleIDs = append(staleIDs, id)
		}
	}

	if len(staleIDs) == 0 {
		return 0, nil
	}
	return global.VectorDb.DeleteByIDs(ctx, d.CollectionName, staleIDs)
}

// Search embeds the query and returns the nearest corpus entries, most
// similar first. An optional category narrows the search server-side.
func (d *VectorDb) Search(ctx context.Context, query string, topK int, category string) ([]SemanticHit, error) {
	if global.VectorDb == nil {
		return nil, fmt.Errorf("vector store client not initialized")
	}
	if global.EmbeddingService == nil {
		return nil, fmt.Errorf("embedding service not initialized")
	}

	start := time.Now()
	queryEmbeddings, err := global.EmbeddingService.CreateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryEmbeddings) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector for the query")
	}

	var where map[string]interface{}
	if category != "" {
		where = map[string]interface{}{VectorMetadataKeyCategory: category}
	}

	hits, err := global.VectorDb.Query(ctx, d.CollectionName, queryEmbeddings[0], topK, where)
	if err != nil {
		return nil, fmt.Errorf("query corpus vectors: %w", err)
	}

	results := make([]SemanticHit, 0, len(hits))
	for _, hit := range hits {
		entryKey, _ := hit.Metadata[VectorMetadataKeyEntryKey].(string)
		if entryKey == "" {
			entryKey = strings.TrimPrefix(hit.ID, KnowledgeVectorIDPrefix)
		}
		if entryKey == "" {
			global.Log.Warnf("corpus vector without entry key: %s", hit.ID)
			continue
		}

		// Distances grow with dissimilarity; map to a (0,1] similarity.
		results = append(results, SemanticHit{
			EntryKey:   entryKey,
			Similarity: 1.0 / (1.0 + float64(hit.Distance)),
		})
	}

	global.Log.Debugf("semantic search returned %d hits in %s", len(results), time.Since(start))
	return results, nil
}
