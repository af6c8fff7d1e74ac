package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/utils"
)

// RetrievalMode reports which search legs contributed to a result set.
type RetrievalMode string

const (
	RetrievalHybrid       RetrievalMode = "hybrid"
	RetrievalSemanticOnly RetrievalMode = "semantic_only"
	RetrievalLexicalOnly  RetrievalMode = "lexical_only"
)

// RetrievalResult is the fused candidate list plus the mode it was produced
// under, so callers can log degraded searches.
type RetrievalResult struct {
	Candidates []common.ScoredEntry
	Mode       RetrievalMode
}

type RetrievalService interface {
	// HybridSearch runs the semantic and lexical legs, fuses them with
	// reciprocal rank fusion and returns the top candidates. When one leg
	// fails the other still answers, in a degraded mode.
	HybridSearch(ctx context.Context, query string, filters common.RetrievalFilters) (*RetrievalResult, error)
}

type retrievalService struct {
	vectorDb    *dao.VectorDb
	knowledgeDb *dao.KnowledgeDb
}

func NewRetrievalService() *retrievalService {
	return &retrievalService{
		vectorDb:    &dao.VectorDb{CollectionName: global.Config.VectorDb.KnowledgeCollection},
		knowledgeDb: &dao.KnowledgeDb{},
	}
}

func (s *retrievalService) HybridSearch(ctx context.Context, query string, filters common.RetrievalFilters) (*RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty retrieval query")
	}

	cfg := global.Config.Triage

	// The lexical leg and the final join both need the active corpus rows.
	// Status and category narrow in SQL; the statistical filters wait until
	// after fusion so both legs rank over the same candidate pool.
	entries, err := s.knowledgeDb.GetActiveEntries(common.RetrievalFilters{Category: filters.Category})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load active corpus: %w", err)
	}
	byKey := make(map[string]db.KnowledgeEntry, len(entries))
	for _, e := range entries {
		byKey[e.EntryKey] = e
	}

	semanticKeys, semErr := s.semanticLeg(ctx, query, cfg.CandidateWindow, filters.Category)
	lexicalKeys := lexicalRank(query, entries, cfg.CandidateWindow)

	mode := RetrievalHybrid
	if semErr != nil {
		// Vector store down: answer from the lexical leg alone rather than
		// failing the ticket.
		global.Log.Warnf("[retrieval] semantic leg failed, degrading to lexical only: %v", semErr)
		mode = RetrievalLexicalOnly
		semanticKeys = nil
	} else if len(entries) == 0 {
		mode = RetrievalSemanticOnly
	}
	if semErr != nil && len(entries) == 0 {
		return nil, fmt.Errorf("both retrieval legs unavailable: %w", semErr)
	}

	fused := fuseRRF(semanticKeys, lexicalKeys, cfg.RrfK)

	candidates := make([]common.ScoredEntry, 0, len(fused))
	for _, f := range fused {
		entry, ok := byKey[f.key]
		if !ok {
			// The vector store can briefly hold entries the SQL corpus has
			// already retired. They never reach callers.
			if mode != RetrievalLexicalOnly {
				global.Log.Debugf("[retrieval] dropping stale vector hit: %s", f.key)
			}
			continue
		}
		if !passesFilters(&entry, filters) {
			continue
		}
		candidates = append(candidates, common.ScoredEntry{
			Entry:        entry,
			Score:        f.score,
			SemanticRank: f.semanticRank,
			LexicalRank:  f.lexicalRank,
		})
	}

	sortCandidates(candidates)
	if len(candidates) > cfg.RetrieveLimit {
		candidates = candidates[:cfg.RetrieveLimit]
	}

	return &RetrievalResult{Candidates: candidates, Mode: mode}, nil
}

func (s *retrievalService) semanticLeg(ctx context.Context, query string, topK int, category string) ([]string, error) {
	hits, err := s.vectorDb.Search(ctx, query, topK, category)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(hits))
	for i, h := range hits {
		keys[i] = h.EntryKey
	}
	return keys, nil
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// lexicalScore is the fraction of distinct query tokens present in the
// entry's title and body.
func lexicalScore(queryTokens map[string]struct{}, entry *db.KnowledgeEntry) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	entryTokens := make(map[string]struct{})
	for _, t := range tokenize(entry.Title + " " + entry.Body) {
		entryTokens[t] = struct{}{}
	}
	matched := 0
	for t := range queryTokens {
		if _, ok := entryTokens[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

// lexicalRank scores the corpus against the query and returns the top entry
// keys, best first. Zero-score entries never rank.
func lexicalRank(query string, entries []db.KnowledgeEntry, topK int) []string {
	queryTokens := make(map[string]struct{})
	for _, t := range tokenize(query) {
		queryTokens[t] = struct{}{}
	}

	type scored struct {
		key   string
		score float64
	}
	ranked := make([]scored, 0, len(entries))
	for i := range entries {
		sc := lexicalScore(queryTokens, &entries[i])
		if sc > 0 {
			ranked = append(ranked, scored{key: entries[i].EntryKey, score: sc})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].key < ranked[j].key
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	keys := make([]string, len(ranked))
	for i, r := range ranked {
		keys[i] = r.key
	}
	return keys
}

// NormalizeScore maps a raw fused score onto [0,1] for the routing bands.
// The ceiling is an entry ranked first on both legs, 2/(k+1); an entry
// ranked first on a single leg lands at 0.5.
func NormalizeScore(fused float64, k int) float64 {
	if k <= 0 {
		k = 60
	}
	normalized := fused * float64(k+1) / 2.0
	return utils.Clamp(normalized, 0.0, 1.0)
}

type fusedEntry struct {
	key          string
	score        float64
	semanticRank int
	lexicalRank  int
}

// fuseRRF merges the two ranked lists with reciprocal rank fusion: each list
// contributes 1/(k+rank) for every entry it holds, ranks starting at 1. An
// entry on both lists therefore always outscores the same entry on one list.
func fuseRRF(semanticKeys, lexicalKeys []string, k int) []fusedEntry {
	if k <= 0 {
		k = 60
	}

	fused := make(map[string]*fusedEntry)
	for i, key := range semanticKeys {
		rank := i + 1
		f, ok := fused[key]
		if !ok {
			f = &fusedEntry{key: key}
			fused[key] = f
		}
		f.semanticRank = rank
		f.score += 1.0 / float64(k+rank)
	}
	for i, key := range lexicalKeys {
		rank := i + 1
		f, ok := fused[key]
		if !ok {
			f = &fusedEntry{key: key}
			fused[key] = f
		}
		f.lexicalRank = rank
		f.score += 1.0 / float64(k+rank)
	}

	out := make([]fusedEntry, 0, len(fused))
	for _, f := range fused {
		out = append(out, *f)
	}
	return out
}

func passesFilters(entry *db.KnowledgeEntry, filters common.RetrievalFilters) bool {
	if filters.MinSuccessRate > 0 && entry.SuccessRate < filters.MinSuccessRate {
		return false
	}
	if filters.UpdatedSince > 0 && entry.UpdatedAt < filters.UpdatedSince {
		return false
	}
	if filters.UpdatedUntil > 0 && entry.UpdatedAt > filters.UpdatedUntil {
		return false
	}
	return true
}

// sortCandidates orders by fused score; ties prefer the higher success rate,
// then the less-used entry, then the entry key so results are deterministic.
func sortCandidates(candidates []common.ScoredEntry) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Entry.SuccessRate != b.Entry.SuccessRate {
			return a.Entry.SuccessRate > b.Entry.SuccessRate
		}
		if a.Entry.UsageCount != b.Entry.UsageCount {
			return a.Entry.UsageCount < b.Entry.UsageCount
		}
		return a.Entry.EntryKey < b.Entry.EntryKey
	})
}
