package user

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/internal/llm"
	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/utils"
)

type TriageService interface {
	// Classify extracts category, urgency and complexity from a fresh
	// ticket. The platform priority, when set, can only raise severity.
	Classify(ctx context.Context, content string, platformPriority string) common.TriageResult
}

type triageService struct {
	exampleVectors *dao.VectorDb
}

func NewTriageService() *triageService {
	return &triageService{
		exampleVectors: &dao.VectorDb{CollectionName: global.Config.VectorDb.TrainingCollection},
	}
}

// exampleSimilarityFloor is the least similarity at which a past ticket's
// category counts as a vote for a fresh one.
const exampleSimilarityFloor = 0.5

func (s *triageService) Classify(ctx context.Context, content string, platformPriority string) common.TriageResult {
	result, err := s.classifyLlm(ctx, content)
	if err != nil {
		// Example lookup, then keywords, keep triage alive when the model is
		// down.
		global.Log.Warnf("[triage] LLM classification failed, using fallbacks: %v", err)
		result = s.classifyFallback(ctx, content)
	}

	result.Severity = mapSeverity(result.Urgency, platformPriority)
	if result.Complexity < 1 {
		result.Complexity = 1
	}
	if result.Complexity > 5 {
		result.Complexity = 5
	}
	return result
}

func (s *triageService) classifyLlm(ctx context.Context, content string) (common.TriageResult, error) {
	var result common.TriageResult

	if global.LlmService == nil {
		return result, common.Systematic("LLM service not initialized")
	}

	answer, err := global.LlmService.GetCompletion(ctx, llm.ModelSmall, enum.SystemPromptTriage, content, 0.1)
	if err != nil {
		return result, err
	}

	// Models sometimes wrap the JSON in a code fence.
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &result); err != nil {
		return result, common.Systematic("triage answer is not valid JSON: %v", err)
	}
	if result.Category == "" {
		return result, common.Systematic("triage answer carries no category")
	}
	return result, nil
}

// classifyFallback classifies without the model: the few-shot collection
// votes first, the keyword table answers when the vector side is down too.
func (s *triageService) classifyFallback(ctx context.Context, content string) common.TriageResult {
	if category, ok := s.categoryFromExamples(ctx, content); ok {
		return common.TriageResult{
			Category:   category,
			Urgency:    "medium",
			Complexity: 3,
		}
	}
	return s.classifyKeywords(content)
}

// categoryFromExamples takes the category of the most similar past ticket
// that ended satisfied.
func (s *triageService) categoryFromExamples(ctx context.Context, content string) (string, bool) {
	hits, err := s.exampleVectors.SearchExamples(ctx, content, 3)
	if err != nil {
		global.Log.Debugf("[triage] example lookup unavailable: %v", err)
		return "", false
	}
	for _, hit := range hits {
		if hit.Outcome == string(enum.OutcomeSatisfied) && hit.Category != "" && hit.Similarity >= exampleSimilarityFloor {
			return hit.Category, true
		}
	}
	return "", false
}

// classifyKeywords matches the configured category cue words against the
// ticket text. Categories are checked in sorted order so a ticket hitting
// cues of several categories classifies the same way on every delivery;
// nothing matching lands in "general".
func (s *triageService) classifyKeywords(content string) common.TriageResult {
	lowered := strings.ToLower(content)
	cfg := global.Config.Triage

	result := common.TriageResult{
		Category:   "general",
		Urgency:    "medium",
		Complexity: 3,
	}

	categories := make([]string, 0, len(cfg.CategoryKeywords))
	for category := range cfg.CategoryKeywords {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		if utils.ContainsAny(lowered, lowerAll(cfg.CategoryKeywords[category])) {
			result.Category = category
			break
		}
	}
	return result
}

// mapSeverity folds triage urgency and platform priority; the stricter of
// the two wins.
func mapSeverity(urgency, platformPriority string) enum.Severity {
	severity := urgencyToSeverity(urgency)
	platform := urgencyToSeverity(platformPriority)
	if rankSeverity(platform) > rankSeverity(severity) {
		return platform
	}
	return severity
}

func urgencyToSeverity(s string) enum.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "urgent":
		return enum.SeverityCritical
	case "high":
		return enum.SeverityHigh
	case "low":
		return enum.SeverityLow
	default:
		return enum.SeverityMedium
	}
}

func rankSeverity(s enum.Severity) int {
	switch s {
	case enum.SeverityCritical:
		return 3
	case enum.SeverityHigh:
		return 2
	case enum.SeverityMedium:
		return 1
	default:
		return 0
	}
}
