package user

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/internal/llm"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
)

type DraftService interface {
	// GenerateDraft writes a reply grounded on the matched entry.
	GenerateDraft(ctx context.Context, ticketText string, entry *db.KnowledgeEntry) (string, error)
	// Refine runs the generate, critique, improve loop over a draft. The
	// loop stops early once the critique passes.
	Refine(ctx context.Context, ticketText string, entry *db.KnowledgeEntry, draft string) (string, error)
	// Research queries the external research providers for a ticket no
	// corpus entry covers, falling back to the large model when no provider
	// answers. The result always goes to a human, never to the customer.
	Research(ctx context.Context, ticketText string) (string, error)
}

type draftService struct{}

func NewDraftService() *draftService {
	return &draftService{}
}

func draftPrompt(ticketText string, entry *db.KnowledgeEntry) string {
	var b strings.Builder
	b.WriteString("Ticket:\n")
	b.WriteString(ticketText)
	if entry != nil {
		b.WriteString("\n\nReference article \"")
		b.WriteString(entry.Title)
		b.WriteString("\":\n")
		b.WriteString(entry.Body)
	}
	return b.String()
}

func (s *draftService) GenerateDraft(ctx context.Context, ticketText string, entry *db.KnowledgeEntry) (string, error) {
	if global.LlmService == nil {
		return "", fmt.Errorf("LLM service not initialized")
	}
	return global.LlmService.GetCompletion(ctx, llm.ModelMedium, enum.SystemPromptDraft, draftPrompt(ticketText, entry))
}

func (s *draftService) Refine(ctx context.Context, ticketText string, entry *db.KnowledgeEntry, draft string) (string, error) {
	if global.LlmService == nil {
		return "", fmt.Errorf("LLM service not initialized")
	}

	iterations := global.Config.Triage.RefineIterations
	if iterations <= 0 {
		iterations = 1
	}

	current := draft
	for i := 0; i < iterations; i++ {
		critique, err := global.LlmService.GetCompletion(ctx, llm.ModelMedium, enum.SystemPromptCritique,
			fmt.Sprintf("%s\n\nDraft reply:\n%s", draftPrompt(ticketText, entry), current))
		if err != nil {
			// A failed critique leaves the last good draft standing.
			global.Log.Warnf("[draft] critique pass %d failed: %v", i+1, err)
			return current, nil
		}

		if strings.EqualFold(strings.TrimSpace(critique), "OK") {
			return current, nil
		}

		improved, err := global.LlmService.GetCompletion(ctx, llm.ModelMedium, enum.SystemPromptImprove,
			fmt.Sprintf("%s\n\nDraft reply:\n%s\n\nReview notes:\n%s", draftPrompt(ticketText, entry), current, critique))
		if err != nil {
			global.Log.Warnf("[draft] improve pass %d failed: %v", i+1, err)
			return current, nil
		}
		current = improved
	}
	return current, nil
}

func (s *draftService) Research(ctx context.Context, ticketText string) (string, error) {
	if answer, err := s.researchViaMcp(ctx, ticketText); err == nil && answer != "" {
		return answer, nil
	} else if err != nil {
		global.Log.Warnf("[draft] research providers unavailable, falling back to the model: %v", err)
	}

	if global.LlmService == nil {
		return "", fmt.Errorf("LLM service not initialized")
	}
	return global.LlmService.GetCompletion(ctx, llm.ModelLarge, enum.SystemPromptResearch, ticketText)
}

func (s *draftService) researchViaMcp(ctx context.Context, ticketText string) (string, error) {
	if global.McpService == nil {
		return "", fmt.Errorf("no MCP service configured")
	}

	arguments, err := json.Marshal(map[string]string{"query": ticketText})
	if err != nil {
		return "", err
	}

	var lastErr error
	for name, cfg := range global.Config.McpServers {
		if cfg.ResearchTool == "" {
			continue
		}
		answer, err := global.McpService.ExecuteTool(ctx, name, cfg.ResearchTool, arguments)
		if err != nil {
			lastErr = err
			global.Log.Warnf("[draft] research tool '%s' on '%s' failed: %v", cfg.ResearchTool, name, err)
			continue
		}
		if strings.TrimSpace(answer) != "" {
			return answer, nil
		}
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("no research tool configured")
}
