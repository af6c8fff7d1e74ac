package user

import (
	"context"
	"fmt"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/utils"
	"golang.org/x/sync/errgroup"
)

// ActionService performs the ticketing-platform side effects of a handling
// path. Every outward call is retried with bounded backoff; a ticket closed
// externally while a task was in flight skips its reply.
type ActionService interface {
	// SendReply posts a customer-facing message unless the ticket was
	// closed while the task ran.
	SendReply(ctx context.Context, conversationID uint, content string) error
	// PostDraftNote leaves a private note holding a draft for approval.
	PostDraftNote(ctx context.Context, conversationID uint, header, draft string) error
	// Escalate hands the ticket to a human agent with an explanatory note.
	// Escalations never carry an auto-response.
	Escalate(ctx context.Context, conversationID uint, reason enum.EscalationReason, note string) error
	// ResolveTicket marks the platform conversation resolved.
	ResolveTicket(ctx context.Context, conversationID uint) error
	ToggleTyping(conversationID uint, on bool)
	// TicketOpen reports whether the platform still shows the ticket as
	// workable.
	TicketOpen(conversationID uint) (bool, error)
}

type actionService struct{}

func NewActionService() *actionService {
	return &actionService{}
}

func retryPolicy() (int, time.Duration) {
	cfg := global.Config.Triage
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return attempts, backoff
}

func (s *actionService) TicketOpen(conversationID uint) (bool, error) {
	if global.ChatwootService == nil {
		return false, fmt.Errorf("Chatwoot client not initialized")
	}
	details, err := global.ChatwootService.GetTicket(conversationID)
	if err != nil {
		return false, err
	}
	switch enum.ConversationStatus(details.Status) {
	case enum.ConversationStatusResolved:
		return false, nil
	default:
		return true, nil
	}
}

func (s *actionService) SendReply(ctx context.Context, conversationID uint, content string) error {
	if global.ChatwootService == nil {
		return fmt.Errorf("Chatwoot client not initialized")
	}

	// Cancellation check: a ticket closed externally gets no reply, but the
	// task is not an error.
	if open, err := s.TicketOpen(conversationID); err != nil {
		global.Log.Warnf("[action] status check for ticket %d failed, sending anyway: %v", conversationID, err)
	} else if !open {
		global.Log.Infof("[action] ticket %d closed externally, skipping reply", conversationID)
		return nil
	}

	attempts, backoff := retryPolicy()
	return utils.Retry(ctx, attempts, backoff, func() error {
		return global.ChatwootService.PostReply(conversationID, content)
	})
}

func (s *actionService) PostDraftNote(ctx context.Context, conversationID uint, header, draft string) error {
	if global.ChatwootService == nil {
		return fmt.Errorf("Chatwoot client not initialized")
	}

	attempts, backoff := retryPolicy()
	return utils.Retry(ctx, attempts, backoff, func() error {
		return global.ChatwootService.CreatePrivateNote(conversationID, fmt.Sprintf("%s\n\n%s", header, draft))
	})
}

func (s *actionService) Escalate(ctx context.Context, conversationID uint, reason enum.EscalationReason, note string) error {
	if global.ChatwootService == nil {
		return fmt.Errorf("Chatwoot client not initialized")
	}

	attempts, backoff := retryPolicy()

	g, gctx := errgroup.WithContext(ctx)
	if note != "" {
		g.Go(func() error {
			if err := utils.Retry(gctx, attempts, backoff, func() error {
				return global.ChatwootService.CreatePrivateNote(conversationID, note)
			}); err != nil {
				// The handoff matters more than the note.
				global.Log.Warnf("[action] escalation note for ticket %d failed: %v", conversationID, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		return utils.Retry(gctx, attempts, backoff, func() error {
			return global.ChatwootService.UpdateStatus(conversationID, enum.ConversationStatusOpen, "escalated", string(reason))
		})
	})
	return g.Wait()
}

func (s *actionService) ResolveTicket(ctx context.Context, conversationID uint) error {
	if global.ChatwootService == nil {
		return fmt.Errorf("Chatwoot client not initialized")
	}

	attempts, backoff := retryPolicy()
	return utils.Retry(ctx, attempts, backoff, func() error {
		return global.ChatwootService.UpdateStatus(conversationID, enum.ConversationStatusResolved)
	})
}

func (s *actionService) ToggleTyping(conversationID uint, on bool) {
	if global.ChatwootService == nil {
		return
	}
	status := "off"
	if on {
		status = "on"
	}
	if err := global.ChatwootService.ToggleTypingStatus(conversationID, status); err != nil {
		global.Log.Warnf("[action] toggling typing for ticket %d failed: %v", conversationID, err)
	}
}
