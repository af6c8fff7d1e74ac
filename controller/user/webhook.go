package user

import (
	"context"
	"errors"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/service"
	"github.com/strataops/strata-triage/service/user"
	"github.com/gin-gonic/gin"
)

type WebhookApi struct{}

// HandleWebhook receives ticket events from Chatwoot. The webhook is
// acknowledged immediately; processing runs in the background so a slow LLM
// never stalls the platform.
func (d *WebhookApi) HandleWebhook(ctx *gin.Context) {
	var req common.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		common.Fail(ctx, "invalid payload")
		return
	}

	if err := service.Service.UserServiceGroup.Validator.ValidateChatRequest(&req); err != nil {
		if errors.Is(err, user.ErrIgnoredEvent) {
			common.Success(ctx, nil)
			return
		}
		common.Fail(ctx, "invalid payload")
		return
	}

	common.Success(ctx, nil)

	reqCopy := req
	go d.processEventAsync(reqCopy)
}

func (d *WebhookApi) processEventAsync(req common.ChatRequest) {
	conversationID := req.Conversation.ConversationID

	defer func() {
		if p := recover(); p != nil {
			global.Log.Errorf("[webhook] panic while processing ticket %d: %v", conversationID, p)
			_ = service.Service.UserServiceGroup.ActionService.Escalate(context.Background(),
				conversationID, enum.EscalationSystemError, "Automated processing crashed; please take over.")
		}
	}()

	timeout := time.Duration(global.Config.Triage.AsyncJobTimeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	group := service.Service.UserServiceGroup

	var err error
	switch req.Event {
	case string(enum.EventConversationCreated):
		err = group.ConversationService.HandleNewTicket(ctx, &req)
	default:
		// message_created on a known ticket advances the conversation;
		// on an unknown one it is the ticket's first message.
		err = group.ConversationService.HandleReply(ctx, &req)
	}
	if err == nil {
		return
	}

	if errors.Is(err, db.ErrConversationClosed) {
		global.Log.Infof("[webhook] ticket %d is terminal, reply ignored", conversationID)
		return
	}

	switch common.KindOf(err) {
	case common.KindTransient:
		global.Log.Warnf("[webhook] transient failure on ticket %d, the platform will redeliver: %v", conversationID, err)
	case common.KindCritical:
		global.Log.Errorf("[webhook] CRITICAL failure on ticket %d, halting its processing: %v", conversationID, err)
		_ = group.ActionService.Escalate(context.Background(), conversationID,
			enum.EscalationSystemError, "Automated processing hit an invariant violation; please take over.")
	default:
		global.Log.Errorf("[webhook] processing ticket %d failed: %v", conversationID, err)
	}
}
