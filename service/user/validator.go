package user

import (
	"errors"
	"strings"

	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/enum"
)

// ErrIgnoredEvent marks webhook payloads that are valid but not for us:
// outgoing messages, bot echoes, non-message events.
var ErrIgnoredEvent = errors.New("event is not an incoming customer message")

type Validator interface {
	ValidateChatRequest(data *common.ChatRequest) error
}

type validator struct{}

func NewValidator() *validator {
	return &validator{}
}

func (v *validator) ValidateChatRequest(data *common.ChatRequest) error {
	if data.Conversation.AccountID == 0 || data.Conversation.ConversationID == 0 {
		return errors.New("webhook payload misses conversation identifiers")
	}
	if data.MessageType != string(enum.MessageTypeIncoming) {
		return ErrIgnoredEvent
	}
	if data.Sender.Type != "" && data.Sender.Type != string(enum.SenderTypeContact) {
		return ErrIgnoredEvent
	}
	if strings.TrimSpace(data.Content) == "" {
		return ErrIgnoredEvent
	}
	return nil
}
