package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/db"
)

// archiveBatchLimit bounds one archival run; leftovers wait for the next.
const archiveBatchLimit = 50

type transcript struct {
	Conversation db.Conversation `json:"conversation"`
	Turns        []db.Turn       `json:"turns"`
	ArchivedAt   int64           `json:"archived_at"`
}

// ArchiveConversations uploads the full transcript of every terminal
// conversation to object storage and stamps the row. Retention of the hot
// rows after archival is a manual operations call.
func (m *Manager) ArchiveConversations() error {
	if global.OssService == nil {
		return nil
	}

	convs, err := m.conversationDb.GetUnarchivedTerminal(archiveBatchLimit)
	if err != nil {
		return fmt.Errorf("listing unarchived conversations failed: %w", err)
	}
	if len(convs) == 0 {
		return nil
	}

	archived := 0
	for _, conv := range convs {
		turns, err := m.conversationDb.GetTurns(conv.ConversationID)
		if err != nil {
			global.Log.Errorf("[archive] loading turns of conversation %d failed: %v", conv.ConversationID, err)
			continue
		}

		now := time.Now().Unix()
		payload, err := json.Marshal(transcript{
			Conversation: conv,
			Turns:        turns,
			ArchivedAt:   now,
		})
		if err != nil {
			global.Log.Errorf("[archive] encoding transcript of conversation %d failed: %v", conv.ConversationID, err)
			continue
		}

		objectKey, err := global.OssService.UploadTranscript(conv.ConversationID, payload)
		if err != nil {
			global.Log.Errorf("[archive] uploading transcript of conversation %d failed: %v", conv.ConversationID, err)
			continue
		}

		if err := m.conversationDb.MarkArchived(conv.Id, now); err != nil {
			global.Log.Errorf("[archive] stamping conversation %d failed: %v", conv.ConversationID, err)
			continue
		}

		global.Log.Infof("[archive] conversation %d archived to %s", conv.ConversationID, objectKey)
		archived++
	}

	global.Log.Infof("[archive] run done, archived %d of %d", archived, len(convs))
	return nil
}
