package dao

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/jmoiron/sqlx"
)

type ConversationDb struct{}

// GetByTicket fetches the conversation row of a ticket, or sql.ErrNoRows.
func (d *ConversationDb) GetByTicket(conversationID uint, tx ...*sqlx.Tx) (*db.Conversation, error) {
	query := fmt.Sprintf("SELECT * FROM `%s` WHERE `conversation_id` = ? LIMIT 1", db.Conversation{}.TableName())

	var conv db.Conversation
	var err error
	if len(tx) > 0 && tx[0] != nil {
		err = tx[0].Get(&conv, query, conversationID)
	} else {
		err = DB.Get(&conv, query, conversationID)
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Create opens the conversation row for a ticket.
func (d *ConversationDb) Create(conv *db.Conversation, tx *sqlx.Tx) error {
	if tx == nil {
		return errors.New("conversation create requires a transaction")
	}

	if conv.State == "" {
		conv.State = enum.ConversationOpen
	}

	query, args, err := utils.getBatchInsertSql(db.Conversation{}, []map[string]interface{}{{
		"conversation_id":   conv.ConversationID,
		"account_id":        conv.AccountID,
		"category":          conv.Category,
		"state":             conv.State,
		"escalation_reason": conv.EscalationReason,
		"confidence":        conv.Confidence,
		"failed_turns":      conv.FailedTurns,
		"entry_key":         conv.EntryKey,
		"archived_at":       conv.ArchivedAt,
	}})
	if err != nil {
		return fmt.Errorf("build conversation insert: %w", err)
	}

	query = tx.Rebind(query)
	res, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		conv.Id = uint(id)
	}
	return nil
}

// Update writes the mutable conversation fields.
func (d *ConversationDb) Update(conv *db.Conversation, tx *sqlx.Tx) error {
	if tx == nil {
		return errors.New("conversation update requires a transaction")
	}

	query, args := utils.getUpdateSql(db.Conversation{}, conv.Id, map[string]interface{}{
		"category":          conv.Category,
		"state":             conv.State,
		"escalation_reason": conv.EscalationReason,
		"confidence":        conv.Confidence,
		"failed_turns":      conv.FailedTurns,
		"entry_key":         conv.EntryKey,
		"archived_at":       conv.ArchivedAt,
	})
	query = tx.Rebind(query)
	_, err := tx.Exec(query, args...)
	return err
}

// GetTurns returns a conversation's turns in turn order.
func (d *ConversationDb) GetTurns(conversationID uint, tx ...*sqlx.Tx) ([]db.Turn, error) {
	query := fmt.Sprintf("SELECT * FROM `%s` WHERE `conversation_id` = ? ORDER BY `turn_number`", db.Turn{}.TableName())

	var turns []db.Turn
	var err error
	if len(tx) > 0 && tx[0] != nil {
		err = tx[0].Select(&turns, query, conversationID)
	} else {
		err = DB.Select(&turns, query, conversationID)
	}
	if err != nil {
		return nil, err
	}
	return turns, nil
}

// AppendTurn assigns the next gapless turn number and inserts the turn, all
// inside the caller's transaction. A terminal conversation rejects the
// append with db.ErrConversationClosed. A corrupt sequence is a critical
// error and processing of the ticket must halt.
func (d *ConversationDb) AppendTurn(conv *db.Conversation, turn *db.Turn, tx *sqlx.Tx) error {
	if tx == nil {
		return errors.New("turn append requires a transaction")
	}

	if err := conv.CanAppend(); err != nil {
		return err
	}

	turns, err := d.GetTurns(conv.ConversationID, tx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err := db.CheckTurnSequence(turns); err != nil {
		return common.Critical("conversation %d: %v", conv.ConversationID, err)
	}

	turn.ConversationID = conv.ConversationID
	turn.TurnNumber = db.NextTurnNumber(turns)

	query, args, err := utils.getBatchInsertSql(db.Turn{}, []map[string]interface{}{{
		"conversation_id":       turn.ConversationID,
		"turn_number":           turn.TurnNumber,
		"customer_text":         turn.CustomerText,
		"system_response":       turn.SystemResponse,
		"sentiment":             turn.Sentiment,
		"confidence":            turn.Confidence,
		"entry_key":             turn.EntryKey,
		"prev_entry_key":        turn.PrevEntryKey,
		"prev_entry_score":      turn.PrevEntryScore,
		"entry_score":           turn.EntryScore,
		"escalated":             turn.Escalated,
		"resolution_successful": turn.ResolutionSuccessful,
	}})
	if err != nil {
		return fmt.Errorf("build turn insert: %w", err)
	}

	query = tx.Rebind(query)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("insert turn %d of conversation %d: %w", turn.TurnNumber, conv.ConversationID, err)
	}
	return nil
}

// GetUnarchivedTerminal lists terminal conversations not yet archived to
// object storage.
func (d *ConversationDb) GetUnarchivedTerminal(limit int) ([]db.Conversation, error) {
	query := fmt.Sprintf(
		"SELECT * FROM `%s` WHERE `state` != ? AND `archived_at` = 0 ORDER BY `updated_at` LIMIT ?",
		db.Conversation{}.TableName())

	var convs []db.Conversation
	if err := DB.Select(&convs, query, enum.ConversationOpen, limit); err != nil {
		return nil, err
	}
	return convs, nil
}

// MarkArchived stamps a conversation after its transcript upload.
func (d *ConversationDb) MarkArchived(id uint, at int64) error {
	query := fmt.Sprintf("UPDATE `%s` SET `archived_at` = ? WHERE `id` = ?", db.Conversation{}.TableName())
	_, err := DB.Exec(DB.Rebind(query), at, id)
	return err
}
