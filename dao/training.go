package dao

import (
	"errors"
	"fmt"

	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/jmoiron/sqlx"
)

type TrainingDb struct{}

// Insert records one example. Examples are append-only; only the outcome
// label may change later, via UpdateOutcome.
func (d *TrainingDb) Insert(example *db.TrainingExample, tx *sqlx.Tx) error {
	if tx == nil {
		return errors.New("training insert requires a transaction")
	}

	if example.Outcome == "" {
		example.Outcome = enum.OutcomeUnknown
	}

	query, args, err := utils.getBatchInsertSql(db.TrainingExample{}, []map[string]interface{}{{
		"uuid":            example.Uuid,
		"conversation_id": example.ConversationID,
		"category":        example.Category,
		"path":            example.Path,
		"ticket_text":     example.TicketText,
		"outcome":         example.Outcome,
		"embedded_at":     0,
	}})
	if err != nil {
		return fmt.Errorf("build training insert: %w", err)
	}

	query = tx.Rebind(query)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("insert training example: %w", err)
	}
	return nil
}

// UpdateOutcome applies the late outcome label once customer feedback
// arrives. Examples of the conversation still labelled unknown get the label;
// already-labelled ones are left alone.
func (d *TrainingDb) UpdateOutcome(conversationID uint, outcome enum.OutcomeLabel, tx *sqlx.Tx) (int64, error) {
	if tx == nil {
		return 0, errors.New("outcome update requires a transaction")
	}

	query := fmt.Sprintf("UPDATE `%s` SET `outcome` = ? WHERE `conversation_id` = ? AND `outcome` = ?",
		db.TrainingExample{}.TableName())
	query = tx.Rebind(query)

	res, err := tx.Exec(query, outcome, conversationID, enum.OutcomeUnknown)
	if err != nil {
		return 0, fmt.Errorf("update training outcome: %w", err)
	}
	return res.RowsAffected()
}

// CountValidatedByCategory tallies examples with a known outcome per
// category. Phase progression reads these counts.
func (d *TrainingDb) CountValidatedByCategory() (map[string]int64, error) {
	query := fmt.Sprintf(
		"SELECT `category`, COUNT(*) AS `n` FROM `%s` WHERE `outcome` != ? GROUP BY `category`",
		db.TrainingExample{}.TableName())

	rows := []struct {
		Category string `db:"category"`
		N        int64  `db:"n"`
	}{}
	if err := DB.Select(&rows, query, enum.OutcomeUnknown); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.N
	}
	return counts, nil
}

// TrailingAutoRespondRate computes the satisfied fraction over the most
// recent validated auto-responded examples of a category. Only tickets the
// system answered on its own say anything about the auto-respond threshold;
// refined or human-approved outcomes would dilute the signal.
func (d *TrainingDb) TrailingAutoRespondRate(category string, window int) (float64, int64, error) {
	query := fmt.Sprintf(
		"SELECT `outcome` FROM `%s` WHERE `category` = ? AND `path` = ? AND `outcome` != ? ORDER BY `id` DESC LIMIT ?",
		db.TrainingExample{}.TableName())

	var outcomes []enum.OutcomeLabel
	if err := DB.Select(&outcomes, query, category, enum.PathAutoRespond, enum.OutcomeUnknown, window); err != nil {
		return 0, 0, err
	}
	if len(outcomes) == 0 {
		return 0, 0, nil
	}

	var satisfied int64
	for _, o := range outcomes {
		if o == enum.OutcomeSatisfied {
			satisfied++
		}
	}
	return float64(satisfied) / float64(len(outcomes)), int64(len(outcomes)), nil
}

// GetUnembedded returns validated examples whose ticket text has not been
// pushed to the training collection yet.
func (d *TrainingDb) GetUnembedded(limit int) ([]db.TrainingExample, error) {
	query := fmt.Sprintf(
		"SELECT * FROM `%s` WHERE `embedded_at` = 0 AND `ticket_text` != '' AND `outcome` != ? ORDER BY `id` LIMIT ?",
		db.TrainingExample{}.TableName())

	var examples []db.TrainingExample
	if err := DB.Select(&examples, query, enum.OutcomeUnknown, limit); err != nil {
		return nil, err
	}
	return examples, nil
}

// MarkEmbedded stamps examples after a successful vector upsert.
func (d *TrainingDb) MarkEmbedded(ids []uint, at int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf("UPDATE `%s` SET `embedded_at` = ? WHERE `id` IN (?)", db.TrainingExample{}.TableName()),
		at, ids)
	if err != nil {
		return err
	}

	query = DB.Rebind(query)
	_, err = DB.Exec(query, args...)
	return err
}
