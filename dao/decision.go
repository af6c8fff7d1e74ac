package dao

import (
	"errors"
	"fmt"

	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/jmoiron/sqlx"
)

type DecisionDb struct{}

// Insert appends one audit record. Decisions are write-once; an operator
// override appends a fresh record instead of touching the original.
func (d *DecisionDb) Insert(decision *db.RoutingDecision, tx *sqlx.Tx) error {
	if tx == nil {
		return errors.New("decision insert requires a transaction")
	}

	query, args, err := utils.getBatchInsertSql(db.RoutingDecision{}, []map[string]interface{}{{
		"uuid":            decision.Uuid,
		"conversation_id": decision.ConversationID,
		"path":            decision.Path,
		"computed_path":   decision.ComputedPath,
		"retrieval_score": decision.RetrievalScore,
		"phase":           decision.Phase,
		"reason":          decision.Reason,
		"category":        decision.Category,
		"entry_key":       decision.EntryKey,
		"experiment":      decision.Experiment,
	}})
	if err != nil {
		return fmt.Errorf("build decision insert: %w", err)
	}

	query = tx.Rebind(query)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("insert routing decision: %w", err)
	}
	return nil
}

// GetByUuid fetches one decision for override or inspection.
func (d *DecisionDb) GetByUuid(uuid string, tx ...*sqlx.Tx) (*db.RoutingDecision, error) {
	query := fmt.Sprintf("SELECT * FROM `%s` WHERE `uuid` = ? LIMIT 1", db.RoutingDecision{}.TableName())

	var decision db.RoutingDecision
	var err error
	if len(tx) > 0 && tx[0] != nil {
		err = tx[0].Get(&decision, query, uuid)
	} else {
		err = DB.Get(&decision, query, uuid)
	}
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// LatestForConversation returns the newest decision of a ticket.
func (d *DecisionDb) LatestForConversation(conversationID uint) (*db.RoutingDecision, error) {
	query := fmt.Sprintf("SELECT * FROM `%s` WHERE `conversation_id` = ? ORDER BY `id` DESC LIMIT 1",
		db.RoutingDecision{}.TableName())

	var decision db.RoutingDecision
	if err := DB.Get(&decision, query, conversationID); err != nil {
		return nil, err
	}
	return &decision, nil
}

// Override appends a new record carrying the operator's path; the original
// row stays untouched. ComputedPath keeps the cascade's choice so operator
// drift stays measurable, and LatestForConversation picks the override up as
// the effective decision.
func (d *DecisionDb) Override(originalUuid, overrideUuid string, path enum.RoutePath, tx *sqlx.Tx) (*db.RoutingDecision, error) {
	if tx == nil {
		return nil, errors.New("decision override requires a transaction")
	}

	original, err := d.GetByUuid(originalUuid, tx)
	if err != nil {
		return nil, err
	}

	override := &db.RoutingDecision{
		Uuid:           overrideUuid,
		ConversationID: original.ConversationID,
		Path:           path,
		ComputedPath:   original.ComputedPath,
		RetrievalScore: original.RetrievalScore,
		Phase:          original.Phase,
		Reason:         enum.ReasonOperatorOverride,
		Category:       original.Category,
		EntryKey:       original.EntryKey,
		Experiment:     original.Experiment,
	}
	if err := d.Insert(override, tx); err != nil {
		return nil, err
	}
	return override, nil
}

// OverrideStats counts decisions and operator overrides per path since a
// unix timestamp.
func (d *DecisionDb) OverrideStats(since int64) (map[enum.RoutePath][2]int64, error) {
	query := fmt.Sprintf(
		"SELECT `computed_path`, COUNT(*) AS `total`, SUM(CASE WHEN `path` != `computed_path` THEN 1 ELSE 0 END) AS `overridden` "+
			"FROM `%s` WHERE `created_at` >= ? GROUP BY `computed_path`",
		db.RoutingDecision{}.TableName())

	rows := []struct {
		ComputedPath enum.RoutePath `db:"computed_path"`
		Total        int64          `db:"total"`
		Overridden   int64          `db:"overridden"`
	}{}
	if err := DB.Select(&rows, query, since); err != nil {
		return nil, err
	}

	stats := make(map[enum.RoutePath][2]int64, len(rows))
	for _, r := range rows {
		stats[r.ComputedPath] = [2]int64{r.Total, r.Overridden}
	}
	return stats, nil
}
