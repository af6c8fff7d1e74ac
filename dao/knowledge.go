package dao

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/jmoiron/sqlx"
)

type KnowledgeDb struct{}

// GetByKey fetches one entry regardless of status.
func (d *KnowledgeDb) GetByKey(entryKey string, tx ...*sqlx.Tx) (*db.KnowledgeEntry, error) {
	query := fmt.Sprintf("SELECT * FROM `%s` WHERE `entry_key` = ? LIMIT 1", db.KnowledgeEntry{}.TableName())

	var entry db.KnowledgeEntry
	var err error
	if len(tx) > 0 && tx[0] != nil {
		err = tx[0].Get(&entry, query, entryKey)
	} else {
		err = DB.Get(&entry, query, entryKey)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetActiveEntries loads the active corpus, narrowed by the optional filters.
// The lexical search leg scans the result in process.
func (d *KnowledgeDb) GetActiveEntries(filters common.RetrievalFilters) ([]db.KnowledgeEntry, error) {
	var (
		conds = []string{"`status` = ?"}
		args  = []interface{}{enum.EntryActive}
	)

	if filters.Category != "" {
		conds = append(conds, "`category` = ?")
		args = append(args, filters.Category)
	}
	if filters.MinSuccessRate > 0 {
		conds = append(conds, "`success_rate` >= ?")
		args = append(args, filters.MinSuccessRate)
	}
	if filters.UpdatedSince > 0 {
		conds = append(conds, "`updated_at` >= ?")
		args = append(args, filters.UpdatedSince)
	}
	if filters.UpdatedUntil > 0 {
		conds = append(conds, "`updated_at` <= ?")
		args = append(args, filters.UpdatedUntil)
	}

	query := fmt.Sprintf("SELECT * FROM `%s` WHERE %s ORDER BY `id`",
		db.KnowledgeEntry{}.TableName(), strings.Join(conds, " AND "))

	var entries []db.KnowledgeEntry
	if err := DB.Select(&entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// Upsert inserts a new entry or revises an existing one by entry_key. A
// revision bumps the version and resets embedded_at so the maintenance job
// re-embeds the body. Statistics survive revisions.
func (d *KnowledgeDb) Upsert(entry *db.KnowledgeEntry, tx *sqlx.Tx) error {
	if tx == nil {
		return errors.New("knowledge upsert requires a transaction")
	}

	existing, err := d.GetByKey(entry.EntryKey, tx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if existing != nil {
		query, args := utils.getUpdateSql(db.KnowledgeEntry{}, existing.Id, map[string]interface{}{
			"title":       entry.Title,
			"body":        entry.Body,
			"category":    entry.Category,
			"subcategory": entry.Subcategory,
			"status":      entry.Status,
			"version":     existing.Version + 1,
			"embedded_at": 0,
		})
		query = tx.Rebind(query)
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("revise knowledge entry: %w", err)
		}
		entry.Id = existing.Id
		entry.Version = existing.Version + 1
		return nil
	}

	if entry.Status == "" {
		entry.Status = enum.EntryDraft
	}
	entry.Version = 1

	query, args, err := utils.getBatchInsertSql(db.KnowledgeEntry{}, []map[string]interface{}{{
		"entry_key":    entry.EntryKey,
		"title":        entry.Title,
		"body":         entry.Body,
		"category":     entry.Category,
		"subcategory":  entry.Subcategory,
		"status":       entry.Status,
		"success_rate": entry.SuccessRate,
		"usage_count":  0,
		"version":      1,
		"embedded_at":  0,
	}})
	if err != nil {
		return fmt.Errorf("build knowledge insert: %w", err)
	}

	query = tx.Rebind(query)
	res, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("insert knowledge entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.Id = uint(id)
	}
	return nil
}

// SetStatus transitions an entry. Entries are never deleted; retiring sets
// status to inactive and retrieval stops seeing the entry.
func (d *KnowledgeDb) SetStatus(entryKey string, status enum.EntryStatus, tx *sqlx.Tx) error {
	if tx == nil {
		return errors.New("knowledge status change requires a transaction")
	}

	existing, err := d.GetByKey(entryKey, tx)
	if err != nil {
		return err
	}

	query, args := utils.getUpdateSql(db.KnowledgeEntry{}, existing.Id, map[string]interface{}{
		"status": status,
	})
	query = tx.Rebind(query)
	_, err = tx.Exec(query, args...)
	return err
}

// RecordUsage bumps the usage counter and, once the outcome is known, folds
// it into the success-rate moving average.
func (d *KnowledgeDb) RecordUsage(entryKey string, outcome enum.OutcomeLabel, tx *sqlx.Tx) error {
	if tx == nil {
		return errors.New("usage recording requires a transaction")
	}

	existing, err := d.GetByKey(entryKey, tx)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"usage_count": existing.UsageCount + 1,
	}
	if outcome == enum.OutcomeSatisfied || outcome == enum.OutcomeUnsatisfied {
		fields["success_rate"] = db.NextSuccessRate(existing.SuccessRate, outcome == enum.OutcomeSatisfied)
	}

	query, args := utils.getUpdateSql(db.KnowledgeEntry{}, existing.Id, fields)
	query = tx.Rebind(query)
	_, err = tx.Exec(query, args...)
	return err
}

// GetStaleEmbeddings returns active entries whose body changed since the
// last embedding run.
func (d *KnowledgeDb) GetStaleEmbeddings(limit int) ([]db.KnowledgeEntry, error) {
	query := fmt.Sprintf(
		"SELECT * FROM `%s` WHERE `status` = ? AND (`embedded_at` = 0 OR `embedded_at` < `updated_at`) ORDER BY `updated_at` LIMIT ?",
		db.KnowledgeEntry{}.TableName())

	var entries []db.KnowledgeEntry
	if err := DB.Select(&entries, query, enum.EntryActive, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetChronicallyFailing returns active entries whose success rate sits under
// the floor despite enough usage to trust the number.
func (d *KnowledgeDb) GetChronicallyFailing(maxSuccessRate float64, minUsage int) ([]db.KnowledgeEntry, error) {
	query := fmt.Sprintf(
		"SELECT * FROM `%s` WHERE `status` = ? AND `usage_count` >= ? AND `success_rate` < ?",
		db.KnowledgeEntry{}.TableName())

	var entries []db.KnowledgeEntry
	if err := DB.Select(&entries, query, enum.EntryActive, minUsage, maxSuccessRate); err != nil {
		return nil, err
	}
	return entries, nil
}

// MarkEmbedded stamps entries after a successful vector upsert.
func (d *KnowledgeDb) MarkEmbedded(ids []uint, at int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf("UPDATE `%s` SET `embedded_at` = ? WHERE `id` IN (?)", db.KnowledgeEntry{}.TableName()),
		at, ids)
	if err != nil {
		return err
	}

	query = DB.Rebind(query)
	_, err = DB.Exec(query, args...)
	return err
}

// ActiveEntryKeys lists the keys retrieval may serve, for vector-store
// pruning.
func (d *KnowledgeDb) ActiveEntryKeys() ([]string, error) {
	query := fmt.Sprintf("SELECT `entry_key` FROM `%s` WHERE `status` = ?", db.KnowledgeEntry{}.TableName())

	var keys []string
	if err := DB.Select(&keys, query, enum.EntryActive); err != nil {
		return nil, err
	}
	return keys, nil
}
