package dao

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DB is the shared database handle, opened by the initializer.
var DB *sqlx.DB

var utils dbUtils

// Tx runs fn inside a transaction, rolling back on error or panic.
func Tx(fn func(tx *sqlx.Tx) error) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
