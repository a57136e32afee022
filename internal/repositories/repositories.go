// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type.
// Repositories are bound to either a *sql.DB or a *sql.Tx through the [querier] interface,
// so a caller can compose several repository calls into one transaction with [WithTx].
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/kjx/internal/models"
)

var (
	_ models.Repository[*models.Singer]        = (*SingerRepository)(nil)
	_ models.Repository[*models.QueueEntry]    = (*QueueRepository)(nil)
	_ models.Repository[*models.Song]          = (*SongRepository)(nil)
	_ models.Repository[*models.RegularSinger] = (*RegularRepository)(nil)
)

// querier is the subset of *sql.DB and *sql.Tx used by repositories.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// WithTx runs fn inside a transaction, committing when fn returns nil and rolling back otherwise.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// atomic runs fn in a new transaction when q is a *sql.DB and directly on q when it is already a transaction.
func atomic(q querier, fn func(q querier) error) error {
	if db, ok := q.(*sql.DB); ok {
		return WithTx(db, func(tx *sql.Tx) error { return fn(tx) })
	}
	return fn(q)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
