package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
)

const singerColumns = "id, name, position, regular, regular_id, created_at"

// SingerRepository implements models.Repository[*models.Singer] for the active rotation.
//
// Positions are maintained through an unpartitioned [OrderedStore].
type SingerRepository struct {
	q     querier
	store *OrderedStore
}

// NewSingerRepository creates a new SingerRepository with the given database connection
func NewSingerRepository(db *sql.DB, logger *log.Logger) *SingerRepository {
	return &SingerRepository{q: db, store: NewOrderedStore(db, "singers", "", logger)}
}

// WithTx returns a copy of the repository bound to tx.
func (r *SingerRepository) WithTx(tx *sql.Tx) *SingerRepository {
	return &SingerRepository{q: tx, store: r.store.WithTx(tx)}
}

// Store exposes the ordering of the rotation.
func (r *SingerRepository) Store() *OrderedStore { return r.store }

// Create appends a singer to the end of the rotation and sets its ID and Position.
func (r *SingerRepository) Create(singer *models.Singer) error {
	if err := singer.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if singer.CreatedAt.IsZero() {
		singer.CreatedAt = time.Now().UTC()
	}

	id, err := r.store.InsertAtEnd(0, func(q querier, position int) (int64, error) {
		result, err := q.Exec(`
			INSERT INTO singers (name, position, regular, regular_id, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, singer.Name, position, boolToInt(singer.Regular), nullID(singer.RegularID), singer.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert singer: %w", err)
		}
		singer.Position = position
		return result.LastInsertId()
	})
	if err != nil {
		return err
	}

	singer.ID = id
	return nil
}

// Get retrieves a singer by ID
func (r *SingerRepository) Get(id int64) (*models.Singer, error) {
	return r.scan(r.q.QueryRow("SELECT "+singerColumns+" FROM singers WHERE id = ?", id))
}

// GetByName finds a singer by name, ignoring case and surrounding whitespace.
func (r *SingerRepository) GetByName(name string) (*models.Singer, error) {
	singers, err := r.List(nil)
	if err != nil {
		return nil, err
	}

	want := shared.NormalizeName(name)
	for _, s := range singers {
		if shared.NormalizeName(s.Name) == want {
			return s, nil
		}
	}
	return nil, shared.ErrSingerNotFound
}

// AtPosition returns the singer at pos.
func (r *SingerRepository) AtPosition(pos int) (*models.Singer, error) {
	return r.scan(r.q.QueryRow("SELECT "+singerColumns+" FROM singers WHERE position = ? ORDER BY id LIMIT 1", pos))
}

// Update writes the singer's name and regular linkage. Position is owned by the [OrderedStore].
func (r *SingerRepository) Update(singer *models.Singer) error {
	if err := singer.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.q.Exec(`
		UPDATE singers
		SET name = ?, regular = ?, regular_id = ?
		WHERE id = ?
	`, singer.Name, boolToInt(singer.Regular), nullID(singer.RegularID), singer.ID)
	if err != nil {
		return fmt.Errorf("failed to update singer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrSingerNotFound, singer.ID)
	}
	return nil
}

// Delete removes a singer (cascading to its queue) and closes the gap in the rotation.
func (r *SingerRepository) Delete(id int64) error {
	if _, err := r.store.Remove(id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: %d", shared.ErrSingerNotFound, id)
		}
		return err
	}
	return nil
}

// DeleteAll removes every singer.
func (r *SingerRepository) DeleteAll() error {
	if _, err := r.q.Exec("DELETE FROM singers"); err != nil {
		return fmt.Errorf("failed to clear singers: %w", err)
	}
	return nil
}

// Move places the listed singers as a block starting at target.
func (r *SingerRepository) Move(ids []int64, target int) (bool, error) {
	changed, err := r.store.MoveRange(0, ids, target)
	if errors.Is(err, shared.ErrNotFound) {
		return false, fmt.Errorf("%w: %v", shared.ErrSingerNotFound, err)
	}
	return changed, err
}

// Count returns the number of singers in the rotation.
func (r *SingerRepository) Count() (int, error) {
	return r.store.Count(0)
}

// List retrieves singers in rotation order.
//
// Supported criteria: "regular" (bool), "name" (string, case-insensitive substring).
func (r *SingerRepository) List(criteria map[string]any) ([]*models.Singer, error) {
	query := "SELECT " + singerColumns + " FROM singers WHERE 1 = 1"
	args := []any{}

	if regular, ok := criteria["regular"].(bool); ok {
		query += " AND regular = ?"
		args = append(args, boolToInt(regular))
	}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND lower(name) LIKE ?"
		args = append(args, "%"+strings.ToLower(name)+"%")
	}

	query += " ORDER BY position ASC, id ASC"

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query singers: %w", err)
	}
	defer rows.Close()

	var singers []*models.Singer
	for rows.Next() {
		singer, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		singers = append(singers, singer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return singers, nil
}

// scan scans a single row into a [models.Singer]
func (r *SingerRepository) scan(row scanner) (*models.Singer, error) {
	var (
		singer    models.Singer
		regular   int
		regularID sql.NullInt64
	)

	err := row.Scan(&singer.ID, &singer.Name, &singer.Position, &regular, &regularID, &singer.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSingerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan singer: %w", err)
	}

	singer.Regular = regular != 0
	if regularID.Valid {
		singer.RegularID = regularID.Int64
	}
	return &singer, nil
}

func nullID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}
