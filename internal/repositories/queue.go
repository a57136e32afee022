package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
)

const entryColumns = "id, singer_id, song_id, position, played, key_change, created_at"

// QueueRepository implements models.Repository[*models.QueueEntry] for per-singer song queues.
//
// Positions are partitioned by singer_id, so changes to one singer's queue never renumber another's.
type QueueRepository struct {
	q     querier
	store *OrderedStore
}

// NewQueueRepository creates a new QueueRepository with the given database connection
func NewQueueRepository(db *sql.DB, logger *log.Logger) *QueueRepository {
	return &QueueRepository{q: db, store: NewOrderedStore(db, "queue_entries", "singer_id", logger)}
}

// WithTx returns a copy of the repository bound to tx.
func (r *QueueRepository) WithTx(tx *sql.Tx) *QueueRepository {
	return &QueueRepository{q: tx, store: r.store.WithTx(tx)}
}

// Store exposes the per-singer ordering.
func (r *QueueRepository) Store() *OrderedStore { return r.store }

// Create appends an entry to the end of its singer's queue and sets ID and Position.
func (r *QueueRepository) Create(entry *models.QueueEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	id, err := r.store.InsertAtEnd(entry.SingerID, func(q querier, position int) (int64, error) {
		result, err := q.Exec(`
			INSERT INTO queue_entries (singer_id, song_id, position, played, key_change, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, entry.SingerID, entry.SongID, position, boolToInt(entry.Played), entry.KeyChange, entry.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert queue entry: %w", err)
		}
		entry.Position = position
		return result.LastInsertId()
	})
	if err != nil {
		return err
	}

	entry.ID = id
	return nil
}

// Get retrieves a queue entry by ID
func (r *QueueRepository) Get(id int64) (*models.QueueEntry, error) {
	return r.scan(r.q.QueryRow("SELECT "+entryColumns+" FROM queue_entries WHERE id = ?", id))
}

// Delete removes an entry and closes the gap in its singer's queue.
func (r *QueueRepository) Delete(id int64) error {
	if _, err := r.store.Remove(id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: %d", shared.ErrEntryNotFound, id)
		}
		return err
	}
	return nil
}

// DeleteForSinger removes every entry in a singer's queue.
func (r *QueueRepository) DeleteForSinger(singerID int64) error {
	if _, err := r.q.Exec("DELETE FROM queue_entries WHERE singer_id = ?", singerID); err != nil {
		return fmt.Errorf("failed to clear queue for singer %d: %w", singerID, err)
	}
	return nil
}

// DeleteAll removes every entry for every singer.
func (r *QueueRepository) DeleteAll() error {
	if _, err := r.q.Exec("DELETE FROM queue_entries"); err != nil {
		return fmt.Errorf("failed to clear queues: %w", err)
	}
	return nil
}

// SetPlayed sets the played flag of an entry.
func (r *QueueRepository) SetPlayed(id int64, played bool) error {
	return r.exec(id, "UPDATE queue_entries SET played = ? WHERE id = ?", boolToInt(played), id)
}

// SetKeyChange stores the key change in semitones for an entry.
func (r *QueueRepository) SetKeyChange(id int64, semitones int) error {
	return r.exec(id, "UPDATE queue_entries SET key_change = ? WHERE id = ?", semitones, id)
}

// Move places the listed entries of one singer as a block starting at target.
func (r *QueueRepository) Move(singerID int64, ids []int64, target int) (bool, error) {
	changed, err := r.store.MoveRange(singerID, ids, target)
	if errors.Is(err, shared.ErrNotFound) {
		return false, fmt.Errorf("%w: %v", shared.ErrEntryNotFound, err)
	}
	return changed, err
}

// NextUnplayed returns the lowest-position unplayed entry for a singer.
func (r *QueueRepository) NextUnplayed(singerID int64) (*models.QueueEntry, error) {
	return r.scan(r.q.QueryRow(`
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE singer_id = ? AND played = 0
		ORDER BY position ASC, id ASC
		LIMIT 1
	`, singerID))
}

// Counts returns the number of sung and unsung entries in a singer's queue.
func (r *QueueRepository) Counts(singerID int64) (sung, unsung int, err error) {
	err = r.q.QueryRow(`
		SELECT COALESCE(SUM(played), 0), COALESCE(SUM(1 - played), 0)
		FROM queue_entries
		WHERE singer_id = ?
	`, singerID).Scan(&sung, &unsung)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count queue for singer %d: %w", singerID, err)
	}
	return sung, unsung, nil
}

// List retrieves queue entries ordered by singer and position.
//
// Supported criteria: "singer_id" (int64), "played" (bool).
func (r *QueueRepository) List(criteria map[string]any) ([]*models.QueueEntry, error) {
	query := "SELECT " + entryColumns + " FROM queue_entries WHERE 1 = 1"
	args := []any{}

	if singerID, ok := criteria["singer_id"].(int64); ok && singerID > 0 {
		query += " AND singer_id = ?"
		args = append(args, singerID)
	}

	if played, ok := criteria["played"].(bool); ok {
		query += " AND played = ?"
		args = append(args, boolToInt(played))
	}

	query += " ORDER BY singer_id ASC, position ASC, id ASC"

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.QueueEntry
	for rows.Next() {
		entry, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// ForSinger returns a singer's queue in position order.
func (r *QueueRepository) ForSinger(singerID int64) ([]*models.QueueEntry, error) {
	return r.List(map[string]any{"singer_id": singerID})
}

func (r *QueueRepository) exec(id int64, query string, args ...any) error {
	result, err := r.q.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update queue entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrEntryNotFound, id)
	}
	return nil
}

// scan scans a single row into a [models.QueueEntry]
func (r *QueueRepository) scan(row scanner) (*models.QueueEntry, error) {
	var (
		entry  models.QueueEntry
		played int
	)

	err := row.Scan(&entry.ID, &entry.SingerID, &entry.SongID, &entry.Position, &played, &entry.KeyChange, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan queue entry: %w", err)
	}

	entry.Played = played != 0
	return &entry, nil
}
