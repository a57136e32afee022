package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
)

// RegularRepository implements models.Repository[*models.RegularSinger] for cross-show singer profiles.
type RegularRepository struct {
	q querier
}

// NewRegularRepository creates a new RegularRepository with the given database connection
func NewRegularRepository(db *sql.DB) *RegularRepository {
	return &RegularRepository{q: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *RegularRepository) WithTx(tx *sql.Tx) *RegularRepository {
	return &RegularRepository{q: tx}
}

// Create inserts a new profile. Names are unique without regard to case.
func (r *RegularRepository) Create(regular *models.RegularSinger) error {
	if err := regular.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	exists, err := r.Exists(regular.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: regular %q", shared.ErrDuplicateName, regular.Name)
	}

	if regular.CreatedAt.IsZero() {
		regular.CreatedAt = time.Now().UTC()
	}

	result, err := r.q.Exec("INSERT INTO regular_singers (name, created_at) VALUES (?, ?)",
		strings.TrimSpace(regular.Name), regular.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert regular singer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read regular singer id: %w", err)
	}

	regular.ID = id
	return nil
}

// Get retrieves a profile by ID
func (r *RegularRepository) Get(id int64) (*models.RegularSinger, error) {
	return r.scan(r.q.QueryRow("SELECT id, name, created_at FROM regular_singers WHERE id = ?", id))
}

// GetByName retrieves a profile by name, ignoring case.
func (r *RegularRepository) GetByName(name string) (*models.RegularSinger, error) {
	return r.scan(r.q.QueryRow("SELECT id, name, created_at FROM regular_singers WHERE name = ? COLLATE NOCASE",
		strings.TrimSpace(name)))
}

// Exists reports whether a profile with this name is stored.
func (r *RegularRepository) Exists(name string) (bool, error) {
	var n int
	err := r.q.QueryRow("SELECT COUNT(*) FROM regular_singers WHERE name = ? COLLATE NOCASE",
		strings.TrimSpace(name)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check regular singer: %w", err)
	}
	return n > 0, nil
}

// Delete removes a profile and its songs
func (r *RegularRepository) Delete(id int64) error {
	result, err := r.q.Exec("DELETE FROM regular_singers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete regular singer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrRegularNotFound, id)
	}

	if _, err := r.q.Exec("UPDATE singers SET regular = 0, regular_id = NULL WHERE regular_id = ?", id); err != nil {
		return fmt.Errorf("failed to unlink singers: %w", err)
	}
	return nil
}

// List retrieves every profile ordered by name.
//
// Supported criteria: "name" (string, case-insensitive substring).
func (r *RegularRepository) List(criteria map[string]any) ([]*models.RegularSinger, error) {
	query := "SELECT id, name, created_at FROM regular_singers WHERE 1 = 1"
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND lower(name) LIKE ?"
		args = append(args, "%"+strings.ToLower(name)+"%")
	}

	query += " ORDER BY name COLLATE NOCASE ASC"

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query regular singers: %w", err)
	}
	defer rows.Close()

	var regulars []*models.RegularSinger
	for rows.Next() {
		regular, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		regulars = append(regulars, regular)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return regulars, nil
}

// ReplaceSongs overwrites a profile's ordered song list. Positions are assigned from slice order.
func (r *RegularRepository) ReplaceSongs(regularID int64, songs []models.RegularSong) error {
	return atomic(r.q, func(q querier) error {
		if _, err := q.Exec("DELETE FROM regular_songs WHERE regular_id = ?", regularID); err != nil {
			return fmt.Errorf("failed to clear regular songs: %w", err)
		}

		for i, song := range songs {
			_, err := q.Exec(`
				INSERT INTO regular_songs (regular_id, song_id, key_change, position)
				VALUES (?, ?, ?, ?)
			`, regularID, song.SongID, song.KeyChange, i)
			if err != nil {
				return fmt.Errorf("failed to insert regular song: %w", err)
			}
		}
		return nil
	})
}

// Songs returns a profile's songs in order.
func (r *RegularRepository) Songs(regularID int64) ([]models.RegularSong, error) {
	rows, err := r.q.Query(`
		SELECT regular_id, song_id, key_change, position
		FROM regular_songs
		WHERE regular_id = ?
		ORDER BY position ASC, id ASC
	`, regularID)
	if err != nil {
		return nil, fmt.Errorf("failed to query regular songs: %w", err)
	}
	defer rows.Close()

	var songs []models.RegularSong
	for rows.Next() {
		var song models.RegularSong
		if err := rows.Scan(&song.RegularID, &song.SongID, &song.KeyChange, &song.Position); err != nil {
			return nil, fmt.Errorf("failed to scan regular song: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// scan scans a single row into a [models.RegularSinger]
func (r *RegularRepository) scan(row scanner) (*models.RegularSinger, error) {
	var regular models.RegularSinger

	err := row.Scan(&regular.ID, &regular.Name, &regular.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRegularNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan regular singer: %w", err)
	}
	return &regular, nil
}
