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

const songColumns = "id, artist, title, song_id, path, duration_ms, created_at"

// SongRepository implements models.Repository[*models.Song] for the song catalog.
type SongRepository struct {
	q querier
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{q: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *SongRepository) WithTx(tx *sql.Tx) *SongRepository {
	return &SongRepository{q: tx}
}

// Create inserts a song into the catalog and sets its ID
func (r *SongRepository) Create(song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}

	result, err := r.q.Exec(`
		INSERT INTO songs (artist, title, song_id, path, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, song.Artist, song.Title, song.SongID, song.Path, song.DurationMS, song.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read song id: %w", err)
	}

	song.ID = id
	return nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(id int64) (*models.Song, error) {
	return r.scan(r.q.QueryRow("SELECT "+songColumns+" FROM songs WHERE id = ?", id))
}

// Song satisfies the rotation catalog contract.
func (r *SongRepository) Song(id int64) (*models.Song, error) {
	return r.Get(id)
}

// SetDuration records the computed duration of a song.
func (r *SongRepository) SetDuration(id int64, durationMS int) error {
	result, err := r.q.Exec("UPDATE songs SET duration_ms = ? WHERE id = ?", durationMS, id)
	if err != nil {
		return fmt.Errorf("failed to update song duration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	return nil
}

// Delete removes a song from the catalog
func (r *SongRepository) Delete(id int64) error {
	result, err := r.q.Exec("DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	return nil
}

// List retrieves catalog songs ordered by artist and title.
//
// Supported criteria: "artist" (string), "title" (string), "query" (string, matches artist, title or song id).
func (r *SongRepository) List(criteria map[string]any) ([]*models.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE 1 = 1"
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ? COLLATE NOCASE"
		args = append(args, artist)
	}

	if title, ok := criteria["title"].(string); ok && title != "" {
		query += " AND title = ? COLLATE NOCASE"
		args = append(args, title)
	}

	if q, ok := criteria["query"].(string); ok && q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query += " AND (lower(artist) LIKE ? OR lower(title) LIKE ? OR lower(song_id) LIKE ?)"
		args = append(args, like, like, like)
	}

	query += " ORDER BY artist ASC, title ASC, id ASC"

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// scan scans a single row into a [models.Song]
func (r *SongRepository) scan(row scanner) (*models.Song, error) {
	var song models.Song

	err := row.Scan(&song.ID, &song.Artist, &song.Title, &song.SongID, &song.Path, &song.DurationMS, &song.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return &song, nil
}
