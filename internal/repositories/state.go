package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/kjx/internal/models"
)

const (
	currentSingerKey = "current_singer"
	lastPerformerKey = "last_performer"
)

// StateRepository stores rotation-wide key/value state such as the current singer cursor.
type StateRepository struct {
	q querier
}

// NewStateRepository creates a new StateRepository with the given database connection
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{q: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *StateRepository) WithTx(tx *sql.Tx) *StateRepository {
	return &StateRepository{q: tx}
}

// Value returns the stored value for key and whether it was present.
func (r *StateRepository) Value(key string) (string, bool, error) {
	var value string
	err := r.q.QueryRow("SELECT value FROM rotation_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, true, nil
}

// SetValue upserts key.
func (r *StateRepository) SetValue(key, value string) error {
	_, err := r.q.Exec(`
		INSERT INTO rotation_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

// CurrentSinger returns the persisted cursor, or [models.NoSinger].
func (r *StateRepository) CurrentSinger() (int64, error) {
	return r.singerID(currentSingerKey)
}

// SetCurrentSinger persists the cursor. [models.NoSinger] clears it.
func (r *StateRepository) SetCurrentSinger(id int64) error {
	return r.SetValue(currentSingerKey, strconv.FormatInt(id, 10))
}

// LastPerformer returns the singer who most recently started a performance.
func (r *StateRepository) LastPerformer() (int64, error) {
	return r.singerID(lastPerformerKey)
}

// SetLastPerformer records who started the latest performance.
func (r *StateRepository) SetLastPerformer(id int64) error {
	return r.SetValue(lastPerformerKey, strconv.FormatInt(id, 10))
}

func (r *StateRepository) singerID(key string) (int64, error) {
	value, ok, err := r.Value(key)
	if err != nil || !ok {
		return models.NoSinger, err
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return models.NoSinger, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return id, nil
}
