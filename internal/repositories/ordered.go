package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/shared"
)

// OrderedStore maintains contiguous zero-based positions for rows of a table.
//
// When partition is set, positions are scoped per partition value (e.g. queue entries per singer).
// Every structural change is followed by a verification pass; a violation is logged as a
// corruption event and repaired in place by re-sequencing on (position, id).
type OrderedStore struct {
	q         querier
	table     string
	partition string
	logger    *log.Logger
}

// NewOrderedStore creates an OrderedStore over table. Pass an empty partition for a single ordering.
func NewOrderedStore(db *sql.DB, table, partition string, logger *log.Logger) *OrderedStore {
	if logger == nil {
		logger = log.Default()
	}
	return &OrderedStore{q: db, table: table, partition: partition, logger: logger}
}

// WithTx returns a copy of the store bound to tx.
func (s *OrderedStore) WithTx(tx *sql.Tx) *OrderedStore {
	c := *s
	c.q = tx
	return &c
}

func (s *OrderedStore) where(part int64) (string, []any) {
	if s.partition == "" {
		return "1 = 1", nil
	}
	return s.partition + " = ?", []any{part}
}

// Count returns the number of items in the partition, which is also the next append position.
func (s *OrderedStore) Count(part int64) (int, error) {
	cond, args := s.where(part)
	var n int
	err := s.q.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", s.table, cond), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.table, err)
	}
	return n, nil
}

// IDs returns the partition's ids in position order.
func (s *OrderedStore) IDs(part int64) ([]int64, error) {
	cond, args := s.where(part)
	rows, err := s.q.Query(fmt.Sprintf("SELECT id FROM %s WHERE %s ORDER BY position ASC, id ASC", s.table, cond), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s order: %w", s.table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", s.table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// Locate returns the partition value and position of id.
func (s *OrderedStore) Locate(id int64) (int64, int, error) {
	col := s.partition
	if col == "" {
		col = "0"
	}

	var (
		part int64
		pos  int
	)
	err := s.q.QueryRow(fmt.Sprintf("SELECT %s, position FROM %s WHERE id = ?", col, s.table), id).Scan(&part, &pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%s %d: %w", s.table, id, shared.ErrNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to locate %s %d: %w", s.table, id, err)
	}
	return part, pos, nil
}

// InsertAtEnd runs insert with the next append position inside a transaction and returns the new id.
func (s *OrderedStore) InsertAtEnd(part int64, insert func(q querier, position int) (int64, error)) (int64, error) {
	var id int64
	err := atomic(s.q, func(q querier) error {
		tx := s.bind(q)
		n, err := tx.Count(part)
		if err != nil {
			return err
		}
		if id, err = insert(q, n); err != nil {
			return err
		}
		return tx.ensure(part)
	})
	return id, err
}

// MoveRange places ids as a contiguous block starting at target, in the order given.
// Every other item keeps its relative order. The target is clamped to the last valid block start.
// Returns false when the move changed nothing.
func (s *OrderedStore) MoveRange(part int64, ids []int64, target int) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}

	changed := false
	err := atomic(s.q, func(q querier) error {
		tx := s.bind(q)
		current, err := tx.IDs(part)
		if err != nil {
			return err
		}

		moving := make([]int64, 0, len(ids))
		for _, id := range ids {
			if !slices.Contains(current, id) {
				return fmt.Errorf("%s %d: %w", s.table, id, shared.ErrNotFound)
			}
			if !slices.Contains(moving, id) {
				moving = append(moving, id)
			}
		}

		order := Reorder(current, moving, target)
		for pos, id := range order {
			if current[pos] == id {
				continue
			}
			if _, err := q.Exec(fmt.Sprintf("UPDATE %s SET position = ? WHERE id = ?", s.table), pos, id); err != nil {
				return fmt.Errorf("failed to reposition %s %d: %w", s.table, id, err)
			}
			changed = true
		}

		if !changed {
			return nil
		}
		return tx.ensure(part)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// Reorder computes the order produced by moving the block ids to target within current.
func Reorder(current, ids []int64, target int) []int64 {
	remaining := make([]int64, 0, len(current))
	for _, id := range current {
		if !slices.Contains(ids, id) {
			remaining = append(remaining, id)
		}
	}

	target = max(0, min(target, len(remaining)))

	order := make([]int64, 0, len(current))
	order = append(order, remaining[:target]...)
	order = append(order, ids...)
	order = append(order, remaining[target:]...)
	return order
}

// Remove deletes id and closes the gap it leaves. Returns the partition it belonged to.
func (s *OrderedStore) Remove(id int64) (int64, error) {
	var part int64
	err := atomic(s.q, func(q querier) error {
		tx := s.bind(q)
		p, pos, err := tx.Locate(id)
		if err != nil {
			return err
		}
		part = p

		if _, err := q.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), id); err != nil {
			return fmt.Errorf("failed to delete %s %d: %w", s.table, id, err)
		}

		cond, args := s.where(part)
		args = append([]any{pos}, args...)
		query := fmt.Sprintf("UPDATE %s SET position = position - 1 WHERE position > ? AND %s", s.table, cond)
		if _, err := q.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to shift %s positions: %w", s.table, err)
		}
		return tx.ensure(part)
	})
	return part, err
}

// Verify checks that the partition's positions are exactly 0..n-1.
func (s *OrderedStore) Verify(part int64) error {
	cond, args := s.where(part)
	rows, err := s.q.Query(fmt.Sprintf("SELECT position FROM %s WHERE %s ORDER BY position ASC, id ASC", s.table, cond), args...)
	if err != nil {
		return fmt.Errorf("failed to query %s positions: %w", s.table, err)
	}
	defer rows.Close()

	want := 0
	for rows.Next() {
		var pos int
		if err := rows.Scan(&pos); err != nil {
			return fmt.Errorf("failed to scan %s position: %w", s.table, err)
		}
		if pos != want {
			return fmt.Errorf("%w: %s expected position %d, found %d", shared.ErrInvariantViolation, s.table, want, pos)
		}
		want++
	}
	return rows.Err()
}

// Repair re-sequences the partition by its existing relative order. Returns the number of rows rewritten.
func (s *OrderedStore) Repair(part int64) (int, error) {
	fixed := 0
	err := atomic(s.q, func(q querier) error {
		cond, args := s.where(part)
		rows, err := q.Query(fmt.Sprintf("SELECT id, position FROM %s WHERE %s ORDER BY position ASC, id ASC", s.table, cond), args...)
		if err != nil {
			return fmt.Errorf("failed to query %s positions: %w", s.table, err)
		}

		type slot struct {
			id  int64
			pos int
		}
		var slots []slot
		for rows.Next() {
			var sl slot
			if err := rows.Scan(&sl.id, &sl.pos); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan %s position: %w", s.table, err)
			}
			slots = append(slots, sl)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("row iteration error: %w", err)
		}

		for want, sl := range slots {
			if sl.pos == want {
				continue
			}
			if _, err := q.Exec(fmt.Sprintf("UPDATE %s SET position = ? WHERE id = ?", s.table), want, sl.id); err != nil {
				return fmt.Errorf("failed to repair %s %d: %w", s.table, sl.id, err)
			}
			fixed++
		}
		return nil
	})
	return fixed, err
}

// Partitions lists every partition value that currently has rows.
func (s *OrderedStore) Partitions() ([]int64, error) {
	if s.partition == "" {
		return []int64{0}, nil
	}

	rows, err := s.q.Query(fmt.Sprintf("SELECT DISTINCT %s FROM %s ORDER BY %s", s.partition, s.table, s.partition))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s partitions: %w", s.table, err)
	}
	defer rows.Close()

	var parts []int64
	for rows.Next() {
		var p int64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan %s partition: %w", s.table, err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// ensure verifies the partition and repairs it when positions drifted.
func (s *OrderedStore) ensure(part int64) error {
	err := s.Verify(part)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrInvariantViolation) {
		return err
	}

	s.logger.Error("position corruption detected, repairing", "table", s.table, "partition", part, "error", err)
	n, err := s.Repair(part)
	if err != nil {
		return fmt.Errorf("failed to repair %s: %w", s.table, err)
	}
	s.logger.Warn("positions repaired", "table", s.table, "partition", part, "rows", n)
	return nil
}

func (s *OrderedStore) bind(q querier) *OrderedStore {
	c := *s
	c.q = q
	return &c
}
