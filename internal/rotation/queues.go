package rotation

import (
	"errors"
	"slices"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
	"github.com/samber/lo"
)

// Queues manages each singer's ordered song queue.
//
// While a singer is tracked as a regular, every change to the queue's songs, order or keys
// is mirrored into the linked profile.
type Queues struct {
	s *Session
}

// Enqueue appends a song to a singer's queue.
func (q *Queues) Enqueue(singerID, songID int64, keyChange int) (*models.QueueEntry, error) {
	return q.InsertAt(singerID, songID, keyChange, -1)
}

// InsertAt enqueues a song and moves it to position in one transaction. A negative position appends.
func (q *Queues) InsertAt(singerID, songID int64, keyChange, position int) (*models.QueueEntry, error) {
	if _, err := q.s.catalog.Song(songID); err != nil {
		return nil, q.s.missing(err, "enqueue", songID)
	}

	entry := &models.QueueEntry{SingerID: singerID, SongID: songID, KeyChange: keyChange}
	err := q.s.atomic(func(st stores) error {
		if _, err := st.singers.Get(singerID); err != nil {
			return err
		}
		if err := st.queues.Create(entry); err != nil {
			return err
		}

		if position >= 0 && position != entry.Position {
			if _, err := st.queues.Move(singerID, []int64{entry.ID}, position); err != nil {
				return err
			}
			moved, err := st.queues.Get(entry.ID)
			if err != nil {
				return err
			}
			entry = moved
		}
		return q.mirror(st, singerID)
	})
	if err != nil {
		return nil, q.s.missing(err, "enqueue", singerID)
	}

	q.s.logger.Debug("song queued", "singer", singerID, "song", songID, "position", entry.Position)
	q.s.notify(Change{Kind: QueueChanged, SingerID: singerID})
	return entry, nil
}

// Dequeue removes an entry. Removing an entry that no longer exists is a no-op.
func (q *Queues) Dequeue(entryID int64) error {
	var singerID int64
	err := q.s.atomic(func(st stores) error {
		entry, err := st.queues.Get(entryID)
		if err != nil {
			return err
		}
		singerID = entry.SingerID

		if err := st.queues.Delete(entryID); err != nil {
			return err
		}
		return q.mirror(st, singerID, entry.SongID)
	})
	if errors.Is(err, shared.ErrNotFound) {
		q.s.logger.Debug("dequeue of missing entry ignored", "entry", entryID)
		return nil
	}
	if err != nil {
		return err
	}

	q.s.notify(Change{Kind: QueueChanged, SingerID: singerID})
	return nil
}

// SetPlayed sets the played flag of an entry.
func (q *Queues) SetPlayed(entryID int64, played bool) error {
	entry, err := q.s.stores.queues.Get(entryID)
	if err != nil {
		return q.s.missing(err, "set played", entryID)
	}

	if err := q.s.stores.queues.SetPlayed(entryID, played); err != nil {
		return err
	}

	q.s.notify(Change{Kind: QueueChanged, SingerID: entry.SingerID})
	return nil
}

// SetKeyChange stores a key change in semitones for an entry.
func (q *Queues) SetKeyChange(entryID int64, semitones int) error {
	if semitones < -12 || semitones > 12 {
		return shared.ErrInvalidInput
	}

	var singerID int64
	err := q.s.atomic(func(st stores) error {
		entry, err := st.queues.Get(entryID)
		if err != nil {
			return err
		}
		singerID = entry.SingerID

		if err := st.queues.SetKeyChange(entryID, semitones); err != nil {
			return err
		}
		return q.mirror(st, singerID)
	})
	if err != nil {
		return q.s.missing(err, "set key change", entryID)
	}

	q.s.notify(Change{Kind: QueueChanged, SingerID: singerID})
	return nil
}

// MoveWithinSinger moves one entry to a new position in its own singer's queue.
func (q *Queues) MoveWithinSinger(entryID int64, position int) error {
	entry, err := q.s.stores.queues.Get(entryID)
	if err != nil {
		return q.s.missing(err, "move entry", entryID)
	}
	return q.MoveItems(entry.SingerID, []int64{entryID}, position)
}

// MoveItems places entries of one singer as a block starting at position.
func (q *Queues) MoveItems(singerID int64, ids []int64, position int) error {
	changed := false
	err := q.s.atomic(func(st stores) error {
		var err error
		if changed, err = st.queues.Move(singerID, ids, position); err != nil || !changed {
			return err
		}
		return q.mirror(st, singerID)
	})
	if err != nil {
		return q.s.missing(err, "move entries", singerID)
	}

	if changed {
		q.s.notify(Change{Kind: QueueChanged, SingerID: singerID})
	}
	return nil
}

// MoveToSinger transfers an entry to the end of another singer's queue.
// The entry is removed from its owner and enqueued fresh at the destination, keeping its key change.
func (q *Queues) MoveToSinger(entryID, destSingerID int64) (*models.QueueEntry, error) {
	var (
		from  int64
		moved *models.QueueEntry
	)
	err := q.s.atomic(func(st stores) error {
		entry, err := st.queues.Get(entryID)
		if err != nil {
			return err
		}
		if _, err := st.singers.Get(destSingerID); err != nil {
			return err
		}
		from = entry.SingerID

		if err := st.queues.Delete(entryID); err != nil {
			return err
		}

		moved = &models.QueueEntry{SingerID: destSingerID, SongID: entry.SongID, KeyChange: entry.KeyChange}
		if err := st.queues.Create(moved); err != nil {
			return err
		}

		if err := q.mirror(st, from, entry.SongID); err != nil {
			return err
		}
		return q.mirror(st, destSingerID)
	})
	if err != nil {
		return nil, q.s.missing(err, "transfer entry", entryID)
	}

	q.s.notify(Change{Kind: QueueChanged, SingerID: from}, Change{Kind: QueueChanged, SingerID: destSingerID})
	return moved, nil
}

// ClearAll removes every entry in a singer's queue.
func (q *Queues) ClearAll(singerID int64) error {
	err := q.s.atomic(func(st stores) error {
		if _, err := st.singers.Get(singerID); err != nil {
			return err
		}
		entries, err := st.queues.ForSinger(singerID)
		if err != nil {
			return err
		}
		if err := st.queues.DeleteForSinger(singerID); err != nil {
			return err
		}
		return q.mirror(st, singerID, lo.Map(entries, func(e *models.QueueEntry, _ int) int64 { return e.SongID })...)
	})
	if err != nil {
		return q.s.missing(err, "clear queue", singerID)
	}

	q.s.notify(Change{Kind: QueueChanged, SingerID: singerID})
	return nil
}

// ClearRotation removes every entry for every singer. Regular profiles are left untouched.
func (q *Queues) ClearRotation() error {
	if err := q.s.stores.queues.DeleteAll(); err != nil {
		return err
	}

	q.s.notify(Change{Kind: QueueChanged})
	return nil
}

// Entry returns a queue entry by id.
func (q *Queues) Entry(entryID int64) (*models.QueueEntry, error) {
	return q.s.stores.queues.Get(entryID)
}

// Entries returns a singer's queue in order.
func (q *Queues) Entries(singerID int64) ([]*models.QueueEntry, error) {
	return q.s.stores.queues.ForSinger(singerID)
}

// Counts returns the number of sung and unsung songs in a singer's queue.
func (q *Queues) Counts(singerID int64) (sung, unsung int, err error) {
	return q.s.stores.queues.Counts(singerID)
}

// mirror syncs the linked profile with the singer's queue while tracking is on.
//
// Queued songs come first in queue order. Profile songs that are not queued are kept after them
// unless their song id is listed in removed, so linking never discards a profile's history.
func (q *Queues) mirror(st stores, singerID int64, removed ...int64) error {
	singer, err := st.singers.Get(singerID)
	if err != nil {
		return err
	}
	if !singer.Regular || singer.RegularID == 0 {
		return nil
	}

	entries, err := st.queues.ForSinger(singerID)
	if err != nil {
		return err
	}
	saved, err := st.regulars.Songs(singer.RegularID)
	if err != nil {
		return err
	}

	songs := lo.Map(entries, func(e *models.QueueEntry, _ int) models.RegularSong {
		return models.RegularSong{RegularID: singer.RegularID, SongID: e.SongID, KeyChange: e.KeyChange}
	})
	queued := lo.SliceToMap(entries, func(e *models.QueueEntry) (int64, bool) { return e.SongID, true })
	songs = append(songs, lo.Filter(saved, func(rs models.RegularSong, _ int) bool {
		return !queued[rs.SongID] && !slices.Contains(removed, rs.SongID)
	})...)
	return st.regulars.ReplaceSongs(singer.RegularID, songs)
}
