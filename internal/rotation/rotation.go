package rotation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
)

// Rotation manages the ordered singers and the current singer cursor.
type Rotation struct {
	s *Session
}

// AddSinger adds a singer using policy and returns it with its final position.
func (r *Rotation) AddSinger(name string, policy models.InsertionPolicy) (*models.Singer, error) {
	var singer *models.Singer
	err := r.s.atomic(func(st stores) error {
		var err error
		singer, err = r.add(st, name, policy)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.s.logger.Info("singer added", "singer", singer.Name, "position", singer.Position, "policy", policy)
	r.s.notify(Change{Kind: OrderChanged, SingerID: singer.ID})
	return singer, nil
}

func (r *Rotation) add(st stores, name string, policy models.InsertionPolicy) (*models.Singer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: singer name is required", shared.ErrInvalidInput)
	}

	if existing, err := st.singers.GetByName(name); err == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrDuplicateName, existing.Name)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	count, err := st.singers.Count()
	if err != nil {
		return nil, err
	}

	singer := &models.Singer{Name: name}
	if err := st.singers.Create(singer); err != nil {
		return nil, err
	}

	target, ok, err := r.insertionPoint(st, policy, count)
	if err != nil || !ok {
		return singer, err
	}

	if _, err := st.singers.Move([]int64{singer.ID}, target); err != nil {
		return nil, err
	}
	singer.Position = target
	return singer, nil
}

// insertionPoint returns where a new singer goes in a rotation of count singers.
// ok is false when the singer stays at the bottom.
func (r *Rotation) insertionPoint(st stores, policy models.InsertionPolicy, count int) (int, bool, error) {
	if policy == models.Bottom {
		return 0, false, nil
	}

	current, err := st.state.CurrentSinger()
	if err != nil || current == models.NoSinger {
		return 0, false, err
	}

	cur, err := st.singers.Get(current)
	if errors.Is(err, shared.ErrNotFound) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	switch policy {
	case models.Fair:
		if cur.Position == 0 {
			return 0, false, nil
		}
		return cur.Position, true, nil
	case models.Next:
		if cur.Position >= count-1 {
			return 0, false, nil
		}
		return cur.Position + 1, true, nil
	default:
		return 0, false, nil
	}
}

// RemoveSinger deletes a singer and its queue. Removing the current singer clears the cursor.
func (r *Rotation) RemoveSinger(id int64) error {
	wasCurrent := false
	err := r.s.atomic(func(st stores) error {
		if err := st.singers.Delete(id); err != nil {
			return err
		}

		current, err := st.state.CurrentSinger()
		if err != nil {
			return err
		}
		if current == id {
			wasCurrent = true
			return st.state.SetCurrentSinger(models.NoSinger)
		}
		return nil
	})
	if err != nil {
		return r.s.missing(err, "remove singer", id)
	}

	r.s.logger.Info("singer removed", "id", id, "was_current", wasCurrent)
	r.s.notify(Change{Kind: OrderChanged, SingerID: id})
	if wasCurrent {
		r.s.notify(Change{Kind: CursorChanged})
	}
	return nil
}

// RenameSinger changes a singer's name. A change of case only is always allowed.
func (r *Rotation) RenameSinger(id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: singer name is required", shared.ErrInvalidInput)
	}

	err := r.s.atomic(func(st stores) error {
		singer, err := st.singers.Get(id)
		if err != nil {
			return err
		}

		existing, err := st.singers.GetByName(name)
		switch {
		case err == nil && existing.ID != id:
			return fmt.Errorf("%w: %s", shared.ErrDuplicateName, existing.Name)
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			return err
		}

		singer.Name = name
		return st.singers.Update(singer)
	})
	if err != nil {
		return r.s.missing(err, "rename singer", id)
	}

	r.s.notify(Change{Kind: OrderChanged, SingerID: id})
	return nil
}

// SetCurrentSinger moves the cursor and forgets who last performed. Pass [models.NoSinger] to clear it.
func (r *Rotation) SetCurrentSinger(id int64) error {
	err := r.s.atomic(func(st stores) error {
		if id != models.NoSinger {
			if _, err := st.singers.Get(id); err != nil {
				return err
			}
		}
		if err := st.state.SetLastPerformer(models.NoSinger); err != nil {
			return err
		}
		return st.state.SetCurrentSinger(id)
	})
	if err != nil {
		return r.s.missing(err, "set current singer", id)
	}

	r.s.logger.Debug("current singer set", "id", id)
	r.s.notify(Change{Kind: CursorChanged, SingerID: id})
	return nil
}

// CurrentSinger returns the singer under the cursor, or nil when there is none.
func (r *Rotation) CurrentSinger() (*models.Singer, error) {
	id, err := r.currentID()
	if err != nil || id == models.NoSinger {
		return nil, err
	}
	return r.s.stores.singers.Get(id)
}

// currentID reads the cursor, clearing it if it references a singer that no longer exists.
func (r *Rotation) currentID() (int64, error) {
	id, err := r.s.stores.state.CurrentSinger()
	if err != nil || id == models.NoSinger {
		return models.NoSinger, err
	}

	if _, err := r.s.stores.singers.Get(id); errors.Is(err, shared.ErrNotFound) {
		r.s.logger.Warn("current singer no longer exists, clearing cursor", "id", id)
		if err := r.s.stores.state.SetCurrentSinger(models.NoSinger); err != nil {
			return models.NoSinger, err
		}
		return models.NoSinger, nil
	} else if err != nil {
		return models.NoSinger, err
	}
	return id, nil
}

// MakeRegular links a singer to a regular profile of the same name, creating it when needed,
// and mirrors the singer's queue into it.
func (r *Rotation) MakeRegular(id int64) (*models.RegularSinger, error) {
	var profile *models.RegularSinger
	err := r.s.atomic(func(st stores) error {
		singer, err := st.singers.Get(id)
		if err != nil {
			return err
		}

		profile, err = st.regulars.GetByName(singer.Name)
		if errors.Is(err, shared.ErrNotFound) {
			profile = &models.RegularSinger{Name: singer.Name}
			err = st.regulars.Create(profile)
		}
		if err != nil {
			return err
		}

		singer.Regular = true
		singer.RegularID = profile.ID
		if err := st.singers.Update(singer); err != nil {
			return err
		}
		return r.s.queues.mirror(st, singer.ID)
	})
	if err != nil {
		return nil, r.s.missing(err, "make regular", id)
	}

	r.s.logger.Info("singer is now a regular", "id", id, "regular", profile.ID)
	r.s.notify(Change{Kind: OrderChanged, SingerID: id})
	return profile, nil
}

// DisableRegularTracking stops mirroring a singer's queue. The profile and its songs are kept.
func (r *Rotation) DisableRegularTracking(id int64) error {
	err := r.s.atomic(func(st stores) error {
		singer, err := st.singers.Get(id)
		if err != nil {
			return err
		}
		if !singer.Regular {
			return nil
		}
		singer.Regular = false
		return st.singers.Update(singer)
	})
	if err != nil {
		return r.s.missing(err, "disable regular tracking", id)
	}

	r.s.notify(Change{Kind: OrderChanged, SingerID: id})
	return nil
}

// LoadRegular adds a singer from a stored profile and queues the profile's songs.
func (r *Rotation) LoadRegular(name string, policy models.InsertionPolicy) (*models.Singer, error) {
	var singer *models.Singer
	err := r.s.atomic(func(st stores) error {
		profile, err := st.regulars.GetByName(name)
		if err != nil {
			return err
		}

		if singer, err = r.add(st, profile.Name, policy); err != nil {
			return err
		}

		singer.Regular = true
		singer.RegularID = profile.ID
		if err := st.singers.Update(singer); err != nil {
			return err
		}

		songs, err := st.regulars.Songs(profile.ID)
		if err != nil {
			return err
		}
		for _, song := range songs {
			entry := &models.QueueEntry{SingerID: singer.ID, SongID: song.SongID, KeyChange: song.KeyChange}
			if err := st.queues.Create(entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.s.logger.Info("regular loaded", "singer", singer.Name, "position", singer.Position)
	r.s.notify(Change{Kind: OrderChanged, SingerID: singer.ID}, Change{Kind: QueueChanged, SingerID: singer.ID})
	return singer, nil
}

// NextUnplayedSong returns the lowest-position unplayed entry for a singer, or nil when there is none.
func (r *Rotation) NextUnplayedSong(singerID int64) (*models.QueueEntry, error) {
	if _, err := r.s.stores.singers.Get(singerID); err != nil {
		return nil, r.s.missing(err, "next unplayed song", singerID)
	}

	entry, err := r.s.stores.queues.NextUnplayed(singerID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return entry, err
}

// SingerAtPosition returns the singer at pos or [shared.ErrSingerNotFound].
func (r *Rotation) SingerAtPosition(pos int) (*models.Singer, error) {
	return r.s.stores.singers.AtPosition(pos)
}

// PositionOf returns a singer's position or [shared.ErrSingerNotFound].
func (r *Rotation) PositionOf(id int64) (int, error) {
	singer, err := r.s.stores.singers.Get(id)
	if err != nil {
		return -1, err
	}
	return singer.Position, nil
}

// Singer returns a singer by id.
func (r *Rotation) Singer(id int64) (*models.Singer, error) {
	return r.s.stores.singers.Get(id)
}

// SingerByName returns a singer by name, ignoring case.
func (r *Rotation) SingerByName(name string) (*models.Singer, error) {
	return r.s.stores.singers.GetByName(name)
}

// Singers returns every singer in rotation order.
func (r *Rotation) Singers() ([]*models.Singer, error) {
	return r.s.stores.singers.List(nil)
}

// Clear removes every singer and queue entry and clears the cursor.
func (r *Rotation) Clear() error {
	err := r.s.atomic(func(st stores) error {
		if err := st.queues.DeleteAll(); err != nil {
			return err
		}
		if err := st.singers.DeleteAll(); err != nil {
			return err
		}
		return st.state.SetCurrentSinger(models.NoSinger)
	})
	if err != nil {
		return err
	}

	r.s.logger.Info("rotation cleared")
	r.s.notify(Change{Kind: OrderChanged}, Change{Kind: CursorChanged}, Change{Kind: QueueChanged})
	return nil
}
