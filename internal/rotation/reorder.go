package rotation

import (
	"fmt"
	"strings"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
)

// DropPayload is the content of a drag-and-drop gesture.
type DropPayload interface {
	dropPayload()
}

// MoveSingers drags one or more singers within the rotation.
type MoveSingers struct {
	IDs []int64
}

// MoveQueueItems drags entries of one singer's queue.
type MoveQueueItems struct {
	SingerID int64
	IDs      []int64
}

// AddSongToSinger drops a catalog song onto a singer, or onto empty space to create NewSingerName.
type AddSongToSinger struct {
	SongID        int64
	KeyChange     int
	NewSingerName string
}

func (MoveSingers) dropPayload()     {}
func (MoveQueueItems) dropPayload()  {}
func (AddSongToSinger) dropPayload() {}

// DropTarget is where a payload was released. SingerID is [models.NoSinger] for empty space.
type DropTarget struct {
	SingerID int64
	Position int
}

// DropResult reports which singer the UI should select after a drop.
type DropResult struct {
	Selected int64
	Entry    *models.QueueEntry
}

// Reorder translates UI gestures into ordered-store operations.
type Reorder struct {
	s *Session
}

// MoveSinger moves one singer to pos.
func (r *Reorder) MoveSinger(id int64, pos int) error {
	return r.moveSingers([]int64{id}, pos)
}

// MoveSingersToTop moves the selection to the top of the rotation, keeping its order.
func (r *Reorder) MoveSingersToTop(ids []int64) error {
	return r.moveSingers(ids, 0)
}

// MoveSingersToBottom moves the selection to the bottom of the rotation, keeping its order.
func (r *Reorder) MoveSingersToBottom(ids []int64) error {
	count, err := r.s.stores.singers.Count()
	if err != nil {
		return err
	}
	return r.moveSingers(ids, count)
}

// MoveQueueItems moves entries within one singer's queue.
func (r *Reorder) MoveQueueItems(singerID int64, ids []int64, pos int) error {
	return r.s.queues.MoveItems(singerID, ids, pos)
}

func (r *Reorder) moveSingers(ids []int64, pos int) error {
	changed := false
	err := r.s.atomic(func(st stores) error {
		var err error
		changed, err = st.singers.Move(ids, pos)
		return err
	})
	if err != nil {
		return r.s.missing(err, "move singers", first(ids))
	}

	if changed {
		r.s.notify(Change{Kind: OrderChanged})
	}
	return nil
}

// Drop applies a drag-and-drop payload to target.
func (r *Reorder) Drop(payload DropPayload, target DropTarget) (DropResult, error) {
	switch p := payload.(type) {
	case MoveSingers:
		if err := r.moveSingers(p.IDs, target.Position); err != nil {
			return DropResult{}, err
		}
		return DropResult{Selected: first(p.IDs)}, nil

	case MoveQueueItems:
		if target.SingerID == models.NoSinger || target.SingerID == p.SingerID {
			return DropResult{Selected: p.SingerID}, r.s.queues.MoveItems(p.SingerID, p.IDs, target.Position)
		}
		for _, id := range p.IDs {
			if _, err := r.s.queues.MoveToSinger(id, target.SingerID); err != nil {
				return DropResult{}, err
			}
		}
		return DropResult{Selected: target.SingerID}, nil

	case AddSongToSinger:
		singerID := target.SingerID
		if singerID == models.NoSinger {
			name := strings.TrimSpace(p.NewSingerName)
			if name == "" {
				return DropResult{}, fmt.Errorf("%w: a singer name is needed to drop a song on empty space", shared.ErrMissingArgument)
			}
			singer, err := r.s.rotation.AddSinger(name, r.s.opts.Policy)
			if err != nil {
				return DropResult{}, err
			}
			singerID = singer.ID
		}

		entry, err := r.s.queues.Enqueue(singerID, p.SongID, p.KeyChange)
		if err != nil {
			return DropResult{}, err
		}
		return DropResult{Selected: singerID, Entry: entry}, nil

	default:
		return DropResult{}, fmt.Errorf("%w: unsupported drop payload %T", shared.ErrInvalidInput, payload)
	}
}

func first(ids []int64) int64 {
	if len(ids) == 0 {
		return models.NoSinger
	}
	return ids[0]
}
