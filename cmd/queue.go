package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/kjx/internal/formatter"
	"github.com/desertthunder/kjx/internal/rotation"
	"github.com/desertthunder/kjx/internal/shared"
	"github.com/urfave/cli/v3"
)

// QueueAdd appends a catalog song to a singer's queue.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
	return r.enqueue(cmd, false)
}

// QueueInsert inserts a catalog song at a 1-based position in a singer's queue.
func (r *Runner) QueueInsert(ctx context.Context, cmd *cli.Command) error {
	return r.enqueue(cmd, true)
}

func (r *Runner) enqueue(cmd *cli.Command, insert bool) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singer, err := r.singer(s, cmd.Args().First())
	if err != nil {
		return err
	}

	songID, err := argID(cmd, 1, "song id")
	if err != nil {
		return err
	}

	pos := -1
	if insert {
		if pos, err = argPosition(cmd, 2); err != nil {
			return err
		}
	}

	entry, err := s.Queues().InsertAt(singer.ID, songID, int(cmd.Int("key")), pos)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Queued %s for %s at position %d (entry %d)\n", r.songTitle(s, songID), singer.Name, entry.Position+1, entry.ID)
}

// QueueRemove removes queue entries by id.
func (r *Runner) QueueRemove(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("%w: entry id", shared.ErrMissingArgument)
	}

	s, err := r.Session()
	if err != nil {
		return err
	}

	for i := range cmd.Args().Len() {
		id, err := argID(cmd, i, "entry id")
		if err != nil {
			return err
		}
		if err := s.Queues().Dequeue(id); err != nil {
			return err
		}
		r.writePlain("✓ Removed entry %d\n", id)
	}
	return nil
}

// QueueList prints a singer's queue.
func (r *Runner) QueueList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singer, err := r.singer(s, cmd.Args().First())
	if err != nil {
		return err
	}

	entries, err := s.Queues().Entries(singer.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	sung, unsung, err := s.Queues().Counts(singer.ID)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("%s: %d sung, %d left", singer.Name, sung, unsung))
	for _, line := range formatter.QueueLines(entries, s.Catalog()) {
		r.writePlain("%s\n", line)
	}
	return nil
}

// QueueMove moves an entry to a 1-based position in its singer's queue.
func (r *Runner) QueueMove(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	id, err := argID(cmd, 0, "entry id")
	if err != nil {
		return err
	}
	pos, err := argPosition(cmd, 1)
	if err != nil {
		return err
	}

	if err := s.Queues().MoveWithinSinger(id, pos); err != nil {
		return err
	}

	entry, err := s.Queues().Entry(id)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Moved entry %d to position %d\n", id, entry.Position+1)
}

// QueuePlayed marks an entry as sung, or not sung with --unset.
func (r *Runner) QueuePlayed(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	id, err := argID(cmd, 0, "entry id")
	if err != nil {
		return err
	}

	played := !cmd.Bool("unset")
	if err := s.Queues().SetPlayed(id, played); err != nil {
		return err
	}

	if played {
		return r.writePlain("✓ Entry %d marked as sung\n", id)
	}
	return r.writePlain("✓ Entry %d marked as not sung\n", id)
}

// QueueKey sets an entry's key change.
func (r *Runner) QueueKey(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	id, err := argID(cmd, 0, "entry id")
	if err != nil {
		return err
	}

	arg := cmd.Args().Get(1)
	if arg == "" {
		return fmt.Errorf("%w: semitones", shared.ErrMissingArgument)
	}
	semitones, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%w: semitones must be a number, got %q", shared.ErrInvalidArgument, arg)
	}

	if err := s.Queues().SetKeyChange(id, semitones); err != nil {
		return err
	}
	return r.writePlain("✓ Entry %d key change set to %+d\n", id, semitones)
}

// QueueTransfer moves an entry to the end of another singer's queue.
func (r *Runner) QueueTransfer(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	id, err := argID(cmd, 0, "entry id")
	if err != nil {
		return err
	}

	dest, err := r.singer(s, cmd.Args().Get(1))
	if err != nil {
		return err
	}

	moved, err := s.Queues().MoveToSinger(id, dest.ID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Moved %s to %s (entry %d)\n", r.songTitle(s, moved.SongID), dest.Name, moved.ID)
}

// QueueClear empties one singer's queue, or every queue with --all.
func (r *Runner) QueueClear(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		if err := s.Queues().ClearRotation(); err != nil {
			return err
		}
		return r.writePlain("✓ Cleared every queue\n")
	}

	singer, err := r.singer(s, cmd.Args().First())
	if err != nil {
		return err
	}

	if err := s.Queues().ClearAll(singer.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Cleared %s's queue\n", singer.Name)
}

func (r *Runner) songTitle(s *rotation.Session, songID int64) string {
	song, err := s.Catalog().Song(songID)
	if err != nil {
		return fmt.Sprintf("song #%d", songID)
	}
	return song.Display()
}
