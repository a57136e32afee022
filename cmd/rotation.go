package main

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/kjx/internal/formatter"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
	"github.com/desertthunder/kjx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CurrentSet moves the cursor to a singer.
func (r *Runner) CurrentSet(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singer, err := r.singer(s, cmd.Args().First())
	if err != nil {
		return err
	}

	if err := s.Rotation().SetCurrentSinger(singer.ID); err != nil {
		return err
	}
	return r.writePlain("✓ %s is now the current singer\n", singer.Name)
}

// CurrentClear clears the cursor.
func (r *Runner) CurrentClear(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	if err := s.Rotation().SetCurrentSinger(models.NoSinger); err != nil {
		return err
	}
	return r.writePlain("✓ Cleared the current singer\n")
}

// CurrentShow prints the current singer and their next song.
func (r *Runner) CurrentShow(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	current, err := s.Rotation().CurrentSinger()
	if err != nil {
		return err
	}
	if current == nil {
		return r.writePlain("No current singer\n")
	}

	r.writePlain("%s (position %d)\n", current.Name, current.Position+1)

	entry, err := s.Rotation().NextUnplayedSong(current.ID)
	if err != nil {
		return err
	}
	if entry != nil {
		r.writePlain("Next song: %s\n", r.songTitle(s, entry.SongID))
	}
	return nil
}

// RotationShow prints the rotation with wait times in the requested format.
func (r *Runner) RotationShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	export, err := r.rotationExport()
	if err != nil {
		return err
	}

	data, err := formatter.Render(export, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// RotationExport writes the rotation to a file.
func (r *Runner) RotationExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	export, err := r.rotationExport()
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(export, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("rotation exported", "path", path, "format", format, "singers", len(export.Rows))
	return r.writePlain("✓ Exported %d singers to %s\n", len(export.Rows), path)
}

// RotationNext prints the "up next" ticker line.
func (r *Runner) RotationNext(ctx context.Context, cmd *cli.Command) error {
	export, err := r.rotationExport()
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", formatter.Ticker(export, int(cmd.Int("count"))))
}

// RotationRepair re-sequences singer and queue positions.
func (r *Runner) RotationRepair(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	n, err := s.Repair()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.writePlain("✓ Positions are already contiguous\n")
	}
	return r.writePlain("✓ Repaired %d positions\n", n)
}

// RotationClear removes every singer and queue, or only the queues with --queues-only.
func (r *Runner) RotationClear(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	if cmd.Bool("queues-only") {
		if err := s.Queues().ClearRotation(); err != nil {
			return err
		}
		return r.writePlain("✓ Cleared every queue\n")
	}

	if err := s.Rotation().Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Cleared the rotation\n")
}

// Wait prints each singer's estimated wait and the length of one full lap.
func (r *Runner) Wait(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	waits, err := s.Waits()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(waits, true)
	}

	if len(waits.Singers) == 0 {
		return r.writePlain("No singers in rotation\n")
	}

	for _, w := range waits.Singers {
		if w.Current {
			r.writePlain("%2d. %-20s singing now (%d sung, %d left)\n", w.Position+1, w.Name, w.Sung, w.Unsung)
			continue
		}
		r.writePlain("%2d. %-20s %s\n", w.Position+1, w.Name, shared.FormatDuration(w.Wait))
	}
	return r.writePlainln("Full rotation: %s", shared.FormatDuration(waits.Total))
}

// Advance starts the next singer's next song immediately.
//
// Without a media player attached the performance is only logged.
func (r *Runner) Advance(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	performer := tasks.LogPerformer{Logger: r.logger}
	ctrl := tasks.NewAdvanceController(s, performer, tasks.AdvanceOptionsFromConfig(r.config.AutoAdvance), r.logger)

	event, err := ctrl.Advance()
	if errors.Is(err, tasks.ErrNothingQueued) {
		return r.writePlain("Nobody has a song queued\n")
	}
	if err != nil {
		return err
	}
	return r.writePlain("✓ Now singing: %s (%s)\n", event.Singer, event.Song)
}

func (r *Runner) rotationExport() (*formatter.RotationExport, error) {
	s, err := r.Session()
	if err != nil {
		return nil, err
	}
	return formatter.BuildRotationExport(s, time.Now())
}
