package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/repositories"
	"github.com/desertthunder/kjx/internal/shared"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// SingerAdd adds a singer using the --policy flag or the configured insertion policy.
func (r *Runner) SingerAdd(ctx context.Context, cmd *cli.Command) error {
	name := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: singer name", shared.ErrMissingArgument)
	}

	s, err := r.Session()
	if err != nil {
		return err
	}

	policy, err := r.policy(s, cmd)
	if err != nil {
		return err
	}

	singer, err := s.Rotation().AddSinger(name, policy)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s at position %d (%s)\n", singer.Name, singer.Position+1, policy)
}

// SingerRemove removes singers and their queues.
func (r *Runner) SingerRemove(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singers, err := r.singers(s, cmd.Args().Slice())
	if err != nil {
		return err
	}

	for _, singer := range singers {
		if err := s.Rotation().RemoveSinger(singer.ID); err != nil {
			return err
		}
		r.writePlain("✓ Removed %s\n", singer.Name)
	}
	return nil
}

// SingerRename renames a singer.
func (r *Runner) SingerRename(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("%w: singer and new name", shared.ErrMissingArgument)
	}

	s, err := r.Session()
	if err != nil {
		return err
	}

	singer, err := r.singer(s, cmd.Args().First())
	if err != nil {
		return err
	}

	name := strings.Join(cmd.Args().Tail(), " ")
	if err := s.Rotation().RenameSinger(singer.ID, name); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed %s to %s\n", singer.Name, name)
}

// SingerList prints singers in rotation order.
func (r *Runner) SingerList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singers, err := s.Rotation().Singers()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(singers, true)
	}

	if len(singers) == 0 {
		return r.writePlain("No singers in rotation\n")
	}

	current, err := s.Rotation().CurrentSinger()
	if err != nil {
		return err
	}

	for _, singer := range singers {
		line := fmt.Sprintf("%2d. %s", singer.Position+1, singer.Name)
		if singer.Regular {
			line += " ★"
		}
		if current != nil && current.ID == singer.ID {
			line += " (current)"
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// SingerMove moves one singer to a 1-based position.
func (r *Runner) SingerMove(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singer, err := r.singer(s, cmd.Args().First())
	if err != nil {
		return err
	}

	pos, err := argPosition(cmd, 1)
	if err != nil {
		return err
	}

	if err := s.Reorder().MoveSinger(singer.ID, pos); err != nil {
		return err
	}

	moved, err := s.Rotation().PositionOf(singer.ID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Moved %s to position %d\n", singer.Name, moved+1)
}

// SingerTop moves singers to the top of the rotation.
func (r *Runner) SingerTop(ctx context.Context, cmd *cli.Command) error {
	return r.moveSingers(cmd, true)
}

// SingerBottom moves singers to the bottom of the rotation.
func (r *Runner) SingerBottom(ctx context.Context, cmd *cli.Command) error {
	return r.moveSingers(cmd, false)
}

func (r *Runner) moveSingers(cmd *cli.Command, top bool) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singers, err := r.singers(s, cmd.Args().Slice())
	if err != nil {
		return err
	}

	ids := lo.Map(singers, func(singer *models.Singer, _ int) int64 { return singer.ID })
	where := "top"
	if top {
		err = s.Reorder().MoveSingersToTop(ids)
	} else {
		err = s.Reorder().MoveSingersToBottom(ids)
		where = "bottom"
	}
	if err != nil {
		return err
	}

	names := lo.Map(singers, func(singer *models.Singer, _ int) string { return singer.Name })
	return r.writePlain("✓ Moved %s to the %s\n", strings.Join(names, ", "), where)
}

// SingerRegular saves a singer as a regular and starts tracking their queue.
func (r *Runner) SingerRegular(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singer, err := r.singer(s, cmd.Args().First())
	if err != nil {
		return err
	}

	profile, err := s.Rotation().MakeRegular(singer.ID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s is now a regular (profile #%d)\n", singer.Name, profile.ID)
}

// SingerUnregular stops tracking a regular's queue. The saved profile is kept.
func (r *Runner) SingerUnregular(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	singer, err := r.singer(s, cmd.Args().First())
	if err != nil {
		return err
	}
	if !singer.Regular {
		return fmt.Errorf("%w: %s", shared.ErrNotRegular, singer.Name)
	}

	if err := s.Rotation().DisableRegularTracking(singer.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Stopped tracking %s's queue\n", singer.Name)
}

// SingerLoad adds a saved regular and their songs to the rotation.
func (r *Runner) SingerLoad(ctx context.Context, cmd *cli.Command) error {
	name := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: regular singer name", shared.ErrMissingArgument)
	}

	s, err := r.Session()
	if err != nil {
		return err
	}

	policy, err := r.policy(s, cmd)
	if err != nil {
		return err
	}

	singer, err := s.Rotation().LoadRegular(name, policy)
	if err != nil {
		return err
	}

	_, unsung, err := s.Queues().Counts(singer.ID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Loaded %s at position %d with %d songs\n", singer.Name, singer.Position+1, unsung)
}

// SingerRegulars lists saved regular profiles.
func (r *Runner) SingerRegulars(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.Session(); err != nil {
		return err
	}

	regulars := repositories.NewRegularRepository(r.db)
	profiles, err := regulars.List(nil)
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		return r.writePlain("No regular singers saved\n")
	}

	for _, profile := range profiles {
		songs, err := regulars.Songs(profile.ID)
		if err != nil {
			return err
		}
		r.writePlain("%s (%d songs)\n", profile.Name, len(songs))
	}
	return nil
}
