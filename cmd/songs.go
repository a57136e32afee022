package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/repositories"
	"github.com/desertthunder/kjx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SongsAdd adds a song to the catalog.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.Session(); err != nil {
		return err
	}

	duration := int(cmd.Int("duration"))
	if duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", shared.ErrInvalidFlag)
	}

	song := &models.Song{
		Artist:     strings.TrimSpace(cmd.String("artist")),
		Title:      strings.TrimSpace(cmd.String("title")),
		Path:       strings.TrimSpace(cmd.String("path")),
		SongID:     strings.TrimSpace(cmd.String("song-id")),
		DurationMS: models.UnknownDuration,
	}
	if duration > 0 {
		song.DurationMS = duration * 1000
	}

	if err := repositories.NewSongRepository(r.db).Create(song); err != nil {
		return err
	}
	return r.writePlain("✓ Added song %d: %s\n", song.ID, song.Display())
}

// SongsList lists catalog songs, optionally filtered by --query.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.Session(); err != nil {
		return err
	}

	songs, err := repositories.NewSongRepository(r.db).List(map[string]any{"query": cmd.String("query")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, true)
	}

	if len(songs) == 0 {
		return r.writePlain("No songs found\n")
	}

	for _, song := range songs {
		length := "?:??"
		if d, ok := song.Duration(); ok {
			length = shared.FormatDuration(d)
		}
		r.writePlain("%5d  %-50s %s\n", song.ID, song.Display(), length)
	}
	return nil
}
