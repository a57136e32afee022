package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/kjx/internal/formatter"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
)

var (
	_ list.Item = singerItem{}
	_ list.Item = entryItem{}
)

// singerItem wraps a [formatter.RotationRow] to implement [list.Item].
type singerItem struct {
	row formatter.RotationRow
}

func (i singerItem) FilterValue() string { return i.row.Singer }
func (i singerItem) Title() string {
	title := fmt.Sprintf("%2d. %s", i.row.Position+1, i.row.Singer)
	if i.row.Regular {
		title += " ★"
	}
	if i.row.Current {
		title = styles.ok.Render("▶ " + title)
	}
	return title
}
func (i singerItem) Description() string {
	parts := []string{}
	if i.row.Current {
		parts = append(parts, i.row.WaitLabel())
	} else {
		parts = append(parts, "wait "+i.row.WaitLabel(), fmt.Sprintf("%d queued", i.row.Unsung))
	}
	if i.row.NextSong != "" {
		parts = append(parts, "next: "+i.row.NextSong)
	}
	return strings.Join(parts, " • ")
}

// entryItem wraps a [models.QueueEntry] and its song to implement [list.Item].
type entryItem struct {
	entry *models.QueueEntry
	song  *models.Song
}

func (i entryItem) FilterValue() string { return i.Title() }
func (i entryItem) Title() string {
	title := fmt.Sprintf("song #%d", i.entry.SongID)
	if i.song != nil {
		title = i.song.Display()
	}
	if i.entry.Played {
		title = styles.help.Render(title + " ✓")
	}
	return title
}
func (i entryItem) Description() string {
	parts := []string{}
	if i.song != nil {
		if d, ok := i.song.Duration(); ok {
			parts = append(parts, shared.FormatDuration(d))
		}
	}
	if i.entry.KeyChange != 0 {
		parts = append(parts, fmt.Sprintf("key %+d", i.entry.KeyChange))
	}
	if i.entry.Played {
		parts = append(parts, "sung")
	}
	return strings.Join(parts, " • ")
}
