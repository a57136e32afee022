package tasks

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/models"
)

// LogPerformer is a [Performer] for hosts without a media player: it records the performance in the log.
type LogPerformer struct {
	Logger *log.Logger
}

func (p LogPerformer) Perform(singer *models.Singer, entry *models.QueueEntry, song *models.Song) error {
	kv := []any{"singer", singer.Name, "song", song.Display()}
	if song.Path != "" {
		kv = append(kv, "path", song.Path)
	}
	if entry.KeyChange != 0 {
		kv = append(kv, "key", entry.KeyChange)
	}
	p.Logger.Info("now singing", kv...)
	return nil
}
