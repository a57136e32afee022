package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/kjx/internal/shared"
)

// AdvanceState is the auto-advance controller's state.
type AdvanceState int

const (
	Idle AdvanceState = iota
	Playing
	PendingAdvance // countdown running
	Cancelled      // transient, returns to Idle
)

func (s AdvanceState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case PendingAdvance:
		return "pending_advance"
	case Cancelled:
		return "cancelled"
	default:
		return ""
	}
}

// AdvanceEventKind enumerates what an [AdvanceEvent] reports.
type AdvanceEventKind int

const (
	AdvanceScheduled AdvanceEventKind = iota // countdown started
	AdvanceCommitted                         // next performance started
	AdvanceCancelled                         // countdown cancelled by the host
	AdvanceAbandoned                         // captured song went stale before the countdown ended
	AdvanceFailed                            // the performer refused the song
)

func (k AdvanceEventKind) String() string {
	switch k {
	case AdvanceScheduled:
		return "scheduled"
	case AdvanceCommitted:
		return "committed"
	case AdvanceCancelled:
		return "cancelled"
	case AdvanceAbandoned:
		return "abandoned"
	case AdvanceFailed:
		return "failed"
	default:
		return ""
	}
}

// AdvanceEvent is emitted on every controller transition the host may want to show.
type AdvanceEvent struct {
	Kind     AdvanceEventKind
	SingerID int64
	EntryID  int64
	Singer   string
	Song     string
	SongPath string
	Deadline time.Time // when a scheduled advance commits
}

// Alert renders the on-screen countdown message.
func (e AdvanceEvent) Alert(now time.Time) string {
	remaining := max(e.Deadline.Sub(now), 0)
	return fmt.Sprintf("Up next: %s - %s (starting in %s)", e.Singer, e.Song, shared.FormatDuration(remaining.Round(time.Second)))
}

// AdvanceOptions configure an [AdvanceController].
type AdvanceOptions struct {
	Enabled     bool
	Countdown   time.Duration
	MoveToFront bool // relocate the committed singer to position 0
}

// AdvanceOptionsFromConfig converts the [shared.AutoAdvanceConfig] section.
func AdvanceOptionsFromConfig(cfg shared.AutoAdvanceConfig) AdvanceOptions {
	return AdvanceOptions{
		Enabled:     cfg.Enabled,
		Countdown:   cfg.Countdown(),
		MoveToFront: cfg.MoveCurrentToFront,
	}
}
