package rotation

import (
	"time"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/samber/lo"
)

// SingerLoad is one singer's share of a [Snapshot].
type SingerLoad struct {
	SingerID    int64
	Name        string
	Position    int
	HasNext     bool          // an unplayed song is queued
	NextSong    time.Duration // length of the next unplayed song
	KnownLength bool          // NextSong was computed from the media
	Sung        int
	Unsung      int
}

// Snapshot is a read-only view of the rotation taken after a mutation completed.
type Snapshot struct {
	Singers       []SingerLoad // in rotation order
	CurrentID     int64
	LiveRemaining time.Duration
	HasLive       bool
}

// EstimateOptions tune the wait-time estimate.
type EstimateOptions struct {
	Pad               time.Duration
	DefaultSongLength time.Duration
	SkipEmpty         bool
}

// SingerWait is the estimate for one singer. Current singers report song counts instead of a wait.
type SingerWait struct {
	SingerID int64
	Name     string
	Position int
	Current  bool
	Wait     time.Duration
	Sung     int
	Unsung   int
}

// WaitTimes is the estimator's output.
type WaitTimes struct {
	Singers []SingerWait
	Total   time.Duration // linear sum over the rotation, independent of the cursor
}

// For returns the wait for a singer.
func (w WaitTimes) For(singerID int64) (SingerWait, bool) {
	return lo.Find(w.Singers, func(s SingerWait) bool { return s.SingerID == singerID })
}

// Estimate computes per-singer waits and the total rotation length.
//
// A singer's wait is the sum of every slot between the cursor and that singer, wrapping past the end.
// Each slot is the singer's next song plus the pad; the current singer's slot uses the live remaining
// time when playback reports one. Without a cursor, waits count from the top of the rotation.
func Estimate(snap Snapshot, opts EstimateOptions) WaitTimes {
	n := len(snap.Singers)
	slots := lo.Map(snap.Singers, func(l SingerLoad, _ int) time.Duration { return slot(l, opts) })

	cursor, hasCursor := 0, false
	if snap.CurrentID != models.NoSinger {
		if _, idx, ok := lo.FindIndexOf(snap.Singers, func(l SingerLoad) bool { return l.SingerID == snap.CurrentID }); ok {
			cursor, hasCursor = idx, true
		}
	}

	if hasCursor && snap.HasLive {
		slots[cursor] = snap.LiveRemaining + opts.Pad
	}

	out := WaitTimes{Total: lo.SumBy(snap.Singers, func(l SingerLoad) time.Duration { return slot(l, opts) })}
	for p, l := range snap.Singers {
		w := SingerWait{SingerID: l.SingerID, Name: l.Name, Position: l.Position, Sung: l.Sung, Unsung: l.Unsung}

		if hasCursor && p == cursor {
			w.Current = true
		} else {
			for i := cursor; i != p; i = (i + 1) % n {
				w.Wait += slots[i]
			}
		}
		out.Singers = append(out.Singers, w)
	}

	return out
}

// slot is the time one singer occupies in a lap.
func slot(l SingerLoad, opts EstimateOptions) time.Duration {
	switch {
	case l.HasNext && l.KnownLength:
		return l.NextSong + opts.Pad
	case l.HasNext:
		return opts.DefaultSongLength + opts.Pad
	case opts.SkipEmpty:
		return 0
	default:
		return opts.DefaultSongLength + opts.Pad
	}
}
