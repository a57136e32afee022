package tasks

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/rotation"
	"github.com/desertthunder/kjx/internal/shared"
)

// Performer starts a committed performance, e.g. by handing the song to the media player.
type Performer interface {
	Perform(singer *models.Singer, entry *models.QueueEntry, song *models.Song) error
}

// Dispatcher runs f on the host's event loop.
type Dispatcher func(f func())

// capture is the next performance chosen when the previous one ended.
type capture struct {
	singerID int64
	entryID  int64
	songID   int64
	singer   string
	song     string
	path     string
	deadline time.Time
}

func (c capture) event(kind AdvanceEventKind) AdvanceEvent {
	return AdvanceEvent{
		Kind:     kind,
		SingerID: c.singerID,
		EntryID:  c.entryID,
		Singer:   c.singer,
		Song:     c.song,
		SongPath: c.path,
		Deadline: c.deadline,
	}
}

// AdvanceController decides who sings next when a performance ends.
//
// A stop signal schedules the next performance behind a countdown. The host can cancel it, or
// start a song by hand, which always wins over the pending advance. Countdown callbacks carry a
// ticket; any callback whose ticket is no longer current is ignored.
type AdvanceController struct {
	session   *rotation.Session
	performer Performer
	clock     shared.Clock
	dispatch  Dispatcher
	opts      AdvanceOptions
	logger    *log.Logger
	events    chan AdvanceEvent

	mu        sync.Mutex
	state     AdvanceState
	pending   *capture
	timer     shared.Timer
	ticket    uint64
	skipNext  bool
}

// AdvanceOption customises an [AdvanceController].
type AdvanceOption func(*AdvanceController)

// WithClock replaces the wall clock.
func WithClock(clock shared.Clock) AdvanceOption {
	return func(c *AdvanceController) { c.clock = clock }
}

// WithDispatcher routes countdown callbacks through d instead of running them on the timer goroutine.
func WithDispatcher(d Dispatcher) AdvanceOption {
	return func(c *AdvanceController) { c.dispatch = d }
}

// NewAdvanceController creates a controller in the Idle state.
func NewAdvanceController(session *rotation.Session, performer Performer, opts AdvanceOptions, logger *log.Logger, options ...AdvanceOption) *AdvanceController {
	if logger == nil {
		logger = session.Logger()
	}

	c := &AdvanceController{
		session:   session,
		performer: performer,
		clock:     shared.SystemClock{},
		dispatch:  func(f func()) { f() },
		opts:      opts,
		logger:    shared.WithLogger(logger, "component", "auto-advance"),
		events:    make(chan AdvanceEvent, 16),
	}

	for _, option := range options {
		option(c)
	}
	return c
}

// Events delivers controller events. Sends never block; events are dropped when the buffer is full.
func (c *AdvanceController) Events() <-chan AdvanceEvent { return c.events }

// State returns the current state.
func (c *AdvanceController) State() AdvanceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the scheduled advance, if any.
func (c *AdvanceController) Pending() (AdvanceEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != PendingAdvance || c.pending == nil {
		return AdvanceEvent{}, false
	}
	return c.pending.event(AdvanceScheduled), true
}

// SetEnabled turns automatic advancing on or off. Disabling cancels a pending advance.
func (c *AdvanceController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.opts.Enabled = enabled
	if !enabled {
		c.cancelLocked()
	}
}

// Enabled reports whether stop signals schedule an advance.
func (c *AdvanceController) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.Enabled
}

// SkipNext makes the next stop signal end the performance without advancing.
func (c *AdvanceController) SkipNext() {
	c.mu.Lock()
	c.skipNext = true
	c.mu.Unlock()
}

// HandlePlaybackState consumes a signal from the media player.
func (c *AdvanceController) HandlePlaybackState(state models.PlaybackState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case state == models.Playing:
		c.cancelLocked()
		c.state = Playing
		if cur, err := c.session.Rotation().CurrentSinger(); err == nil && cur != nil {
			if err := c.session.MarkPerformed(cur.ID); err != nil {
				c.logger.Error("failed to record performer", "error", err)
			}
		}

	case state == models.Paused:

	case state.Ended():
		c.session.SetLiveRemaining(0, false)

		if c.state == PendingAdvance {
			return
		}
		c.state = Idle

		if c.skipNext {
			c.skipNext = false
			c.logger.Debug("advance skipped by request")
			return
		}
		if !c.opts.Enabled {
			return
		}

		next, err := c.findNext()
		if err != nil {
			c.logger.Error("failed to search rotation", "error", err)
			return
		}
		if next == nil {
			c.logger.Debug("nothing queued, staying idle")
			return
		}
		c.scheduleLocked(next)
	}
}

// Cancel discards a pending advance. Cancelling when nothing is pending does nothing.
func (c *AdvanceController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// PlayNow starts entryID immediately, cancelling any pending advance first.
func (c *AdvanceController) PlayNow(entryID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()

	entry, err := c.session.Queues().Entry(entryID)
	if err != nil {
		return err
	}

	next, err := c.captureEntry(entry)
	if err != nil {
		return err
	}
	return c.commitLocked(*next)
}

// findNext searches one lap of the rotation for the first singer with an unplayed song.
//
// The search starts after the current singer once that singer has performed, at the current
// singer when the cursor was set but nobody has sung yet, and at the top with no cursor.
func (c *AdvanceController) findNext() (*capture, error) {
	r := c.session.Rotation()

	singers, err := r.Singers()
	if err != nil || len(singers) == 0 {
		return nil, err
	}

	start := 0
	cur, err := r.CurrentSinger()
	if err != nil {
		return nil, err
	}
	if cur != nil {
		start = slices.IndexFunc(singers, func(s *models.Singer) bool { return s.ID == cur.ID })
		last, err := c.session.LastPerformer()
		if err != nil {
			return nil, err
		}
		if last == cur.ID {
			start++
		}
	}

	n := len(singers)
	for i := range n {
		singer := singers[(start+i)%n]
		entry, err := r.NextUnplayedSong(singer.ID)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		return c.captureEntry(entry)
	}
	return nil, nil
}

func (c *AdvanceController) captureEntry(entry *models.QueueEntry) (*capture, error) {
	singer, err := c.session.Rotation().Singer(entry.SingerID)
	if err != nil {
		return nil, err
	}
	song, err := c.session.Catalog().Song(entry.SongID)
	if err != nil {
		return nil, err
	}

	return &capture{
		singerID: singer.ID,
		entryID:  entry.ID,
		songID:   song.ID,
		singer:   singer.Name,
		song:     song.Display(),
		path:     song.Path,
	}, nil
}

func (c *AdvanceController) scheduleLocked(next *capture) {
	c.ticket++
	ticket := c.ticket

	next.deadline = c.clock.Now().Add(c.opts.Countdown)
	c.pending = next
	c.state = PendingAdvance
	c.timer = c.clock.AfterFunc(c.opts.Countdown, func() {
		c.dispatch(func() { c.elapsed(ticket) })
	})

	c.logger.Info("advance scheduled", "singer", next.singer, "song", next.song, "in", c.opts.Countdown)
	c.emit(next.event(AdvanceScheduled))
}

// elapsed commits the pending advance if ticket is still current.
func (c *AdvanceController) elapsed(ticket uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket != c.ticket || c.state != PendingAdvance || c.pending == nil {
		return
	}

	next := *c.pending
	c.pending, c.timer = nil, nil
	c.state = Idle

	if err := c.validate(next); err != nil {
		c.logger.Debug("pending advance went stale, abandoning", "singer", next.singer, "song", next.song, "reason", err)
		c.emit(next.event(AdvanceAbandoned))
		return
	}

	if err := c.commitLocked(next); err != nil {
		c.logger.Error("auto-advance failed", "singer", next.singer, "song", next.song, "error", err)
	}
}

// validate checks the capture still matches the rotation.
func (c *AdvanceController) validate(next capture) error {
	if _, err := c.session.Rotation().Singer(next.singerID); err != nil {
		return err
	}

	entry, err := c.session.Queues().Entry(next.entryID)
	switch {
	case err != nil:
		return err
	case entry.SingerID != next.singerID:
		return fmt.Errorf("entry %d moved to singer %d", entry.ID, entry.SingerID)
	case entry.Played:
		return fmt.Errorf("entry %d already played", entry.ID)
	case entry.SongID != next.songID:
		return fmt.Errorf("entry %d changed song", entry.ID)
	}
	return nil
}

// commitLocked starts the performance, marks it played and moves the cursor.
func (c *AdvanceController) commitLocked(next capture) error {
	singer, err := c.session.Rotation().Singer(next.singerID)
	if err != nil {
		return err
	}
	entry, err := c.session.Queues().Entry(next.entryID)
	if err != nil {
		return err
	}
	song, err := c.session.Catalog().Song(entry.SongID)
	if err != nil {
		return err
	}

	if err := c.performer.Perform(singer, entry, song); err != nil {
		c.emit(next.event(AdvanceFailed))
		return fmt.Errorf("performer rejected %s: %w", song.Display(), err)
	}

	if err := c.session.CommitPerformance(entry.ID, singer.ID, c.opts.MoveToFront); err != nil {
		return err
	}
	c.logger.Info("performance started", "singer", singer.Name, "song", song.Display())
	c.emit(next.event(AdvanceCommitted))
	return nil
}

// cancelLocked drops a pending advance and bumps the ticket so an in-flight callback is ignored.
func (c *AdvanceController) cancelLocked() {
	if c.state != PendingAdvance {
		return
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.ticket++

	next := c.pending
	c.pending, c.timer = nil, nil
	c.state = Cancelled
	if next != nil {
		c.logger.Info("advance cancelled", "singer", next.singer, "song", next.song)
		c.emit(next.event(AdvanceCancelled))
	}
	c.state = Idle
}

func (c *AdvanceController) emit(e AdvanceEvent) {
	select {
	case c.events <- e:
	default:
	}
}

// ErrNothingQueued is returned by [AdvanceController.Advance] when no singer has an unplayed song.
var ErrNothingQueued = errors.New("no singer has an unplayed song")

// Advance immediately commits the next performance the controller would have scheduled,
// ignoring the countdown and the enabled flag.
func (c *AdvanceController) Advance() (AdvanceEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()

	next, err := c.findNext()
	if err != nil {
		return AdvanceEvent{}, err
	}
	if next == nil {
		return AdvanceEvent{}, ErrNothingQueued
	}

	if err := c.commitLocked(*next); err != nil {
		return AdvanceEvent{}, err
	}
	return next.event(AdvanceCommitted), nil
}
