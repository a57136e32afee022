package rotation

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/repositories"
	"github.com/desertthunder/kjx/internal/shared"
	"golang.org/x/time/rate"
)

// ChangeKind identifies what part of the rotation changed.
type ChangeKind int

const (
	OrderChanged  ChangeKind = iota // singers added, removed or reordered
	CursorChanged                   // current singer changed
	QueueChanged                    // a singer's queue changed
)

func (k ChangeKind) String() string {
	switch k {
	case OrderChanged:
		return "order"
	case CursorChanged:
		return "cursor"
	case QueueChanged:
		return "queue"
	default:
		return ""
	}
}

// Change is sent to subscribers after a mutation commits.
type Change struct {
	Kind     ChangeKind
	SingerID int64 // singer affected, or [models.NoSinger] for rotation-wide changes
}

// Catalog provides song metadata for queued songs.
type Catalog interface {
	Song(id int64) (*models.Song, error)
}

// Options are the rotation settings a [Session] is created with.
type Options struct {
	Policy            models.InsertionPolicy // default policy for new singers
	Pad               time.Duration          // changeover time added per singer
	DefaultSongLength time.Duration          // used when a song length is unknown
	SkipEmpty         bool                   // singers with nothing queued add no time
}

// OptionsFromConfig converts the [shared.RotationConfig] section into [Options].
func OptionsFromConfig(cfg shared.RotationConfig) (Options, error) {
	policy, err := models.ParseInsertionPolicy(cfg.InsertionPolicy)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	return Options{
		Policy:            policy,
		Pad:               cfg.Pad(),
		DefaultSongLength: cfg.DefaultSongLength(),
		SkipEmpty:         cfg.SkipEmptySingers,
	}, nil
}

// stores groups the repositories a mutation touches, bound to one connection or transaction.
type stores struct {
	singers  *repositories.SingerRepository
	queues   *repositories.QueueRepository
	regulars *repositories.RegularRepository
	state    *repositories.StateRepository
}

// Session owns the rotation, every singer's queue and the current singer cursor.
//
// All components receive the Session at construction; nothing about the show lives in package state.
// Mutations run inside a single SQL transaction and notify subscribers after commit.
type Session struct {
	ID      string
	db      *sql.DB
	stores  stores
	catalog Catalog
	opts    Options
	logger  *log.Logger
	warn    rate.Sometimes

	mu          sync.Mutex
	subscribers []chan Change
	live        time.Duration
	hasLive     bool

	rotation *Rotation
	queues   *Queues
	reorder  *Reorder
}

// NewSession creates a Session over db. The database must already be migrated.
func NewSession(db *sql.DB, catalog Catalog, opts Options, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}

	id := shared.GenerateID()
	logger = shared.WithLogger(logger, "session", id[:8])

	s := &Session{
		ID: id,
		db: db,
		stores: stores{
			singers:  repositories.NewSingerRepository(db, logger),
			queues:   repositories.NewQueueRepository(db, logger),
			regulars: repositories.NewRegularRepository(db),
			state:    repositories.NewStateRepository(db),
		},
		catalog: catalog,
		opts:    opts,
		logger:  logger,
		warn:    rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}

	s.rotation = &Rotation{s: s}
	s.queues = &Queues{s: s}
	s.reorder = &Reorder{s: s}
	return s
}

func (s *Session) Rotation() *Rotation { return s.rotation }
func (s *Session) Queues() *Queues { return s.queues }
func (s *Session) Reorder() *Reorder { return s.reorder }
func (s *Session) Options() Options { return s.opts }
func (s *Session) Logger() *log.Logger { return s.logger }
func (s *Session) Catalog() Catalog { return s.catalog }

// Subscribe returns a channel receiving every [Change]. Sends never block: a full channel drops the change.
func (s *Session) Subscribe(buffer int) <-chan Change {
	ch := make(chan Change, max(buffer, 1))

	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Session) notify(changes ...Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range changes {
		for _, ch := range s.subscribers {
			select {
			case ch <- c:
			default:
			}
		}
	}
}

// SetLiveRemaining records the playback time left for the current performance.
// Pass ok=false when nothing is playing.
func (s *Session) SetLiveRemaining(remaining time.Duration, ok bool) {
	s.mu.Lock()
	s.live, s.hasLive = remaining, ok
	s.mu.Unlock()
}

// LiveRemaining returns the last reported playback time left.
func (s *Session) LiveRemaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live, s.hasLive
}

// MarkPerformed records that singerID started a performance.
func (s *Session) MarkPerformed(singerID int64) error {
	return s.stores.state.SetLastPerformer(singerID)
}

// CommitPerformance records a started performance in one transaction: the entry is marked played,
// the cursor moves to its singer, the singer optionally moves to the top, and the singer becomes
// the last performer. Nothing is written when any step fails.
func (s *Session) CommitPerformance(entryID, singerID int64, toFront bool) error {
	moved := false
	err := s.atomic(func(st stores) error {
		entry, err := st.queues.Get(entryID)
		if err != nil {
			return err
		}
		if entry.SingerID != singerID {
			return fmt.Errorf("%w: entry %d belongs to singer %d", shared.ErrInvalidInput, entryID, entry.SingerID)
		}

		if err := st.queues.SetPlayed(entryID, true); err != nil {
			return err
		}
		if err := st.state.SetCurrentSinger(singerID); err != nil {
			return err
		}
		if toFront {
			if moved, err = st.singers.Move([]int64{singerID}, 0); err != nil {
				return err
			}
		}
		return st.state.SetLastPerformer(singerID)
	})
	if err != nil {
		return s.missing(err, "commit performance", entryID)
	}

	changes := []Change{{Kind: QueueChanged, SingerID: singerID}, {Kind: CursorChanged, SingerID: singerID}}
	if moved {
		changes = append(changes, Change{Kind: OrderChanged})
	}
	s.notify(changes...)
	return nil
}

// LastPerformer returns the singer who most recently started a performance.
func (s *Session) LastPerformer() (int64, error) {
	return s.stores.state.LastPerformer()
}

// Snapshot reads the state the wait-time estimator needs.
func (s *Session) Snapshot() (Snapshot, error) {
	singers, err := s.stores.singers.List(nil)
	if err != nil {
		return Snapshot{}, err
	}

	current, err := s.rotation.currentID()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{CurrentID: current}
	snap.LiveRemaining, snap.HasLive = s.LiveRemaining()

	for _, singer := range singers {
		load := SingerLoad{SingerID: singer.ID, Name: singer.Name, Position: singer.Position}

		load.Sung, load.Unsung, err = s.stores.queues.Counts(singer.ID)
		if err != nil {
			return Snapshot{}, err
		}

		entry, err := s.stores.queues.NextUnplayed(singer.ID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
		case err != nil:
			return Snapshot{}, err
		default:
			load.HasNext = true
			if song, err := s.catalog.Song(entry.SongID); err == nil {
				load.NextSong, load.KnownLength = song.Duration()
			} else {
				s.logger.Debug("song missing from catalog", "song", entry.SongID, "error", err)
			}
		}

		snap.Singers = append(snap.Singers, load)
	}

	return snap, nil
}

// Waits runs the estimator over a fresh snapshot.
func (s *Session) Waits() (WaitTimes, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return WaitTimes{}, err
	}
	return Estimate(snap, EstimateOptions{
		Pad:               s.opts.Pad,
		DefaultSongLength: s.opts.DefaultSongLength,
		SkipEmpty:         s.opts.SkipEmpty,
	}), nil
}

// Repair re-sequences the rotation and every queue. Returns the number of rows rewritten.
func (s *Session) Repair() (int, error) {
	total := 0
	err := s.atomic(func(st stores) error {
		n, err := st.singers.Store().Repair(0)
		if err != nil {
			return err
		}
		total += n

		parts, err := st.queues.Store().Partitions()
		if err != nil {
			return err
		}
		for _, p := range parts {
			n, err := st.queues.Store().Repair(p)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if total > 0 {
		s.logger.Warn("repaired positions", "rows", total)
		s.notify(Change{Kind: OrderChanged}, Change{Kind: QueueChanged})
	}
	return total, nil
}

func (s *Session) atomic(fn func(st stores) error) error {
	return repositories.WithTx(s.db, func(tx *sql.Tx) error {
		return fn(stores{
			singers:  s.stores.singers.WithTx(tx),
			queues:   s.stores.queues.WithTx(tx),
			regulars: s.stores.regulars.WithTx(tx),
			state:    s.stores.state.WithTx(tx),
		})
	})
}

// missing logs a throttled warning for an operation on an unknown id and returns err unchanged.
func (s *Session) missing(err error, op string, id int64) error {
	if errors.Is(err, shared.ErrNotFound) {
		s.warn.Do(func() {
			s.logger.Warn("operation on unknown id ignored", "op", op, "id", id, "error", err)
		})
	}
	return err
}
