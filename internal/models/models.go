// package models defines the data model for the karaoke rotation
package models

import (
	"fmt"
	"strings"
	"time"
)

// NoSinger is the cursor value meaning no current singer.
const NoSinger int64 = 0

// UnknownDuration marks a song whose length has not been computed.
const UnknownDuration = -1

// Model defines the base interface for all persistent models.
type Model interface {
	Key() int64      // Key returns the database identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id int64) (T, error)                   // Get retrieves a model by its ID
	Delete(id int64) error                     // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Singer is a participant in the active rotation.
type Singer struct {
	ID        int64
	Name      string
	Position  int
	Regular   bool
	RegularID int64 // 0 when not linked to a profile
	CreatedAt time.Time
}

func (s *Singer) Key() int64 { return s.ID }

// Validate requires a non-blank name.
func (s *Singer) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("singer name is required")
	}
	if s.Position < 0 {
		return fmt.Errorf("singer position must not be negative")
	}
	return nil
}

// QueueEntry is one song in a singer's personal queue.
type QueueEntry struct {
	ID        int64
	SingerID  int64
	SongID    int64
	Position  int
	Played    bool
	KeyChange int // semitones
	CreatedAt time.Time
}

func (e *QueueEntry) Key() int64 { return e.ID }

func (e *QueueEntry) Validate() error {
	if e.SingerID <= 0 {
		return fmt.Errorf("queue entry requires a singer")
	}
	if e.SongID <= 0 {
		return fmt.Errorf("queue entry requires a song")
	}
	if e.KeyChange < -12 || e.KeyChange > 12 {
		return fmt.Errorf("key change %d out of range", e.KeyChange)
	}
	return nil
}

// Song is catalog metadata for a karaoke track.
type Song struct {
	ID         int64
	Artist     string
	Title      string
	SongID     string // external identifier printed on disc/file, e.g. SC8125-04
	Path       string
	DurationMS int // [UnknownDuration] when not yet computed
	CreatedAt  time.Time
}

func (s *Song) Key() int64 { return s.ID }

func (s *Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("song requires a title or a path")
	}
	if s.DurationMS < UnknownDuration {
		return fmt.Errorf("invalid song duration %d", s.DurationMS)
	}
	return nil
}

// Duration returns the song length and whether it is known.
func (s *Song) Duration() (time.Duration, bool) {
	if s == nil || s.DurationMS <= 0 {
		return 0, false
	}
	return time.Duration(s.DurationMS) * time.Millisecond, true
}

// Display renders "Artist - Title", falling back to the path.
func (s *Song) Display() string {
	switch {
	case s.Artist != "" && s.Title != "":
		return s.Artist + " - " + s.Title
	case s.Title != "":
		return s.Title
	default:
		return s.Path
	}
}

// RegularSinger is a persistent singer profile whose songs survive between shows.
type RegularSinger struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

func (r *RegularSinger) Key() int64 { return r.ID }

func (r *RegularSinger) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("regular singer name is required")
	}
	return nil
}

// RegularSong is one ordered song stored in a regular singer's profile.
type RegularSong struct {
	RegularID int64
	SongID    int64
	KeyChange int
	Position  int
}

// InsertionPolicy controls where a newly added singer lands relative to the current singer.
type InsertionPolicy int

const (
	Bottom InsertionPolicy = iota // append to the end
	Fair                          // take the current singer's slot, singing last in this lap
	Next                          // directly after the current singer
)

func (p InsertionPolicy) String() string {
	switch p {
	case Bottom:
		return "bottom"
	case Fair:
		return "fair"
	case Next:
		return "next"
	default:
		return ""
	}
}

// ParseInsertionPolicy converts a config/flag value into an [InsertionPolicy]. Empty means [Bottom].
func ParseInsertionPolicy(s string) (InsertionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bottom":
		return Bottom, nil
	case "fair":
		return Fair, nil
	case "next":
		return Next, nil
	default:
		return Bottom, fmt.Errorf("unknown insertion policy %q", s)
	}
}

// PlaybackState is reported by the media player.
type PlaybackState int

const (
	Stopped PlaybackState = iota
	Playing
	Paused
	EndOfMedia
)

func (s PlaybackState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case EndOfMedia:
		return "end_of_media"
	default:
		return ""
	}
}

// Ended reports whether the state means the current performance is over.
func (s PlaybackState) Ended() bool {
	return s == Stopped || s == EndOfMedia
}
