package rotation

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
)

func TestReorder(t *testing.T) {
	t.Run("MoveSinger", func(t *testing.T) {
		f := setupSession(t, Options{})
		singers := f.addSingers(t, "A", "B", "C", "D")

		if err := f.session.Reorder().MoveSinger(singers[0].ID, 2); err != nil {
			t.Fatalf("failed to move: %v", err)
		}
		if got := f.order(t); !slices.Equal(got, []string{"B", "C", "A", "D"}) {
			t.Errorf("unexpected order %v", got)
		}

		if err := f.session.Reorder().MoveSinger(singers[0].ID, 100); err != nil {
			t.Fatalf("failed to move past end: %v", err)
		}
		if got := f.order(t); !slices.Equal(got, []string{"B", "C", "D", "A"}) {
			t.Errorf("move past the end should clamp, got %v", got)
		}
	})

	t.Run("MoveToTopAndBottom", func(t *testing.T) {
		f := setupSession(t, Options{})
		singers := f.addSingers(t, "A", "B", "C", "D", "E")

		if err := f.session.Reorder().MoveSingersToTop([]int64{singers[3].ID, singers[2].ID}); err != nil {
			t.Fatalf("failed to move to top: %v", err)
		}
		if got := f.order(t); !slices.Equal(got, []string{"D", "C", "A", "B", "E"}) {
			t.Errorf("unexpected order %v", got)
		}

		if err := f.session.Reorder().MoveSingersToBottom([]int64{singers[3].ID, singers[0].ID}); err != nil {
			t.Fatalf("failed to move to bottom: %v", err)
		}
		if got := f.order(t); !slices.Equal(got, []string{"C", "B", "E", "D", "A"}) {
			t.Errorf("unexpected order %v", got)
		}
	})

	t.Run("MoveNoopSendsNothing", func(t *testing.T) {
		f := setupSession(t, Options{})
		singers := f.addSingers(t, "A", "B")
		changes := f.session.Subscribe(4)

		if err := f.session.Reorder().MoveSinger(singers[1].ID, 1); err != nil {
			t.Fatalf("failed to move: %v", err)
		}
		if len(changes) != 0 {
			t.Errorf("no-op move should not notify, got %d changes", len(changes))
		}
	})
}

func TestDrop(t *testing.T) {
	t.Run("SongOntoSinger", func(t *testing.T) {
		f := setupSession(t, Options{})
		singers := f.addSingers(t, "A", "B", "C")
		song := f.song(t, "One", time.Minute)
		_ = f.session.Rotation().SetCurrentSinger(singers[0].ID)

		res, err := f.session.Reorder().Drop(AddSongToSinger{SongID: song.ID}, DropTarget{SingerID: singers[2].ID})
		if err != nil {
			t.Fatalf("failed to drop: %v", err)
		}

		if res.Selected != singers[2].ID || res.Entry == nil || res.Entry.SingerID != singers[2].ID {
			t.Errorf("expected C selected with a new entry, got %+v", res)
		}
		if got := f.order(t); !slices.Equal(got, []string{"A", "B", "C"}) {
			t.Errorf("dropping a song should not reorder the rotation, got %v", got)
		}
		if cur, _ := f.session.Rotation().CurrentSinger(); cur.ID != singers[0].ID {
			t.Errorf("dropping a song should not move the cursor, got %s", cur.Name)
		}
	})

	t.Run("SongOntoEmptyRotation", func(t *testing.T) {
		f := setupSession(t, Options{})
		song := f.song(t, "One", time.Minute)

		if _, err := f.session.Reorder().Drop(AddSongToSinger{SongID: song.ID}, DropTarget{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without a name, got %v", err)
		}

		res, err := f.session.Reorder().Drop(AddSongToSinger{SongID: song.ID, NewSingerName: "Newcomer"}, DropTarget{})
		if err != nil {
			t.Fatalf("failed to drop: %v", err)
		}

		s, err := f.session.Rotation().Singer(res.Selected)
		if err != nil || s.Name != "Newcomer" {
			t.Fatalf("expected Newcomer to be created, got %v (%v)", s, err)
		}
		if _, unsung, _ := f.session.Queues().Counts(s.ID); unsung != 1 {
			t.Errorf("expected one queued song, got %d", unsung)
		}
	})

	t.Run("MoveSingers", func(t *testing.T) {
		f := setupSession(t, Options{})
		singers := f.addSingers(t, "A", "B", "C")

		if _, err := f.session.Reorder().Drop(MoveSingers{IDs: []int64{singers[2].ID}}, DropTarget{Position: 0}); err != nil {
			t.Fatalf("failed to drop: %v", err)
		}
		if got := f.order(t); !slices.Equal(got, []string{"C", "A", "B"}) {
			t.Errorf("unexpected order %v", got)
		}
	})

	t.Run("MoveQueueItems", func(t *testing.T) {
		f := setupSession(t, Options{})
		singers := f.addSingers(t, "A", "B")
		song := f.song(t, "One", time.Minute)
		a1 := f.enqueue(t, singers[0].ID, song.ID)
		a2 := f.enqueue(t, singers[0].ID, song.ID)

		payload := MoveQueueItems{SingerID: singers[0].ID, IDs: []int64{a2.ID}}
		if _, err := f.session.Reorder().Drop(payload, DropTarget{SingerID: singers[0].ID, Position: 0}); err != nil {
			t.Fatalf("failed to drop: %v", err)
		}
		entries, _ := f.session.Queues().Entries(singers[0].ID)
		if entries[0].ID != a2.ID || entries[1].ID != a1.ID {
			t.Errorf("expected entries reordered, got %+v", entries)
		}

		res, err := f.session.Reorder().Drop(payload, DropTarget{SingerID: singers[1].ID})
		if err != nil {
			t.Fatalf("failed to drop onto B: %v", err)
		}
		if res.Selected != singers[1].ID {
			t.Errorf("expected B selected, got %d", res.Selected)
		}
		if _, unsung, _ := f.session.Queues().Counts(singers[1].ID); unsung != 1 {
			t.Errorf("expected entry transferred to B, got %d", unsung)
		}
		if _, unsung, _ := f.session.Queues().Counts(singers[0].ID); unsung != 1 {
			t.Errorf("expected one entry left for A, got %d", unsung)
		}
	})

	t.Run("UnknownPayload", func(t *testing.T) {
		f := setupSession(t, Options{})
		if _, err := f.session.Reorder().Drop(&MoveSingers{}, DropTarget{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("UnknownSinger", func(t *testing.T) {
		f := setupSession(t, Options{})
		f.addSingers(t, "A")

		if _, err := f.session.Reorder().Drop(MoveSingers{IDs: []int64{404}}, DropTarget{}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := shared.DefaultConfig().Rotation
	cfg.InsertionPolicy = "fair"

	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if opts.Policy != models.Fair || opts.Pad != cfg.Pad() || opts.SkipEmpty != cfg.SkipEmptySingers {
		t.Errorf("unexpected options %+v", opts)
	}

	cfg.InsertionPolicy = "sideways"
	if _, err := OptionsFromConfig(cfg); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
