package rotation

import (
	"testing"
	"time"

	"github.com/desertthunder/kjx/internal/models"
)

func load(id int64, pos int, next time.Duration) SingerLoad {
	return SingerLoad{SingerID: id, Name: string(rune('A' + pos)), Position: pos, HasNext: next > 0, NextSong: next, KnownLength: next > 0}
}

func TestEstimate(t *testing.T) {
	opts := EstimateOptions{Pad: 10 * time.Second, DefaultSongLength: 4 * time.Minute}
	abc := []SingerLoad{load(1, 0, 60*time.Second), load(2, 1, 90*time.Second), load(3, 2, 120*time.Second)}

	t.Run("Wraparound", func(t *testing.T) {
		got := Estimate(Snapshot{Singers: abc, CurrentID: 1}, opts)

		a, _ := got.For(1)
		if !a.Current {
			t.Error("A should be marked current")
		}

		if b, _ := got.For(2); b.Wait != 70*time.Second {
			t.Errorf("expected B to wait 70s, got %v", b.Wait)
		}
		if c, _ := got.For(3); c.Wait != 170*time.Second {
			t.Errorf("expected C to wait 170s, got %v", c.Wait)
		}
		if got.Total != 300*time.Second {
			t.Errorf("expected total 300s, got %v", got.Total)
		}
	})

	t.Run("BeforeCursor", func(t *testing.T) {
		got := Estimate(Snapshot{Singers: abc, CurrentID: 3}, opts)

		// C(130) then A(70)
		if b, _ := got.For(2); b.Wait != 200*time.Second {
			t.Errorf("expected B to wait 200s, got %v", b.Wait)
		}
		if a, _ := got.For(1); a.Wait != 130*time.Second {
			t.Errorf("expected A to wait 130s, got %v", a.Wait)
		}
		if got.Total != 300*time.Second {
			t.Errorf("total should not depend on the cursor, got %v", got.Total)
		}
	})

	t.Run("LiveRemaining", func(t *testing.T) {
		got := Estimate(Snapshot{Singers: abc, CurrentID: 1, HasLive: true, LiveRemaining: 15 * time.Second}, opts)

		if c, _ := got.For(3); c.Wait != 125*time.Second {
			t.Errorf("expected C to wait 125s, got %v", c.Wait)
		}
		if got.Total != 300*time.Second {
			t.Errorf("live time should not change the total, got %v", got.Total)
		}
	})

	t.Run("NoCursor", func(t *testing.T) {
		got := Estimate(Snapshot{Singers: abc, HasLive: true, LiveRemaining: time.Second}, opts)

		a, _ := got.For(1)
		if a.Current || a.Wait != 0 {
			t.Errorf("A should be first up with no wait, got %+v", a)
		}
		if c, _ := got.For(3); c.Wait != 170*time.Second {
			t.Errorf("expected C to wait 170s from the top, got %v", c.Wait)
		}
	})

	t.Run("EmptySingers", func(t *testing.T) {
		singers := []SingerLoad{load(1, 0, 60*time.Second), load(2, 1, 0), load(3, 2, 60*time.Second)}

		skip := opts
		skip.SkipEmpty = true
		if c, _ := Estimate(Snapshot{Singers: singers, CurrentID: 1}, skip).For(3); c.Wait != 70*time.Second {
			t.Errorf("empty singer should add nothing when skipped, got %v", c.Wait)
		}

		if c, _ := Estimate(Snapshot{Singers: singers, CurrentID: 1}, opts).For(3); c.Wait != 70*time.Second+250*time.Second {
			t.Errorf("empty singer should add the default length and pad, got %v", c.Wait)
		}
	})

	t.Run("UnknownLength", func(t *testing.T) {
		singers := []SingerLoad{load(1, 0, 60*time.Second), {SingerID: 2, Position: 1, HasNext: true}, load(3, 2, 60*time.Second)}

		skip := opts
		skip.SkipEmpty = true
		if c, _ := Estimate(Snapshot{Singers: singers, CurrentID: 1}, skip).For(3); c.Wait != 320*time.Second {
			t.Errorf("unknown length should use the default, got %v", c.Wait)
		}
	})

	t.Run("CurrentCounts", func(t *testing.T) {
		singers := []SingerLoad{{SingerID: 1, Position: 0, Sung: 2, Unsung: 1}}
		a, ok := Estimate(Snapshot{Singers: singers, CurrentID: 1}, opts).For(1)
		if !ok || !a.Current || a.Sung != 2 || a.Unsung != 1 {
			t.Errorf("current singer should report song counts, got %+v", a)
		}
	})

	t.Run("StaleCursor", func(t *testing.T) {
		got := Estimate(Snapshot{Singers: abc, CurrentID: 99}, opts)
		if b, _ := got.For(2); b.Wait != 70*time.Second {
			t.Errorf("unknown cursor should count from the top, got %v", b.Wait)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		got := Estimate(Snapshot{CurrentID: models.NoSinger}, opts)
		if len(got.Singers) != 0 || got.Total != 0 {
			t.Errorf("expected empty estimate, got %+v", got)
		}
	})
}

func TestSessionWaits(t *testing.T) {
	f := setupSession(t, Options{Pad: 10 * time.Second, DefaultSongLength: 3 * time.Minute, SkipEmpty: true})
	singers := f.addSingers(t, "A", "B", "C")
	f.enqueue(t, singers[0].ID, f.song(t, "One", 60*time.Second).ID)
	f.enqueue(t, singers[1].ID, f.song(t, "Two", 90*time.Second).ID)
	f.enqueue(t, singers[2].ID, f.song(t, "Three", 120*time.Second).ID)

	if err := f.session.Rotation().SetCurrentSinger(singers[0].ID); err != nil {
		t.Fatalf("failed to set current: %v", err)
	}

	waits, err := f.session.Waits()
	if err != nil {
		t.Fatalf("failed to estimate: %v", err)
	}
	if c, _ := waits.For(singers[2].ID); c.Wait != 170*time.Second {
		t.Errorf("expected C to wait 170s, got %v", c.Wait)
	}
	if waits.Total != 300*time.Second {
		t.Errorf("expected total 300s, got %v", waits.Total)
	}

	f.session.SetLiveRemaining(20*time.Second, true)
	waits, _ = f.session.Waits()
	if b, _ := waits.For(singers[1].ID); b.Wait != 30*time.Second {
		t.Errorf("expected B to wait 30s with live time, got %v", b.Wait)
	}
}
