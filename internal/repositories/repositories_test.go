package repositories

import (
	"database/sql"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func createSingers(t *testing.T, repo *SingerRepository, names ...string) []*models.Singer {
	t.Helper()

	var singers []*models.Singer
	for _, name := range names {
		s := &models.Singer{Name: name}
		if err := repo.Create(s); err != nil {
			t.Fatalf("failed to create singer %s: %v", name, err)
		}
		singers = append(singers, s)
	}
	return singers
}

func createSong(t *testing.T, repo *SongRepository, title string, durationMS int) *models.Song {
	t.Helper()

	song := &models.Song{Artist: "Artist", Title: title, DurationMS: durationMS}
	if err := repo.Create(song); err != nil {
		t.Fatalf("failed to create song %s: %v", title, err)
	}
	return song
}

func singerNames(t *testing.T, repo *SingerRepository) []string {
	t.Helper()

	singers, err := repo.List(nil)
	if err != nil {
		t.Fatalf("failed to list singers: %v", err)
	}

	names := make([]string, len(singers))
	for i, s := range singers {
		if s.Position != i {
			t.Errorf("singer %s at index %d has position %d", s.Name, i, s.Position)
		}
		names[i] = s.Name
	}
	return names
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name    string
		current []int64
		ids     []int64
		target  int
		want    []int64
	}{
		{"move down", []int64{1, 2, 3, 4}, []int64{1}, 2, []int64{2, 3, 1, 4}},
		{"move up", []int64{1, 2, 3, 4}, []int64{4}, 1, []int64{1, 4, 2, 3}},
		{"same position", []int64{1, 2, 3}, []int64{2}, 1, []int64{1, 2, 3}},
		{"beyond end clamps", []int64{1, 2, 3}, []int64{1}, 99, []int64{2, 3, 1}},
		{"negative clamps", []int64{1, 2, 3}, []int64{3}, -4, []int64{3, 1, 2}},
		{"block keeps caller order", []int64{1, 2, 3, 4, 5}, []int64{5, 2}, 0, []int64{5, 2, 1, 3, 4}},
		{"block to bottom", []int64{1, 2, 3, 4, 5}, []int64{1, 3}, 5, []int64{2, 4, 5, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reorder(tt.current, tt.ids, tt.target)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Reorder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderedStore(t *testing.T) {
	t.Run("Contiguity", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		singers := createSingers(t, repo, "A", "B", "C", "D", "E")

		if _, err := repo.Move([]int64{singers[0].ID}, 3); err != nil {
			t.Fatalf("failed to move: %v", err)
		}
		if err := repo.Delete(singers[2].ID); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		createSingers(t, repo, "F")
		if _, err := repo.Move([]int64{singers[4].ID, singers[1].ID}, 0); err != nil {
			t.Fatalf("failed to move block: %v", err)
		}

		got := singerNames(t, repo)
		want := []string{"E", "B", "D", "A", "F"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}

		if err := repo.Store().Verify(0); err != nil {
			t.Errorf("expected contiguous positions, got %v", err)
		}
	})

	t.Run("MoveNoop", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		singers := createSingers(t, repo, "A", "B", "C")

		changed, err := repo.Move([]int64{singers[1].ID}, 1)
		if err != nil {
			t.Fatalf("failed to move: %v", err)
		}
		if changed {
			t.Error("moving to the same position should not change anything")
		}
	})

	t.Run("MoveUnknownID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		singers := createSingers(t, repo, "A", "B", "C")

		_, err := repo.Move([]int64{singers[2].ID, 999}, 0)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		got := singerNames(t, repo)
		if !slices.Equal(got, []string{"A", "B", "C"}) {
			t.Errorf("failed move should leave order unchanged, got %v", got)
		}
	})

	t.Run("Repair", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		createSingers(t, repo, "A", "B", "C")

		if _, err := db.Exec("UPDATE singers SET position = position * 10"); err != nil {
			t.Fatalf("failed to corrupt positions: %v", err)
		}

		if err := repo.Store().Verify(0); !errors.Is(err, shared.ErrInvariantViolation) {
			t.Fatalf("expected invariant violation, got %v", err)
		}

		n, err := repo.Store().Repair(0)
		if err != nil {
			t.Fatalf("failed to repair: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 rows repaired, got %d", n)
		}

		got := singerNames(t, repo)
		if !slices.Equal(got, []string{"A", "B", "C"}) {
			t.Errorf("repair should keep relative order, got %v", got)
		}
	})

	t.Run("AutomaticRepair", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		createSingers(t, repo, "A", "B")

		if _, err := db.Exec("UPDATE singers SET position = 5 WHERE name = 'B'"); err != nil {
			t.Fatalf("failed to corrupt positions: %v", err)
		}

		createSingers(t, repo, "C")

		if err := repo.Store().Verify(0); err != nil {
			t.Errorf("insert should have repaired positions: %v", err)
		}
		if got := singerNames(t, repo); !slices.Equal(got, []string{"A", "C", "B"}) {
			t.Errorf("unexpected order after repair: %v", got)
		}
	})
}

func TestSingerRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		singers := createSingers(t, repo, "Alice", "Bob")

		if singers[1].Position != 1 {
			t.Errorf("expected second singer at position 1, got %d", singers[1].Position)
		}

		retrieved, err := repo.Get(singers[0].ID)
		if err != nil {
			t.Fatalf("failed to get singer: %v", err)
		}
		if retrieved.Name != "Alice" {
			t.Errorf("expected Alice, got %s", retrieved.Name)
		}
		if retrieved.CreatedAt.IsZero() {
			t.Error("created_at should be set")
		}
	})

	t.Run("Validation", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		if err := repo.Create(&models.Singer{Name: "  "}); err == nil {
			t.Fatal("expected validation error for blank name")
		}
	})

	t.Run("GetByName", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		createSingers(t, repo, "Mary Jane")

		s, err := repo.GetByName("  mary   JANE ")
		if err != nil {
			t.Fatalf("expected case-insensitive match: %v", err)
		}
		if s.Name != "Mary Jane" {
			t.Errorf("unexpected singer %s", s.Name)
		}

		if _, err := repo.GetByName("nobody"); !errors.Is(err, shared.ErrSingerNotFound) {
			t.Errorf("expected ErrSingerNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		singers := createSingers(t, repo, "A")

		singers[0].Name = "Renamed"
		singers[0].Regular = true
		if err := repo.Update(singers[0]); err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		got, _ := repo.Get(singers[0].ID)
		if got.Name != "Renamed" || !got.Regular {
			t.Errorf("update not persisted: %+v", got)
		}

		if err := repo.Update(&models.Singer{ID: 42, Name: "ghost"}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("Delete cascades queue", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		singers := NewSingerRepository(db, testLogger())
		queue := NewQueueRepository(db, testLogger())
		song := createSong(t, NewSongRepository(db), "Song", 1000)
		created := createSingers(t, singers, "A", "B", "C")

		if err := queue.Create(&models.QueueEntry{SingerID: created[0].ID, SongID: song.ID}); err != nil {
			t.Fatalf("failed to enqueue: %v", err)
		}

		if err := singers.Delete(created[0].ID); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		entries, err := queue.ForSinger(created[0].ID)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected queue to be deleted with singer, got %d entries", len(entries))
		}

		if got := singerNames(t, singers); !slices.Equal(got, []string{"B", "C"}) {
			t.Errorf("unexpected order %v", got)
		}

		if err := singers.Delete(created[0].ID); !errors.Is(err, shared.ErrSingerNotFound) {
			t.Errorf("expected ErrSingerNotFound, got %v", err)
		}
	})

	t.Run("AtPosition", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		createSingers(t, repo, "A", "B")

		s, err := repo.AtPosition(1)
		if err != nil || s.Name != "B" {
			t.Errorf("expected B at position 1, got %v (%v)", s, err)
		}

		if _, err := repo.AtPosition(2); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("Transaction rollback", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSingerRepository(db, testLogger())
		createSingers(t, repo, "A")

		errBoom := errors.New("boom")
		err := WithTx(db, func(tx *sql.Tx) error {
			if err := repo.WithTx(tx).Create(&models.Singer{Name: "B"}); err != nil {
				return err
			}
			return errBoom
		})
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}

		if got := singerNames(t, repo); !slices.Equal(got, []string{"A"}) {
			t.Errorf("rolled back insert should not persist, got %v", got)
		}
	})
}

func TestQueueRepository(t *testing.T) {
	setup := func(t *testing.T) (*sql.DB, *QueueRepository, []*models.Singer, []*models.Song) {
		db := setupTestDB(t)
		singers := createSingers(t, NewSingerRepository(db, testLogger()), "X", "Y")
		songs := NewSongRepository(db)
		return db, NewQueueRepository(db, testLogger()), singers, []*models.Song{
			createSong(t, songs, "One", 60000),
			createSong(t, songs, "Two", 90000),
			createSong(t, songs, "Three", -1),
		}
	}

	enqueue := func(t *testing.T, repo *QueueRepository, singerID, songID int64) *models.QueueEntry {
		t.Helper()
		e := &models.QueueEntry{SingerID: singerID, SongID: songID}
		if err := repo.Create(e); err != nil {
			t.Fatalf("failed to enqueue: %v", err)
		}
		return e
	}

	t.Run("Isolation", func(t *testing.T) {
		db, repo, singers, songs := setup(t)
		defer db.Close()

		x := enqueue(t, repo, singers[0].ID, songs[0].ID)
		enqueue(t, repo, singers[1].ID, songs[0].ID)
		enqueue(t, repo, singers[1].ID, songs[1].ID)

		if x.Position != 0 {
			t.Errorf("expected first entry at 0, got %d", x.Position)
		}

		if err := repo.Delete(x.ID); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		entries, _ := repo.ForSinger(singers[1].ID)
		for i, e := range entries {
			if e.Position != i {
				t.Errorf("singer Y entry %d has position %d", i, e.Position)
			}
		}
	})

	t.Run("NextUnplayed & Counts", func(t *testing.T) {
		db, repo, singers, songs := setup(t)
		defer db.Close()

		first := enqueue(t, repo, singers[0].ID, songs[0].ID)
		second := enqueue(t, repo, singers[0].ID, songs[1].ID)

		if err := repo.SetPlayed(first.ID, true); err != nil {
			t.Fatalf("failed to mark played: %v", err)
		}

		next, err := repo.NextUnplayed(singers[0].ID)
		if err != nil {
			t.Fatalf("failed to get next unplayed: %v", err)
		}
		if next.ID != second.ID {
			t.Errorf("expected entry %d, got %d", second.ID, next.ID)
		}

		sung, unsung, err := repo.Counts(singers[0].ID)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if sung != 1 || unsung != 1 {
			t.Errorf("expected 1 sung / 1 unsung, got %d / %d", sung, unsung)
		}

		if _, err := repo.NextUnplayed(singers[1].ID); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("expected no entry for empty queue, got %v", err)
		}
	})

	t.Run("Move", func(t *testing.T) {
		db, repo, singers, songs := setup(t)
		defer db.Close()

		a := enqueue(t, repo, singers[0].ID, songs[0].ID)
		b := enqueue(t, repo, singers[0].ID, songs[1].ID)
		c := enqueue(t, repo, singers[0].ID, songs[2].ID)

		if _, err := repo.Move(singers[0].ID, []int64{c.ID}, 0); err != nil {
			t.Fatalf("failed to move: %v", err)
		}

		entries, _ := repo.ForSinger(singers[0].ID)
		got := []int64{entries[0].ID, entries[1].ID, entries[2].ID}
		if !slices.Equal(got, []int64{c.ID, a.ID, b.ID}) {
			t.Errorf("unexpected order %v", got)
		}

		if _, err := repo.Move(singers[1].ID, []int64{a.ID}, 0); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("moving another singer's entry should be not found, got %v", err)
		}
	})

	t.Run("KeyChange", func(t *testing.T) {
		db, repo, singers, songs := setup(t)
		defer db.Close()

		e := enqueue(t, repo, singers[0].ID, songs[0].ID)
		if err := repo.SetKeyChange(e.ID, -3); err != nil {
			t.Fatalf("failed to set key: %v", err)
		}

		got, _ := repo.Get(e.ID)
		if got.KeyChange != -3 {
			t.Errorf("expected key change -3, got %d", got.KeyChange)
		}

		if err := repo.SetKeyChange(999, 1); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db, repo, singers, songs := setup(t)
		defer db.Close()

		enqueue(t, repo, singers[0].ID, songs[0].ID)
		enqueue(t, repo, singers[1].ID, songs[0].ID)

		if err := repo.DeleteForSinger(singers[0].ID); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		all, _ := repo.List(nil)
		if len(all) != 1 {
			t.Errorf("expected 1 entry left, got %d", len(all))
		}

		if err := repo.DeleteAll(); err != nil {
			t.Fatalf("failed to clear all: %v", err)
		}
		all, _ = repo.List(nil)
		if len(all) != 0 {
			t.Errorf("expected no entries, got %d", len(all))
		}
	})
}

func TestSongRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewSongRepository(db)
	song := &models.Song{Artist: "Queen", Title: "Bohemian Rhapsody", SongID: "SC1001-01", DurationMS: models.UnknownDuration}
	if err := repo.Create(song); err != nil {
		t.Fatalf("failed to create song: %v", err)
	}

	if _, known := song.Duration(); known {
		t.Error("duration should be unknown")
	}

	if err := repo.SetDuration(song.ID, 354000); err != nil {
		t.Fatalf("failed to set duration: %v", err)
	}

	got, err := repo.Song(song.ID)
	if err != nil {
		t.Fatalf("failed to get song: %v", err)
	}
	if d, known := got.Duration(); !known || d.Seconds() != 354 {
		t.Errorf("expected 354s, got %v (%v)", d, known)
	}

	found, err := repo.List(map[string]any{"query": "sc1001"})
	if err != nil || len(found) != 1 {
		t.Errorf("expected to find song by id, got %d (%v)", len(found), err)
	}

	if _, err := repo.Get(999); !errors.Is(err, shared.ErrSongNotFound) {
		t.Errorf("expected ErrSongNotFound, got %v", err)
	}
}

func TestRegularRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRegularRepository(db)
	songs := NewSongRepository(db)
	one := createSong(t, songs, "One", 1000)
	two := createSong(t, songs, "Two", 1000)

	regular := &models.RegularSinger{Name: "Dana"}
	if err := repo.Create(regular); err != nil {
		t.Fatalf("failed to create regular: %v", err)
	}

	exists, err := repo.Exists("DANA")
	if err != nil || !exists {
		t.Errorf("expected profile to exist case-insensitively, got %v (%v)", exists, err)
	}

	if err := repo.Create(&models.RegularSinger{Name: "dana"}); !errors.Is(err, shared.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}

	if err := repo.ReplaceSongs(regular.ID, []models.RegularSong{{SongID: two.ID, KeyChange: 2}, {SongID: one.ID}}); err != nil {
		t.Fatalf("failed to replace songs: %v", err)
	}
	if err := repo.ReplaceSongs(regular.ID, []models.RegularSong{{SongID: one.ID}, {SongID: two.ID, KeyChange: 2}}); err != nil {
		t.Fatalf("failed to replace songs: %v", err)
	}

	stored, err := repo.Songs(regular.ID)
	if err != nil {
		t.Fatalf("failed to list songs: %v", err)
	}
	if len(stored) != 2 || stored[0].SongID != one.ID || stored[1].KeyChange != 2 {
		t.Errorf("unexpected profile songs: %+v", stored)
	}

	if err := repo.Delete(regular.ID); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := repo.GetByName("Dana"); !errors.Is(err, shared.ErrRegularNotFound) {
		t.Errorf("expected ErrRegularNotFound, got %v", err)
	}
}

func TestStateRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewStateRepository(db)

	id, err := repo.CurrentSinger()
	if err != nil {
		t.Fatalf("failed to read cursor: %v", err)
	}
	if id != models.NoSinger {
		t.Errorf("expected no current singer, got %d", id)
	}

	for _, want := range []int64{7, 3, models.NoSinger} {
		if err := repo.SetCurrentSinger(want); err != nil {
			t.Fatalf("failed to set cursor: %v", err)
		}
		got, err := repo.CurrentSinger()
		if err != nil {
			t.Fatalf("failed to read cursor: %v", err)
		}
		if got != want {
			t.Errorf("expected cursor %d, got %d", want, got)
		}
	}
}

// crud drives a repository through the generic contract only.
func crud[T models.Model](t *testing.T, repo models.Repository[T], model T) {
	t.Helper()

	if err := repo.Create(model); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id := model.Key()
	if id == 0 {
		t.Fatal("expected Create to assign an id")
	}

	got, err := repo.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Key() != id {
		t.Errorf("expected id %d, got %d", id, got.Key())
	}

	all, err := repo.List(nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !slices.ContainsFunc(all, func(m T) bool { return m.Key() == id }) {
		t.Errorf("expected List to include %d", id)
	}

	if err := repo.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(id); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(id); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestRepositoryContract(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	singers := NewSingerRepository(db, testLogger())
	songs := NewSongRepository(db)

	t.Run("Singer", func(t *testing.T) {
		crud(t, models.Repository[*models.Singer](singers), &models.Singer{Name: "Alice"})
	})

	t.Run("Song", func(t *testing.T) {
		crud(t, models.Repository[*models.Song](songs), &models.Song{Artist: "Toto", Title: "Africa", DurationMS: 295000})
	})

	t.Run("QueueEntry", func(t *testing.T) {
		owner := createSingers(t, singers, "Bob")[0]
		song := createSong(t, songs, "Waterloo", 165000)
		crud(t, models.Repository[*models.QueueEntry](NewQueueRepository(db, testLogger())),
			&models.QueueEntry{SingerID: owner.ID, SongID: song.ID})
	})

	t.Run("RegularSinger", func(t *testing.T) {
		crud(t, models.Repository[*models.RegularSinger](NewRegularRepository(db)), &models.RegularSinger{Name: "Carol"})
	})
}
