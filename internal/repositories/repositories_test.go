package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
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

	t.Cleanup(func() { db.Close() })
	return db
}

func newRun(source string) *models.ImportRun {
	return &models.ImportRun{
		Source:        source,
		PlaylistTitle: "Imported from PDF",
		Candidates:    3,
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(context.Background(), db, "import_runs")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(context.Background(), db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestRunRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("albums.txt")

		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.RunID == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Seq != 1 || run.Status != models.RunRunning {
			t.Errorf("unexpected run defaults %+v", run)
		}
	})

	t.Run("Create keeps caller ID", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("albums.txt")
		run.RunID = "run-1"

		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if _, err := repo.Get(ctx, "run-1"); err != nil {
			t.Errorf("expected run-1 to exist: %v", err)
		}
	})

	t.Run("Create validation error", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Create(ctx, &models.ImportRun{}); err == nil {
			t.Error("expected validation error for run without source")
		}
	})

	t.Run("Complete and Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("albums.txt")
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		done := time.Now().UTC()
		run.Status = models.RunCompleted
		run.PlaylistID = "pl-1"
		run.PlaylistURL = "https://catalog.test/playlist/pl-1"
		run.Matched = 1
		run.TracksAdded = 12
		run.FailedBatches = 1
		run.CompletedAt = &done
		run.Unmatched = []models.Candidate{{Title: "B", Artist: "Two"}, {Title: "A"}}

		if err := repo.Complete(ctx, run); err != nil {
			t.Fatalf("failed to complete run: %v", err)
		}

		got, err := repo.Get(ctx, run.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != models.RunCompleted || got.TracksAdded != 12 || got.PlaylistID != "pl-1" {
			t.Errorf("unexpected run %+v", got)
		}
		if got.CompletedAt == nil {
			t.Error("expected completion time")
		}
		if len(got.Unmatched) != 2 || got.Unmatched[0].Title != "B" || got.Unmatched[1].Artist != "" {
			t.Errorf("expected unmatched in order, got %v", got.Unmatched)
		}

		res := got.Result()
		if res.TotalTracksAdded != 12 || res.PlaylistURL != run.PlaylistURL {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("Complete replaces unmatched", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("albums.txt")
		repo.Create(ctx, run)

		run.Unmatched = []models.Candidate{{Title: "A"}, {Title: "B"}}
		repo.Complete(ctx, run)
		run.Unmatched = []models.Candidate{{Title: "C"}}
		if err := repo.Complete(ctx, run); err != nil {
			t.Fatalf("failed to complete run: %v", err)
		}

		got, _ := repo.Get(ctx, run.RunID)
		if len(got.Unmatched) != 1 || got.Unmatched[0].Title != "C" {
			t.Errorf("expected replaced unmatched, got %v", got.Unmatched)
		}
	})

	t.Run("Complete unknown run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("albums.txt")
		run.RunID = "ghost"
		run.Status = models.RunCompleted

		if err := repo.Complete(ctx, run); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "nonexistent"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("List newest first", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for _, src := range []string{"one.txt", "two.txt", "three.txt"} {
			if err := repo.Create(ctx, newRun(src)); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].Source != "three.txt" || runs[1].Source != "two.txt" {
			t.Errorf("unexpected order %s, %s", runs[0].Source, runs[1].Source)
		}

		all, _ := repo.List(ctx, 0)
		if len(all) != 3 {
			t.Errorf("expected 3 runs without limit, got %d", len(all))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("albums.txt")
		repo.Create(ctx, run)

		if err := repo.Delete(ctx, run.RunID); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get(ctx, run.RunID); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("deleted run should not be found, got %v", err)
		}
		if runs, _ := repo.List(ctx, 0); len(runs) != 0 {
			t.Errorf("deleted run should not be listed, got %d", len(runs))
		}
		if err := repo.Delete(ctx, run.RunID); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound on second delete, got %v", err)
		}
	})
}

func TestMatchRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Lookup miss", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		m, err := repo.Lookup(ctx, "nothing|here")
		if err != nil || m != nil {
			t.Errorf("expected nil, nil; got %+v, %v", m, err)
		}
	})

	t.Run("Store and Lookup", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		c := models.Candidate{Title: "Kid A", Artist: "Radiohead"}
		m := &models.ReleaseMatch{CandidateKey: c.Key(), ReleaseID: "r1", ReleaseTitle: "Kid A", ReleaseArtist: "Radiohead", Score: 100}

		if err := repo.Store(ctx, m); err != nil {
			t.Fatalf("failed to store match: %v", err)
		}

		got, err := repo.Lookup(ctx, c.Key())
		if err != nil {
			t.Fatalf("failed to lookup match: %v", err)
		}
		if got == nil || got.ReleaseID != "r1" || got.Score != 100 {
			t.Errorf("unexpected match %+v", got)
		}
		if rel := got.Release(); rel.Title() != "Kid A" || rel.ArtistText() != "Radiohead" {
			t.Errorf("unexpected release %+v", rel)
		}
	})

	t.Run("Store overwrites", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		repo.Store(ctx, &models.ReleaseMatch{CandidateKey: "k", ReleaseID: "r1", ReleaseTitle: "a", Score: 80})
		if err := repo.Store(ctx, &models.ReleaseMatch{CandidateKey: "k", ReleaseID: "r2", ReleaseTitle: "b", Score: 90}); err != nil {
			t.Fatalf("failed to overwrite match: %v", err)
		}

		got, _ := repo.Lookup(ctx, "k")
		if got.ReleaseID != "r2" || got.Score != 90 {
			t.Errorf("expected overwritten match, got %+v", got)
		}
		if n, _ := repo.Count(ctx); n != 1 {
			t.Errorf("expected 1 match, got %d", n)
		}
	})

	t.Run("Store validation error", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		tests := []*models.ReleaseMatch{
			{ReleaseID: "r1", Score: 80},
			{CandidateKey: "k", Score: 80},
			{CandidateKey: "k", ReleaseID: "r1", Score: 101},
		}
		for _, m := range tests {
			if err := repo.Store(ctx, m); err == nil {
				t.Errorf("expected validation error for %+v", m)
			}
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		repo.Store(ctx, &models.ReleaseMatch{CandidateKey: "a", ReleaseID: "1", ReleaseTitle: "a", Score: 80})
		repo.Store(ctx, &models.ReleaseMatch{CandidateKey: "b", ReleaseID: "2", ReleaseTitle: "b", Score: 80})

		n, err := repo.Clear(ctx)
		if err != nil || n != 2 {
			t.Errorf("expected 2 cleared, got %d, %v", n, err)
		}
		if c, _ := repo.Count(ctx); c != 0 {
			t.Errorf("expected empty cache, got %d", c)
		}
	})
}
