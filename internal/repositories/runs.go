package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
)

const runColumns = `id, seq, source, playlist_id, playlist_url, playlist_title, status,
	candidates, matched, tracks_added, failed_batches, error, started_at, completed_at, deleted_at`

// RunRepository persists import run history.
//
// It satisfies tasks.RunRecorder so the engine can record runs as they start and finish.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run with the next sequence number, generating an ID when none is set.
func (r *RunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	sequence, err := NextSequence(ctx, r.db, "import_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.RunID == "" {
		run.RunID = shared.GenerateID()
	}
	if run.Status == "" {
		run.Status = models.RunRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Seq = int64(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO import_runs (
			id, seq, source, playlist_id, playlist_url, playlist_title, status,
			candidates, matched, tracks_added, failed_batches, error, started_at, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.RunID,
		run.Seq,
		run.Source,
		run.PlaylistID,
		run.PlaylistURL,
		run.PlaylistTitle,
		string(run.Status),
		run.Candidates,
		run.Matched,
		run.TracksAdded,
		run.FailedBatches,
		run.Error,
		run.StartedAt,
		nullableTime(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	return nil
}

// Complete stores the final counters of a run and replaces its unmatched candidates.
func (r *RunRepository) Complete(ctx context.Context, run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE import_runs
		SET playlist_id = ?, playlist_url = ?, status = ?, matched = ?, tracks_added = ?,
			failed_batches = ?, error = ?, completed_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := tx.ExecContext(ctx, query,
		run.PlaylistID,
		run.PlaylistURL,
		string(run.Status),
		run.Matched,
		run.TracksAdded,
		run.FailedBatches,
		run.Error,
		nullableTime(run.CompletedAt),
		run.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.RunID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM unmatched_candidates WHERE run_id = ?", run.RunID); err != nil {
		return fmt.Errorf("failed to clear unmatched candidates: %w", err)
	}

	for i, c := range run.Unmatched {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO unmatched_candidates (run_id, position, title, artist) VALUES (?, ?, ?, ?)",
			run.RunID, i, c.Title, c.Artist)
		if err != nil {
			return fmt.Errorf("failed to insert unmatched candidate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import run: %w", err)
	}
	return nil
}

// Get retrieves a run and its unmatched candidates, excluding soft-deleted runs.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if run.Unmatched, err = r.unmatched(ctx, run.RunID); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first. A non-positive limit returns every run.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE deleted_at IS NULL ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, run := range runs {
		if run.Unmatched, err = r.unmatched(ctx, run.RunID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE import_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete import run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return nil
}

func (r *RunRepository) unmatched(ctx context.Context, runID string) ([]models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT title, artist FROM unmatched_candidates WHERE run_id = ? ORDER BY position ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmatched candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.Title, &c.Artist); err != nil {
			return nil, fmt.Errorf("failed to scan unmatched candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return candidates, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a [models.ImportRun]
func scanRun(row scanner) (*models.ImportRun, error) {
	var (
		run         models.ImportRun
		status      string
		completedAt sql.NullTime
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&run.RunID, &run.Seq, &run.Source, &run.PlaylistID, &run.PlaylistURL, &run.PlaylistTitle, &status,
		&run.Candidates, &run.Matched, &run.TracksAdded, &run.FailedBatches, &run.Error,
		&run.StartedAt, &completedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import run: %w", err)
	}

	run.Status = models.RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if deletedAt.Valid {
		run.DeletedAt = &deletedAt.Time
	}
	return &run, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
