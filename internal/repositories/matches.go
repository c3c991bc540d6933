package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/listx/internal/models"
)

// MatchRepository caches accepted candidate resolutions keyed by [models.Candidate.Key].
//
// It satisfies tasks.MatchCache. Entries are overwritten, never soft-deleted.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Lookup returns the cached match for key, or nil when there is none.
func (r *MatchRepository) Lookup(ctx context.Context, key string) (*models.ReleaseMatch, error) {
	query := `
		SELECT candidate_key, release_id, release_title, release_artist, score, created_at, updated_at
		FROM release_matches
		WHERE candidate_key = ?
	`

	var m models.ReleaseMatch
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&m.CandidateKey, &m.ReleaseID, &m.ReleaseTitle, &m.ReleaseArtist, &m.Score, &m.Created, &m.Updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan release match: %w", err)
	}
	return &m, nil
}

// Store inserts or replaces the match for its candidate key.
func (r *MatchRepository) Store(ctx context.Context, m *models.ReleaseMatch) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if m.Created.IsZero() {
		m.Created = now
	}
	m.Updated = now

	query := `
		INSERT INTO release_matches (candidate_key, release_id, release_title, release_artist, score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(candidate_key) DO UPDATE SET
			release_id = excluded.release_id,
			release_title = excluded.release_title,
			release_artist = excluded.release_artist,
			score = excluded.score,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		m.CandidateKey, m.ReleaseID, m.ReleaseTitle, m.ReleaseArtist, m.Score, m.Created, m.Updated)
	if err != nil {
		return fmt.Errorf("failed to store release match: %w", err)
	}
	return nil
}

// Count returns the number of cached matches.
func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM release_matches").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count release matches: %w", err)
	}
	return n, nil
}

// Clear removes every cached match and returns how many were removed.
func (r *MatchRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM release_matches")
	if err != nil {
		return 0, fmt.Errorf("failed to clear release matches: %w", err)
	}
	return result.RowsAffected()
}
