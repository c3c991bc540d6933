package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Candidate is a (title, artist) pair recovered from document text. An empty Artist means absent.
type Candidate struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// HasArtist reports whether the candidate carries an artist.
func (c Candidate) HasArtist() bool {
	return strings.TrimSpace(c.Artist) != ""
}

func (c Candidate) String() string {
	if c.HasArtist() {
		return c.Title + " — " + c.Artist
	}
	return c.Title
}

// Key returns a case-insensitive identity used by the resolution cache.
func (c Candidate) Key() string {
	norm := func(s string) string { return strings.Join(strings.Fields(strings.ToLower(s)), " ") }
	return norm(c.Title) + "|" + norm(c.Artist)
}

// Release is the read-only view of a catalog record needed for scoring and track lookup.
//
// Each catalog client provides its own adapter type.
type Release interface {
	Title() string
	ArtistText() string
	ReleaseID() string
}

// CachedRelease is a [Release] rebuilt from a stored resolution.
type CachedRelease struct {
	ID     string
	Name   string
	Artist string
}

func (r CachedRelease) Title() string      { return r.Name }
func (r CachedRelease) ArtistText() string { return r.Artist }
func (r CachedRelease) ReleaseID() string  { return r.ID }

// ScoredRelease ranks one release against one candidate.
type ScoredRelease struct {
	Combined    int
	TitleScore  int
	ArtistScore int
	Release     Release
}

// Less reports whether s ranks strictly below other by (Combined, TitleScore, ArtistScore).
func (s ScoredRelease) Less(other ScoredRelease) bool {
	if s.Combined != other.Combined {
		return s.Combined < other.Combined
	}
	if s.TitleScore != other.TitleScore {
		return s.TitleScore < other.TitleScore
	}
	return s.ArtistScore < other.ArtistScore
}

// Playlist is a destination playlist on the catalog.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// RunResult summarizes one import run.
type RunResult struct {
	RunID            string      `json:"run_id"`
	Source           string      `json:"source"`
	PlaylistID       string      `json:"playlist_id"`
	PlaylistURL      string      `json:"playlist_url"`
	PlaylistTitle    string      `json:"playlist_title"`
	Candidates       int         `json:"candidates"`
	Processed        int         `json:"processed"`
	Matched          int         `json:"matched"`
	TotalTracksAdded int         `json:"total_tracks_added"`
	FailedBatches    int         `json:"failed_batches"`
	Unmatched        []Candidate `json:"unmatched"`
	StartedAt        time.Time   `json:"started_at"`
	CompletedAt      time.Time   `json:"completed_at"`
}

// Duration returns the elapsed run time, or zero while running.
func (r *RunResult) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// UnmatchedPreview returns at most n unmatched candidates.
func (r *RunResult) UnmatchedPreview(n int) []Candidate {
	if n < 0 || len(r.Unmatched) <= n {
		return r.Unmatched
	}
	return r.Unmatched[:n]
}

// RunStatus is the lifecycle state of a persisted run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCanceled  RunStatus = "canceled"
	RunFailed    RunStatus = "failed"
)

// ImportRun is the persisted history row for one import run.
type ImportRun struct {
	RunID         string      `json:"run_id"`
	Seq           int64       `json:"seq"`
	Source        string      `json:"source"`
	PlaylistID    string      `json:"playlist_id"`
	PlaylistURL   string      `json:"playlist_url"`
	PlaylistTitle string      `json:"playlist_title"`
	Status        RunStatus   `json:"status"`
	Candidates    int         `json:"candidates"`
	Matched       int         `json:"matched"`
	TracksAdded   int         `json:"tracks_added"`
	FailedBatches int         `json:"failed_batches"`
	Error         string      `json:"error,omitempty"`
	Unmatched     []Candidate `json:"unmatched"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	DeletedAt     *time.Time  `json:"-"`
}

func (r *ImportRun) ID() string           { return r.RunID }
func (r *ImportRun) CreatedAt() time.Time { return r.StartedAt }

func (r *ImportRun) UpdatedAt() time.Time {
	if r.CompletedAt != nil {
		return *r.CompletedAt
	}
	return r.StartedAt
}

func (r *ImportRun) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.Source == "" {
		return fmt.Errorf("run source is required")
	}
	switch r.Status {
	case RunRunning, RunCompleted, RunCanceled, RunFailed:
	default:
		return fmt.Errorf("unknown run status %q", r.Status)
	}
	return nil
}

// Result converts the history row back into a [RunResult].
func (r *ImportRun) Result() *RunResult {
	res := &RunResult{
		RunID:            r.RunID,
		Source:           r.Source,
		PlaylistID:       r.PlaylistID,
		PlaylistURL:      r.PlaylistURL,
		PlaylistTitle:    r.PlaylistTitle,
		Candidates:       r.Candidates,
		Matched:          r.Matched,
		TotalTracksAdded: r.TracksAdded,
		FailedBatches:    r.FailedBatches,
		Unmatched:        r.Unmatched,
		StartedAt:        r.StartedAt,
	}
	if r.CompletedAt != nil {
		res.CompletedAt = *r.CompletedAt
	}
	return res
}

// ReleaseMatch is a cached resolution from a candidate key to a catalog release.
type ReleaseMatch struct {
	CandidateKey  string
	ReleaseID     string
	ReleaseTitle  string
	ReleaseArtist string
	Score         int
	Created       time.Time
	Updated       time.Time
}

func (m *ReleaseMatch) ID() string           { return m.CandidateKey }
func (m *ReleaseMatch) CreatedAt() time.Time { return m.Created }
func (m *ReleaseMatch) UpdatedAt() time.Time { return m.Updated }

func (m *ReleaseMatch) Validate() error {
	if m.CandidateKey == "" {
		return fmt.Errorf("candidate key is required")
	}
	if m.ReleaseID == "" {
		return fmt.Errorf("release id is required")
	}
	if m.Score < 0 || m.Score > 100 {
		return fmt.Errorf("score %d out of range", m.Score)
	}
	return nil
}

// Release returns the cached release as a [Release].
func (m *ReleaseMatch) Release() Release {
	return CachedRelease{ID: m.ReleaseID, Name: m.ReleaseTitle, Artist: m.ReleaseArtist}
}
