// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/listx/internal/models"
)

// Release builds a [models.Release] for canned search results.
func Release(id, title, artist string) models.Release {
	return models.CachedRelease{ID: id, Name: title, Artist: artist}
}

// MockCatalog is a test double for services.Catalog.
//
// Search results, track lists and failures are keyed by query or release id.
// Batch failures are keyed by the zero-based index of the primary/legacy call.
type MockCatalog struct {
	mu sync.Mutex

	Results   map[string][]models.Release
	SearchErr map[string]error
	Tracks    map[string][]string
	TracksErr map[string]error
	CreateErr error

	FailPrimary map[int]bool
	FailLegacy  map[int]bool

	Queries      []string
	TrackLookups []string
	Playlists    []models.Playlist
	Added        [][]string
	PrimaryCalls int
	LegacyCalls  int
}

// NewMockCatalog returns an empty [MockCatalog].
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Results:     map[string][]models.Release{},
		SearchErr:   map[string]error{},
		Tracks:      map[string][]string{},
		TracksErr:   map[string]error{},
		FailPrimary: map[int]bool{},
		FailLegacy:  map[int]bool{},
	}
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) Search(ctx context.Context, query string, limit int) ([]models.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, query)
	if err := m.SearchErr[query]; err != nil {
		return nil, err
	}
	return m.Results[query], nil
}

func (m *MockCatalog) AlbumTracks(ctx context.Context, releaseID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TrackLookups = append(m.TrackLookups, releaseID)
	if err := m.TracksErr[releaseID]; err != nil {
		return nil, err
	}
	return m.Tracks[releaseID], nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, title, description string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	p := models.Playlist{ID: fmt.Sprintf("pl-%d", len(m.Playlists)+1), Title: title, Description: description}
	m.Playlists = append(m.Playlists, p)
	return &p, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.PrimaryCalls
	m.PrimaryCalls++
	if m.FailPrimary[call] {
		return errors.New("primary add failed")
	}
	m.Added = append(m.Added, append([]string(nil), trackIDs...))
	return nil
}

func (m *MockCatalog) AddTracksLegacy(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.LegacyCalls
	m.LegacyCalls++
	if m.FailLegacy[call] {
		return errors.New("legacy add failed")
	}
	m.Added = append(m.Added, append([]string(nil), trackIDs...))
	return nil
}

func (m *MockCatalog) PlaylistURL(playlistID string) string {
	return "https://catalog.test/playlist/" + playlistID
}

// SearchCount returns how many times query was searched.
func (m *MockCatalog) SearchCount(query string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, q := range m.Queries {
		if q == query {
			n++
		}
	}
	return n
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
