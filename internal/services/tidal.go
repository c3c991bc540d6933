// TIDAL [Catalog] implementation
//
// Communicates with a catalog proxy that wraps the TIDAL API and owns the login.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultTidalBaseURL     = "http://localhost:8080"
	defaultPlaylistURLFmt   = "https://tidal.com/playlist/%s"
	defaultTidalCallTimeout = 20 * time.Second
)

// FlexID decodes an identifier sent either as a JSON string or a JSON number.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// TidalArtist is an artist credit in proxy responses.
type TidalArtist struct {
	ID   FlexID `json:"id,omitempty"`
	Name string `json:"name"`
}

// TidalAlbum is an album record from the proxy's search endpoint.
//
// The proxy may send a single "artist" object, an "artists" list, or both.
type TidalAlbum struct {
	ID      FlexID        `json:"id"`
	Name    string        `json:"title"`
	Artist  *TidalArtist  `json:"artist,omitempty"`
	Artists []TidalArtist `json:"artists,omitempty"`
	Tracks  int           `json:"numberOfTracks,omitempty"`
}

func (a TidalAlbum) Title() string     { return strings.TrimSpace(a.Name) }
func (a TidalAlbum) ReleaseID() string { return string(a.ID) }

// ArtistText flattens the artist credits into one comma separated string.
func (a TidalAlbum) ArtistText() string {
	names := make([]string, 0, len(a.Artists))
	for _, ar := range a.Artists {
		if n := strings.TrimSpace(ar.Name); n != "" {
			names = append(names, n)
		}
	}
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}
	if a.Artist != nil {
		return strings.TrimSpace(a.Artist.Name)
	}
	return ""
}

type tidalSearchResponse struct {
	Albums struct {
		Items []TidalAlbum `json:"items"`
	} `json:"albums"`
}

type tidalTracksResponse struct {
	Items []struct {
		ID FlexID `json:"id"`
	} `json:"items"`
}

type tidalPlaylistResponse struct {
	UUID        string `json:"uuid"`
	ID          FlexID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TidalService implements [Catalog] for TIDAL via the proxy.
type TidalService struct {
	baseURL     string
	urlFormat   string
	timeout     time.Duration
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *log.Logger
	sessionFile string
}

// NewTidalService creates a TIDAL catalog client from configuration.
func NewTidalService(cfg shared.CatalogConfig) *TidalService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultTidalBaseURL
	}
	urlFormat := cfg.PlaylistURLFormat
	if urlFormat == "" {
		urlFormat = defaultPlaylistURLFmt
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = defaultTidalCallTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &TidalService{
		baseURL:     baseURL,
		urlFormat:   urlFormat,
		timeout:     timeout,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(limit, 1),
		logger:      shared.NewLogger(nil).With("component", "tidal"),
		sessionFile: cfg.SessionFile,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (t *TidalService) WithHTTPClient(c *http.Client) *TidalService {
	t.httpClient = c
	return t
}

// WithLogger replaces the service logger.
func (t *TidalService) WithLogger(l *log.Logger) *TidalService {
	t.logger = l.With("component", "tidal")
	return t
}

// Name returns the service name.
func (t *TidalService) Name() string {
	return "TIDAL"
}

// PlaylistURL returns the public TIDAL URL for a playlist.
func (t *TidalService) PlaylistURL(playlistID string) string {
	return fmt.Sprintf(t.urlFormat, playlistID)
}

func (t *TidalService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+endpoint, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: tidal API error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: tidal API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Search returns album releases for query.
//
// Calls GET /api/search?q=&type=albums&limit= on the proxy.
func (t *TidalService) Search(ctx context.Context, query string, limit int) ([]models.Release, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "albums")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp tidalSearchResponse
	if err := t.doRequest(ctx, http.MethodGet, "/api/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	items := resp.Albums.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	releases := make([]models.Release, 0, len(items))
	for _, album := range items {
		releases = append(releases, album)
	}
	return releases, nil
}

// AlbumTracks returns the ordered track ids of an album.
//
// Calls GET /api/albums/{id}/tracks on the proxy.
func (t *TidalService) AlbumTracks(ctx context.Context, releaseID string) ([]string, error) {
	if releaseID == "" {
		return nil, fmt.Errorf("%w: empty release id", shared.ErrInvalidInput)
	}

	var resp tidalTracksResponse
	endpoint := fmt.Sprintf("/api/albums/%s/tracks", url.PathEscape(releaseID))
	if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID != "" {
			ids = append(ids, string(item.ID))
		}
	}
	return ids, nil
}

// CreatePlaylist creates an empty playlist in the user's library.
//
// Calls POST /api/playlists on the proxy; the response carries either "uuid" or "id".
func (t *TidalService) CreatePlaylist(ctx context.Context, title, description string) (*models.Playlist, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body := map[string]string{"title": title, "description": description}
	var resp tidalPlaylistResponse
	if err := t.doRequest(ctx, http.MethodPost, "/api/playlists", body, &resp); err != nil {
		return nil, err
	}

	id := resp.UUID
	if id == "" {
		id = string(resp.ID)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: playlist response missing id", shared.ErrAPIRequest)
	}

	t.logger.Debug("created playlist", "id", id, "title", title)
	return &models.Playlist{ID: id, Title: title, Description: description}, nil
}

// AddTracks appends tracks using the items endpoint.
//
// Calls POST /api/playlists/{id}/items with {"track_ids": [...]}.
func (t *TidalService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	return t.doRequest(ctx, http.MethodPost, endpoint, map[string][]string{"track_ids": trackIDs}, nil)
}

// AddTracksLegacy appends tracks using the older comma separated shape.
//
// Calls POST /api/playlists/{id}/tracks with {"trackIds": "1,2,3", "onDupes": "SKIP"}.
func (t *TidalService) AddTracksLegacy(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("/api/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]string{"trackIds": strings.Join(trackIDs, ","), "onDupes": "SKIP"}
	return t.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}
