// package services defines the [Catalog] interface for remote music catalogs
package services

import (
	"context"

	"github.com/desertthunder/listx/internal/models"
)

// Catalog is the remote music catalog an import run resolves against and writes to.
type Catalog interface {
	// Name returns the name of the catalog (e.g., "TIDAL").
	Name() string

	// Search returns album releases matching query, at most limit of them.
	Search(ctx context.Context, query string, limit int) ([]models.Release, error)

	// AlbumTracks returns the ordered track ids of a release.
	AlbumTracks(ctx context.Context, releaseID string) ([]string, error)

	// CreatePlaylist creates an empty destination playlist.
	CreatePlaylist(ctx context.Context, title, description string) (*models.Playlist, error)

	// AddTracks appends track ids using the primary mutation shape.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// AddTracksLegacy appends track ids using the fallback mutation shape.
	AddTracksLegacy(ctx context.Context, playlistID string, trackIDs []string) error

	// PlaylistURL returns the listener-facing URL of a playlist.
	PlaylistURL(playlistID string) string
}
