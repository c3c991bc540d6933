package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listx/internal/models"
)

// TrackLister is the catalog capability the collector needs.
type TrackLister interface {
	AlbumTracks(ctx context.Context, releaseID string) ([]string, error)
}

// Collector fetches the ordered track ids of resolved releases.
type Collector struct {
	catalog TrackLister
	timeout time.Duration
	logger  *log.Logger
}

// NewCollector creates a collector with a per-call timeout.
func NewCollector(catalog TrackLister, timeout time.Duration, logger *log.Logger) *Collector {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Collector{catalog: catalog, timeout: timeout, logger: logger}
}

// Tracks returns the release's track ids in catalog order.
//
// It never fails: a missing id or a failed lookup yields an empty slice.
func (c *Collector) Tracks(ctx context.Context, rel models.Release) []string {
	if rel == nil || rel.ReleaseID() == "" {
		return []string{}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ids, err := c.catalog.AlbumTracks(callCtx, rel.ReleaseID())
	if err != nil {
		c.logger.Warn("failed to fetch tracks for album", "release", rel.Title(), "id", rel.ReleaseID(), "error", err)
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}
