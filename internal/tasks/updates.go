package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/listx/internal/models"
)

// ProgressUpdate represents a progress event during an import run.
//
// Used to send real-time updates to the CLI, TUI, HTTP or notifier layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data ([RunProgress], [models.RunResult], ...)
}

// RunProgress carries the counters reported at the run's progress cadences.
type RunProgress struct {
	Processed int
	Total     int
	Unmatched int
	Added     int
}

// Progress returns the counters carried by a cadence update.
func (u ProgressUpdate) Progress() (RunProgress, bool) {
	p, ok := u.Data.(RunProgress)
	return p, ok
}

// Operation phase enumeration
type Phase int

const (
	ExtractLines Phase = iota
	SegmentLines
	PreviewCandidates
	CreatePlaylist
	ResolveCandidates
	ReportProgress
	AddBatch
	Complete
)

func (p Phase) String() string {
	switch p {
	case ExtractLines:
		return "extract_lines"
	case SegmentLines:
		return "segment_lines"
	case PreviewCandidates:
		return "preview_candidates"
	case CreatePlaylist:
		return "create_playlist"
	case ResolveCandidates:
		return "resolve_candidates"
	case ReportProgress:
		return "report_progress"
	case AddBatch:
		return "add_batch"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends an informational update without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// deliverProgress sends a cadence update, waiting for the receiver unless ctx ends first.
func deliverProgress(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) error {
	if progress == nil {
		return nil
	}
	select {
	case progress <- update:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func extractUpdate(source string, lines int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractLines,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Extracted %d usable lines from %s", lines, source),
	}
}

func segmentUpdate(lines, candidates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SegmentLines,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d candidate albums in %d lines", candidates, lines),
	}
}

func previewUpdate(candidates []models.Candidate, n int) ProgressUpdate {
	shown := candidates
	if n >= 0 && len(shown) > n {
		shown = shown[:n]
	}
	return ProgressUpdate{
		Phase:   PreviewCandidates,
		Step:    len(shown),
		Total:   len(candidates),
		Message: fmt.Sprintf("I found %d candidate album lines", len(candidates)),
		Data:    shown,
	}
}

func createPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Created playlist '%s' (ID: %s)", pl.Title, pl.ID),
		Data:    pl,
	}
}

func resolveUpdate(step, total int, c models.Candidate, matched bool) ProgressUpdate {
	mark := "✓"
	if !matched {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   ResolveCandidates,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, c),
		Data:    c,
	}
}

func progressUpdate(p RunProgress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReportProgress,
		Step:    p.Processed,
		Total:   p.Total,
		Message: fmt.Sprintf("Processed %d/%d albums, %d unmatched. Tracks added so far: %d", p.Processed, p.Total, p.Unmatched, p.Added),
		Data:    p,
	}
}

func batchFailedUpdate(c models.Candidate, size int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddBatch,
		Step:    size,
		Total:   size,
		Message: fmt.Sprintf("Failed adding %d tracks for %s: %v", size, c.Title, err),
	}
}

func completeUpdate(res *models.RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    res.Processed,
		Total:   res.Candidates,
		Message: fmt.Sprintf("Done, added %d tracks. Playlist: %s", res.TotalTracksAdded, res.PlaylistURL),
		Data:    res,
	}
}
