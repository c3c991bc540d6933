package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

const DefaultBatchSize = 50

// AddFunc appends track ids to a playlist using one API shape.
type AddFunc func(ctx context.Context, playlistID string, trackIDs []string) error

// BatchStrategy is one named way of appending a batch.
type BatchStrategy struct {
	Name string
	Add  AddFunc
}

// PlaylistWriter is the catalog capability the assembler needs.
type PlaylistWriter interface {
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
	AddTracksLegacy(ctx context.Context, playlistID string, trackIDs []string) error
}

// DefaultStrategies returns the primary shape followed by the legacy fallback.
func DefaultStrategies(w PlaylistWriter) []BatchStrategy {
	return []BatchStrategy{
		{Name: "items", Add: w.AddTracks},
		{Name: "legacy", Add: w.AddTracksLegacy},
	}
}

// BatchOutcome reports one attempted batch.
type BatchOutcome struct {
	Size     int
	Strategy string // empty when every strategy failed
	Err      error
}

// Accepted reports whether some strategy took the batch.
func (b BatchOutcome) Accepted() bool { return b.Strategy != "" }

// Assembler appends track lists to a playlist in fixed-size batches.
type Assembler struct {
	strategies []BatchStrategy
	batchSize  int
	timeout    time.Duration
	logger     *log.Logger
}

// NewAssembler creates an assembler that tries strategies in order for each batch.
func NewAssembler(strategies []BatchStrategy, batchSize int, timeout time.Duration, logger *log.Logger) *Assembler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Assembler{strategies: strategies, batchSize: batchSize, timeout: timeout, logger: logger}
}

// Batches splits ids into consecutive chunks of at most size.
func Batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

// Append adds ids to the playlist batch by batch, in order.
//
// A batch that every strategy rejects is logged and skipped; later batches
// still run and failed batches are not retried.
func (a *Assembler) Append(ctx context.Context, playlistID string, ids []string) []BatchOutcome {
	batches := Batches(ids, a.batchSize)
	outcomes := make([]BatchOutcome, 0, len(batches))

	for i, batch := range batches {
		out := a.addBatch(ctx, playlistID, batch)
		if !out.Accepted() {
			a.logger.Warn("failed adding batch to playlist",
				"playlist", playlistID, "batch", i+1, "of", len(batches), "size", len(batch), "error", out.Err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (a *Assembler) addBatch(ctx context.Context, playlistID string, batch []string) BatchOutcome {
	var errs []error
	for _, s := range a.strategies {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		err := s.Add(callCtx, playlistID, batch)
		cancel()
		if err == nil {
			return BatchOutcome{Size: len(batch), Strategy: s.Name}
		}
		a.logger.Debug("batch strategy failed", "strategy", s.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no batch strategies configured"))
	}
	return BatchOutcome{Size: len(batch), Err: errors.Join(errs...)}
}
