package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listx/internal/document"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/segment"
	"github.com/desertthunder/listx/internal/services"
	"github.com/desertthunder/listx/internal/shared"
)

const (
	DefaultPlaylistTitle       = "Imported from PDF"
	DefaultPlaylistDescription = "Playlist created by listx importer"
	DefaultProgressEvery       = 5
	DefaultUnmatchedEvery      = 10
	DefaultCandidatePreview    = 15
)

// RunRecorder persists import run history.
//
// Implemented by repositories.RunRepository. Recorder errors are logged and never fail a run.
type RunRecorder interface {
	Create(ctx context.Context, run *models.ImportRun) error
	Complete(ctx context.Context, run *models.ImportRun) error
}

// ImportOptions configures an [ImportEngine].
type ImportOptions struct {
	Title            string
	Description      string
	BatchSize        int
	Threshold        int
	MaxResults       int
	ProgressEvery    int
	UnmatchedEvery   int
	CandidatePreview int
	CallTimeout      time.Duration
	Cache            MatchCache
	Recorder         RunRecorder
}

// OptionsFromConfig maps configuration onto [ImportOptions].
func OptionsFromConfig(cfg *shared.Config) ImportOptions {
	return ImportOptions{
		Title:            cfg.Import.PlaylistTitle,
		Description:      cfg.Import.PlaylistDescription,
		BatchSize:        cfg.Import.BatchSize,
		Threshold:        cfg.Import.Threshold,
		MaxResults:       cfg.Import.MaxSearchResults,
		ProgressEvery:    cfg.Import.ProgressEvery,
		UnmatchedEvery:   cfg.Import.UnmatchedEvery,
		CandidatePreview: cfg.Import.CandidatePreview,
		CallTimeout:      cfg.Catalog.Timeout(),
	}
}

func (o ImportOptions) withDefaults() ImportOptions {
	if o.Title == "" {
		o.Title = DefaultPlaylistTitle
	}
	if o.Description == "" {
		o.Description = DefaultPlaylistDescription
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.UnmatchedEvery <= 0 {
		o.UnmatchedEvery = DefaultUnmatchedEvery
	}
	if o.CandidatePreview <= 0 {
		o.CandidatePreview = DefaultCandidatePreview
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}

// RunOverrides changes per-run playlist metadata.
type RunOverrides struct {
	Title       string
	Description string
}

// ImportEngine runs the document -> playlist pipeline.
//
// An engine holds no per-run state and may serve concurrent runs.
type ImportEngine struct {
	catalog services.Catalog
	opts    ImportOptions
	logger  *log.Logger
}

// NewImportEngine creates an engine over catalog.
func NewImportEngine(catalog services.Catalog, opts ImportOptions, logger *log.Logger) *ImportEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ImportEngine{catalog: catalog, opts: opts.withDefaults(), logger: logger.With("component", "import")}
}

// runState is the mutable state of one run.
type runState struct {
	result   *models.RunResult
	resolver *Resolver
	record   *models.ImportRun
}

// Plan extracts, normalizes and segments a document without touching the catalog.
func (e *ImportEngine) Plan(ctx context.Context, source document.Source) ([]string, []models.Candidate, error) {
	raw, err := source.Lines(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract lines: %w", err)
	}

	lines := document.Normalize(raw)
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", shared.ErrNothingToImport, source.Name())
	}

	candidates := segment.Segment(lines)
	if len(candidates) == 0 {
		return lines, nil, fmt.Errorf("%w: no album candidates in %s", shared.ErrNothingToImport, source.Name())
	}
	return lines, candidates, nil
}

// Run imports source with the engine's default playlist metadata.
func (e *ImportEngine) Run(ctx context.Context, source document.Source, progress chan<- ProgressUpdate) (*models.RunResult, error) {
	return e.RunWith(ctx, source, RunOverrides{}, progress)
}

// RunWith imports source into a new playlist.
//
// Nothing to import and playlist creation failure are returned before any
// candidate is processed, with a nil result. Cancellation between candidates
// returns the partial result with an error wrapping [shared.ErrRunCanceled].
func (e *ImportEngine) RunWith(ctx context.Context, source document.Source, overrides RunOverrides, progress chan<- ProgressUpdate) (*models.RunResult, error) {
	lines, candidates, err := e.Plan(ctx, source)
	if err != nil {
		return nil, err
	}

	title, description := e.opts.Title, e.opts.Description
	if overrides.Title != "" {
		title = overrides.Title
	}
	if overrides.Description != "" {
		description = overrides.Description
	}

	st := &runState{
		result: &models.RunResult{
			RunID:         shared.GenerateID(),
			Source:        source.Name(),
			PlaylistTitle: title,
			Candidates:    len(candidates),
			Unmatched:     []models.Candidate{},
			StartedAt:     time.Now().UTC(),
		},
		resolver: NewResolver(e.catalog, ResolverOptions{
			Threshold:   e.opts.Threshold,
			MaxResults:  e.opts.MaxResults,
			CallTimeout: e.opts.CallTimeout,
			Cache:       e.opts.Cache,
		}, e.logger),
	}
	logger := e.logger.With("run", st.result.RunID)

	sendProgress(progress, extractUpdate(source.Name(), len(lines)))
	sendProgress(progress, segmentUpdate(len(lines), len(candidates)))
	sendProgress(progress, previewUpdate(candidates, e.opts.CandidatePreview))

	e.recordStart(ctx, st, logger)

	createCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	pl, err := e.catalog.CreatePlaylist(createCtx, title, description)
	cancel()
	if err != nil {
		err = fmt.Errorf("%w on %s: %v", shared.ErrPlaylistCreate, e.catalog.Name(), err)
		e.recordFinish(ctx, st, models.RunFailed, err, logger)
		return nil, err
	}

	st.result.PlaylistID = pl.ID
	st.result.PlaylistURL = e.catalog.PlaylistURL(pl.ID)
	sendProgress(progress, createPlaylistUpdate(pl))
	logger.Info("created playlist", "id", pl.ID, "title", title, "candidates", len(candidates))

	collector := NewCollector(e.catalog, e.opts.CallTimeout, logger)
	assembler := NewAssembler(DefaultStrategies(e.catalog), e.opts.BatchSize, e.opts.CallTimeout, logger)

	if err := e.process(ctx, st, candidates, collector, assembler, progress, logger); err != nil {
		st.result.CompletedAt = time.Now().UTC()
		err = fmt.Errorf("%w: %w", shared.ErrRunCanceled, err)
		e.recordFinish(ctx, st, models.RunCanceled, err, logger)
		logger.Warn("import canceled", "processed", st.result.Processed, "of", st.result.Candidates)
		return st.result, err
	}

	st.result.CompletedAt = time.Now().UTC()
	e.recordFinish(ctx, st, models.RunCompleted, nil, logger)
	sendProgress(progress, completeUpdate(st.result))

	logger.Info("import complete",
		"added", st.result.TotalTracksAdded,
		"matched", st.result.Matched,
		"unmatched", len(st.result.Unmatched),
		"failed_batches", st.result.FailedBatches)
	return st.result, nil
}

// process walks candidates in order. It returns a non-nil error only when ctx ends.
func (e *ImportEngine) process(
	ctx context.Context,
	st *runState,
	candidates []models.Candidate,
	collector *Collector,
	assembler *Assembler,
	progress chan<- ProgressUpdate,
	logger *log.Logger,
) error {
	res := st.result
	total := len(candidates)

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		matched := e.processCandidate(ctx, st, c, collector, assembler, progress, logger)
		if !matched {
			res.Unmatched = append(res.Unmatched, c)
		}
		res.Processed = i + 1
		sendProgress(progress, resolveUpdate(res.Processed, total, c, matched))

		atStep := res.Processed%e.opts.ProgressEvery == 0
		atUnmatched := !matched && len(res.Unmatched)%e.opts.UnmatchedEvery == 0
		if atStep || atUnmatched {
			p := RunProgress{Processed: res.Processed, Total: total, Unmatched: len(res.Unmatched), Added: res.TotalTracksAdded}
			if err := deliverProgress(ctx, progress, progressUpdate(p)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *ImportEngine) processCandidate(
	ctx context.Context,
	st *runState,
	c models.Candidate,
	collector *Collector,
	assembler *Assembler,
	progress chan<- ProgressUpdate,
	logger *log.Logger,
) bool {
	best, ok := st.resolver.ResolveCandidate(ctx, c)
	if !ok {
		logger.Info("no good match", "candidate", c.String())
		return false
	}

	tracks := collector.Tracks(ctx, best.Release)
	if len(tracks) == 0 {
		logger.Info("matched release has no tracks", "candidate", c.String(), "release", best.Release.Title())
		return false
	}

	st.result.Matched++
	for _, out := range assembler.Append(ctx, st.result.PlaylistID, tracks) {
		if out.Accepted() {
			st.result.TotalTracksAdded += out.Size
			continue
		}
		st.result.FailedBatches++
		sendProgress(progress, batchFailedUpdate(c, out.Size, out.Err))
	}
	return true
}

func (e *ImportEngine) recordStart(ctx context.Context, st *runState, logger *log.Logger) {
	if e.opts.Recorder == nil {
		return
	}
	st.record = &models.ImportRun{
		RunID:         st.result.RunID,
		Source:        st.result.Source,
		PlaylistTitle: st.result.PlaylistTitle,
		Status:        models.RunRunning,
		Candidates:    st.result.Candidates,
		StartedAt:     st.result.StartedAt,
	}
	if err := e.opts.Recorder.Create(ctx, st.record); err != nil {
		logger.Warn("failed to record run start", "error", err)
		st.record = nil
	}
}

func (e *ImportEngine) recordFinish(ctx context.Context, st *runState, status models.RunStatus, runErr error, logger *log.Logger) {
	if e.opts.Recorder == nil || st.record == nil {
		return
	}

	res := st.result
	completed := res.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}

	st.record.Status = status
	st.record.PlaylistID = res.PlaylistID
	st.record.PlaylistURL = res.PlaylistURL
	st.record.Matched = res.Matched
	st.record.TracksAdded = res.TotalTracksAdded
	st.record.FailedBatches = res.FailedBatches
	st.record.Unmatched = res.Unmatched
	st.record.CompletedAt = &completed
	if runErr != nil {
		st.record.Error = runErr.Error()
	}

	if err := e.opts.Recorder.Complete(context.WithoutCancel(ctx), st.record); err != nil {
		logger.Warn("failed to record run result", "error", err)
	}
}

// IsTerminal reports whether err ended a run before any candidate was processed.
func IsTerminal(err error) bool {
	return errors.Is(err, shared.ErrNothingToImport) || errors.Is(err, shared.ErrPlaylistCreate)
}
