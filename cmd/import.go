package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/listx/internal/document"
	"github.com/desertthunder/listx/internal/formatter"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/notify"
	"github.com/desertthunder/listx/internal/repositories"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/desertthunder/listx/internal/tasks"
	"github.com/desertthunder/listx/internal/ui"
	"github.com/desertthunder/listx/internal/watcher"
	"github.com/urfave/cli/v3"
)

// ImportRun imports one document into a new playlist and prints the summary.
func (r *Runner) ImportRun(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: document path (or - for stdin)", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	source, err := document.Open(path)
	if err != nil {
		return err
	}

	if cmd.Bool("tui") {
		// keep log lines out of the alternate screen
		r.logger = shared.NewFileLogger(r.cfg().Log, "listx-tui.log")
	}

	engine, err := r.newEngine()
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		return r.dryRun(ctx, engine, source)
	}

	overrides := tasks.RunOverrides{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
	}
	preview := r.cfg().Import.UnmatchedPreview

	var res *models.RunResult
	if cmd.Bool("tui") {
		res, err = ui.Run(ctx, engine, source, overrides, preview)
	} else {
		res, err = r.runImport(ctx, engine, source, overrides)
	}

	if res == nil {
		if err == nil {
			return nil
		}
		return err
	}

	if out, renderErr := formatter.Render(res, format, preview); renderErr == nil {
		r.writeBytes(out)
	} else {
		r.logger.Error("failed to render summary", "error", renderErr)
	}

	if report := cmd.String("report"); report != "" {
		written, reportErr := formatter.WriteReport(res, format, preview, report)
		if reportErr != nil {
			return reportErr
		}
		r.writePlain("Report saved to %s\n", written)
	}
	return err
}

// runImport runs the engine while printing progress and relaying milestones to the notifier.
func (r *Runner) runImport(ctx context.Context, engine *tasks.ImportEngine, source document.Source, overrides tasks.RunOverrides) (*models.RunResult, error) {
	notifier := r.notifierFor()
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		notify.Relay(ctx, notifier, progress, r.printProgress, r.logger)
	}()

	res, err := engine.RunWith(ctx, source, overrides, progress)
	close(progress)
	<-done

	if err != nil && res == nil {
		if nerr := notifier.Failure(context.WithoutCancel(ctx), source.Name(), err); nerr != nil {
			r.logger.Warn("failed to send failure notification", "error", nerr)
		}
	}
	return res, err
}

// printProgress writes one progress update for a non-interactive run.
func (r *Runner) printProgress(u tasks.ProgressUpdate) {
	switch u.Phase {
	case tasks.PreviewCandidates:
		shown, _ := u.Data.([]models.Candidate)
		r.writePlain("%s", u.Message)
		if len(shown) < u.Total {
			r.writePlain(" (showing first %d)", len(shown))
		}
		r.writePlain(":\n")
		for _, c := range shown {
			r.writePlain("  - %s\n", c)
		}
	case tasks.Complete:
		// summary is rendered by the caller
	default:
		r.writePlain("%s\n", u.Message)
	}
}

// dryRun prints what an import would search for.
func (r *Runner) dryRun(ctx context.Context, engine *tasks.ImportEngine, source document.Source) error {
	lines, candidates, err := engine.Plan(ctx, source)
	if err != nil {
		return err
	}

	r.writePlain("%d usable lines in %s:\n", len(lines), source.Name())
	for _, line := range lines {
		r.writePlain("  %s\n", line)
	}
	r.writePlain("\n")
	return r.writeBytes(formatter.CandidatesToText(candidates, -1))
}

// ImportWatch imports every document dropped into a directory until interrupted.
func (r *Runner) ImportWatch(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		dir = r.cfg().Watch.Dir
	}
	if dir == "" {
		return fmt.Errorf("%w: directory to watch", shared.ErrMissingArgument)
	}

	engine, err := r.newEngine()
	if err != nil {
		return err
	}
	preview := r.cfg().Import.UnmatchedPreview

	handle := func(ctx context.Context, path string) error {
		source, err := document.Open(path)
		if err != nil {
			return err
		}
		res, err := r.runImport(ctx, engine, source, tasks.RunOverrides{})
		if res != nil {
			r.writeBytes(formatter.RunToText(res, preview))
		}
		if errors.Is(err, shared.ErrNothingToImport) {
			r.logger.Warn("nothing to import", "path", path)
			return nil
		}
		return err
	}

	opts := watcher.OptionsFromConfig(r.cfg().Watch)
	opts.ProcessExisting = cmd.Bool("existing")

	r.writePlain("Watching %s for documents (Ctrl+C to stop)\n", dir)
	return watcher.NewService(dir, handle, opts, r.logger).Start(ctx)
}

// runs returns the run history repository.
func (r *Runner) runs() (*repositories.RunRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewRunRepository(db), nil
}

// ImportHistory lists previous imports.
func (r *Runner) ImportHistory(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.runs()
	if err != nil {
		return err
	}

	runs, err := repo.List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if runs == nil {
			runs = []*models.ImportRun{}
		}
		return r.writeJSON(runs, true)
	}
	return r.writeBytes(formatter.HistoryToText(runs))
}

// ImportShow prints the stored summary of one import.
func (r *Runner) ImportShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.runs()
	if err != nil {
		return err
	}

	run, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	preview := int(cmd.Int("preview"))
	if preview <= 0 {
		preview = r.cfg().Import.UnmatchedPreview
	}

	if format == formatter.Text {
		r.writePlain("Run #%d %s (%s) from %s\n", run.Seq, run.RunID, run.Status, run.Source)
		if run.Error != "" {
			r.writePlain("Error: %s\n", run.Error)
		}
	}

	out, err := formatter.Render(run.Result(), format, preview)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// ImportDelete removes one import from history.
func (r *Runner) ImportDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	repo, err := r.runs()
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}
