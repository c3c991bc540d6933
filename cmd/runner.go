package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listx/internal/notify"
	"github.com/desertthunder/listx/internal/repositories"
	"github.com/desertthunder/listx/internal/services"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/desertthunder/listx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	api        *services.APIService
	db         *sql.DB
	notifier   notify.Notifier
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Dependencies left nil are built from configuration in [Runner.Before].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	API        *services.APIService
	DB         *sql.DB
	Notifier   notify.Notifier
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		api:        opts.API,
		db:         opts.DB,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// Before loads configuration and builds the catalog clients the command needs.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := r.loadConfig()
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger = shared.NewConfiguredLogger(config.Log)
	}

	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.catalog == nil {
		tidal := services.NewTidalService(r.config.Catalog).WithLogger(r.logger)
		if err := tidal.Authenticate(ctx, r.config.Catalog); err != nil {
			r.logger.Debug("no catalog session, relying on the proxy", "error", err)
		}
		r.catalog = tidal
	}
	if r.api == nil {
		r.api = services.NewAPIService(r.config.Catalog.BaseURL, nil)
	}
	return ctx, nil
}

// After releases the database handle.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// loadConfig reads configPath, falling back to the embedded defaults when it does not exist.
func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.configPath != "" {
		config, err := shared.LoadConfig(r.configPath)
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	config := shared.DefaultConfig()
	if err := shared.ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// database opens (once) the configured database with migrations applied.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenConfigured(r.cfg().Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	return db, nil
}

// newEngine builds an import engine wired to run history and, when enabled, the match cache.
//
// A database that cannot be opened disables both instead of failing the import.
func (r *Runner) newEngine() (*tasks.ImportEngine, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	opts := tasks.OptionsFromConfig(r.cfg())
	if db, err := r.database(); err != nil {
		r.logger.Warn("run history disabled", "error", err)
	} else {
		opts.Recorder = repositories.NewRunRepository(db)
		if r.cfg().Import.UseMatchCache {
			opts.Cache = repositories.NewMatchRepository(db)
		}
	}
	return tasks.NewImportEngine(r.catalog, opts, r.logger), nil
}

// notifierFor returns the injected notifier or one built from configuration.
func (r *Runner) notifierFor() notify.Notifier {
	if r.notifier != nil {
		return r.notifier
	}
	n, err := notify.New(r.cfg().Notify.Discord, r.cfg().Import.UnmatchedPreview, r.logger)
	if err != nil {
		r.logger.Warn("notifications disabled", "error", err)
		n = notify.Nop{}
	}
	r.notifier = n
	return n
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, importCommand, catalogCommand, cacheCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
