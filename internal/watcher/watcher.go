// Package watcher imports documents dropped into an inbox directory.
//
// Files are picked up on create and write events once they have been quiet for
// the debounce interval, then handed to a [Handler] one at a time.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listx/internal/document"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 2 * time.Second

// DefaultExtensions are watched when none are configured.
var DefaultExtensions = []string{".txt", ".html", ".htm"}

// Handler imports one document. Errors are logged and do not stop the watcher.
type Handler func(ctx context.Context, path string) error

// Options configures a [Service].
type Options struct {
	Extensions      []string
	Debounce        time.Duration
	ProcessExisting bool // import matching files already in the directory at start
}

// OptionsFromConfig maps configuration onto [Options].
func OptionsFromConfig(cfg shared.WatchConfig) Options {
	return Options{
		Extensions: cfg.Extensions,
		Debounce:   time.Duration(cfg.DebounceSeconds) * time.Second,
	}
}

// fileState identifies a version of a file so unchanged files are not imported twice.
type fileState struct {
	size    int64
	modTime time.Time
}

func (f fileState) same(o fileState) bool {
	return f.size == o.size && f.modTime.Equal(o.modTime)
}

// Service watches a single directory for new documents.
type Service struct {
	dir      string
	handle   Handler
	opts     Options
	logger   *log.Logger
	debounce time.Duration

	pending map[string]struct{}
	seen    map[string]fileState
}

// NewService creates a watcher for dir.
func NewService(dir string, handle Handler, opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	return &Service{
		dir:      dir,
		handle:   handle,
		opts:     opts,
		logger:   logger.With("component", "watcher", "dir", dir),
		debounce: debounce,
		pending:  make(map[string]struct{}),
		seen:     make(map[string]fileState),
	}
}

// SetDebounce overrides the debounce interval.
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// Start blocks until ctx is canceled. Documents are imported sequentially on
// the watcher goroutine, so a second drop waits for the running import.
func (s *Service) Start(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", shared.ErrInvalidArgument, s.dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}

	if s.opts.ProcessExisting {
		s.queueExisting()
		if len(s.pending) > 0 {
			debounceTimer.Reset(s.debounce)
		}
	}

	s.logger.Info("watching for documents", "extensions", s.opts.Extensions)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watcher stopping")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if s.queue(ev) {
				if !debounceTimer.Stop() {
					select {
					case <-debounceTimer.C:
					default:
					}
				}
				debounceTimer.Reset(s.debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-debounceTimer.C:
			s.flush(ctx)
		}
	}
}

// queue records a create or write on a supported file and reports whether it was queued.
func (s *Service) queue(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if filepath.Dir(ev.Name) != filepath.Clean(s.dir) {
		return false
	}
	if !document.Supported(ev.Name, s.opts.Extensions) {
		return false
	}
	s.pending[ev.Name] = struct{}{}
	return true
}

func (s *Service) queueExisting() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to read watch directory", "error", err)
		return
	}
	for _, e := range entries {
		path := filepath.Join(s.dir, e.Name())
		if e.Type().IsRegular() && document.Supported(path, s.opts.Extensions) {
			s.pending[path] = struct{}{}
		}
	}
}

// flush imports every pending file in name order.
func (s *Service) flush(ctx context.Context) {
	paths := make([]string, 0, len(s.pending))
	for p := range s.pending {
		paths = append(paths, p)
	}
	clear(s.pending)
	slices.Sort(paths)

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		state := fileState{size: info.Size(), modTime: info.ModTime()}
		if prev, ok := s.seen[path]; ok && prev.same(state) {
			continue
		}
		s.seen[path] = state

		s.logger.Info("importing document", "path", path)
		if err := s.handle(ctx, path); err != nil {
			s.logger.Error("import failed", "path", path, "error", err)
		}
	}
}
