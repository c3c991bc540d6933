package watcher

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/listx/internal/shared"
	tu "github.com/desertthunder/listx/internal/testing"
)

// recorder collects handled paths.
type recorder struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recorder) handle(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
	return r.err
}

func (r *recorder) handled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.paths)
}

func startService(t *testing.T, dir string, rec *recorder, opts Options) context.CancelFunc {
	t.Helper()
	svc := NewService(dir, rec.handle, opts, shared.NewLogger(io.Discard))
	svc.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := svc.Start(ctx); err != nil {
			t.Errorf("Start failed: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	time.Sleep(100 * time.Millisecond) // let watcher initialize
	return cancel
}

func TestNewFileTriggersImport(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startService(t, dir, rec, Options{})

	tu.MustWriteFile(t, filepath.Join(dir, "albums.txt"), "Kid A - Radiohead\n")

	time.Sleep(300 * time.Millisecond)

	if got := rec.handled(); len(got) != 1 || got[0] != "albums.txt" {
		t.Errorf("expected albums.txt imported once, got %v", got)
	}
}

func TestRapidWritesCoalesce(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startService(t, dir, rec, Options{})

	path := filepath.Join(dir, "albums.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		f.WriteString("Kid A - Radiohead\n")
		time.Sleep(5 * time.Millisecond)
	}
	f.Close()

	time.Sleep(300 * time.Millisecond)

	if got := rec.handled(); len(got) != 1 {
		t.Errorf("expected 1 coalesced import, got %v", got)
	}
}

func TestUnsupportedFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startService(t, dir, rec, Options{Extensions: []string{".txt"}})

	tu.MustWriteFile(t, filepath.Join(dir, "notes.md"), "hello")
	tu.MustWriteFile(t, filepath.Join(dir, "page.html"), "<p>hi</p>")
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if got := rec.handled(); len(got) != 0 {
		t.Errorf("expected no imports, got %v", got)
	}
}

func TestFilesImportedInNameOrder(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{err: errors.New("import failed")}
	startService(t, dir, rec, Options{})

	tu.MustWriteFile(t, filepath.Join(dir, "b.txt"), "B - Two")
	tu.MustWriteFile(t, filepath.Join(dir, "a.html"), "<p>A - One</p>")

	time.Sleep(300 * time.Millisecond)

	got := rec.handled()
	if len(got) != 2 || got[0] != "a.html" || got[1] != "b.txt" {
		t.Errorf("expected both files in name order despite errors, got %v", got)
	}
}

func TestProcessExisting(t *testing.T) {
	dir := t.TempDir()
	tu.MustWriteFile(t, filepath.Join(dir, "old.txt"), "Kid A - Radiohead")
	tu.MustWriteFile(t, filepath.Join(dir, "skip.pdf"), "%PDF")

	rec := &recorder{}
	startService(t, dir, rec, Options{ProcessExisting: true})
	time.Sleep(200 * time.Millisecond)

	if got := rec.handled(); len(got) != 1 || got[0] != "old.txt" {
		t.Errorf("expected existing document imported, got %v", got)
	}
}

func TestStartErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		svc := NewService(filepath.Join(t.TempDir(), "nope"), (&recorder{}).handle, Options{}, shared.NewLogger(io.Discard))
		if err := svc.Start(context.Background()); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("not a directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f.txt")
		tu.MustWriteFile(t, file, "x")
		svc := NewService(file, (&recorder{}).handle, Options{}, shared.NewLogger(io.Discard))
		if err := svc.Start(context.Background()); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(shared.WatchConfig{Extensions: []string{".txt"}, DebounceSeconds: 3})
	if opts.Debounce != 3*time.Second || len(opts.Extensions) != 1 {
		t.Errorf("unexpected options %+v", opts)
	}

	svc := NewService(t.TempDir(), nil, Options{}, nil)
	if svc.debounce != DefaultDebounce || len(svc.opts.Extensions) != len(DefaultExtensions) {
		t.Errorf("expected defaults, got %v %v", svc.debounce, svc.opts.Extensions)
	}
}
