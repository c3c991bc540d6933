package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/listx/internal/document"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/desertthunder/listx/internal/tasks"
)

// fakeEngine plans a fixed candidate list and replays updates during RunWith.
type fakeEngine struct {
	candidates []models.Candidate
	planErr    error
	updates    []tasks.ProgressUpdate
	result     *models.RunResult
	runErr     error
	blockUntil bool
}

func (f *fakeEngine) Plan(_ context.Context, _ document.Source) ([]string, []models.Candidate, error) {
	if f.planErr != nil {
		return nil, nil, f.planErr
	}
	lines := make([]string, len(f.candidates))
	for i, c := range f.candidates {
		lines[i] = c.String()
	}
	return lines, f.candidates, nil
}

func (f *fakeEngine) RunWith(ctx context.Context, _ document.Source, _ tasks.RunOverrides, progress chan<- tasks.ProgressUpdate) (*models.RunResult, error) {
	for _, u := range f.updates {
		progress <- u
	}
	if f.blockUntil {
		<-ctx.Done()
		return f.result, fmt.Errorf("%w: %w", shared.ErrRunCanceled, ctx.Err())
	}
	return f.result, f.runErr
}

func keyPress(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(engine Engine) *Model {
	src := document.NewTextSource("albums.txt", strings.NewReader(""))
	m := NewModel(context.Background(), engine, src, tasks.RunOverrides{}, 2)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// drain runs cmd and feeds its messages back until the import completes.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 100; i++ {
		msg := cmd()
		_, cmd = m.Update(msg)
		if ui, ok := msg.(Msg); ok && ui.kind == MsgImportComplete {
			return
		}
	}
	t.Fatal("import did not complete")
}

func TestModel(t *testing.T) {
	candidates := []models.Candidate{{Title: "Kid A", Artist: "Radiohead"}, {Title: "Lost Album"}}

	t.Run("plan shows preview", func(t *testing.T) {
		m := newTestModel(&fakeEngine{candidates: candidates})
		m.Update(m.plan()())

		if m.view != PreviewView {
			t.Fatalf("expected preview view, got %v", m.view)
		}
		if len(m.list.Items()) != 2 {
			t.Errorf("expected 2 list items, got %d", len(m.list.Items()))
		}
		if !strings.Contains(m.View(), "2 candidate albums in albums.txt") {
			t.Errorf("expected list title in view, got %q", m.View())
		}
	})

	t.Run("plan failure", func(t *testing.T) {
		m := newTestModel(&fakeEngine{planErr: fmt.Errorf("%w: albums.txt", shared.ErrNothingToImport)})
		m.Update(m.plan()())

		if m.view != ResultView || !strings.Contains(m.View(), "Nothing to import") {
			t.Errorf("expected nothing to import result, got %v %q", m.view, m.View())
		}
		if _, err := m.Result(); err == nil {
			t.Error("expected error from Result")
		}
	})

	t.Run("decline quits", func(t *testing.T) {
		m := newTestModel(&fakeEngine{candidates: candidates})
		m.Update(m.plan()())

		_, cmd := m.Update(keyPress("n"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.ctx.Err() == nil {
			t.Error("expected context canceled")
		}
	})

	t.Run("import runs to completion", func(t *testing.T) {
		result := &models.RunResult{
			PlaylistURL:      "https://tidal.com/playlist/pl-1",
			Candidates:       2,
			Processed:        2,
			Matched:          1,
			TotalTracksAdded: 10,
			Unmatched:        []models.Candidate{{Title: "Lost Album"}},
		}
		engine := &fakeEngine{
			candidates: candidates,
			result:     result,
			updates: []tasks.ProgressUpdate{
				{Phase: tasks.CreatePlaylist, Data: &models.Playlist{ID: "pl-1", Title: "Imported from PDF"}},
				{Phase: tasks.ResolveCandidates, Step: 1, Total: 2, Message: "[1/2] ✓ Kid A — Radiohead"},
				{Phase: tasks.ResolveCandidates, Step: 2, Total: 2, Message: "[2/2] ✗ Lost Album"},
				{Phase: tasks.AddBatch, Message: "Failed adding 50 tracks for Kid A: boom"},
			},
		}
		m := newTestModel(engine)
		m.Update(m.plan()())

		_, cmd := m.Update(keyPress("enter"))
		if m.view != ImportView {
			t.Fatalf("expected import view, got %v", m.view)
		}
		drain(t, m, cmd)

		if m.view != ResultView {
			t.Fatalf("expected result view, got %v", m.view)
		}
		if m.playlist == nil || m.playlist.ID != "pl-1" {
			t.Errorf("expected playlist captured, got %+v", m.playlist)
		}
		if len(m.activity) != 2 || len(m.warnings) != 1 {
			t.Errorf("expected 2 activity lines and 1 warning, got %v %v", m.activity, m.warnings)
		}

		view := m.View()
		for _, want := range []string{"Import complete", "Done. Added 10 tracks.", "Lost Album"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in result view %q", want, view)
			}
		}

		res, err := m.Result()
		if err != nil || res != result {
			t.Errorf("unexpected result %v %v", res, err)
		}
	})

	t.Run("quit cancels running import", func(t *testing.T) {
		partial := &models.RunResult{Candidates: 2, Processed: 1, Unmatched: []models.Candidate{}}
		engine := &fakeEngine{candidates: candidates, result: partial, blockUntil: true}
		m := newTestModel(engine)
		m.Update(m.plan()())

		_, cmd := m.Update(keyPress("y"))
		m.Update(keyPress("q"))
		if !m.canceling || m.ctx.Err() == nil {
			t.Fatal("expected quit to cancel the run")
		}
		drain(t, m, cmd)

		if !strings.Contains(m.View(), "Import stopped after 1 of 2 albums") {
			t.Errorf("expected partial result view, got %q", m.View())
		}
	})
}

func TestApply(t *testing.T) {
	m := newTestModel(&fakeEngine{})
	for i := 1; i <= 12; i++ {
		m.apply(tasks.ProgressUpdate{Phase: tasks.ResolveCandidates, Step: i, Total: 12, Message: fmt.Sprintf("[%d/12] ✓ A", i)})
	}
	if len(m.activity) != activityLines || m.activity[0] != "[5/12] ✓ A" {
		t.Errorf("expected last %d lines kept, got %v", activityLines, m.activity)
	}

	m.apply(tasks.ProgressUpdate{Phase: tasks.ReportProgress, Data: tasks.RunProgress{Processed: 10, Total: 12, Unmatched: 3, Added: 40}})
	if m.processed != 10 || m.counters.Added != 40 {
		t.Errorf("expected counters applied, got %d %+v", m.processed, m.counters)
	}
	if !strings.Contains(m.renderImport(), "3 unmatched · 40 tracks added") {
		t.Errorf("unexpected import view %q", m.renderImport())
	}
}

func TestCandidateItem(t *testing.T) {
	items := candidateItems([]models.Candidate{{Title: "Kid A", Artist: "Radiohead"}, {Title: "Lost"}})
	first, second := items[0].(candidateItem), items[1].(candidateItem)

	if first.Title() != "1. Kid A" || first.Description() != "Radiohead" {
		t.Errorf("unexpected item %q %q", first.Title(), first.Description())
	}
	if second.Description() != "no artist" || second.FilterValue() != "Lost" {
		t.Errorf("unexpected item %q %q", second.Description(), second.FilterValue())
	}
}
