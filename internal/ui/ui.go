package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/listx/internal/document"
	"github.com/desertthunder/listx/internal/formatter"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/desertthunder/listx/internal/tasks"
)

// activityLines is how many per-candidate lines the import view keeps on screen.
const activityLines = 8

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlanView ViewState = iota
	PreviewView
	ImportView
	ResultView
)

// Engine is the part of [tasks.ImportEngine] the TUI drives.
type Engine interface {
	Plan(ctx context.Context, source document.Source) ([]string, []models.Candidate, error)
	RunWith(ctx context.Context, source document.Source, overrides tasks.RunOverrides, progress chan<- tasks.ProgressUpdate) (*models.RunResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	cancel    context.CancelFunc
	view      ViewState
	engine    Engine
	source    document.Source
	overrides tasks.RunOverrides
	preview   int

	width  int
	height int

	lines      []string
	candidates []models.Candidate
	list       list.Model

	progressChan chan tasks.ProgressUpdate
	doneChan     chan outcome
	bar          progress.Model
	spinner      spinner.Model
	phase        tasks.Phase
	processed    int
	total        int
	counters     tasks.RunProgress
	playlist     *models.Playlist
	activity     []string
	warnings     []string
	canceling    bool

	result *models.RunResult
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a TUI that previews source and imports it on confirmation.
func NewModel(ctx context.Context, engine Engine, source document.Source, overrides tasks.RunOverrides, preview int) *Model {
	ctx, cancel := context.WithCancel(ctx)
	if preview <= 0 {
		preview = formatter.DefaultUnmatchedPreview
	}
	return &Model{
		ctx:       ctx,
		cancel:    cancel,
		view:      PlanView,
		engine:    engine,
		source:    source,
		overrides: overrides,
		preview:   preview,
		bar:       progress.New(progress.WithGradient(colorAccent, colorOK)),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(NewStyle(colorAccent))),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Result returns the finished run and its error once the program exits.
func (m *Model) Result() (*models.RunResult, error) {
	return m.result, m.err
}

// Init extracts and segments the document.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.plan(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-8, 20)
		if m.view == PreviewView {
			m.list.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlanView:
			if key.Matches(msg, m.keys.quit) {
				m.cancel()
				return m, tea.Quit
			}
		case PreviewView:
			return m.handlePreviewKeys(msg)
		case ImportView:
			return m.handleImportKeys(msg)
		case ResultView:
			if key.Matches(msg, m.keys.quit) || key.Matches(msg, m.keys.start) {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlanned:
		p := msg.data.(planned)
		if p.err != nil {
			m.err = p.err
			m.view = ResultView
			return m, nil
		}
		m.lines = p.lines
		m.candidates = p.candidates
		m.list = list.New(candidateItems(p.candidates), list.NewDefaultDelegate(), 0, 0)
		m.list.Title = fmt.Sprintf("%d candidate albums in %s", len(p.candidates), m.source.Name())
		m.list.SetSize(max(m.width-4, 40), max(m.height-8, 10))
		m.view = PreviewView
		return m, nil

	case MsgProgressUpdate:
		m.apply(msg.data.(tasks.ProgressUpdate))
		return m, m.waitForProgress()

	case MsgImportComplete:
		o := msg.data.(outcome)
		m.result, m.err = o.result, o.err
		m.progressChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// apply folds one progress update into the import view.
func (m *Model) apply(u tasks.ProgressUpdate) {
	m.phase = u.Phase
	switch u.Phase {
	case tasks.CreatePlaylist:
		if pl, ok := u.Data.(*models.Playlist); ok {
			m.playlist = pl
		}
	case tasks.ResolveCandidates:
		m.processed, m.total = u.Step, u.Total
		m.activity = append(m.activity, u.Message)
		if len(m.activity) > activityLines {
			m.activity = m.activity[len(m.activity)-activityLines:]
		}
	case tasks.ReportProgress:
		if p, ok := u.Progress(); ok {
			m.counters = p
			m.processed, m.total = p.Processed, p.Total
		}
	case tasks.AddBatch:
		m.warnings = append(m.warnings, u.Message)
	}
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.start):
		m.view = ImportView
		m.total = len(m.candidates)
		return m, m.startImport()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleImportKeys cancels a running import on quit. The engine returns the
// partial result, which is shown before exiting.
func (m *Model) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && !m.canceling {
		m.canceling = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) plan() tea.Cmd {
	return func() tea.Msg {
		lines, candidates, err := m.engine.Plan(m.ctx, m.source)
		return plannedMsg(lines, candidates, err)
	}
}

func (m *Model) startImport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan outcome, 1)

	progressChan, doneChan := m.progressChan, m.doneChan
	go func() {
		result, err := m.engine.RunWith(m.ctx, m.source, m.overrides, progressChan)
		close(progressChan)
		doneChan <- outcome{result, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progressChan != nil {
			if update, ok := <-progressChan; ok {
				return progressUpdateMsg(update)
			}
		}
		o := <-doneChan
		return importCompleteMsg(o.result, o.err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlanView:
		return fmt.Sprintf("%s Reading %s...\n", m.spinner.View(), m.source.Name())
	case PreviewView:
		return m.renderPreview()
	case ImportView:
		return m.renderImport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderPreview() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.start, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s",
		m.list.View(),
		styles.muted.Render(fmt.Sprintf("%d usable lines", len(m.lines))),
		helpView)
}

func (m *Model) renderImport() string {
	var b strings.Builder

	title := "Importing " + m.source.Name()
	if m.playlist != nil {
		title = fmt.Sprintf("Importing into '%s'", m.playlist.Title)
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}
	fmt.Fprintf(&b, "%s\n", m.bar.ViewAs(percent))
	fmt.Fprintf(&b, "%s %s  %d/%d albums · %d unmatched · %d tracks added\n\n",
		m.spinner.View(), m.phase, m.processed, m.total, m.counters.Unmatched, m.counters.Added)

	for _, line := range m.activity {
		switch {
		case strings.Contains(line, "✓"):
			b.WriteString(styles.matched.Render(line))
		case strings.Contains(line, "✗"):
			b.WriteString(styles.missed.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	for _, w := range m.warnings {
		b.WriteString(styles.missed.Render("! " + w))
		b.WriteString("\n")
	}

	if m.canceling {
		b.WriteString("\n" + styles.muted.Render("Canceling after the current album..."))
	} else {
		b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.result == nil {
		msg := "Import failed"
		if errors.Is(m.err, shared.ErrNothingToImport) {
			msg = "Nothing to import"
		}
		return styles.err.Render(fmt.Sprintf("%s: %v", msg, m.err)) + "\n\n" + helpView
	}

	title := styles.matched.Bold(true).Render("✓ Import complete")
	if m.err != nil {
		title = styles.missed.Bold(true).Render(fmt.Sprintf("Import stopped after %d of %d albums", m.result.Processed, m.result.Candidates))
	}
	summary := string(formatter.RunToText(m.result, m.preview))
	return fmt.Sprintf("%s\n%s\n\n%s", title, styles.box.Render(strings.TrimRight(summary, "\n")), helpView)
}

// Run starts the TUI and returns the run's outcome once the user exits.
func Run(ctx context.Context, engine Engine, source document.Source, overrides tasks.RunOverrides, preview int) (*models.RunResult, error) {
	model := NewModel(ctx, engine, source, overrides, preview)
	defer model.cancel()

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}
	return model.Result()
}
