package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlanned MsgKind = iota
	MsgProgressUpdate
	MsgImportComplete
)

type planned struct {
	lines      []string
	candidates []models.Candidate
	err        error
}

type outcome struct {
	result *models.RunResult
	err    error
}

// plannedMsg is the constructor for [MsgPlanned]
func plannedMsg(lines []string, candidates []models.Candidate, err error) Msg {
	return Msg{kind: MsgPlanned, data: planned{lines, candidates, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// importCompleteMsg is the constructor for [MsgImportComplete]
func importCompleteMsg(result *models.RunResult, err error) Msg {
	return Msg{kind: MsgImportComplete, data: outcome{result, err}}
}
