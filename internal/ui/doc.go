// Package ui implements the interactive import view using bubbletea's Elm architecture.
//
// The TUI walks one document through four views:
//  1. [PlanView] : extract and segment the document
//  2. [PreviewView] : browse candidate albums before anything touches the catalog
//  3. [ImportView] : progress bar and per-album activity while the run resolves and appends
//  4. [ResultView] : the run summary with the first unmatched albums
//
// Progress flows from [tasks.ImportEngine] over a channel; quitting during an import
// cancels the run and the partial result is still shown.
package ui
