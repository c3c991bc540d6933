package ui

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent = "#7D56F4"
	colorOK     = "#04B575"
	colorErr    = "#FF4F4F"
	colorWarn   = "#FFA500"
	colorMuted  = "#626262"
)

var styles = NewPalette(colorAccent, colorOK, colorErr, colorWarn, colorMuted)

// Palette holds the named styles of the import views.
type Palette struct {
	title   lipgloss.Style
	matched lipgloss.Style
	err     lipgloss.Style
	missed  lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

func NewPalette(accent, ok, errc, warn, muted string) *Palette {
	return &Palette{
		title:   NewBold(accent).MarginBottom(1),
		matched: NewStyle(ok),
		err:     NewBold(errc),
		missed:  NewStyle(warn),
		muted:   NewEm(muted),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(accent)).
			Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
