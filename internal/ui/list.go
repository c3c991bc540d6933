package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/listx/internal/models"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [models.Candidate] for the preview list.
type candidateItem struct {
	index     int
	candidate models.Candidate
}

func (i candidateItem) FilterValue() string { return i.candidate.Title }
func (i candidateItem) Title() string       { return fmt.Sprintf("%d. %s", i.index+1, i.candidate.Title) }
func (i candidateItem) Description() string {
	if i.candidate.HasArtist() {
		return i.candidate.Artist
	}
	return "no artist"
}

func candidateItems(candidates []models.Candidate) []list.Item {
	items := make([]list.Item, len(candidates))
	for i, c := range candidates {
		items[i] = candidateItem{index: i, candidate: c}
	}
	return items
}
