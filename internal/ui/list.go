package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/encore/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
	clock func(float64) string
}

func (i trackItem) FilterValue() string { return i.track.DisplayTitle() }
func (i trackItem) Title() string       { return i.track.DisplayTitle() }
func (i trackItem) Description() string {
	desc := i.track.DisplayArtist()
	if i.track.DurationSeconds > 0 {
		desc = fmt.Sprintf("%s • %s", desc, i.clock(i.track.DurationSeconds))
	}
	return desc
}

func trackItems(tracks []models.Track, clock func(float64) string) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, clock: clock}
	}
	return items
}
