package playback

import (
	"fmt"
	"sync"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
)

// Direction selects the neighbour resolved by [Queue.Resolve].
type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// Queue is the externally supplied ordered track list used for next/previous.
type Queue struct {
	mu     sync.RWMutex
	tracks []models.Track
	index  map[string]int
}

// NewQueue copies tracks into a queue. Later duplicates of an id are dropped.
func NewQueue(tracks []models.Track) *Queue {
	q := &Queue{index: make(map[string]int, len(tracks))}
	for _, t := range tracks {
		if _, ok := q.index[t.ID]; ok {
			continue
		}
		q.index[t.ID] = len(q.tracks)
		q.tracks = append(q.tracks, t)
	}
	return q
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tracks)
}

// Tracks returns a copy of the queue.
func (q *Queue) Tracks() []models.Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]models.Track(nil), q.tracks...)
}

// Track looks a track up by id.
func (q *Queue) Track(id string) (models.Track, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	i, ok := q.index[id]
	if !ok {
		return models.Track{}, false
	}
	return q.tracks[i], true
}

// IndexOf returns the position of id, or -1.
func (q *Queue) IndexOf(id string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if i, ok := q.index[id]; ok {
		return i
	}
	return -1
}

// SetDuration records a duration learned from metadata.
func (q *Queue) SetDuration(id string, seconds float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i, ok := q.index[id]; ok {
		q.tracks[i].DurationSeconds = seconds
	}
}

// Resolve returns the neighbour of currentID, wrapping around both ends.
//
// With no current track Next yields the first track and Previous the last.
func (q *Queue) Resolve(currentID string, dir Direction) (models.Track, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	n := len(q.tracks)
	if n == 0 {
		return models.Track{}, shared.ErrEmptyQueue
	}

	i, ok := q.index[currentID]
	if currentID != "" && !ok {
		return models.Track{}, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, currentID)
	}

	switch {
	case !ok && dir == Next:
		return q.tracks[0], nil
	case !ok:
		return q.tracks[n-1], nil
	case dir == Next:
		return q.tracks[(i+1)%n], nil
	default:
		return q.tracks[(i-1+n)%n], nil
	}
}
