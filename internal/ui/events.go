package ui

import "github.com/desertthunder/encore/internal/playback"

// NewEventSink returns a notifier for [playback.Options] and the channel a [PlayerModel] reads from.
//
// Progress events are dropped when the buffer is full. State, end and error events wait for room so
// auto-advance never misses an end-of-track.
func NewEventSink(buffer int) (playback.Notifier, <-chan playback.Event) {
	ch := make(chan playback.Event, buffer)
	return playback.NotifierFunc(func(e playback.Event) {
		if e.Type == playback.EventProgress {
			select {
			case ch <- e:
			default:
			}
			return
		}
		ch <- e
	}), ch
}
