package playback

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned by elements asked to play before a resource was loaded.
var ErrNotLoaded = errors.New("no media loaded")

// Listener receives notifications for one loaded resource.
type Listener interface {
	MetadataLoaded(duration float64)
	TimeUpdate(current float64)
	Ended()
	Errored(err error)
}

// MediaElement is the playable resource capability the engine drives.
//
// Elements must not hold their own locks while calling the listener.
type MediaElement interface {
	// Load detaches the current resource and opens url; notifications for it go to l.
	Load(ctx context.Context, url string, l Listener) error
	Play(ctx context.Context) error
	Pause() error
	// Stop pauses and detaches the resource.
	Stop() error
	Seek(seconds float64) error
	SetVolume(level float64) error
	SetMuted(muted bool) error
	CurrentTime() float64
	// Duration is 0 until metadata is known.
	Duration() float64
}

// MediaKind selects how positions are displayed.
type MediaKind int

const (
	Audio MediaKind = iota
	Video
)

func (k MediaKind) String() string {
	if k == Video {
		return "video"
	}
	return "audio"
}
