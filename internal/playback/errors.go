package playback

import (
	"fmt"

	"github.com/desertthunder/encore/internal/shared"
)

// PlaybackError reports a resource that could not be loaded or played.
//
// The engine is back to a non-active state when it is returned; picking another track is always allowed.
type PlaybackError struct {
	TrackID string
	URL     string
	Err     error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("could not play %s: %v", e.TrackID, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

func (e *PlaybackError) Is(target error) bool { return target == shared.ErrPlayback }
