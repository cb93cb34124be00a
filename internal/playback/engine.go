package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
)

// Session is a snapshot of the engine's playback state.
type Session struct {
	ActiveTrackID   string
	State           State
	ProgressPercent float64
	Current         float64
	Duration        float64
	Volume          float64
	Muted           bool
	Playing         bool
}

// Options configure an [Engine].
type Options struct {
	Kind     MediaKind
	Volume   float64 // initial volume, default 1
	Resume   bool    // restart tracks at their last recorded position (gallery)
	Notifier Notifier
	Logger   *log.Logger
}

// Engine owns one media element and at most one active track.
//
// Control operations are serialised by op. State is guarded by mu, which is never held while calling the
// element or the notifier, so elements may call their listener from any goroutine.
type Engine struct {
	op sync.Mutex
	mu sync.Mutex

	element MediaElement
	kind    MediaKind
	resume  bool
	notify  Notifier
	logger  *log.Logger
	queue   *Queue

	state    State
	active   string
	gen      uint64
	current  float64
	duration float64
	volume   float64
	muted    bool
	progress map[string]float64
}

// NewEngine creates an idle engine over element.
func NewEngine(element MediaElement, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(Event) {})
	}
	volume := opts.Volume
	if volume <= 0 || volume > 1 || math.IsNaN(volume) {
		volume = 1
	}

	return &Engine{
		element:  element,
		kind:     opts.Kind,
		resume:   opts.Resume,
		notify:   opts.Notifier,
		logger:   shared.WithLogger(opts.Logger, "component", "playback", "kind", opts.Kind),
		queue:    NewQueue(nil),
		volume:   volume,
		progress: map[string]float64{},
	}
}

// Kind returns the media kind the engine was created for.
func (e *Engine) Kind() MediaKind { return e.kind }

// SetQueue replaces the track list used by [Engine.Advance] and [Engine.TogglePlayPause].
func (e *Engine) SetQueue(tracks []models.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = NewQueue(tracks)
}

// Queue returns the current track list.
func (e *Engine) Queue() *Queue {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue
}

func (e *Engine) emit(events []Event) {
	for _, ev := range events {
		e.notify.Notify(ev)
	}
}

func (e *Engine) stateEvent() Event {
	return Event{Type: EventState, TrackID: e.active, State: e.state, Percent: e.percent(), Current: e.current, Duration: e.duration}
}

// percent is current/duration in [0, 100]; 0 without an active track or a known duration.
func (e *Engine) percent() float64 {
	if e.active == "" || e.duration <= 0 || math.IsNaN(e.duration) {
		return 0
	}
	return min(max(e.current/e.duration*100, 0), 100)
}

func (e *Engine) playing() bool {
	return e.state == Playing
}

// Session returns a snapshot of the current state.
func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Session{
		ActiveTrackID:   e.active,
		State:           e.state,
		ProgressPercent: e.percent(),
		Current:         e.current,
		Duration:        e.duration,
		Volume:          e.volume,
		Muted:           e.muted,
		Playing:         e.playing(),
	}
}

// Progress returns the last known percentage of a track, active or not.
func (e *Engine) Progress(trackID string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if trackID == e.active {
		return e.percent()
	}
	return e.progress[trackID]
}

// Activate stops the current track, if any, then loads and plays mediaURL as trackID.
//
// A load or play failure leaves the engine Errored with no active track and returns a [*PlaybackError].
func (e *Engine) Activate(ctx context.Context, trackID, mediaURL string) error {
	e.op.Lock()
	defer e.op.Unlock()
	return e.activate(ctx, trackID, mediaURL)
}

func (e *Engine) activate(ctx context.Context, trackID, mediaURL string) error {
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}

	e.mu.Lock()
	prev := e.active
	if prev != "" {
		e.progress[prev] = e.percent()
	}
	e.gen++
	gen := e.gen
	e.state = Loading
	e.active = trackID
	e.current, e.duration = 0, 0
	volume, muted := e.volume, e.muted
	resumeAt := 0.0
	if e.resume {
		resumeAt = e.progress[trackID]
	}
	events := []Event{e.stateEvent()}
	e.mu.Unlock()
	e.emit(events)

	if prev != "" {
		if err := e.element.Stop(); err != nil && !errors.Is(err, ErrNotLoaded) {
			e.logger.Warn("failed to stop previous track", "track", prev, "error", err)
		}
	}

	e.logger.Debug("loading track", "track", trackID, "url", mediaURL)
	err := e.element.Load(ctx, mediaURL, &listener{engine: e, gen: gen})
	if err == nil {
		err = e.element.SetVolume(volume)
	}
	if err == nil {
		err = e.element.SetMuted(muted)
	}
	if err == nil && resumeAt > 0 && resumeAt < 100 {
		if d := e.element.Duration(); d > 0 {
			err = e.element.Seek(resumeAt / 100 * d)
		}
	}
	if err == nil {
		err = e.element.Play(ctx)
	}

	loaded := e.element.Duration()

	e.mu.Lock()
	if e.gen != gen {
		// the element already reported an error or the end of this track
		e.mu.Unlock()
		return nil
	}
	if err != nil {
		perr := &PlaybackError{TrackID: trackID, URL: mediaURL, Err: err}
		events := e.fail(perr)
		e.mu.Unlock()
		e.logger.Error("playback failed", "track", trackID, "error", err)
		e.emit(events)
		return perr
	}

	e.state = Playing
	if loaded > 0 && e.duration == 0 {
		e.duration = loaded
	}
	if resumeAt > 0 && e.current == 0 {
		e.current = resumeAt / 100 * e.duration
	}
	events = []Event{e.stateEvent()}
	e.mu.Unlock()
	e.emit(events)
	return nil
}

// fail moves to Errored; the caller holds mu.
func (e *Engine) fail(err error) []Event {
	id := e.active
	e.gen++
	e.state = Errored
	e.active = ""
	e.current, e.duration = 0, 0
	return []Event{
		{Type: EventError, TrackID: id, State: Errored, Err: err},
		e.stateEvent(),
	}
}

// TogglePlayPause pauses or resumes trackID when it is active, otherwise activates it from the queue.
func (e *Engine) TogglePlayPause(ctx context.Context, trackID string) error {
	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	active, state, queue := e.active, e.state, e.queue
	e.mu.Unlock()

	if trackID == active && active != "" {
		switch state {
		case Playing:
			return e.pause()
		case Paused:
			return e.resumePlayback(ctx)
		default:
			return nil
		}
	}

	track, ok := queue.Track(trackID)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	return e.activate(ctx, track.ID, track.MediaURL)
}

// Pause pauses the active track and keeps it active.
func (e *Engine) Pause() error {
	e.op.Lock()
	defer e.op.Unlock()
	return e.pause()
}

func (e *Engine) pause() error {
	e.mu.Lock()
	if e.state != Playing {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.element.Pause(); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	at := e.element.CurrentTime()

	e.mu.Lock()
	if e.state != Playing {
		e.mu.Unlock()
		return nil
	}
	e.state = Paused
	e.current = at
	e.progress[e.active] = e.percent()
	events := []Event{e.stateEvent()}
	e.mu.Unlock()
	e.emit(events)
	return nil
}

// Resume continues a paused track.
func (e *Engine) Resume(ctx context.Context) error {
	e.op.Lock()
	defer e.op.Unlock()
	return e.resumePlayback(ctx)
}

func (e *Engine) resumePlayback(ctx context.Context) error {
	e.mu.Lock()
	if e.state != Paused {
		e.mu.Unlock()
		return nil
	}
	id, gen := e.active, e.gen
	e.mu.Unlock()

	err := e.element.Play(ctx)

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		return nil
	}
	if err != nil {
		perr := &PlaybackError{TrackID: id, Err: err}
		events := e.fail(perr)
		e.mu.Unlock()
		e.emit(events)
		return perr
	}
	e.state = Playing
	events := []Event{e.stateEvent()}
	e.mu.Unlock()
	e.emit(events)
	return nil
}

// Stop pauses, rewinds and clears the active track.
func (e *Engine) Stop() error {
	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	if e.active == "" {
		e.mu.Unlock()
		return nil
	}
	id := e.active
	e.gen++
	e.progress[id] = 0
	e.active = ""
	e.state = Idle
	e.current, e.duration = 0, 0
	events := []Event{e.stateEvent()}
	e.mu.Unlock()

	if err := e.element.Stop(); err != nil && !errors.Is(err, ErrNotLoaded) {
		e.logger.Warn("failed to stop track", "track", id, "error", err)
	}
	e.emit(events)
	return nil
}

// Seek moves to percent of the duration. Values outside [0, 100] are rejected.
//
// Without an active track or a known duration the call does nothing.
func (e *Engine) Seek(percent float64) error {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return fmt.Errorf("%w: seek position %v is outside 0-100", shared.ErrInvalidArgument, percent)
	}

	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	if e.active == "" || e.state == Loading || e.duration <= 0 || math.IsNaN(e.duration) {
		e.mu.Unlock()
		return nil
	}
	target := percent / 100 * e.duration
	gen := e.gen
	e.mu.Unlock()

	if err := e.element.Seek(target); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		return nil
	}
	e.current = target
	e.progress[e.active] = e.percent()
	events := []Event{{Type: EventProgress, TrackID: e.active, State: e.state, Percent: e.percent(), Current: e.current, Duration: e.duration}}
	e.mu.Unlock()
	e.emit(events)
	return nil
}

// SetVolume applies level to the live element and keeps it for later tracks. Values outside [0, 1] are rejected.
func (e *Engine) SetVolume(level float64) error {
	if math.IsNaN(level) || level < 0 || level > 1 {
		return fmt.Errorf("%w: volume %v is outside 0-1", shared.ErrInvalidArgument, level)
	}

	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	e.volume = level
	active := e.active != ""
	e.mu.Unlock()

	if active {
		if err := e.element.SetVolume(level); err != nil {
			return fmt.Errorf("failed to set volume: %w", err)
		}
	}
	return nil
}

// ToggleMute flips the mute flag and returns the new value.
func (e *Engine) ToggleMute() (bool, error) {
	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	e.muted = !e.muted
	muted, active := e.muted, e.active != ""
	e.mu.Unlock()

	if active {
		if err := e.element.SetMuted(muted); err != nil {
			return muted, fmt.Errorf("failed to mute: %w", err)
		}
	}
	return muted, nil
}

// Advance activates the neighbour of the active track in the queue, wrapping at both ends.
func (e *Engine) Advance(ctx context.Context, dir Direction) (models.Track, error) {
	e.op.Lock()
	defer e.op.Unlock()

	e.mu.Lock()
	active, queue := e.active, e.queue
	e.mu.Unlock()

	track, err := queue.Resolve(active, dir)
	if err != nil {
		return models.Track{}, err
	}
	return track, e.activate(ctx, track.ID, track.MediaURL)
}

// listener routes element notifications for one load generation back to the engine.
type listener struct {
	engine *Engine
	gen    uint64
}

func (l *listener) MetadataLoaded(duration float64) {
	e := l.engine
	e.mu.Lock()
	if e.gen != l.gen || e.active == "" {
		e.mu.Unlock()
		return
	}
	e.duration = duration
	e.queue.SetDuration(e.active, duration)
	events := []Event{{Type: EventMetadata, TrackID: e.active, State: e.state, Duration: duration, Percent: e.percent()}}
	e.mu.Unlock()
	e.emit(events)
}

func (l *listener) TimeUpdate(current float64) {
	e := l.engine
	e.mu.Lock()
	if e.gen != l.gen || e.active == "" {
		e.mu.Unlock()
		return
	}
	e.current = current
	pct := e.percent()
	e.progress[e.active] = pct
	events := []Event{{Type: EventProgress, TrackID: e.active, State: e.state, Percent: pct, Current: current, Duration: e.duration}}
	e.mu.Unlock()
	e.emit(events)
}

func (l *listener) Ended() {
	e := l.engine
	e.mu.Lock()
	if e.gen != l.gen || e.active == "" {
		e.mu.Unlock()
		return
	}
	id := e.active
	e.gen++
	e.progress[id] = 100
	e.active = ""
	e.state = Idle
	e.current, e.duration = 0, 0
	events := []Event{
		{Type: EventEnded, TrackID: id, State: Idle, Percent: 100},
		e.stateEvent(),
	}
	e.mu.Unlock()
	e.emit(events)
}

func (l *listener) Errored(err error) {
	e := l.engine
	e.mu.Lock()
	if e.gen != l.gen || e.active == "" {
		e.mu.Unlock()
		return
	}
	events := e.fail(&PlaybackError{TrackID: e.active, Err: err})
	e.mu.Unlock()
	e.logger.Error("media element error", "error", err)
	e.emit(events)
}
