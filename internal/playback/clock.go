package playback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/desertthunder/encore/internal/shared"
)

var _ MediaElement = (*ClockElement)(nil)

// DurationResolver returns the duration of a resource in seconds.
type DurationResolver func(ctx context.Context, url string) (float64, error)

// FixedDurations resolves durations from a map keyed by URL. Unknown URLs fail to load.
func FixedDurations(durations map[string]float64) DurationResolver {
	return func(_ context.Context, url string) (float64, error) {
		d, ok := durations[url]
		if !ok {
			return 0, fmt.Errorf("%w: %s", shared.ErrObjectNotFound, url)
		}
		return d, nil
	}
}

// ClockElement simulates playback by advancing a position against a clock.
//
// With a zero tick the element only moves when [ClockElement.Step] is called.
type ClockElement struct {
	mu sync.Mutex

	resolve DurationResolver
	tick    time.Duration

	listener Listener
	url      string
	loaded   bool
	playing  bool
	position float64
	duration float64
	volume   float64
	muted    bool
	stop     chan struct{}
}

// NewClockElement creates an element; tick is the time update interval.
func NewClockElement(resolve DurationResolver, tick time.Duration) *ClockElement {
	return &ClockElement{resolve: resolve, tick: tick, volume: 1}
}

func (c *ClockElement) Load(ctx context.Context, url string, l Listener) error {
	c.mu.Lock()
	c.haltLocked()
	c.loaded, c.playing = false, false
	c.position, c.duration = 0, 0
	c.listener, c.url = nil, url
	c.mu.Unlock()

	d, err := c.resolve(ctx, url)
	if err != nil {
		return err
	}
	if d <= 0 || math.IsNaN(d) {
		d = 0
	}

	c.mu.Lock()
	c.loaded = true
	c.duration = d
	c.listener = l
	c.mu.Unlock()

	l.MetadataLoaded(d)
	return nil
}

func (c *ClockElement) Play(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	if c.playing {
		return nil
	}
	if c.position >= c.duration && c.duration > 0 {
		c.position = 0
	}
	c.playing = true

	if c.tick > 0 {
		c.stop = make(chan struct{})
		go c.run(c.stop, c.tick)
	}
	return nil
}

func (c *ClockElement) run(stop <-chan struct{}, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.Step(tick) {
				return
			}
		}
	}
}

// Step advances a playing element by d and notifies the listener. It reports whether playback continues.
func (c *ClockElement) Step(d time.Duration) bool {
	c.mu.Lock()
	if !c.loaded || !c.playing {
		c.mu.Unlock()
		return false
	}

	c.position += d.Seconds()
	ended := c.duration > 0 && c.position >= c.duration
	if ended {
		c.position = c.duration
		c.playing = false
		c.stop = nil
	}
	pos, l := c.position, c.listener
	c.mu.Unlock()

	l.TimeUpdate(pos)
	if ended {
		l.Ended()
		return false
	}
	return true
}

// Fail reports err to the listener as a decode or network failure.
func (c *ClockElement) Fail(err error) {
	c.mu.Lock()
	c.haltLocked()
	c.playing = false
	l := c.listener
	c.mu.Unlock()

	if l != nil {
		l.Errored(err)
	}
}

func (c *ClockElement) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	c.haltLocked()
	c.playing = false
	return nil
}

func (c *ClockElement) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	c.haltLocked()
	c.loaded, c.playing = false, false
	c.position = 0
	c.listener = nil
	return nil
}

// haltLocked stops the ticker goroutine; the caller holds mu.
func (c *ClockElement) haltLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *ClockElement) Seek(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	c.position = min(max(seconds, 0), c.duration)
	return nil
}

func (c *ClockElement) SetVolume(level float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = level
	return nil
}

func (c *ClockElement) SetMuted(muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
	return nil
}

func (c *ClockElement) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *ClockElement) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Volume returns the applied volume.
func (c *ClockElement) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Muted reports whether the element is muted.
func (c *ClockElement) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// Playing reports whether the element is producing output.
func (c *ClockElement) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// URL returns the loaded resource.
func (c *ClockElement) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}
