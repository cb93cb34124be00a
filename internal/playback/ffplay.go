package playback

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/encore/internal/shared"
)

var _ MediaElement = (*FFPlayElement)(nil)

// FFProbe reads media metadata with the ffprobe binary.
type FFProbe struct {
	Path string // defaults to "ffprobe"
}

// ProbeDuration returns the container duration of a file or URL in seconds.
func (p FFProbe) ProbeDuration(ctx context.Context, target string) (float64, error) {
	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, bin, "-v", "quiet", "-print_format", "json", "-show_format", target)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", target, err)
	}
	return parseProbeDuration(out)
}

func parseProbeDuration(out []byte) (float64, error) {
	var data struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &data); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	raw := strings.TrimSpace(data.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("%w: duration unavailable", shared.ErrInvalidInput)
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}

// FFPlayElement plays resources through an ffplay child process.
//
// ffplay has no control channel without a window, so pausing, seeking and volume changes stop the
// process and start a new one at the remembered position.
type FFPlayElement struct {
	mu sync.Mutex

	ffplay  string
	probe   FFProbe
	tick    time.Duration
	display bool
	logger  *log.Logger

	url      string
	listener Listener
	loaded   bool
	playing  bool
	offset   float64
	started  time.Time
	duration float64
	volume   float64
	muted    bool
	cancel   context.CancelFunc
	session  uint64
}

// FFPlayOptions configure an [FFPlayElement].
type FFPlayOptions struct {
	FFPlayPath  string
	FFProbePath string
	Tick        time.Duration
	Display     bool // open a video window
	Logger      *log.Logger
}

// NewFFPlayElement creates an element from the [player] config section.
func NewFFPlayElement(opts FFPlayOptions) *FFPlayElement {
	if opts.FFPlayPath == "" {
		opts.FFPlayPath = "ffplay"
	}
	if opts.Tick <= 0 {
		opts.Tick = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &FFPlayElement{
		ffplay:  opts.FFPlayPath,
		probe:   FFProbe{Path: opts.FFProbePath},
		tick:    opts.Tick,
		display: opts.Display,
		logger:  shared.WithLogger(opts.Logger, "component", "ffplay"),
		volume:  1,
	}
}

func (f *FFPlayElement) Load(ctx context.Context, url string, l Listener) error {
	f.mu.Lock()
	f.killLocked()
	f.loaded, f.playing = false, false
	f.offset, f.duration = 0, 0
	f.url, f.listener = url, nil
	f.mu.Unlock()

	d, err := f.probe.ProbeDuration(ctx, url)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.loaded = true
	f.duration = d
	f.listener = l
	f.mu.Unlock()

	l.MetadataLoaded(d)
	return nil
}

func (f *FFPlayElement) args() []string {
	vol := int(f.volume * 100)
	if f.muted {
		vol = 0
	}
	args := []string{"-autoexit", "-loglevel", "error", "-volume", strconv.Itoa(vol)}
	if !f.display {
		args = append(args, "-nodisp")
	}
	if f.offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(f.offset, 'f', 3, 64))
	}
	return append(args, f.url)
}

func (f *FFPlayElement) Play(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		return ErrNotLoaded
	}
	if f.playing {
		return nil
	}
	if f.duration > 0 && f.offset >= f.duration {
		f.offset = 0
	}
	return f.startLocked(ctx)
}

// startLocked launches ffplay at the current offset; the caller holds mu.
func (f *FFPlayElement) startLocked(ctx context.Context) error {
	procCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cmd := exec.CommandContext(procCtx, f.ffplay, f.args()...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("ffplay failed to start: %w", err)
	}

	f.session++
	f.cancel = cancel
	f.playing = true
	f.started = time.Now()
	f.logger.Debug("ffplay started", "url", f.url, "offset", f.offset, "pid", cmd.Process.Pid)

	go f.wait(cmd, f.session)
	go f.report(procCtx, f.session)
	return nil
}

func (f *FFPlayElement) wait(cmd *exec.Cmd, session uint64) {
	err := cmd.Wait()

	f.mu.Lock()
	if f.session != session || !f.playing {
		f.mu.Unlock()
		return
	}
	f.playing = false
	f.cancel = nil
	f.offset = f.duration
	l := f.listener
	f.mu.Unlock()

	if l == nil {
		return
	}
	if err != nil {
		l.Errored(fmt.Errorf("ffplay exited: %w", err))
		return
	}
	l.TimeUpdate(f.Duration())
	l.Ended()
}

func (f *FFPlayElement) report(ctx context.Context, session uint64) {
	ticker := time.NewTicker(f.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.session != session || !f.playing {
				f.mu.Unlock()
				return
			}
			pos, l := f.positionLocked(), f.listener
			f.mu.Unlock()
			if l != nil {
				l.TimeUpdate(pos)
			}
		}
	}
}

func (f *FFPlayElement) positionLocked() float64 {
	pos := f.offset
	if f.playing {
		pos += time.Since(f.started).Seconds()
	}
	if f.duration > 0 {
		pos = min(pos, f.duration)
	}
	return pos
}

// killLocked stops the running process and freezes the position; the caller holds mu.
func (f *FFPlayElement) killLocked() {
	if !f.playing {
		return
	}
	f.offset = f.positionLocked()
	f.playing = false
	f.session++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// restartLocked applies new arguments to a running process; the caller holds mu.
func (f *FFPlayElement) restartLocked() error {
	if !f.playing {
		return nil
	}
	f.killLocked()
	return f.startLocked(context.Background())
}

func (f *FFPlayElement) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		return ErrNotLoaded
	}
	f.killLocked()
	return nil
}

func (f *FFPlayElement) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		return ErrNotLoaded
	}
	f.killLocked()
	f.loaded = false
	f.offset = 0
	f.listener = nil
	return nil
}

func (f *FFPlayElement) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		return ErrNotLoaded
	}
	if f.playing {
		f.killLocked()
		f.offset = max(seconds, 0)
		return f.startLocked(context.Background())
	}
	f.offset = max(seconds, 0)
	return nil
}

func (f *FFPlayElement) SetVolume(level float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = level
	return f.restartLocked()
}

func (f *FFPlayElement) SetMuted(muted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.muted == muted {
		return nil
	}
	f.muted = muted
	return f.restartLocked()
}

func (f *FFPlayElement) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.positionLocked()
}

func (f *FFPlayElement) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}
