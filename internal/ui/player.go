package ui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/encore/internal/formatter"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/playback"
)

const (
	seekStep   = 5.0
	volumeStep = 0.1
)

// TrackLoader fetches the tracks shown by the player.
type TrackLoader func(ctx context.Context) ([]models.Track, error)

// PlayerOptions configure a [PlayerModel].
type PlayerOptions struct {
	Title    string
	Autoplay bool // advance to the next track when one ends
	Load     TrackLoader
}

// PlayerModel is a terminal player over one [playback.Engine].
type PlayerModel struct {
	ctx     context.Context
	engine  *playback.Engine
	events  <-chan playback.Event
	opts    PlayerOptions
	clock   func(float64) string
	tracks  []models.Track
	list    list.Model
	bar     progress.Model
	session playback.Session
	status  string
	err     error
	ready   bool
	width   int
	height  int
	help    help.Model
	keys    keyMap
}

// NewPlayer creates a player. events must be the channel fed by the engine's notifier, see [NewEventSink].
func NewPlayer(ctx context.Context, engine *playback.Engine, events <-chan playback.Event, opts PlayerOptions) *PlayerModel {
	if opts.Title == "" {
		opts.Title = "Top Songs"
	}

	clock := formatter.FormatClock
	if engine.Kind() == playback.Video {
		clock = formatter.FormatLongClock
	}

	return &PlayerModel{
		ctx:     ctx,
		engine:  engine,
		events:  events,
		opts:    opts,
		clock:   clock,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		session: engine.Session(),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the tracks and starts listening for engine events.
func (m *PlayerModel) Init() tea.Cmd {
	return tea.Batch(m.loadTracks(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-20, 10)
		if m.ready {
			m.list.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *PlayerModel) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTracksLoaded:
		data := msg.data.(tracksLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.tracks = data.tracks
		m.engine.SetQueue(data.tracks)
		m.list = list.New(trackItems(data.tracks, m.clock), list.NewDefaultDelegate(), 0, 0)
		m.list.Title = m.opts.Title
		m.list.SetShowHelp(false)
		m.list.SetSize(max(m.width-4, 20), max(m.height-10, 5))
		m.ready = true
		return m, nil

	case MsgPlaybackEvent:
		return m, tea.Batch(m.handleEvent(msg.data.(playback.Event)), m.waitForEvent())

	case MsgEventsClosed:
		return m, nil

	case MsgControlDone:
		data := msg.data.(controlDone)
		m.session = m.engine.Session()
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("%s failed: %v", data.action, data.err))
			return m, nil
		}
		if data.track != nil {
			m.selectTrack(data.track.ID)
		}
		return m, nil
	}
	return m, nil
}

// handleEvent applies an engine event; end-of-track triggers auto-advance when enabled.
func (m *PlayerModel) handleEvent(e playback.Event) tea.Cmd {
	m.session = m.engine.Session()

	switch e.Type {
	case playback.EventMetadata:
		m.refreshDurations()
	case playback.EventEnded:
		if m.opts.Autoplay {
			return m.playAfter(e.TrackID)
		}
		m.status = ""
	case playback.EventError:
		m.status = styles.err.Render(fmt.Sprintf("Playback failed: %v", e.Err))
	case playback.EventState:
		if e.State == playback.Playing {
			m.status = ""
		}
	}
	return nil
}

func (m *PlayerModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ready && m.list.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		_ = m.engine.Stop()
		return m, tea.Quit
	case !m.ready:
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.list.SelectedItem().(trackItem); ok {
			return m, m.control("play", func() error { return m.engine.TogglePlayPause(m.ctx, item.track.ID) })
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.advance(playback.Next)
	case key.Matches(msg, m.keys.prev):
		return m, m.advance(playback.Previous)
	case key.Matches(msg, m.keys.stop):
		return m, m.control("stop", m.engine.Stop)
	case key.Matches(msg, m.keys.forward):
		target := clamp(m.session.ProgressPercent+seekStep, 0, 100)
		return m, m.control("seek", func() error { return m.engine.Seek(target) })
	case key.Matches(msg, m.keys.back):
		target := clamp(m.session.ProgressPercent-seekStep, 0, 100)
		return m, m.control("seek", func() error { return m.engine.Seek(target) })
	case key.Matches(msg, m.keys.volumeUp):
		level := stepVolume(m.session.Volume, volumeStep)
		return m, m.control("volume", func() error { return m.engine.SetVolume(level) })
	case key.Matches(msg, m.keys.volumeDown):
		level := stepVolume(m.session.Volume, -volumeStep)
		return m, m.control("volume", func() error { return m.engine.SetVolume(level) })
	case key.Matches(msg, m.keys.mute):
		return m, m.control("mute", func() error {
			_, err := m.engine.ToggleMute()
			return err
		})
	}

	return m.updateList(msg)
}

func (m *PlayerModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *PlayerModel) loadTracks() tea.Cmd {
	return func() tea.Msg {
		if m.opts.Load == nil {
			return tracksLoadedMsg(nil, fmt.Errorf("no track source configured"))
		}
		tracks, err := m.opts.Load(m.ctx)
		return tracksLoadedMsg(tracks, err)
	}
}

func (m *PlayerModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		if m.events == nil {
			return eventsClosedMsg()
		}
		e, ok := <-m.events
		if !ok {
			return eventsClosedMsg()
		}
		return playbackEventMsg(e)
	}
}

// control runs an engine call off the update loop; element calls may block on I/O.
func (m *PlayerModel) control(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return controlDoneMsg(action, nil, fn())
	}
}

func (m *PlayerModel) advance(dir playback.Direction) tea.Cmd {
	return func() tea.Msg {
		track, err := m.engine.Advance(m.ctx, dir)
		if track.ID == "" {
			return controlDoneMsg(dir.String(), nil, err)
		}
		return controlDoneMsg(dir.String(), &track, err)
	}
}

// playAfter activates the track following id; the engine has already cleared the ended track.
func (m *PlayerModel) playAfter(id string) tea.Cmd {
	return func() tea.Msg {
		track, err := m.engine.Queue().Resolve(id, playback.Next)
		if err != nil {
			return controlDoneMsg("autoplay", nil, err)
		}
		return controlDoneMsg("autoplay", &track, m.engine.Activate(m.ctx, track.ID, track.MediaURL))
	}
}

func (m *PlayerModel) selectTrack(id string) {
	for i, t := range m.tracks {
		if t.ID == id {
			m.list.Select(i)
			return
		}
	}
}

func (m *PlayerModel) refreshDurations() {
	if !m.ready {
		return
	}
	m.tracks = m.engine.Queue().Tracks()
	m.list.SetItems(trackItems(m.tracks, m.clock))
}

// View renders the track list, the transport line and help.
func (m *PlayerModel) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if !m.ready {
		return styles.help.Render("Loading tracks...")
	}

	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n\n")
	b.WriteString(m.nowPlaying())
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.session.ProgressPercent / 100))
	fmt.Fprintf(&b, " %s / %s\n", m.clock(m.session.Current), m.clock(m.session.Duration))
	b.WriteString(m.volumeLine())
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *PlayerModel) nowPlaying() string {
	s := m.session
	if s.ActiveTrackID == "" {
		return styles.faint.Render("■ Nothing playing")
	}

	title, artist := models.UnknownTitle, models.UnknownArtist
	if t, ok := m.engine.Queue().Track(s.ActiveTrackID); ok {
		title, artist = t.DisplayTitle(), t.DisplayArtist()
	}

	switch s.State {
	case playback.Playing:
		return styles.playing.Render(fmt.Sprintf("▶ %s - %s", title, artist))
	case playback.Loading:
		return styles.warn.Render(fmt.Sprintf("… %s - %s", title, artist))
	default:
		return fmt.Sprintf("⏸ %s - %s", title, artist)
	}
}

func (m *PlayerModel) volumeLine() string {
	line := fmt.Sprintf("vol %3.0f%%", m.session.Volume*100)
	if m.session.Muted {
		line += " " + styles.warn.Render("muted")
	}
	if m.opts.Autoplay {
		line += styles.faint.Render("  autoplay")
	}
	return line
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// stepVolume moves level by delta in tenths, staying within [0, 1].
func stepVolume(level, delta float64) float64 {
	return clamp(math.Round((level+delta)*10)/10, 0, 1)
}
