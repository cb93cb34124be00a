package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/playback"
	"github.com/desertthunder/encore/internal/upload"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTracksLoaded MsgKind = iota
	MsgPlaybackEvent
	MsgControlDone
	MsgEventsClosed
	MsgUploadProgress
	MsgUploadComplete
)

type tracksLoaded struct {
	tracks []models.Track
	err    error
}

type controlDone struct {
	action string
	track  *models.Track
	err    error
}

type uploadComplete struct {
	result *upload.Result
	err    error
}

// tracksLoadedMsg is the constructor for [MsgTracksLoaded]
func tracksLoadedMsg(tracks []models.Track, err error) Msg {
	return Msg{kind: MsgTracksLoaded, data: tracksLoaded{tracks, err}}
}

// playbackEventMsg is the constructor for [MsgPlaybackEvent]
func playbackEventMsg(e playback.Event) Msg {
	return Msg{kind: MsgPlaybackEvent, data: e}
}

// controlDoneMsg is the constructor for [MsgControlDone]; track is set when the action selected a track.
func controlDoneMsg(action string, track *models.Track, err error) Msg {
	return Msg{kind: MsgControlDone, data: controlDone{action, track, err}}
}

func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}

// uploadProgressMsg is the constructor for [MsgUploadProgress]
func uploadProgressMsg(update upload.ProgressUpdate) Msg {
	return Msg{kind: MsgUploadProgress, data: update}
}

// uploadCompleteMsg is the constructor for [MsgUploadComplete]
func uploadCompleteMsg(result *upload.Result, err error) Msg {
	return Msg{kind: MsgUploadComplete, data: uploadComplete{result, err}}
}
