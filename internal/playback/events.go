package playback

import "fmt"

// State is the engine state.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Errored:
		return "errored"
	default:
		return ""
	}
}

// EventType enumerates engine notifications.
type EventType int

const (
	EventState EventType = iota
	EventMetadata
	EventProgress
	EventEnded
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventState:
		return "state"
	case EventMetadata:
		return "metadata"
	case EventProgress:
		return "progress"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return ""
	}
}

// Event is a notification from the engine to its consumer.
type Event struct {
	Type     EventType
	TrackID  string
	State    State
	Percent  float64
	Current  float64
	Duration float64
	Err      error
}

func (e Event) String() string {
	switch e.Type {
	case EventProgress:
		return fmt.Sprintf("%s %s %.1f%%", e.Type, e.TrackID, e.Percent)
	case EventError:
		return fmt.Sprintf("%s %s: %v", e.Type, e.TrackID, e.Err)
	default:
		return fmt.Sprintf("%s %s %s", e.Type, e.TrackID, e.State)
	}
}

// Notifier receives engine events. Notify is called without engine locks held.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// ChanNotifier sends events on a channel without blocking; events are dropped when the channel is full.
type ChanNotifier chan<- Event

func (c ChanNotifier) Notify(e Event) {
	select {
	case c <- e:
	default:
	}
}
