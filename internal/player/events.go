package player

import (
	"time"

	"codeberg.org/snonux/pronounce/internal/audio"
)

// EventKind identifies a controller event
type EventKind int

const (
	AttemptStarted EventKind = iota
	AttemptFailed
	PlaybackStarted
	PlaybackFinished
	RequestFailed
	RequestInterrupted
)

func (k EventKind) String() string {
	switch k {
	case AttemptStarted:
		return "attempt_started"
	case AttemptFailed:
		return "attempt_failed"
	case PlaybackStarted:
		return "playback_started"
	case PlaybackFinished:
		return "playback_finished"
	case RequestFailed:
		return "request_failed"
	case RequestInterrupted:
		return "request_interrupted"
	default:
		return "unknown"
	}
}

// Event reports progress of a request to the controller's observer
type Event struct {
	Kind       EventKind
	RequestID  string
	Generation uint64
	Word       string
	Accent     audio.Accent
	Attempt    audio.AttemptKind
	URL        string
	Err        error
	At         time.Time
}

// Terminal reports whether the event closes the request's history
func (e Event) Terminal() bool {
	switch e.Kind {
	case PlaybackStarted, RequestFailed, RequestInterrupted:
		return true
	}
	return false
}
