package player

import (
	"fmt"
	"strings"
)

// State is the controller's lifecycle state
type State int

const (
	Idle State = iota
	Downloading
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Downloading:
		return "Downloading"
	case Playing:
		return "Playing"
	default:
		return "Unknown"
	}
}

// Policy decides what happens to a Play call while another request is active
type Policy int

const (
	// Preempt tears down the active request; its Play call returns INTERRUPTED
	Preempt Policy = iota
	// Reject refuses the new request with ALREADY_PLAYING
	Reject
)

func (p Policy) String() string {
	if p == Reject {
		return "reject"
	}
	return "preempt"
}

// ParsePolicy parses "preempt" or "reject"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "preempt", "":
		return Preempt, nil
	case "reject":
		return Reject, nil
	default:
		return Preempt, fmt.Errorf("unknown policy %q (want preempt or reject)", s)
	}
}
