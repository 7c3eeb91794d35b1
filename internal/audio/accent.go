package audio

import (
	"fmt"
	"strings"
)

// Accent selects the pronunciation variant of a word
type Accent string

const (
	AccentUS Accent = "us"
	AccentUK Accent = "uk"
)

// ParseAccent converts a user supplied accent ("us", "UK", ...) into an Accent
func ParseAccent(s string) (Accent, error) {
	switch Accent(strings.ToLower(strings.TrimSpace(s))) {
	case AccentUS:
		return AccentUS, nil
	case AccentUK:
		return AccentUK, nil
	default:
		return "", fmt.Errorf("unknown accent %q (want us or uk)", s)
	}
}

// FallbackType returns the accent code used by the dictionary voice service:
// "0" for US and "1" for UK.
func (a Accent) FallbackType() string {
	if a == AccentUK {
		return "1"
	}
	return "0"
}

func (a Accent) String() string {
	return string(a)
}

// AttemptKind tells which source a download attempt targets
type AttemptKind int

const (
	// Primary is the per-word pronunciation file, fetched with the caller's headers
	Primary AttemptKind = iota
	// Fallback is the dictionary text-to-speech service, fetched at most once
	Fallback
)

func (k AttemptKind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Request is a single pronunciation playback request
type Request struct {
	Word    string
	Accent  Accent
	Headers map[string]string
}

// Clone returns a copy of the request that shares no state with the original,
// so the caller may keep mutating its header map.
func (r Request) Clone() Request {
	c := Request{Word: r.Word, Accent: r.Accent}
	if len(r.Headers) > 0 {
		c.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			c.Headers[k] = v
		}
	}
	return c
}
