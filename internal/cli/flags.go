package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	BatchFile string
	GUIMode   bool
	DryRun    bool
	LogLevel  string

	// Playback flags
	Accent         string
	Headers        []string
	Policy         string
	ForwardHeaders bool
	Timeout        time.Duration

	// Output flags
	Sink      string
	PlayerCmd string

	// Source flags
	PrimaryBase  string
	FallbackBase string

	// History flags
	HistoryFile string
	HistoryList int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Accent:   "us",
		Policy:   "preempt",
		Timeout:  2 * time.Second,
		Sink:     "device",
		LogLevel: "warn",
	}
}
