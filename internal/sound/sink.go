package sound

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrStopped is delivered on Session.Done when a session was stopped by its owner
var ErrStopped = errors.New("playback stopped")

// Sink starts playback sessions from complete in-memory clips
type Sink interface {
	// Start decodes data and begins playback. It returns once output has started
	// or failed to start; ctx only bounds the start-up, not the session.
	Start(ctx context.Context, data []byte) (Session, error)
}

// Session is a running playback
type Session interface {
	// Done delivers exactly one value, nil on natural end of clip or the
	// decode/output error, and is then closed
	Done() <-chan error

	// Stop silences output synchronously. It is safe to call more than once.
	Stop()
}

// session is the Session shared by all sinks
type session struct {
	done chan error
	once sync.Once
	stop func()
}

func newSession(stop func()) *session {
	return &session{
		done: make(chan error, 1),
		stop: stop,
	}
}

func (s *session) Done() <-chan error {
	return s.done
}

func (s *session) Stop() {
	s.finish(ErrStopped)
}

// finish releases the output and publishes err; only the first call counts
func (s *session) finish(err error) {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.done <- err
		close(s.done)
	})
}

// Kind names a sink implementation
type Kind string

const (
	KindDevice  Kind = "device"
	KindCommand Kind = "command"
	KindNull    Kind = "null"
)

// Options configures NewSink
type Options struct {
	Kind    Kind
	Command []string // explicit player command for KindCommand, e.g. ["mpg123", "-q"]
	TempDir string   // where KindCommand writes clips, os.TempDir() if empty
	Logger  zerolog.Logger
}

// NewSink creates the sink selected by opts.Kind
func NewSink(opts Options) (Sink, error) {
	switch opts.Kind {
	case KindDevice, "":
		return NewDeviceSink(opts.Logger), nil
	case KindCommand:
		return NewCommandSink(opts.Command, opts.TempDir, opts.Logger), nil
	case KindNull:
		return &NullSink{}, nil
	default:
		return nil, fmt.Errorf("unknown sink: %s", opts.Kind)
	}
}
