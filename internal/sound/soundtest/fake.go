// Package soundtest provides a scriptable in-memory sound.Sink for tests.
package soundtest

import (
	"context"
	"errors"
	"sync"

	"codeberg.org/snonux/pronounce/internal/audio"
	"codeberg.org/snonux/pronounce/internal/sound"
)

// ErrUndecodable is returned by RejectUnplayable
var ErrUndecodable = errors.New("unrecognized audio format")

// RejectUnplayable fails every clip the sniffer does not recognise
func RejectUnplayable(data []byte) error {
	if !audio.IsPlayable(data) {
		return ErrUndecodable
	}
	return nil
}

// Sink records started sessions. Sessions never end on their own: tests call
// Finish on them to simulate the end of a clip.
type Sink struct {
	// StartErr decides whether a clip fails to start, nil accepts everything
	StartErr func(data []byte) error

	// Gate, when set, holds every Start until it is closed or ctx ends
	Gate chan struct{}

	mu        sync.Mutex
	sessions  []*Session
	starts    int
	active    int
	maxActive int
}

func (s *Sink) Start(ctx context.Context, data []byte) (sound.Session, error) {
	s.mu.Lock()
	s.starts++
	check, gate := s.StartErr, s.Gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if check != nil {
		if err := check(data); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess := &Session{sink: s, data: data, done: make(chan error, 1)}

	s.mu.Lock()
	s.sessions = append(s.sessions, sess)
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.mu.Unlock()

	return sess, nil
}

// Sessions returns all sessions started so far
func (s *Sink) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Session{}, s.sessions...)
}

// Last returns the most recent session or nil
func (s *Sink) Last() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return nil
	}
	return s.sessions[len(s.sessions)-1]
}

// Starts returns how many times Start was called, including failed starts
func (s *Sink) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Active returns the number of sessions that have not ended
func (s *Sink) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// MaxActive returns the largest number of simultaneously running sessions
func (s *Sink) MaxActive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxActive
}

// Session is a fake playback session
type Session struct {
	sink *Sink
	data []byte
	done chan error

	once    sync.Once
	mu      sync.Mutex
	stopped bool
}

func (s *Session) Done() <-chan error {
	return s.done
}

func (s *Session) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.end(sound.ErrStopped)
}

// Finish simulates the clip ending, with err as a decode error if non-nil
func (s *Session) Finish(err error) {
	s.end(err)
}

// Stopped reports whether the owner stopped the session
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Data returns the clip the session was started with
func (s *Session) Data() []byte {
	return s.data
}

func (s *Session) end(err error) {
	s.once.Do(func() {
		s.sink.mu.Lock()
		s.sink.active--
		s.sink.mu.Unlock()
		s.done <- err
		close(s.done)
	})
}
