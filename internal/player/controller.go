package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"codeberg.org/snonux/pronounce/internal/audio"
	"codeberg.org/snonux/pronounce/internal/sound"
)

// Fetcher downloads a clip. Failures should be *audio.Error values; anything
// else is treated as a download failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// Options configures a Controller
type Options struct {
	Policy Policy

	// ForwardHeadersOnFallback also sends the caller's headers to the fallback
	// source. Off by default: the fallback is an unrelated service.
	ForwardHeadersOnFallback bool

	// Endpoints of the two sources, audio.DefaultEndpoints() when zero
	Endpoints audio.Endpoints

	// Observer receives every event outside the controller lock
	Observer func(Event)

	Logger zerolog.Logger
}

// Status is a point-in-time view of the controller
type Status struct {
	State      State
	Generation uint64
	RequestID  string
	Word       string
	Accent     audio.Accent
	Attempt    audio.AttemptKind
}

// Controller plays one pronunciation clip at a time
type Controller struct {
	fetcher Fetcher
	sink    sound.Sink
	opts    Options
	logger  zerolog.Logger

	// startMu serializes sink starts; mu is never held across one
	startMu sync.Mutex

	mu      sync.Mutex
	state   State
	gen     uint64
	current *run
	closed  bool
}

// run is the bookkeeping of one accepted request
type run struct {
	gen     uint64
	id      string
	req     audio.Request
	ctx     context.Context
	cancel  context.CancelFunc
	attempt audio.AttemptKind
	url     string
	session sound.Session

	// detached is what the run reports once it is no longer current
	detached error
}

// New creates an idle controller
func New(fetcher Fetcher, sink sound.Sink, opts Options) *Controller {
	if opts.Endpoints == (audio.Endpoints{}) {
		opts.Endpoints = audio.DefaultEndpoints()
	}
	return &Controller{
		fetcher: fetcher,
		sink:    sink,
		opts:    opts,
		logger:  opts.Logger,
	}
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current state together with the active request, if any
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{State: c.state, Generation: c.gen}
	if r := c.current; r != nil {
		st.RequestID = r.id
		st.Word = r.req.Word
		st.Accent = r.req.Accent
		st.Attempt = r.attempt
	}
	return st
}

// PlayWithHeaders is the boundary entry point taking the accent as text
func (c *Controller) PlayWithHeaders(ctx context.Context, word, accent string, headers map[string]string) error {
	a, err := audio.ParseAccent(accent)
	if err != nil {
		return &audio.Error{Code: audio.CodeInvalidURL, Message: audio.InvalidURL(word + "_" + accent).Message, Err: err}
	}
	return c.Play(ctx, audio.Request{Word: word, Accent: a, Headers: headers})
}

// Play downloads and starts the pronunciation of req. It returns nil once
// playback has started, or the terminal *audio.Error of the request.
func (c *Controller) Play(ctx context.Context, req audio.Request) (err error) {
	req = req.Clone()

	ctx, span := tracer.Start(ctx, "player.Play", trace.WithAttributes(
		attribute.String("word", req.Word),
		attribute.String("accent", req.Accent.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// Input errors surface before touching any state
	if _, err := c.opts.Endpoints.URL(req.Word, req.Accent, audio.Primary); err != nil {
		return err
	}

	r, prev, prevSession, err := c.acquire(ctx, req)
	if err != nil {
		c.logger.Debug().Str("word", req.Word).Err(err).Msg("request refused")
		return err
	}
	span.SetAttributes(attribute.String("request_id", r.id))

	if prev != nil {
		c.logger.Debug().
			Str("request_id", prev.id).
			Str("superseded_by", r.id).
			Msg("request superseded")
		c.teardown(prev, prevSession)
	}

	if err := c.attempts(r); err != nil {
		c.release(r, err)
		return err
	}
	return nil
}

// Cancel stops the active download or playback. It is a no-op when idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	r, s := c.detachLocked(audio.Interrupted(nil))
	c.mu.Unlock()

	c.teardown(r, s)
}

// Close cancels any active request and refuses all future ones. Outstanding
// Play calls return INTERNAL_ERROR. Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	r, s := c.detachLocked(audio.Internal())
	c.mu.Unlock()

	c.teardown(r, s)
	return nil
}

// acquire makes req the current request according to the policy. Under
// Preempt the displaced run and its session are returned for teardown.
func (c *Controller) acquire(ctx context.Context, req audio.Request) (*run, *run, sound.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, nil, nil, audio.Internal()
	}

	var prev *run
	var prevSession sound.Session
	if c.current != nil {
		if c.opts.Policy == Reject {
			return nil, nil, nil, audio.AlreadyPlaying()
		}
		prev, prevSession = c.detachLocked(audio.Interrupted(nil))
	}

	c.gen++
	r := &run{
		gen: c.gen,
		id:  uuid.NewString(),
		req: req,
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	c.current = r
	c.state = Downloading

	return r, prev, prevSession, nil
}

// detachLocked drops the current run and returns it with its session. The
// run reports reason from then on.
func (c *Controller) detachLocked(reason error) (*run, sound.Session) {
	r := c.current
	if r == nil {
		return nil, nil
	}
	r.detached = reason
	s := r.session
	c.current = nil
	c.state = Idle
	return r, s
}

// teardown silences a detached run synchronously and cancels its download.
// Nil arguments are fine.
func (c *Controller) teardown(r *run, s sound.Session) {
	if r == nil {
		return
	}
	if s != nil {
		s.Stop()
	}
	r.cancel()

	if s != nil {
		// Play already returned for this run, report the early end here
		c.emit(c.event(r, PlaybackFinished, audio.Interrupted(nil)))
	}
}

// release returns to Idle after a failed request, if it is still current
func (c *Controller) release(r *run, err error) {
	c.mu.Lock()
	if c.current == r {
		c.current = nil
		c.state = Idle
	}
	c.mu.Unlock()
	r.cancel()

	kind := RequestFailed
	if audio.CodeOf(err) == audio.CodeInterrupted || audio.CodeOf(err) == audio.CodeInternal {
		kind = RequestInterrupted
	}
	c.emit(c.event(r, kind, err))

	c.logger.Info().
		Str("request_id", r.id).
		Str("word", r.req.Word).
		Str("code", string(audio.CodeOf(err))).
		Err(err).
		Msg("pronunciation failed")
}

// staleLocked returns the error for a run that is no longer current, nil otherwise
func (c *Controller) staleLocked(r *run) error {
	if c.current == r {
		return nil
	}
	if r.detached != nil {
		return r.detached
	}
	if c.closed {
		return audio.Internal()
	}
	return audio.Interrupted(nil)
}

func (c *Controller) stale(r *run) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staleLocked(r)
}

// attempts runs the primary attempt and, if it fails recoverably, the single
// fallback attempt. The returned error is the last attempt's.
func (c *Controller) attempts(r *run) error {
	var lastErr error
	for _, kind := range []audio.AttemptKind{audio.Primary, audio.Fallback} {
		err := c.attempt(r, kind)
		if err == nil {
			return nil
		}
		if !recoverable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Controller) attempt(r *run, kind audio.AttemptKind) (err error) {
	ctx, span := tracer.Start(r.ctx, "player.attempt", trace.WithAttributes(
		attribute.String("attempt", kind.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	url, err := c.opts.Endpoints.URL(r.req.Word, r.req.Accent, kind)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("url", url))

	var headers map[string]string
	if kind == audio.Primary || c.opts.ForwardHeadersOnFallback {
		headers = r.req.Headers
	}

	c.mu.Lock()
	if err := c.staleLocked(r); err != nil {
		c.mu.Unlock()
		return err
	}
	r.attempt = kind
	r.url = url
	c.mu.Unlock()

	c.emitFor(r, c.event(r, AttemptStarted, nil))
	log := c.logger.With().Str("request_id", r.id).Str("word", r.req.Word).Str("attempt", kind.String()).Logger()
	log.Debug().Str("url", url).Msg("downloading")

	data, err := c.fetcher.Fetch(ctx, url, headers)
	if serr := c.stale(r); serr != nil {
		return serr
	}
	if err != nil {
		err = asAudioError(err)
		c.emitFor(r, c.event(r, AttemptFailed, err))
		log.Debug().Err(err).Msg("download failed")
		return err
	}

	final := kind == audio.Fallback
	if !audio.IsPlayable(data) {
		if !final {
			err := notAudio(data)
			c.emitFor(r, c.event(r, AttemptFailed, err))
			log.Debug().Int("bytes", len(data)).Msg("clip failed sniffing")
			return err
		}
		// Last chance, let the decoder decide
		log.Debug().Int("bytes", len(data)).Msg("fallback clip failed sniffing, decoding anyway")
	}

	session, err := c.start(ctx, r, data)
	if err != nil {
		if audio.CodeOf(err) == audio.CodePlaybackFailed {
			c.emitFor(r, c.event(r, AttemptFailed, err))
			log.Debug().Err(err).Msg("clip could not be played")
		}
		return err
	}

	c.emitFor(r, c.event(r, PlaybackStarted, nil))
	log.Info().Str("format", audio.DetectFormat(data).String()).Int("bytes", len(data)).Msg("playback started")

	go c.watch(r, session)
	return nil
}

// start begins playback of data and makes the session r's. Starts are
// serialized, so a session whose run went stale meanwhile is stopped before
// the next one begins. The controller lock is only taken to commit.
func (c *Controller) start(ctx context.Context, r *run, data []byte) (sound.Session, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if err := c.stale(r); err != nil {
		return nil, err
	}

	session, err := c.sink.Start(ctx, data)
	if err != nil {
		if serr := c.stale(r); serr != nil {
			return nil, serr
		}
		if errors.Is(err, context.Canceled) {
			return nil, audio.Interrupted(err)
		}
		return nil, audio.PlaybackFailed(err)
	}

	c.mu.Lock()
	err = c.staleLocked(r)
	if err == nil {
		r.session = session
		c.state = Playing
	}
	c.mu.Unlock()

	if err != nil {
		session.Stop()
		return nil, err
	}
	return session, nil
}

// watch waits for the end of a session and returns to Idle if the run is
// still current. Completions of superseded runs are dropped.
func (c *Controller) watch(r *run, session sound.Session) {
	err := <-session.Done()

	c.mu.Lock()
	if c.current != r {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.state = Idle
	c.mu.Unlock()
	r.cancel()

	c.emit(c.event(r, PlaybackFinished, err))
	if err != nil {
		c.logger.Warn().Str("request_id", r.id).Err(err).Msg("playback ended with error")
	} else {
		c.logger.Debug().Str("request_id", r.id).Msg("playback finished")
	}
}

func (c *Controller) event(r *run, kind EventKind, err error) Event {
	c.mu.Lock()
	attempt, url := r.attempt, r.url
	c.mu.Unlock()

	return Event{
		Kind:       kind,
		RequestID:  r.id,
		Generation: r.gen,
		Word:       r.req.Word,
		Accent:     r.req.Accent,
		Attempt:    attempt,
		URL:        url,
		Err:        err,
		At:         time.Now(),
	}
}

// emitFor emits ev only while r is still the current run
func (c *Controller) emitFor(r *run, ev Event) {
	if c.stale(r) != nil {
		return
	}
	c.emit(ev)
}

func (c *Controller) emit(ev Event) {
	if c.opts.Observer != nil {
		c.opts.Observer(ev)
	}
}

// recoverable reports whether an attempt failure is retried with the fallback
func recoverable(err error) bool {
	switch audio.CodeOf(err) {
	case audio.CodeDownloadFailed, audio.CodeNoData, audio.CodePlaybackFailed:
		return true
	}
	return false
}

func asAudioError(err error) error {
	if audio.CodeOf(err) != "" {
		return err
	}
	return audio.DownloadFailed(err)
}

func notAudio(data []byte) error {
	return &audio.Error{
		Code:    audio.CodeNoData,
		Message: fmt.Sprintf("No audio data received: unrecognized format (%d bytes)", len(data)),
	}
}
