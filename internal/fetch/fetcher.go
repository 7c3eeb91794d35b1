package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"codeberg.org/snonux/pronounce/internal/audio"
)

const (
	DefaultTimeout = 2 * time.Second
	MaxTimeout     = 3 * time.Second
	DefaultMaxSize = 5 * 1024 * 1024 // 5MB, a word clip is a few KB
)

// BreakerConfig configures the per-host circuit breaker
type BreakerConfig struct {
	MaxFailures uint32        // consecutive failures before the breaker opens
	OpenTimeout time.Duration // how long the breaker stays open
}

// Config holds fetcher settings
type Config struct {
	Timeout   time.Duration // hard per-request timeout, clamped to MaxTimeout
	MaxBytes  int64         // maximum accepted body size
	UserAgent string
	Breaker   BreakerConfig

	// Transport is the base round tripper, http.DefaultTransport if nil
	Transport http.RoundTripper
}

// DefaultConfig returns the fetcher defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:   DefaultTimeout,
		MaxBytes:  DefaultMaxSize,
		UserAgent: "pronounce/1.0",
		Breaker: BreakerConfig{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
	}
}

// Fetcher performs single GET requests for audio clips
type Fetcher struct {
	client *http.Client
	config *Config
	logger zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a fetcher. A nil config uses DefaultConfig.
func New(config *Config, logger zerolog.Logger) *Fetcher {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Timeout > MaxTimeout {
		cfg.Timeout = MaxTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxSize
	}
	if cfg.Breaker.MaxFailures == 0 {
		cfg.Breaker.MaxFailures = 5
	}
	if cfg.Breaker.OpenTimeout <= 0 {
		cfg.Breaker.OpenTimeout = 30 * time.Second
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		config:   &cfg,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Timeout returns the effective per-request timeout
func (f *Fetcher) Timeout() time.Duration {
	return f.config.Timeout
}

// Fetch downloads url with the given headers attached verbatim.
// Failures are returned as *audio.Error: INTERRUPTED when ctx was cancelled,
// NO_DATA for an empty successful body and DOWNLOAD_ERROR for everything else.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, audio.InvalidURL(url)
	}

	req.Header.Set("Cache-Control", "no-cache")
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	cb := f.breaker(req.URL.Host)
	out, err := cb.Execute(func() (interface{}, error) {
		return f.do(req)
	})
	if err != nil {
		ferr := f.classify(ctx, err)
		f.logger.Debug().
			Str("url", url).
			Str("code", string(ferr.Code)).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("fetch failed")
		return nil, ferr
	}

	data := out.([]byte)
	// A response that raced with cancellation is discarded
	if ctx.Err() != nil {
		return nil, audio.Interrupted(ctx.Err())
	}
	if len(data) == 0 {
		return nil, audio.NoData()
	}

	f.logger.Debug().
		Str("url", url).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("fetch complete")

	return data, nil
}

func (f *Fetcher) do(req *http.Request) ([]byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > f.config.MaxBytes {
		return nil, fmt.Errorf("response exceeds maximum size of %d bytes", f.config.MaxBytes)
	}

	return data, nil
}

func (f *Fetcher) classify(ctx context.Context, err error) *audio.Error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return audio.Interrupted(ctx.Err())
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return audio.DownloadFailed(fmt.Errorf("source temporarily disabled: %w", err))
	}
	return audio.DownloadFailed(err)
}

// breaker returns the circuit breaker for host, creating it on first use
func (f *Fetcher) breaker(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[host]; ok {
		return cb
	}

	maxFailures := f.config.Breaker.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     f.config.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isHostHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn().
				Str("host", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	f.breakers[host] = cb
	return cb
}

// BreakerState returns the breaker state for host, closed if never used
func (f *Fetcher) BreakerState(host string) gobreaker.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.breakers[host]; ok {
		return cb.State()
	}
	return gobreaker.StateClosed
}

// isHostHealthy decides whether an outcome counts against the host.
// Cancellations and client errors (a missing word answers 404) do not.
func isHostHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < 500
	}
	return false
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
