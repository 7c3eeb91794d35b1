package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/pronounce/internal/audio"
)

var id3Clip = []byte{0x49, 0x44, 0x33, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

func newTestFetcher(cfg *Config) *Fetcher {
	return New(cfg, zerolog.Nop())
}

func TestNewClampsTimeout(t *testing.T) {
	f := newTestFetcher(&Config{Timeout: 30 * time.Second})
	assert.Equal(t, MaxTimeout, f.Timeout())

	f = newTestFetcher(&Config{})
	assert.Equal(t, DefaultTimeout, f.Timeout())

	f = newTestFetcher(nil)
	assert.Equal(t, DefaultTimeout, f.Timeout())
}

func TestFetchSuccessForwardsHeaders(t *testing.T) {
	var gotCrypto, gotCache string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCrypto = r.Header.Get("x-crypto")
		gotCache = r.Header.Get("Cache-Control")
		_, _ = w.Write(id3Clip)
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	data, err := f.Fetch(context.Background(), srv.URL+"/pron/abandon_us.mp3", map[string]string{"x-crypto": "Viktor=abc"})
	require.NoError(t, err)
	assert.Equal(t, id3Clip, data)
	assert.Equal(t, "Viktor=abc", gotCrypto)
	assert.Equal(t, "no-cache", gotCache)
}

func TestFetchEmptyBodyIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTestFetcher(nil).Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, audio.CodeNoData, audio.CodeOf(err))
}

func TestFetchStatusErrorIsDownloadFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(nil).Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, audio.CodeDownloadFailed, audio.CodeOf(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := newTestFetcher(&Config{Timeout: 100 * time.Millisecond})
	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, audio.CodeDownloadFailed, audio.CodeOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchCancelledIsInterrupted(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
		cancel() // cancelling twice is harmless
	}()

	_, err := newTestFetcher(nil).Fetch(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, audio.ErrInterrupted), "got %v", err)
}

func TestFetchOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	_, err := newTestFetcher(&Config{MaxBytes: 16}).Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, audio.CodeDownloadFailed, audio.CodeOf(err))
	assert.Contains(t, err.Error(), "maximum size")
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := newTestFetcher(nil).Fetch(context.Background(), "http://[::1", nil)
	require.Error(t, err)
	assert.Equal(t, audio.CodeInvalidURL, audio.CodeOf(err))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(&Config{Breaker: BreakerConfig{MaxFailures: 3, OpenTimeout: time.Minute}})
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL, nil)
		require.Error(t, err)
	}

	host := srv.Listener.Addr().String()
	assert.Equal(t, gobreaker.StateOpen, f.BreakerState(host))

	_, err := f.Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, audio.CodeDownloadFailed, audio.CodeOf(err))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(3), hits.Load(), "open breaker must not reach the server")
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher(&Config{Breaker: BreakerConfig{MaxFailures: 2}})
	for i := 0; i < 5; i++ {
		_, _ = f.Fetch(context.Background(), srv.URL, nil)
	}
	assert.Equal(t, gobreaker.StateClosed, f.BreakerState(srv.Listener.Addr().String()))
}
