package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockResponse is what the AudioServer answers for a request path
type MockResponse struct {
	StatusCode int
	Body       []byte
	Delay      time.Duration // wait before answering, aborted if the client goes away
}

// ServedRequest records a request seen by the AudioServer
type ServedRequest struct {
	Path    string
	Query   string
	Headers http.Header
}

// AudioServer is an httptest server answering pronunciation requests from a table
type AudioServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	calls     []ServedRequest
}

// NewAudioServer starts a server. Unknown paths answer 404.
func NewAudioServer(t *testing.T) *AudioServer {
	t.Helper()

	s := &AudioServer{responses: make(map[string]MockResponse)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Respond sets the response for path (including query for the fallback source)
func (s *AudioServer) Respond(path string, resp MockResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = resp
}

// Calls returns a copy of all requests served so far
func (s *AudioServer) Calls() []ServedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ServedRequest{}, s.calls...)
}

// CallCount returns how many requests were made for path
func (s *AudioServer) CallCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.calls {
		if key(c.Path, c.Query) == path {
			n++
		}
	}
	return n
}

func (s *AudioServer) serve(w http.ResponseWriter, r *http.Request) {
	k := key(r.URL.Path, r.URL.RawQuery)

	s.mu.Lock()
	s.calls = append(s.calls, ServedRequest{Path: r.URL.Path, Query: r.URL.RawQuery, Headers: r.Header.Clone()})
	resp, ok := s.responses[k]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(resp.Body)))
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}

func key(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}
