// Package upstreamtest runs a fake VATSIM upstream for package tests.
//
// The server answers every path it has a response for and 404s the rest. By
// default it serves a status document pointing at its own live-data,
// transceivers and METAR paths, so a live client configured with StatusURL()
// bootstraps against it exactly as it would against the real network.
package upstreamtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Well-known paths
const (
	PathStatus       = "/status.json"
	PathData         = "/v3/vatsim-data.json"
	PathTransceivers = "/v3/transceivers-data.json"
	PathMETAR        = "/metar.php"
	PathAPI          = "/api"
)

type response struct {
	status int
	body   []byte
	delay  time.Duration
}

// Server is a fake upstream
type Server struct {
	srv *httptest.Server

	mu        sync.Mutex
	responses map[string]response
	hits      map[string]int
	queries   map[string][]string
}

// New starts a fake upstream that is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		responses: make(map[string]response),
		hits:      make(map[string]int),
		queries:   make(map[string][]string),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)
	r.Get("/*", s.serve)

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)

	s.SetJSON(PathStatus, StatusDocument(s.srv.URL))
	s.Set(PathTransceivers, http.StatusOK, Transceivers())
	s.Set(PathMETAR, http.StatusOK, METARs())
	return s
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.queries[r.URL.Path] = append(s.queries[r.URL.Path], r.URL.RawQuery)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp, ok := s.responses[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if resp.delay > 0 {
		select {
		case <-time.After(resp.delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

// URL returns the absolute URL of path on this server
func (s *Server) URL(path string) string {
	return s.srv.URL + path
}

// BaseURL returns the server root without a trailing slash
func (s *Server) BaseURL() string {
	return s.srv.URL
}

// StatusURL returns the URL of the status document
func (s *Server) StatusURL() string {
	return s.URL(PathStatus)
}

// DataURL returns the URL of the live-data document
func (s *Server) DataURL() string {
	return s.URL(PathData)
}

// Set installs a raw response for path
func (s *Server) Set(path string, status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.responses[path]
	s.responses[path] = response{status: status, body: body, delay: prev.delay}
}

// SetJSON installs a 200 response carrying v encoded as JSON
func (s *Server) SetJSON(path string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.Set(path, http.StatusOK, body)
}

// SetDelay holds responses on path for d, or until the client goes away
func (s *Server) SetDelay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := s.responses[path]
	resp.delay = d
	s.responses[path] = resp
}

// Remove makes path answer 404
func (s *Server) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.responses, path)
}

// Hits returns how many requests path has received
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastQuery returns the raw query string of the latest request to path
func (s *Server) LastQuery(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queries[path]
	if len(q) == 0 {
		return ""
	}
	return q[len(q)-1]
}
