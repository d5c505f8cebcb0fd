// Package testutil provides testing utilities for adminkit tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/adminkit/internal/dom"
)

// DefaultWait bounds WaitFor.
const DefaultWait = 2 * time.Second

// WaitFor polls cond until it returns true, failing the test after
// DefaultWait. Use it for callbacks that run on another goroutine, such as
// timers fired by a mock clock.
func WaitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(DefaultWait)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// ParseDocument parses markup, failing the test on error.
func ParseDocument(t *testing.T, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(markup)
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}

// WriteFile writes content to name inside a fresh temp dir and returns the
// full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// APIServer is an httptest server that records how often each path was
// requested.
type APIServer struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// NewAPIServer starts a server dispatching to routes by exact path. Unknown
// paths answer 404. The server is closed when the test completes.
func NewAPIServer(t *testing.T, routes map[string]http.HandlerFunc) *APIServer {
	t.Helper()
	s := &APIServer{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Hits returns the number of requests made to path.
func (s *APIServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}
