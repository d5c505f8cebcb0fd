package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	kiterrors "github.com/Iron-Ham/adminkit/internal/errors"
	kittest "github.com/Iron-Ham/adminkit/internal/testutil"
)

func TestClient_InitFetchesCSRFToken(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/csrf-token":
			fetches.Add(1)
			kittest.WriteJSON(w, http.StatusOK, map[string]any{"csrfToken": "abc123"})
		case "/api/users":
			if got := r.Header.Get("X-CSRF-Token"); got != "abc123" {
				t.Errorf("X-CSRF-Token = %q, want abc123", got)
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.CSRF.Enabled = true })
	ctx := context.Background()

	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if c.CSRFToken() != "abc123" {
		t.Errorf("CSRFToken() = %q", c.CSRFToken())
	}
	if err := c.Init(ctx); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	if fetches.Load() != 1 {
		t.Errorf("token fetched %d times, want 1", fetches.Load())
	}
	if _, err := c.Post(ctx, "/users", &RequestOptions{Data: map[string]string{}}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
}

func TestClient_CSRFTokenFromEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kittest.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"token": "t-1"}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.CSRF.Enabled = true
		cfg.CSRF.Field = "token"
		cfg.CSRF.Header = "X-XSRF"
	})
	token, err := c.RefreshCSRFToken(context.Background())
	if err != nil {
		t.Fatalf("RefreshCSRFToken failed: %v", err)
	}
	if token != "t-1" || c.Headers().Get("X-XSRF") != "t-1" {
		t.Errorf("token = %q, header = %q", token, c.Headers().Get("X-XSRF"))
	}
}

func TestClient_CSRFMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kittest.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.CSRF.Enabled = true })
	err := c.Init(context.Background())
	if !errors.Is(err, kiterrors.ErrCSRFToken) {
		t.Errorf("Init error = %v, want ErrCSRFToken", err)
	}
}

func TestClient_InitSkipsWhenTokenInstalled(t *testing.T) {
	c := newTestClient(t, "http://unreachable.invalid", func(cfg *Config) { cfg.CSRF.Enabled = true })
	c.SetCSRFToken("from-meta")

	if err := c.Init(context.Background()); err != nil {
		t.Errorf("Init should not fetch when a token is installed: %v", err)
	}
	if c.CSRFToken() != "from-meta" {
		t.Errorf("CSRFToken() = %q", c.CSRFToken())
	}
}

func TestClient_InitDisabled(t *testing.T) {
	c := newTestClient(t, "http://unreachable.invalid", nil)
	if err := c.Init(context.Background()); err != nil {
		t.Errorf("Init with CSRF disabled should be a no-op: %v", err)
	}
}
