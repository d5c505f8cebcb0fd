package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Iron-Ham/adminkit/internal/apiclient"
	"github.com/Iron-Ham/adminkit/internal/component"
	"github.com/Iron-Ham/adminkit/internal/config"
	kiterrors "github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/Iron-Ham/adminkit/internal/event"
	"github.com/Iron-Ham/adminkit/internal/loader"
	"github.com/Iron-Ham/adminkit/internal/navigation"
	"github.com/Iron-Ham/adminkit/internal/testutil"
)

const layout = `<html><head>%s</head><body>
<aside id="nav"></aside>
<header id="crumbs"></header>
<div id="loaders"></div>
<main id="content"></main>
</body></html>`

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.API.RetryBaseDelay = 0
	cfg.API.Retries = 0
	cfg.Navigation.Items = []config.NavItem{
		{Path: "/", Title: "Dashboard"},
		{Path: "/users", Title: "Users"},
	}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, head string) *App {
	t.Helper()
	doc := testutil.ParseDocument(t, fmt.Sprintf(layout, head))
	a, err := New(cfg, nil, WithDocument(doc), WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown() })
	return a
}

func TestClientConfig(t *testing.T) {
	cfg := config.Default().API
	cfg.Security.CSRF.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 4

	got := ClientConfig(cfg)
	if got.BaseURL != cfg.BaseURL || got.Timeout != cfg.Timeout || got.Retries != cfg.Retries {
		t.Errorf("ClientConfig() = %+v", got)
	}
	if got.CacheTTL != cfg.Cache.TTL || got.CacheSize != cfg.Cache.Size {
		t.Errorf("ClientConfig() cache = %v/%d", got.CacheTTL, got.CacheSize)
	}
	want := apiclient.CSRFConfig{Enabled: true, Endpoint: "/csrf-token", Header: "X-CSRF-Token", Field: "csrfToken"}
	if diff := cmp.Diff(want, got.CSRF); diff != "" {
		t.Errorf("ClientConfig().CSRF mismatch (-want +got):\n%s", diff)
	}
	if got.RequestsPerSecond != 4 || got.Burst != 1 {
		t.Errorf("ClientConfig() rate = %v/%d", got.RequestsPerSecond, got.Burst)
	}
}

func TestNavItems(t *testing.T) {
	got := NavItems([]config.NavItem{
		{Path: "/users", Title: "Users", Icon: "user", Children: []config.NavItem{{Path: "/users/groups", Title: "Groups"}}},
	})
	want := []navigation.Item{
		{Path: "/users", Title: "Users", Icon: "user", Children: []navigation.Item{{Path: "/users/groups", Title: "Groups"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NavItems() mismatch (-want +got):\n%s", diff)
	}
	if NavItems(nil) != nil {
		t.Error("NavItems(nil) should be nil")
	}
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(nil, nil, WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Shutdown()

	if a.Config().API.BaseURL != config.Default().API.BaseURL {
		t.Errorf("Config().API.BaseURL = %q", a.Config().API.BaseURL)
	}
	if a.Document().Body() == nil {
		t.Error("Document() has no body")
	}
	if a.Components().Bus() != a.Bus() {
		t.Error("component registry does not share the app bus")
	}

	a.Bus().Emit(event.EventLoaderShow, event.LoaderShow{Target: "#content"})
	if !a.Loaders().IsActive("#content") {
		t.Error("loader registry not attached to the app bus")
	}
}

func TestStart_UsesMetaToken(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.API.Security.CSRF.Enabled = true
	a := newTestApp(t, cfg, `<meta name="csrf-token" content=" tok-123 ">`)

	ready := 0
	a.Bus().On(event.EventAppReady, func(*event.Event, ...any) (any, error) {
		ready++
		return nil, nil
	})

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := a.API().CSRFToken(); got != "tok-123" {
		t.Errorf("CSRFToken() = %q, want tok-123", got)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
	if ready != 1 {
		t.Errorf("app:ready emitted %d times, want 1", ready)
	}
}

func TestStart_FetchesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/csrf-token" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"csrfToken":"fresh"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL + "/api")
	cfg.API.Security.CSRF.Enabled = true
	a := newTestApp(t, cfg, "")

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := a.API().CSRFToken(); got != "fresh" {
		t.Errorf("CSRFToken() = %q, want fresh", got)
	}
}

func TestStart_TokenFailureReported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.API.Security.CSRF.Enabled = true
	a := newTestApp(t, cfg, "")

	var reported []event.AppError
	a.Bus().On(event.EventAppError, func(_ *event.Event, args ...any) (any, error) {
		reported = append(reported, args[0].(event.AppError))
		return nil, nil
	})
	ready := false
	a.Bus().On(event.EventAppReady, func(*event.Event, ...any) (any, error) {
		ready = true
		return nil, nil
	})

	err := a.Start(context.Background())
	if !errors.Is(err, kiterrors.ErrCSRFToken) {
		t.Fatalf("Start() = %v, want ErrCSRFToken", err)
	}
	if len(reported) != 1 || reported[0].Source != "api" {
		t.Errorf("app:error payloads = %+v, want one from api", reported)
	}
	if ready {
		t.Error("app:ready emitted after a failed start")
	}
}

func TestMount(t *testing.T) {
	a := newTestApp(t, testConfig("http://localhost/api"), "")

	nav, err := a.Mount(navigation.NavigationName, navigation.New(NavItems(a.Config().Navigation.Items)), "#nav",
		component.Values{"active": "/"})
	if err != nil {
		t.Fatalf("Mount(navigation) failed: %v", err)
	}
	crumbs, err := a.Mount(navigation.BreadcrumbName, navigation.NewBreadcrumb(nil), "#crumbs", nil)
	if err != nil {
		t.Fatalf("Mount(breadcrumb) failed: %v", err)
	}
	if a.Components().Count() != 2 {
		t.Errorf("Count() = %d, want 2", a.Components().Count())
	}

	a.Navigate("/users", "Users")
	if got := navigation.Active(nav); got != "/users" {
		t.Errorf("navigation active = %q, want /users", got)
	}
	if got := crumbs.Query(".crumb.active").Text(); got != "Users" {
		t.Errorf("breadcrumb active = %q, want Users", got)
	}

	_, err = a.Mount("missing", nil, "#nope", nil)
	if !errors.Is(err, kiterrors.ErrMissingContainer) {
		t.Errorf("Mount(#nope) = %v, want ErrMissingContainer", err)
	}
}

type failingHooks struct {
	component.BaseHooks
}

func (failingHooks) Template(*component.Component) (string, error) {
	return "", errors.New("template broke")
}

func TestMount_FailureDestroys(t *testing.T) {
	a := newTestApp(t, testConfig("http://localhost/api"), "")

	if _, err := a.Mount("broken", failingHooks{}, "#content", nil); err == nil {
		t.Fatal("Mount() should fail when the template fails")
	}
	if a.Components().Count() != 0 {
		t.Errorf("Count() = %d after failed mount, want 0", a.Components().Count())
	}
}

func TestListenerErrorsBecomeAppErrors(t *testing.T) {
	a := newTestApp(t, testConfig("http://localhost/api"), "")
	boom := errors.New("boom")

	var reported []event.AppError
	a.Bus().On(event.EventAppError, func(_ *event.Event, args ...any) (any, error) {
		reported = append(reported, args[0].(event.AppError))
		return nil, errors.New("app:error listener failed too")
	})
	a.Bus().On("users:loaded", func(*event.Event, ...any) (any, error) {
		return nil, boom
	})

	a.Bus().Emit("users:loaded")

	// The failing app:error listener must not cause another round.
	if len(reported) != 1 {
		t.Fatalf("app:error emitted %d times, want 1", len(reported))
	}
	if reported[0].Source != "bus" || !errors.Is(reported[0].Err, boom) {
		t.Errorf("app:error payload = %+v", reported[0])
	}
	var lerr *kiterrors.ListenerError
	if !errors.As(reported[0].Err, &lerr) || lerr.Event != "users:loaded" {
		t.Errorf("app:error cause = %v, want ListenerError for users:loaded", reported[0].Err)
	}
}

func TestRequestLoaderFollowsBus(t *testing.T) {
	var a *App
	var activeDuring atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		activeDuring.Store(a.Loaders().IsActive("#users"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	a = newTestApp(t, testConfig(srv.URL), "")
	if _, err := a.Mount(loader.ComponentName, loader.NewPageLoader(a.Loaders()), "#loaders", nil); err != nil {
		t.Fatalf("Mount(page-loader) failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := a.API().Get(ctx, "/users", &apiclient.RequestOptions{Loader: "#users", LoaderMessage: "Loading users"}); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !activeDuring.Load() {
		t.Error("loader was not active while the request ran")
	}
	if a.Loaders().IsActive("#users") {
		t.Error("loader still active after the request")
	}
}

func TestShutdown(t *testing.T) {
	doc := testutil.ParseDocument(t, fmt.Sprintf(layout, ""))
	a, err := New(testConfig("http://localhost/api"), nil, WithDocument(doc), WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := a.Mount(navigation.NavigationName, navigation.New(nil), "#nav", nil); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	a.Bus().Emit(event.EventLoaderShow, "#content")

	if err := a.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if a.Components().Count() != 0 {
		t.Errorf("Count() = %d after Shutdown, want 0", a.Components().Count())
	}
	if a.Loaders().Count() != 0 {
		t.Errorf("Loaders().Count() = %d after Shutdown, want 0", a.Loaders().Count())
	}
	if n := a.Bus().SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount() = %d after Shutdown, want 0", n)
	}
	if doc.GetElementByID("nav").InnerHTML() != "" {
		t.Errorf("navigation markup left behind: %q", doc.GetElementByID("nav").InnerHTML())
	}
}
