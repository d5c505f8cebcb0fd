// Package app wires the event bus, component registry, document, API client
// and loader registry into one application context.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/Iron-Ham/adminkit/internal/apiclient"
	"github.com/Iron-Ham/adminkit/internal/component"
	"github.com/Iron-Ham/adminkit/internal/config"
	"github.com/Iron-Ham/adminkit/internal/dom"
	"github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/Iron-Ham/adminkit/internal/event"
	"github.com/Iron-Ham/adminkit/internal/loader"
	"github.com/Iron-Ham/adminkit/internal/logging"
	"github.com/Iron-Ham/adminkit/internal/navigation"
)

// CSRFMetaSelector locates a server-rendered CSRF token in the document.
const CSRFMetaSelector = `meta[name="csrf-token"]`

// App is the application context. Every subsystem is created once by New
// and shared through the accessors.
type App struct {
	cfg      *config.Config
	logger   *logging.Logger
	bus      *event.Bus
	doc      *dom.Document
	registry *component.Registry
	api      *apiclient.Client
	loaders  *loader.Registry
}

type options struct {
	httpClient *http.Client
	clock      clock.Clock
	registerer prometheus.Registerer
	document   *dom.Document
}

// Option configures New.
type Option func(*options)

// WithHTTPClient sets the HTTP client of the API client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithClock sets the clock shared by the API client and loader registry.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithRegisterer registers API client metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithDocument mounts components into doc instead of an empty document.
func WithDocument(doc *dom.Document) Option {
	return func(o *options) { o.document = doc }
}

// New builds the application context from cfg. A nil cfg uses the defaults;
// a nil logger discards output.
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.document == nil {
		o.document = dom.NewDocument()
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		bus:    event.NewBus(logger.With("subsystem", "bus"), event.WithClock(o.clock)),
		doc:    o.document,
	}
	a.registry = component.NewRegistry(a.bus, logger)

	apiOpts := []apiclient.Option{
		apiclient.WithBus(a.bus),
		apiclient.WithLogger(logger),
		apiclient.WithClock(o.clock),
	}
	if o.httpClient != nil {
		apiOpts = append(apiOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	if o.registerer != nil {
		apiOpts = append(apiOpts, apiclient.WithRegisterer(o.registerer))
	}
	api, err := apiclient.New(ClientConfig(cfg.API), apiOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create api client")
	}
	a.api = api

	a.loaders = loader.New(logger.With("subsystem", "loader"),
		loader.WithClock(o.clock),
		loader.WithDefaultTimeout(cfg.Loader.DefaultTimeout),
	)
	if err := a.loaders.Attach(a.bus); err != nil {
		return nil, err
	}

	if _, err := a.bus.On(event.EventError, a.onListenerError, event.WithContext(a)); err != nil {
		return nil, err
	}
	return a, nil
}

// ClientConfig converts the api section of the configuration.
func ClientConfig(api config.APIConfig) apiclient.Config {
	return apiclient.Config{
		BaseURL:        api.BaseURL,
		Timeout:        api.Timeout,
		Retries:        api.Retries,
		RetryBaseDelay: api.RetryBaseDelay,
		CacheTTL:       api.Cache.TTL,
		CacheSize:      api.Cache.Size,
		Headers:        api.Security.Headers,
		CSRF: apiclient.CSRFConfig{
			Enabled:  api.Security.CSRF.Enabled,
			Endpoint: api.Security.CSRF.Endpoint,
			Header:   api.Security.CSRF.Header,
			Field:    api.Security.CSRF.Field,
		},
		RequestsPerSecond: api.RateLimit.RequestsPerSecond,
		Burst:             api.RateLimit.Burst,
	}
}

// NavItems converts configured navigation entries.
func NavItems(items []config.NavItem) []navigation.Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]navigation.Item, len(items))
	for i, it := range items {
		out[i] = navigation.Item{
			Path:     it.Path,
			Title:    it.Title,
			Icon:     it.Icon,
			Children: NavItems(it.Children),
		}
	}
	return out
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the app logger.
func (a *App) Logger() *logging.Logger { return a.logger }

// Bus returns the shared event bus.
func (a *App) Bus() *event.Bus { return a.bus }

// Document returns the document components mount into.
func (a *App) Document() *dom.Document { return a.doc }

// Components returns the component registry.
func (a *App) Components() *component.Registry { return a.registry }

// API returns the API client.
func (a *App) API() *apiclient.Client { return a.api }

// Loaders returns the loader registry.
func (a *App) Loaders() *loader.Registry { return a.loaders }

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start prepares the API client and publishes app:ready. A CSRF token
// rendered into a csrf-token meta tag is used instead of fetching one.
func (a *App) Start(ctx context.Context) error {
	if meta := a.doc.Query(CSRFMetaSelector); meta != nil {
		if token := strings.TrimSpace(meta.GetAttribute("content")); token != "" {
			a.api.SetCSRFToken(token)
		}
	}
	if err := a.api.Init(ctx); err != nil {
		a.ReportError("api", err)
		return err
	}

	a.logger.Info("application ready", "components", a.registry.Count())
	a.bus.Emit(event.EventAppReady)
	return nil
}

// Mount creates a component, initializes it with props and mounts it into
// the first element matching selector. A component that fails to mount is
// destroyed.
func (a *App) Mount(name string, hooks component.Hooks, selector string, props component.Values) (*component.Component, error) {
	container := a.doc.Query(selector)
	if container == nil {
		return nil, errors.NewComponentError("no element matches "+selector, errors.ErrMissingContainer).
			WithComponent("", name)
	}

	c := a.registry.New(name, hooks)
	if err := c.Init(props); err != nil {
		c.Destroy()
		return nil, err
	}
	if err := c.Mount(container); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// Navigate publishes page:change for path.
func (a *App) Navigate(path, title string) {
	a.logger.Debug("navigate", "path", path)
	a.bus.Emit(event.EventPageChange, event.PageChange{Path: path, Title: title})
}

// ReportError logs err and publishes it as app:error.
func (a *App) ReportError(source string, err error) {
	if err == nil {
		return
	}
	a.logger.Error("application error", "source", source, "error", err.Error(),
		"severity", errors.GetSeverity(err).String())
	a.bus.Emit(event.EventAppError, event.AppError{Source: source, Err: err})
}

// onListenerError forwards listener failures to app:error. Failures of
// app:error listeners are only logged.
func (a *App) onListenerError(_ *event.Event, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	err, ok := args[0].(error)
	if !ok {
		return nil, nil
	}
	var lerr *errors.ListenerError
	if errors.As(err, &lerr) && lerr.Event == event.EventAppError {
		return nil, nil
	}
	a.ReportError("bus", err)
	return nil, nil
}

// Shutdown destroys every component, stops pending loader timeouts and
// releases the app's bus subscriptions. Components that fail to tear down
// cleanly are reported together.
func (a *App) Shutdown() error {
	err := a.registry.DestroyAll()
	if n := a.registry.Count(); n > 0 {
		err = multierr.Append(err, fmt.Errorf("%d components still registered", n))
	}
	a.loaders.Close()
	a.bus.OffContext("", a)
	a.api.ClearCache()

	if err != nil {
		a.logger.Warn("shutdown completed with errors", "error", err.Error())
		return err
	}
	a.logger.Info("application stopped")
	return nil
}
