package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/Iron-Ham/adminkit/internal/event"
	"github.com/Iron-Ham/adminkit/internal/logging"
)

// RequestOptions are the per-call settings of Request.
type RequestOptions struct {
	// Data is the request body. []byte and string are sent as-is; anything
	// else is encoded as JSON.
	Data any

	// Params are appended to the URL query, serialized in sorted key order.
	Params url.Values

	// Header is merged over the client's default headers.
	Header http.Header

	// Cache enables the response cache for GET requests.
	Cache bool

	// CacheTTL overrides the configured TTL for this response.
	CacheTTL time.Duration

	// Timeout overrides the configured per-attempt timeout.
	Timeout time.Duration

	// Retries overrides the configured retry count when non-nil.
	Retries *int

	// Loader, when set, is the loader target shown while the request runs.
	Loader string

	// LoaderMessage is the message shown by the loader.
	LoaderMessage string
}

// Retries returns a pointer for RequestOptions.Retries.
func Retries(n int) *int { return &n }

// flight tracks the callers joined on one in-flight request.
type flight struct {
	waiters int
	cancel  context.CancelFunc
}

// Client is the admin API client.
type Client struct {
	cfg        Config
	http       *http.Client
	clock      clock.Clock
	bus        *event.Bus
	logger     *logging.Logger
	registerer prometheus.Registerer
	limiter    *rate.Limiter
	metrics    *metrics
	cache      *lru.Cache[string, cacheEntry]

	flights singleflight.Group
	csrf    singleflight.Group

	mu               sync.Mutex
	headers          http.Header
	inflight         map[string]*flight
	reqInterceptors  []RequestInterceptor
	respInterceptors []ResponseInterceptor
}

// New creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:      cfg,
		headers:  make(http.Header),
		inflight: make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.logger == nil {
		c.logger = logging.NopLogger()
	}
	c.logger = c.logger.With("subsystem", "api")
	if c.bus == nil {
		c.bus = event.NewBus(c.logger)
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultConfig().CacheSize
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create response cache")
	}
	c.cache = cache

	m, err := newMetrics(c.registerer)
	if err != nil {
		return nil, err
	}
	c.metrics = m

	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}

	for k, v := range cfg.Headers {
		c.headers.Set(k, v)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.cfg }

// SetHeader sets a default header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(key, value)
}

// Headers returns a copy of the default headers.
func (c *Client) Headers() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headers.Clone()
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodGet, endpoint, opts)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPost, endpoint, opts)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPut, endpoint, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, endpoint, opts)
}

// Key returns the de-duplication and cache key of a request.
func (c *Client) Key(method, endpoint string, params url.Values) (string, error) {
	u, err := c.buildURL(endpoint, params)
	if err != nil {
		return "", err
	}
	return requestKey(method, u), nil
}

func requestKey(method, u string) string {
	return strings.ToUpper(method) + ":" + u
}

// Request performs an API request. Concurrent calls with the same key share
// one in-flight request, and its options are those of the first caller.
// A caller whose ctx ends stops waiting; the shared request is cancelled once
// every joined caller has stopped waiting.
func (c *Client) Request(ctx context.Context, method, endpoint string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}
	method = strings.ToUpper(method)

	u, err := c.buildURL(endpoint, opts.Params)
	if err != nil {
		return nil, errors.NewAPIError("invalid request URL", err).WithRequest(method, endpoint)
	}
	key := requestKey(method, u)
	logger := c.logger.WithRequest(key)

	cacheable := method == http.MethodGet && opts.Cache
	if cacheable {
		if resp, ok := c.cacheGet(key); ok {
			c.metrics.cacheHits.Inc()
			logger.Debug("cache hit")
			return resp, nil
		}
	}

	ch, f, joined := c.join(ctx, key, func(fctx context.Context) (any, error) {
		return c.execute(fctx, method, u, key, opts)
	})
	defer c.leave(f)
	if joined {
		c.metrics.shared.Inc()
		logger.Debug("joined in-flight request")
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Response), nil
	case <-ctx.Done():
		return nil, errors.NewAPIError("request canceled", errors.Join(errors.ErrCanceled, ctx.Err())).
			WithRequest(method, u).WithRetryable(false)
	}
}

// join registers the caller on the flight for key, starting it if needed.
// It reports whether an existing flight was joined.
func (c *Client) join(ctx context.Context, key string, fn func(context.Context) (any, error)) (<-chan singleflight.Result, *flight, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, joined := c.inflight[key]
	if !joined {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{cancel: cancel}
		c.inflight[key] = f
		ch := c.flights.DoChan(key, func() (any, error) {
			defer c.settle(key, f)
			return fn(fctx)
		})
		f.waiters++
		return ch, f, false
	}

	f.waiters++
	ch := c.flights.DoChan(key, func() (any, error) {
		// Unreachable while the flight is registered under c.mu.
		return nil, errors.ErrCanceled
	})
	return ch, f, true
}

// settle forgets a finished flight so that the next call starts a new one.
func (c *Client) settle(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flights.Forget(key)
	if c.inflight[key] == f {
		delete(c.inflight, key)
	}
	f.cancel()
}

// leave drops a waiter; the last waiter of an unfinished flight cancels it.
func (c *Client) leave(f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f.waiters--
	if f.waiters <= 0 {
		f.cancel()
	}
}

// Waiters returns the number of callers waiting on the in-flight request for
// key, or 0 when none is in flight.
func (c *Client) Waiters(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.inflight[key]; ok {
		return f.waiters
	}
	return 0
}

// execute runs the attempts of one flight.
func (c *Client) execute(ctx context.Context, method, u, key string, opts *RequestOptions) (*Response, error) {
	logger := c.logger.WithRequest(key)

	if opts.Loader != "" {
		c.bus.Emit(event.EventLoaderShow, event.LoaderShow{Target: opts.Loader, Message: opts.LoaderMessage})
		defer c.bus.Emit(event.EventLoaderHide, event.LoaderHide{Target: opts.Loader})
	}

	retries := c.cfg.Retries
	if opts.Retries != nil {
		retries = *opts.Retries
	}
	retries = max(retries, 0)

	timeout := c.cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	var lastErr *errors.APIError
	attempts := 0
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			logger.Debug("retrying request", "attempt", attempt, "delay", delay.String())
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = errors.NewAPIError("request canceled", errors.Join(errors.ErrCanceled, err)).
					WithRetryable(false)
				break
			}
			c.metrics.retries.Inc()
		}

		attempts++
		resp, err := c.attempt(ctx, method, u, opts, timeout)
		if err == nil {
			c.metrics.requests.WithLabelValues(method, "success").Inc()
			c.afterSuccess(method, u, key, opts, resp)
			return resp, nil
		}

		lastErr = err
		if !errors.IsRetryable(err) {
			break
		}
		logger.Warn("request attempt failed", "attempt", attempt, "error", err.Error())
	}

	c.metrics.requests.WithLabelValues(method, "error").Inc()
	lastErr = lastErr.WithRequest(method, u).WithAttempts(attempts).WithTimestamp(c.clock.Now())
	logger.Error("request failed", "attempts", attempts, "status", lastErr.Status, "error", lastErr.Error())
	return nil, lastErr
}

func (c *Client) afterSuccess(method, u, key string, opts *RequestOptions, resp *Response) {
	switch method {
	case http.MethodGet:
		if opts.Cache && resp.Success {
			ttl := c.cfg.CacheTTL
			if opts.CacheTTL > 0 {
				ttl = opts.CacheTTL
			}
			c.cacheSet(key, resp, ttl)
		}
	case http.MethodHead, http.MethodOptions:
	default:
		if n := c.invalidateResource(u); n > 0 {
			c.logger.WithRequest(key).Debug("invalidated cached responses", "count", n)
		}
	}
}

// backoff returns the delay before retry number attempt (0-based).
func (c *Client) backoff(attempt int) time.Duration {
	base := c.cfg.RetryBaseDelay
	if base <= 0 {
		return 0
	}
	return base << attempt
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := c.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildURL joins the base URL and endpoint and merges params into the query.
func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	raw := endpoint
	if !strings.Contains(endpoint, "://") {
		base := strings.TrimRight(c.cfg.BaseURL, "/")
		raw = base + "/" + strings.TrimLeft(endpoint, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(params) > 0 || u.RawQuery != "" {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// encodeBody returns the request body and its default content type.
func encodeBody(data any) ([]byte, string, error) {
	switch v := data.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "application/octet-stream", nil
	case string:
		return []byte(v), "text/plain; charset=utf-8", nil
	case json.RawMessage:
		return v, "application/json", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return b, "application/json", nil
	}
}
