// Package loader tracks loading indicators keyed by target and renders them
// through a PageLoader component.
package loader

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/Iron-Ham/adminkit/internal/event"
	"github.com/Iron-Ham/adminkit/internal/logging"
)

// GlobalTarget is the target used when Show is called with an empty target.
const GlobalTarget = "global"

// attachPriority places the registry ahead of listeners that render loader
// state, so they observe the updated entries.
const attachPriority = 100

// Options configures a single loader.
type Options struct {
	Message string
	Timeout time.Duration // Zero uses the registry default; negative disables
}

// Entry describes an active loader.
type Entry struct {
	ID        string
	Target    string
	Message   string
	Progress  float64 // Negative when unknown
	StartedAt time.Time
	Timeout   time.Duration
}

type entry struct {
	Entry
	timer *clock.Timer
}

// Registry holds at most one loader per target.
// It is safe for concurrent use.
type Registry struct {
	clock          clock.Clock
	logger         *logging.Logger
	defaultTimeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	bus     *event.Bus
	subs    []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used for start times and timeouts.
func WithClock(clk clock.Clock) Option {
	return func(r *Registry) { r.clock = clk }
}

// WithDefaultTimeout sets the timeout applied when Options.Timeout is zero.
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Registry) { r.defaultTimeout = d }
}

// New creates an empty registry.
func New(logger *logging.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = logging.NopLogger()
	}
	r := &Registry{
		clock:   clock.New(),
		logger:  logger,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID derives the loader id for target. Characters outside [a-z0-9] become
// dashes.
func ID(target string) string {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		target = GlobalTarget
	}
	var b strings.Builder
	b.WriteString("loader-")
	dash := false
	for _, r := range target {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > len("loader-") {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Show starts a loader for target, replacing any loader already shown for
// it. The previous loader's timeout is cancelled.
func (r *Registry) Show(target string, opts Options) string {
	if target == "" {
		target = GlobalTarget
	}
	id := ID(target)
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[id]; ok && prev.timer != nil {
		prev.timer.Stop()
	}
	e := &entry{Entry: Entry{
		ID:        id,
		Target:    target,
		Message:   opts.Message,
		Progress:  -1,
		StartedAt: r.clock.Now(),
	}}
	if timeout > 0 {
		e.Timeout = timeout
		e.timer = r.clock.AfterFunc(timeout, func() { r.expire(e) })
	}
	r.entries[id] = e

	r.logger.Debug("loader shown", "loader", id, "target", target, "timeout", timeout)
	return id
}

// expire removes e if it is still the current loader for its target.
func (r *Registry) expire(e *entry) {
	r.mu.Lock()
	if r.entries[e.ID] != e {
		r.mu.Unlock()
		return
	}
	delete(r.entries, e.ID)
	bus := r.bus
	r.mu.Unlock()

	r.logger.Warn("loader timed out", "loader", e.ID, "target", e.Target, "timeout", e.Timeout)
	if bus != nil {
		bus.Emit(event.EventLoaderTimeout, event.LoaderHide{Target: e.Target})
	}
}

// Hide removes the loader for target. It reports whether one was active.
func (r *Registry) Hide(target string) bool {
	if target == "" {
		target = GlobalTarget
	}
	id := ID(target)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(r.entries, id)
	r.logger.Debug("loader hidden", "loader", id, "elapsed", r.clock.Since(e.StartedAt))
	return true
}

// Update changes the message and progress of an active loader. An empty
// message keeps the current one. It reports whether the loader exists.
func (r *Registry) Update(target, message string, progress float64) bool {
	if target == "" {
		target = GlobalTarget
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[ID(target)]
	if !ok {
		return false
	}
	if message != "" {
		e.Message = message
	}
	e.Progress = progress
	return true
}

// IsActive reports whether a loader is shown for target.
func (r *Registry) IsActive(target string) bool {
	if target == "" {
		target = GlobalTarget
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[ID(target)]
	return ok
}

// Get returns the loader for target.
func (r *Registry) Get(target string) (Entry, bool) {
	if target == "" {
		target = GlobalTarget
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[ID(target)]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Active returns the active loaders ordered by start time, then id.
func (r *Registry) Active() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Entry)
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Count returns the number of active loaders.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// -----------------------------------------------------------------------------
// Bus integration
// -----------------------------------------------------------------------------

// Attach subscribes the registry to loader:show, loader:hide and
// loader:update on bus, and publishes loader:timeout there. Attaching again
// moves the subscriptions to the new bus.
func (r *Registry) Attach(bus *event.Bus) error {
	if bus == nil {
		return errors.NewValidationError("loader: bus is required").WithField("bus")
	}
	r.Detach()

	handlers := []struct {
		name string
		cb   event.Callback
	}{
		{event.EventLoaderShow, r.onShow},
		{event.EventLoaderHide, r.onHide},
		{event.EventLoaderUpdate, r.onUpdate},
	}
	subs := make([]string, 0, len(handlers))
	for _, h := range handlers {
		id, err := bus.On(h.name, h.cb, event.WithPriority(attachPriority), event.WithContext(r))
		if err != nil {
			for _, s := range subs {
				bus.Unsubscribe(s)
			}
			return err
		}
		subs = append(subs, id)
	}

	r.mu.Lock()
	r.bus = bus
	r.subs = subs
	r.mu.Unlock()
	return nil
}

// Detach removes the subscriptions made by Attach.
func (r *Registry) Detach() {
	r.mu.Lock()
	bus, subs := r.bus, r.subs
	r.bus, r.subs = nil, nil
	r.mu.Unlock()

	if bus == nil {
		return
	}
	for _, id := range subs {
		bus.Unsubscribe(id)
	}
}

// Close detaches from the bus and cancels every pending timeout.
func (r *Registry) Close() {
	r.Detach()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(r.entries, id)
	}
}

func (r *Registry) onShow(_ *event.Event, args ...any) (any, error) {
	switch p := first(args).(type) {
	case event.LoaderShow:
		return r.Show(p.Target, Options{Message: p.Message, Timeout: p.Timeout}), nil
	case string:
		return r.Show(p, Options{}), nil
	case nil:
		return r.Show(GlobalTarget, Options{}), nil
	default:
		return nil, payloadError(event.EventLoaderShow, p)
	}
}

func (r *Registry) onHide(_ *event.Event, args ...any) (any, error) {
	switch p := first(args).(type) {
	case event.LoaderHide:
		return r.Hide(p.Target), nil
	case string:
		return r.Hide(p), nil
	case nil:
		return r.Hide(GlobalTarget), nil
	default:
		return nil, payloadError(event.EventLoaderHide, p)
	}
}

func (r *Registry) onUpdate(_ *event.Event, args ...any) (any, error) {
	p, ok := first(args).(event.LoaderUpdate)
	if !ok {
		return nil, payloadError(event.EventLoaderUpdate, first(args))
	}
	return r.Update(p.Target, p.Message, p.Progress), nil
}

func first(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func payloadError(name string, v any) error {
	return errors.NewValidationError("loader: unexpected payload").
		WithField(name).
		WithValue(v)
}
