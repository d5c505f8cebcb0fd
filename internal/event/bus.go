package event

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/gobwas/glob"

	"github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/Iron-Ham/adminkit/internal/logging"
)

// ErrInvalidListener is returned when a nil callback is registered.
var ErrInvalidListener = errors.ErrInvalidListener

// Callback handles one emitted event. It receives the shared event record and
// the arguments passed to Emit. The returned value is collected by Emit and
// EmitAsync; a returned error is treated like a panic: logged and re-published
// as an EventError event without stopping the dispatch.
type Callback func(e *Event, args ...any) (any, error)

// skipped is returned by a once-wrapper that lost the race to fire.
type skippedResult struct{}

var skipped = skippedResult{}

// Bus is a priority-ordered pub-sub event bus.
// It allows components to communicate without direct dependencies.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]*Listener // event name -> listeners, priority desc
	patterns  map[string][]*Listener // glob pattern -> listeners, priority desc
	compiled  map[string]glob.Glob
	once      map[string]struct{}
	nextID    atomic.Uint64
	nextSeq   uint64 // guarded by mu
	logger    *logging.Logger
	clock     clock.Clock
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithClock sets the clock used for Event timestamps.
func WithClock(clk clock.Clock) BusOption {
	return func(b *Bus) { b.clock = clk }
}

// NewBus creates a new event bus. A nil logger discards output.
func NewBus(logger *logging.Logger, opts ...BusOption) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	b := &Bus{
		listeners: make(map[string][]*Listener),
		patterns:  make(map[string][]*Listener),
		compiled:  make(map[string]glob.Glob),
		once:      make(map[string]struct{}),
		logger:    logger,
		clock:     clock.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On registers a listener for the named event and returns its id.
// Listeners are kept in descending priority order; listeners with equal
// priority keep their registration order.
func (b *Bus) On(name string, cb Callback, opts ...Option) (string, error) {
	if cb == nil {
		return "", ErrInvalidListener
	}
	id := b.generateID()
	b.add(name, id, cb, newOptions(opts), nil)
	return id, nil
}

// Once registers a listener that removes itself before its first invocation.
// It is invoked at most once, even when the event is emitted concurrently.
func (b *Bus) Once(name string, cb Callback, opts ...Option) (string, error) {
	if cb == nil {
		return "", ErrInvalidListener
	}
	id := b.generateID()
	b.add(name, id, b.wrapOnce(id, cb), newOptions(opts), nil)

	b.mu.Lock()
	b.once[id] = struct{}{}
	b.mu.Unlock()
	return id, nil
}

// OnPattern registers a listener for every event whose name matches the glob
// pattern. Segments are separated by ":" so "loader:*" matches "loader:show"
// but not "loader:show:extra"; "loader:**" matches both.
func (b *Bus) OnPattern(pattern string, cb Callback, opts ...Option) (string, error) {
	if cb == nil {
		return "", ErrInvalidListener
	}
	g, err := b.compile(pattern)
	if err != nil {
		return "", errors.NewValidationError("invalid event pattern").
			WithField("pattern").WithValue(pattern).WithCause(err)
	}
	id := b.generateID()
	b.add(pattern, id, cb, newOptions(opts), g)
	return id, nil
}

func (b *Bus) compile(pattern string) (glob.Glob, error) {
	b.mu.RLock()
	g, ok := b.compiled[pattern]
	b.mu.RUnlock()
	if ok {
		return g, nil
	}

	g, err := glob.Compile(pattern, ':')
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.compiled[pattern] = g
	b.mu.Unlock()
	return g, nil
}

func (b *Bus) wrapOnce(id string, cb Callback) Callback {
	var fired atomic.Bool
	return func(e *Event, args ...any) (any, error) {
		if !fired.CompareAndSwap(false, true) {
			return skipped, nil
		}
		b.Unsubscribe(id)
		return cb(e, args...)
	}
}

func (b *Bus) add(name, id string, cb Callback, o options, pattern glob.Glob) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	l := &Listener{
		ID:       id,
		Name:     name,
		Priority: o.priority,
		Context:  o.context,
		callback: cb,
		seq:      b.nextSeq,
		pattern:  pattern,
	}

	bucket := b.listeners
	if pattern != nil {
		bucket = b.patterns
	}
	bucket[name] = insertByPriority(bucket[name], l)
}

// insertByPriority inserts l after every listener with priority >= l.Priority.
func insertByPriority(list []*Listener, l *Listener) []*Listener {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Priority < l.Priority
	})
	return slices.Insert(list, i, l)
}

// Off removes listeners for the named event. Without ids the whole bucket is
// removed; otherwise only the listeners with the given ids. Removing the last
// listener deletes the bucket. Returns the number of listeners removed.
func (b *Bus) Off(name string, ids ...string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(b.listeners, name, func(l *Listener) bool {
		return len(ids) == 0 || slices.Contains(ids, l.ID)
	})
}

// OffPattern removes pattern listeners registered with OnPattern.
func (b *Bus) OffPattern(pattern string, ids ...string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(b.patterns, pattern, func(l *Listener) bool {
		return len(ids) == 0 || slices.Contains(ids, l.ID)
	})
}

// OffContext removes the listeners registered with WithContext(ctx). An empty
// name removes them from every event and pattern. ctx must be comparable;
// pointers are the usual choice.
func (b *Bus) OffContext(name string, ctx any) int {
	if ctx == nil {
		return 0
	}
	match := func(l *Listener) bool { return l.Context == ctx }

	b.mu.Lock()
	defer b.mu.Unlock()

	if name != "" {
		return b.removeLocked(b.listeners, name, match)
	}

	removed := 0
	for n := range b.listeners {
		removed += b.removeLocked(b.listeners, n, match)
	}
	for p := range b.patterns {
		removed += b.removeLocked(b.patterns, p, match)
	}
	return removed
}

// Unsubscribe removes a listener by id from whichever event holds it.
// Returns true if the listener was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	match := func(l *Listener) bool { return l.ID == id }
	for name := range b.listeners {
		if b.removeLocked(b.listeners, name, match) > 0 {
			return true
		}
	}
	for pattern := range b.patterns {
		if b.removeLocked(b.patterns, pattern, match) > 0 {
			return true
		}
	}
	return false
}

func (b *Bus) removeLocked(bucket map[string][]*Listener, name string, match func(*Listener) bool) int {
	list, ok := bucket[name]
	if !ok {
		return 0
	}

	kept := make([]*Listener, 0, len(list))
	removed := 0
	for _, l := range list {
		if match(l) {
			delete(b.once, l.ID)
			removed++
			continue
		}
		kept = append(kept, l)
	}

	if len(kept) == 0 {
		delete(bucket, name)
		delete(b.compiled, name)
	} else if removed > 0 {
		bucket[name] = kept
	}
	return removed
}

// Emit synchronously invokes the listeners for name in priority order and
// returns the values they returned. A listener may call Stop on the event to
// skip the remaining listeners of this call. Values implementing Awaitable
// are returned as-is, without waiting for them.
func (b *Bus) Emit(name string, args ...any) []any {
	listeners := b.snapshot(name)
	if len(listeners) == 0 {
		return nil
	}

	ev := newEvent(name, b.clock.Now(), args)
	results := make([]any, 0, len(listeners))
	for _, l := range listeners {
		if ev.Stopped() {
			break
		}
		v, err := b.invoke(l, ev, args)
		if err != nil {
			b.reportError(name, l, err)
			continue
		}
		if v == skipped {
			continue
		}
		results = append(results, v)
	}
	return results
}

// EmitAsync invokes the listeners for name one after another, waiting for
// each listener (and any Awaitable it returns) before invoking the next.
// The context is checked between listeners; on cancellation the values
// collected so far are returned with the context error.
func (b *Bus) EmitAsync(ctx context.Context, name string, args ...any) ([]any, error) {
	listeners := b.snapshot(name)
	if len(listeners) == 0 {
		return nil, ctx.Err()
	}

	ev := newEvent(name, b.clock.Now(), args)
	results := make([]any, 0, len(listeners))
	for _, l := range listeners {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if ev.Stopped() {
			break
		}

		v, err := b.invoke(l, ev, args)
		if err == nil {
			if a, ok := v.(Awaitable); ok {
				v, err = a.Await(ctx)
			}
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return results, ctxErr
			}
			b.reportError(name, l, err)
			continue
		}
		if v == skipped {
			continue
		}
		results = append(results, v)
	}
	return results, nil
}

// snapshot returns the listeners for name, merging matching pattern
// listeners by priority then registration order.
func (b *Bus) snapshot(name string) []*Listener {
	b.mu.RLock()
	defer b.mu.RUnlock()

	exact := b.listeners[name]
	out := make([]*Listener, len(exact), len(exact)+4)
	copy(out, exact)

	merged := false
	for _, list := range b.patterns {
		for _, l := range list {
			if l.pattern.Match(name) {
				out = append(out, l)
				merged = true
			}
		}
	}
	if merged {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Priority != out[j].Priority {
				return out[i].Priority > out[j].Priority
			}
			return out[i].seq < out[j].seq
		})
	}
	return out
}

// invoke calls a listener and converts a panic into an error.
func (b *Bus) invoke(l *Listener, ev *Event, args []any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				"event", ev.Name, "listener", l.ID, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", errors.ErrListenerPanic, r)
		}
	}()
	return l.callback(ev, args...)
}

// reportError logs a listener failure and re-publishes it as an EventError
// event. Failures of EventError listeners are only logged.
func (b *Bus) reportError(name string, l *Listener, err error) {
	lerr := errors.NewListenerError(name, l.ID, err)
	b.logger.Error("event listener failed", "event", name, "listener", l.ID, "error", err.Error())
	if name == EventError {
		return
	}
	b.Emit(EventError, lerr)
}

// generateID creates a unique listener id.
func (b *Bus) generateID() string {
	return "listener-" + strconv.FormatUint(b.nextID.Add(1), 10)
}

// IsOnce reports whether id was registered through Once and has not fired yet.
func (b *Bus) IsOnce(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.once[id]
	return ok
}

// EventNames returns the names of events that have at least one listener,
// sorted. Pattern registrations are not included.
func (b *Bus) EventNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.listeners))
	for name := range b.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListenerCount returns the number of listeners registered for name,
// excluding pattern listeners.
func (b *Bus) ListenerCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[name])
}

// Listeners returns a copy of the listeners registered for name.
func (b *Bus) Listeners(name string) []Listener {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Listener, 0, len(b.listeners[name]))
	for _, l := range b.listeners[name] {
		out = append(out, *l)
	}
	return out
}

// SubscriptionCount returns the total number of active listeners, including
// pattern listeners.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, list := range b.listeners {
		count += len(list)
	}
	for _, list := range b.patterns {
		count += len(list)
	}
	return count
}

// Clear removes all listeners.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[string][]*Listener)
	b.patterns = make(map[string][]*Listener)
	b.compiled = make(map[string]glob.Glob)
	b.once = make(map[string]struct{})
}
