package event

import (
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
)

// Event is the record shared by every listener of a single emission.
type Event struct {
	Name      string    // Name the event was emitted under
	Timestamp time.Time // When Emit was called
	Args      []any     // Arguments passed to Emit

	stopped atomic.Bool
}

func newEvent(name string, at time.Time, args []any) *Event {
	return &Event{
		Name:      name,
		Timestamp: at,
		Args:      args,
	}
}

// Stop prevents the listeners after the current one from being invoked.
func (e *Event) Stop() { e.stopped.Store(true) }

// Stopped reports whether Stop has been called.
func (e *Event) Stopped() bool { return e.stopped.Load() }

// Listener is a registered callback.
type Listener struct {
	ID       string // Unique listener id returned by On
	Name     string // Event name or glob pattern
	Priority int    // Higher priorities run first
	Context  any    // Owner used by OffContext, may be nil

	callback Callback
	seq      uint64
	pattern  glob.Glob
}

// Option configures a listener registration.
type Option func(*options)

type options struct {
	priority int
	context  any
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPriority sets the listener priority. The default is 0.
func WithPriority(p int) Option {
	return func(o *options) { o.priority = p }
}

// WithContext records the owner of the listener so that every listener of a
// component can be removed at once with OffContext.
func WithContext(ctx any) Option {
	return func(o *options) { o.context = ctx }
}

// -----------------------------------------------------------------------------
// Event Vocabulary
// -----------------------------------------------------------------------------

const (
	// EventError carries an *errors.ListenerError for every failed listener.
	EventError = "error"

	EventComponentMount   = "component:mount"
	EventComponentUnmount = "component:unmount"

	EventPageChange       = "page:change"
	EventNavigationChange = "navigation:change"

	EventLoaderShow    = "loader:show"
	EventLoaderHide    = "loader:hide"
	EventLoaderUpdate  = "loader:update"
	EventLoaderTimeout = "loader:timeout"

	EventAppReady = "app:ready"
	EventAppError = "app:error"
)

// -----------------------------------------------------------------------------
// Component Events
// -----------------------------------------------------------------------------

// ComponentLifecycle is the payload of component:mount and component:unmount.
type ComponentLifecycle struct {
	ID   string
	Name string
}

// -----------------------------------------------------------------------------
// Navigation Events
// -----------------------------------------------------------------------------

// PageChange is the payload of page:change.
type PageChange struct {
	Path  string
	Title string
}

// NavigationChange is the payload of navigation:change.
type NavigationChange struct {
	From string // Previously active path, empty on first navigation
	To   string
}

// -----------------------------------------------------------------------------
// Loader Events
// -----------------------------------------------------------------------------

// LoaderShow is the payload of loader:show.
type LoaderShow struct {
	Target  string
	Message string
	Timeout time.Duration // Zero disables the timeout
}

// LoaderUpdate is the payload of loader:update.
type LoaderUpdate struct {
	Target   string
	Message  string
	Progress float64 // 0..1, negative when unknown
}

// LoaderHide is the payload of loader:hide and loader:timeout.
type LoaderHide struct {
	Target string
}

// -----------------------------------------------------------------------------
// Application Events
// -----------------------------------------------------------------------------

// AppError is the payload of app:error.
type AppError struct {
	Source string // Component or subsystem that reported the error
	Err    error
}
