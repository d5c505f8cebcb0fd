// Package event provides the priority-ordered publish/subscribe bus that
// connects adminkit components.
//
// Producers and consumers of application events (page changes, component
// mount/unmount, loading state, errors) communicate through named events
// rather than direct method calls.
//
// # Main Types
//
//   - [Bus]: the event hub. Listeners are kept per event name, ordered by
//     descending priority and then registration order.
//   - [Event]: the record shared by every listener of one emission. Calling
//     [Event.Stop] halts dispatch to the remaining listeners of that call.
//   - [Callback]: the listener function type.
//   - [Future]: a value a listener may return to represent work that
//     completes later. [Bus.EmitAsync] awaits it, [Bus.Emit] does not.
//   - [Namespace]: a view of the bus that prefixes every event name.
//
// # Dispatch Semantics
//
// [Bus.Emit] runs one synchronous pass over the listeners. A listener that
// returns an error or panics is logged and re-published as an [EventError]
// event carrying an [*errors.ListenerError]; the remaining listeners still
// run. [Bus.EmitAsync] keeps the same order but waits for each listener
// (including any returned [Awaitable]) before invoking the next one, so other
// emissions can interleave between its listeners.
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Listener lists are copied under
// a read lock before dispatch, so listeners may register or remove listeners
// while being invoked.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.On(event.EventPageChange, func(e *event.Event, args ...any) (any, error) {
//	    change := args[0].(event.PageChange)
//	    return nil, render(change.Path)
//	}, event.WithPriority(10))
//
//	bus.Emit(event.EventPageChange, event.PageChange{Path: "/users"})
//
// # Event Naming Convention
//
// Event names follow the pattern "category:action", e.g. component:mount,
// page:change, loader:show. [Bus.OnPattern] accepts glob patterns over these
// names (":" separates segments), e.g. "loader:*".
package event
