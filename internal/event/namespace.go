package event

import "context"

// Namespace is a view of a Bus that prefixes event names with "prefix:".
type Namespace struct {
	bus    *Bus
	prefix string
}

// Namespace returns a prefixed view of the bus. Listeners registered through
// it are ordinary bus listeners under the prefixed name.
func (b *Bus) Namespace(prefix string) *Namespace {
	return &Namespace{bus: b, prefix: prefix}
}

// Namespace returns a nested namespace, e.g. "admin" -> "admin:users".
func (n *Namespace) Namespace(prefix string) *Namespace {
	return &Namespace{bus: n.bus, prefix: n.Name(prefix)}
}

// Prefix returns the namespace prefix.
func (n *Namespace) Prefix() string { return n.prefix }

// Name returns the fully qualified name of event.
func (n *Namespace) Name(event string) string {
	return n.prefix + ":" + event
}

// On registers a listener for the prefixed event.
func (n *Namespace) On(event string, cb Callback, opts ...Option) (string, error) {
	return n.bus.On(n.Name(event), cb, opts...)
}

// Once registers a one-shot listener for the prefixed event.
func (n *Namespace) Once(event string, cb Callback, opts ...Option) (string, error) {
	return n.bus.Once(n.Name(event), cb, opts...)
}

// Off removes listeners of the prefixed event, all of them when no ids are given.
func (n *Namespace) Off(event string, ids ...string) int {
	return n.bus.Off(n.Name(event), ids...)
}

// Emit dispatches the prefixed event synchronously.
func (n *Namespace) Emit(event string, args ...any) []any {
	return n.bus.Emit(n.Name(event), args...)
}

// EmitAsync dispatches the prefixed event, awaiting each listener in turn.
func (n *Namespace) EmitAsync(ctx context.Context, event string, args ...any) ([]any, error) {
	return n.bus.EmitAsync(ctx, n.Name(event), args...)
}
