package dom

import "slices"

// Handler handles a DOM event.
type Handler func(ev *Event)

type listener struct {
	id      int
	handler Handler
}

// Event is a DOM event dispatched to an element and its ancestors.
type Event struct {
	Type          string
	Target        *Element // Element the event was dispatched on
	CurrentTarget *Element // Element whose listener is running
	Detail        any

	stopped          bool
	defaultPrevented bool
}

// StopPropagation prevents the event from reaching further ancestors.
// Listeners on the current element still run.
func (ev *Event) StopPropagation() { ev.stopped = true }

// PreventDefault marks the event's default action as cancelled.
func (ev *Event) PreventDefault() { ev.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (ev *Event) DefaultPrevented() bool { return ev.defaultPrevented }

// AddEventListener registers handler for events of the given type and
// returns an id for RemoveEventListener.
func (e *Element) AddEventListener(eventType string, handler Handler) int {
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.doc.nextID++
	id := e.doc.nextID
	e.listeners[eventType] = append(e.listeners[eventType], listener{id: id, handler: handler})
	return id
}

// RemoveEventListener removes the listener with the given id.
// Returns false if no such listener is registered.
func (e *Element) RemoveEventListener(eventType string, id int) bool {
	list := e.listeners[eventType]
	i := slices.IndexFunc(list, func(l listener) bool { return l.id == id })
	if i < 0 {
		return false
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(e.listeners, eventType)
	} else {
		e.listeners[eventType] = list
	}
	return true
}

// ListenerCount returns the number of listeners for eventType, or for every
// type when eventType is empty.
func (e *Element) ListenerCount(eventType string) int {
	if eventType != "" {
		return len(e.listeners[eventType])
	}
	n := 0
	for _, list := range e.listeners {
		n += len(list)
	}
	return n
}

// Dispatch delivers an event to the element and then to each ancestor until
// propagation is stopped. It returns the dispatched event.
func (e *Element) Dispatch(eventType string, detail any) *Event {
	ev := &Event{Type: eventType, Target: e, Detail: detail}
	for n := e.node; n != nil; n = n.Parent {
		el, ok := e.doc.elements[n]
		if n == e.node {
			el, ok = e, true
		}
		if !ok || len(el.listeners[eventType]) == 0 {
			continue
		}
		ev.CurrentTarget = el
		for _, l := range slices.Clone(el.listeners[eventType]) {
			l.handler(ev)
		}
		if ev.stopped {
			break
		}
	}
	return ev
}

// Click dispatches a "click" event.
func (e *Element) Click() *Event {
	return e.Dispatch("click", nil)
}
