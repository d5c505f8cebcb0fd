package component

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/multierr"

	"github.com/Iron-Ham/adminkit/internal/dom"
	"github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/Iron-Ham/adminkit/internal/event"
	"github.com/Iron-Ham/adminkit/internal/logging"
)

// Phase is the lifecycle phase of a component.
type Phase string

const (
	PhaseCreated     Phase = "created"
	PhaseInitialized Phase = "initialized"
	PhaseMounted     Phase = "mounted"
	PhaseUnmounted   Phase = "unmounted"
	PhaseDestroyed   Phase = "destroyed"
)

// SlotAttr is the attribute that marks where a child component is mounted.
const SlotAttr = "data-component"

// Values holds component props or local state.
type Values map[string]any

// String returns v[key] as a string, or "" when missing or not a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Bool returns v[key] as a bool.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// Int returns v[key] as an int.
func (v Values) Int(key string) int {
	switch n := v[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

type domBinding struct {
	element   *dom.Element
	eventType string
	id        int
}

// Component is a node in the UI tree with a lifecycle driven by its Hooks.
type Component struct {
	id       string
	name     string
	hooks    Hooks
	phase    Phase
	props    Values
	state    Values
	element  *dom.Element
	parent   *Component
	children []*Component
	bindings []domBinding

	registry *Registry
	bus      *event.Bus
	logger   *logging.Logger
}

// ID returns the component id.
func (c *Component) ID() string { return c.id }

// Name returns the component name. Parents locate a child's slot by name.
func (c *Component) Name() string { return c.name }

// Phase returns the lifecycle phase.
func (c *Component) Phase() Phase { return c.phase }

// Hooks returns the component's hooks.
func (c *Component) Hooks() Hooks { return c.hooks }

// Mounted reports whether the component is mounted.
func (c *Component) Mounted() bool { return c.phase == PhaseMounted }

// Destroyed reports whether the component has been destroyed.
func (c *Component) Destroyed() bool { return c.phase == PhaseDestroyed }

// Props returns the component props. The map is owned by the component.
func (c *Component) Props() Values { return c.props }

// State returns the component's local state. The map is owned by the component.
func (c *Component) State() Values { return c.state }

// Element returns the container element, or nil before the first mount.
func (c *Component) Element() *dom.Element { return c.element }

// Parent returns the parent component, or nil.
func (c *Component) Parent() *Component { return c.parent }

// Bus returns the event bus the component publishes to.
func (c *Component) Bus() *event.Bus { return c.bus }

// Logger returns a logger tagged with the component id and name.
func (c *Component) Logger() *logging.Logger { return c.logger }

func (c *Component) errorf(hook string, cause error, format string, args ...any) *errors.ComponentError {
	err := errors.NewComponentError(fmt.Sprintf(format, args...), cause).WithComponent(c.id, c.name)
	if hook != "" {
		err = err.WithHook(hook)
	}
	return err
}

// runHook calls fn and converts a returned error or a panic into a
// ComponentError naming the hook.
func (c *Component) runHook(hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = c.errorf(hook, errors.ErrHookPanic, "hook panicked: %v", r)
		}
	}()
	if herr := fn(); herr != nil {
		return c.errorf(hook, herr, "hook failed")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Init runs beforeInit, merges props, then runs onCreate and afterInit.
// Calling Init on an initialized component is a no-op.
func (c *Component) Init(props Values) error {
	if c.Destroyed() {
		return c.errorf("", errors.ErrAlreadyDestroyed, "cannot init")
	}
	if c.phase != PhaseCreated {
		c.logger.Warn("component already initialized", "phase", string(c.phase))
		return nil
	}

	if err := c.runHook(HookBeforeInit, func() error { return c.hooks.BeforeInit(c) }); err != nil {
		return err
	}
	maps.Copy(c.props, props)
	if err := c.runHook(HookOnCreate, func() error { return c.hooks.OnCreate(c) }); err != nil {
		return err
	}
	if err := c.runHook(HookAfterInit, func() error { return c.hooks.AfterInit(c) }); err != nil {
		return err
	}

	c.phase = PhaseInitialized
	c.logger.Debug("component initialized")
	return nil
}

// Mount renders the component into container, or into its previous element
// when container is nil. A component still in the Created phase is
// initialized first. Mounting a mounted component logs a warning and does
// nothing.
func (c *Component) Mount(container *dom.Element) error {
	if c.Destroyed() {
		return c.errorf("", errors.ErrAlreadyDestroyed, "cannot mount")
	}
	if c.Mounted() {
		c.logger.Warn("component already mounted")
		return nil
	}
	if container == nil && c.element == nil {
		return c.errorf("", errors.ErrMissingContainer, "cannot mount")
	}
	if container != nil {
		c.element = container
	}

	if c.phase == PhaseCreated {
		if err := c.Init(nil); err != nil {
			return err
		}
	}

	if err := c.runHook(HookBeforeMount, func() error { return c.hooks.BeforeMount(c) }); err != nil {
		return err
	}
	if err := c.Render(); err != nil {
		return err
	}

	c.phase = PhaseMounted
	c.element.SetAttr("data-component-id", c.id)

	if err := c.runHook(HookAfterMount, func() error { return c.hooks.AfterMount(c) }); err != nil {
		return err
	}

	c.logger.Debug("component mounted")
	c.bus.Emit(event.EventComponentMount, event.ComponentLifecycle{ID: c.id, Name: c.name})
	return nil
}

// Render replaces the element contents with the template output, re-binds
// DOM events and mounts children into their slots.
func (c *Component) Render() error {
	if c.element == nil {
		return c.errorf("", errors.ErrMissingContainer, "cannot render")
	}

	var markup string
	err := c.runHook(HookTemplate, func() error {
		var terr error
		markup, terr = c.hooks.Template(c)
		return terr
	})
	if err != nil {
		return err
	}

	c.RemoveAllEventListeners()
	if err := c.element.SetInnerHTML(markup); err != nil {
		return c.errorf(HookTemplate, err, "invalid template")
	}
	if err := c.runHook(HookBindEvents, func() error { return c.hooks.BindEvents(c) }); err != nil {
		return err
	}

	return c.mountChildren()
}

// mountChildren places each child into the slot with its name. Children that
// share a name take the matching slots in order.
func (c *Component) mountChildren() error {
	var errs error
	seen := make(map[string]int)
	for _, child := range slices.Clone(c.children) {
		slots := c.element.QueryAll(fmt.Sprintf(`[%s=%q]`, SlotAttr, child.name))
		idx := seen[child.name]
		seen[child.name]++
		if idx >= len(slots) {
			continue
		}
		slot := slots[idx]

		switch {
		case !child.Mounted():
			errs = multierr.Append(errs, child.Mount(slot))
		case child.element != slot:
			child.element = slot
			slot.SetAttr("data-component-id", child.id)
			errs = multierr.Append(errs, child.Render())
		}
	}
	return errs
}

// Update merges newProps and newState and re-renders when ShouldUpdate
// agrees. On any error props and state are restored to their previous
// values. Updating a component that is not mounted does nothing.
func (c *Component) Update(newProps, newState Values) error {
	if !c.Mounted() {
		return nil
	}

	oldProps := maps.Clone(c.props)
	oldState := maps.Clone(c.state)
	maps.Copy(c.props, newProps)
	maps.Copy(c.state, newState)

	rollback := func(err error) error {
		c.props, c.state = oldProps, oldState
		c.logger.Warn("component update rolled back", "error", err.Error())
		return err
	}

	var should bool
	err := c.runHook(HookShouldUpdate, func() error {
		should = c.hooks.ShouldUpdate(c, oldProps, oldState)
		return nil
	})
	if err != nil {
		return rollback(err)
	}
	if !should {
		return nil
	}

	if err := c.runHook(HookBeforeUpdate, func() error { return c.hooks.BeforeUpdate(c) }); err != nil {
		return rollback(err)
	}
	if err := c.Render(); err != nil {
		return rollback(err)
	}
	if err := c.runHook(HookAfterUpdate, func() error { return c.hooks.AfterUpdate(c) }); err != nil {
		return rollback(err)
	}
	return nil
}

// SetState updates local state.
func (c *Component) SetState(state Values) error {
	return c.Update(nil, state)
}

// SetProps updates props.
func (c *Component) SetProps(props Values) error {
	return c.Update(props, nil)
}

// Unmount removes DOM listeners, unmounts children and clears the element.
// Unmounting a component that is not mounted does nothing. Teardown always
// completes; hook and child errors are combined and returned.
func (c *Component) Unmount() error {
	if !c.Mounted() {
		return nil
	}

	errs := c.runHook(HookBeforeUnmount, func() error { return c.hooks.BeforeUnmount(c) })

	c.RemoveAllEventListeners()
	for _, child := range slices.Clone(c.children) {
		errs = multierr.Append(errs, child.Unmount())
	}
	c.element.Clear()
	c.element.RemoveAttr("data-component-id")
	c.phase = PhaseUnmounted

	errs = multierr.Append(errs, c.runHook(HookAfterUnmount, func() error { return c.hooks.AfterUnmount(c) }))

	c.logger.Debug("component unmounted")
	c.bus.Emit(event.EventComponentUnmount, event.ComponentLifecycle{ID: c.id, Name: c.name})
	return errs
}

// Destroy unmounts the component if needed, destroys its children, detaches
// it from its parent and releases everything it holds, including bus
// listeners registered through Subscribe. Destroy is idempotent and never
// fails; hook errors are logged.
func (c *Component) Destroy() {
	_ = c.destroy()
}

func (c *Component) destroy() error {
	if c.Destroyed() {
		return nil
	}

	var errs error
	if c.Mounted() {
		errs = multierr.Append(errs, c.Unmount())
	}
	errs = multierr.Append(errs, c.runHook(HookBeforeDestroy, func() error { return c.hooks.BeforeDestroy(c) }))

	for _, child := range slices.Clone(c.children) {
		errs = multierr.Append(errs, child.destroy())
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}

	removed := c.bus.OffContext("", c)
	c.element = nil
	c.children = nil
	c.bindings = nil
	c.props = nil
	c.state = nil

	errs = multierr.Append(errs, c.runHook(HookAfterDestroy, func() error { return c.hooks.AfterDestroy(c) }))
	c.phase = PhaseDestroyed
	if c.registry != nil {
		c.registry.remove(c.id)
	}

	for _, err := range multierr.Errors(errs) {
		c.logger.Error("component teardown error", "error", err.Error())
	}
	c.logger.Debug("component destroyed", "listeners_released", removed)
	return errs
}

// -----------------------------------------------------------------------------
// DOM Listeners
// -----------------------------------------------------------------------------

// AddEventListener attaches handler to every element inside the component
// matching selector, or to the component element itself when selector is
// empty. Every binding is recorded and released by RemoveAllEventListeners.
// Returns the number of elements bound.
func (c *Component) AddEventListener(selector, eventType string, handler dom.Handler) (int, error) {
	if c.element == nil {
		return 0, c.errorf("", errors.ErrMissingContainer, "cannot add event listener")
	}

	targets := []*dom.Element{c.element}
	if selector != "" {
		targets = c.element.QueryAll(selector)
	}
	for _, el := range targets {
		id := el.AddEventListener(eventType, handler)
		c.bindings = append(c.bindings, domBinding{element: el, eventType: eventType, id: id})
	}
	return len(targets), nil
}

// RemoveAllEventListeners removes every listener added with AddEventListener.
func (c *Component) RemoveAllEventListeners() {
	for _, b := range c.bindings {
		b.element.RemoveEventListener(b.eventType, b.id)
	}
	c.bindings = nil
}

// ListenerCount returns the number of recorded DOM listener bindings.
func (c *Component) ListenerCount() int { return len(c.bindings) }

// Query returns the first element inside the component matching selector.
func (c *Component) Query(selector string) *dom.Element {
	if c.element == nil {
		return nil
	}
	return c.element.Query(selector)
}

// QueryAll returns the elements inside the component matching selector.
func (c *Component) QueryAll(selector string) []*dom.Element {
	if c.element == nil {
		return nil
	}
	return c.element.QueryAll(selector)
}

// -----------------------------------------------------------------------------
// Children
// -----------------------------------------------------------------------------

// AddChild makes child a child of c, moving it from any previous parent.
// When c is mounted the child is mounted into its slot right away.
func (c *Component) AddChild(child *Component) error {
	if child == nil || child == c || child.Destroyed() || c.Destroyed() || child.isAncestorOf(c) {
		return c.errorf("", errors.ErrInvalidChild, "cannot add child")
	}
	if child.parent == c {
		return nil
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = c
	c.children = append(c.children, child)

	if c.Mounted() && !child.Mounted() {
		return c.mountChildren()
	}
	return nil
}

func (c *Component) isAncestorOf(other *Component) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == c {
			return true
		}
	}
	return false
}

// RemoveChild detaches child without unmounting or destroying it.
// Returns false if child is not a child of c.
func (c *Component) RemoveChild(child *Component) bool {
	i := slices.Index(c.children, child)
	if i < 0 {
		return false
	}
	c.children = slices.Delete(c.children, i, i+1)
	child.parent = nil
	return true
}

// GetChild returns the first child with the given name, or nil.
func (c *Component) GetChild(name string) *Component {
	for _, child := range c.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

// Children returns the children in insertion order.
func (c *Component) Children() []*Component {
	return slices.Clone(c.children)
}

// -----------------------------------------------------------------------------
// Bus Helpers
// -----------------------------------------------------------------------------

// Subscribe registers a bus listener owned by the component. It is removed
// when the component is destroyed.
func (c *Component) Subscribe(name string, cb event.Callback, opts ...event.Option) (string, error) {
	if c.Destroyed() {
		return "", c.errorf("", errors.ErrAlreadyDestroyed, "cannot subscribe to %s", name)
	}
	opts = append(opts, event.WithContext(c))
	return c.bus.On(name, cb, opts...)
}

// Emit publishes an event on the component's bus.
func (c *Component) Emit(name string, args ...any) []any {
	return c.bus.Emit(name, args...)
}
