package component

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Iron-Ham/adminkit/internal/event"
	"github.com/Iron-Ham/adminkit/internal/logging"
)

// Registry creates components and tracks the live ones.
// It is safe for concurrent use; the components it returns are not.
type Registry struct {
	bus    *event.Bus
	logger *logging.Logger

	mu         sync.RWMutex
	components map[string]*Component
	order      []string
}

// NewRegistry creates a registry whose components publish to bus.
// A nil bus gets a private one; a nil logger discards output.
func NewRegistry(bus *event.Bus, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if bus == nil {
		bus = event.NewBus(logger)
	}
	return &Registry{
		bus:        bus,
		logger:     logger,
		components: make(map[string]*Component),
	}
}

// Bus returns the registry's event bus.
func (r *Registry) Bus() *event.Bus { return r.bus }

// New creates a component in the Created phase. Nil hooks behave like
// BaseHooks.
func (r *Registry) New(name string, hooks Hooks) *Component {
	if hooks == nil {
		hooks = BaseHooks{}
	}
	id := uuid.NewString()
	c := &Component{
		id:       id,
		name:     name,
		hooks:    hooks,
		phase:    PhaseCreated,
		props:    make(Values),
		state:    make(Values),
		registry: r,
		bus:      r.bus,
		logger:   r.logger.WithComponent(id, name),
	}

	r.mu.Lock()
	r.components[id] = c
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.logger.Debug("component created", "component_id", id, "component", name)
	return c
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[id]; !ok {
		return
	}
	delete(r.components, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
}

// Get returns the live component with the given id, or nil.
func (r *Registry) Get(id string) *Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.components[id]
}

// FindByName returns the live components with the given name in creation
// order.
func (r *Registry) FindByName(name string) []*Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Component
	for _, id := range r.order {
		if c := r.components[id]; c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// All returns the live components in creation order.
func (r *Registry) All() []*Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Component, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.components[id])
	}
	return out
}

// Count returns the number of live components.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

// DestroyAll destroys every live component, roots first in reverse creation
// order so that children are released by their parents. It returns the
// combined teardown errors; every component is destroyed regardless.
func (r *Registry) DestroyAll() error {
	all := r.All()
	slices.Reverse(all)

	var errs error
	for _, c := range all {
		if c.parent == nil && !c.Destroyed() {
			errs = multierr.Append(errs, c.destroy())
		}
	}
	return errs
}
