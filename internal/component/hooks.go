package component

// Hook names used in errors and logs.
const (
	HookBeforeInit    = "beforeInit"
	HookOnCreate      = "onCreate"
	HookAfterInit     = "afterInit"
	HookBeforeMount   = "beforeMount"
	HookAfterMount    = "afterMount"
	HookTemplate      = "template"
	HookBindEvents    = "bindEvents"
	HookShouldUpdate  = "shouldUpdate"
	HookBeforeUpdate  = "beforeUpdate"
	HookAfterUpdate   = "afterUpdate"
	HookBeforeUnmount = "beforeUnmount"
	HookAfterUnmount  = "afterUnmount"
	HookBeforeDestroy = "beforeDestroy"
	HookAfterDestroy  = "afterDestroy"
)

// Hooks supplies the behaviour of a component. Every method receives the
// component it runs for.
type Hooks interface {
	// Template returns the markup rendered into the component's element.
	Template(c *Component) (string, error)

	// BindEvents attaches DOM listeners after every render, normally through
	// c.AddEventListener so they are released on the next render.
	BindEvents(c *Component) error

	// ShouldUpdate decides whether an update re-renders. It sees the values
	// from before the update; the new values are already on c.
	ShouldUpdate(c *Component, oldProps, oldState Values) bool

	BeforeInit(c *Component) error
	OnCreate(c *Component) error
	AfterInit(c *Component) error

	BeforeMount(c *Component) error
	AfterMount(c *Component) error

	BeforeUpdate(c *Component) error
	AfterUpdate(c *Component) error

	BeforeUnmount(c *Component) error
	AfterUnmount(c *Component) error

	BeforeDestroy(c *Component) error
	AfterDestroy(c *Component) error
}

// BaseHooks implements Hooks with no-op defaults.
type BaseHooks struct{}

var _ Hooks = BaseHooks{}

func (BaseHooks) Template(*Component) (string, error) { return "", nil }
func (BaseHooks) BindEvents(*Component) error         { return nil }

func (BaseHooks) ShouldUpdate(*Component, Values, Values) bool { return true }

func (BaseHooks) BeforeInit(*Component) error    { return nil }
func (BaseHooks) OnCreate(*Component) error      { return nil }
func (BaseHooks) AfterInit(*Component) error     { return nil }
func (BaseHooks) BeforeMount(*Component) error   { return nil }
func (BaseHooks) AfterMount(*Component) error    { return nil }
func (BaseHooks) BeforeUpdate(*Component) error  { return nil }
func (BaseHooks) AfterUpdate(*Component) error   { return nil }
func (BaseHooks) BeforeUnmount(*Component) error { return nil }
func (BaseHooks) AfterUnmount(*Component) error  { return nil }
func (BaseHooks) BeforeDestroy(*Component) error { return nil }
func (BaseHooks) AfterDestroy(*Component) error  { return nil }
