package component

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Iron-Ham/adminkit/internal/dom"
	kiterrors "github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/Iron-Ham/adminkit/internal/event"
)

// testHooks records every hook call and can fail or panic on demand.
type testHooks struct {
	BaseHooks
	calls    []string
	markup   string
	bind     func(c *Component) error
	should   func(c *Component, oldProps, oldState Values) bool
	fail     map[string]error
	panicOn  string
	template func(c *Component) string
}

func (h *testHooks) record(hook string) error {
	h.calls = append(h.calls, hook)
	if h.panicOn == hook {
		panic("hook exploded")
	}
	return h.fail[hook]
}

func (h *testHooks) Template(c *Component) (string, error) {
	if err := h.record(HookTemplate); err != nil {
		return "", err
	}
	if h.template != nil {
		return h.template(c), nil
	}
	return h.markup, nil
}

func (h *testHooks) BindEvents(c *Component) error {
	if err := h.record(HookBindEvents); err != nil {
		return err
	}
	if h.bind != nil {
		return h.bind(c)
	}
	return nil
}

func (h *testHooks) ShouldUpdate(c *Component, oldProps, oldState Values) bool {
	_ = h.record(HookShouldUpdate)
	if h.should != nil {
		return h.should(c, oldProps, oldState)
	}
	return true
}

func (h *testHooks) BeforeInit(*Component) error    { return h.record(HookBeforeInit) }
func (h *testHooks) OnCreate(*Component) error      { return h.record(HookOnCreate) }
func (h *testHooks) AfterInit(*Component) error     { return h.record(HookAfterInit) }
func (h *testHooks) BeforeMount(*Component) error   { return h.record(HookBeforeMount) }
func (h *testHooks) AfterMount(*Component) error    { return h.record(HookAfterMount) }
func (h *testHooks) BeforeUpdate(*Component) error  { return h.record(HookBeforeUpdate) }
func (h *testHooks) AfterUpdate(*Component) error   { return h.record(HookAfterUpdate) }
func (h *testHooks) BeforeUnmount(*Component) error { return h.record(HookBeforeUnmount) }
func (h *testHooks) AfterUnmount(*Component) error  { return h.record(HookAfterUnmount) }
func (h *testHooks) BeforeDestroy(*Component) error { return h.record(HookBeforeDestroy) }
func (h *testHooks) AfterDestroy(*Component) error  { return h.record(HookAfterDestroy) }

func (h *testHooks) count(hook string) int {
	n := 0
	for _, c := range h.calls {
		if c == hook {
			n++
		}
	}
	return n
}

func newFixture(t *testing.T) (*Registry, *dom.Element) {
	t.Helper()
	doc := dom.NewDocument()
	if err := doc.Body().SetInnerHTML(`<main id="app"></main>`); err != nil {
		t.Fatalf("SetInnerHTML failed: %v", err)
	}
	return NewRegistry(event.NewBus(nil), nil), doc.GetElementByID("app")
}

func TestComponent_LifecycleOrder(t *testing.T) {
	reg, root := newFixture(t)
	hooks := &testHooks{markup: "<p>hello</p>"}
	c := reg.New("greeting", hooks)

	if c.Phase() != PhaseCreated {
		t.Fatalf("Phase() = %q, want created", c.Phase())
	}
	if err := c.Mount(root); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if c.Phase() != PhaseMounted {
		t.Errorf("Phase() = %q, want mounted", c.Phase())
	}
	if err := c.SetState(Values{"n": 1}); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if err := c.Unmount(); err != nil {
		t.Fatalf("Unmount failed: %v", err)
	}
	if c.Phase() != PhaseUnmounted {
		t.Errorf("Phase() = %q, want unmounted", c.Phase())
	}
	c.Destroy()

	want := []string{
		HookBeforeInit, HookOnCreate, HookAfterInit,
		HookBeforeMount, HookTemplate, HookBindEvents, HookAfterMount,
		HookShouldUpdate, HookBeforeUpdate, HookTemplate, HookBindEvents, HookAfterUpdate,
		HookBeforeUnmount, HookAfterUnmount,
		HookBeforeDestroy, HookAfterDestroy,
	}
	if diff := cmp.Diff(want, hooks.calls); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
	if !c.Destroyed() {
		t.Error("component should be destroyed")
	}
}

func TestComponent_InitMergesProps(t *testing.T) {
	reg, _ := newFixture(t)
	c := reg.New("x", nil)

	if err := c.Init(Values{"title": "Users"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if c.Props().String("title") != "Users" {
		t.Errorf("props = %v", c.Props())
	}
	if c.Phase() != PhaseInitialized {
		t.Errorf("Phase() = %q, want initialized", c.Phase())
	}
	if err := c.Init(Values{"title": "Other"}); err != nil {
		t.Errorf("second Init should be a no-op, got %v", err)
	}
	if c.Props().String("title") != "Users" {
		t.Error("second Init should not change props")
	}
}

func TestComponent_MountMissingContainer(t *testing.T) {
	reg, _ := newFixture(t)
	c := reg.New("x", nil)

	err := c.Mount(nil)
	if !errors.Is(err, kiterrors.ErrMissingContainer) {
		t.Errorf("Mount(nil) error = %v, want ErrMissingContainer", err)
	}
	if c.Mounted() {
		t.Error("component should not be mounted")
	}
}

func TestComponent_MountTwiceIsNoop(t *testing.T) {
	reg, root := newFixture(t)
	hooks := &testHooks{markup: "<p>x</p>"}
	c := reg.New("x", hooks)

	if err := c.Mount(root); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := c.Mount(root); err != nil {
		t.Errorf("second Mount should not fail: %v", err)
	}
	if hooks.count(HookTemplate) != 1 {
		t.Errorf("template rendered %d times, want 1", hooks.count(HookTemplate))
	}
}

func TestComponent_RemountAfterUnmount(t *testing.T) {
	reg, root := newFixture(t)
	hooks := &testHooks{markup: "<p>x</p>"}
	c := reg.New("x", hooks)

	_ = c.Mount(root)
	_ = c.Unmount()
	if root.InnerHTML() != "" {
		t.Errorf("Unmount should clear the container, got %q", root.InnerHTML())
	}
	if err := c.Mount(nil); err != nil {
		t.Fatalf("remount into previous element failed: %v", err)
	}
	if root.InnerHTML() != "<p>x</p>" {
		t.Errorf("InnerHTML() = %q", root.InnerHTML())
	}
	if hooks.count(HookBeforeInit) != 1 {
		t.Error("remount should not re-run init")
	}
}

func TestComponent_DestroyedRejectsInitAndMount(t *testing.T) {
	reg, root := newFixture(t)
	c := reg.New("x", nil)
	c.Destroy()

	if err := c.Init(nil); !errors.Is(err, kiterrors.ErrAlreadyDestroyed) {
		t.Errorf("Init error = %v, want ErrAlreadyDestroyed", err)
	}
	if err := c.Mount(root); !errors.Is(err, kiterrors.ErrAlreadyDestroyed) {
		t.Errorf("Mount error = %v, want ErrAlreadyDestroyed", err)
	}
	if _, err := c.Subscribe("evt", func(e *event.Event, args ...any) (any, error) { return nil, nil }); err == nil {
		t.Error("Subscribe on destroyed component should fail")
	}
}

func TestComponent_UnmountNeverMounted(t *testing.T) {
	reg, _ := newFixture(t)
	hooks := &testHooks{}
	c := reg.New("x", hooks)

	if err := c.Unmount(); err != nil {
		t.Errorf("Unmount error = %v, want nil", err)
	}
	if len(hooks.calls) != 0 {
		t.Errorf("no hooks should run, got %v", hooks.calls)
	}
	if c.Phase() != PhaseCreated {
		t.Errorf("Phase() = %q, want created", c.Phase())
	}
}

func TestComponent_UpdateRollback(t *testing.T) {
	tests := []struct {
		name string
		hook string
	}{
		{"before update fails", HookBeforeUpdate},
		{"template fails", HookTemplate},
		{"after update fails", HookAfterUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, root := newFixture(t)
			hooks := &testHooks{markup: "<p>x</p>"}
			c := reg.New("x", hooks)
			_ = c.Init(Values{"page": 1})
			_ = c.Mount(root)
			_ = c.SetState(Values{"open": false})

			hooks.fail = map[string]error{tt.hook: errors.New("boom")}
			err := c.Update(Values{"page": 2}, Values{"open": true})
			if err == nil {
				t.Fatal("Update should fail")
			}
			var cerr *kiterrors.ComponentError
			if !errors.As(err, &cerr) || cerr.Hook != tt.hook {
				t.Errorf("error = %v, want ComponentError for %s", err, tt.hook)
			}
			if c.Props().Int("page") != 1 {
				t.Errorf("props not rolled back: %v", c.Props())
			}
			if c.State().Bool("open") {
				t.Errorf("state not rolled back: %v", c.State())
			}
		})
	}
}

func TestComponent_ShouldUpdateFalseSkipsRender(t *testing.T) {
	reg, root := newFixture(t)
	hooks := &testHooks{
		markup: "<p>x</p>",
		should: func(c *Component, oldProps, oldState Values) bool {
			return oldState.Int("n") != c.State().Int("n")
		},
	}
	c := reg.New("x", hooks)
	_ = c.Mount(root)

	_ = c.SetState(Values{"n": 0})
	if hooks.count(HookTemplate) != 1 {
		t.Errorf("unchanged state rendered %d times, want 1", hooks.count(HookTemplate))
	}

	_ = c.SetState(Values{"n": 1})
	if hooks.count(HookTemplate) != 2 {
		t.Errorf("changed state rendered %d times, want 2", hooks.count(HookTemplate))
	}
}

func TestComponent_UpdateNotMounted(t *testing.T) {
	reg, _ := newFixture(t)
	hooks := &testHooks{}
	c := reg.New("x", hooks)

	if err := c.SetProps(Values{"a": 1}); err != nil {
		t.Errorf("SetProps error = %v", err)
	}
	if _, ok := c.Props()["a"]; ok {
		t.Error("update before mount should not change props")
	}
	if len(hooks.calls) != 0 {
		t.Errorf("no hooks should run, got %v", hooks.calls)
	}
}

func TestComponent_HookPanic(t *testing.T) {
	reg, root := newFixture(t)
	hooks := &testHooks{panicOn: HookBeforeMount}
	c := reg.New("x", hooks)

	err := c.Mount(root)
	if !errors.Is(err, kiterrors.ErrHookPanic) {
		t.Fatalf("Mount error = %v, want ErrHookPanic", err)
	}
	var cerr *kiterrors.ComponentError
	if !errors.As(err, &cerr) || cerr.Hook != HookBeforeMount || cerr.ComponentID != c.ID() {
		t.Errorf("error = %#v, want ComponentError for beforeMount", err)
	}
	if c.Mounted() {
		t.Error("component should not be mounted after a failed mount")
	}
}

func TestComponent_EventListenersRebound(t *testing.T) {
	reg, root := newFixture(t)

	clicks := 0
	hooks := &testHooks{
		markup: `<button class="save">Save</button><button class="save">Again</button>`,
		bind: func(c *Component) error {
			_, err := c.AddEventListener(".save", "click", func(ev *dom.Event) { clicks++ })
			return err
		},
	}
	c := reg.New("form", hooks)
	_ = c.Mount(root)

	if c.ListenerCount() != 2 {
		t.Errorf("ListenerCount() = %d, want 2", c.ListenerCount())
	}
	_ = c.SetState(Values{"dirty": true})
	if c.ListenerCount() != 2 {
		t.Errorf("ListenerCount() after re-render = %d, want 2", c.ListenerCount())
	}

	c.Query(".save").Click()
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}

	_ = c.Unmount()
	if c.ListenerCount() != 0 {
		t.Errorf("ListenerCount() after unmount = %d, want 0", c.ListenerCount())
	}
}

func TestComponent_AddEventListenerOnElement(t *testing.T) {
	reg, root := newFixture(t)
	c := reg.New("x", nil)

	if _, err := c.AddEventListener("", "click", func(ev *dom.Event) {}); !errors.Is(err, kiterrors.ErrMissingContainer) {
		t.Errorf("error = %v, want ErrMissingContainer", err)
	}
	_ = c.Mount(root)
	n, err := c.AddEventListener("", "click", func(ev *dom.Event) {})
	if err != nil || n != 1 {
		t.Errorf("AddEventListener() = %d, %v", n, err)
	}
	if root.ListenerCount("click") != 1 {
		t.Error("listener should be bound to the container")
	}
	c.RemoveAllEventListeners()
	if root.ListenerCount("click") != 0 {
		t.Error("RemoveAllEventListeners should release the container listener")
	}
}

func TestComponent_ChildrenMountIntoSlots(t *testing.T) {
	reg, root := newFixture(t)

	parentHooks := &testHooks{markup: `<header data-component="title"></header><section data-component="body"></section>`}
	parent := reg.New("page", parentHooks)
	title := reg.New("title", &testHooks{template: func(c *Component) string {
		return "<h1>" + c.Props().String("text") + "</h1>"
	}})
	body := reg.New("body", &testHooks{markup: "<p>content</p>"})

	_ = title.Init(Values{"text": "Users"})
	if err := parent.AddChild(title); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	if err := parent.AddChild(body); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	if err := parent.Mount(root); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	if !title.Mounted() || !body.Mounted() {
		t.Fatal("children should be mounted with the parent")
	}
	if !strings.Contains(root.InnerHTML(), "<h1>Users</h1>") || !strings.Contains(root.InnerHTML(), "<p>content</p>") {
		t.Errorf("children not rendered: %s", root.InnerHTML())
	}

	// Re-rendering the parent replaces the slots; children follow.
	_ = parent.SetState(Values{"v": 2})
	if !strings.Contains(root.InnerHTML(), "<h1>Users</h1>") {
		t.Errorf("child not re-homed after parent render: %s", root.InnerHTML())
	}
	if title.Element() != root.Query(`[data-component="title"]`) {
		t.Error("child element should be the new slot")
	}

	_ = parent.Unmount()
	if title.Mounted() || body.Mounted() {
		t.Error("children should be unmounted with the parent")
	}
}

func TestComponent_AddChildWhileMounted(t *testing.T) {
	reg, root := newFixture(t)
	parent := reg.New("page", &testHooks{markup: `<div data-component="late"></div>`})
	_ = parent.Mount(root)

	late := reg.New("late", &testHooks{markup: "<em>late</em>"})
	if err := parent.AddChild(late); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	if !late.Mounted() {
		t.Error("child added to a mounted parent should mount immediately")
	}
}

func TestComponent_AddChildInvalid(t *testing.T) {
	reg, _ := newFixture(t)
	a := reg.New("a", nil)
	b := reg.New("b", nil)
	dead := reg.New("dead", nil)
	dead.Destroy()

	_ = a.AddChild(b)

	tests := []struct {
		name   string
		parent *Component
		child  *Component
	}{
		{"nil child", a, nil},
		{"self", a, a},
		{"destroyed child", a, dead},
		{"cycle", b, a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parent.AddChild(tt.child); !errors.Is(err, kiterrors.ErrInvalidChild) {
				t.Errorf("AddChild error = %v, want ErrInvalidChild", err)
			}
		})
	}
}

func TestComponent_ChildManagement(t *testing.T) {
	reg, _ := newFixture(t)
	a := reg.New("a", nil)
	b := reg.New("b", nil)
	child := reg.New("child", nil)

	_ = a.AddChild(child)
	if a.GetChild("child") != child || child.Parent() != a {
		t.Fatal("child should belong to a")
	}

	_ = b.AddChild(child)
	if a.GetChild("child") != nil || child.Parent() != b {
		t.Error("AddChild should move the child to its new parent")
	}
	if len(b.Children()) != 1 {
		t.Errorf("Children() = %d, want 1", len(b.Children()))
	}

	if !b.RemoveChild(child) || child.Parent() != nil {
		t.Error("RemoveChild should detach the child")
	}
	if b.RemoveChild(child) {
		t.Error("second RemoveChild should return false")
	}
}

func TestComponent_DestroyCascade(t *testing.T) {
	reg, root := newFixture(t)
	parent := reg.New("page", &testHooks{markup: `<div data-component="child"></div>`})
	child := reg.New("child", &testHooks{markup: "<p>c</p>"})
	_ = parent.AddChild(child)
	_ = parent.Mount(root)

	noop := func(e *event.Event, args ...any) (any, error) { return nil, nil }
	_, _ = parent.Subscribe(event.EventPageChange, noop)
	_, _ = child.Subscribe(event.EventPageChange, noop)
	_, _ = child.Subscribe(event.EventLoaderShow, noop)

	parent.Destroy()

	if !parent.Destroyed() || !child.Destroyed() {
		t.Fatal("destroy should cascade to children")
	}
	if child.Parent() != nil || len(parent.Children()) != 0 {
		t.Error("destroyed components should hold no tree references")
	}
	if parent.Element() != nil {
		t.Error("destroyed component should release its element")
	}
	if reg.Count() != 0 {
		t.Errorf("registry Count() = %d, want 0", reg.Count())
	}
	if reg.Bus().SubscriptionCount() != 0 {
		t.Errorf("bus still has %d listeners", reg.Bus().SubscriptionCount())
	}
	if root.InnerHTML() != "" {
		t.Errorf("container should be cleared, got %q", root.InnerHTML())
	}
}

func TestComponent_DestroyIdempotentAndSwallowsErrors(t *testing.T) {
	reg, root := newFixture(t)
	hooks := &testHooks{fail: map[string]error{
		HookBeforeDestroy: errors.New("before"),
		HookAfterDestroy:  errors.New("after"),
	}}
	c := reg.New("x", hooks)
	_ = c.Mount(root)

	c.Destroy()
	c.Destroy()

	if !c.Destroyed() {
		t.Error("component should be destroyed despite hook errors")
	}
	if hooks.count(HookBeforeDestroy) != 1 {
		t.Errorf("beforeDestroy ran %d times, want 1", hooks.count(HookBeforeDestroy))
	}
}

func TestComponent_EmitsMountAndUnmount(t *testing.T) {
	reg, root := newFixture(t)

	var got []string
	record := func(e *event.Event, args ...any) (any, error) {
		payload := args[0].(event.ComponentLifecycle)
		got = append(got, e.Name+":"+payload.Name)
		return nil, nil
	}
	reg.Bus().On(event.EventComponentMount, record)
	reg.Bus().On(event.EventComponentUnmount, record)

	c := reg.New("nav", nil)
	_ = c.Mount(root)
	_ = c.Unmount()

	want := []string{"component:mount:nav", "component:unmount:nav"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestValues_Accessors(t *testing.T) {
	v := Values{"s": "x", "b": true, "i": 3, "f": 4.0, "i64": int64(5)}

	if v.String("s") != "x" || v.String("b") != "" {
		t.Error("String accessor mismatch")
	}
	if !v.Bool("b") || v.Bool("missing") {
		t.Error("Bool accessor mismatch")
	}
	if v.Int("i") != 3 || v.Int("f") != 4 || v.Int("i64") != 5 || v.Int("s") != 0 {
		t.Error("Int accessor mismatch")
	}
}
