package navigation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Iron-Ham/adminkit/internal/component"
	"github.com/Iron-Ham/adminkit/internal/dom"
	"github.com/Iron-Ham/adminkit/internal/event"
)

var testItems = []Item{
	{Path: "/", Title: "Dashboard", Icon: "home"},
	{Path: "/users", Title: "Users", Children: []Item{
		{Path: "/users/groups", Title: "Groups"},
	}},
	{Path: "/settings", Title: "Settings"},
}

func newFixture(t *testing.T) (*component.Registry, *event.Bus, *dom.Document) {
	t.Helper()
	doc, err := dom.Parse(`<html><body><aside id="nav"></aside><header id="crumbs"></header></body></html>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	bus := event.NewBus(nil)
	return component.NewRegistry(bus, nil), bus, doc
}

func activePaths(c *component.Component) []string {
	var out []string
	for _, el := range c.QueryAll("a.active") {
		out = append(out, el.GetAttribute("data-path"))
	}
	return out
}

func TestFind(t *testing.T) {
	tests := []struct {
		path  string
		want  string
		found bool
	}{
		{"/users", "Users", true},
		{"/users/groups", "Groups", true},
		{"/missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			it, ok := Find(testItems, tt.path)
			if ok != tt.found || it.Title != tt.want {
				t.Errorf("Find(%q) = %q, %v; want %q, %v", tt.path, it.Title, ok, tt.want, tt.found)
			}
		})
	}
}

func TestNavigation_RendersItems(t *testing.T) {
	reg, _, doc := newFixture(t)
	c := reg.New(NavigationName, New(testItems))
	if err := c.Init(component.Values{"active": "/users"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := c.Mount(doc.GetElementByID("nav")); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	if n := len(c.QueryAll("a[data-path]")); n != 4 {
		t.Errorf("rendered %d links, want 4", n)
	}
	if diff := cmp.Diff([]string{"/users"}, activePaths(c)); diff != "" {
		t.Errorf("active links mismatch (-want +got):\n%s", diff)
	}
	if c.Query("ul ul a") == nil {
		t.Error("child items not rendered as a nested list")
	}
	if c.Query("i.icon-home") == nil {
		t.Error("icon not rendered")
	}
	if c.ListenerCount() != 4 {
		t.Errorf("ListenerCount() = %d, want 4", c.ListenerCount())
	}
}

func TestNavigation_FollowsPageChange(t *testing.T) {
	reg, bus, doc := newFixture(t)
	c := reg.New(NavigationName, New(testItems))
	if err := c.Mount(doc.GetElementByID("nav")); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if got := activePaths(c); len(got) != 0 {
		t.Errorf("active links before navigation = %v", got)
	}

	bus.Emit(event.EventPageChange, event.PageChange{Path: "/settings", Title: "Settings"})
	if diff := cmp.Diff([]string{"/settings"}, activePaths(c)); diff != "" {
		t.Errorf("active links mismatch (-want +got):\n%s", diff)
	}
	if got := Active(c); got != "/settings" {
		t.Errorf("Active() = %q, want /settings", got)
	}
}

func TestNavigation_ClickEmits(t *testing.T) {
	reg, bus, doc := newFixture(t)
	c := reg.New(NavigationName, New(testItems))
	if err := c.Init(component.Values{"active": "/"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := c.Mount(doc.GetElementByID("nav")); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	var navs []event.NavigationChange
	var pages []event.PageChange
	bus.On(event.EventNavigationChange, func(_ *event.Event, args ...any) (any, error) {
		navs = append(navs, args[0].(event.NavigationChange))
		return nil, nil
	})
	bus.On(event.EventPageChange, func(_ *event.Event, args ...any) (any, error) {
		pages = append(pages, args[0].(event.PageChange))
		return nil, nil
	})

	ev := c.Query(`a[data-path="/users/groups"]`).Click()
	if !ev.DefaultPrevented() {
		t.Error("click default not prevented")
	}
	if diff := cmp.Diff([]event.NavigationChange{{From: "/", To: "/users/groups"}}, navs); diff != "" {
		t.Errorf("navigation:change mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]event.PageChange{{Path: "/users/groups", Title: "Groups"}}, pages); diff != "" {
		t.Errorf("page:change mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/users/groups"}, activePaths(c)); diff != "" {
		t.Errorf("active links mismatch (-want +got):\n%s", diff)
	}

	// Clicking the active item does nothing.
	c.Query(`a[data-path="/users/groups"]`).Click()
	if len(navs) != 1 {
		t.Errorf("navigation:change emitted %d times, want 1", len(navs))
	}
}

func TestNavigation_DestroyReleasesSubscription(t *testing.T) {
	reg, bus, doc := newFixture(t)
	c := reg.New(NavigationName, New(testItems))
	if err := c.Mount(doc.GetElementByID("nav")); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if n := bus.ListenerCount(event.EventPageChange); n != 1 {
		t.Fatalf("ListenerCount(page:change) = %d, want 1", n)
	}
	c.Destroy()
	if n := bus.ListenerCount(event.EventPageChange); n != 0 {
		t.Errorf("ListenerCount(page:change) = %d after Destroy, want 0", n)
	}
}

func TestTrail(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		title string
		want  []Crumb
	}{
		{
			name: "root",
			path: "/",
			want: []Crumb{{Path: "/", Title: "Home"}},
		},
		{
			name: "known items",
			path: "/users/groups",
			want: []Crumb{
				{Path: "/", Title: "Home"},
				{Path: "/users", Title: "Users"},
				{Path: "/users/groups", Title: "Groups"},
			},
		},
		{
			name:  "derived titles and override",
			path:  "/audit-log/entries_2024/17/",
			title: "Entry 17",
			want: []Crumb{
				{Path: "/", Title: "Home"},
				{Path: "/audit-log", Title: "Audit Log"},
				{Path: "/audit-log/entries_2024", Title: "Entries 2024"},
				{Path: "/audit-log/entries_2024/17", Title: "Entry 17"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trail(tt.path, tt.title, "", testItems)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Trail(%q) mismatch (-want +got):\n%s", tt.path, diff)
			}
		})
	}
}

func TestBreadcrumb_FollowsPageChange(t *testing.T) {
	reg, bus, doc := newFixture(t)
	hooks := NewBreadcrumb(testItems)
	c := reg.New(BreadcrumbName, hooks)
	if err := c.Init(component.Values{"home": "Admin", "separator": ">"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := c.Mount(doc.GetElementByID("crumbs")); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if got := c.Query(".crumb.active").Text(); got != "Admin" {
		t.Errorf("initial crumb = %q, want Admin", got)
	}

	bus.Emit(event.EventPageChange, event.PageChange{Path: "/users/groups"})

	var titles []string
	for _, el := range c.QueryAll(".crumb") {
		titles = append(titles, el.Text())
	}
	if diff := cmp.Diff([]string{"Admin", "Users", "Groups"}, titles); diff != "" {
		t.Errorf("crumbs mismatch (-want +got):\n%s", diff)
	}
	if n := len(c.QueryAll(".separator")); n != 2 {
		t.Errorf("rendered %d separators, want 2", n)
	}
	if got := c.Query(".separator").Text(); got != ">" {
		t.Errorf("separator = %q, want >", got)
	}
	if n := len(c.QueryAll("a[data-path]")); n != 2 {
		t.Errorf("rendered %d crumb links, want 2", n)
	}
}
