// Package navigation provides the sidebar navigation and breadcrumb
// components. Both follow page:change; the navigation also publishes
// navigation:change and page:change when one of its links is clicked.
package navigation

import (
	"fmt"
	"html"
	"reflect"
	"strings"

	"github.com/Iron-Ham/adminkit/internal/component"
	"github.com/Iron-Ham/adminkit/internal/dom"
	"github.com/Iron-Ham/adminkit/internal/event"
)

// Component names used for slots.
const (
	NavigationName = "navigation"
	BreadcrumbName = "breadcrumb"
)

// stateActive holds the active path in component state.
const stateActive = "active"

// Item is a navigation entry. Children render as a nested list.
type Item struct {
	Path     string
	Title    string
	Icon     string
	Children []Item
}

// Find returns the item with path, searching children depth first.
func Find(items []Item, path string) (Item, bool) {
	for _, it := range items {
		if it.Path == path {
			return it, true
		}
		if found, ok := Find(it.Children, path); ok {
			return found, true
		}
	}
	return Item{}, false
}

// Navigation renders Items and tracks the active path.
type Navigation struct {
	component.BaseHooks
	Items []Item
}

// New returns navigation hooks for items.
func New(items []Item) *Navigation {
	return &Navigation{Items: items}
}

// Active returns the active path of c.
func Active(c *component.Component) string {
	return c.State().String(stateActive)
}

// AfterInit takes the initial active path from the "active" prop.
func (n *Navigation) AfterInit(c *component.Component) error {
	if p := c.Props().String(stateActive); p != "" {
		c.State()[stateActive] = p
	}
	return nil
}

// OnCreate follows page:change for the lifetime of the component.
func (n *Navigation) OnCreate(c *component.Component) error {
	_, err := c.Subscribe(event.EventPageChange, func(_ *event.Event, args ...any) (any, error) {
		pc, ok := pageChange(args)
		if !ok || pc.Path == Active(c) {
			return nil, nil
		}
		if !c.Mounted() {
			c.State()[stateActive] = pc.Path
			return nil, nil
		}
		return nil, c.SetState(component.Values{stateActive: pc.Path})
	})
	return err
}

// Template renders the item tree. The active link carries the "active"
// class and aria-current="page".
func (n *Navigation) Template(c *component.Component) (string, error) {
	var b strings.Builder
	b.WriteString(`<nav class="navigation">`)
	writeItems(&b, n.Items, Active(c))
	b.WriteString(`</nav>`)
	return b.String(), nil
}

func writeItems(b *strings.Builder, items []Item, active string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(`<ul>`)
	for _, it := range items {
		b.WriteString(`<li>`)
		cls := "nav-link"
		current := ""
		if it.Path == active {
			cls += " active"
			current = ` aria-current="page"`
		}
		fmt.Fprintf(b, `<a href="%s" class="%s" data-path="%s" data-title="%s"%s>`,
			html.EscapeString(it.Path), cls, html.EscapeString(it.Path), html.EscapeString(it.Title), current)
		if it.Icon != "" {
			fmt.Fprintf(b, `<i class="icon icon-%s"></i>`, html.EscapeString(it.Icon))
		}
		b.WriteString(html.EscapeString(it.Title))
		b.WriteString(`</a>`)
		writeItems(b, it.Children, active)
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ul>`)
}

// BindEvents handles clicks on item links.
func (n *Navigation) BindEvents(c *component.Component) error {
	_, err := c.AddEventListener("a[data-path]", "click", func(ev *dom.Event) {
		ev.PreventDefault()
		link := ev.CurrentTarget
		to := link.GetAttribute("data-path")
		from := Active(c)
		if to == from {
			return
		}
		c.Emit(event.EventNavigationChange, event.NavigationChange{From: from, To: to})
		c.Emit(event.EventPageChange, event.PageChange{Path: to, Title: link.GetAttribute("data-title")})
	})
	return err
}

// ShouldUpdate skips rendering when the active path is unchanged and no
// props changed.
func (n *Navigation) ShouldUpdate(c *component.Component, oldProps, oldState component.Values) bool {
	if oldState.String(stateActive) != Active(c) {
		return true
	}
	return !reflect.DeepEqual(oldProps, c.Props())
}

func pageChange(args []any) (event.PageChange, bool) {
	if len(args) == 0 {
		return event.PageChange{}, false
	}
	switch p := args[0].(type) {
	case event.PageChange:
		return p, true
	case string:
		return event.PageChange{Path: p}, true
	}
	return event.PageChange{}, false
}
