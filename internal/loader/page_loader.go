package loader

import (
	"fmt"
	"html"
	"strings"

	"github.com/Iron-Ham/adminkit/internal/component"
	"github.com/Iron-Ham/adminkit/internal/event"
)

// ComponentName is the slot name PageLoader components are mounted under.
const ComponentName = "page-loader"

// PageLoader renders the active loaders of a Registry. It re-renders itself
// whenever a loader event is published on the component's bus.
type PageLoader struct {
	component.BaseHooks
	Registry *Registry
}

// NewPageLoader returns hooks rendering r.
func NewPageLoader(r *Registry) *PageLoader {
	return &PageLoader{Registry: r}
}

// Template renders one element per active loader. The container is hidden
// while nothing is loading.
func (p *PageLoader) Template(*component.Component) (string, error) {
	active := p.Registry.Active()
	if len(active) == 0 {
		return `<div class="page-loader" hidden></div>`, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="page-loader" data-count="%d">`, len(active))
	for _, e := range active {
		fmt.Fprintf(&b, `<div class="loader" id="%s" data-loader-target="%s">`,
			html.EscapeString(e.ID), html.EscapeString(e.Target))
		b.WriteString(`<span class="spinner"></span>`)
		if e.Message != "" {
			fmt.Fprintf(&b, `<span class="loader-message">%s</span>`, html.EscapeString(e.Message))
		}
		if e.Progress >= 0 {
			fmt.Fprintf(&b, `<progress value="%.2f" max="1"></progress>`, e.Progress)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String(), nil
}

// OnCreate subscribes to loader events for the lifetime of the component.
// The subscriptions are released when the component is destroyed.
func (p *PageLoader) OnCreate(c *component.Component) error {
	refresh := func(*event.Event, ...any) (any, error) {
		if !c.Mounted() {
			return nil, nil
		}
		return nil, c.Render()
	}
	for _, name := range []string{
		event.EventLoaderShow,
		event.EventLoaderHide,
		event.EventLoaderUpdate,
		event.EventLoaderTimeout,
	} {
		if _, err := c.Subscribe(name, refresh); err != nil {
			return err
		}
	}
	return nil
}
