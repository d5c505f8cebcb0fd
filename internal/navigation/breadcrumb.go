package navigation

import (
	"fmt"
	"html"
	"maps"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Iron-Ham/adminkit/internal/component"
	"github.com/Iron-Ham/adminkit/internal/event"
)

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	Path  string
	Title string
}

// Trail builds the breadcrumb trail for path, starting at home. Titles are
// taken from items when a matching path exists, otherwise derived from the
// segment. A non-empty title replaces the title of the last crumb.
func Trail(path, title, home string, items []Item) []Crumb {
	if home == "" {
		home = "Home"
	}
	trail := []Crumb{{Path: "/", Title: home}}

	var prefix string
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		prefix += "/" + seg
		crumb := Crumb{Path: prefix, Title: segmentTitle(seg)}
		if it, ok := Find(items, prefix); ok && it.Title != "" {
			crumb.Title = it.Title
		}
		trail = append(trail, crumb)
	}
	if title != "" {
		trail[len(trail)-1].Title = title
	}
	return trail
}

// segmentTitle turns "user-groups" into "User Groups".
func segmentTitle(seg string) string {
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	return cases.Title(language.English).String(seg)
}

// Breadcrumb renders the trail of the current page.
type Breadcrumb struct {
	component.BaseHooks
	// Items supplies titles for known paths.
	Items []Item
}

// NewBreadcrumb returns breadcrumb hooks using items for titles.
func NewBreadcrumb(items []Item) *Breadcrumb {
	return &Breadcrumb{Items: items}
}

// OnCreate follows page:change for the lifetime of the component.
func (b *Breadcrumb) OnCreate(c *component.Component) error {
	_, err := c.Subscribe(event.EventPageChange, func(_ *event.Event, args ...any) (any, error) {
		pc, ok := pageChange(args)
		if !ok {
			return nil, nil
		}
		next := component.Values{"path": pc.Path, "title": pc.Title}
		if !c.Mounted() {
			maps.Copy(c.State(), next)
			return nil, nil
		}
		return nil, c.SetState(next)
	})
	return err
}

// Crumbs returns the trail currently rendered by c.
func (b *Breadcrumb) Crumbs(c *component.Component) []Crumb {
	path := c.State().String("path")
	if path == "" {
		path = "/"
	}
	return Trail(path, c.State().String("title"), c.Props().String("home"), b.Items)
}

// Template renders the trail as an ordered list. The last crumb is plain
// text marked as the current page.
func (b *Breadcrumb) Template(c *component.Component) (string, error) {
	crumbs := b.Crumbs(c)
	sep := c.Props().String("separator")
	if sep == "" {
		sep = "/"
	}

	var sb strings.Builder
	sb.WriteString(`<ol class="breadcrumb">`)
	for i, cr := range crumbs {
		if i > 0 {
			fmt.Fprintf(&sb, `<li class="separator">%s</li>`, html.EscapeString(sep))
		}
		if i == len(crumbs)-1 {
			fmt.Fprintf(&sb, `<li class="crumb active" aria-current="page">%s</li>`, html.EscapeString(cr.Title))
			continue
		}
		fmt.Fprintf(&sb, `<li class="crumb"><a href="%s" data-path="%s">%s</a></li>`,
			html.EscapeString(cr.Path), html.EscapeString(cr.Path), html.EscapeString(cr.Title))
	}
	sb.WriteString(`</ol>`)
	return sb.String(), nil
}
