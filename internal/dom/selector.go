package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"
)

// selectorCacheSize bounds the compiled selectors kept per document.
const selectorCacheSize = 128

// Selector is a compiled CSS selector group as understood by cascadia:
// type, id, class and attribute selectors, combinators, pseudo-classes and
// comma-separated groups.
type Selector struct {
	source string
	group  cascadia.SelectorGroup
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string) *Selector {
	s, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return s
}

// Compile parses a selector.
func Compile(source string) (*Selector, error) {
	group, err := cascadia.ParseGroup(source)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", source, err)
	}
	return &Selector{source: source, group: group}, nil
}

// String returns the selector source.
func (s *Selector) String() string { return s.source }

// Match reports whether n is an element matching the selector.
func (s *Selector) Match(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return s.group.Match(n)
}

func newSelectorCache() *lru.Cache[string, *Selector] {
	c, err := lru.New[string, *Selector](selectorCacheSize)
	if err != nil {
		panic(fmt.Sprintf("dom: creating selector cache: %v", err))
	}
	return c
}

// selector compiles source, reusing the document's recent compilations.
func (d *Document) selector(source string) (*Selector, error) {
	if s, ok := d.selectors.Get(source); ok {
		return s, nil
	}
	s, err := Compile(source)
	if err != nil {
		return nil, err
	}
	d.selectors.Add(source, s)
	return s, nil
}
