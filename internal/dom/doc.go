// Package dom provides a small in-memory HTML document used as the mount
// target for adminkit components.
//
// Markup is parsed and rendered with golang.org/x/net/html. On top of the
// parsed tree the package adds what components need from a browser DOM:
// stable [Element] handles, CSS selector queries ([Compile], backed by
// cascadia), attribute and class helpers, and DOM events with bubbling
// ([Element.AddEventListener], [Element.Dispatch]).
//
// A [Document] and its elements are not safe for concurrent use. They are
// owned by the goroutine that drives the component tree.
package dom
