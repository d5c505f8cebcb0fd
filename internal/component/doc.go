// Package component drives the lifecycle of UI components mounted into a
// [dom.Document].
//
// A [Component] moves through a fixed sequence of phases:
//
//	Created -> Initialized -> Mounted -> (Update)* -> Unmounted -> Destroyed
//
// Behaviour is supplied through the [Hooks] interface. Embed [BaseHooks] to
// get no-op defaults and override only what the component needs.
//
// Components are created by a [Registry], which is owned by the application
// context and gives every component a UUID, a logger and access to the event
// bus. Component trees are not safe for concurrent use; drive them from a
// single goroutine.
//
// # Child Components
//
// A parent template marks child slots with data-component="<child name>".
// Each render mounts unmounted children into their slot and moves mounted
// children whose slot was replaced.
package component
