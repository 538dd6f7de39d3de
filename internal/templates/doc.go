// Package templates holds the built-in bill layouts and registers them with
// a bill template registry.
//
// Layouts are html/template files embedded in the binary. Each one is
// exposed as a templ.Component, so handlers render them the same way as any
// other component.
package templates
