// Package template defines the renderer-agnostic template contract. The
// pongo2-backed implementation lives in the gotemplate subpackage and is
// shared by the vanilla renderer and the label piping engine.
package template
