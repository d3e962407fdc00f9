// Package optionsapi exposes the page hook over HTTP.
//
// Routes (relative to Options.RoutePath, "/instanceselect" by default):
//
//	GET /projects/{project}/forms/{form}/render?event_id=&record=&instance=
//	GET /projects/{project}/forms/{form}/fields/{field}/options?event_id=&record=&q=&limit=
//
// The render route returns the renderer output (204 when the page has no
// tagged fields). The options route returns {"data":[{"value","label"}]} for
// autocomplete controls, filtered by q.
package optionsapi
