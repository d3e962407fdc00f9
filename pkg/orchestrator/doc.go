// Package orchestrator implements the page-render hook. For each data entry or
// survey page it scans the form's fields for instance select action tags,
// resolves their options (once per distinct tag and parameter), rewrites
// legacy composite values when a composite lookup is present, reads the
// fields' current values and hands the resulting directives to a renderer.
package orchestrator
