// Package piping renders custom labels (record labels, repeating form and
// repeating event labels) with field values substituted for their bracketed
// references, and turns the result into plain text.
package piping
