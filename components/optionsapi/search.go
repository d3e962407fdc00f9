package optionsapi

import (
	"strings"

	"github.com/goliatone/go-instanceselect/pkg/resolve"
)

// Search filters options whose label or value contains query, case
// insensitive. Matches keep the resolver's order; an empty query matches
// everything.
func Search(options []resolve.Option, query string, limit int, opts Options) []resolve.Option {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]resolve.Option, 0, min(limit, len(options)))
	for _, option := range options {
		if len(out) == limit {
			break
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(option.Label), q) &&
			!strings.Contains(strings.ToLower(option.Value), q) {
			continue
		}
		out = append(out, option)
	}
	return out
}
