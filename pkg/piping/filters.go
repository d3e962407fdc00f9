package piping

import (
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

const dateFilter = "piping_date"

var registerOnce sync.Once

func registerFilters() {
	registerOnce.Do(func() {
		if !pongo2.FilterExists(dateFilter) {
			_ = pongo2.RegisterFilter(dateFilter, filterDate)
		}
	})
}

// dateOrder returns the display order of a date or datetime validation type,
// or "" when values are shown as stored.
func dateOrder(validationType string) string {
	if !strings.HasPrefix(validationType, "date") {
		return ""
	}
	switch {
	case strings.HasSuffix(validationType, "_dmy"):
		return "dmy"
	case strings.HasSuffix(validationType, "_mdy"):
		return "mdy"
	}
	return ""
}

// filterDate reorders a stored Y-M-D date. A time part is kept as is; values
// that are not dates pass through.
func filterDate(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	date, clock, _ := strings.Cut(in.String(), " ")
	parts := strings.Split(date, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return in, nil
	}
	year, month, day := parts[0], parts[1], parts[2]
	switch param.String() {
	case "dmy":
		date = day + "-" + month + "-" + year
	case "mdy":
		date = month + "-" + day + "-" + year
	default:
		return in, nil
	}
	if clock != "" {
		date += " " + clock
	}
	return pongo2.AsValue(date), nil
}
