// Package recordid holds the record identifier conventions shared by the
// resolvers and the stores: natural ordering and double data entry suffixes.
package recordid

import (
	"sort"
	"strconv"
	"strings"
)

// ddeSuffixes are appended to record names entered by the first and second
// double data entry person.
var ddeSuffixes = []string{"--1", "--2"}

// StripDDE removes a double data entry suffix from a record id.
func StripDDE(id string) string {
	for _, suffix := range ddeSuffixes {
		if trimmed, ok := strings.CutSuffix(id, suffix); ok && trimmed != "" {
			return trimmed
		}
	}
	return id
}

// Compare orders record ids naturally: integer ids compare numerically and
// sort before non-integer ids, which compare lexically.
func Compare(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Sort orders ids in place using Compare.
func Sort(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return Compare(ids[i], ids[j]) < 0
	})
}
