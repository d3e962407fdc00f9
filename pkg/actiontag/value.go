package actiontag

import (
	"regexp"
	"strings"
)

// nextTagPattern marks where the following action tag of an annotation begins.
var nextTagPattern = regexp.MustCompile(`\s@[A-Za-z]`)

// ValueOf returns the parameter of tag inside annotation following the
// platform's action tag syntax: "@TAG=value". A quoted value runs to its
// closing quote; an unquoted value runs to the next action tag or the end of
// the annotation. A tag without "=" has an empty parameter.
func ValueOf(annotation string, tag Tag) string {
	idx := strings.Index(annotation, string(tag))
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(annotation[idx+len(tag):], " \t")
	if !strings.HasPrefix(rest, "=") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t")
	if rest == "" {
		return ""
	}

	if quote := rest[0]; quote == '\'' || quote == '"' {
		if end := strings.IndexByte(rest[1:], quote); end >= 0 {
			return rest[1 : end+1]
		}
	}

	if loc := nextTagPattern.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return trimQuotes(strings.TrimSpace(rest))
}

func trimQuotes(value string) string {
	value = strings.Trim(value, `"'`)
	return strings.TrimSpace(value)
}
