// Package actiontag finds the instance select action tags in field
// annotations. The tag set is closed (@EVENTINSTANCE, @FORMINSTANCE,
// @RECORDINSTANCE) and is scanned in that fixed priority order; the first tag
// literal found in an annotation wins.
package actiontag
