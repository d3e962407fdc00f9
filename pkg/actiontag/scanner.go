package actiontag

import (
	"strings"

	"github.com/goliatone/go-instanceselect/pkg/project"
)

// Tagged describes a field carrying one of the recognised tags.
type Tagged struct {
	Field        project.Field
	Tag          Tag
	Param        string
	Autocomplete bool
}

// Qualifies reports whether the field can host an instance select: a plain
// text input without validation and with a non-empty annotation.
func Qualifies(field project.Field) bool {
	return field.ElementType == project.ElementTypeText &&
		strings.TrimSpace(field.ValidationType) == "" &&
		strings.TrimSpace(field.Annotation) != ""
}

// Scan walks fields in order and returns the tagged ones. Fields failing
// Qualifies or carrying no recognised tag are skipped.
func Scan(fields []project.Field) []Tagged {
	var out []Tagged
	for _, field := range fields {
		if !Qualifies(field) {
			continue
		}
		tag, param, ok := Detect(field.Annotation)
		if !ok {
			continue
		}
		out = append(out, Tagged{
			Field:        field,
			Tag:          tag,
			Param:        param,
			Autocomplete: strings.Contains(field.Annotation, AutocompleteTag),
		})
	}
	return out
}
