package resolve

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-instanceselect/pkg/actiontag"
)

// Separators joins a qualifier (arm number or unique event name) and a base
// value (record id or instance number) in composite option values.
type Separators struct {
	Current string
	Legacy  string
}

// DefaultSeparators returns the current "." and retired ":" separators.
func DefaultSeparators() Separators {
	return Separators{Current: ".", Legacy: ":"}
}

func (s Separators) normalized() Separators {
	def := DefaultSeparators()
	if s.Current == "" {
		s.Current = def.Current
	}
	if s.Legacy == "" {
		s.Legacy = def.Legacy
	}
	return s
}

// Join builds a composite value.
func (s Separators) Join(qualifier, base string) string {
	return qualifier + s.normalized().Current + base
}

// Split cuts a composite value on the first current or legacy separator,
// whichever comes first.
func (s Separators) Split(value string) (qualifier, base string, ok bool) {
	s = s.normalized()
	cut := -1
	width := 0
	for _, sep := range []string{s.Current, s.Legacy} {
		if idx := strings.Index(value, sep); idx >= 0 && (cut < 0 || idx < cut) {
			cut, width = idx, len(sep)
		}
	}
	if cut < 0 {
		return "", value, false
	}
	return value[:cut], value[cut+width:], true
}

// Lookup is the parsed parameter of one action tag. The set of
// implementations is closed: RecordLookup, FormLookup and EventLookup.
type Lookup interface {
	Tag() actiontag.Tag
	isLookup()
}

// RecordLookup lists records of the named arms. No arms means the arm of the
// current event.
type RecordLookup struct {
	Arms []string
}

// FormLookup lists instances of a repeating form. An empty Event means every
// event in which the form repeats.
type FormLookup struct {
	Event string
	Form  string
}

// EventLookup lists instances of a repeating event.
type EventLookup struct {
	Event string
}

func (RecordLookup) Tag() actiontag.Tag { return actiontag.RecordInstance }
func (FormLookup) Tag() actiontag.Tag   { return actiontag.FormInstance }
func (EventLookup) Tag() actiontag.Tag  { return actiontag.EventInstance }

func (RecordLookup) isLookup() {}
func (FormLookup) isLookup()   {}
func (EventLookup) isLookup()  {}

// ParseLookup parses a tag parameter. Parameters that can never resolve
// return an error wrapping ErrUnresolvable.
func ParseLookup(tag actiontag.Tag, param string, seps Separators) (Lookup, error) {
	param = strings.TrimSpace(param)
	switch tag {
	case actiontag.RecordInstance:
		return parseRecordLookup(param), nil
	case actiontag.FormInstance:
		event, form, qualified := seps.Split(param)
		form = strings.TrimSpace(form)
		if form == "" {
			return nil, fmt.Errorf("%w: %s has no form name", ErrUnresolvable, tag)
		}
		lookup := FormLookup{Form: form}
		if qualified {
			lookup.Event = strings.TrimSpace(event)
			if lookup.Event == "" {
				return nil, fmt.Errorf("%w: %s has an empty event qualifier", ErrUnresolvable, tag)
			}
		}
		return lookup, nil
	case actiontag.EventInstance:
		if param == "" {
			return nil, fmt.Errorf("%w: %s has no event name", ErrUnresolvable, tag)
		}
		return EventLookup{Event: param}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tag %q", ErrUnresolvable, string(tag))
	}
}

func parseRecordLookup(param string) RecordLookup {
	param = strings.ReplaceAll(param, "'", "")
	var lookup RecordLookup
	seen := make(map[string]struct{})
	for _, token := range strings.Split(param, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		lookup.Arms = append(lookup.Arms, token)
	}
	return lookup
}
