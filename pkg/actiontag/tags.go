package actiontag

import "strings"

// Tag is one of the recognised action tags. The set is closed.
type Tag string

const (
	// EventInstance selects an instance of a repeating event.
	EventInstance Tag = "@EVENTINSTANCE"
	// FormInstance selects an instance of a repeating form.
	FormInstance Tag = "@FORMINSTANCE"
	// RecordInstance selects another record of the project.
	RecordInstance Tag = "@RECORDINSTANCE"
)

// AutocompleteTag requests the autocomplete control instead of a plain select
// when it appears next to one of the recognised tags.
const AutocompleteTag = "@INSTANCESELECT-AUTOCOMPLETE"

// matcher pairs a tag with the predicate deciding whether an annotation
// carries it.
type matcher struct {
	tag   Tag
	match func(annotation string) bool
}

// priority is the scan order. The first matching entry wins when more than
// one tag literal appears in an annotation.
var priority = []matcher{
	{tag: EventInstance, match: containsTag(EventInstance)},
	{tag: FormInstance, match: containsTag(FormInstance)},
	{tag: RecordInstance, match: containsTag(RecordInstance)},
}

var descriptions = map[Tag]string{
	EventInstance: "Specify the unique event name of a repeating event and the select list shows the " +
		"instances of that event for the current record, e.g. @EVENTINSTANCE=myeventname_arm_1. " +
		"If the event is not a repeating event the tag is ignored and the plain text field is shown.",
	FormInstance: "Specify a form name, or a unique event name and form name pair, and the select list " +
		"shows the instances of that form for the current record: @FORMINSTANCE=myformname selects from " +
		"every event where the form repeats, @FORMINSTANCE=myevent_arm_1.myformname from that event only. " +
		"If the form does not repeat the tag is ignored and the plain text field is shown.",
	RecordInstance: "Select another record of the current project. A comma-separated list of arm numbers " +
		"may be given: @RECORDINSTANCE selects from the current arm, @RECORDINSTANCE=2,3 from arms 2 and 3. " +
		"Invalid arm numbers are ignored. Users assigned to a data access group only see records of that group.",
}

func containsTag(tag Tag) func(string) bool {
	return func(annotation string) bool {
		return strings.Contains(annotation, string(tag))
	}
}

// Tags returns the recognised tags in scan priority order.
func Tags() []Tag {
	out := make([]Tag, len(priority))
	for i, m := range priority {
		out[i] = m.tag
	}
	return out
}

// String implements fmt.Stringer.
func (t Tag) String() string { return string(t) }

// Name returns the tag without its leading "@".
func (t Tag) Name() string { return strings.TrimPrefix(string(t), "@") }

// Description returns the user documentation of the tag.
func (t Tag) Description() string { return descriptions[t] }

// Valid reports whether t is one of the recognised tags.
func (t Tag) Valid() bool {
	_, ok := descriptions[t]
	return ok
}

// Detect returns the first recognised tag present in the annotation together
// with its parameter.
func Detect(annotation string) (Tag, string, bool) {
	if strings.TrimSpace(annotation) == "" {
		return "", "", false
	}
	for _, m := range priority {
		if m.match(annotation) {
			return m.tag, ValueOf(annotation, m.tag), true
		}
	}
	return "", "", false
}
