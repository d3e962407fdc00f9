package project

// ElementTypeText identifies plain text inputs, the only element type action
// tags are honoured on.
const ElementTypeText = "text"

// CompleteFieldSuffix is appended to a form name to build the form status
// field the platform saves with every form instance.
const CompleteFieldSuffix = "_complete"

// Field describes a single data-entry field and its annotation.
type Field struct {
	Name           string `json:"name" yaml:"name"`
	Form           string `json:"form,omitempty" yaml:"form,omitempty"`
	Label          string `json:"label,omitempty" yaml:"label,omitempty"`
	ElementType    string `json:"elementType" yaml:"element_type"`
	ValidationType string `json:"validationType,omitempty" yaml:"validation_type,omitempty"`
	Annotation     string `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}

// Form is an instrument with its ordered field list.
type Form struct {
	Name   string  `json:"name" yaml:"name"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Arm is a branch of the event schedule. Events holds the arm's event ids in
// chronological order; the first one is the arm entry event.
type Arm struct {
	Num    int    `json:"num" yaml:"num"`
	Name   string `json:"name" yaml:"name"`
	Events []int  `json:"-" yaml:"-"`
}

// Event is a scheduled event. RepeatingForms maps the forms that repeat inside
// this event to their custom repeating form label (possibly empty). Repeating
// marks the whole event as repeating, in which case CustomLabel is the custom
// repeating event label.
type Event struct {
	ID             int               `json:"id" yaml:"id"`
	UniqueName     string            `json:"uniqueName" yaml:"unique_name"`
	Name           string            `json:"name" yaml:"name"`
	Arm            int               `json:"arm" yaml:"arm"`
	Repeating      bool              `json:"repeating,omitempty" yaml:"repeating,omitempty"`
	CustomLabel    string            `json:"customLabel,omitempty" yaml:"custom_label,omitempty"`
	RepeatingForms map[string]string `json:"repeatingForms,omitempty" yaml:"repeating_forms,omitempty"`
}

// Definition is the serialisable project description consumed by New and the
// loaders.
type Definition struct {
	ID                   int     `json:"id" yaml:"id"`
	Title                string  `json:"title,omitempty" yaml:"title,omitempty"`
	CustomRecordLabel    string  `json:"customRecordLabel,omitempty" yaml:"custom_record_label,omitempty"`
	SecondaryUniqueField string  `json:"secondaryUniqueField,omitempty" yaml:"secondary_unique_field,omitempty"`
	DoubleDataEntry      bool    `json:"doubleDataEntry,omitempty" yaml:"double_data_entry,omitempty"`
	Arms                 []Arm   `json:"arms" yaml:"arms"`
	Events               []Event `json:"events" yaml:"events"`
	Forms                []Form  `json:"forms" yaml:"forms"`
}
