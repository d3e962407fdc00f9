package render

import (
	"github.com/goliatone/go-instanceselect/pkg/actiontag"
	"github.com/goliatone/go-instanceselect/pkg/resolve"
)

// Mode selects the control a directive renders.
type Mode string

const (
	// ModeSelect renders a plain select list.
	ModeSelect Mode = "select"
	// ModeAutocomplete renders the platform's autocomplete dropdown.
	ModeAutocomplete Mode = "autocomplete"
)

// Directive tells a renderer how to replace one tagged text field. It is
// derived from the project metadata and never written back to it.
type Directive struct {
	Field        string            `json:"field"`
	Tag          actiontag.Tag     `json:"tag"`
	Param        string            `json:"param,omitempty"`
	Mode         Mode              `json:"mode"`
	Options      resolve.OptionSet `json:"options"`
	CurrentValue string            `json:"currentValue,omitempty"`
	// Disabled is set when there is nothing to select.
	Disabled bool `json:"disabled,omitempty"`
}

// Page is everything rendered for one data entry or survey page.
type Page struct {
	RenderID   string      `json:"renderId,omitempty"`
	ProjectID  int         `json:"projectId"`
	Record     string      `json:"record"`
	Form       string      `json:"form"`
	EventID    int         `json:"eventId"`
	Instance   int         `json:"instance,omitempty"`
	Survey     bool        `json:"survey,omitempty"`
	Directives []Directive `json:"directives"`
	// ParentInstance is the "parent_instance" page parameter, set by links
	// from a parent form. Empty when absent.
	ParentInstance string `json:"parentInstance,omitempty"`
}

// Choice is one entry of the final control.
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Choices builds the entries of the control for a directive:
//
//   - nothing to select: a single disabled placeholder;
//   - otherwise a blank entry followed by the options, with the current value
//     selected, or the parent instance when the field is still empty;
//   - a current value missing from the options is kept as "<value>: DELETED",
//     a missing parent instance is offered as "<value>: NEW".
func (d Directive) Choices(parentInstance string, texts Texts) []Choice {
	texts = texts.withDefaults()
	if d.Options.Empty() {
		return []Choice{{Value: "", Label: texts.Empty}}
	}

	want := d.CurrentValue
	if want == "" {
		want = parentInstance
	}

	choices := make([]Choice, 0, d.Options.Len()+2)
	choices = append(choices, Choice{})
	matched := false
	for _, opt := range d.Options.Options() {
		selected := want != "" && opt.Value == want
		if selected {
			matched = true
		}
		choices = append(choices, Choice{Value: opt.Value, Label: opt.Label, Selected: selected})
	}
	if matched {
		return choices
	}

	switch {
	case d.CurrentValue != "":
		choices = append(choices, Choice{Value: d.CurrentValue, Label: d.CurrentValue + ": " + texts.Deleted, Selected: true})
	case parentInstance != "":
		choices = append(choices, Choice{Value: parentInstance, Label: parentInstance + ": " + texts.New, Selected: true})
	}
	return choices
}
