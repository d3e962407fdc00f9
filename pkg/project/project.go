package project

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Project is an immutable, indexed snapshot of a project's structure. It is
// built once per render (or cached by the host) and shared read-only by every
// resolver call.
type Project struct {
	id                   int
	title                string
	customRecordLabel    string
	secondaryUniqueField string
	doubleDataEntry      bool

	arms   []Arm
	events []Event
	forms  []Form

	armIndex    map[int]int
	eventIndex  map[int]int
	eventByName map[string]int
	formIndex   map[string]int
	fieldIndex  map[string]Field
}

// New validates the definition and builds the lookup indexes.
func New(def Definition) (*Project, error) {
	if len(def.Forms) == 0 {
		return nil, errors.New("project: at least one form is required")
	}
	if len(def.Arms) == 0 {
		return nil, errors.New("project: at least one arm is required")
	}
	if len(def.Events) == 0 {
		return nil, errors.New("project: at least one event is required")
	}

	p := &Project{
		id:                   def.ID,
		title:                strings.TrimSpace(def.Title),
		customRecordLabel:    strings.TrimSpace(def.CustomRecordLabel),
		secondaryUniqueField: strings.TrimSpace(def.SecondaryUniqueField),
		doubleDataEntry:      def.DoubleDataEntry,
		armIndex:             make(map[int]int, len(def.Arms)),
		eventIndex:           make(map[int]int, len(def.Events)),
		eventByName:          make(map[string]int, len(def.Events)),
		formIndex:            make(map[string]int, len(def.Forms)),
		fieldIndex:           make(map[string]Field),
	}

	for _, form := range def.Forms {
		name := strings.TrimSpace(form.Name)
		if name == "" {
			return nil, errors.New("project: form name is required")
		}
		if _, exists := p.formIndex[name]; exists {
			return nil, fmt.Errorf("project: duplicate form %q", name)
		}
		copied := Form{Name: name, Label: form.Label, Fields: make([]Field, 0, len(form.Fields))}
		for _, field := range form.Fields {
			field.Name = strings.TrimSpace(field.Name)
			if field.Name == "" {
				return nil, fmt.Errorf("project: form %q has a field without a name", name)
			}
			if _, exists := p.fieldIndex[field.Name]; exists {
				return nil, fmt.Errorf("project: duplicate field %q", field.Name)
			}
			field.Form = name
			p.fieldIndex[field.Name] = field
			copied.Fields = append(copied.Fields, field)
		}
		p.formIndex[name] = len(p.forms)
		p.forms = append(p.forms, copied)
	}
	if len(p.forms[0].Fields) == 0 {
		return nil, fmt.Errorf("project: form %q must declare the record id field", p.forms[0].Name)
	}

	for _, arm := range def.Arms {
		if arm.Num <= 0 {
			return nil, fmt.Errorf("project: invalid arm number %d", arm.Num)
		}
		if _, exists := p.armIndex[arm.Num]; exists {
			return nil, fmt.Errorf("project: duplicate arm %d", arm.Num)
		}
		p.armIndex[arm.Num] = len(p.arms)
		p.arms = append(p.arms, Arm{Num: arm.Num, Name: strings.TrimSpace(arm.Name)})
	}

	for _, event := range def.Events {
		if event.ID <= 0 {
			return nil, fmt.Errorf("project: invalid event id %d", event.ID)
		}
		event.UniqueName = strings.TrimSpace(event.UniqueName)
		if event.UniqueName == "" {
			return nil, fmt.Errorf("project: event %d has no unique name", event.ID)
		}
		if _, exists := p.eventIndex[event.ID]; exists {
			return nil, fmt.Errorf("project: duplicate event id %d", event.ID)
		}
		if _, exists := p.eventByName[event.UniqueName]; exists {
			return nil, fmt.Errorf("project: duplicate event name %q", event.UniqueName)
		}
		armPos, ok := p.armIndex[event.Arm]
		if !ok {
			return nil, fmt.Errorf("project: event %q references unknown arm %d", event.UniqueName, event.Arm)
		}
		if len(event.RepeatingForms) > 0 {
			forms := make(map[string]string, len(event.RepeatingForms))
			for form, label := range event.RepeatingForms {
				if _, ok := p.formIndex[form]; !ok {
					return nil, fmt.Errorf("project: event %q repeats unknown form %q", event.UniqueName, form)
				}
				forms[form] = label
			}
			event.RepeatingForms = forms
		}

		p.eventIndex[event.ID] = len(p.events)
		p.eventByName[event.UniqueName] = len(p.events)
		p.events = append(p.events, event)
		p.arms[armPos].Events = append(p.arms[armPos].Events, event.ID)
	}

	return p, nil
}

// MustNew panics when the definition is invalid. Useful for fixtures.
func MustNew(def Definition) *Project {
	p, err := New(def)
	if err != nil {
		panic(err)
	}
	return p
}

// ID returns the project identifier.
func (p *Project) ID() int { return p.id }

// Title returns the project title.
func (p *Project) Title() string { return p.title }

// CustomRecordLabel returns the custom record label template, if any.
func (p *Project) CustomRecordLabel() string { return p.customRecordLabel }

// SecondaryUniqueField returns the secondary unique field name, if any.
func (p *Project) SecondaryUniqueField() string { return p.secondaryUniqueField }

// DoubleDataEntry reports whether double data entry is enabled.
func (p *Project) DoubleDataEntry() bool { return p.doubleDataEntry }

// RecordIDField returns the primary key field: the first field of the first
// form.
func (p *Project) RecordIDField() string {
	return p.forms[0].Fields[0].Name
}

// Field returns the metadata of a field.
func (p *Project) Field(name string) (Field, bool) {
	field, ok := p.fieldIndex[name]
	return field, ok
}

// Form returns a form by name.
func (p *Project) Form(name string) (Form, bool) {
	idx, ok := p.formIndex[name]
	if !ok {
		return Form{}, false
	}
	return p.forms[idx], true
}

// Forms returns the forms in project order.
func (p *Project) Forms() []Form {
	return append([]Form(nil), p.forms...)
}

// FormFields returns the ordered fields of a form, or nil when the form is
// unknown.
func (p *Project) FormFields(form string) []Field {
	f, ok := p.Form(form)
	if !ok {
		return nil
	}
	return append([]Field(nil), f.Fields...)
}

// Arms returns the arms in project order.
func (p *Project) Arms() []Arm {
	out := make([]Arm, len(p.arms))
	for i, arm := range p.arms {
		arm.Events = append([]int(nil), arm.Events...)
		out[i] = arm
	}
	return out
}

// Arm returns an arm by number.
func (p *Project) Arm(num int) (Arm, bool) {
	idx, ok := p.armIndex[num]
	if !ok {
		return Arm{}, false
	}
	arm := p.arms[idx]
	arm.Events = append([]int(nil), arm.Events...)
	return arm, true
}

// ArmByToken resolves an arm from its textual number as written in an
// annotation. Tokens that are not exact arm numbers do not resolve.
func (p *Project) ArmByToken(token string) (Arm, bool) {
	num, err := strconv.Atoi(token)
	if err != nil || strconv.Itoa(num) != token {
		return Arm{}, false
	}
	return p.Arm(num)
}

// MultipleArms reports whether the project defines more than one arm.
func (p *Project) MultipleArms() bool {
	return len(p.arms) > 1
}

// ArmEntryEvent returns the chronologically first event of an arm.
func (p *Project) ArmEntryEvent(num int) (Event, bool) {
	idx, ok := p.armIndex[num]
	if !ok || len(p.arms[idx].Events) == 0 {
		return Event{}, false
	}
	return p.Event(p.arms[idx].Events[0])
}

// Events returns the events in project order.
func (p *Project) Events() []Event {
	return append([]Event(nil), p.events...)
}

// Event returns an event by id.
func (p *Project) Event(id int) (Event, bool) {
	idx, ok := p.eventIndex[id]
	if !ok {
		return Event{}, false
	}
	return p.events[idx], true
}

// EventByUniqueName resolves a unique event name.
func (p *Project) EventByUniqueName(name string) (Event, bool) {
	idx, ok := p.eventByName[strings.TrimSpace(name)]
	if !ok {
		return Event{}, false
	}
	return p.events[idx], true
}

// EventIDs returns every event id in project order.
func (p *Project) EventIDs() []int {
	ids := make([]int, len(p.events))
	for i, event := range p.events {
		ids[i] = event.ID
	}
	return ids
}

// EventDisplayName returns the event's display name, qualified with its arm
// when the project has more than one arm.
func (p *Project) EventDisplayName(id int) string {
	event, ok := p.Event(id)
	if !ok {
		return ""
	}
	if !p.MultipleArms() {
		return event.Name
	}
	arm, _ := p.Arm(event.Arm)
	return fmt.Sprintf("%s (Arm %d: %s)", event.Name, arm.Num, arm.Name)
}

// IsRepeatingEvent reports whether the whole event repeats.
func (p *Project) IsRepeatingEvent(id int) bool {
	event, ok := p.Event(id)
	return ok && event.Repeating
}

// IsRepeatingForm reports whether form repeats inside the event.
func (p *Project) IsRepeatingForm(eventID int, form string) bool {
	_, ok := p.RepeatingFormLabel(eventID, form)
	return ok
}

// RepeatingFormLabel returns the custom repeating form label of form in the
// event. The boolean is false when the form does not repeat there.
func (p *Project) RepeatingFormLabel(eventID int, form string) (string, bool) {
	event, ok := p.Event(eventID)
	if !ok || event.Repeating {
		return "", false
	}
	label, ok := event.RepeatingForms[form]
	return label, ok
}

// RepeatingFormEvents returns, in project order, the events in which form is
// configured as a repeating form.
func (p *Project) RepeatingFormEvents(form string) []Event {
	var out []Event
	for _, event := range p.events {
		if event.Repeating {
			continue
		}
		if _, ok := event.RepeatingForms[form]; ok {
			out = append(out, event)
		}
	}
	return out
}
