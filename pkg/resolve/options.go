package resolve

import (
	"encoding/json"
	"fmt"
)

// Option is one selectable choice.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionSet is an ordered set of options, unique by value. Insertion order is
// display order. The zero value is an empty, usable set.
type OptionSet struct {
	options []Option
	index   map[string]int
}

// NewOptionSet builds a set from options, dropping later duplicates.
func NewOptionSet(options ...Option) OptionSet {
	var set OptionSet
	for _, opt := range options {
		set.Add(opt.Value, opt.Label)
	}
	return set
}

// Add appends an option. It reports false, leaving the set unchanged, when
// the value is already present.
func (s *OptionSet) Add(value, label string) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, exists := s.index[value]; exists {
		return false
	}
	s.index[value] = len(s.options)
	s.options = append(s.options, Option{Value: value, Label: label})
	return true
}

// Len returns the number of options.
func (s OptionSet) Len() int { return len(s.options) }

// Empty reports whether the set holds no options.
func (s OptionSet) Empty() bool { return len(s.options) == 0 }

// Has reports whether value is one of the options.
func (s OptionSet) Has(value string) bool {
	_, ok := s.index[value]
	return ok
}

// Label returns the label for value.
func (s OptionSet) Label(value string) (string, bool) {
	idx, ok := s.index[value]
	if !ok {
		return "", false
	}
	return s.options[idx].Label, true
}

// Options returns a copy of the options in display order.
func (s OptionSet) Options() []Option {
	return append([]Option(nil), s.options...)
}

// Values returns the option values in display order.
func (s OptionSet) Values() []string {
	out := make([]string, len(s.options))
	for i, opt := range s.options {
		out[i] = opt.Value
	}
	return out
}

// MarshalJSON encodes the set as an array so order survives the round trip.
func (s OptionSet) MarshalJSON() ([]byte, error) {
	if s.options == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.options)
}

// UnmarshalJSON decodes an array of options. Duplicate values are rejected.
func (s *OptionSet) UnmarshalJSON(data []byte) error {
	var options []Option
	if err := json.Unmarshal(data, &options); err != nil {
		return err
	}
	*s = OptionSet{}
	for _, opt := range options {
		if !s.Add(opt.Value, opt.Label) {
			return fmt.Errorf("resolve: duplicate option value %q", opt.Value)
		}
	}
	return nil
}
