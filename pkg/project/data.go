package project

import (
	"context"
	"sort"

	"github.com/goliatone/go-instanceselect/internal/recordid"
)

// Value is one stored data point. Instance is 0 for non-repeating data and
// 1..n for repeating form or repeating event instances.
type Value struct {
	Record   string `json:"record" yaml:"record"`
	EventID  int    `json:"eventId" yaml:"event_id"`
	Form     string `json:"form,omitempty" yaml:"form,omitempty"`
	Instance int    `json:"instance,omitempty" yaml:"instance,omitempty"`
	Field    string `json:"field" yaml:"field"`
	Value    string `json:"value" yaml:"value"`
}

// Key identifies the storage slot a Value occupies.
type Key struct {
	Record   string
	EventID  int
	Instance int
	Field    string
}

// Key returns the storage slot of the value.
func (v Value) Key() Key {
	return Key{Record: v.Record, EventID: v.EventID, Instance: v.Instance, Field: v.Field}
}

// Query selects stored values. Empty slices match everything. GroupID
// restricts the result to records assigned to that data access group.
type Query struct {
	Records []string
	Events  []int
	Fields  []string
	GroupID string
}

// Reader reads record data in bulk.
type Reader interface {
	Read(ctx context.Context, query Query) ([]Value, error)
}

// Writer upserts record data in bulk. Implementations apply a single call
// atomically.
type Writer interface {
	Write(ctx context.Context, values []Value) error
}

// Store combines read and write access to record data.
type Store interface {
	Reader
	Writer
}

// Dataset indexes the values returned by a Reader while keeping the order in
// which the store enumerated them.
type Dataset struct {
	values  []Value
	index   map[Key]string
	records []string
}

// NewDataset indexes values. Later duplicates of the same slot win.
func NewDataset(values []Value) *Dataset {
	ds := &Dataset{
		values: append([]Value(nil), values...),
		index:  make(map[Key]string, len(values)),
	}
	seen := make(map[string]struct{})
	for _, value := range values {
		ds.index[value.Key()] = value.Value
		if _, ok := seen[value.Record]; !ok {
			seen[value.Record] = struct{}{}
			ds.records = append(ds.records, value.Record)
		}
	}
	return ds
}

// Values returns the raw values in store order.
func (d *Dataset) Values() []Value {
	if d == nil {
		return nil
	}
	return append([]Value(nil), d.values...)
}

// Records returns the distinct record ids in store order.
func (d *Dataset) Records() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.records...)
}

// Get returns the value stored in a slot.
func (d *Dataset) Get(record string, eventID, instance int, field string) (string, bool) {
	if d == nil {
		return "", false
	}
	value, ok := d.index[Key{Record: record, EventID: eventID, Instance: instance, Field: field}]
	return value, ok
}

// Instances returns the instance numbers holding data for the record in the
// event, in store order. A non-empty form restricts the scan to that form's
// values; an empty form accepts any form, which is how repeating event
// instances are enumerated.
func (d *Dataset) Instances(record string, eventID int, form string) []int {
	if d == nil {
		return nil
	}
	var out []int
	seen := make(map[int]struct{})
	for _, value := range d.values {
		if value.Record != record || value.EventID != eventID || value.Instance <= 0 {
			continue
		}
		if form != "" && value.Form != form {
			continue
		}
		if _, ok := seen[value.Instance]; ok {
			continue
		}
		seen[value.Instance] = struct{}{}
		out = append(out, value.Instance)
	}
	return out
}

// SortValues orders values by record (integer ids numerically first), event
// id, instance and field. Stores use it so enumeration is deterministic.
func SortValues(values []Value) {
	sort.SliceStable(values, func(i, j int) bool {
		a, b := values[i], values[j]
		if c := recordid.Compare(a.Record, b.Record); c != 0 {
			return c < 0
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.Instance != b.Instance {
			return a.Instance < b.Instance
		}
		return a.Field < b.Field
	})
}
