// Package memory provides an in-memory project.Store used by tests, examples
// and the CLI when record data comes from a fixture file.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-instanceselect/pkg/project"
)

// Option configures the store.
type Option func(*Store)

// WithValues seeds the store.
func WithValues(values ...project.Value) Option {
	return func(s *Store) {
		s.upsert(values)
	}
}

// WithGroups seeds record → data access group assignments.
func WithGroups(groups map[string]string) Option {
	return func(s *Store) {
		for record, group := range groups {
			s.groups[record] = group
		}
	}
}

// Store keeps values keyed by slot. Reads return values ordered by record
// (natural order), event id, instance and field so enumeration is
// deterministic.
type Store struct {
	mu     sync.RWMutex
	slots  map[project.Key]project.Value
	groups map[string]string
	writes [][]project.Value
}

var _ project.Store = (*Store)(nil)

// New constructs a store applying any provided options.
func New(options ...Option) *Store {
	s := &Store{
		slots:  make(map[project.Key]project.Value),
		groups: make(map[string]string),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// AssignGroup places a record in a data access group. An empty group removes
// the assignment.
func (s *Store) AssignGroup(record, group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if group == "" {
		delete(s.groups, record)
		return
	}
	s.groups[record] = group
}

// Read implements project.Reader.
func (s *Store) Read(ctx context.Context, query project.Query) ([]project.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := toSet(query.Records)
	fields := toSet(query.Fields)
	events := make(map[int]struct{}, len(query.Events))
	for _, id := range query.Events {
		events[id] = struct{}{}
	}

	s.mu.RLock()
	out := make([]project.Value, 0, len(s.slots))
	for _, value := range s.slots {
		if len(records) > 0 && !has(records, value.Record) {
			continue
		}
		if len(fields) > 0 && !has(fields, value.Field) {
			continue
		}
		if len(events) > 0 {
			if _, ok := events[value.EventID]; !ok {
				continue
			}
		}
		if query.GroupID != "" && s.groups[value.Record] != query.GroupID {
			continue
		}
		out = append(out, value)
	}
	s.mu.RUnlock()

	project.SortValues(out)
	return out, nil
}

// Write implements project.Writer. The whole batch is applied under one lock.
func (s *Store) Write(ctx context.Context, values []project.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, value := range values {
		if value.Record == "" || value.Field == "" {
			return errors.New("memory: record and field are required")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(values)
	s.writes = append(s.writes, append([]project.Value(nil), values...))
	return nil
}

// Writes returns a copy of every batch passed to Write, oldest first.
func (s *Store) Writes() [][]project.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]project.Value, len(s.writes))
	for i, batch := range s.writes {
		out[i] = append([]project.Value(nil), batch...)
	}
	return out
}

func (s *Store) upsert(values []project.Value) {
	for _, value := range values {
		s.slots[value.Key()] = value
	}
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
