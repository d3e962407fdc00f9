package piping

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-instanceselect/pkg/project"
	"github.com/goliatone/go-instanceselect/pkg/render/template"
	"github.com/goliatone/go-instanceselect/pkg/render/template/gotemplate"
)

// Scope identifies the record, event and instance a label is piped against.
// Instance is 0 outside repeating contexts.
type Scope struct {
	Record   string
	EventID  int
	Instance int
}

// Piper substitutes field references in a label with stored values.
type Piper interface {
	Pipe(ctx context.Context, label string, scope Scope, data *project.Dataset) (string, error)
	// Fields lists the field names a label references so callers can read
	// exactly the data needed to pipe it.
	Fields(label string) []string
}

var referencePattern = regexp.MustCompile(`\[([A-Za-z0-9_]+)\]`)

// Option configures the Engine.
type Option func(*Engine)

// WithTemplateRenderer swaps the template implementation used to execute
// compiled labels. Compiled labels use pongo2 syntax and the piping_date
// filter.
func WithTemplateRenderer(renderer template.TemplateRenderer) Option {
	return func(e *Engine) {
		if renderer != nil {
			e.templates = renderer
		}
	}
}

// Engine pipes "[field]" and "[event_name][field]" references. A label is
// compiled once into a template where every literal run and every reference
// is bound as a context value, so label text is never parsed as template
// syntax. Values of D-M-Y and M-D-Y date fields are reordered from their
// stored Y-M-D form by a filter. References to unknown fields stay as written.
// Missing values pipe as empty strings.
type Engine struct {
	project   *project.Project
	templates template.TemplateRenderer

	mu       sync.RWMutex
	compiled map[string]compiledLabel
}

var _ Piper = (*Engine)(nil)

// New builds an engine for the project.
func New(p *project.Project, options ...Option) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("piping: project is required")
	}
	registerFilters()
	e := &Engine{
		project:  p,
		compiled: make(map[string]compiledLabel),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.templates == nil {
		engine, err := gotemplate.New(gotemplate.WithName("piping"))
		if err != nil {
			return nil, fmt.Errorf("piping: configure template renderer: %w", err)
		}
		e.templates = engine
	}
	return e, nil
}

// Pipe implements Piper. The result keeps any markup present in the label or
// the values; use PlainText to strip it.
func (e *Engine) Pipe(ctx context.Context, label string, scope Scope, data *project.Dataset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(label) == "" {
		return "", nil
	}

	compiled := e.compile(label)
	if len(compiled.refs) == 0 {
		return label, nil
	}

	values := make(map[string]string, len(compiled.literals)+len(compiled.refs))
	for key, literal := range compiled.literals {
		values[key] = literal
	}
	for key, ref := range compiled.refs {
		values[key] = e.lookup(ref, scope, data)
	}

	out, err := e.templates.RenderString(compiled.source, values)
	if err != nil {
		return "", fmt.Errorf("piping: render label: %w", err)
	}
	return out, nil
}

// Fields returns the distinct field names referenced by label, in order of
// first appearance. Event qualifiers are not reported.
func (e *Engine) Fields(label string) []string {
	compiled := e.compile(label)
	return append([]string(nil), compiled.fields...)
}

type reference struct {
	eventID int
	field   string
}

type compiledLabel struct {
	source   string
	literals map[string]string
	refs     map[string]reference
	fields   []string
}

func (e *Engine) compile(label string) compiledLabel {
	e.mu.RLock()
	compiled, ok := e.compiled[label]
	e.mu.RUnlock()
	if ok {
		return compiled
	}

	compiled = compiledLabel{
		literals: make(map[string]string),
		refs:     make(map[string]reference),
	}
	var source strings.Builder
	seenFields := make(map[string]struct{})
	literal := strings.Builder{}
	slot := 0

	flushLiteral := func() {
		if literal.Len() == 0 {
			return
		}
		key := "l" + strconv.Itoa(slot)
		slot++
		compiled.literals[key] = literal.String()
		source.WriteString("{{ " + key + "|safe }}")
		literal.Reset()
	}

	matches := referencePattern.FindAllStringSubmatchIndex(label, -1)
	pos := 0
	for i := 0; i < len(matches); i++ {
		m := matches[i]
		name := label[m[2]:m[3]]
		ref := reference{field: name}
		end := m[1]

		if event, isEvent := e.project.EventByUniqueName(name); isEvent && i+1 < len(matches) && matches[i+1][0] == m[1] {
			next := matches[i+1]
			fieldName := label[next[2]:next[3]]
			if _, isField := e.project.Field(fieldName); isField {
				ref = reference{eventID: event.ID, field: fieldName}
				end = next[1]
				i++
			}
		}

		if _, isField := e.project.Field(ref.field); !isField {
			continue
		}

		literal.WriteString(label[pos:m[0]])
		flushLiteral()

		key := "v" + strconv.Itoa(slot)
		slot++
		compiled.refs[key] = ref
		expr := key
		if field, _ := e.project.Field(ref.field); dateOrder(field.ValidationType) != "" {
			expr += `|` + dateFilter + `:"` + dateOrder(field.ValidationType) + `"`
		}
		source.WriteString("{{ " + expr + "|safe }}")
		if _, seen := seenFields[ref.field]; !seen {
			seenFields[ref.field] = struct{}{}
			compiled.fields = append(compiled.fields, ref.field)
		}
		pos = end
	}
	literal.WriteString(label[pos:])
	flushLiteral()
	compiled.source = source.String()

	e.mu.Lock()
	e.compiled[label] = compiled
	e.mu.Unlock()
	return compiled
}

// lookup reads a referenced value. Fields on a repeating form or in a
// repeating event read the scope's instance (instance 1 for another event);
// everything falls back to the non-repeating slot.
func (e *Engine) lookup(ref reference, scope Scope, data *project.Dataset) string {
	eventID := ref.eventID
	if eventID == 0 {
		eventID = scope.EventID
	}

	if instance := e.instanceFor(ref, eventID, scope); instance > 0 {
		if value, ok := data.Get(scope.Record, eventID, instance, ref.field); ok {
			return value
		}
	}
	value, _ := data.Get(scope.Record, eventID, 0, ref.field)
	return value
}

func (e *Engine) instanceFor(ref reference, eventID int, scope Scope) int {
	field, ok := e.project.Field(ref.field)
	if !ok {
		return 0
	}
	if !e.project.IsRepeatingEvent(eventID) && !e.project.IsRepeatingForm(eventID, field.Form) {
		return 0
	}
	if eventID == scope.EventID && scope.Instance > 0 {
		return scope.Instance
	}
	return 1
}
