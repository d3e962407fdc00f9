package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-instanceselect/pkg/render"
)

// Renderer implements render.Renderer for terminal sessions. Every directive
// becomes a select prompt offering the same entries the browser control would
// show; the chosen values are returned serialized.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	pageSize     int
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		pageSize:     10,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver()
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for each directive in page order. Disabled directives are
// reported with an info line and keep their current value.
func (r *Renderer) Render(ctx context.Context, page render.Page, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	texts := render.ResolveTexts(opts)
	values := make(map[string]string, len(page.Directives))
	for _, d := range page.Directives {
		value, err := r.promptDirective(ctx, d, page.ParentInstance, texts)
		if err != nil {
			return nil, fmt.Errorf("tui: field %q: %w", d.Field, err)
		}
		values[d.Field] = value
	}
	return r.serialize(values)
}

func (r *Renderer) promptDirective(ctx context.Context, d render.Directive, parent string, texts render.Texts) (string, error) {
	choices := d.Choices(parent, texts)
	if d.Disabled || d.Options.Empty() {
		msg := fmt.Sprintf("%s%s: %s", r.theme.InfoPrefix, d.Field, texts.Empty)
		if err := r.driver.Info(ctx, msg); err != nil {
			return "", err
		}
		return d.CurrentValue, nil
	}

	value, err := r.driver.Choose(ctx, ChoiceConfig{
		Field:    d.Field,
		Message:  r.theme.PromptPrefix + d.Field,
		Choices:  choices,
		Help:     d.Tag.Description(),
		PageSize: r.pageSize,
		Filter:   d.Mode == render.ModeAutocomplete,
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *Renderer) serialize(values map[string]string) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		form := url.Values{}
		for field, value := range values {
			form.Set(field, value)
		}
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func prettyPrint(values map[string]string) string {
	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for _, field := range fields {
		fmt.Fprintf(&b, "%s=%s\n", field, values[field])
	}
	return b.String()
}
