package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/goliatone/go-instanceselect/pkg/render"
	rendertemplate "github.com/goliatone/go-instanceselect/pkg/render/template"
	"github.com/goliatone/go-instanceselect/pkg/render/template/gotemplate"
)

// AutocompleteClass is the class the platform's dropdown enhancer looks for.
const AutocompleteClass = "rc-autocomplete"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The bundle
// must provide PageTemplate.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// Renderer produces the browser script replacing tagged text inputs with
// select lists.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithName("vanilla"),
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// fieldPayload is the template view of a directive. Keys are the names
// custom templates use, so they must stay lowercase.
func fieldPayload(d render.Directive, page render.Page, texts render.Texts) map[string]any {
	choices := d.Choices(page.ParentInstance, texts)
	views := make([]map[string]any, 0, len(choices))
	for _, choice := range choices {
		views = append(views, map[string]any{
			"value":    choice.Value,
			"label":    choice.Label,
			"selected": choice.Selected,
		})
	}
	return map[string]any{
		"name":     d.Field,
		"mode":     string(d.Mode),
		"disabled": d.Disabled || d.Options.Empty(),
		"choices":  views,
	}
}

// Render writes nothing for a page without directives.
func (r *Renderer) Render(ctx context.Context, page render.Page, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if len(page.Directives) == 0 {
		return nil, nil
	}

	texts := render.ResolveTexts(options)
	fields := make([]map[string]any, 0, len(page.Directives))
	for _, d := range page.Directives {
		fields = append(fields, fieldPayload(d, page, texts))
	}

	result, err := r.templates.RenderTemplate(PageTemplate, map[string]any{
		"render_id":          page.RenderID,
		"fields":             fields,
		"autocomplete_mode":  string(render.ModeAutocomplete),
		"autocomplete_class": AutocompleteClass,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}
