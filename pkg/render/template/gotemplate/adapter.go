package gotemplate

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-instanceselect/pkg/render/template"
)

// DefaultStringCacheSize bounds the number of compiled template strings an
// Engine keeps.
const DefaultStringCacheSize = 256

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	name      string
	templates fs.FS
	extension string
	cacheSize int
	filters   map[string]pongo2.FilterFunction
}

var noTemplates embed.FS

// WithName names the underlying template set; pongo2 prints it in errors.
func WithName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithFS loads named templates from files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension sets the extension appended to template names that lack it.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		cfg.extension = "." + strings.TrimPrefix(ext, ".")
	}
}

// WithStringCacheSize bounds the compiled string cache. Zero or less turns
// caching off.
func WithStringCacheSize(size int) Option {
	return func(cfg *config) {
		cfg.cacheSize = size
	}
}

// WithFilter registers a pongo2 filter when the engine is built. Filters are
// process wide; a name that already exists is left alone.
func WithFilter(name string, fn pongo2.FilterFunction) Option {
	return func(cfg *config) {
		name = strings.TrimSpace(name)
		if name == "" || fn == nil {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]pongo2.FilterFunction)
		}
		cfg.filters[name] = fn
	}
}

// Engine executes pongo2 templates. Named templates come from the configured
// fs.FS. Template strings are compiled once and kept in a bounded cache:
// piped labels repeat the same source for every instance they describe.
type Engine struct {
	set       *pongo2.TemplateSet
	extension string
	cacheSize int

	mu      sync.Mutex
	named   map[string]*pongo2.Template
	strings map[string]*pongo2.Template
	order   []string
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine. Without WithFS it only renders template strings.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		name:      "instanceselect",
		extension: ".tmpl",
		cacheSize: DefaultStringCacheSize,
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	files := cfg.templates
	if files == nil {
		files = noTemplates
	}

	registerDefaultFilters()
	for name, fn := range cfg.filters {
		if pongo2.FilterExists(name) {
			continue
		}
		if err := pongo2.RegisterFilter(name, fn); err != nil {
			return nil, fmt.Errorf("gotemplate: register filter %q: %w", name, err)
		}
	}

	return &Engine{
		set:       pongo2.NewSet(cfg.name, pongo2.NewFSLoader(files)),
		extension: cfg.extension,
		cacheSize: cfg.cacheSize,
		named:     make(map[string]*pongo2.Template),
		strings:   make(map[string]*pongo2.Template),
	}, nil
}

// RenderTemplate executes a named template, appending the configured
// extension when name lacks it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("gotemplate: engine is nil")
	}
	if !strings.HasSuffix(name, e.extension) {
		name += e.extension
	}

	e.mu.Lock()
	tmpl, ok := e.named[name]
	e.mu.Unlock()
	if !ok {
		var err error
		tmpl, err = e.set.FromFile(name)
		if err != nil {
			return "", fmt.Errorf("gotemplate: load template %q: %w", name, err)
		}
		e.mu.Lock()
		e.named[name] = tmpl
		e.mu.Unlock()
	}

	rendered, err := execute(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute template %q: %w", name, err)
	}
	return rendered, writeAll(rendered, out)
}

// RenderString compiles source, or reuses its cached compilation, and
// executes it.
func (e *Engine) RenderString(source string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("gotemplate: engine is nil")
	}

	tmpl, err := e.compileString(source)
	if err != nil {
		return "", err
	}
	rendered, err := execute(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute template string: %w", err)
	}
	return rendered, writeAll(rendered, out)
}

// RegisterFilter adds a filter after construction. Unlike WithFilter it
// reports a clash with an existing filter name.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// CachedStrings reports how many compiled template strings are held.
func (e *Engine) CachedStrings() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.strings)
}

func (e *Engine) compileString(source string) (*pongo2.Template, error) {
	e.mu.Lock()
	tmpl, ok := e.strings[source]
	e.mu.Unlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := e.set.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: parse template string: %w", err)
	}
	if e.cacheSize <= 0 {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.strings[source]; !ok {
		if len(e.order) >= e.cacheSize {
			delete(e.strings, e.order[0])
			e.order = e.order[1:]
		}
		e.order = append(e.order, source)
	}
	e.strings[source] = tmpl
	return tmpl, nil
}

func execute(tmpl *pongo2.Template, data any) (string, error) {
	ctx, err := contextOf(data)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// contextOf accepts the map shapes the renderers and the piping engine pass.
// Struct values inside the map are handed to pongo2 as is.
func contextOf(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	case map[string]any:
		return pongo2.Context(v), nil
	case map[string]string:
		out := make(pongo2.Context, len(v))
		for key, value := range v {
			out[key] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("gotemplate: unsupported template data %T", data)
	}
}

func writeAll(rendered string, out []io.Writer) error {
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return err
		}
	}
	return nil
}
