package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-instanceselect/pkg/actiontag"
	"github.com/goliatone/go-instanceselect/pkg/migrate"
	"github.com/goliatone/go-instanceselect/pkg/project"
	"github.com/goliatone/go-instanceselect/pkg/render"
	"github.com/goliatone/go-instanceselect/pkg/renderers/vanilla"
	"github.com/goliatone/go-instanceselect/pkg/resolve"
)

const defaultRendererName = "vanilla"

var (
	// ErrInvalidRequest reports missing or malformed request parameters.
	ErrInvalidRequest = errors.New("orchestrator: invalid request")
	// ErrProjectNotFound reports a project the provider does not serve.
	ErrProjectNotFound = errors.New("orchestrator: project not found")
	// ErrFormNotFound reports a form missing from the project.
	ErrFormNotFound = errors.New("orchestrator: form not found")
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithStore sets the record data store. Required.
func WithStore(store project.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithProject serves a single project.
func WithProject(p *project.Project) Option {
	return func(o *Orchestrator) {
		o.projects = StaticProject(p)
	}
}

// WithProjectProvider injects a provider for hosts serving several projects.
func WithProjectProvider(provider ProjectProvider) Option {
	return func(o *Orchestrator) {
		o.projects = provider
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithVanillaOptions configures the built-in vanilla renderer. It has no
// effect when WithRegistry supplies the renderers.
func WithVanillaOptions(options ...vanilla.Option) Option {
	return func(o *Orchestrator) {
		o.vanillaOptions = append(o.vanillaOptions, options...)
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithLogger attaches a logger. Every page render logs with its render id.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSeparators overrides the composite value separators.
func WithSeparators(seps resolve.Separators) Option {
	return func(o *Orchestrator) {
		o.seps = seps
	}
}

// WithMigration switches the legacy value migration on page load.
func WithMigration(enabled bool) Option {
	return func(o *Orchestrator) {
		o.migrate = enabled
	}
}

// WithAutocomplete renders every tagged field in autocomplete mode, not only
// those carrying the autocomplete tag.
func WithAutocomplete(enabled bool) Option {
	return func(o *Orchestrator) {
		o.autocomplete = enabled
	}
}

// WithRenderOptions sets the options passed to renderers.
func WithRenderOptions(opts render.RenderOptions) Option {
	return func(o *Orchestrator) {
		o.renderOptions = opts
	}
}

// WithTransformer registers a Transformer run on every page before
// rendering.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithRenderIDs overrides the render id generator (uuid by default).
func WithRenderIDs(next func() string) Option {
	return func(o *Orchestrator) {
		if next != nil {
			o.newID = next
		}
	}
}

// Orchestrator is the page-render hook: it scans the form for tagged fields,
// resolves their options once per distinct tag and parameter, repairs legacy
// values, reads the current values and renders the directives.
type Orchestrator struct {
	store           project.Store
	projects        ProjectProvider
	registry        *render.Registry
	defaultRenderer string
	logger          *zap.Logger
	seps            resolve.Separators
	migrate         bool
	autocomplete    bool
	renderOptions   render.RenderOptions
	transformer     Transformer
	newID           func() string
	vanillaOptions  []vanilla.Option

	resolver      *resolve.Resolver
	migrator      *migrate.Migrator
	initialiseErr error
}

// New constructs an Orchestrator applying any provided options. Missing
// collaborators fall back to the built-in ones (vanilla renderer, uuid render
// ids, no-op logger). Configuration errors surface on the first call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zap.NewNop(),
		seps:            resolve.DefaultSeparators(),
		migrate:         true,
		newID:           uuid.NewString,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request carries the hook parameters of one data entry or survey page view.
type Request struct {
	ProjectID int
	Record    string
	Form      string
	EventID   int
	// GroupID is the data access group of the current user. Record lookups
	// only list records of that group when set.
	GroupID  string
	Instance int
	Survey   bool
	// ParentInstance is the "parent_instance" query parameter of the page.
	ParentInstance string
	// Renderer names the renderer to use. If empty, the orchestrator falls
	// back to the configured default renderer.
	Renderer string
}

// Generate runs the page hook and returns the rendered output. Pages without
// tagged fields render whatever the renderer emits for an empty page (nothing
// for the vanilla renderer).
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	page, err := o.Page(ctx, req)
	if err != nil {
		return nil, err
	}

	renderer, err := o.Renderer(req.Renderer)
	if err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, page, o.renderOptions)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Page computes the directives of a page without rendering them.
func (o *Orchestrator) Page(ctx context.Context, req Request) (render.Page, error) {
	return o.page(ctx, req, true)
}

// Resolve computes the directives of a page like Page but never migrates
// stored values, so current values may still carry the legacy separator.
// Option lookups that run on every keystroke use it.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) (render.Page, error) {
	return o.page(ctx, req, false)
}

func (o *Orchestrator) page(ctx context.Context, req Request, migrateLegacy bool) (render.Page, error) {
	if ctx == nil {
		return render.Page{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return render.Page{}, err
	}
	if err := o.initialiseErr; err != nil {
		return render.Page{}, err
	}
	if err := req.validate(); err != nil {
		return render.Page{}, err
	}

	p, err := o.projects.Project(ctx, req.ProjectID)
	if err != nil {
		return render.Page{}, fmt.Errorf("orchestrator: load project: %w", err)
	}
	fields := p.FormFields(req.Form)
	if fields == nil {
		return render.Page{}, fmt.Errorf("%w: %q", ErrFormNotFound, req.Form)
	}

	page := render.Page{
		RenderID:       o.newID(),
		ProjectID:      p.ID(),
		Record:         req.Record,
		Form:           req.Form,
		EventID:        req.EventID,
		Instance:       req.Instance,
		Survey:         req.Survey,
		ParentInstance: strings.TrimSpace(req.ParentInstance),
	}
	logger := o.logger.With(
		zap.String("render_id", page.RenderID),
		zap.Int("project_id", page.ProjectID),
		zap.String("record", req.Record),
		zap.String("form", req.Form),
		zap.Int("event_id", req.EventID),
	)

	tagged := actiontag.Scan(fields)
	if len(tagged) == 0 {
		logger.Debug("no tagged fields")
		return page, nil
	}

	rc := resolve.Context{
		Project:  p,
		Record:   req.Record,
		EventID:  req.EventID,
		Form:     req.Form,
		Instance: req.Instance,
		GroupID:  req.GroupID,
		Survey:   req.Survey,
	}
	memo := o.resolver.NewMemo()

	type resolvedField struct {
		tagged actiontag.Tagged
		result resolve.Result
	}
	var (
		resolved  []resolvedField
		composite []string
	)
	for _, t := range tagged {
		result, err := memo.Resolve(ctx, rc, t.Tag, t.Param)
		if errors.Is(err, resolve.ErrUnresolvable) {
			logger.Debug("field left as text input",
				zap.String("field", t.Field.Name),
				zap.String("tag", t.Tag.String()),
				zap.String("param", t.Param),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return render.Page{}, fmt.Errorf("orchestrator: resolve %s on %q: %w", t.Tag, t.Field.Name, err)
		}
		resolved = append(resolved, resolvedField{tagged: t, result: result})
		if result.Composite {
			composite = append(composite, t.Field.Name)
		}
	}

	if migrateLegacy && len(composite) > 0 && o.migrator.Enabled() {
		report, err := o.migrator.Migrate(ctx, composite)
		if err != nil {
			return render.Page{}, fmt.Errorf("orchestrator: %w", err)
		}
		if report.Changed() {
			logger.Info("legacy values rewritten",
				zap.Int("rewritten", report.Rewritten),
				zap.Strings("records", report.Records),
			)
		}
	}

	names := make([]string, len(resolved))
	for i, field := range resolved {
		names[i] = field.tagged.Field.Name
	}
	current, err := o.currentValues(ctx, p, req, names)
	if err != nil {
		return render.Page{}, err
	}

	page.Directives = make([]render.Directive, 0, len(resolved))
	for _, field := range resolved {
		mode := render.ModeSelect
		if field.tagged.Autocomplete || o.autocomplete {
			mode = render.ModeAutocomplete
		}
		page.Directives = append(page.Directives, render.Directive{
			Field:        field.tagged.Field.Name,
			Tag:          field.tagged.Tag,
			Param:        field.tagged.Param,
			Mode:         mode,
			Options:      field.result.Options,
			CurrentValue: current[field.tagged.Field.Name],
			Disabled:     field.result.Options.Empty(),
		})
	}

	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &page); err != nil {
			return render.Page{}, fmt.Errorf("orchestrator: transform page: %w", err)
		}
	}

	logger.Debug("page resolved",
		zap.Int("tagged", len(tagged)),
		zap.Int("directives", len(page.Directives)),
		zap.Int("resolutions", memo.Resolutions()),
	)
	return page, nil
}

// currentValues reads the stored values of fields at the page's record,
// event and instance.
func (o *Orchestrator) currentValues(ctx context.Context, p *project.Project, req Request, fields []string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	if len(fields) == 0 || req.Record == "" {
		return out, nil
	}

	values, err := o.store.Read(ctx, project.Query{
		Records: []string{req.Record},
		Events:  []int{req.EventID},
		Fields:  fields,
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read current values: %w", err)
	}
	data := project.NewDataset(values)

	instance := 0
	if p.IsRepeatingForm(req.EventID, req.Form) || p.IsRepeatingEvent(req.EventID) {
		instance = req.Instance
		if instance <= 0 {
			instance = 1
		}
	}
	for _, field := range fields {
		if value, ok := data.Get(req.Record, req.EventID, instance, field); ok {
			out[field] = value
		}
	}
	return out, nil
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Form) == "" {
		return fmt.Errorf("%w: form is required", ErrInvalidRequest)
	}
	if r.EventID <= 0 {
		return fmt.Errorf("%w: event id is required", ErrInvalidRequest)
	}
	if r.Instance < 0 {
		return fmt.Errorf("%w: instance %d", ErrInvalidRequest, r.Instance)
	}
	return nil
}

// Renderer returns the named renderer. An empty name selects the default
// renderer, falling back to the first registered one.
func (o *Orchestrator) Renderer(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}
	renderer, err := o.registry.Resolve(name, o.defaultRenderer)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

// Renderers lists the registered renderer names.
func (o *Orchestrator) Renderers() []string {
	if o.registry == nil {
		return nil
	}
	return o.registry.List()
}

func (o *Orchestrator) applyDefaults() {
	if o.store == nil {
		o.initialiseErr = errors.New("orchestrator: store is required")
		return
	}
	if o.projects == nil {
		o.initialiseErr = errors.New("orchestrator: project is required")
		return
	}
	if o.registry == nil {
		renderer, err := vanilla.New(o.vanillaOptions...)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		registry, err := render.NewRegistry(renderer)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default registry: %w", err)
			return
		}
		o.registry = registry
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}

	resolver, err := resolve.New(o.store,
		resolve.WithLogger(o.logger.Named("resolve")),
		resolve.WithSeparators(o.seps),
	)
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: resolver: %w", err)
		return
	}
	o.resolver = resolver

	migrator, err := migrate.New(o.store,
		migrate.WithLogger(o.logger.Named("migrate")),
		migrate.WithSeparators(resolver.Separators()),
		migrate.WithEnabled(o.migrate),
	)
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: migrator: %w", err)
		return
	}
	o.migrator = migrator
}
