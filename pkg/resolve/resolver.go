package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-instanceselect/pkg/actiontag"
	"github.com/goliatone/go-instanceselect/pkg/piping"
	"github.com/goliatone/go-instanceselect/pkg/project"
)

// ErrUnresolvable marks a tag parameter that names nothing usable: an unknown
// form, a form that does not repeat in the named event, an unknown or
// non-repeating event. Fields whose lookup fails this way stay plain text
// inputs. It is distinct from an empty OptionSet.
var ErrUnresolvable = errors.New("resolve: unresolvable lookup")

// Context carries everything a resolver needs about the page being rendered.
// It is built once per render and never mutated.
type Context struct {
	Project  *project.Project
	Record   string
	EventID  int
	Form     string
	Instance int
	GroupID  string
	Survey   bool
}

// Result is the outcome of a successful resolution. Composite is set when the
// option values carry a qualifier joined by a separator: multi-arm record
// lookups and form lookups spanning several events.
type Result struct {
	Options   OptionSet
	Composite bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPiper replaces the label piping engine.
func WithPiper(piper piping.Piper) ResolverOption {
	return func(r *Resolver) {
		if piper != nil {
			r.piper = piper
		}
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSeparators overrides the composite value separators.
func WithSeparators(seps Separators) ResolverOption {
	return func(r *Resolver) {
		r.seps = seps.normalized()
	}
}

// Resolver computes option sets for the three lookup kinds against a data
// store.
type Resolver struct {
	store  project.Reader
	piper  piping.Piper
	logger *zap.Logger
	seps   Separators

	mu          sync.Mutex
	pipeProject *project.Project
	pipeEngine  piping.Piper
}

// New constructs a resolver reading from store.
func New(store project.Reader, options ...ResolverOption) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("resolve: store is required")
	}
	r := &Resolver{
		store:  store,
		logger: zap.NewNop(),
		seps:   DefaultSeparators(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r, nil
}

// Separators returns the separators used for composite values.
func (r *Resolver) Separators() Separators { return r.seps }

// ResolveTag parses param for tag and resolves it.
func (r *Resolver) ResolveTag(ctx context.Context, rc Context, tag actiontag.Tag, param string) (Result, error) {
	lookup, err := ParseLookup(tag, param, r.seps)
	if err != nil {
		return Result{}, err
	}
	return r.Resolve(ctx, rc, lookup)
}

// Resolve computes the option set of a lookup.
func (r *Resolver) Resolve(ctx context.Context, rc Context, lookup Lookup) (Result, error) {
	if rc.Project == nil {
		return Result{}, errors.New("resolve: context has no project")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		result Result
		err    error
	)
	switch l := lookup.(type) {
	case RecordLookup:
		result, err = r.resolveRecords(ctx, rc, l)
	case FormLookup:
		result, err = r.resolveFormInstances(ctx, rc, l)
	case EventLookup:
		result, err = r.resolveEventInstances(ctx, rc, l)
	default:
		return Result{}, fmt.Errorf("%w: unsupported lookup %T", ErrUnresolvable, lookup)
	}
	if err != nil {
		if errors.Is(err, ErrUnresolvable) {
			r.logger.Debug("lookup unresolvable",
				zap.String("tag", lookup.Tag().String()),
				zap.Error(err),
			)
		}
		return Result{}, err
	}
	r.logger.Debug("lookup resolved",
		zap.String("tag", lookup.Tag().String()),
		zap.Int("options", result.Options.Len()),
		zap.Bool("composite", result.Composite),
	)
	return result, nil
}

func (r *Resolver) piperFor(p *project.Project) (piping.Piper, error) {
	if r.piper != nil {
		return r.piper, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pipeProject == p && r.pipeEngine != nil {
		return r.pipeEngine, nil
	}
	engine, err := piping.New(p)
	if err != nil {
		return nil, fmt.Errorf("resolve: piping engine: %w", err)
	}
	r.pipeProject, r.pipeEngine = p, engine
	return engine, nil
}

func (r *Resolver) pipePlain(ctx context.Context, piper piping.Piper, label string, scope piping.Scope, data *project.Dataset) (string, error) {
	if label == "" {
		return "", nil
	}
	piped, err := piper.Pipe(ctx, label, scope, data)
	if err != nil {
		return "", fmt.Errorf("resolve: pipe label: %w", err)
	}
	return piping.PlainText(piped), nil
}

// instanceLabel formats "n" or "n: label".
func instanceLabel(instance int, piped string) string {
	if piped == "" {
		return fmt.Sprintf("%d", instance)
	}
	return fmt.Sprintf("%d: %s", instance, piped)
}
