package optionsapi

import (
	"net/http"

	"go.uber.org/zap"
)

const (
	defaultRoutePath   = "/instanceselect"
	defaultSearchParam = "q"
	defaultLimitParam  = "limit"
	defaultLimit       = 50
	defaultMaxLimit    = 500
)

// GuardFunc authorises a request before any lookup runs. Returning an error
// implementing HTTPError selects the response status; other errors map to 403.
type GuardFunc func(r *http.Request) error

// GroupFunc returns the data access group of the user behind r. When set it
// replaces the group_id query parameter, so a client cannot widen its own
// record list.
type GroupFunc func(r *http.Request) string

// Options configures the component.
type Options struct {
	RoutePath    string
	SearchParam  string
	LimitParam   string
	DefaultLimit int
	MaxLimit     int
	Guard        GuardFunc
	Group        GroupFunc
	Logger       *zap.Logger
}

type OptionFn func(*Options)

// NewOptions applies fns over the defaults and repairs blank values.
func NewOptions(fns ...OptionFn) Options {
	var opts Options
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaultRoutePath
	}
	if opts.SearchParam == "" {
		opts.SearchParam = defaultSearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = defaultLimitParam
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaultMaxLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) { o.SearchParam = name }
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) { o.LimitParam = name }
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) { o.DefaultLimit = limit }
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) { o.MaxLimit = limit }
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

func WithGroup(group GroupFunc) OptionFn {
	return func(o *Options) { o.Group = group }
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) { o.Logger = logger }
}

// clampLimit maps a requested option count into [0, MaxLimit]. Zero asks for
// the default.
func clampLimit(limit int, opts Options) int {
	switch {
	case limit < 0:
		return 0
	case limit == 0:
		limit = opts.DefaultLimit
	}
	if limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
