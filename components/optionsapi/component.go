package optionsapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Component wraps the page source, its configuration, and routing helpers.
type Component struct {
	pages Pages
	opts  Options
}

// New constructs a component serving pages with default options plus any
// overrides.
func New(pages Pages, fns ...OptionFn) *Component {
	return &Component{pages: pages, opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return NewOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns a standalone handler serving the component under its
// RoutePath.
func (c *Component) Handler() http.Handler {
	r := chi.NewRouter()
	r.Mount(mountPath("", c.opts.RoutePath), Routes(c.pages, c.opts))
	return r
}

// RegisterRoutes mounts the component under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, c.pages, c.opts)
}
