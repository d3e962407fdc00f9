package optionsapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Route patterns relative to the component's RoutePath.
const (
	RenderPattern  = "/projects/{project}/forms/{form}/render"
	OptionsPattern = "/projects/{project}/forms/{form}/fields/{field}/options"
)

// Mux is the minimal interface required to mount the component. It is
// satisfied by chi.Router.
type Mux interface {
	Mount(pattern string, handler http.Handler)
}

// MountPath returns the full mount path for the component under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.RoutePath)
}

// Routes builds the component router, relative to the mount path.
func Routes(pages Pages, opts Options) chi.Router {
	opts = NewOptions(func(o *Options) { *o = opts })
	h := handlers{pages: pages, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Use(guard(opts))
	r.Get(RenderPattern, h.render)
	r.Get(OptionsPattern, h.options)
	return r
}

// RegisterRoutesWithOptions mounts the component under basePath on mux and
// returns the mount pattern.
func RegisterRoutesWithOptions(mux Mux, basePath string, pages Pages, opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("optionsapi: missing mux")
	}
	if pages == nil {
		return "", fmt.Errorf("optionsapi: missing page source")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	pattern := mountPath(basePath, opts.RoutePath)
	mux.Mount(pattern, Routes(pages, opts))
	return pattern, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
