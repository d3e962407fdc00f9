package render

import "context"

// Renderer turns a page's directives into output the host attaches to the
// page (a browser script, a terminal prompt result, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page Page, options RenderOptions) ([]byte, error)
}
