// Package instanceselect exposes the page hook of the instance select
// extension from the top-level module. Fields annotated with
// @RECORDINSTANCE, @FORMINSTANCE or @EVENTINSTANCE are turned into
// dropdowns listing the records, repeating form instances or repeating event
// instances of the project.
package instanceselect

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-instanceselect/pkg/orchestrator"
	"github.com/goliatone/go-instanceselect/pkg/project"
	"github.com/goliatone/go-instanceselect/pkg/render"
	"github.com/goliatone/go-instanceselect/pkg/renderers/vanilla"
)

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// RenderOptions describes per-request overrides such as locale and the
// placeholder texts of the dropdowns.
type RenderOptions = render.RenderOptions

// Page is the resolved page handed to renderers.
type Page = render.Page

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML resolves the tagged fields of the requested page against the
// project and store and renders them with the named renderer. An empty
// renderer name selects the vanilla script renderer.
func GenerateHTML(ctx context.Context, p *project.Project, store project.Store, req Request, options ...orchestrator.Option) ([]byte, error) {
	opts := append([]orchestrator.Option{
		orchestrator.WithProject(p),
		orchestrator.WithStore(store),
	}, options...)
	if req.ProjectID == 0 && p != nil {
		req.ProjectID = p.ID()
	}
	return orchestrator.New(opts...).Generate(ctx, req)
}

// EmbeddedTemplates exposes the built-in vanilla renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}
