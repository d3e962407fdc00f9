package orchestrator

import (
	"context"
	"fmt"

	"github.com/goliatone/go-instanceselect/pkg/project"
)

// ProjectProvider returns the project snapshot a page belongs to.
type ProjectProvider interface {
	Project(ctx context.Context, id int) (*project.Project, error)
}

// ProjectProviderFunc adapts plain functions to ProjectProvider.
type ProjectProviderFunc func(ctx context.Context, id int) (*project.Project, error)

// Project implements ProjectProvider.
func (fn ProjectProviderFunc) Project(ctx context.Context, id int) (*project.Project, error) {
	return fn(ctx, id)
}

// StaticProject serves a single project. Requests for another non-zero
// project id fail.
func StaticProject(p *project.Project) ProjectProvider {
	return ProjectProviderFunc(func(_ context.Context, id int) (*project.Project, error) {
		if p == nil {
			return nil, fmt.Errorf("%w: no project configured", ErrProjectNotFound)
		}
		if id != 0 && id != p.ID() {
			return nil, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
		}
		return p, nil
	})
}
