package template

import (
	"io"
)

// TemplateRenderer executes templates for the renderers and the label piping
// engine. Data is a map of template variables.
type TemplateRenderer interface {
	// RenderTemplate executes a named template from the configured bundle.
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	// RenderString executes an inline template source.
	RenderString(source string, data any, out ...io.Writer) (string, error)
}
