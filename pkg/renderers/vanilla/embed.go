package vanilla

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// PageTemplate is the template rendered for every page with tagged fields.
const PageTemplate = "templates/page.tmpl"

// TemplatesFS exposes the embedded template bundle so hosts can copy and
// customise it before passing it back through WithTemplatesFS.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
