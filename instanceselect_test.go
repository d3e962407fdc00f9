package instanceselect

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-instanceselect/pkg/testsupport"
)

func TestEmbeddedTemplatesContainsPageTemplate(t *testing.T) {
	data, err := fs.ReadFile(EmbeddedTemplates(), "templates/page.tmpl")
	if err != nil {
		t.Fatalf("expected page template to be readable: %v", err)
	}
	if !strings.Contains(string(data), "data-instanceselect-render") {
		t.Fatalf("expected page template to tag the script element")
	}
}

func TestGenerateHTMLDefaultsProjectID(t *testing.T) {
	p, store := testsupport.Cohort(t)

	html, err := GenerateHTML(testsupport.Context(), p, store, Request{
		Record:   "A",
		Form:     "enrolment",
		EventID:  10,
		Instance: 1,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, `"name":"linked_record"`) {
		t.Fatalf("expected linked_record in output, got %s", out)
	}
	if strings.Contains(out, "broken_ref") {
		t.Fatalf("expected unresolvable field to be skipped")
	}
}

func TestGenerateHTMLEmptyPage(t *testing.T) {
	p, store := testsupport.Cohort(t)

	html, err := GenerateHTML(testsupport.Context(), p, store, Request{
		Record:  "A",
		Form:    "visit",
		EventID: 10,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(html) != 0 {
		t.Fatalf("expected no output for a page without tagged fields, got %q", html)
	}
}
