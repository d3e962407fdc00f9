package vanilla_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instanceselect/pkg/actiontag"
	"github.com/goliatone/go-instanceselect/pkg/render"
	"github.com/goliatone/go-instanceselect/pkg/renderers/vanilla"
	"github.com/goliatone/go-instanceselect/pkg/resolve"
	"github.com/goliatone/go-instanceselect/pkg/testsupport"
)

type renderedField struct {
	Name     string          `json:"name"`
	Mode     string          `json:"mode"`
	Disabled bool            `json:"disabled"`
	Choices  []render.Choice `json:"choices"`
}

func samplePage() render.Page {
	return render.Page{
		RenderID:       "r-1",
		ProjectID:      27,
		Record:         "A",
		Form:           "enrolment",
		EventID:        10,
		ParentInstance: "3",
		Directives: []render.Directive{
			{
				Field: "parent_visit",
				Tag:   actiontag.FormInstance,
				Mode:  render.ModeAutocomplete,
				Options: resolve.NewOptionSet(
					resolve.Option{Value: "1", Label: "1: </script><b>x</b>"},
					resolve.Option{Value: "2", Label: "2"},
				),
			},
			{
				Field:    "therapy_ref",
				Tag:      actiontag.EventInstance,
				Mode:     render.ModeSelect,
				Disabled: true,
			},
		},
	}
}

func taggedFields(t *testing.T, output string) []renderedField {
	t.Helper()
	const marker = "var taggedFields = "
	start := strings.Index(output, marker)
	if start < 0 {
		t.Fatalf("taggedFields payload missing:\n%s", output)
	}
	rest := output[start+len(marker):]
	end := strings.Index(rest, ";\n")
	if end < 0 {
		t.Fatalf("unterminated payload:\n%s", output)
	}
	var fields []renderedField
	if err := json.Unmarshal([]byte(rest[:end]), &fields); err != nil {
		t.Fatalf("decode payload: %v\n%s", err, rest[:end])
	}
	return fields
}

func TestRenderer_Render(t *testing.T) {
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if renderer.Name() != "vanilla" || !strings.HasPrefix(renderer.ContentType(), "text/html") {
		t.Fatalf("unexpected renderer identity %q %q", renderer.Name(), renderer.ContentType())
	}

	out, err := renderer.Render(testsupport.Context(), samplePage(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	output := string(out)

	for _, want := range []string{
		`<script type="text/javascript" data-instanceselect-render="r-1">`,
		`$('input:text[name="' + taggedField.name + '"]').replaceWith(replaceField);`,
		`taggedField.mode === 'autocomplete'`,
		`replaceField.addClass('rc-autocomplete');`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Count(output, "</script>") != 1 {
		t.Fatalf("label markup escaped the script element:\n%s", output)
	}

	want := []renderedField{
		{
			Name: "parent_visit",
			Mode: "autocomplete",
			Choices: []render.Choice{
				{},
				{Value: "1", Label: "1: </script><b>x</b>"},
				{Value: "2", Label: "2"},
				{Value: "3", Label: "3: NEW", Selected: true},
			},
		},
		{
			Name:     "therapy_ref",
			Mode:     "select",
			Disabled: true,
			Choices:  []render.Choice{{Label: "No instances to select"}},
		},
	}
	if diff := cmp.Diff(want, taggedFields(t, output)); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_RenderTexts(t *testing.T) {
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page := samplePage()
	page.Directives[0].CurrentValue = "9"

	out, err := renderer.Render(testsupport.Context(), page, render.RenderOptions{
		Texts: render.Texts{Empty: "Nothing here", Deleted: "GONE"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	fields := taggedFields(t, string(out))
	if got := fields[0].Choices[len(fields[0].Choices)-1].Label; got != "9: GONE" {
		t.Fatalf("deleted label = %q", got)
	}
	if got := fields[1].Choices[0].Label; got != "Nothing here" {
		t.Fatalf("empty label = %q", got)
	}
}

func TestRenderer_NoDirectives(t *testing.T) {
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(testsupport.Context(), render.Page{Record: "A"}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no output, got %q", out)
	}
}

const customPage = `{% for f in fields %}{{ f.name }}={{ f.choices|length }}{% if f.disabled %}!{% endif %}` +
	`{% for c in f.choices %}{% if c.selected %}>{{ c.value }}{% endif %}{% endfor %};{% endfor %}`

func TestRenderer_CustomTemplates(t *testing.T) {
	files := fstest.MapFS{
		vanilla.PageTemplate: {Data: []byte(customPage)},
	}
	renderer, err := vanilla.New(vanilla.WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(testsupport.Context(), samplePage(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got, want := string(out), "parent_visit=4>3;therapy_ref=1!;"; got != want {
		t.Fatalf("custom output = %q, want %q", got, want)
	}
}

func TestRenderer_TemplatesDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, filepath.FromSlash(vanilla.PageTemplate))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create template dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(customPage), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	renderer, err := vanilla.New(vanilla.WithTemplatesDir(dir))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(testsupport.Context(), samplePage(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got, want := string(out), "parent_visit=4>3;therapy_ref=1!;"; got != want {
		t.Fatalf("templates dir output = %q, want %q", got, want)
	}
}
