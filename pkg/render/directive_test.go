package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instanceselect/pkg/render"
	"github.com/goliatone/go-instanceselect/pkg/resolve"
)

func visitDirective(current string) render.Directive {
	return render.Directive{
		Field: "parent_visit",
		Mode:  render.ModeSelect,
		Options: resolve.NewOptionSet(
			resolve.Option{Value: "1", Label: "1: Screening"},
			resolve.Option{Value: "2", Label: "2"},
		),
		CurrentValue: current,
	}
}

func TestDirectiveChoices(t *testing.T) {
	texts := render.DefaultTexts()
	cases := []struct {
		name   string
		d      render.Directive
		parent string
		want   []render.Choice
	}{
		{
			name: "empty option set",
			d:    render.Directive{Field: "x", Disabled: true},
			want: []render.Choice{{Value: "", Label: "No instances to select"}},
		},
		{
			name: "current value selected",
			d:    visitDirective("2"),
			want: []render.Choice{{}, {Value: "1", Label: "1: Screening"}, {Value: "2", Label: "2", Selected: true}},
		},
		{
			name:   "parent instance used when empty",
			d:      visitDirective(""),
			parent: "1",
			want:   []render.Choice{{}, {Value: "1", Label: "1: Screening", Selected: true}, {Value: "2", Label: "2"}},
		},
		{
			name:   "current value wins over parent",
			d:      visitDirective("2"),
			parent: "1",
			want:   []render.Choice{{}, {Value: "1", Label: "1: Screening"}, {Value: "2", Label: "2", Selected: true}},
		},
		{
			name: "deleted current value kept",
			d:    visitDirective("7"),
			want: []render.Choice{{}, {Value: "1", Label: "1: Screening"}, {Value: "2", Label: "2"}, {Value: "7", Label: "7: DELETED", Selected: true}},
		},
		{
			name:   "new parent instance offered",
			d:      visitDirective(""),
			parent: "3",
			want:   []render.Choice{{}, {Value: "1", Label: "1: Screening"}, {Value: "2", Label: "2"}, {Value: "3", Label: "3: NEW", Selected: true}},
		},
		{
			name: "nothing selected",
			d:    visitDirective(""),
			want: []render.Choice{{}, {Value: "1", Label: "1: Screening"}, {Value: "2", Label: "2"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, tc.d.Choices(tc.parent, texts)); diff != "" {
				t.Fatalf("choices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, render.Page, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistry(t *testing.T) {
	registry, err := render.NewRegistry(namedRenderer("vanilla"), namedRenderer("tui"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := registry.Register(namedRenderer("vanilla")); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if diff := cmp.Diff([]string{"tui", "vanilla"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if _, err := registry.Get("pdf"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}
	if !registry.Has("tui") {
		t.Fatalf("expected tui renderer")
	}
}

func TestRegistry_Resolve(t *testing.T) {
	registry, err := render.NewRegistry(namedRenderer("vanilla"), namedRenderer("tui"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	cases := []struct {
		name, fallback, want string
	}{
		{"tui", "vanilla", "tui"},
		{"", "vanilla", "vanilla"},
		{"", "missing", "tui"},
		{"", "", "tui"},
	}
	for _, tc := range cases {
		renderer, err := registry.Resolve(tc.name, tc.fallback)
		if err != nil {
			t.Fatalf("Resolve(%q, %q): %v", tc.name, tc.fallback, err)
		}
		if renderer.Name() != tc.want {
			t.Fatalf("Resolve(%q, %q) = %s, want %s", tc.name, tc.fallback, renderer.Name(), tc.want)
		}
	}

	if _, err := registry.Resolve("pdf", "vanilla"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected explicit unknown name to fail, got %v", err)
	}
	empty, _ := render.NewRegistry()
	if _, err := empty.Resolve("", "vanilla"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected empty registry to fail, got %v", err)
	}
}
