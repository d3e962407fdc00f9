package render_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-instanceselect/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestResolveTexts(t *testing.T) {
	if got := render.ResolveTexts(render.RenderOptions{}); got != render.DefaultTexts() {
		t.Fatalf("defaults = %+v", got)
	}

	got := render.ResolveTexts(render.RenderOptions{
		Locale:     "es",
		Translator: stubTranslator{render.TextKeyEmpty: "No hay instancias"},
		Texts:      render.Texts{New: "NUEVO"},
	})
	want := render.Texts{Empty: "No hay instancias", Deleted: "DELETED", New: "NUEVO"}
	if got != want {
		t.Fatalf("texts = %+v, want %+v", got, want)
	}
}

func TestResolveTexts_OnMissing(t *testing.T) {
	var missing []string
	got := render.ResolveTexts(render.RenderOptions{
		Translator: stubTranslator{},
		OnMissing: func(_ string, key string, _ []any, _ error) string {
			missing = append(missing, key)
			return "?" + key
		},
	})
	if got.Empty != "?"+render.TextKeyEmpty {
		t.Fatalf("empty = %q", got.Empty)
	}
	if len(missing) != 3 {
		t.Fatalf("missing keys = %v", missing)
	}
}
