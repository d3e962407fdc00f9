package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-instanceselect/pkg/render"
)

// Transformer adjusts the directives of a page after resolution and before
// rendering. Implementations can switch modes or drop fields.
type Transformer interface {
	Transform(ctx context.Context, page *render.Page) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, page *render.Page) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, page *render.Page) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, page)
}

// JSONPresetTransformer applies declarative per-field overrides loaded from
// a JSON document:
//
//	{
//	  "fields": {
//	    "linked_record": {"mode": "autocomplete"},
//	    "legacy_ref": {"skip": true}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Fields map[string]jsonFieldPatch `json:"fields"`
}

type jsonFieldPatch struct {
	Mode render.Mode `json:"mode"`
	Skip bool        `json:"skip"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	for field, patch := range document.Fields {
		switch patch.Mode {
		case "", render.ModeSelect, render.ModeAutocomplete:
		default:
			return nil, fmt.Errorf("json preset transformer: field %q: unknown mode %q", field, patch.Mode)
		}
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform implements Transformer.
func (t *JSONPresetTransformer) Transform(_ context.Context, page *render.Page) error {
	if t == nil || page == nil || len(t.document.Fields) == 0 {
		return nil
	}
	kept := page.Directives[:0]
	for _, d := range page.Directives {
		patch, ok := t.document.Fields[d.Field]
		if !ok {
			kept = append(kept, d)
			continue
		}
		if patch.Skip {
			continue
		}
		if patch.Mode != "" {
			d.Mode = patch.Mode
		}
		kept = append(kept, d)
	}
	page.Directives = kept
	return nil
}
