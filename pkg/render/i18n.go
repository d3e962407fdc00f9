package render

import (
	"errors"
	"strings"
)

// Translation keys of the fixed option texts.
const (
	TextKeyEmpty   = "instanceselect.empty"
	TextKeyDeleted = "instanceselect.deleted"
	TextKeyNew     = "instanceselect.new"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when a key
// needs translating but no Translator is configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler returns the text to use when key could not be
// translated. args carries a map with the "default" text.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// ResolveTexts returns the option texts for a request: explicit overrides
// first, then translations, then the built-in defaults.
func ResolveTexts(opts RenderOptions) Texts {
	texts := opts.Texts.withDefaults()
	if opts.Translator == nil {
		return texts
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	if opts.Texts.Empty == "" {
		texts.Empty = translate(opts.Locale, TextKeyEmpty, texts.Empty, opts.Translator, onMissing)
	}
	if opts.Texts.Deleted == "" {
		texts.Deleted = translate(opts.Locale, TextKeyDeleted, texts.Deleted, opts.Translator, onMissing)
	}
	if opts.Texts.New == "" {
		texts.New = translate(opts.Locale, TextKeyNew, texts.New, opts.Translator, onMissing)
	}
	return texts
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	if t == nil {
		if onMissing != nil {
			return onMissing(locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
		}
		if strings.TrimSpace(fallback) != "" {
			return fallback
		}
		return key
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}

	if onMissing != nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	if len(args) > 0 {
		if values, ok := args[0].(map[string]any); ok {
			if fallback, ok := values["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}
