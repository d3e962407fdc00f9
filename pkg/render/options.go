package render

// RenderOptions carry per-request presentation settings that renderers apply
// without changing the directives.
type RenderOptions struct {
	// Texts overrides the fixed option texts. Zero fields fall back to
	// DefaultTexts.
	Texts Texts
	// Locale selects the translation used for Texts when a Translator is set.
	Locale string
	// Translator localises the fixed option texts by key.
	Translator Translator
	// OnMissing controls the string used when a translation is missing.
	OnMissing MissingTranslationHandler
}

// Texts are the fixed strings renderers add next to resolved options.
type Texts struct {
	// Empty labels the only option of a disabled control with nothing to
	// select.
	Empty string `json:"empty" yaml:"empty"`
	// Deleted is appended to a stored value no longer among the options.
	Deleted string `json:"deleted" yaml:"deleted"`
	// New is appended to a parent instance passed in the page URL that is
	// not among the options yet.
	New string `json:"new" yaml:"new"`
}

// DefaultTexts returns the built-in English texts.
func DefaultTexts() Texts {
	return Texts{
		Empty:   "No instances to select",
		Deleted: "DELETED",
		New:     "NEW",
	}
}

func (t Texts) withDefaults() Texts {
	def := DefaultTexts()
	if t.Empty == "" {
		t.Empty = def.Empty
	}
	if t.Deleted == "" {
		t.Deleted = def.Deleted
	}
	if t.New == "" {
		t.New = def.New
	}
	return t
}
