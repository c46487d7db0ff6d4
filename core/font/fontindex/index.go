/*
Package fontindex maps font resources to the code points they cover.

An index is built once from a list of font resources and is immutable
thereafter; it is safe for concurrent use by multiple layout tasks.
Discovering more fonts never mutates an index, but produces a new one
(see Index.Extend).

Fonts are held in preference order: fonts explicitly provided by the user
come first, then fonts discovered on the system, then catalog fonts. Within
an origin, registration order decides.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package fontindex

import (
	"fmt"
	"sort"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
)

// tracer writes to trace with key 'readerpack.fonts'
func tracer() tracing.Trace {
	return tracing.Select("readerpack.fonts")
}

// DuplicateFontError is returned when registering a second font resource
// under an ID already present.
type DuplicateFontError struct {
	ID font.ID
}

func (e DuplicateFontError) Error() string {
	return fmt.Sprintf("duplicate font resource %q", string(e.ID))
}

// FallbackPolicy tells renderers what to do with text bound to the
// missing-coverage pseudo font. In any case a coverage gap is reported as a
// warning.
type FallbackPolicy int

const (
	// SubstituteGlyph renders every uncovered code point as a substitute glyph.
	SubstituteGlyph FallbackPolicy = iota
	// KeepText hands uncovered text to the renderer unchanged, using the
	// metrics and family of the built-in fallback font.
	KeepText
)

func (p FallbackPolicy) String() string {
	switch p {
	case SubstituteGlyph:
		return "substitute"
	case KeepText:
		return "keep"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParseFallbackPolicy parses the string form of a fallback policy.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch s {
	case "", "substitute":
		return SubstituteGlyph, nil
	case "keep":
		return KeepText, nil
	}
	return SubstituteGlyph, fmt.Errorf("unknown fallback policy %q", s)
}

// SubstituteRune is the glyph used for uncovered code points under policy
// SubstituteGlyph. It is covered by the built-in fallback font.
const SubstituteRune = '□'

// --- Builder ---------------------------------------------------------------

// Builder collects font resources for an index. A builder is not safe for
// concurrent use.
type Builder struct {
	fonts  []*font.Resource
	ids    map[font.ID]struct{}
	policy FallbackPolicy
}

// NewBuilder creates an empty index builder with fallback policy
// SubstituteGlyph.
func NewBuilder() *Builder {
	return &Builder{ids: make(map[font.ID]struct{})}
}

// Register adds a font resource. Registering a second resource with the
// same ID fails with a DuplicateFontError, as does registering a resource
// with the ID reserved for the missing-coverage pseudo font.
func (b *Builder) Register(f *font.Resource) error {
	if f == nil || f.ID == "" {
		return core.Error(core.EINVALID, "cannot register font without ID")
	}
	if _, ok := b.ids[f.ID]; ok || f.ID == font.MissingID {
		tracer().Errorf("font %s already registered", f.ID)
		return core.WrapError(DuplicateFontError{ID: f.ID}, core.EINVALID,
			"font %q registered twice", f.ID)
	}
	b.ids[f.ID] = struct{}{}
	b.fonts = append(b.fonts, f)
	tracer().Debugf("registered %s", f)
	return nil
}

// SetFallbackPolicy sets the policy for code points no font covers.
func (b *Builder) SetFallbackPolicy(p FallbackPolicy) *Builder {
	b.policy = p
	return b
}

// Build creates an immutable index from the registered fonts. The builder
// may be used further; fonts registered later will not be visible in the
// index.
func (b *Builder) Build() *Index {
	fonts := make([]*font.Resource, len(b.fonts))
	copy(fonts, b.fonts)
	sort.SliceStable(fonts, func(i, j int) bool {
		return fonts[i].Origin < fonts[j].Origin
	})
	ix := &Index{
		fonts:   fonts,
		byID:    make(map[font.ID]*font.Resource, len(fonts)),
		scripts: make(map[language.Script][]font.ID),
		policy:  b.policy,
	}
	for _, f := range fonts {
		ix.byID[f.ID] = f
	}
	for _, scr := range font.KnownScripts() {
		ix.scripts[scr] = scriptFonts(fonts, scr)
	}
	tracer().Infof("font index built with %d fonts", len(fonts))
	return ix
}

// scriptFonts lists the fonts suitable for a script: fonts declaring the
// script first, then fonts covering code points of it.
func scriptFonts(fonts []*font.Resource, scr language.Script) []font.ID {
	var declared, covering []font.ID
	table := font.ScriptTable(scr)
	for _, f := range fonts {
		if f.Declares(scr) {
			declared = append(declared, f.ID)
		} else if f.Coverage.OverlapsTable(table) {
			covering = append(covering, f.ID)
		}
	}
	return append(declared, covering...)
}

// --- Index -----------------------------------------------------------------

// Index is an immutable font capability index.
type Index struct {
	fonts   []*font.Resource // in preference order
	byID    map[font.ID]*font.Resource
	scripts map[language.Script][]font.ID
	policy  FallbackPolicy
}

// New builds an index from a list of fonts, in registration order.
func New(fonts ...*font.Resource) (*Index, error) {
	b := NewBuilder()
	for _, f := range fonts {
		if err := b.Register(f); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Resolve returns the most preferred font covering r. If no font covers
// r, Resolve returns the missing-coverage pseudo font and false.
func (ix *Index) Resolve(r rune) (*font.Resource, bool) {
	for _, f := range ix.fonts {
		if f.Coverage.Contains(r) {
			return f, true
		}
	}
	return font.MissingFont(), false
}

// ResolveFor resolves r, preferring fonts suitable for script scr. This is
// used for text carrying a language hint, e.g. Han characters in a Japanese
// text should be set with a Japanese font if one is available.
func (ix *Index) ResolveFor(r rune, scr language.Script) (*font.Resource, bool) {
	for _, id := range ix.ScriptFonts(scr) {
		if f := ix.byID[id]; f.Coverage.Contains(r) {
			return f, true
		}
	}
	return ix.Resolve(r)
}

// Font returns the font resource for an ID. The missing-coverage pseudo
// font is always known.
func (ix *Index) Font(id font.ID) (*font.Resource, bool) {
	if id == font.MissingID {
		return font.MissingFont(), true
	}
	f, ok := ix.byID[id]
	return f, ok
}

// Fonts returns the fonts of the index in preference order.
func (ix *Index) Fonts() []*font.Resource {
	fonts := make([]*font.Resource, len(ix.fonts))
	copy(fonts, ix.fonts)
	return fonts
}

// Len returns the number of fonts in the index.
func (ix *Index) Len() int {
	return len(ix.fonts)
}

// Policy returns the fallback policy for uncovered code points.
func (ix *Index) Policy() FallbackPolicy {
	return ix.policy
}

// ScriptFonts returns the IDs of fonts suitable for a script, in preference
// order. Compound scripts (e.g., Jpan) are expanded into their parts.
func (ix *Index) ScriptFonts(scr language.Script) []font.ID {
	parts := font.ExpandScript(scr)
	if len(parts) == 1 {
		ids := ix.scripts[scr]
		r := make([]font.ID, len(ids))
		copy(r, ids)
		return r
	}
	seen := make(map[font.ID]bool)
	var r []font.ID
	for _, f := range ix.fonts { // declaring the compound script comes first
		for _, s := range f.Scripts {
			if s == scr && !seen[f.ID] {
				seen[f.ID] = true
				r = append(r, f.ID)
			}
		}
	}
	for _, p := range parts {
		for _, id := range ix.scripts[p] {
			if !seen[id] {
				seen[id] = true
				r = append(r, id)
			}
		}
	}
	return r
}

// Unresolved returns the known scripts for which no font is available,
// ordered by script tag. Text in these scripts is subject to the fallback
// policy.
func (ix *Index) Unresolved() []language.Script {
	var r []language.Script
	for scr, ids := range ix.scripts {
		if len(ids) == 0 {
			r = append(r, scr)
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].String() < r[j].String() })
	return r
}

// Extend creates a new index containing the fonts of ix followed by
// additional fonts. ix is left unchanged. Every code point resolved by ix
// is resolved by the new index as well.
func (ix *Index) Extend(fonts ...*font.Resource) (*Index, error) {
	b := NewBuilder().SetFallbackPolicy(ix.policy)
	for _, f := range ix.fonts {
		if err := b.Register(f); err != nil {
			return nil, err
		}
	}
	for _, f := range fonts {
		if err := b.Register(f); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
