/*
Package font is for font resources and their code-point coverage.

There is a certain confusion in the nomenclature of typesetting. We will
stick to the following definitions:

* A "typeface" is a family of fonts. An example is "Noto Sans".

* A "font resource" is a font, i.e. a variant of a typeface with a
certain weight, slant, etc., together with the set of Unicode code points
it is able to render (its coverage). An example is "Noto Sans CJK JP
regular".

Please note that Go (Golang) does use the terms "font" and "face"
differently–actually more or less in an opposite manner.

Font resources are immutable once created. They are handed out by
reference; layout and rendering refer to them by ID only.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package font

import (
	"fmt"
	"path"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	xfont "golang.org/x/image/font"
	"golang.org/x/text/language"
)

// tracer writes to trace with key 'readerpack.fonts'
func tracer() tracing.Trace {
	return tracing.Select("readerpack.fonts")
}

// ID identifies a font resource. IDs are unique within a font index.
type ID string

// MissingID is the ID of the missing-coverage pseudo font. Text runs bound to
// it are rendered with a fallback glyph.
const MissingID ID = "missing-coverage"

// Origin tells where a font resource has been found. Origins determine the
// preference order of fonts covering the same code point.
type Origin int

// Origins in order of preference.
const (
	OriginUser    Origin = iota // explicitly provided by the user
	OriginSystem                // discovered on the local system
	OriginCatalog               // downloadable or built-in catalog font
)

func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginSystem:
		return "system"
	case OriginCatalog:
		return "catalog"
	}
	return fmt.Sprintf("origin(%d)", int(o))
}

// ParseOrigin parses the string form of an origin.
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "user":
		return OriginUser, nil
	case "system":
		return OriginSystem, nil
	case "catalog":
		return OriginCatalog, nil
	}
	return OriginUser, fmt.Errorf("unknown font origin %q", s)
}

// Metrics are font-wide metrics, expressed as fractions of an em.
// AvgAdvance is the average advance of a half-width glyph; full-width
// (east asian wide) glyphs are assumed to advance twice as far.
type Metrics struct {
	Ascent     float64
	Descent    float64
	LineGap    float64
	AvgAdvance float64
}

// LineHeight is the baseline-to-baseline distance of consecutive lines,
// as a fraction of an em.
func (m Metrics) LineHeight() float64 {
	return m.Ascent + m.Descent + m.LineGap
}

// DefaultMetrics are used for font resources without declared metrics.
var DefaultMetrics = Metrics{Ascent: 0.9, Descent: 0.25, LineGap: 0.05, AvgAdvance: 0.5}

// Resource is a font resource with known code-point coverage.
type Resource struct {
	ID       ID
	Name     string // family name, as used by renderers
	Path     string // file path, may be empty for built-in fonts
	Binary   []byte // raw font data, if loaded
	Style    xfont.Style
	Weight   xfont.Weight
	Origin   Origin
	Coverage Coverage
	Metrics  Metrics
	Scripts  []language.Script // declared scripts, e.g. Jpan for a Japanese CJK font
}

// NewResource creates a font resource from declared coverage. Ranges may be
// unsorted and overlapping; they will be normalized. Zero metrics are
// replaced by DefaultMetrics.
func NewResource(id ID, name string, origin Origin, ranges []Range, metrics Metrics) *Resource {
	if metrics == (Metrics{}) {
		metrics = DefaultMetrics
	}
	return &Resource{
		ID:       id,
		Name:     name,
		Origin:   origin,
		Style:    xfont.StyleNormal,
		Weight:   xfont.WeightNormal,
		Coverage: NewCoverage(ranges...),
		Metrics:  metrics,
	}
}

// Declares returns true if the font has been declared to be made for
// writing text in script scr. Compound scripts are expanded.
func (f *Resource) Declares(scr language.Script) bool {
	for _, s := range f.Scripts {
		if s == scr {
			return true
		}
		for _, part := range ExpandScript(s) {
			if part == scr {
				return true
			}
		}
	}
	return false
}

// Covers returns true if the font has a glyph for r.
func (f *Resource) Covers(r rune) bool {
	if f == nil {
		return false
	}
	return f.Coverage.Contains(r)
}

func (f *Resource) String() string {
	if f == nil {
		return "<no font>"
	}
	return fmt.Sprintf("font(%s %q, %s, %d code points)", f.ID, f.Name, f.Origin, f.Coverage.Size())
}

// StyleName returns a variant name for a font's style and weight, e.g.
// "bold-italic".
func (f *Resource) StyleName() string {
	var s []string
	switch f.Weight {
	case xfont.WeightLight, xfont.WeightExtraLight, xfont.WeightThin:
		s = append(s, "light")
	case xfont.WeightBold, xfont.WeightExtraBold, xfont.WeightSemiBold, xfont.WeightBlack:
		s = append(s, "bold")
	}
	switch f.Style {
	case xfont.StyleItalic, xfont.StyleOblique:
		s = append(s, "italic")
	}
	if len(s) == 0 {
		return "regular"
	}
	return strings.Join(s, "-")
}

// ---------------------------------------------------------------------------

// NormalizeFontname creates a font ID from a font (file) name, a style and
// a weight. "Noto Sans.ttf", italic, bold will be normalized to
// "noto_sans-italic-bold".
func NormalizeFontname(fname string, style xfont.Style, weight xfont.Weight) ID {
	fname = strings.TrimSpace(fname)
	fname = strings.ReplaceAll(fname, " ", "_")
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		fname = fname[:dot]
	}
	fname = strings.ToLower(fname)
	switch style {
	case xfont.StyleItalic, xfont.StyleOblique:
		fname += "-italic"
	}
	switch weight {
	case xfont.WeightLight, xfont.WeightExtraLight:
		fname += "-light"
	case xfont.WeightBold, xfont.WeightExtraBold, xfont.WeightSemiBold:
		fname += "-bold"
	}
	return ID(fname)
}

// GuessStyleAndWeight trys to guess a font's style and weight from the
// font's file name.
func GuessStyleAndWeight(fontfilename string) (xfont.Style, xfont.Weight) {
	fontfilename = path.Base(fontfilename)
	ext := path.Ext(fontfilename)
	fontfilename = strings.ToLower(fontfilename[:len(fontfilename)-len(ext)])
	s := strings.Split(fontfilename, "-")
	if len(s) > 1 {
		switch s[len(s)-1] {
		case "light", "xlight":
			return xfont.StyleNormal, xfont.WeightLight
		case "normal", "medium", "regular", "r":
			return xfont.StyleNormal, xfont.WeightNormal
		case "bold", "b":
			return xfont.StyleNormal, xfont.WeightBold
		case "xbold", "black":
			return xfont.StyleNormal, xfont.WeightExtraBold
		}
	}
	style, weight := xfont.StyleNormal, xfont.WeightNormal
	if strings.Contains(fontfilename, "italic") {
		style = xfont.StyleItalic
	}
	if strings.Contains(fontfilename, "light") {
		weight = xfont.WeightLight
	}
	if strings.Contains(fontfilename, "bold") {
		weight = xfont.WeightBold
	}
	return style, weight
}
