/*
Package harfbuzz uses HarfBuzz to measure text set with a font.

Texts are converted to sequences of glyphs by the HarfBuzz shaper, and the
advances of the glyphs are summed up. Fonts without binary data (e.g.,
fonts with declared coverage only, or the missing-coverage pseudo font)
are measured by a fallback measurer.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package harfbuzz

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"unicode"

	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	hb "github.com/benoitkugler/textlayout/harfbuzz"
	hblang "github.com/benoitkugler/textlayout/language"
	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/engine/glyphing"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
)

// tracer traces with key 'readerpack.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.glyphs")
}

// --- Type conversion -------------------------------------------------------

// Lang4HB returns a language tag as a HarfBuzz language.
func Lang4HB(l language.Tag) hblang.Language {
	return hblang.NewLanguage(l.String())
}

// Script4HB returns a script as a HarfBuzz script.
func Script4HB(s language.Script) hblang.Script {
	b := []byte(s.String())
	b[0] = byte(unicode.ToLower(rune(b[0])))
	h := binary.BigEndian.Uint32(b)
	return hblang.Script(h)
}

// Direction4HB translates a direction to a HarfBuzz direction.
func Direction4HB(d glyphing.Direction) hb.Direction {
	switch d {
	case glyphing.LeftToRight:
		return hb.LeftToRight
	case glyphing.RightToLeft:
		return hb.RightToLeft
	case glyphing.TopToBottom:
		return hb.TopToBottom
	case glyphing.BottomToTop:
		return hb.BottomToTop
	}
	return hb.LeftToRight
}

// --- Measurer --------------------------------------------------------------

// hbfont is a HarfBuzz font for a font resource. HarfBuzz fonts are not
// safe for concurrent use.
type hbfont struct {
	sync.Mutex
	font *hb.Font
	err  error
}

type measurer struct {
	fallback glyphing.Measurer
	fonts    sync.Map // font.ID → *hbfont
}

// Measurer creates a measurer shaping text with HarfBuzz. fallback is used
// for fonts without binary data and must not be nil.
func Measurer(fallback glyphing.Measurer) glyphing.Measurer {
	return &measurer{fallback: fallback}
}

// Advance shapes text and returns the sum of the glyph advances.
func (m *measurer) Advance(text string, params glyphing.Params) dimen.Dimen {
	if text == "" {
		return 0
	}
	f := params.Font
	if f == nil || len(f.Binary) == 0 || f.ID == font.MissingID {
		return m.fallback.Advance(text, params)
	}
	hf := m.prepare(f)
	if hf.err != nil {
		return m.fallback.Advance(text, params)
	}
	var props hb.SegmentProperties
	convertParams(&props, params)
	runes := []rune(text)
	buf := hb.NewBuffer()
	buf.Props = props
	buf.AddRunes(runes, 0, len(runes))
	hf.Lock()
	buf.Shape(hf.font, nil)
	scale := hf.font.XScale
	hf.Unlock()
	if scale == 0 {
		return m.fallback.Advance(text, params)
	}
	var adv int64
	for i := range buf.Pos {
		adv += int64(buf.Pos[i].XAdvance)
	}
	w := float64(adv) / float64(scale) * float64(params.Size)
	return dimen.Dimen(math.Round(w))
}

// prepare parses the font binary once per font ID.
func (m *measurer) prepare(f *font.Resource) *hbfont {
	if hf, ok := m.fonts.Load(f.ID); ok {
		return hf.(*hbfont)
	}
	hf := &hbfont{}
	face, err := hbtt.Parse(bytes.NewReader(f.Binary), true)
	if err != nil {
		tracer().Errorf("HarfBuzz cannot parse font %s: %v", f.ID, err)
		hf.err = err
	} else {
		hf.font = hb.NewFont(face)
	}
	actual, _ := m.fonts.LoadOrStore(f.ID, hf)
	return actual.(*hbfont)
}

// convertParams is a helper function to convert glyphing parameters to
// HarfBuzz's format.
func convertParams(props *hb.SegmentProperties, params glyphing.Params) {
	if params.Language != language.Und {
		props.Language = Lang4HB(params.Language)
	}
	var none language.Script
	if params.Script != none {
		props.Script = Script4HB(params.Script)
	}
	props.Direction = Direction4HB(params.Direction)
}
