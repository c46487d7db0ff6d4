package font

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/width"
)

// ProbeLimit is the highest code point probed when deriving coverage from a
// font binary. It includes the Basic Multilingual Plane and the
// Supplementary Multilingual and Ideographic Planes.
const ProbeLimit rune = 0x2FFFF

// LoadResource loads a font file and derives its coverage and metrics from
// the font's character map. The font ID is derived from the file name,
// style and weight.
func LoadResource(fontfile string, origin Origin) (*Resource, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	style, weight := GuessStyleAndWeight(fontfile)
	id := NormalizeFontname(filepath.Base(fontfile), style, weight)
	f, err := ParseResource(id, bytez, origin)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", fontfile, err)
	}
	f.Path = fontfile
	f.Style, f.Weight = style, weight
	return f, nil
}

// ParseResource parses an OpenType/TrueType font binary and creates a
// font resource for it. Coverage is derived by probing the font's cmap
// for every code point up to ProbeLimit.
func ParseResource(id ID, fbytes []byte, origin Origin) (*Resource, error) {
	otf, err := sfnt.Parse(fbytes)
	if err != nil {
		return nil, err
	}
	var buf sfnt.Buffer
	f := &Resource{
		ID:     id,
		Binary: fbytes,
		Origin: origin,
		Style:  xfont.StyleNormal,
		Weight: xfont.WeightNormal,
	}
	if f.Name, err = otf.Name(&buf, sfnt.NameIDFamily); err != nil || f.Name == "" {
		f.Name = string(id)
	}
	f.Coverage = coverageOf(otf, &buf)
	f.Metrics, err = metricsOf(otf, &buf, f.Coverage)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("parsed font %s: %d code points, metrics %+v", f.Name, f.Coverage.Size(), f.Metrics)
	return f, nil
}

func coverageOf(otf *sfnt.Font, buf *sfnt.Buffer) Coverage {
	var ranges []Range
	open := false
	var lo rune
	for r := rune(0); r <= ProbeLimit; r++ {
		covered := false
		if utf8.ValidRune(r) {
			gid, err := otf.GlyphIndex(buf, r)
			covered = err == nil && gid != 0
		}
		switch {
		case covered && !open:
			lo, open = r, true
		case !covered && open:
			ranges = append(ranges, Range{Lo: lo, Hi: r - 1})
			open = false
		}
	}
	if open {
		ranges = append(ranges, Range{Lo: lo, Hi: ProbeLimit})
	}
	return NewCoverage(ranges...)
}

// sample runes for measuring an average advance.
const advanceSample = "etaoinshrdlcumwfgypbvkxjqz"

func metricsOf(otf *sfnt.Font, buf *sfnt.Buffer, cov Coverage) (Metrics, error) {
	upem := otf.UnitsPerEm()
	if upem == 0 {
		return Metrics{}, fmt.Errorf("font has zero units per em")
	}
	ppem := fixed.I(int(upem))
	fm, err := otf.Metrics(buf, ppem, xfont.HintingNone)
	if err != nil {
		return Metrics{}, err
	}
	em := float64(upem)
	m := Metrics{
		Ascent:  fixedToFloat(fm.Ascent) / em,
		Descent: fixedToFloat(fm.Descent) / em,
	}
	if gap := fixedToFloat(fm.Height)/em - m.Ascent - m.Descent; gap > 0 {
		m.LineGap = gap
	}
	var sum float64
	n := 0
	measure := func(r rune) {
		gid, err := otf.GlyphIndex(buf, r)
		if err != nil || gid == 0 {
			return
		}
		adv, err := otf.GlyphAdvance(buf, gid, ppem, xfont.HintingNone)
		if err != nil {
			return
		}
		a := fixedToFloat(adv) / em
		if isWide(r) {
			a /= 2
		}
		sum += a
		n++
	}
	for _, r := range advanceSample {
		measure(r)
	}
	if n == 0 { // no Latin letters: sample the first covered code points
		for _, rng := range cov.ranges {
			for r := rng.Lo; r <= rng.Hi && n < 32; r++ {
				if !IsNeutral(r) {
					measure(r)
				}
			}
			if n >= 32 {
				break
			}
		}
	}
	if n == 0 {
		m.AvgAdvance = DefaultMetrics.AvgAdvance
	} else {
		m.AvgAdvance = sum / float64(n)
	}
	if m.Ascent <= 0 {
		m.Ascent, m.Descent = DefaultMetrics.Ascent, DefaultMetrics.Descent
	}
	return m, nil
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
