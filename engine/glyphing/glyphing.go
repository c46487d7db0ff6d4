/*
Package glyphing measures text set with a font resource.

Layout needs the horizontal advance of a run of text, set in a font at a
given size. A Measurer delivers it. Implementations range from a simple
estimate based on east asian width classes (package estimate) to shaping
with HarfBuzz (package harfbuzz). Real shaping of complex scripts is not
performed by this module; measurers are consulted for advances only.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package glyphing

import (
	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"golang.org/x/text/language"
)

// Direction is the direction to typeset text in.
type Direction int

// Direction to typeset text in.
const (
	LeftToRight Direction = iota
	RightToLeft
	TopToBottom
	BottomToTop
)

func (d Direction) String() string {
	switch d {
	case RightToLeft:
		return "RightToLeft"
	case TopToBottom:
		return "TopToBottom"
	case BottomToTop:
		return "BottomToTop"
	}
	return "LeftToRight"
}

// Params collects measuring parameters.
type Params struct {
	Font      *font.Resource  // font to measure with
	Size      dimen.Dimen     // font size
	Direction Direction       // writing direction
	Script    language.Script // 4-letter ISO 15924 script identifier
	Language  language.Tag    // BCP 47 language tag
}

// A Measurer returns the horizontal advance of a text, set with a font at a
// given size. Measurers must be safe for concurrent use and deterministic.
type Measurer interface {
	Advance(text string, params Params) dimen.Dimen
}

// MeasurerFunc adapts a function to the Measurer interface.
type MeasurerFunc func(string, Params) dimen.Dimen

// Advance calls f(text, params).
func (f MeasurerFunc) Advance(text string, params Params) dimen.Dimen {
	return f(text, params)
}
