/*
Package estimate implements a simple measurer for text advances.

Text is split into grapheme clusters (UAX #29). Every cluster advances by
the average advance of the font, multiplied by its east asian width class
(UAX #11): narrow and half-width clusters count once, wide and full-width
clusters count twice.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package estimate

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.glyphs")
}
