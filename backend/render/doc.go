/*
Package render writes reader documents in an output format.

Three formats are supported:

    layout   a JSON description of every page, line and font run (default)
    html     a static HTML preview with absolutely positioned lines
    pdf      a PDF file, created from a page description by pdfcpu

The layout and html formats are deterministic: rendering a document twice
yields identical bytes. PDF files carry creation timestamps and IDs and are
not.

Text bound to the missing-coverage pseudo font is rendered according to the
fallback policy of the font index: either every uncovered code point is
replaced by a substitute glyph, or the text is kept and handed to the
output's fallback font.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package render

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.render'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.render")
}
