/*
Package layout paginates blocks of segmented text into fixed-size pages.

Overview

Input to the layout engine is a sequence of blocks: headings, paragraphs,
glossary rows, annotation lines and table-of-contents entries. Every block
carries its text as a list of segments (see package segment), each bound to
a font of a font index.

Blocks are set line by line, filling lines greedily at line-wrap
opportunities (UAX #14). Headings, paragraphs and TOC entries get their
line height from the metrics of the fonts involved; glossary rows and
annotation lines have fixed row heights.

Blocks are appended to the current page until the next block would
overflow the page's content height. Paragraphs may be split across a page
boundary, but only at a segment boundary, so a font run is never broken
apart. All other blocks are never split. A block which cannot be placed on
an otherwise empty page is an error (see OverflowError).

Layout is deterministic: identical blocks and geometry yield identical
pages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package layout

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.layout'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.layout")
}
