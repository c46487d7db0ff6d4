/*
Package document assembles stories into paginated reader documents.

An assembler turns stories into layout blocks (front matter, table of
contents, story sections with annotations and glossaries), segments their
text into font runs and paginates them with a layout engine. Documents pass
through the states

    Draft → SegmentsResolved → LaidOut → TocStable → Final

Page numbers of the table of contents are found by a fixed-point
iteration: lay out, fill the page numbers into the TOC entries, and lay out
again until the page numbers no longer change. If they do not settle within
a bounded number of passes, page numbers are set into fields of fixed width,
which keeps the size of the TOC independent of the numbers, and the
document is flagged accordingly.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package document

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.document'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.document")
}
