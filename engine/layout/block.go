package layout

import (
	"fmt"

	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/engine/segment"
)

// Kind is the type of a layout block.
type Kind int8

// Kinds of layout blocks.
const (
	Heading Kind = iota
	Paragraph
	GlossaryRow
	AnnotationLine
	TocEntry
)

func (k Kind) String() string {
	switch k {
	case Heading:
		return "heading"
	case Paragraph:
		return "paragraph"
	case GlossaryRow:
		return "glossary-row"
	case AnnotationLine:
		return "annotation"
	case TocEntry:
		return "toc-entry"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Splittable is true for kinds of blocks which may be split across a page
// boundary.
func (k Kind) Splittable() bool {
	return k == Paragraph
}

// BlockID identifies a block within a document. TOC entries reference
// headings by ID.
type BlockID string

// Block is a unit of layout. Text is the source text the block's segments
// refer to.
type Block struct {
	ID          BlockID
	Kind        Kind
	Text        string
	Segments    []segment.TextSegment
	Level       int         // heading level, starting at 1
	Target      BlockID     // TOC entries: ID of the heading referenced
	BreakBefore bool        // start the block on a fresh page
	Size        dimen.Dimen // font size; zero selects the style's size for the kind
}

func (b Block) String() string {
	return fmt.Sprintf("%s[%s]", b.Kind, b.ID)
}

// sub returns a block for the segments [from…to) of b. The segments of the
// sub-block keep their offsets into b.Text.
func (b Block) sub(from, to int) Block {
	c := b
	c.Segments = b.Segments[from:to]
	return c
}
