package layout

import (
	"fmt"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/dimen"
)

// Geometry is the size of the pages and their margins.
type Geometry struct {
	Page    dimen.Point // width and height of a page
	Margins dimen.Insets
}

// A4Geometry is an A4 page with 20 mm margins all around.
var A4Geometry = Geometry{
	Page:    dimen.DINA4,
	Margins: dimen.Insets{Top: 20 * dimen.MM, Right: 20 * dimen.MM, Bottom: 20 * dimen.MM, Left: 20 * dimen.MM},
}

// PageRect is the rectangle of a page.
func (g Geometry) PageRect() dimen.Rect {
	return dimen.Rect{TopL: dimen.Origin, BotR: g.Page}
}

// Content is the rectangle of a page inside the margins.
func (g Geometry) Content() dimen.Rect {
	return g.PageRect().Shrink(g.Margins)
}

// Validate checks that the content area of the geometry is non-empty.
func (g Geometry) Validate() error {
	c := g.Content()
	if c.Width() <= 0 || c.Height() <= 0 {
		return core.Error(core.EINVALID, "page geometry %s leaves no content area", g)
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%.1f×%.1fbp", g.Page.X.Points(), g.Page.Y.Points())
}

// Style holds the typographic parameters of the layout.
type Style struct {
	BaseSize      dimen.Dimen // font size of paragraphs
	HeadingScale  []float64   // size factor per heading level, starting with level 1
	Leading       float64     // minimum baseline distance, as a factor of the font size
	ParSkip       dimen.Dimen // space after a paragraph
	HeadingSkip   dimen.Dimen // space after a heading
	RowHeight     dimen.Dimen // height of a glossary row line
	AnnotationRow dimen.Dimen // height of an annotation line
	TocSize       dimen.Dimen // font size of TOC entries
	TocSkip       dimen.Dimen // space after a TOC entry
}

// DefaultStyle is the style used when no style is given.
var DefaultStyle = Style{
	BaseSize:      11 * dimen.BP,
	HeadingScale:  []float64{1.8, 1.4, 1.2},
	Leading:       1.2,
	ParSkip:       6 * dimen.BP,
	HeadingSkip:   8 * dimen.BP,
	RowHeight:     14 * dimen.BP,
	AnnotationRow: 13 * dimen.BP,
	TocSize:       11 * dimen.BP,
	TocSkip:       2 * dimen.BP,
}

// size returns the font size for a block.
func (st Style) size(b Block) dimen.Dimen {
	if b.Size > 0 {
		return b.Size
	}
	switch b.Kind {
	case Heading:
		lvl := b.Level
		if lvl < 1 {
			lvl = 1
		}
		if lvl > len(st.HeadingScale) {
			if len(st.HeadingScale) == 0 {
				return st.BaseSize
			}
			lvl = len(st.HeadingScale)
		}
		return st.BaseSize.Scale(st.HeadingScale[lvl-1])
	case TocEntry:
		if st.TocSize > 0 {
			return st.TocSize
		}
	}
	return st.BaseSize
}

// skip returns the space following a block.
func (st Style) skip(k Kind) dimen.Dimen {
	switch k {
	case Paragraph:
		return st.ParSkip
	case Heading:
		return st.HeadingSkip
	case TocEntry:
		return st.TocSkip
	}
	return 0
}

// rowHeight returns the fixed line height for a kind of block, or 0.
func (st Style) rowHeight(k Kind) dimen.Dimen {
	switch k {
	case GlossaryRow:
		return st.RowHeight
	case AnnotationLine:
		return st.AnnotationRow
	}
	return 0
}
