package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/engine/layout"
)

// Format is an output format.
type Format string

// Output formats.
const (
	Layout Format = "layout"
	HTML   Format = "html"
	PDF    Format = "pdf"
)

// Formats lists the supported output formats.
var Formats = []Format{Layout, HTML, PDF}

// ParseFormat parses the name of an output format. The empty string
// selects the layout format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Layout, nil
	case Layout, HTML, PDF:
		return f, nil
	}
	return Layout, core.Error(core.EINVALID, "unknown output format %q", s)
}

// Extension returns the file name extension for a format, without dot.
func (f Format) Extension() string {
	switch f {
	case HTML:
		return "html"
	case PDF:
		return "pdf"
	}
	return "json"
}

// Renderer writes reader documents. Renderers are safe for concurrent use.
type Renderer interface {
	Format() Format
	Render(w io.Writer, doc *document.ReaderDocument) error
}

// Reporter is implemented by renderers which may lose text of a document,
// e.g. code points an output format cannot set.
type Reporter interface {
	Warnings(doc *document.ReaderDocument) core.Warnings
}

// WarningsOf returns the warnings of rendering doc with r.
func WarningsOf(r Renderer, doc *document.ReaderDocument) core.Warnings {
	if rep, ok := r.(Reporter); ok {
		return rep.Warnings(doc)
	}
	return nil
}

// New creates a renderer for a format. Font families and the fallback
// policy are taken from the font index the document has been set with.
// For PDF, the fonts of the index are installed as pdfcpu user fonts.
func New(format Format, index *fontindex.Index) (Renderer, error) {
	if index == nil {
		return nil, core.Error(core.EMISSING, "renderer needs a font index")
	}
	switch format {
	case Layout, "":
		return &LayoutRenderer{fonts: fonts{index}}, nil
	case HTML:
		return &HTMLRenderer{fonts: fonts{index}}, nil
	case PDF:
		return NewPDFRenderer(index, InstallFonts(index)), nil
	}
	return nil, core.Error(core.EINVALID, "unknown output format %q", format)
}

// --- Helpers shared by renderers -------------------------------------------

type fonts struct {
	index *fontindex.Index
}

// resource returns the font resource a run is set with. Runs of the
// missing-coverage font use the built-in fallback font.
func (fs fonts) resource(r layout.Run) *font.Resource {
	if !r.Missing {
		if f, ok := fs.index.Font(r.Font); ok {
			return f
		}
	}
	return font.FallbackFont()
}

// text returns the text to output for a run, applying the fallback policy
// to uncovered text.
func (fs fonts) text(r layout.Run) string {
	if !r.Missing || fs.index.Policy() == fontindex.KeepText {
		return r.Text
	}
	return substitute(r.Text)
}

// substitute replaces every visible code point by the substitute glyph,
// except punctuation the fallback font covers. Combining marks are
// dropped, as they would otherwise add boxes.
func substitute(s string) string {
	fallback := font.FallbackFont()
	return strings.Map(func(c rune) rune {
		switch {
		case unicode.IsSpace(c):
			return c
		case unicode.Is(unicode.Mn, c), unicode.Is(unicode.Me, c):
			return -1
		case unicode.IsPunct(c) && fallback.Covers(c):
			return c
		}
		return fontindex.SubstituteRune
	}, s)
}

// FooterOffset is the distance of the page number line from the bottom
// edge of a page.
const FooterOffset = 15 * dimen.MM

// footer is the page number line of a page.
func footer(page, total int) string {
	return fmt.Sprintf("%d / %d", page, total)
}

// pt converts a dimension to big points, rounded to 1/100 bp.
func pt(d dimen.Dimen) float64 {
	return math.Round(d.Points()*100) / 100
}
