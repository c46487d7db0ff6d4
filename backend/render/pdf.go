package render

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/engine/layout"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

// Core PDF fonts, used for runs of fonts without a PDF font name.
const (
	CoreRegular = "Helvetica"
	CoreBold    = "Helvetica-Bold"
)

// PDFRenderer creates PDF files with pdfcpu. Text runs are set with the PDF
// font name mapped to their font ID. Fonts without a name are replaced by
// a core font; text set with a core font is limited to the Windows-1252
// repertoire, other code points are output as '?' and reported by
// Warnings.
//
// Font names refer to fonts known to pdfcpu, i.e. core fonts or user fonts
// installed into pdfcpu's configuration. See InstallFonts.
type PDFRenderer struct {
	fonts
	names map[font.ID]string
}

var _ Renderer = &PDFRenderer{}
var _ Reporter = &PDFRenderer{}

// NewPDFRenderer creates a PDF renderer. names maps font IDs to PDF font
// names and may be nil.
func NewPDFRenderer(index *fontindex.Index, names map[font.ID]string) *PDFRenderer {
	m := make(map[font.ID]string, len(names))
	for id, n := range names {
		m[id] = n
	}
	return &PDFRenderer{fonts: fonts{index}, names: m}
}

// Format is part of interface Renderer.
func (pr *PDFRenderer) Format() Format {
	return PDF
}

// Render is part of interface Renderer.
func (pr *PDFRenderer) Render(w io.Writer, doc *document.ReaderDocument) error {
	spec, err := pr.spec(doc)
	if err != nil {
		return err
	}
	desc, err := json.Marshal(spec)
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot describe PDF of %s", doc.ID)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Create(nil, bytes.NewReader(desc), w, conf); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot create PDF of %s", doc.ID)
	}
	tracer().Debugf("PDF of %s: %d pages", doc.ID, len(doc.Pages))
	return nil
}

// The following types mirror pdfcpu's JSON input for creating PDF files.

type pdfSpec struct {
	Paper  string             `json:"paper"`
	Origin string             `json:"origin"`
	Pages  map[string]pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Align string     `json:"align,omitempty"`
	Font  pdfFont    `json:"font"`
}

type pdfFont struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Color string `json:"col,omitempty"`
}

// paperName returns pdfcpu's name for a portrait page size.
func paperName(size dimen.Point) (string, bool) {
	switch size {
	case dimen.DINA4:
		return "A4P", true
	case dimen.DINA5:
		return "A5P", true
	case dimen.USLetter:
		return "LetterP", true
	case dimen.USLegal:
		return "LegalP", true
	}
	return "", false
}

func (pr *PDFRenderer) spec(doc *document.ReaderDocument) (pdfSpec, error) {
	spec := pdfSpec{Origin: "LowerLeft", Pages: make(map[string]pdfPage, len(doc.Pages))}
	for _, p := range doc.Pages {
		size := dimen.Point{X: p.Width(), Y: p.Height()}
		paper, ok := paperName(size)
		if !ok {
			return spec, core.Error(core.EINVALID,
				"PDF output supports A4, A5, Letter and Legal pages, not %.1f×%.1fbp",
				size.X.Points(), size.Y.Points())
		}
		spec.Paper = paper
		spec.Pages[strconv.Itoa(p.Number)] = pr.page(p, len(doc.Pages))
	}
	return spec, nil
}

func (pr *PDFRenderer) page(p layout.Page, total int) pdfPage {
	var texts []pdfText
	height := p.Height()
	left, top := p.Content.TopL.X, p.Content.TopL.Y
	for _, pl := range p.Placements {
		bases := pl.Baselines()
		size := int(math.Round(pl.Size.Points()))
		for i, l := range pl.Lines {
			y := pt(height - (top + bases[i]))
			for _, r := range l.Runs {
				name, value := pr.fontFor(pl.Block, r)
				if strings.TrimSpace(value) == "" {
					continue
				}
				texts = append(texts, pdfText{
					Value: value,
					Pos:   [2]float64{pt(left + r.X), y},
					Font:  pdfFont{Name: name, Size: size},
				})
			}
		}
	}
	texts = append(texts, pdfText{
		Value: footer(p.Number, total),
		Pos:   [2]float64{pt(p.Width() / 2), pt(FooterOffset)},
		Align: "center",
		Font:  pdfFont{Name: CoreRegular, Size: 10, Color: "#787878"},
	})
	return pdfPage{Content: pdfContent{Text: texts}}
}

// fontFor returns the PDF font name and the text for a run.
func (pr *PDFRenderer) fontFor(b layout.Block, r layout.Run) (string, string) {
	value := pr.text(r)
	if name, ok := pr.names[pr.resource(r).ID]; ok {
		return name, value
	}
	name := CoreRegular
	if b.Kind == layout.Heading {
		name = CoreBold
	}
	return name, winAnsi(value)
}

// winAnsi replaces code points outside of Windows-1252 by '?'.
func winAnsi(s string) string {
	return strings.Map(func(r rune) rune {
		if encodable(r) {
			return r
		}
		return '?'
	}, s)
}

func encodable(r rune) bool {
	_, ok := charmap.Windows1252.EncodeRune(r)
	return ok
}
