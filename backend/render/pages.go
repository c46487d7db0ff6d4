package render

import (
	"encoding/json"
	"io"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/engine/segment"
)

// LayoutRenderer writes a JSON description of a document's pages. Positions
// are given in big points, measured from the top left corner of a page.
type LayoutRenderer struct {
	fonts
}

var _ Renderer = &LayoutRenderer{}

// Format is part of interface Renderer.
func (lr *LayoutRenderer) Format() Format {
	return Layout
}

type pageDescription struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	State       string              `json:"state"`
	Passes      int                 `json:"passes"`
	TocFallback bool                `json:"toc_fallback"`
	Toc         []document.TocEntry `json:"toc"`
	Fonts       []fontDescription   `json:"fonts"`
	Pages       []pageJSON          `json:"pages"`
	Warnings    core.Warnings       `json:"warnings,omitempty"`
}

type fontDescription struct {
	ID     string `json:"id"`
	Family string `json:"family"`
	Origin string `json:"origin"`
}

type pageJSON struct {
	Number int         `json:"number"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Footer string      `json:"footer"`
	Blocks []blockJSON `json:"blocks"`
}

type blockJSON struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Y         float64    `json:"y"`
	Height    float64    `json:"height"`
	Size      float64    `json:"size"`
	Target    string     `json:"target,omitempty"`
	Continued bool       `json:"continued,omitempty"`
	Continues bool       `json:"continues,omitempty"`
	Lines     []lineJSON `json:"lines"`
}

type lineJSON struct {
	Baseline float64   `json:"baseline"`
	Width    float64   `json:"width"`
	Runs     []runJSON `json:"runs"`
}

type runJSON struct {
	Text    string  `json:"text"`
	Font    string  `json:"font"`
	X       float64 `json:"x"`
	Width   float64 `json:"width"`
	Missing bool    `json:"missing,omitempty"`
	RTL     bool    `json:"rtl,omitempty"`
}

// Render is part of interface Renderer.
func (lr *LayoutRenderer) Render(w io.Writer, doc *document.ReaderDocument) error {
	desc := lr.describe(doc)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(desc); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write layout of %s", doc.ID)
	}
	return nil
}

func (lr *LayoutRenderer) describe(doc *document.ReaderDocument) pageDescription {
	desc := pageDescription{
		ID:          doc.ID,
		Title:       doc.Title,
		State:       doc.State.String(),
		Passes:      doc.Passes,
		TocFallback: doc.TocFallback,
		Toc:         doc.Toc,
		Fonts:       []fontDescription{},
		Pages:       make([]pageJSON, 0, len(doc.Pages)),
		Warnings:    doc.Warnings,
	}
	seen := make(map[string]bool)
	for _, p := range doc.Pages {
		page := pageJSON{
			Number: p.Number,
			Width:  pt(p.Width()),
			Height: pt(p.Height()),
			Footer: footer(p.Number, len(doc.Pages)),
			Blocks: make([]blockJSON, 0, len(p.Placements)),
		}
		left, top := p.Content.TopL.X, p.Content.TopL.Y
		for _, pl := range p.Placements {
			b := blockJSON{
				ID:        string(pl.Block.ID),
				Kind:      pl.Block.Kind.String(),
				Y:         pt(top + pl.Y),
				Height:    pt(pl.Height),
				Size:      pt(pl.Size),
				Target:    string(pl.Block.Target),
				Continued: pl.Continued,
				Continues: pl.Continues,
				Lines:     make([]lineJSON, 0, len(pl.Lines)),
			}
			bases := pl.Baselines()
			for i, l := range pl.Lines {
				line := lineJSON{Baseline: pt(top + bases[i]), Width: pt(l.Width)}
				for _, r := range l.Runs {
					f := lr.resource(r)
					if !seen[string(f.ID)] {
						seen[string(f.ID)] = true
						desc.Fonts = append(desc.Fonts, fontDescription{
							ID:     string(f.ID),
							Family: f.Name,
							Origin: f.Origin.String(),
						})
					}
					line.Runs = append(line.Runs, runJSON{
						Text:    lr.text(r),
						Font:    string(f.ID),
						X:       pt(left + r.X),
						Width:   pt(r.Width),
						Missing: r.Missing,
						RTL:     r.Direction == segment.RightToLeft,
					})
				}
				b.Lines = append(b.Lines, line)
			}
			page.Blocks = append(page.Blocks, b)
		}
		desc.Pages = append(desc.Pages, page)
	}
	return desc
}
