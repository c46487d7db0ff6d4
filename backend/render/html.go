package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/engine/layout"
	"github.com/gradreader/readerpack/engine/segment"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLRenderer writes a static HTML preview of a document. Every page is a
// section of fixed size, every line is positioned absolutely, and every run
// is a span naming its font family.
type HTMLRenderer struct {
	fonts
}

var _ Renderer = &HTMLRenderer{}

// Format is part of interface Renderer.
func (hr *HTMLRenderer) Format() Format {
	return HTML
}

const stylesheet = `body { background: #ddd; margin: 0; }
section.page { position: relative; background: #fff; margin: 12pt auto; overflow: hidden; }
div.line { position: absolute; white-space: pre; }
span.run { position: absolute; white-space: pre; }
span.missing { color: #888; }
footer { position: absolute; left: 0; right: 0; text-align: center; font-size: 10pt; color: #787878; }
a.toc { color: inherit; text-decoration: none; }`

// Render is part of interface Renderer.
func (hr *HTMLRenderer) Render(w io.Writer, doc *document.ReaderDocument) error {
	root := hr.tree(doc)
	if err := html.Render(w, root); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write HTML of %s", doc.ID)
	}
	return nil
}

func (hr *HTMLRenderer) tree(doc *document.ReaderDocument) *html.Node {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	h := element(atom.Html)
	root.AppendChild(h)
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	title := element(atom.Title)
	title.AppendChild(text(doc.Title))
	head.AppendChild(title)
	style := element(atom.Style)
	style.AppendChild(text(stylesheet))
	head.AppendChild(style)
	h.AppendChild(head)
	body := element(atom.Body, "data-state", doc.State.String())
	h.AppendChild(body)
	for _, p := range doc.Pages {
		body.AppendChild(hr.page(p, len(doc.Pages)))
	}
	return root
}

func (hr *HTMLRenderer) page(p layout.Page, total int) *html.Node {
	sect := element(atom.Section,
		"class", "page",
		"id", "page-"+strconv.Itoa(p.Number),
		"style", fmt.Sprintf("width:%gpt;height:%gpt", pt(p.Width()), pt(p.Height())))
	left, top := p.Content.TopL.X, p.Content.TopL.Y
	for _, pl := range p.Placements {
		block := element(atom.Div,
			"class", "block "+pl.Block.Kind.String(),
			"id", string(pl.Block.ID),
			"style", fmt.Sprintf("font-size:%gpt", pt(pl.Size)))
		parent := block
		if pl.Block.Target != "" {
			a := element(atom.A, "class", "toc", "href", "#"+string(pl.Block.Target))
			block.AppendChild(a)
			parent = a
		}
		bases := pl.Baselines()
		for i, l := range pl.Lines {
			// lines are positioned by the top of their ascent
			line := element(atom.Div, "class", "line",
				"style", fmt.Sprintf("top:%gpt;left:%gpt;height:%gpt",
					pt(top+bases[i]-l.Ascent), pt(left), pt(l.Height)))
			for _, r := range l.Runs {
				line.AppendChild(hr.run(r))
			}
			parent.AppendChild(line)
		}
		sect.AppendChild(block)
	}
	foot := element(atom.Footer, "style", fmt.Sprintf("top:%gpt", pt(p.Height()-FooterOffset)))
	foot.AppendChild(text(footer(p.Number, total)))
	sect.AppendChild(foot)
	return sect
}

func (hr *HTMLRenderer) run(r layout.Run) *html.Node {
	f := hr.resource(r)
	class := "run"
	if r.Missing {
		class = "run missing"
	}
	span := element(atom.Span,
		"class", class,
		"data-font", string(f.ID),
		"style", fmt.Sprintf("left:%gpt;font-family:'%s',sans-serif", pt(r.X), f.Name))
	if r.Direction == segment.RightToLeft {
		span.Attr = append(span.Attr, html.Attribute{Key: "dir", Val: "rtl"})
	}
	span.AppendChild(text(hr.text(r)))
	return span
}

// element creates an element node with attributes given as key-value
// pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
