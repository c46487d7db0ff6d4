package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/engine/layout"
	"github.com/gradreader/readerpack/input/story"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

var profile = story.Profile{NativeLanguage: "en", LearningLanguage: "es", Schema: story.CEFR, Level: "A2"}

func index(t *testing.T, policy fontindex.FallbackPolicy) *fontindex.Index {
	b := fontindex.NewBuilder()
	require.NoError(t, b.Register(font.FallbackFont()))
	return b.SetFallbackPolicy(policy).Build()
}

func collection(t *testing.T, ix *fontindex.Index) *document.ReaderDocument {
	var ss []story.Story
	for i := 1; i <= 3; i++ {
		s := story.Story{ID: story.IDFor(i), Index: i, Title: "El mercado " + strings.Repeat("I", i)}
		for j := 0; j < 8; j++ {
			s.Paragraphs = append(s.Paragraphs, story.Paragraph{
				Text: strings.Repeat("Ana compra pan en el mercado. ", 8),
			})
		}
		ss = append(ss, s)
	}
	d, err := document.NewAssembler(ix, nil).AssembleCollection(ss, document.Options{Profile: profile})
	require.NoError(t, err)
	return d
}

func mixed(t *testing.T, ix *fontindex.Index) *document.ReaderDocument {
	s := story.Story{ID: "story-1", Index: 1, Title: "Mixed",
		Paragraphs: []story.Paragraph{{Text: "Hola 世界 amigo"}}}
	d, err := document.NewAssembler(ix, nil).AssembleStory(s, document.Options{Profile: profile})
	require.NoError(t, err)
	return d
}

func TestParseFormat(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.render")
	defer teardown()
	//
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Layout, f)
	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, "pdf", f.Extension())
	assert.Equal(t, "json", Layout.Extension())
	_, err = ParseFormat("docx")
	assert.Equal(t, core.EINVALID, core.Code(err))
	_, err = New(HTML, nil)
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestLayoutIsDeterministic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.render")
	defer teardown()
	//
	ix := index(t, fontindex.SubstituteGlyph)
	r, err := New(Layout, ix)
	require.NoError(t, err)
	var first, second bytes.Buffer
	require.NoError(t, r.Render(&first, collection(t, ix)))
	require.NoError(t, r.Render(&second, collection(t, ix)))
	assert.Equal(t, first.Bytes(), second.Bytes())
	//
	var desc pageDescription
	require.NoError(t, json.Unmarshal(first.Bytes(), &desc))
	assert.Equal(t, document.CollectionID, desc.ID)
	assert.Equal(t, "final", desc.State)
	require.Greater(t, len(desc.Pages), 3)
	last := desc.Pages[len(desc.Pages)-1]
	assert.Equal(t, footer(last.Number, len(desc.Pages)), last.Footer)
	require.Len(t, desc.Fonts, 1)
	assert.Equal(t, "Go Sans", desc.Fonts[0].Family)
	assert.Equal(t, "catalog", desc.Fonts[0].Origin)
	first1 := desc.Pages[0].Blocks[0]
	assert.Equal(t, "front/title", first1.ID)
	assert.Equal(t, pt(layout.A4Geometry.Margins.Top), first1.Y, "content starts at the top margin")
}

func TestMissingCoveragePolicies(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.render")
	defer teardown()
	//
	runs := func(policy fontindex.FallbackPolicy) []runJSON {
		ix := index(t, policy)
		r, err := New(Layout, ix)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, mixed(t, ix)))
		var desc pageDescription
		require.NoError(t, json.Unmarshal(buf.Bytes(), &desc))
		var missing []runJSON
		for _, b := range desc.Pages[0].Blocks {
			for _, l := range b.Lines {
				for _, run := range l.Runs {
					if run.Missing {
						missing = append(missing, run)
					}
				}
			}
		}
		return missing
	}
	subst := runs(fontindex.SubstituteGlyph)
	require.Len(t, subst, 1)
	assert.Equal(t, "□□", strings.TrimSpace(subst[0].Text))
	assert.Equal(t, "go-sans", subst[0].Font)
	keep := runs(fontindex.KeepText)
	require.Len(t, keep, 1)
	assert.Equal(t, "世界", strings.TrimSpace(keep[0].Text))
}

func TestSubstitute(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.render")
	defer teardown()
	//
	assert.Equal(t, "□□ □", substitute("世界 字"))
	assert.Equal(t, "□", substitute("é"))
	assert.Equal(t, "hola ?????? ?", winAnsi("hola Привет 世"))
	assert.Equal(t, "• café", winAnsi("• café"))
}

func TestHTMLPreview(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.render")
	defer teardown()
	//
	ix := index(t, fontindex.SubstituteGlyph)
	d := collection(t, ix)
	r, err := New(HTML, ix)
	require.NoError(t, err)
	var first, second bytes.Buffer
	require.NoError(t, r.Render(&first, d))
	require.NoError(t, r.Render(&second, d))
	assert.Equal(t, first.String(), second.String())
	//
	root, err := html.Parse(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	var pages, links int
	var footers []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "section":
				pages++
			case "a":
				links++
				assert.True(t, strings.HasPrefix(attr(n, "href"), "#story-"))
			case "footer":
				footers = append(footers, n.FirstChild.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	assert.Equal(t, d.PageCount(), pages)
	assert.Equal(t, len(d.Toc), links)
	require.Len(t, footers, d.PageCount())
	assert.Equal(t, footer(1, d.PageCount()), footers[0])
	assert.Contains(t, first.String(), "font-family:&#39;Go Sans&#39;,sans-serif")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestPDFDescription(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.render")
	defer teardown()
	//
	ix := index(t, fontindex.SubstituteGlyph)
	d := collection(t, ix)
	pr := NewPDFRenderer(ix, map[font.ID]string{"go-sans": "GoSans"})
	spec, err := pr.spec(d)
	require.NoError(t, err)
	assert.Equal(t, "A4P", spec.Paper)
	require.Len(t, spec.Pages, d.PageCount())
	first := spec.Pages["1"].Content.Text
	require.NotEmpty(t, first)
	assert.Equal(t, document.CollectionTitle, first[0].Value)
	assert.Equal(t, "GoSans", first[0].Font.Name)
	assert.Greater(t, first[0].Pos[1], first[1].Pos[1], "origin is at the lower left")
	foot := first[len(first)-1]
	assert.Equal(t, footer(1, d.PageCount()), foot.Value)
	assert.Equal(t, CoreRegular, foot.Font.Name)
	//
	plain := NewPDFRenderer(ix, nil)
	spec, err = plain.spec(d)
	require.NoError(t, err)
	assert.Equal(t, CoreBold, spec.Pages["1"].Content.Text[0].Font.Name)
}

func TestPDFFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.render")
	defer teardown()
	//
	ix := index(t, fontindex.SubstituteGlyph)
	d := collection(t, ix)
	r, err := New(PDF, ix)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	n, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, d.PageCount(), n)
}

func TestPDFSetsTextWithInstalledFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.render")
	defer teardown()
	//
	ix := index(t, fontindex.SubstituteGlyph)
	s := story.Story{ID: "story-1", Index: 1, Title: "Привет",
		Paragraphs: []story.Paragraph{{Text: "Маша читает книгу."}}}
	d, err := document.NewAssembler(ix, nil).AssembleStory(s, document.Options{Profile: profile})
	require.NoError(t, err)
	r, err := New(PDF, ix)
	require.NoError(t, err)
	pr, ok := r.(*PDFRenderer)
	require.True(t, ok)
	name, ok := pr.names[font.FallbackFont().ID]
	require.True(t, ok, "fallback font is installed")
	assert.True(t, pdffont.IsUserFont(name))
	spec, err := pr.spec(d)
	require.NoError(t, err)
	texts := spec.Pages["1"].Content.Text
	require.NotEmpty(t, texts)
	assert.Equal(t, "Привет", texts[0].Value)
	assert.Equal(t, name, texts[0].Font.Name)
	for _, tx := range texts[:len(texts)-1] {
		assert.NotContains(t, tx.Value, "?")
	}
	assert.Empty(t, WarningsOf(r, d))
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	n, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, d.PageCount(), n)
	//
	plain := NewPDFRenderer(ix, nil)
	spec, err = plain.spec(d)
	require.NoError(t, err)
	assert.Equal(t, "??????", spec.Pages["1"].Content.Text[0].Value)
	ws := WarningsOf(plain, d)
	require.Len(t, ws, 1)
	assert.Equal(t, core.CoverageGap, ws[0].Kind)
	assert.Equal(t, "story-1", ws[0].StoryID)
	assert.Equal(t, "Cyrl", ws[0].Script)
	assert.Contains(t, ws[0].CodePoints, 'П')
	assert.Contains(t, ws[0].CodePoints, 'ш')
}
