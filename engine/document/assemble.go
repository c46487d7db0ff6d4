package document

import (
	"fmt"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/layout"
	"github.com/gradreader/readerpack/engine/segment"
	"github.com/gradreader/readerpack/input/story"
)

// Assembler creates reader documents from stories. An assembler is safe for
// concurrent use if its layout engine is.
type Assembler struct {
	segmenter *segment.Segmenter
	engine    *layout.Engine
}

// NewAssembler creates an assembler for a font index. If engine is nil, a
// layout engine with estimated glyph widths and the default style is used.
func NewAssembler(index *fontindex.Index, engine *layout.Engine) *Assembler {
	if engine == nil {
		engine = layout.NewEngine(index, nil, layout.DefaultStyle)
	}
	return &Assembler{segmenter: segment.New(index), engine: engine}
}

// Assemble creates documents for stories. In combined mode a single
// document with a shared table of contents is returned, otherwise one
// document per story, in the order of the stories.
func (a *Assembler) Assemble(stories []story.Story, opts Options) ([]*ReaderDocument, error) {
	if len(stories) == 0 {
		return nil, core.Error(core.EMISSING, "no stories to assemble")
	}
	if opts.CombinedMode {
		d, err := a.AssembleCollection(stories, opts)
		if err != nil {
			return nil, err
		}
		return []*ReaderDocument{d}, nil
	}
	docs := make([]*ReaderDocument, len(stories))
	for i, s := range stories {
		d, err := a.AssembleStory(s, opts)
		if err != nil {
			return nil, err
		}
		docs[i] = d
	}
	return docs, nil
}

// AssembleCollection creates a single document for all stories: a title
// page, a table of contents, and one section per story.
func (a *Assembler) AssembleCollection(stories []story.Story, opts Options) (*ReaderDocument, error) {
	opts = opts.withDefaults()
	d := &ReaderDocument{ID: CollectionID, Title: CollectionTitle, State: Draft}
	front := &composer{segmenter: a.segmenter}
	front.frontMatter(opts)
	body := &composer{segmenter: a.segmenter}
	for _, s := range stories {
		d.Stories = append(d.Stories, s.ID)
		body.section(s, opts)
		d.Toc = append(d.Toc, TocEntry{Label: tocLabel(s), StoryID: s.ID, Target: titleID(s)})
	}
	d.Warnings = append(front.warnings, body.warnings...)
	d.State = SegmentsResolved
	if err := a.settle(d, front.blocks, body.blocks, true, opts); err != nil {
		return nil, err
	}
	return d, nil
}

// AssembleStory creates a document for a single story. Its table of
// contents holds a single entry and is not set on a page of its own.
func (a *Assembler) AssembleStory(s story.Story, opts Options) (*ReaderDocument, error) {
	opts = opts.withDefaults()
	d := &ReaderDocument{ID: s.ID, Title: s.Title, Stories: []string{s.ID}, State: Draft}
	body := &composer{segmenter: a.segmenter}
	body.section(s, opts)
	d.Toc = []TocEntry{{Label: tocLabel(s), StoryID: s.ID, Target: titleID(s)}}
	d.Warnings = body.warnings
	d.State = SegmentsResolved
	if err := a.settle(d, nil, body.blocks, false, opts); err != nil {
		return nil, err
	}
	return d, nil
}

// settle lays out a document until the page numbers of its TOC are stable.
func (a *Assembler) settle(d *ReaderDocument, front, body []layout.Block, withToc bool,
	opts Options) error {
	//
	numbers := make([]int, len(d.Toc))
	stable := false
	var pages []layout.Page
	var err error
	for pass := 1; pass <= opts.TocMaxPasses && !stable; pass++ {
		d.Passes = pass
		pages, err = a.layout(d, front, body, withToc, numbers, 0, opts)
		if err != nil {
			return err
		}
		d.State = LaidOut
		found := targetPages(pages, d.Toc)
		stable = !withToc || equal(found, numbers)
		numbers = found
		tracer().Debugf("%s: pass %d, TOC pages %v", d.ID, pass, numbers)
	}
	if !stable {
		// Fixed-width page number fields: the size of the TOC no longer
		// depends on the numbers, so one more pass settles them.
		w := opts.PageNumberWidth
		for i := 0; i < 2; i++ {
			d.Passes++
			if pages, err = a.layout(d, front, body, withToc, numbers, w, opts); err != nil {
				return err
			}
			found := targetPages(pages, d.Toc)
			stable = equal(found, numbers)
			numbers = found
			if stable {
				break
			}
		}
		if !stable {
			tracer().Errorf("%s: TOC page numbers unstable even with fixed-width fields", d.ID)
		}
		d.TocFallback = true
		msg := fmt.Sprintf("table of contents did not settle within %d passes; using %d-digit page number fields",
			opts.TocMaxPasses, w)
		tracer().Infof("%s: %s", d.ID, msg)
		d.Warnings = append(d.Warnings, core.Warning{Kind: core.TocConvergence, Message: msg})
	}
	for i := range d.Toc {
		d.Toc[i].Page = numbers[i]
	}
	d.Pages = pages
	d.State = TocStable
	d.Warnings = d.Warnings.MergeGaps()
	d.State = Final
	tracer().Infof("%s: %d pages after %d passes", d.ID, len(pages), d.Passes)
	return nil
}

func (a *Assembler) layout(d *ReaderDocument, front, body []layout.Block, withToc bool,
	numbers []int, width int, opts Options) ([]layout.Page, error) {
	//
	blocks := make([]layout.Block, 0, len(front)+len(body)+len(d.Toc)+1)
	blocks = append(blocks, front...)
	if withToc {
		toc := &composer{segmenter: a.segmenter}
		toc.toc(d.Toc, numbers, width)
		blocks = append(blocks, toc.blocks...)
	}
	blocks = append(blocks, body...)
	pages, err := a.engine.Layout(blocks, opts.Geometry)
	if err != nil {
		return nil, fmt.Errorf("laying out %s: %w", d.ID, err)
	}
	return pages, nil
}

// targetPages finds the pages the targets of TOC entries are placed on.
func targetPages(pages []layout.Page, toc []TocEntry) []int {
	at := make(map[layout.BlockID]int)
	for _, p := range pages {
		for _, pl := range p.Placements {
			if _, ok := at[pl.Block.ID]; !ok {
				at[pl.Block.ID] = p.Number
			}
		}
	}
	found := make([]int, len(toc))
	for i, e := range toc {
		found[i] = at[e.Target]
	}
	return found
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
