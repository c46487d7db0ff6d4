package layout

import (
	"fmt"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/glyphing"
	"github.com/gradreader/readerpack/engine/glyphing/estimate"
)

// Page is a page of laid out blocks. The page's rectangle is the full page;
// placements are relative to the top of the content area.
type Page struct {
	dimen.Rect
	Number     int // 1-based
	Content    dimen.Rect
	Placements []Placement
}

// Placement is a block (or part of a paragraph) placed on a page.
type Placement struct {
	Block     Block
	Y         dimen.Dimen // offset from the top of the content area
	Height    dimen.Dimen
	Size      dimen.Dimen // font size
	Lines     []Line
	Continued bool // the block started on a previous page
	Continues bool // the block is continued on the next page
}

// Measured is the result of setting a block into lines.
type Measured struct {
	Lines  []Line
	Height dimen.Dimen
}

// OverflowError is raised for a block which cannot be placed on an empty
// page.
type OverflowError struct {
	Block     BlockID
	Kind      Kind
	Height    dimen.Dimen // height the block needs
	Available dimen.Dimen // content height of a page
	Geometry  Geometry
}

func (e OverflowError) Error() string {
	return fmt.Sprintf("block %s (%s) needs %.1fbp, but pages of %s offer %.1fbp",
		e.Block, e.Kind, e.Height.Points(), e.Geometry, e.Available.Points())
}

// Engine lays out blocks. An engine is safe for concurrent use if its
// measurer is.
type Engine struct {
	index    *fontindex.Index
	measurer glyphing.Measurer
	style    Style
}

// NewEngine creates a layout engine, taking font metrics from a font index.
// If measurer is nil, text is measured by estimation.
func NewEngine(index *fontindex.Index, measurer glyphing.Measurer, style Style) *Engine {
	if measurer == nil {
		measurer = estimate.Measurer(nil)
	}
	if style.BaseSize <= 0 {
		style = DefaultStyle
	}
	return &Engine{index: index, measurer: measurer, style: style}
}

// Style returns the style of the engine.
func (e *Engine) Style() Style {
	return e.style
}

func (e *Engine) setter(b Block) setter {
	return setter{
		index:    e.index,
		measurer: e.measurer,
		size:     e.style.size(b),
		leading:  e.style.Leading,
	}
}

// Measure sets a block into lines of a given width and returns the lines
// and the block's height. Space following the block is not included.
func (e *Engine) Measure(b Block, width dimen.Dimen) Measured {
	s := e.setter(b)
	lines := s.setLines(b, width)
	var h dimen.Dimen
	if row := e.style.rowHeight(b.Kind); row > 0 {
		n := len(lines)
		if n == 0 {
			n = 1
		}
		h = row * dimen.Dimen(n)
	} else {
		for _, l := range lines {
			h += l.Height
		}
	}
	return Measured{Lines: lines, Height: h}
}

// Layout paginates blocks. Pages are filled top to bottom; a new page is
// started when the next block would overflow the content height or a
// block requests a page break. Layout fails with an error of code
// core.ELAYOUT, wrapping an OverflowError, if a block cannot be placed on
// an empty page.
func (e *Engine) Layout(blocks []Block, geom Geometry) ([]Page, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	p := &paginator{
		engine: e,
		geom:   geom,
		width:  geom.Content().Width(),
		height: geom.Content().Height(),
	}
	p.open()
	for _, b := range blocks {
		if err := p.add(b); err != nil {
			return nil, err
		}
	}
	p.close()
	tracer().Debugf("laid out %d blocks on %d pages", len(blocks), len(p.pages))
	return p.pages, nil
}

type paginator struct {
	engine *Engine
	geom   Geometry
	width  dimen.Dimen
	height dimen.Dimen
	pages  []Page
	page   Page
	y      dimen.Dimen
}

func (p *paginator) open() {
	p.page = Page{
		Rect:    p.geom.PageRect(),
		Number:  len(p.pages) + 1,
		Content: p.geom.Content(),
	}
	p.y = 0
}

func (p *paginator) close() {
	if len(p.page.Placements) > 0 || len(p.pages) == 0 {
		p.pages = append(p.pages, p.page)
	}
}

func (p *paginator) empty() bool {
	return len(p.page.Placements) == 0
}

func (p *paginator) fits(h dimen.Dimen) bool {
	return p.y+h <= p.height
}

func (p *paginator) newPage() {
	p.pages = append(p.pages, p.page)
	p.open()
}

func (p *paginator) place(b Block, m Measured, continued, continues bool) {
	p.page.Placements = append(p.page.Placements, Placement{
		Block:     b,
		Y:         p.y,
		Height:    m.Height,
		Size:      p.engine.style.size(b),
		Lines:     m.Lines,
		Continued: continued,
		Continues: continues,
	})
	p.y += m.Height + p.engine.style.skip(b.Kind)
}

func (p *paginator) overflow(b Block, h dimen.Dimen) error {
	err := OverflowError{Block: b.ID, Kind: b.Kind, Height: h, Available: p.height, Geometry: p.geom}
	return core.WrapError(err, core.ELAYOUT, "cannot lay out block %s", b.ID)
}

func (p *paginator) add(b Block) error {
	if b.BreakBefore && !p.empty() {
		p.newPage()
	}
	m := p.engine.Measure(b, p.width)
	if p.fits(m.Height) {
		p.place(b, m, false, false)
		return nil
	}
	if b.Kind.Splittable() && len(b.Segments) > 1 {
		return p.split(b)
	}
	if p.empty() {
		return p.overflow(b, m.Height)
	}
	p.newPage()
	if !p.fits(m.Height) {
		return p.overflow(b, m.Height)
	}
	p.place(b, m, false, false)
	return nil
}

// split distributes a paragraph over pages, breaking at the last segment
// boundary that fits.
func (p *paginator) split(b Block) error {
	rest, continued := b, false
	for {
		m := p.engine.Measure(rest, p.width)
		if p.fits(m.Height) {
			p.place(rest, m, continued, false)
			return nil
		}
		n := len(rest.Segments)
		k := n - 1
		var head Measured
		for ; k > 0; k-- {
			head = p.engine.Measure(rest.sub(0, k), p.width)
			if p.fits(head.Height) {
				break
			}
		}
		if k > 0 {
			tracer().Debugf("splitting %s after segment %d of %d", b, k, n)
			p.place(rest.sub(0, k), head, continued, true)
			p.newPage()
			rest, continued = rest.sub(k, n), true
			continue
		}
		if p.empty() {
			first := p.engine.Measure(rest.sub(0, 1), p.width)
			return p.overflow(b, first.Height)
		}
		p.newPage()
	}
}

// Baselines returns the baseline positions of the lines of a placement,
// relative to the top of the content area. Lines of fixed-row blocks are
// distributed evenly over the placement's height.
func (pl Placement) Baselines() []dimen.Dimen {
	n := len(pl.Lines)
	if n == 0 {
		return nil
	}
	var sum dimen.Dimen
	for _, l := range pl.Lines {
		sum += l.Height
	}
	bases := make([]dimen.Dimen, n)
	y := pl.Y
	for i, l := range pl.Lines {
		step := l.Height
		if sum != pl.Height {
			step = pl.Height / dimen.Dimen(n)
		}
		bases[i] = y + l.Ascent
		y += step
	}
	return bases
}
