package layout

import (
	"bufio"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/glyphing"
	"github.com/gradreader/readerpack/engine/segment"
	"github.com/npillmayer/uax"
	uaxseg "github.com/npillmayer/uax/segment"
	"github.com/npillmayer/uax/uax14"
)

// Run is a span of a line set with a single font.
type Run struct {
	Start, End int // byte offsets into the block's text
	Text       string
	Font       font.ID
	Missing    bool
	Direction  segment.Direction
	X          dimen.Dimen // offset from the start of the line
	Width      dimen.Dimen
}

// Line is a line of a block, consisting of runs.
type Line struct {
	Runs    []Run
	Width   dimen.Dimen // natural width, without trailing whitespace
	Ascent  dimen.Dimen
	Descent dimen.Dimen
	Height  dimen.Dimen // baseline-to-baseline distance
}

// Text returns the text of all runs of the line.
func (l Line) Text() string {
	var b strings.Builder
	for _, r := range l.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// atom is an unbreakable piece of a segment, ending at a line-wrap
// opportunity.
type atom struct {
	seg        int // index of the segment
	start, end int // byte offsets into the block's text
	width      dimen.Dimen
	trimmed    dimen.Dimen // width without trailing whitespace
	mandatory  bool        // a line break must follow
}

// wrapOpportunities splits text into fragments, each ending at a line-wrap
// opportunity. Concatenating the fragments yields text.
func wrapOpportunities(text string) []string {
	if text == "" {
		return nil
	}
	linewrap := uax14.NewLineWrap()
	seg := uaxseg.NewSegmenter(linewrap, uaxseg.NewSimpleWordBreaker())
	seg.Init(bufio.NewReader(strings.NewReader(text)))
	var frags []string
	var cur strings.Builder
	pos := 0
	for seg.Next() {
		fragment := seg.Text()
		if !strings.HasPrefix(text[pos:], fragment) {
			tracer().Errorf("line wrap fragment %q does not match input at %d", fragment, pos)
			return []string{text}
		}
		pos += len(fragment)
		cur.WriteString(fragment)
		p1, _ := seg.Penalties()
		if p1 < uax.InfinitePenalty {
			frags = append(frags, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		frags = append(frags, cur.String())
	}
	if pos != len(text) {
		tracer().Errorf("line wrapper consumed %d of %d bytes", pos, len(text))
		return []string{text}
	}
	return frags
}

// setter sets the segments of a block into lines.
type setter struct {
	index    *fontindex.Index
	measurer glyphing.Measurer
	size     dimen.Dimen
	leading  float64
}

func (s setter) params(seg segment.TextSegment) glyphing.Params {
	f, _ := s.index.Font(seg.Font)
	p := glyphing.Params{Font: f, Size: s.size, Script: seg.Script}
	if seg.Direction == segment.RightToLeft {
		p.Direction = glyphing.RightToLeft
	}
	return p
}

func (s setter) atoms(block Block) []atom {
	var atoms []atom
	for i, seg := range block.Segments {
		params := s.params(seg)
		start := seg.Start
		for _, frag := range wrapOpportunities(seg.Text) {
			a := atom{seg: i, start: start, end: start + len(frag)}
			a.width = s.measurer.Advance(frag, params)
			trimmed := strings.TrimRightFunc(frag, unicode.IsSpace)
			if len(trimmed) == len(frag) {
				a.trimmed = a.width
			} else {
				a.trimmed = s.measurer.Advance(trimmed, params)
			}
			a.mandatory = strings.HasSuffix(frag, "\n")
			atoms = append(atoms, a)
			start = a.end
		}
	}
	return atoms
}

// split cuts an atom too wide for a line into pieces which fit, breaking
// between code points. Every piece holds at least one code point.
func (s setter) split(block Block, a atom, width dimen.Dimen) []atom {
	seg := block.Segments[a.seg]
	params := s.params(seg)
	var pieces []atom
	start := a.start
	for start < a.end {
		end := start
		for end < a.end {
			_, n := utf8.DecodeRuneInString(block.Text[end:a.end])
			if end > start && s.measurer.Advance(block.Text[start:end+n], params) > width {
				break
			}
			end += n
		}
		w := s.measurer.Advance(block.Text[start:end], params)
		pieces = append(pieces, atom{seg: a.seg, start: start, end: end, width: w, trimmed: w})
		start = end
	}
	if len(pieces) > 0 {
		last := &pieces[len(pieces)-1]
		last.trimmed = dimen.Max(0, a.trimmed-(a.width-last.width))
		last.mandatory = a.mandatory
	}
	return pieces
}

// setLines fills lines of the given width greedily with the atoms of a
// block.
func (s setter) setLines(block Block, width dimen.Dimen) []Line {
	var lines []Line
	var cur []atom
	var w dimen.Dimen
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, s.makeLine(block, cur))
		}
		cur, w = nil, 0
	}
	for _, a := range s.atoms(block) {
		if len(cur) > 0 && w+a.trimmed > width {
			flush()
		}
		if len(cur) == 0 && a.trimmed > width {
			pieces := s.split(block, a, width)
			for _, p := range pieces[:len(pieces)-1] {
				cur = []atom{p}
				flush()
			}
			a = pieces[len(pieces)-1]
		}
		cur = append(cur, a)
		w += a.width
		if a.mandatory {
			flush()
		}
	}
	flush()
	return lines
}

// makeLine merges consecutive atoms of the same segment into runs.
func (s setter) makeLine(block Block, atoms []atom) Line {
	var line Line
	var x dimen.Dimen
	for i, a := range atoms {
		seg := block.Segments[a.seg]
		n := len(line.Runs)
		if n > 0 && line.Runs[n-1].End == a.start && line.Runs[n-1].Font == seg.Font {
			line.Runs[n-1].End = a.end
			line.Runs[n-1].Width += a.width
		} else {
			line.Runs = append(line.Runs, Run{
				Start:     a.start,
				End:       a.end,
				Font:      seg.Font,
				Missing:   seg.Missing,
				Direction: seg.Direction,
				X:         x,
				Width:     a.width,
			})
			s.extendMetrics(&line, seg.Font)
		}
		if i == len(atoms)-1 {
			line.Width = x + a.trimmed
		}
		x += a.width
	}
	for i := range line.Runs {
		r := &line.Runs[i]
		r.Text = block.Text[r.Start:r.End]
	}
	return line
}

func (s setter) extendMetrics(line *Line, id font.ID) {
	f, ok := s.index.Font(id)
	if !ok || f == nil {
		f = font.FallbackFont()
	}
	m := f.Metrics
	line.Ascent = dimen.Max(line.Ascent, s.size.Scale(m.Ascent))
	line.Descent = dimen.Max(line.Descent, s.size.Scale(m.Descent))
	line.Height = dimen.Max(line.Height, s.size.Scale(m.LineHeight()))
	line.Height = dimen.Max(line.Height, s.size.Scale(s.leading))
}
