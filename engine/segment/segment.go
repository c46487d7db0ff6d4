/*
Package segment splits text into runs of code points sharing one font.

A segment is a maximal run of text set with a single font resource of a font
index. Segment boundaries are introduced whenever the font resolved for a
code point differs from the font of the preceding code point, or at a
boundary of a language span supplied by the caller. Neutral code points
(whitespace, punctuation, digits, combining marks) stay with the current
font as long as it covers them, and always with uncovered text, so no
one-character segments around spaces are produced.

Segments reference their font by ID only. Concatenating the byte ranges of
all segments of a text reproduces the text exactly.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package segment

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// tracer traces with key 'readerpack.segment'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.segment")
}

// Direction is the writing direction of a segment.
type Direction int8

// Writing directions. A segment is RTL if it contains at least one code
// point of bidi class R or AL.
const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// TextSegment is a contiguous span of a source text, bound to a font.
type TextSegment struct {
	Start, End int             // byte offsets into the source text
	Text       string          // the source text between Start and End
	Script     language.Script // script of the first non-neutral code point
	Font       font.ID         // lookup key into the font index
	Missing    bool            // no font covers the text; set with the missing-coverage font
	Direction  Direction
}

// Len returns the length of the segment in bytes.
func (seg TextSegment) Len() int {
	return seg.End - seg.Start
}

func (seg TextSegment) String() string {
	return fmt.Sprintf("[%d…%d %s %s %q]", seg.Start, seg.End, seg.Script, seg.Font, seg.Text)
}

// Hint marks a span [Start…End) of the text as written in a language with a
// known script, e.g. a glossary definition in the learner's native language.
// Hint boundaries are segment boundaries, and fonts suitable for the hinted
// script are preferred inside of the span.
type Hint struct {
	Start, End int
	Script     language.Script
}

// Segmenter splits texts into segments. It holds a reference to an
// immutable font index and is safe for concurrent use.
type Segmenter struct {
	index *fontindex.Index
}

// New creates a segmenter for a font index.
func New(index *fontindex.Index) *Segmenter {
	return &Segmenter{index: index}
}

// Index returns the font index of a segmenter.
func (s *Segmenter) Index() *fontindex.Index {
	return s.index
}

// Segment splits text into segments. Code points no font covers are bound
// to the missing-coverage pseudo font, together with whitespace and
// punctuation following them; for every script with uncovered code points
// one CoverageGap warning is returned. Segmentation never fails.
func (s *Segmenter) Segment(text string, hints ...Hint) ([]TextSegment, core.Warnings) {
	if len(text) == 0 {
		return nil, nil
	}
	hints = normalizeHints(hints, len(text))
	var segs []TextSegment
	var cur *TextSegment
	var curFont *font.Resource
	strong := false // current segment has a non-neutral code point
	gaps := newGapCollector()
	h := 0 // index of next hint to consider
	var active *Hint
	for pos, r := range text {
		if active != nil && pos >= active.End {
			active = nil
			cur = closeSegment(&segs, cur, pos, text)
		}
		for h < len(hints) && hints[h].Start <= pos {
			if hints[h].End > pos {
				active = &hints[h]
				cur = closeSegment(&segs, cur, pos, text)
			}
			h++
		}
		neutral := font.IsNeutral(r)
		if cur != nil && neutral && (cur.Missing || curFont.Covers(r)) {
			// neutral code points stay with uncovered text
			if cur.Missing {
				if _, ok := s.index.Resolve(r); !ok {
					gaps.add(r)
				}
			}
			cur.Direction = max(cur.Direction, directionOf(r))
			continue
		}
		var f *font.Resource
		var ok bool
		if active != nil {
			f, ok = s.index.ResolveFor(r, active.Script)
		} else {
			f, ok = s.index.Resolve(r)
		}
		if !ok {
			gaps.add(r)
		}
		if cur == nil || f.ID != cur.Font {
			cur = closeSegment(&segs, cur, pos, text)
			cur = &TextSegment{Start: pos, Script: font.Common, Font: f.ID, Missing: !ok}
			curFont, strong = f, false
		}
		if !neutral && !strong {
			cur.Script, strong = font.ScriptOf(r), true
		}
		cur.Direction = max(cur.Direction, directionOf(r))
	}
	closeSegment(&segs, cur, len(text), text)
	tracer().Debugf("segmented %d bytes into %d segments", len(text), len(segs))
	return segs, gaps.warnings()
}

func closeSegment(segs *[]TextSegment, cur *TextSegment, end int, text string) *TextSegment {
	if cur == nil || end <= cur.Start {
		return nil
	}
	cur.End = end
	cur.Text = text[cur.Start:end]
	*segs = append(*segs, *cur)
	return nil
}

// normalizeHints drops empty hints, clips hints to the text and orders them
// by start position. Overlapping hints are cut at the start of the
// following hint.
func normalizeHints(hints []Hint, textlen int) []Hint {
	hs := make([]Hint, 0, len(hints))
	for _, h := range hints {
		if h.End > textlen {
			h.End = textlen
		}
		if h.Start < 0 {
			h.Start = 0
		}
		if h.Start < h.End {
			hs = append(hs, h)
		}
	}
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Start < hs[j].Start })
	for i := 0; i+1 < len(hs); i++ {
		if hs[i].End > hs[i+1].Start {
			hs[i].End = hs[i+1].Start
		}
	}
	return hs
}

func directionOf(r rune) Direction {
	props, _ := bidi.LookupRune(r)
	switch props.Class() {
	case bidi.R, bidi.AL:
		return RightToLeft
	}
	return LeftToRight
}

// --- Coverage gaps ---------------------------------------------------------

type gapCollector struct {
	order  []language.Script
	points map[language.Script][]rune
	seen   map[rune]bool
}

func newGapCollector() *gapCollector {
	return &gapCollector{
		points: make(map[language.Script][]rune),
		seen:   make(map[rune]bool),
	}
}

func (g *gapCollector) add(r rune) {
	if g.seen[r] {
		return
	}
	g.seen[r] = true
	scr := font.ScriptOf(r)
	if _, ok := g.points[scr]; !ok {
		g.order = append(g.order, scr)
	}
	g.points[scr] = append(g.points[scr], r)
}

// warnings returns one coverage gap warning per script, in order of first
// occurrence.
func (g *gapCollector) warnings() core.Warnings {
	if len(g.order) == 0 {
		return nil
	}
	ws := make(core.Warnings, 0, len(g.order))
	for _, scr := range g.order {
		cps := g.points[scr]
		sort.Slice(cps, func(i, j int) bool { return cps[i] < cps[j] })
		msg := fmt.Sprintf("no font covers %d code point(s) of script %s", len(cps), scr)
		if scr == font.Unknown || scr == font.Common {
			msg = fmt.Sprintf("no font covers %d code point(s)", len(cps))
		}
		ws = append(ws, core.Warning{
			Kind:       core.CoverageGap,
			Script:     scr.String(),
			CodePoints: cps,
			Message:    msg,
		})
		tracer().Infof("coverage gap: %s %v", scr, cps)
	}
	return ws
}

// Join concatenates the text of segments. For segments of a single source
// text it returns the source text.
func Join(segs []TextSegment) string {
	n := 0
	for _, s := range segs {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range segs {
		b = append(b, s.Text...)
	}
	return string(b)
}

// RuneCount returns the number of code points in a segment.
func (seg TextSegment) RuneCount() int {
	return utf8.RuneCountInString(seg.Text)
}
