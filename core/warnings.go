package core

import (
	"fmt"
	"sort"
	"strings"
)

// WarningKind classifies non-fatal conditions collected while building a
// reader pack.
type WarningKind int

const (
	CoverageGap     WarningKind = iota + 1 // no font covers some code points
	TocConvergence                         // TOC page numbers did not settle, fixed-width fallback used
	SpeechSynthesis                        // audio for a story could not be produced
)

func (k WarningKind) String() string {
	switch k {
	case CoverageGap:
		return "coverage-gap"
	case TocConvergence:
		return "toc-convergence"
	case SpeechSynthesis:
		return "speech-synthesis"
	}
	return "unknown"
}

// Warning is a non-fatal condition. Warnings are accumulated and attached to
// documents and packs, so callers can display them without losing completed
// work.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	StoryID    string      `json:"story_id,omitempty"`
	Script     string      `json:"script,omitempty"`
	CodePoints []rune      `json:"code_points,omitempty"`
	Message    string      `json:"message"`
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(w.Kind.String())
	if w.StoryID != "" {
		fmt.Fprintf(&b, " [%s]", w.StoryID)
	}
	if w.Script != "" {
		fmt.Fprintf(&b, " script=%s", w.Script)
	}
	if len(w.CodePoints) > 0 {
		cps := make([]string, len(w.CodePoints))
		for i, r := range w.CodePoints {
			cps[i] = fmt.Sprintf("U+%04X", r)
		}
		fmt.Fprintf(&b, " %s", strings.Join(cps, ","))
	}
	if w.Message != "" {
		b.WriteString(": ")
		b.WriteString(w.Message)
	}
	return b.String()
}

// Warnings is a list of warnings in order of occurrence.
type Warnings []Warning

// Of returns all warnings of a given kind.
func (ws Warnings) Of(kind WarningKind) Warnings {
	var r Warnings
	for _, w := range ws {
		if w.Kind == kind {
			r = append(r, w)
		}
	}
	return r
}

// ForStory returns a copy of ws with StoryID set on every warning which does
// not carry a story ID yet.
func (ws Warnings) ForStory(id string) Warnings {
	if len(ws) == 0 {
		return nil
	}
	r := make(Warnings, len(ws))
	for i, w := range ws {
		if w.StoryID == "" {
			w.StoryID = id
		}
		r[i] = w
	}
	return r
}

// MergeGaps merges coverage gap warnings of the same story and script into
// one warning, uniting their code points. Other warnings are kept as they
// are. Order of first occurrence is preserved.
func (ws Warnings) MergeGaps() Warnings {
	type key struct{ story, script string }
	var r Warnings
	at := make(map[key]int)
	for _, w := range ws {
		if w.Kind != CoverageGap {
			r = append(r, w)
			continue
		}
		k := key{w.StoryID, w.Script}
		i, ok := at[k]
		if !ok {
			w.CodePoints = append([]rune(nil), w.CodePoints...)
			at[k] = len(r)
			r = append(r, w)
			continue
		}
		r[i].CodePoints = unite(r[i].CodePoints, w.CodePoints)
		r[i].Message = gapMessage(len(r[i].CodePoints), w.Script)
	}
	return r
}

func unite(a, b []rune) []rune {
	seen := make(map[rune]bool, len(a)+len(b))
	var u []rune
	for _, r := range append(append([]rune(nil), a...), b...) {
		if !seen[r] {
			seen[r] = true
			u = append(u, r)
		}
	}
	sort.Slice(u, func(i, j int) bool { return u[i] < u[j] })
	return u
}

func gapMessage(n int, script string) string {
	if script == "" || script == "Zzzz" || script == "Zyyy" {
		return fmt.Sprintf("no font covers %d code point(s)", n)
	}
	return fmt.Sprintf("no font covers %d code point(s) of script %s", n, script)
}
