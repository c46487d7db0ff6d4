package fontindex

import (
	"sort"
	"unicode"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/gradreader/readerpack/core/font"
	"golang.org/x/text/language"
)

// ScriptCoverage tells whether all code points of a script found in a text
// are covered by fonts of an index. Missing holds the uncovered code points
// in ascending order.
type ScriptCoverage struct {
	Covered bool
	Missing []rune
}

// Report is a coverage report for a text, keyed by script tag.
type Report map[language.Script]ScriptCoverage

// Scripts returns the script tags of a report, ordered by tag.
func (rep Report) Scripts() []language.Script {
	scripts := make([]language.Script, 0, len(rep))
	for scr := range rep {
		scripts = append(scripts, scr)
	}
	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].String() < scripts[j].String()
	})
	return scripts
}

// Complete is true if every script of the report is covered.
func (rep Report) Complete() bool {
	for _, c := range rep {
		if !c.Covered {
			return false
		}
	}
	return true
}

// CoverageReport reports, for every script occurring in text, whether the
// index is able to render it. Uncovered code points are always listed,
// never dropped. Whitespace is ignored; other neutral code points are
// reported under the Common or Inherited pseudo scripts.
func (ix *Index) CoverageReport(text string) Report {
	missing := make(map[language.Script]*treeset.Set)
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		scr := font.ScriptOf(r)
		set, ok := missing[scr]
		if !ok {
			set = treeset.NewWith(utils.RuneComparator)
			missing[scr] = set
		}
		if _, covered := ix.Resolve(r); !covered {
			set.Add(r)
		}
	}
	rep := make(Report, len(missing))
	for scr, set := range missing {
		c := ScriptCoverage{Covered: set.Empty()}
		for _, v := range set.Values() {
			c.Missing = append(c.Missing, v.(rune))
		}
		rep[scr] = c
	}
	return rep
}
