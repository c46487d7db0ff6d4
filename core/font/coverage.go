package font

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Range is an inclusive interval of Unicode code points.
type Range struct {
	Lo, Hi rune
}

func (r Range) String() string {
	if r.Lo == r.Hi {
		return fmt.Sprintf("U+%04X", r.Lo)
	}
	return fmt.Sprintf("U+%04X–U+%04X", r.Lo, r.Hi)
}

// Coverage is the set of code points a font is able to render, stored as a
// sorted list of merged, non-adjacent intervals. The zero value is an empty
// coverage. Coverages are immutable.
type Coverage struct {
	ranges []Range
}

// NewCoverage normalizes a list of ranges into a coverage: ranges are
// sorted, and overlapping or adjacent ranges are merged. Ranges with
// Lo > Hi are dropped.
func NewCoverage(ranges ...Range) Coverage {
	rs := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Lo <= r.Hi {
			rs = append(rs, r)
		}
	}
	if len(rs) == 0 {
		return Coverage{}
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Lo == rs[j].Lo {
			return rs[i].Hi < rs[j].Hi
		}
		return rs[i].Lo < rs[j].Lo
	})
	merged := rs[:1]
	for _, r := range rs[1:] {
		last := &merged[len(merged)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		merged = append(merged, r)
	}
	return Coverage{ranges: merged}
}

// Contains returns true if r is contained in the coverage. Lookup is a
// binary search over the interval list.
func (c Coverage) Contains(r rune) bool {
	i := sort.Search(len(c.ranges), func(i int) bool {
		return c.ranges[i].Hi >= r
	})
	return i < len(c.ranges) && c.ranges[i].Lo <= r
}

// Overlaps returns true if any code point of the interval [lo…hi] is
// contained in the coverage.
func (c Coverage) Overlaps(lo, hi rune) bool {
	i := sort.Search(len(c.ranges), func(i int) bool {
		return c.ranges[i].Hi >= lo
	})
	return i < len(c.ranges) && c.ranges[i].Lo <= hi
}

// OverlapsTable returns true if the coverage contains at least one code point
// of a Unicode range table.
func (c Coverage) OverlapsTable(rt *unicode.RangeTable) bool {
	if rt == nil {
		return false
	}
	for _, r16 := range rt.R16 {
		if c.overlapsStrided(rune(r16.Lo), rune(r16.Hi), rune(r16.Stride)) {
			return true
		}
	}
	for _, r32 := range rt.R32 {
		if c.overlapsStrided(rune(r32.Lo), rune(r32.Hi), rune(r32.Stride)) {
			return true
		}
	}
	return false
}

func (c Coverage) overlapsStrided(lo, hi, stride rune) bool {
	if stride <= 1 {
		return c.Overlaps(lo, hi)
	}
	for r := lo; r <= hi; r += stride {
		if c.Contains(r) {
			return true
		}
	}
	return false
}

// Union returns a coverage containing the code points of both c and other.
func (c Coverage) Union(other Coverage) Coverage {
	rs := make([]Range, 0, len(c.ranges)+len(other.ranges))
	rs = append(rs, c.ranges...)
	rs = append(rs, other.ranges...)
	return NewCoverage(rs...)
}

// Ranges returns a copy of the normalized interval list.
func (c Coverage) Ranges() []Range {
	rs := make([]Range, len(c.ranges))
	copy(rs, c.ranges)
	return rs
}

// Size returns the number of code points in the coverage.
func (c Coverage) Size() int {
	n := 0
	for _, r := range c.ranges {
		n += int(r.Hi-r.Lo) + 1
	}
	return n
}

// IsEmpty is true for a coverage without any code points.
func (c Coverage) IsEmpty() bool {
	return len(c.ranges) == 0
}

func (c Coverage) String() string {
	s := make([]string, len(c.ranges))
	for i, r := range c.ranges {
		s[i] = r.String()
	}
	return "[" + strings.Join(s, " ") + "]"
}

// ParseRange parses a range in the form "U+0000-U+007F", "0000-007F" or a
// single code point "U+00E9".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '–' || r == '.' })
	if len(parts) == 0 || len(parts) > 2 {
		return Range{}, fmt.Errorf("invalid code point range %q", s)
	}
	lo, err := parseCodePoint(parts[0])
	if err != nil {
		return Range{}, err
	}
	hi := lo
	if len(parts) == 2 {
		if hi, err = parseCodePoint(parts[1]); err != nil {
			return Range{}, err
		}
	}
	if lo > hi {
		return Range{}, fmt.Errorf("invalid code point range %q: lower bound exceeds upper bound", s)
	}
	return Range{Lo: lo, Hi: hi}, nil
}

func parseCodePoint(s string) (rune, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "U+")
	var cp rune
	if _, err := fmt.Sscanf(s, "%X", &cp); err != nil {
		return 0, fmt.Errorf("invalid code point %q", s)
	}
	if cp < 0 || cp > unicode.MaxRune {
		return 0, fmt.Errorf("code point out of range: %q", s)
	}
	return cp, nil
}
