package estimate

import (
	"testing"

	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/engine/glyphing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestCells(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.glyphs")
	defer teardown()
	//
	for _, tc := range []struct {
		text  string
		cells int
	}{
		{"", 0},
		{"Hello", 5},
		{"世界", 4},
		{"ab世", 4},
		{"é", 1}, // one grapheme cluster
	} {
		if c := Cells(tc.text, nil); c != tc.cells {
			t.Errorf("expected %q to occupy %d cells, has %d", tc.text, tc.cells, c)
		}
	}
}

func TestAdvance(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.glyphs")
	defer teardown()
	//
	m := Measurer(nil)
	f := font.NewResource("x", "X", font.OriginUser, nil, font.Metrics{Ascent: 0.8, Descent: 0.2, AvgAdvance: 0.5})
	p := glyphing.Params{Font: f, Size: 10 * dimen.BP}
	if w := m.Advance("abcd", p); w != 20*dimen.BP {
		t.Errorf("expected 4 cells at 10bp with avg 0.5em to be 20bp, is %.2fbp", w.Points())
	}
	if w := m.Advance("世界", p); w != 20*dimen.BP {
		t.Errorf("expected 2 wide glyphs to be 20bp, is %.2fbp", w.Points())
	}
	if w := m.Advance("", p); w != 0 {
		t.Errorf("expected empty text to have zero advance")
	}
}
