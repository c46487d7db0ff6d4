package segment

import (
	"testing"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func latinOnly(t *testing.T) *fontindex.Index {
	ix, err := fontindex.New(font.NewResource("latin", "Latin", font.OriginUser,
		[]font.Range{{0x20, 0x7E}, {0xA0, 0x24F}}, font.Metrics{}))
	require.NoError(t, err)
	return ix
}

func latinAndCJK(t *testing.T) *fontindex.Index {
	ix, err := fontindex.New(
		font.NewResource("latin", "Latin", font.OriginUser,
			[]font.Range{{0x20, 0x7E}, {0xA0, 0x24F}}, font.Metrics{}),
		font.NewResource("cjk", "CJK", font.OriginSystem,
			[]font.Range{{0x20, 0x7E}, {0x3000, 0x30FF}, {0x4E00, 0x9FFF}, {0xFF00, 0xFFEF}}, font.Metrics{}),
	)
	require.NoError(t, err)
	return ix
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.segment")
	defer teardown()
	//
	seg := New(latinAndCJK(t))
	for _, text := range []string{
		"",
		"Hello World",
		"私は学生です。 I am a student.",
		"Привет, 世界! مرحبا",
		"ábc  \t\n 漢字 x",
		"invalid \xff utf-8",
	} {
		segs, _ := seg.Segment(text)
		assert.Equal(t, text, Join(segs), "round trip for %q", text)
		pos := 0
		for _, s := range segs {
			assert.Equal(t, pos, s.Start, "segments must be contiguous")
			assert.Greater(t, s.End, s.Start)
			pos = s.End
		}
		assert.Equal(t, len(text), pos)
	}
}

func TestFontChangeIntroducesBoundary(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.segment")
	defer teardown()
	//
	seg := New(latinAndCJK(t))
	segs, ws := seg.Segment("Hello 世界 again")
	assert.Empty(t, ws)
	require.Len(t, segs, 3)
	assert.Equal(t, "Hello ", segs[0].Text)
	assert.Equal(t, font.ID("latin"), segs[0].Font)
	assert.Equal(t, "世界 ", segs[1].Text, "space inherits the CJK font")
	assert.Equal(t, font.ID("cjk"), segs[1].Font)
	assert.Equal(t, "Hani", segs[1].Script.String())
	assert.Equal(t, "again", segs[2].Text)
}

func TestMissingCoverage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.segment")
	defer teardown()
	//
	seg := New(latinOnly(t))
	segs, ws := seg.Segment("I like 寿司 and 拉面, 寿司!")
	require.Len(t, ws, 1, "one warning per missing script")
	w := ws[0]
	assert.Equal(t, core.CoverageGap, w.Kind)
	assert.Equal(t, "Hani", w.Script)
	assert.Equal(t, []rune{'司', '寿', '拉', '面'}, w.CodePoints)
	missing := 0
	for _, s := range segs {
		if s.Missing {
			missing++
			assert.Equal(t, font.MissingID, s.Font)
		}
	}
	assert.Equal(t, 3, missing)
	//
	_, ws = seg.Segment("Кошка и 猫")
	assert.Len(t, ws, 2)
	assert.Equal(t, "Cyrl", ws[0].Script)
	assert.Equal(t, "Hani", ws[1].Script)
}

func TestUncoveredTextKeepsSpaces(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.segment")
	defer teardown()
	//
	seg := New(latinOnly(t))
	segs, ws := seg.Segment("世 界, 字 a")
	require.Len(t, segs, 2)
	assert.Equal(t, "世 界, 字 ", segs[0].Text)
	assert.True(t, segs[0].Missing)
	assert.Equal(t, "Hani", segs[0].Script.String())
	assert.Equal(t, "a", segs[1].Text)
	assert.Equal(t, font.ID("latin"), segs[1].Font)
	require.Len(t, ws, 1)
	assert.Equal(t, []rune{'世', '字', '界'}, ws[0].CodePoints)
	assert.Equal(t, "世 界, 字 a", Join(segs))
}

func TestHintBoundaries(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.segment")
	defer teardown()
	//
	seg := New(latinOnly(t))
	text := "chat: cat"
	segs, _ := seg.Segment(text)
	require.Len(t, segs, 1)
	segs, _ = seg.Segment(text, Hint{Start: 6, End: 9, Script: language.MustParseScript("Latn")})
	require.Len(t, segs, 2)
	assert.Equal(t, "chat: ", segs[0].Text)
	assert.Equal(t, "cat", segs[1].Text)
	// degenerate hints are ignored
	segs, _ = seg.Segment(text, Hint{Start: 4, End: 4}, Hint{Start: 7, End: 100})
	require.Len(t, segs, 2)
	assert.Equal(t, "at", segs[1].Text)
}

func TestHintPrefersScriptFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.segment")
	defer teardown()
	//
	sc := font.NewResource("sc", "SC", font.OriginUser, []font.Range{{0x20, 0x7E}, {0x4E00, 0x9FFF}}, font.Metrics{})
	jp := font.NewResource("jp", "JP", font.OriginUser, []font.Range{{0x20, 0x7E}, {0x3040, 0x30FF}, {0x4E00, 0x9FFF}}, font.Metrics{})
	jp.Scripts = []language.Script{language.MustParseScript("Jpan")}
	ix, err := fontindex.New(sc, jp)
	require.NoError(t, err)
	seg := New(ix)
	text := "漢字 漢字"
	segs, _ := seg.Segment(text, Hint{Start: 7, End: len(text), Script: language.MustParseScript("Jpan")})
	require.Len(t, segs, 2)
	assert.Equal(t, font.ID("sc"), segs[0].Font)
	assert.Equal(t, font.ID("jp"), segs[1].Font)
}

func TestDirection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.segment")
	defer teardown()
	//
	ix, err := fontindex.New(
		font.NewResource("latin", "Latin", font.OriginUser, []font.Range{{0x20, 0x7E}}, font.Metrics{}),
		font.NewResource("arabic", "Arabic", font.OriginUser, []font.Range{{0x20, 0x7E}, {0x600, 0x6FF}}, font.Metrics{}),
	)
	require.NoError(t, err)
	segs, _ := New(ix).Segment("salam مرحبا")
	require.Len(t, segs, 2)
	assert.Equal(t, LeftToRight, segs[0].Direction)
	assert.Equal(t, RightToLeft, segs[1].Direction)
	assert.Equal(t, "Arab", segs[1].Script.String())
}
