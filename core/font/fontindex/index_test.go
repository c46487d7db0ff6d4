package fontindex

import (
	"errors"
	"testing"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var (
	latn = language.MustParseScript("Latn")
	hani = language.MustParseScript("Hani")
	cyrl = language.MustParseScript("Cyrl")
	jpan = language.MustParseScript("Jpan")
)

func latinFont(id font.ID, origin font.Origin) *font.Resource {
	return font.NewResource(id, string(id), origin, []font.Range{{0x20, 0x7E}, {0xA0, 0xFF}}, font.Metrics{})
}

func cjkFont(id font.ID, origin font.Origin) *font.Resource {
	return font.NewResource(id, string(id), origin, []font.Range{{0x20, 0x7E}, {0x3000, 0x30FF}, {0x4E00, 0x9FFF}}, font.Metrics{})
}

func TestRegisterDuplicate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	b := NewBuilder()
	require.NoError(t, b.Register(latinFont("sans", font.OriginUser)))
	err := b.Register(latinFont("sans", font.OriginSystem))
	require.Error(t, err)
	var dup DuplicateFontError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, font.ID("sans"), dup.ID)
	assert.Equal(t, core.EINVALID, core.Code(err))
	assert.Error(t, b.Register(latinFont(font.MissingID, font.OriginUser)))
	assert.Error(t, b.Register(nil))
	assert.Equal(t, 1, b.Build().Len())
}

func TestResolvePreferenceOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	ix, err := New(
		cjkFont("catalog-cjk", font.OriginCatalog),
		latinFont("system-latin", font.OriginSystem),
		latinFont("user-latin", font.OriginUser),
	)
	require.NoError(t, err)
	f, ok := ix.Resolve('a')
	assert.True(t, ok)
	assert.Equal(t, font.ID("user-latin"), f.ID)
	f, ok = ix.Resolve('世')
	assert.True(t, ok)
	assert.Equal(t, font.ID("catalog-cjk"), f.ID)
	f, ok = ix.Resolve('ж')
	assert.False(t, ok)
	assert.Equal(t, font.MissingID, f.ID)
	ids := []font.ID{}
	for _, f := range ix.Fonts() {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []font.ID{"user-latin", "system-latin", "catalog-cjk"}, ids)
	_, ok = ix.Font(font.MissingID)
	assert.True(t, ok)
}

func TestResolveForScript(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	sc := cjkFont("noto-sc", font.OriginSystem)
	sc.Scripts = []language.Script{language.MustParseScript("Hans")}
	jp := cjkFont("noto-jp", font.OriginSystem)
	jp.Scripts = []language.Script{jpan}
	ix, err := New(sc, jp)
	require.NoError(t, err)
	f, _ := ix.Resolve('語')
	assert.Equal(t, font.ID("noto-sc"), f.ID)
	f, _ = ix.ResolveFor('語', jpan)
	assert.Equal(t, font.ID("noto-jp"), f.ID)
	f, _ = ix.ResolveFor('語', latn)
	assert.Equal(t, font.ID("noto-sc"), f.ID)
	assert.Equal(t, []font.ID{"noto-jp", "noto-sc"}, ix.ScriptFonts(jpan))
}

func TestExtendIsMonotone(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	ix, err := New(latinFont("latin", font.OriginSystem))
	require.NoError(t, err)
	probe := []rune("Az é 世界 жизнь")
	before := map[rune]bool{}
	for _, r := range probe {
		_, ok := ix.Resolve(r)
		before[r] = ok
	}
	ext, err := ix.Extend(cjkFont("cjk", font.OriginUser))
	require.NoError(t, err)
	for _, r := range probe {
		_, ok := ext.Resolve(r)
		if before[r] && !ok {
			t.Errorf("extending the index lost coverage for %U", r)
		}
	}
	_, ok := ext.Resolve('世')
	assert.True(t, ok)
	_, ok = ix.Resolve('世')
	assert.False(t, ok, "original index must be unchanged")
	_, err = ext.Extend(latinFont("latin", font.OriginCatalog))
	assert.Error(t, err)
}

func TestCoverageReport(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	ix, err := New(latinFont("latin", font.OriginUser))
	require.NoError(t, err)
	rep := ix.CoverageReport("Hello, 世界! Привет 世")
	require.Contains(t, rep, latn)
	assert.True(t, rep[latn].Covered)
	assert.Empty(t, rep[latn].Missing)
	require.Contains(t, rep, hani)
	assert.False(t, rep[hani].Covered)
	assert.Equal(t, []rune{'世', '界'}, rep[hani].Missing)
	assert.False(t, rep[cyrl].Covered)
	assert.Len(t, rep[cyrl].Missing, 6)
	assert.True(t, rep[font.Common].Covered)
	assert.False(t, rep.Complete())
	scripts := rep.Scripts()
	assert.Len(t, scripts, 4)
}

func TestUnresolvedScripts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	ix, err := New(latinFont("latin", font.OriginUser))
	require.NoError(t, err)
	unresolved := ix.Unresolved()
	assert.Contains(t, unresolved, hani)
	assert.Contains(t, unresolved, cyrl)
	assert.NotContains(t, unresolved, latn)
	assert.Equal(t, SubstituteGlyph, ix.Policy())
	p, err := ParseFallbackPolicy("keep")
	require.NoError(t, err)
	ix2 := NewBuilder().SetFallbackPolicy(p).Build()
	assert.Equal(t, KeepText, ix2.Policy())
}
