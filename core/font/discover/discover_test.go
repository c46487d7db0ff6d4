package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

func TestBuiltin(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	f, err := Builtin("go-bold-italic")
	require.NoError(t, err)
	assert.Equal(t, font.OriginCatalog, f.Origin)
	assert.Equal(t, xfont.StyleItalic, f.Style)
	assert.Equal(t, xfont.WeightBold, f.Weight)
	assert.True(t, f.Covers('Q'))
	assert.NotEmpty(t, f.Binary)
	_, err = Builtin("comic-sans")
	assert.Equal(t, core.EMISSING, core.Code(err))
	assert.Len(t, BuiltinNames(), 5)
}

func TestLoadDeclaredCoverage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	f, err := Load(Descriptor{
		Family:   "Noto Sans JP",
		Origin:   "user",
		Scripts:  []string{"Jpan"},
		Coverage: []string{"U+0020-U+007E", "U+3040-U+30FF", "U+4E00-U+9FFF"},
	})
	require.NoError(t, err)
	assert.Equal(t, font.ID("noto_sans_jp"), f.ID)
	assert.Equal(t, font.OriginUser, f.Origin)
	assert.True(t, f.Covers('語'))
	assert.Equal(t, "Jpan", f.Scripts[0].String())
	assert.Equal(t, font.DefaultMetrics, f.Metrics)
	//
	_, err = Load(Descriptor{Family: "empty"})
	assert.Error(t, err)
	_, err = Load(Descriptor{Family: "bad", Coverage: []string{"xyz"}})
	assert.Equal(t, core.EINVALID, core.Code(err))
	_, err = Load(Descriptor{Family: "bad", Origin: "moon", Coverage: []string{"U+0041"}})
	assert.Error(t, err)
}

func TestLoadFontFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	dir := t.TempDir()
	fpath := filepath.Join(dir, "GoSans-Regular.ttf")
	require.NoError(t, os.WriteFile(fpath, goregular.TTF, 0644))
	f, err := Load(Descriptor{Path: fpath, Origin: "system"})
	require.NoError(t, err)
	assert.Equal(t, font.ID("gosans-regular"), f.ID)
	assert.Equal(t, fpath, f.Path)
	assert.True(t, f.Covers('ü'))
	_, err = Load(Descriptor{Path: filepath.Join(dir, "nope.ttf")})
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestLoadAllKeepsOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	descs := []Descriptor{
		{ID: "c", Family: "C", Coverage: []string{"U+0400-U+04FF"}},
		{ID: "a", Family: "A", Coverage: []string{"U+0020-U+007E"}},
		{ID: "b", Family: "B", Coverage: []string{"U+4E00-U+9FFF"}},
	}
	fonts, err := LoadAll(context.Background(), descs)
	require.NoError(t, err)
	require.Len(t, fonts, 3)
	assert.Equal(t, font.ID("c"), fonts[0].ID)
	assert.Equal(t, font.ID("a"), fonts[1].ID)
	assert.Equal(t, font.ID("b"), fonts[2].ID)
	//
	descs = append(descs, Descriptor{Family: "broken"})
	_, err = LoadAll(context.Background(), descs)
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.fonts")
	defer teardown()
	//
	assert.True(t, Matches("/usr/share/fonts/NotoSansCJK-Regular.otf", "cjk"))
	assert.False(t, Matches("/usr/share/fonts/DejaVuSans.ttf", "noto"))
	assert.True(t, isFontFile("a/b.OTF"))
	assert.False(t, isFontFile("a/b.ttc"))
}
