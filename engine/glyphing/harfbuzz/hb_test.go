package harfbuzz_test

import (
	"fmt"
	"testing"

	hb "github.com/benoitkugler/textlayout/harfbuzz"
	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/engine/glyphing"
	"github.com/gradreader/readerpack/engine/glyphing/estimate"
	"github.com/gradreader/readerpack/engine/glyphing/harfbuzz"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/text/language"
)

func TestHBScript(t *testing.T) {
	id := "Plrd"
	script := language.MustParseScript(id)
	hb_script := harfbuzz.Script4HB(script)
	hstr := fmt.Sprintf("%x", uint32(hb_script))
	if hstr != "706c7264" {
		t.Logf("script %q: %x => %x", id, script, uint32(hb_script))
		t.Errorf("expected HB script of 706c7264, is %s", hstr)
	}
}

func TestHBLang(t *testing.T) {
	l := "de_DE"
	langT, err := language.Parse(l)
	if err != nil {
		t.Error(err)
	}
	h := harfbuzz.Lang4HB(langT)
	if h != "de-de" {
		t.Logf("Go lang = %v", langT)
		t.Logf("HB lang = %v, expected de-de", h)
		t.Fail()
	}
}

func TestHBDir(t *testing.T) {
	var d glyphing.Direction = glyphing.TopToBottom
	dir := harfbuzz.Direction4HB(d)
	if dir != hb.TopToBottom {
		t.Errorf("expected dir to be %d, is %d", hb.TopToBottom, dir)
	}
}

func TestHBAdvance(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.glyphs")
	defer teardown()
	//
	m := harfbuzz.Measurer(estimate.Measurer(nil))
	params := glyphing.Params{Font: font.FallbackFont(), Size: 12 * dimen.BP}
	short := m.Advance("Hello", params)
	long := m.Advance("Hello World", params)
	if short <= 0 {
		t.Fatalf("expected positive advance for 'Hello', got %d", short)
	}
	if long <= short {
		t.Errorf("expected 'Hello World' to be wider than 'Hello': %d <= %d", long, short)
	}
	if again := m.Advance("Hello", params); again != short {
		t.Errorf("measuring is not deterministic: %d != %d", again, short)
	}
	// 5 glyphs at 12pt should be between 1 and 5 em wide
	if short < 12*dimen.BP || short > 60*dimen.BP {
		t.Errorf("advance of 'Hello' implausible: %.2fbp", short.Points())
	}
}

func TestHBFallsBackWithoutBinary(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.glyphs")
	defer teardown()
	//
	est := estimate.Measurer(nil)
	m := harfbuzz.Measurer(est)
	params := glyphing.Params{Font: font.MissingFont(), Size: 10 * dimen.BP}
	if m.Advance("世界", params) != est.Advance("世界", params) {
		t.Errorf("expected fallback measurer to be used for the missing-coverage font")
	}
}

// ---------------------------------------------------------------------------

func BenchmarkHBAdvance(b *testing.B) {
	m := harfbuzz.Measurer(estimate.Measurer(nil))
	params := glyphing.Params{Font: font.FallbackFont(), Size: 11 * dimen.BP}
	for i := 0; i < b.N; i++ {
		for _, line := range corpus {
			if m.Advance(line, params) <= 0 {
				b.Fatal("expected positive advance")
			}
		}
	}
}

var corpus = []string{
	`Im deutschen Grundgesetz ist der soziale Gedanke grundlegend verankert und sogar vor Änderungen geschützt.`,
	`Soziale Gerechtigkeit ist nicht gleichbedeutend mit vollständiger Gleichheit.`,
	`Geschichtliche Entwicklung`,
	`Mit dem Begriff der Gerechtigkeit befassten sich bereits Aristoteles und Platon.`,
}
