package dimen

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestParseDimen(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.core")
	defer teardown()
	//
	d, _, err := ParseDimen("12px")
	if err != nil {
		t.Errorf("(1) %s", err.Error())
	} else if d != 12*BP {
		t.Errorf("(1) expected d to be 12bp (%d), is %d", 12*BP, d)
	}
	//
	d, _, err = ParseDimen("0")
	if err != nil {
		t.Errorf("(2) %s", err.Error())
	} else if d != 0 {
		t.Errorf("(2) expected d to be 0, is %d", d)
	}
	//
	d, ispcnt, err := ParseDimen("20%")
	if err != nil {
		t.Errorf("(3) %s", err.Error())
	} else if ispcnt != true {
		t.Errorf("(3) expected percentage-marker to be true, is %v", ispcnt)
	}
	//
	d, _, err = ParseDimen("10.5pt")
	if err != nil {
		t.Errorf("(4) %s", err.Error())
	} else if d != PT.Scale(10.5) {
		t.Errorf("(4) expected d to be 10.5pt (%d), is %d", PT.Scale(10.5), d)
	}
	//
	if _, _, err = ParseDimen("12 furlong"); err == nil {
		t.Errorf("(5) expected error for unknown unit")
	}
}

func TestShrink(t *testing.T) {
	page := Rect{BotR: DINA4}
	content := page.Shrink(Insets{Top: 20 * MM, Right: 15 * MM, Bottom: 20 * MM, Left: 15 * MM})
	if content.Width() != 180*MM {
		t.Errorf("expected content width of 180mm, is %s", content.Width())
	}
	if content.Height() != 257*MM {
		t.Errorf("expected content height of 257mm, is %s", content.Height())
	}
}

func TestPaperSize(t *testing.T) {
	if p, ok := PaperSize("A4"); !ok || p != DINA4 {
		t.Errorf("expected A4 to be known")
	}
	if _, ok := PaperSize("B7"); ok {
		t.Errorf("did not expect B7 to be known")
	}
	if FromPoints(12).Points() != 12 {
		t.Errorf("expected 12bp to round-trip")
	}
}
