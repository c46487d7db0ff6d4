package estimate

import (
	"math"
	"sync"

	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/engine/glyphing"
	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/uax11"
)

type measurer struct {
	context *uax11.Context
}

var graphemeClassesSetup sync.Once

// Measurer creates a measurer estimating advances from font metrics. If
// context is nil, a Latin context is used, i.e. east asian ambiguous code
// points count as narrow.
func Measurer(context *uax11.Context) glyphing.Measurer {
	if context == nil {
		context = uax11.LatinContext
	}
	graphemeClassesSetup.Do(grapheme.SetupGraphemeClasses)
	return measurer{context: context}
}

// Advance returns the estimated advance of text. A missing font is
// replaced by the fallback font.
func (m measurer) Advance(text string, params glyphing.Params) dimen.Dimen {
	if text == "" {
		return 0
	}
	metrics := font.FallbackFont().Metrics
	if params.Font != nil {
		metrics = params.Font.Metrics
	}
	return Width(Cells(text, m.context), metrics, params.Size)
}

// Cells returns the number of character cells text occupies: the sum of
// the east asian width classes of its grapheme clusters.
func Cells(text string, context *uax11.Context) int {
	graphemeClassesSetup.Do(grapheme.SetupGraphemeClasses)
	gstr := grapheme.StringFromString(text)
	cells := 0
	for i := 0; i < gstr.Len(); i++ {
		cells += uax11.Width([]byte(gstr.Nth(i)), context)
	}
	tracer().Debugf("%q occupies %d cells", text, cells)
	return cells
}

// Width returns the advance of a number of cells, set with a font of given
// metrics and size. Results are rounded to full scaled points.
func Width(cells int, metrics font.Metrics, size dimen.Dimen) dimen.Dimen {
	w := float64(cells) * metrics.AvgAdvance * float64(size)
	return dimen.Dimen(math.Round(w))
}
