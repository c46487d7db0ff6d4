package font

import (
	"sync"

	"golang.org/x/image/font/gofont/goregular"
)

// FallbackFont returns a font to be used if everything else failes. It is
// always present. Currently we use Go Sans.
//
// The missing-coverage pseudo font borrows its metrics, so text without a
// covering font still occupies a plausible amount of space.
func FallbackFont() *Resource {
	fallbackFontLoading.Do(func() {
		fallbackFont = loadFallbackFont()
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

// fallbackFont is a font that is used if everything else failes.
// Currently we use Go Sans.
var fallbackFont *Resource

func loadFallbackFont() *Resource {
	gofont, err := ParseResource("go-sans", goregular.TTF, OriginCatalog)
	if err != nil {
		panic("cannot load default font") // this cannot happen
	}
	gofont.Name = "Go Sans"
	gofont.Path = "internal"
	return gofont
}

// MissingFont returns the missing-coverage pseudo font. It covers no code
// points and has the metrics of the fallback font.
func MissingFont() *Resource {
	missingFontCreation.Do(func() {
		missingFont = &Resource{
			ID:      MissingID,
			Name:    "Go Sans",
			Origin:  OriginCatalog,
			Metrics: FallbackFont().Metrics,
		}
	})
	return missingFont
}

var missingFontCreation sync.Once

var missingFont *Resource
