/*
Package catalog finds and downloads fonts from the Google Fonts catalog.

The catalog directory is requested once per Catalog from the Google Fonts
developer API, which needs an API key. Font files are downloaded into the
user's cache directory and loaded from there on later use, so a font is
fetched at most once per machine. Fonts from the catalog are indexed with
origin font.OriginCatalog and are preferred less than user and system
fonts.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package catalog

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.fonts")
}
