/*
Package pack bundles rendered reader documents and narration audio into a
reader pack: a zip archive with a manifest.

Artifacts are collected, possibly concurrently, by a ManifestBuilder and
ordered by the order of the stories of a request, never by completion
order. Every artifact is identified by its SHA-256 hash, and the ID of a
pack is a name-based UUID (version 5) over all of its content hashes, so
identical content yields an identical pack ID.

Archives are written deterministically: entries appear in manifest order,
carry a fixed modification time and are deflated; manifest.json is always
the last entry. Verify checks an archive against its manifest.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package pack

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.pack'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.pack")
}
