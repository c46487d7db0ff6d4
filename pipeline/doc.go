/*
Package pipeline builds reader packs end to end.

A pipeline generates the stories of a request, assembles them into
documents, renders the documents and synthesizes narration for each story,
and finally collects everything into a pack. Rendering and speech synthesis
run concurrently, bounded by a number of workers. Story generation is the
only step whose failure is fatal for a pack besides rendering; a story whose
narration fails or times out is delivered without audio and flagged by a
warning.

Canceling the context of a build stops dispatching work. Partial results of
a canceled build are discarded.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package pipeline

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.pipeline'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.pipeline")
}
