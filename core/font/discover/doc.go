/*
Package discover finds font resources outside of a font index.

Discovery produces font resources (or descriptors of them) which clients
then use to build a new font index. It never mutates an existing index.

As loading a font and probing its coverage may be a time-consuming task,
loading works in an async/await fashion by returning a promise. Functions
named

   Resolve…(…)

will return a promise, which the client will call later to receive the
loaded font resource. The call to the promise-function will then block until
loading has completed or the context is done.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package discover

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces to tracing key 'readerpack.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.fonts")
}
