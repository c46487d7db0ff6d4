/*
Package providers connects reader pack construction to hosted text
generation and speech synthesis services.

TextGenerator creates stories for a generation request; failures are fatal
for the construction of a pack. SpeechSynthesizer narrates story text; its
failures are not fatal, a pack is completed without the audio of the
affected story.

OpenAI implementations use the official SDK. Story text is requested in
JSON mode, validated against a JSON schema and retried if the service is
unavailable or the model answers with malformed output. Mock
implementations serve tests and dry runs.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package providers

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.providers'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.providers")
}
