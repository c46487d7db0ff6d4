/*
Package config loads the configuration of the readerpack command.

Configuration is read from a YAML file and from environment variables
prefixed with READERPACK_, e.g. READERPACK_PIPELINE_WORKERS=8. Values of
the form ${NAME} are replaced by the environment variable NAME, which is
how the OpenAI API key is configured by default. The packages of the
reader pack engine never read configuration themselves; this package turns
configuration into the explicit options they expect.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package config

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'readerpack.config'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.config")
}
