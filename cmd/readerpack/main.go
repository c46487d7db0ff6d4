/*
Command readerpack builds graded reader packs.

A reader pack is a zip archive of short stories for language learners,
typeset for a learner profile, with optional narration and a manifest.

	readerpack build --learning es --native en --level A2 --stories 3 --audio
	readerpack build --dry-run --format html --combined
	readerpack fonts
	readerpack fonts --script Cyrl
	readerpack coverage "Hello, 世界"
	readerpack coverage --interactive
	readerpack validate reader_pack_1a2b3c4d.zip
	readerpack config init

Stories and audio are created with the OpenAI API; the API key is taken from
the environment variable OPENAI_API_KEY unless configured otherwise. With
--dry-run, placeholder stories and audio are used and no service is called.
Listing catalog fonts needs a Google Fonts API key, GOOGLE_API_KEY.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gradreader/readerpack/core"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'readerpack.cli'.
func tracer() tracing.Trace {
	return tracing.Select("readerpack.cli")
}

// traceKeys are the keys of the packages of readerpack, without prefix.
var traceKeys = []string{"cli", "config", "fonts", "segment", "layout", "document", "render",
	"pack", "providers", "pipeline"}

func main() {
	initDisplay()
	if err := initTracing(); err != nil {
		fmt.Fprintln(os.Stderr, "error configuring tracing")
		os.Exit(1)
	}
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			pterm.Error.Println(userMessage(err))
		}
		os.Exit(exitCode(err))
	}
}

// initTracing routes tracing to the Go log package, at level Error until
// the configuration tells otherwise.
func initTracing() error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range traceKeys {
		conf["trace.readerpack."+key] = "Error"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// userMessage prefers the user message of application errors.
func userMessage(err error) string {
	if e := core.AppError(nil); errors.As(err, &e) {
		return fmt.Sprintf("[%d] %s", e.ErrorCode(), e.UserMessage())
	}
	return err.Error()
}

// exitCode maps error codes to exit codes: 2 for invalid input, 3 for
// failing services, 1 otherwise.
func exitCode(err error) int {
	switch core.Code(err) {
	case core.EINVALID, core.EMISSING:
		return 2
	case core.ECONNECTION:
		return 3
	case core.ECANCELED:
		return 130
	}
	return 1
}
