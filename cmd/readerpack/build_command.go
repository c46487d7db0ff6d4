package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gradreader/readerpack/backend/pack"
	"github.com/gradreader/readerpack/backend/render"
	"github.com/gradreader/readerpack/config"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/input/providers"
	"github.com/gradreader/readerpack/input/story"
	"github.com/gradreader/readerpack/pipeline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type buildFlags struct {
	learning, native string
	schema, level    string
	stories          int
	length           string
	topics           string
	goal, seed       string
	voice            string
	format           string
	output           string
	glossary         bool
	annotations      bool
	audio            bool
	combined         bool
	dryRun           bool
	quiet            bool
}

func (f buildFlags) request() story.Request {
	return story.Request{
		Profile: story.Profile{
			NativeLanguage:   f.native,
			LearningLanguage: f.learning,
			Schema:           story.LevelSchema(f.schema),
			Level:            f.level,
		},
		StoryCount:         f.stories,
		Length:             story.Length(f.length),
		Topics:             story.SanitizeTopics(f.topics),
		Goal:               f.goal,
		PromptSeed:         f.seed,
		IncludeGlossary:    f.glossary,
		IncludeAnnotations: f.annotations,
		IncludeAudio:       f.audio,
		Voice:              f.voice,
	}
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate stories and build a reader pack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				flags.format = cfg.Document.Format
			}
			if !cmd.Flags().Changed("output") {
				flags.output = cfg.Output
			}
			if flags.voice == "" {
				flags.voice = cfg.OpenAI.Voice
			}
			flags.combined = flags.combined || cfg.Document.Combined
			sigctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuild(sigctx, cmd, cfg, flags)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&flags.learning, "learning", "l", "es", "Language to learn")
	fs.StringVarP(&flags.native, "native", "n", "en", "Native language of the learner")
	fs.StringVar(&flags.schema, "schema", string(story.CEFR), "Proficiency framework [CEFR|HSK|General]")
	fs.StringVar(&flags.level, "level", "A2", "Proficiency level")
	fs.IntVarP(&flags.stories, "stories", "s", 3, "Number of stories (1-10)")
	fs.StringVar(&flags.length, "length", string(story.Medium), "Story length [short|medium|long]")
	fs.StringVar(&flags.topics, "topics", "", "Comma-separated topics")
	fs.StringVar(&flags.goal, "goal", "", "Learning goal of the stories")
	fs.StringVar(&flags.seed, "seed", "", "Additional instructions for the text generator")
	fs.StringVar(&flags.voice, "voice", "", "Narration voice")
	fs.StringVarP(&flags.format, "format", "f", "layout", "Document format [layout|html|pdf]")
	fs.StringVarP(&flags.output, "output", "o", ".", "Directory to write the pack to")
	fs.BoolVar(&flags.glossary, "glossary", false, "Include a glossary per story")
	fs.BoolVar(&flags.annotations, "annotations", false, "Include translations and notes per paragraph")
	fs.BoolVar(&flags.audio, "audio", false, "Include narration")
	fs.BoolVar(&flags.combined, "combined", false, "One document for all stories, with a table of contents")
	fs.BoolVar(&flags.dryRun, "dry-run", false, "Use placeholder stories and audio instead of calling services")
	fs.BoolVarP(&flags.quiet, "quiet", "q", false, "Print the path of the pack only")
	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, cfg *config.Config, flags buildFlags) error {
	req := flags.request()
	if err := req.Validate(); err != nil {
		return err
	}
	format, err := render.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	gen, speech, err := services(cfg, flags)
	if err != nil {
		return err
	}
	index, err := cfg.FontIndex(ctx)
	if err != nil {
		return err
	}
	renderer, err := render.New(format, index)
	if err != nil {
		return err
	}
	pconf, err := cfg.PipelineConfig()
	if err != nil {
		return err
	}
	if !flags.quiet {
		pconf.Progress = progressPrinter()
	}
	p, err := pipeline.New(gen, speech, cfg.Assembler(index), renderer, pconf)
	if err != nil {
		return err
	}
	opts, err := cfg.DocumentOptions()
	if err != nil {
		return err
	}
	opts.CombinedMode = flags.combined
	result, err := p.Run(ctx, req, opts)
	if err != nil {
		return err
	}
	path, err := writePack(result.Pack, flags.output)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flags.quiet {
		fmt.Fprintln(out, path)
		return nil
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Story", "Document", "Page", "Audio"},
		storyRows(result.Pack.Manifest), []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight}))
	for _, w := range result.Warnings() {
		pterm.Warning.Println(w.String())
	}
	pterm.Success.Printfln("Reader pack %s written to %s", result.Pack.Manifest.PackID, path)
	return nil
}

// services creates the text generator and the speech synthesizer. Without
// audio requested, no synthesizer is created.
func services(cfg *config.Config, flags buildFlags) (providers.TextGenerator, providers.SpeechSynthesizer, error) {
	if flags.dryRun {
		var speech providers.SpeechSynthesizer
		if flags.audio {
			speech = &providers.MockSynthesizer{}
		}
		return &providers.MockGenerator{}, speech, nil
	}
	pc, err := cfg.ProviderConfig()
	if err != nil {
		return nil, nil, err
	}
	gen, err := providers.NewOpenAIGenerator(pc)
	if err != nil {
		return nil, nil, err
	}
	if !flags.audio {
		return gen, nil, nil
	}
	speech, err := providers.NewOpenAISynthesizer(pc)
	if err != nil {
		return nil, nil, err
	}
	return gen, speech, nil
}

func progressPrinter() func(pipeline.Progress) {
	var mu sync.Mutex
	return func(pr pipeline.Progress) {
		mu.Lock()
		defer mu.Unlock()
		switch pr.Stage {
		case pipeline.Generating:
			pterm.Info.Printfln("Generating %d stories", pr.Total)
		case pipeline.Assembling:
			pterm.Info.Printfln("Typesetting %d stories", pr.Total)
		case pipeline.Rendering, pipeline.Narrating:
			pterm.Info.Printfln("[%d/%d] %s %s", pr.Done, pr.Total, pr.Stage, pr.StoryID)
		case pipeline.Packing:
			pterm.Info.Println("Packing")
		}
	}
}

// writePack writes a pack archive into directory dir.
func writePack(p *pack.Pack, dir string) (string, error) {
	data, err := p.Bytes()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", core.WrapError(err, core.EINVALID, "cannot create directory %s", dir)
	}
	id := p.Manifest.PackID
	if len(id) > 8 {
		id = id[:8]
	}
	path := filepath.Join(dir, "reader_pack_"+id+".zip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", core.WrapError(err, core.EINTERNAL, "cannot write %s", path)
	}
	tracer().Infof("pack written to %s, %s", path, humanize.Bytes(uint64(len(data))))
	return path, nil
}

func storyRows(m pack.Manifest) [][]string {
	rows := make([][]string, 0, len(m.Stories))
	for _, e := range m.Stories {
		page := ""
		if e.Page > 0 {
			page = strconv.Itoa(e.Page)
		}
		audio := "-"
		if e.Audio != nil {
			audio = humanize.Bytes(uint64(e.Audio.Size))
		}
		rows = append(rows, []string{strconv.Itoa(e.Index), e.Title,
			fmt.Sprintf("%s (%s)", e.Document.Name, humanize.Bytes(uint64(e.Document.Size))), page, audio})
	}
	return rows
}
