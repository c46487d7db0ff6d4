package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gradreader/readerpack/backend/pack"
	"github.com/gradreader/readerpack/backend/render"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/input/providers"
	"github.com/gradreader/readerpack/input/story"
	"golang.org/x/sync/errgroup"
)

// Defaults for a pipeline's configuration.
const (
	DefaultWorkers       = 4
	DefaultTextTimeout   = 5 * time.Minute
	DefaultSpeechTimeout = 60 * time.Second
)

// Stage is a step of a pack build.
type Stage string

// Stages reported to a progress function.
const (
	Generating Stage = "generating"
	Assembling Stage = "assembling"
	Rendering  Stage = "rendering"
	Narrating  Stage = "narrating"
	Packing    Stage = "packing"
	Done       Stage = "done"
)

// Progress tells about the state of a build. For concurrent stages, Done
// counts finished tasks of Total.
type Progress struct {
	Stage   Stage
	StoryID string // empty for stages concerning the whole pack
	Done    int
	Total   int
}

// Config configures a pipeline. Zero values select the defaults.
type Config struct {
	Workers       int            // concurrent render and speech tasks
	TextTimeout   time.Duration  // timeout for generating all stories
	SpeechTimeout time.Duration  // timeout per story narration
	Progress      func(Progress) // optional, called from worker goroutines
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.TextTimeout <= 0 {
		c.TextTimeout = DefaultTextTimeout
	}
	if c.SpeechTimeout <= 0 {
		c.SpeechTimeout = DefaultSpeechTimeout
	}
	return c
}

// Pipeline builds reader packs. A pipeline may be used for more than one
// build, and for concurrent builds if its services are safe for concurrent
// use.
type Pipeline struct {
	generator providers.TextGenerator
	speech    providers.SpeechSynthesizer
	assembler *document.Assembler
	renderer  render.Renderer
	config    Config
}

// New creates a pipeline. speech may be nil, in which case packs are built
// without audio even if the request asks for it.
func New(gen providers.TextGenerator, speech providers.SpeechSynthesizer, assembler *document.Assembler,
	renderer render.Renderer, config Config) (*Pipeline, error) {
	//
	if gen == nil || assembler == nil || renderer == nil {
		return nil, core.Error(core.EMISSING, "pipeline needs a text generator, an assembler and a renderer")
	}
	return &Pipeline{
		generator: gen,
		speech:    speech,
		assembler: assembler,
		renderer:  renderer,
		config:    config.withDefaults(),
	}, nil
}

// Result is the outcome of a successful build.
type Result struct {
	Pack      *pack.Pack
	Stories   []story.Story
	Documents []*document.ReaderDocument
}

// Warnings returns the non-fatal conditions recorded for the pack.
func (r *Result) Warnings() core.Warnings {
	if r == nil || r.Pack == nil {
		return nil
	}
	return r.Pack.Manifest.Warnings
}

// Run validates a request, generates its stories and builds a pack from
// them. Failing to generate stories is fatal. Document options concerning
// the request (profile, topics, glossary, annotations) are taken from req.
func (p *Pipeline) Run(ctx context.Context, req story.Request, opts document.Options) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p.progress(Progress{Stage: Generating, Total: req.StoryCount})
	tctx, cancel := context.WithTimeout(ctx, p.config.TextTimeout)
	stories, err := p.generator.Generate(tctx, req)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, canceled(ctx)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.WrapError(err, core.ECONNECTION, "Story generation timed out after %s.",
				p.config.TextTimeout)
		}
		tracer().Errorf("generating stories: %v", err)
		return nil, err
	}
	tracer().Infof("%d stories generated", len(stories))
	return p.BuildPack(ctx, req, stories, opts)
}

// BuildPack builds a pack from stories already generated for req.
func (p *Pipeline) BuildPack(ctx context.Context, req story.Request, stories []story.Story,
	opts document.Options) (*Result, error) {
	//
	if len(stories) == 0 {
		return nil, core.Error(core.EMISSING, "no stories to build a pack from")
	}
	if err := ctx.Err(); err != nil {
		return nil, canceled(ctx)
	}
	opts.Profile = req.Profile
	opts.Topics = req.Topics
	opts.IncludeGlossary = req.IncludeGlossary
	opts.IncludeAnnotations = req.IncludeAnnotations
	opts.GlossaryLanguage = story.LanguageScript(req.Profile.NativeLanguage)
	p.progress(Progress{Stage: Assembling, Total: len(stories)})
	docs, err := p.assembler.Assemble(stories, opts)
	if err != nil {
		return nil, err
	}
	withAudio := req.IncludeAudio && p.speech != nil
	if req.IncludeAudio && p.speech == nil {
		tracer().Infof("no speech synthesizer configured, building pack without audio")
	}
	mb := pack.NewManifestBuilder(stories, pack.Options{
		Profile:            req.Profile,
		Length:             req.Length,
		Topics:             req.Topics,
		IncludeGlossary:    req.IncludeGlossary,
		IncludeAnnotations: req.IncludeAnnotations,
		IncludeAudio:       withAudio,
		CombinedMode:       opts.CombinedMode,
		Format:             p.renderer.Format(),
	})
	total := len(docs)
	if withAudio {
		total += len(stories)
	}
	counter := &progressCounter{total: total, report: p.progress}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for _, d := range docs {
		if gctx.Err() != nil {
			break
		}
		d := d
		g.Go(func() error {
			return p.render(gctx, mb, d, counter)
		})
	}
	if withAudio {
		for _, s := range stories {
			if gctx.Err() != nil {
				break
			}
			s := s
			g.Go(func() error {
				return p.narrate(gctx, mb, s, req.Voice, counter)
			})
		}
	}
	err = g.Wait()
	if ctx.Err() != nil {
		tracer().Infof("pack build canceled, results discarded")
		return nil, canceled(ctx)
	}
	if err != nil {
		return nil, err
	}
	p.progress(Progress{Stage: Packing, Done: total, Total: total})
	pk, err := mb.Build()
	if err != nil {
		return nil, err
	}
	p.progress(Progress{Stage: Done, Done: total, Total: total})
	return &Result{Pack: pk, Stories: stories, Documents: docs}, nil
}

func (p *Pipeline) render(ctx context.Context, mb *pack.ManifestBuilder, d *document.ReaderDocument,
	counter *progressCounter) error {
	//
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := p.renderer.Render(&buf, d); err != nil {
		tracer().Errorf("rendering %s: %v", d.ID, err)
		return err
	}
	doc := pack.Document{Doc: d, Data: buf.Bytes(), Warnings: render.WarningsOf(p.renderer, d)}
	if err := mb.AddDocument(doc); err != nil {
		return err
	}
	counter.finished(Rendering, d.ID)
	return nil
}

// narrate synthesizes the audio of a story. Failures are recorded as
// warnings and never fail the build.
func (p *Pipeline) narrate(ctx context.Context, mb *pack.ManifestBuilder, s story.Story, voice string,
	counter *progressCounter) error {
	//
	sctx, cancel := context.WithTimeout(ctx, p.config.SpeechTimeout)
	defer cancel()
	audio, err := p.speech.Synthesize(sctx, s.Body(), voice)
	if err == nil {
		err = mb.AddAudio(s.ID, audio)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil // build is canceled anyway
		}
		reason := core.UserMessage(err)
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("no response within %s", p.config.SpeechTimeout)
		}
		tracer().Errorf("narrating %s: %v", s.ID, err)
		mb.AddWarnings(core.Warning{
			Kind:    core.SpeechSynthesis,
			StoryID: s.ID,
			Message: fmt.Sprintf("Audio generation for story %d failed: %s. The document is still available.",
				s.Index, reason),
		})
	}
	counter.finished(Narrating, s.ID)
	return nil
}

func (p *Pipeline) progress(pr Progress) {
	if p.config.Progress != nil {
		p.config.Progress(pr)
	}
}

func canceled(ctx context.Context) error {
	return core.WrapError(ctx.Err(), core.ECANCELED, "Pack construction has been canceled.")
}

// progressCounter counts finished tasks of concurrent workers.
type progressCounter struct {
	mu     sync.Mutex
	done   int
	total  int
	report func(Progress)
}

func (pc *progressCounter) finished(stage Stage, id string) {
	pc.mu.Lock()
	pc.done++
	pr := Progress{Stage: stage, StoryID: id, Done: pc.done, Total: pc.total}
	pc.mu.Unlock()
	pc.report(pr)
}
