package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gradreader/readerpack/backend/pack"
	"github.com/gradreader/readerpack/backend/render"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/input/providers"
	"github.com/gradreader/readerpack/input/story"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(n int, audio bool) story.Request {
	return story.Request{
		Profile:         story.Profile{NativeLanguage: "en", LearningLanguage: "es", Schema: story.CEFR, Level: "A2"},
		StoryCount:      n,
		Length:          story.Short,
		Topics:          []string{"market"},
		IncludeGlossary: true,
		IncludeAudio:    audio,
	}
}

func newPipeline(t *testing.T, gen providers.TextGenerator, speech providers.SpeechSynthesizer,
	config Config) *Pipeline {
	//
	ix, err := fontindex.New(font.FallbackFont())
	require.NoError(t, err)
	r, err := render.New(render.Layout, ix)
	require.NoError(t, err)
	p, err := New(gen, speech, document.NewAssembler(ix, nil), r, config)
	require.NoError(t, err)
	return p
}

func TestPartialAudioFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	speech := &providers.MockSynthesizer{FailFor: func(text string) bool {
		return strings.Contains(text, "story 3,")
	}}
	p := newPipeline(t, &providers.MockGenerator{}, speech, Config{})
	result, err := p.Run(context.Background(), request(5, true), document.Options{})
	require.NoError(t, err)
	m := result.Pack.Manifest
	require.Len(t, m.Stories, 5)
	for i, e := range m.Stories {
		assert.Equal(t, story.IDFor(i+1), e.StoryID, "manifest follows request order")
		assert.Equal(t, i != 2, e.HasAudio)
	}
	assert.Len(t, m.Files, 9)
	ws := result.Warnings().Of(core.SpeechSynthesis)
	require.Len(t, ws, 1)
	assert.Equal(t, "story-3", ws[0].StoryID)
	assert.Contains(t, ws[0].Message, "Audio generation for story 3 failed")
	assert.Equal(t, 5, speech.Requests())
	_, err = pack.Verify(mustBytes(t, result.Pack))
	assert.NoError(t, err)
}

func TestCombinedBuild(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	p := newPipeline(t, &providers.MockGenerator{}, &providers.MockSynthesizer{}, Config{Workers: 2})
	result, err := p.Run(context.Background(), request(3, true), document.Options{CombinedMode: true})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	m := result.Pack.Manifest
	assert.Equal(t, pack.CombinedMode, m.Mode)
	require.Len(t, m.Stories, 3)
	for _, e := range m.Stories {
		assert.Equal(t, pack.CollectionBaseName+".json", e.Document.Name)
		assert.Greater(t, e.Page, 0)
		assert.True(t, e.HasAudio)
	}
	assert.Len(t, m.Files, 4)
}

func TestSpeechTimeoutIsWarning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	speech := &providers.MockSynthesizer{Latency: 500 * time.Millisecond}
	p := newPipeline(t, &providers.MockGenerator{}, speech, Config{SpeechTimeout: 10 * time.Millisecond})
	result, err := p.Run(context.Background(), request(2, true), document.Options{})
	require.NoError(t, err)
	ws := result.Warnings().Of(core.SpeechSynthesis)
	require.Len(t, ws, 2)
	assert.Equal(t, "story-1", ws[0].StoryID)
	assert.Equal(t, "story-2", ws[1].StoryID)
	assert.Contains(t, ws[0].Message, "no response within 10ms")
	for _, e := range result.Pack.Manifest.Stories {
		assert.False(t, e.HasAudio)
	}
}

func TestCanceledBeforeDispatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	speech := &providers.MockSynthesizer{}
	p := newPipeline(t, &providers.MockGenerator{}, speech, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := p.Run(ctx, request(3, true), document.Options{})
	assert.Nil(t, result)
	assert.Equal(t, core.ECANCELED, core.Code(err))
	assert.Equal(t, 0, speech.Requests())
}

func TestCanceledWhileRendering(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	config := Config{Workers: 1, Progress: func(pr Progress) {
		if pr.Stage == Rendering {
			cancel()
		}
	}}
	p := newPipeline(t, &providers.MockGenerator{}, &providers.MockSynthesizer{}, config)
	result, err := p.Run(ctx, request(4, true), document.Options{})
	assert.Nil(t, result, "partial results are discarded")
	assert.Equal(t, core.ECANCELED, core.Code(err))
}

func TestGenerationFailureIsFatal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	speech := &providers.MockSynthesizer{}
	p := newPipeline(t, &providers.MockGenerator{FailAfter: 2}, speech, Config{})
	_, err := p.Run(context.Background(), request(3, true), document.Options{})
	assert.Equal(t, core.ECONNECTION, core.Code(err))
	assert.Equal(t, 0, speech.Requests())
}

func TestInvalidRequest(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	gen := &providers.MockGenerator{}
	p := newPipeline(t, gen, nil, Config{})
	req := request(3, false)
	req.Profile.NativeLanguage = "es"
	_, err := p.Run(context.Background(), req, document.Options{})
	assert.Equal(t, core.EINVALID, core.Code(err))
	assert.Equal(t, 0, gen.Requests())
}

func TestWithoutAudio(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	speech := &providers.MockSynthesizer{}
	var mu sync.Mutex
	stages := map[Stage]int{}
	config := Config{Progress: func(pr Progress) {
		mu.Lock()
		defer mu.Unlock()
		stages[pr.Stage]++
	}}
	p := newPipeline(t, &providers.MockGenerator{}, speech, config)
	result, err := p.Run(context.Background(), request(3, false), document.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, speech.Requests())
	assert.False(t, result.Pack.Manifest.IncludeAudio)
	assert.Len(t, result.Pack.Files, 3)
	assert.Equal(t, 3, stages[Rendering])
	assert.Equal(t, 0, stages[Narrating])
	assert.Equal(t, 1, stages[Done])
	// no synthesizer at all
	p = newPipeline(t, &providers.MockGenerator{}, nil, Config{})
	result, err = p.Run(context.Background(), request(2, true), document.Options{})
	require.NoError(t, err)
	assert.False(t, result.Pack.Manifest.IncludeAudio)
}

func TestNewRequiresServices(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pipeline")
	defer teardown()
	//
	_, err := New(nil, nil, nil, nil, Config{})
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func mustBytes(t *testing.T, p *pack.Pack) []byte {
	b, err := p.Bytes()
	require.NoError(t, err)
	return b
}
