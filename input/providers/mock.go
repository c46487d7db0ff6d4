package providers

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/input/story"
)

// MockGenerator is a TextGenerator for tests and dry runs. Its stories are
// derived from the request only.
type MockGenerator struct {
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // fail after N stories (0 = never)
	Paragraphs int // paragraphs per story, default 3

	requestCount atomic.Int64
}

var _ TextGenerator = (*MockGenerator)(nil)

// Requests returns the number of stories requested so far.
func (m *MockGenerator) Requests() int {
	return int(m.requestCount.Load())
}

// Generate is part of interface TextGenerator.
func (m *MockGenerator) Generate(ctx context.Context, req story.Request) ([]story.Story, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	n := m.Paragraphs
	if n <= 0 {
		n = 3
	}
	var stories []story.Story
	for i := 1; i <= req.StoryCount; i++ {
		count := m.requestCount.Add(1)
		if err := wait(ctx, m.Latency); err != nil {
			return nil, err
		}
		if m.ShouldFail || (m.FailAfter > 0 && int(count) > m.FailAfter) {
			return nil, core.WrapError(&ServiceError{Service: TextService, Story: i, Err: fmt.Errorf("mock failure")},
				core.ECONNECTION, "OpenAI request failed: mock failure")
		}
		s := story.Story{ID: story.IDFor(i), Index: i, Title: fmt.Sprintf("Story %d", i)}
		for j := 1; j <= n; j++ {
			p := story.Paragraph{Text: fmt.Sprintf("This is story %d, paragraph %d, written in %s for level %s.",
				i, j, story.LanguageName(req.Profile.LearningLanguage), req.Profile.Level)}
			if req.IncludeAnnotations {
				p.Translation = fmt.Sprintf("Translation of paragraph %d.", j)
			}
			s.Paragraphs = append(s.Paragraphs, p)
		}
		if req.IncludeGlossary {
			s.Glossary = []story.GlossaryEntry{{Term: "story", Definition: "a narrative"}}
		}
		stories = append(stories, s)
	}
	return stories, nil
}

// MockSynthesizer is a SpeechSynthesizer for tests and dry runs. Its audio
// is the text prefixed by the voice.
type MockSynthesizer struct {
	Latency    time.Duration
	ShouldFail bool
	FailFor    func(text string) bool // optional

	requestCount atomic.Int64
}

var _ SpeechSynthesizer = (*MockSynthesizer)(nil)

// Requests returns the number of synthesis requests so far.
func (m *MockSynthesizer) Requests() int {
	return int(m.requestCount.Load())
}

// Synthesize is part of interface SpeechSynthesizer.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	m.requestCount.Add(1)
	if strings.TrimSpace(text) == "" {
		return nil, core.Error(core.EINVALID, "Cannot synthesize audio for empty text.")
	}
	if err := wait(ctx, m.Latency); err != nil {
		return nil, err
	}
	if m.ShouldFail || (m.FailFor != nil && m.FailFor(text)) {
		return nil, core.WrapError(&ServiceError{Service: SpeechService, Status: 500, Err: fmt.Errorf("mock failure")},
			core.ECONNECTION, "OpenAI audio synthesis failed.")
	}
	if voice == "" {
		voice = DefaultVoice
	}
	return []byte("ID3:" + voice + ":" + text), nil
}

// wait waits for a latency, or until ctx is done.
func wait(ctx context.Context, latency time.Duration) error {
	if latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
