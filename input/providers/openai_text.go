package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/input/story"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIGenerator implements TextGenerator with OpenAI chat completions in
// JSON mode, one completion per story.
type OpenAIGenerator struct {
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	attempts    uint
	delay       time.Duration
	client      openai.Client
}

var _ TextGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a text generator. It fails if no API key is
// configured.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, MissingAPIKey()
	}
	cfg = cfg.withDefaults()
	return &OpenAIGenerator{
		model:       cfg.TextModel,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
		attempts:    cfg.Attempts,
		delay:       cfg.RetryDelay,
		client:      newOpenAIClient(cfg, 0),
	}, nil
}

// Model returns the model stories are generated with.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Generate is part of interface TextGenerator. The request is validated
// first; stories are generated one after the other, and the first failing
// story aborts generation.
func (g *OpenAIGenerator) Generate(ctx context.Context, req story.Request) ([]story.Story, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	stories := make([]story.Story, 0, req.StoryCount)
	for i := 1; i <= req.StoryCount; i++ {
		tracer().Infof("Generating story %d of %d", i, req.StoryCount)
		s, err := g.GenerateStory(ctx, req, i)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}
	return stories, nil
}

// GenerateStory generates the story at 1-based position index of a
// request. Unavailable services and malformed responses are retried.
func (g *OpenAIGenerator) GenerateStory(ctx context.Context, req story.Request, index int) (story.Story, error) {
	prompt := story.Prompt(req, index)
	var s story.Story
	err := retry.Do(
		func() error {
			content, err := g.complete(ctx, prompt, index)
			if err != nil {
				return err
			}
			payload := []byte(extractJSON(content))
			if err := ValidateOutput(payload); err != nil {
				return err
			}
			s, err = story.ParseModelOutput(index, payload)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			tracer().Infof("story %d: attempt %d failed: %v", index, n+1, err)
		}),
	)
	if err == nil {
		return s, nil
	}
	if ctx.Err() != nil {
		return story.Story{}, core.WrapError(ctx.Err(), core.ECANCELED, "generation of story %d canceled", index)
	}
	var serr *ServiceError
	if errors.As(err, &serr) {
		return story.Story{}, core.WrapError(err, core.ECONNECTION, "OpenAI request failed: %v", err)
	}
	return story.Story{}, err
}

func (g *OpenAIGenerator) complete(ctx context.Context, prompt string, index int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(story.SystemMessage),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.temperature),
		TopP:        openai.Float(g.topP),
		MaxTokens:   openai.Int(int64(g.maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", serviceError(TextService, index, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", core.Error(core.EINVALID, "No content returned by the model.")
	}
	return resp.Choices[0].Message.Content, nil
}

// retryable decides if a failed attempt is worth another one.
func retryable(err error) bool {
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr.Temporary()
	}
	return core.Code(err) == core.EINVALID
}
