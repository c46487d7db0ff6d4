package providers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gradreader/readerpack/core"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Defaults for the OpenAI services.
const (
	DefaultTextModel   = "gpt-4o-mini"
	DefaultSpeechModel = "gpt-4o-mini-tts"
	DefaultTemperature = 0.7
	DefaultTopP        = 0.95
	DefaultMaxTokens   = 1200
)

// OpenAIConfig holds configuration for the OpenAI clients.
type OpenAIConfig struct {
	APIKey      string
	TextModel   string        // "gpt-4o-mini" (default)
	SpeechModel string        // "gpt-4o-mini-tts" (default)
	Temperature float64       // 0.1-1.0
	TopP        float64       // nucleus sampling
	MaxTokens   int           // per story
	Attempts    uint          // attempts per story, including the first
	RetryDelay  time.Duration // base delay between attempts
	Timeout     time.Duration // HTTP timeout
	BaseURL     string        // Optional (tests)
	HTTPClient  *http.Client  // Optional (tests)
}

func (cfg OpenAIConfig) withDefaults() OpenAIConfig {
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = DefaultSpeechModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.TopP <= 0 {
		cfg.TopP = DefaultTopP
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return cfg
}

// MissingAPIKey is returned by constructors of OpenAI clients if no API key
// is configured.
func MissingAPIKey() error {
	return core.Error(core.EMISSING,
		"OPENAI_API_KEY is not configured. Set it as an environment variable or in the configuration file.")
}

// newOpenAIClient creates an SDK client. SDK retries are limited to
// maxRetries; retries of text generation are handled by the generator.
func newOpenAIClient(cfg OpenAIConfig, maxRetries int) openai.Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(maxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return openai.NewClient(opts...)
}

// serviceError maps an error of the SDK to a ServiceError.
func serviceError(service string, index int, err error) *ServiceError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &ServiceError{Service: service, Story: index, Status: apiErr.StatusCode,
			Err: fmt.Errorf("OpenAI: %s", msg)}
	}
	return &ServiceError{Service: service, Story: index, Err: err}
}
