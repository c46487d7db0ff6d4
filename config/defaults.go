package config

import (
	"github.com/gradreader/readerpack/core/font/discover"
	"github.com/gradreader/readerpack/input/providers"
)

// Config is the configuration of the readerpack command.
type Config struct {
	OpenAI   OpenAI            `mapstructure:"openai" yaml:"openai"`
	Pipeline Pipeline          `mapstructure:"pipeline" yaml:"pipeline"`
	Document Document          `mapstructure:"document" yaml:"document"`
	Fonts    Fonts             `mapstructure:"fonts" yaml:"fonts"`
	Output   string            `mapstructure:"output" yaml:"output"`   // directory for pack archives
	Tracing  map[string]string `mapstructure:"tracing" yaml:"tracing"` // package → level, e.g. layout: Debug
}

// OpenAI configures the text generation and speech services.
type OpenAI struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	TextModel   string  `mapstructure:"text_model" yaml:"text_model"`
	SpeechModel string  `mapstructure:"speech_model" yaml:"speech_model"`
	Voice       string  `mapstructure:"voice" yaml:"voice"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64 `mapstructure:"top_p" yaml:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Attempts    uint    `mapstructure:"attempts" yaml:"attempts"`
	RetryDelay  string  `mapstructure:"retry_delay" yaml:"retry_delay"`
	Timeout     string  `mapstructure:"timeout" yaml:"timeout"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// Pipeline configures concurrency and timeouts of pack builds.
type Pipeline struct {
	Workers       int    `mapstructure:"workers" yaml:"workers"`
	TextTimeout   string `mapstructure:"text_timeout" yaml:"text_timeout"`
	SpeechTimeout string `mapstructure:"speech_timeout" yaml:"speech_timeout"`
}

// Document configures assembly and rendering of documents.
type Document struct {
	Format          string `mapstructure:"format" yaml:"format"`     // layout, html or pdf
	Combined        bool   `mapstructure:"combined" yaml:"combined"` // one document for all stories
	Paper           string `mapstructure:"paper" yaml:"paper"`
	Margin          string `mapstructure:"margin" yaml:"margin"`     // e.g. "20mm"
	Fallback        string `mapstructure:"fallback" yaml:"fallback"` // substitute or keep
	Measurer        string `mapstructure:"measurer" yaml:"measurer"` // estimate or harfbuzz
	TocMaxPasses    int    `mapstructure:"toc_max_passes" yaml:"toc_max_passes"`
	PageNumberWidth int    `mapstructure:"page_number_width" yaml:"page_number_width"`
}

// Fonts lists the fonts of the font index. User fonts are preferred over
// system fonts, which are preferred over catalog and built-in fonts.
type Fonts struct {
	Builtin []string              `mapstructure:"builtin" yaml:"builtin"`
	System  []string              `mapstructure:"system" yaml:"system"` // file name patterns
	Files   []discover.Descriptor `mapstructure:"files" yaml:"files"`
	Catalog Catalog               `mapstructure:"catalog" yaml:"catalog"`
}

// Catalog names font families to download from Google Fonts.
type Catalog struct {
	APIKey   string   `mapstructure:"api_key" yaml:"api_key"`
	Families []string `mapstructure:"families" yaml:"families"`
	Variant  string   `mapstructure:"variant" yaml:"variant"`               // e.g. regular or 700
	CacheDir string   `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"` // defaults to the user's cache directory
	BaseURL  string   `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// Measurers for text widths.
const (
	EstimateMeasurer = "estimate"
	HarfbuzzMeasurer = "harfbuzz"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OpenAI: OpenAI{
			APIKey:      "${OPENAI_API_KEY}",
			TextModel:   providers.DefaultTextModel,
			SpeechModel: providers.DefaultSpeechModel,
			Voice:       providers.DefaultVoice,
			Temperature: providers.DefaultTemperature,
			TopP:        providers.DefaultTopP,
			MaxTokens:   providers.DefaultMaxTokens,
			Attempts:    3,
			RetryDelay:  "2s",
			Timeout:     "120s",
		},
		Pipeline: Pipeline{
			Workers:       4,
			TextTimeout:   "5m",
			SpeechTimeout: "60s",
		},
		Document: Document{
			Format:          "layout",
			Paper:           "A4",
			Margin:          "20mm",
			Fallback:        "substitute",
			Measurer:        EstimateMeasurer,
			TocMaxPasses:    5,
			PageNumberWidth: 4,
		},
		Fonts: Fonts{
			Builtin: []string{"go-regular", "go-bold"},
			Catalog: Catalog{
				APIKey:  "${GOOGLE_API_KEY}",
				Variant: "regular",
			},
		},
		Output: ".",
	}
}

// setDefaults registers every leaf key, which lets environment variables
// override keys not present in a configuration file.
func (l *loader) setDefaults(d *Config) {
	v := l.v
	v.SetDefault("openai.api_key", d.OpenAI.APIKey)
	v.SetDefault("openai.text_model", d.OpenAI.TextModel)
	v.SetDefault("openai.speech_model", d.OpenAI.SpeechModel)
	v.SetDefault("openai.voice", d.OpenAI.Voice)
	v.SetDefault("openai.temperature", d.OpenAI.Temperature)
	v.SetDefault("openai.top_p", d.OpenAI.TopP)
	v.SetDefault("openai.max_tokens", d.OpenAI.MaxTokens)
	v.SetDefault("openai.attempts", d.OpenAI.Attempts)
	v.SetDefault("openai.retry_delay", d.OpenAI.RetryDelay)
	v.SetDefault("openai.timeout", d.OpenAI.Timeout)
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	v.SetDefault("pipeline.text_timeout", d.Pipeline.TextTimeout)
	v.SetDefault("pipeline.speech_timeout", d.Pipeline.SpeechTimeout)
	v.SetDefault("document.format", d.Document.Format)
	v.SetDefault("document.combined", d.Document.Combined)
	v.SetDefault("document.paper", d.Document.Paper)
	v.SetDefault("document.margin", d.Document.Margin)
	v.SetDefault("document.fallback", d.Document.Fallback)
	v.SetDefault("document.measurer", d.Document.Measurer)
	v.SetDefault("document.toc_max_passes", d.Document.TocMaxPasses)
	v.SetDefault("document.page_number_width", d.Document.PageNumberWidth)
	v.SetDefault("fonts.builtin", d.Fonts.Builtin)
	v.SetDefault("fonts.system", d.Fonts.System)
	v.SetDefault("fonts.catalog.api_key", d.Fonts.Catalog.APIKey)
	v.SetDefault("fonts.catalog.families", d.Fonts.Catalog.Families)
	v.SetDefault("fonts.catalog.variant", d.Fonts.Catalog.Variant)
	v.SetDefault("fonts.catalog.cache_dir", d.Fonts.Catalog.CacheDir)
	v.SetDefault("fonts.catalog.base_url", d.Fonts.Catalog.BaseURL)
	v.SetDefault("output", d.Output)
}
