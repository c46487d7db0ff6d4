package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gradreader/readerpack/backend/render"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/catalog"
	"github.com/gradreader/readerpack/core/font/discover"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/engine/glyphing"
	"github.com/gradreader/readerpack/engine/glyphing/estimate"
	"github.com/gradreader/readerpack/engine/glyphing/harfbuzz"
	"github.com/gradreader/readerpack/engine/layout"
	"github.com/gradreader/readerpack/input/providers"
	"github.com/gradreader/readerpack/pipeline"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding
// configuration keys.
const EnvPrefix = "READERPACK"

// DefaultFile is the name of the configuration file searched for if no
// file is given.
const DefaultFile = "readerpack.yaml"

type loader struct {
	v *viper.Viper
}

// Load reads the configuration from cfgFile and the environment. If cfgFile
// is empty, readerpack.yaml is searched for in the working directory and in
// $HOME/.readerpack; a missing file is not an error then.
func Load(cfgFile string) (*Config, error) {
	l := &loader{v: viper.New()}
	l.setDefaults(DefaultConfig())
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		l.v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("$HOME/.readerpack")
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, core.WrapError(err, core.EINVALID, "cannot read configuration: %v", err)
		}
		tracer().Debugf("no configuration file found, using defaults")
	} else {
		tracer().Infof("configuration read from %s", l.v.ConfigFileUsed())
	}
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot decode configuration: %v", err)
	}
	cfg.OpenAI.APIKey = ResolveEnvVars(cfg.OpenAI.APIKey)
	cfg.Fonts.Catalog.APIKey = ResolveEnvVars(cfg.Fonts.Catalog.APIKey)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envReference = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${NAME} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envReference.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// WriteDefault writes the default configuration to path. An existing file
// is overwritten only if force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return core.Error(core.EINVALID, "configuration file %s exists", path)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot encode configuration")
	}
	header := []byte(`# readerpack configuration
# API keys use ${ENV_VAR} syntax to reference an environment variable:
#   export OPENAI_API_KEY=...
#   export GOOGLE_API_KEY=...   (for fonts.catalog.families only)
# Every key may be overridden by READERPACK_<SECTION>_<KEY>, e.g.
#   export READERPACK_PIPELINE_WORKERS=8

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

// Validate checks a configuration.
func (c *Config) Validate() error {
	if _, err := c.PipelineConfig(); err != nil {
		return err
	}
	if _, err := c.ProviderConfig(); err != nil {
		return err
	}
	if _, err := c.Geometry(); err != nil {
		return err
	}
	if _, err := c.FallbackPolicy(); err != nil {
		return err
	}
	if _, err := c.Format(); err != nil {
		return err
	}
	switch c.Document.Measurer {
	case "", EstimateMeasurer, HarfbuzzMeasurer:
	default:
		return core.Error(core.EINVALID, "unknown measurer %q", c.Document.Measurer)
	}
	if c.OpenAI.Voice != "" && !knownVoice(c.OpenAI.Voice) {
		return core.Error(core.EINVALID, "unknown voice %q, choose one of %s", c.OpenAI.Voice,
			strings.Join(providers.Voices, ", "))
	}
	return nil
}

func knownVoice(v string) bool {
	for _, known := range providers.Voices {
		if v == known {
			return true
		}
	}
	return false
}

func duration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, core.Error(core.EINVALID, "%s: invalid duration %q", key, value)
	}
	return d, nil
}

// ProviderConfig returns the configuration of the OpenAI services.
func (c *Config) ProviderConfig() (providers.OpenAIConfig, error) {
	delay, err := duration("openai.retry_delay", c.OpenAI.RetryDelay)
	if err != nil {
		return providers.OpenAIConfig{}, err
	}
	timeout, err := duration("openai.timeout", c.OpenAI.Timeout)
	if err != nil {
		return providers.OpenAIConfig{}, err
	}
	if t := c.OpenAI.Temperature; t < 0 || t > 2 {
		return providers.OpenAIConfig{}, core.Error(core.EINVALID, "openai.temperature out of range: %g", t)
	}
	return providers.OpenAIConfig{
		APIKey:      c.OpenAI.APIKey,
		TextModel:   c.OpenAI.TextModel,
		SpeechModel: c.OpenAI.SpeechModel,
		Temperature: c.OpenAI.Temperature,
		TopP:        c.OpenAI.TopP,
		MaxTokens:   c.OpenAI.MaxTokens,
		Attempts:    c.OpenAI.Attempts,
		RetryDelay:  delay,
		Timeout:     timeout,
		BaseURL:     c.OpenAI.BaseURL,
	}, nil
}

// PipelineConfig returns the configuration of the build pipeline, without
// a progress function.
func (c *Config) PipelineConfig() (pipeline.Config, error) {
	if c.Pipeline.Workers < 0 {
		return pipeline.Config{}, core.Error(core.EINVALID, "pipeline.workers must not be negative")
	}
	text, err := duration("pipeline.text_timeout", c.Pipeline.TextTimeout)
	if err != nil {
		return pipeline.Config{}, err
	}
	speech, err := duration("pipeline.speech_timeout", c.Pipeline.SpeechTimeout)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		Workers:       c.Pipeline.Workers,
		TextTimeout:   text,
		SpeechTimeout: speech,
	}, nil
}

// Geometry returns the page geometry, with equal margins on all sides.
func (c *Config) Geometry() (layout.Geometry, error) {
	g := layout.A4Geometry
	if c.Document.Paper != "" {
		size, ok := dimen.PaperSize(c.Document.Paper)
		if !ok {
			return g, core.Error(core.EINVALID, "unknown paper size %q", c.Document.Paper)
		}
		g.Page = size
	}
	if c.Document.Margin != "" {
		m, pcnt, err := dimen.ParseDimen(c.Document.Margin)
		if err != nil || pcnt || m < 0 {
			return g, core.Error(core.EINVALID, "invalid margin %q", c.Document.Margin)
		}
		g.Margins = dimen.Insets{Top: m, Right: m, Bottom: m, Left: m}
	}
	if err := g.Validate(); err != nil {
		return g, err
	}
	return g, nil
}

// FallbackPolicy returns the policy for code points no font covers.
func (c *Config) FallbackPolicy() (fontindex.FallbackPolicy, error) {
	p, err := fontindex.ParseFallbackPolicy(c.Document.Fallback)
	if err != nil {
		return p, core.WrapError(err, core.EINVALID, "%v", err)
	}
	return p, nil
}

// Format returns the output format of documents.
func (c *Config) Format() (render.Format, error) {
	return render.ParseFormat(c.Document.Format)
}

// DocumentOptions returns the assembly options of documents. Options
// depending on a request are left empty.
func (c *Config) DocumentOptions() (document.Options, error) {
	g, err := c.Geometry()
	if err != nil {
		return document.Options{}, err
	}
	return document.Options{
		CombinedMode:    c.Document.Combined,
		Geometry:        g,
		TocMaxPasses:    c.Document.TocMaxPasses,
		PageNumberWidth: c.Document.PageNumberWidth,
	}, nil
}

// Measurer returns the measurer for text widths. Shaping with HarfBuzz
// falls back to estimated widths for fonts without binary data.
func (c *Config) Measurer() glyphing.Measurer {
	est := estimate.Measurer(nil)
	if c.Document.Measurer == HarfbuzzMeasurer {
		return harfbuzz.Measurer(est)
	}
	return est
}

// Assembler creates a document assembler for a font index.
func (c *Config) Assembler(index *fontindex.Index) *document.Assembler {
	engine := layout.NewEngine(index, c.Measurer(), layout.DefaultStyle)
	return document.NewAssembler(index, engine)
}

// FontDescriptors lists the descriptors of the configured font files and
// system fonts, in that order.
func (c *Config) FontDescriptors() []discover.Descriptor {
	descs := append([]discover.Descriptor(nil), c.Fonts.Files...)
	for i := range descs {
		if descs[i].Origin == "" {
			descs[i].Origin = font.OriginUser.String()
		}
	}
	if len(c.Fonts.System) > 0 {
		descs = append(descs, discover.SystemFonts(c.Fonts.System...)...)
	}
	return descs
}

// Catalog creates a client for the Google Fonts catalog.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	return catalog.New(catalog.Options{
		APIKey:   c.Fonts.Catalog.APIKey,
		CacheDir: c.Fonts.Catalog.CacheDir,
		BaseURL:  c.Fonts.Catalog.BaseURL,
	})
}

// FontIndex loads the configured fonts and builds a font index. The
// built-in fallback font is always part of the index.
func (c *Config) FontIndex(ctx context.Context) (*fontindex.Index, error) {
	policy, err := c.FallbackPolicy()
	if err != nil {
		return nil, err
	}
	fonts, err := discover.LoadAll(ctx, c.FontDescriptors())
	if err != nil {
		return nil, err
	}
	if len(c.Fonts.Catalog.Families) > 0 {
		cat, err := c.Catalog()
		if err != nil {
			return nil, err
		}
		for _, family := range c.Fonts.Catalog.Families {
			f, err := cat.Resource(ctx, family, c.Fonts.Catalog.Variant)
			if err != nil {
				return nil, err
			}
			fonts = append(fonts, f)
		}
	}
	for _, name := range c.Fonts.Builtin {
		f, err := discover.Builtin(font.ID(name))
		if err != nil {
			return nil, err
		}
		fonts = append(fonts, f)
	}
	fonts = append(fonts, font.FallbackFont())
	b := fontindex.NewBuilder().SetFallbackPolicy(policy)
	for _, f := range fonts {
		if err := b.Register(f); err != nil {
			return nil, fmt.Errorf("building font index: %w", err)
		}
	}
	return b.Build(), nil
}
