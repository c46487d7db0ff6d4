package config

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gradreader/readerpack/backend/render"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/dimen"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "readerpack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.config")
	defer teardown()
	//
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := filepath.Join(t.TempDir(), "readerpack.yaml")
	require.NoError(t, WriteDefault(path, false))
	err := WriteDefault(path, false)
	assert.Equal(t, core.EINVALID, core.Code(err), "existing files are kept")
	require.NoError(t, WriteDefault(path, true))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	defaults := DefaultConfig()
	assert.Equal(t, defaults.Document, cfg.Document)
	assert.Equal(t, defaults.Pipeline, cfg.Pipeline)
	pc, err := cfg.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, pc.Workers)
	assert.Equal(t, 5*time.Minute, pc.TextTimeout)
	assert.Equal(t, 60*time.Second, pc.SpeechTimeout)
	oc, err := cfg.ProviderConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, oc.RetryDelay)
	assert.Equal(t, uint(3), oc.Attempts)
}

func TestFileAndEnvironment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.config")
	defer teardown()
	//
	path := writeFile(t, `
document:
  format: html
  paper: A5
  margin: 15mm
  fallback: keep
  combined: true
pipeline:
  workers: 2
fonts:
  builtin: [go-regular]
  files:
    - id: fake-cjk
      family: Fake CJK
      scripts: [Hani]
      coverage: ["U+4E00-U+9FFF"]
tracing:
  layout: Debug
`)
	t.Setenv("READERPACK_PIPELINE_WORKERS", "8")
	t.Setenv("READERPACK_OPENAI_VOICE", "verse")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pipeline.Workers, "environment overrides file")
	assert.Equal(t, "verse", cfg.OpenAI.Voice)
	assert.Equal(t, "Debug", cfg.Tracing["layout"])
	f, err := cfg.Format()
	require.NoError(t, err)
	assert.Equal(t, render.HTML, f)
	opts, err := cfg.DocumentOptions()
	require.NoError(t, err)
	assert.True(t, opts.CombinedMode)
	assert.Equal(t, dimen.DINA5, opts.Geometry.Page)
	assert.Equal(t, 15*dimen.MM, opts.Geometry.Margins.Left)
	ix, err := cfg.FontIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fontindex.KeepText, ix.Policy())
	cjk, ok := ix.Font("fake-cjk")
	require.True(t, ok)
	assert.Equal(t, font.OriginUser, cjk.Origin)
	assert.True(t, cjk.Coverage.Contains('世'))
	_, ok = ix.Font(font.FallbackFont().ID)
	assert.True(t, ok, "fallback font is always indexed")
	assert.Equal(t, 3, ix.Len())
	assert.NotNil(t, cfg.Assembler(ix))
}

func TestInvalidConfiguration(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.config")
	defer teardown()
	//
	for _, content := range []string{
		"document:\n  paper: B7\n",
		"document:\n  margin: 20furlongs\n",
		"document:\n  margin: 110mm\n",
		"document:\n  fallback: drop\n",
		"document:\n  format: docx\n",
		"document:\n  measurer: ruler\n",
		"pipeline:\n  speech_timeout: soon\n",
		"openai:\n  voice: nobody\n",
		"openai:\n  temperature: 3.5\n",
	} {
		_, err := Load(writeFile(t, content))
		assert.Equal(t, core.EINVALID, core.Code(err), content)
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, core.EINVALID, core.Code(err), "an explicitly named file must exist")
}

func TestResolveEnvVars(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.config")
	defer teardown()
	//
	t.Setenv("RP_TEST_KEY", "abc")
	assert.Equal(t, "key-abc", ResolveEnvVars("key-${RP_TEST_KEY}"))
	assert.Equal(t, "", ResolveEnvVars("${RP_TEST_UNSET}"))
	assert.Equal(t, "plain", ResolveEnvVars("plain"))
}

func TestDuplicateFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.config")
	defer teardown()
	//
	cfg := DefaultConfig()
	cfg.Fonts.Builtin = []string{"go-regular", "go-regular"}
	_, err := cfg.FontIndex(context.Background())
	var dup fontindex.DuplicateFontError
	assert.ErrorAs(t, err, &dup)
	cfg.Fonts.Builtin = []string{"no-such-font"}
	_, err = cfg.FontIndex(context.Background())
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestCatalogFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.config")
	defer teardown()
	//
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/webfonts":
			fmt.Fprintf(w, `{"items":[{"family":"Go Mono","variants":["regular"],"subsets":["latin"],`+
				`"files":{"regular":"%s/gomono.ttf"}}]}`, server.URL)
		case "/gomono.ttf":
			_, _ = w.Write(gomono.TTF)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	t.Setenv("GOOGLE_API_KEY", "g-test")
	path := writeFile(t, fmt.Sprintf(`
fonts:
  catalog:
    families: [Go Mono]
    cache_dir: %s
    base_url: %s/webfonts
`, t.TempDir(), server.URL))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "g-test", cfg.Fonts.Catalog.APIKey)
	assert.Equal(t, "regular", cfg.Fonts.Catalog.Variant)
	ix, err := cfg.FontIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, ix.Len())
	var found *font.Resource
	for _, f := range ix.Fonts() {
		if f.Name == "Go Mono" {
			found = f
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, font.OriginCatalog, found.Origin)
	t.Setenv("GOOGLE_API_KEY", "")
	cfg, err = Load(path)
	require.NoError(t, err)
	_, err = cfg.FontIndex(context.Background())
	assert.Equal(t, core.EMISSING, core.Code(err), "catalog families need an API key")
}
