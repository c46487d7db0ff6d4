package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"golang.org/x/text/language"
)

// DefaultAPI is the endpoint of the Google Fonts developer API.
const DefaultAPI = "https://www.googleapis.com/webfonts/v1/webfonts"

// AppKey names the folder of readerpack in the user's cache directory.
const AppKey = "readerpack"

// FontInfo describes a font family of the catalog.
type FontInfo struct {
	Family   string            `json:"family"`
	Version  string            `json:"version"`
	Variants []string          `json:"variants"`
	Subsets  []string          `json:"subsets"`
	Files    map[string]string `json:"files"` // variant → URL
}

// HasSubset is true if a family supports a subset, e.g. "cyrillic".
func (fi FontInfo) HasSubset(subset string) bool {
	for _, s := range fi.Subsets {
		if s == subset {
			return true
		}
	}
	return false
}

type directory struct {
	Items []FontInfo `json:"items"`
}

// Options configure a catalog. Zero values select the defaults.
type Options struct {
	APIKey     string
	CacheDir   string       // defaults to CacheDirPath("fonts")
	BaseURL    string       // defaults to DefaultAPI
	HTTPClient *http.Client // defaults to a client with a 60s timeout
	Attempts   uint         // download attempts, defaults to 3
}

// Catalog is the Google Fonts catalog. It is safe for concurrent use.
type Catalog struct {
	opts Options

	once  sync.Once
	fonts []FontInfo
	err   error

	mu sync.Mutex // serializes downloads
}

// New creates a catalog client. It fails with core.EMISSING if no API key
// is given.
func New(opts Options) (*Catalog, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, core.Error(core.EMISSING,
			"Google Fonts API key must be configured, e.g. as GOOGLE_API_KEY in the environment; "+
				"please refer to https://developers.google.com/fonts/docs/developer_api")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAPI
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.CacheDir == "" {
		dir, err := CacheDirPath("fonts")
		if err != nil {
			return nil, core.WrapError(err, core.EMISSING, "no cache directory for fonts")
		}
		opts.CacheDir = dir
	}
	return &Catalog{opts: opts}, nil
}

// Fonts returns the families of the catalog, ordered alphabetically. The
// directory is requested on first use.
func (c *Catalog) Fonts(ctx context.Context) ([]FontInfo, error) {
	c.once.Do(func() {
		c.fonts, c.err = c.loadDirectory(ctx)
	})
	return c.fonts, c.err
}

func (c *Catalog) loadDirectory(ctx context.Context) ([]FontInfo, error) {
	values := url.Values{
		"sort": []string{"alpha"},
		"key":  []string{c.opts.APIKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid Google Fonts API URL")
	}
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		tracer().Errorf("Google Fonts API request failed: %v", err)
		return nil, core.WrapError(err, core.ECONNECTION, "could not get font directory from Google Fonts")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		tracer().Errorf("Google Fonts API request not OK: %v", resp.Status)
		return nil, core.WrapError(fmt.Errorf("response: %v", resp.Status), core.ECONNECTION,
			"could not get font directory from Google Fonts")
	}
	var dir directory
	if err := json.NewDecoder(resp.Body).Decode(&dir); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "could not decode font directory from Google Fonts")
	}
	tracer().Infof("%d font families in catalog", len(dir.Items))
	return dir.Items, nil
}

// Match returns the families whose name matches a regular expression.
func (c *Catalog) Match(ctx context.Context, pattern string) ([]FontInfo, error) {
	r, err := regexp.Compile(pattern)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid font pattern %q", pattern)
	}
	fonts, err := c.Fonts(ctx)
	if err != nil {
		return nil, err
	}
	var matches []FontInfo
	for _, fi := range fonts {
		if r.MatchString(fi.Family) {
			matches = append(matches, fi)
		}
	}
	return matches, nil
}

// ForScript returns the families supporting a script.
func (c *Catalog) ForScript(ctx context.Context, scr language.Script) ([]FontInfo, error) {
	subset, ok := Subset(scr)
	if !ok {
		return nil, nil
	}
	fonts, err := c.Fonts(ctx)
	if err != nil {
		return nil, err
	}
	var matches []FontInfo
	for _, fi := range fonts {
		if fi.HasSubset(subset) {
			matches = append(matches, fi)
		}
	}
	return matches, nil
}

// subsets maps scripts to the subset names of the catalog.
var subsets = map[string]string{
	"Latn": "latin",
	"Cyrl": "cyrillic",
	"Grek": "greek",
	"Arab": "arabic",
	"Hebr": "hebrew",
	"Deva": "devanagari",
	"Thai": "thai",
	"Hani": "chinese-simplified",
	"Hans": "chinese-simplified",
	"Hant": "chinese-traditional",
	"Jpan": "japanese",
	"Hira": "japanese",
	"Kana": "japanese",
	"Kore": "korean",
	"Hang": "korean",
}

// Subset returns the catalog subset of a script.
func Subset(scr language.Script) (string, bool) {
	s, ok := subsets[scr.String()]
	return s, ok
}

// Resource returns a font of the catalog as a font resource, downloading
// it if it is not cached yet. variant defaults to "regular".
func (c *Catalog) Resource(ctx context.Context, family, variant string) (*font.Resource, error) {
	if variant == "" {
		variant = "regular"
	}
	fonts, err := c.Fonts(ctx)
	if err != nil {
		return nil, err
	}
	var info *FontInfo
	for i := range fonts {
		if strings.EqualFold(fonts[i].Family, family) {
			info = &fonts[i]
			break
		}
	}
	if info == nil {
		return nil, core.Error(core.EMISSING, "font family %q is not in the catalog", family)
	}
	link, ok := info.Files[variant]
	if !ok {
		return nil, core.Error(core.EMISSING, "font family %q has no variant %q", family, variant)
	}
	fname := strings.ReplaceAll(info.Family, " ", "") + "-" + variant + path.Ext(link)
	fpath := filepath.Join(c.opts.CacheDir, fname)
	if err := c.fetch(ctx, link, fpath); err != nil {
		return nil, err
	}
	f, err := font.LoadResource(fpath, font.OriginCatalog)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot load catalog font %s", fname)
	}
	f.Name = info.Family
	tracer().Infof("catalog font %s loaded from %s", f.ID, fpath)
	return f, nil
}

// fetch downloads a file into the cache, unless it is present already.
func (c *Catalog) fetch(ctx context.Context, link, fpath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := os.Stat(fpath); err == nil {
		tracer().Debugf("%s is cached", fpath)
		return nil
	}
	err := retry.Do(
		func() error {
			return DownloadCachedFile(ctx, c.opts.HTTPClient, fpath, link)
		},
		retry.Context(ctx),
		retry.Attempts(c.opts.Attempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return core.Code(err) == core.ECONNECTION
		}),
	)
	return err
}

// DownloadCachedFile downloads a URL to a local file, usually located in
// the user's cache directory. The file is created only if the download
// succeeds.
func DownloadCachedFile(ctx context.Context, client *http.Client, fpath, link string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return core.WrapError(err, core.EINVALID, "invalid font URL %s", link)
	}
	resp, err := client.Do(req)
	if err != nil {
		return core.WrapError(err, core.ECONNECTION, "cannot download %s", link)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("response: %v", resp.Status)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return core.WrapError(err, core.ECONNECTION, "cannot download %s", link)
		}
		return core.WrapError(err, core.EMISSING, "cannot download %s", link)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fpath), ".download-*")
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot create file in %s", filepath.Dir(fpath))
	}
	defer os.Remove(tmp.Name())
	if _, err = io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return core.WrapError(err, core.ECONNECTION, "cannot download %s", link)
	}
	if err := tmp.Close(); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write %s", fpath)
	}
	return os.Rename(tmp.Name(), fpath)
}

// CacheDirPath checks and possibly creates a folder in the user's cache
// directory. The base cache directory is taken from os.UserCacheDir(),
// plus AppKey. Clients may specify a sequence of folder names, which will
// be appended to the base cache path. Non-existing sub-folders will be
// created as necessary.
func CacheDirPath(subfolders ...string) (string, error) {
	cachedir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	cachedir = filepath.Join(append([]string{cachedir, AppKey}, subfolders...)...)
	if err := os.MkdirAll(cachedir, 0o755); err != nil {
		return "", err
	}
	tracer().Debugf("caching in %s", cachedir)
	return cachedir, nil
}
