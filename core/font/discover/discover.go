package discover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/language"
)

// Descriptor describes a font resource before it is loaded. If Coverage is
// given, it overrides the coverage found in the font file; a descriptor
// with declared coverage and without a path yields a font resource without
// binary data.
type Descriptor struct {
	ID       font.ID  `mapstructure:"id" yaml:"id"`
	Family   string   `mapstructure:"family" yaml:"family"`
	Path     string   `mapstructure:"path" yaml:"path"`
	Origin   string   `mapstructure:"origin" yaml:"origin"`
	Scripts  []string `mapstructure:"scripts" yaml:"scripts,omitempty"`
	Coverage []string `mapstructure:"coverage" yaml:"coverage,omitempty"`
}

// NotFound returns an application error for a missing font.
func NotFound(name string) error {
	e := fmt.Errorf("font missing: %v", name)
	return core.WrapError(e, core.EMISSING, "font not found: %s", name)
}

// Load loads the font resource for a descriptor.
func Load(desc Descriptor) (*font.Resource, error) {
	origin, err := font.ParseOrigin(desc.Origin)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "font %s: invalid origin", desc.Family)
	}
	ranges := make([]font.Range, 0, len(desc.Coverage))
	for _, c := range desc.Coverage {
		r, err := font.ParseRange(c)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "font %s: invalid coverage", desc.Family)
		}
		ranges = append(ranges, r)
	}
	var f *font.Resource
	if desc.Path == "" {
		if len(ranges) == 0 {
			return nil, core.Error(core.EINVALID, "font %s has neither a path nor declared coverage", desc.Family)
		}
		id := desc.ID
		if id == "" {
			id = font.NormalizeFontname(desc.Family, 0, 0)
		}
		f = font.NewResource(id, desc.Family, origin, ranges, font.Metrics{})
	} else {
		if _, err := os.Stat(desc.Path); err != nil {
			return nil, NotFound(desc.Path)
		}
		if f, err = font.LoadResource(desc.Path, origin); err != nil {
			return nil, core.WrapError(err, core.EINVALID, "cannot load font %s", desc.Path)
		}
		if desc.ID != "" {
			f.ID = desc.ID
		}
		if desc.Family != "" {
			f.Name = desc.Family
		}
		if len(ranges) > 0 {
			f.Coverage = font.NewCoverage(ranges...)
		}
	}
	for _, s := range desc.Scripts {
		scr, err := language.ParseScript(s)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "font %s: invalid script %q", desc.Family, s)
		}
		f.Scripts = append(f.Scripts, scr)
	}
	tracer().Debugf("loaded %s", f)
	return f, nil
}

// --- Built-in fonts --------------------------------------------------------

var builtins = []struct {
	id     font.ID
	name   string
	binary []byte
}{
	{"go-regular", "Go", goregular.TTF},
	{"go-bold", "Go", gobold.TTF},
	{"go-italic", "Go", goitalic.TTF},
	{"go-bold-italic", "Go", gobolditalic.TTF},
	{"go-mono", "Go Mono", gomono.TTF},
}

// BuiltinNames returns the IDs of the built-in fonts.
func BuiltinNames() []font.ID {
	ids := make([]font.ID, len(builtins))
	for i, b := range builtins {
		ids[i] = b.id
	}
	return ids
}

// Builtin returns a built-in Go font as a catalog font resource.
func Builtin(id font.ID) (*font.Resource, error) {
	for _, b := range builtins {
		if b.id == id {
			f, err := font.ParseResource(b.id, b.binary, font.OriginCatalog)
			if err != nil {
				return nil, err
			}
			f.Name = b.name
			f.Style, f.Weight = font.GuessStyleAndWeight(string(b.id))
			return f, nil
		}
	}
	return nil, NotFound(string(id))
}

// --- System fonts ----------------------------------------------------------

// FindSystemFont searches for a font file installed on the system. name is
// a font file name, with or without extension (e.g., "NotoSansCJK-Regular").
func FindSystemFont(name string) (Descriptor, error) {
	fpath, err := findfont.Find(name)
	if err != nil || fpath == "" {
		tracer().Infof("%s is not a system font", name)
		return Descriptor{}, NotFound(name)
	}
	tracer().Debugf("%s is a system font: %s", name, fpath)
	return systemDescriptor(fpath), nil
}

// SystemFonts lists the system font files whose base name contains one of
// the patterns, case-insensitive. An empty list of patterns matches every
// TrueType and OpenType font. Descriptors are ordered by pattern, then by
// path.
func SystemFonts(patterns ...string) []Descriptor {
	paths := findfont.List()
	sort.Strings(paths)
	if len(patterns) == 0 {
		patterns = []string{""}
	}
	var descs []Descriptor
	seen := make(map[string]bool)
	for _, p := range patterns {
		for _, fpath := range paths {
			if seen[fpath] || !isFontFile(fpath) || !Matches(fpath, p) {
				continue
			}
			seen[fpath] = true
			descs = append(descs, systemDescriptor(fpath))
		}
	}
	tracer().Debugf("found %d system fonts", len(descs))
	return descs
}

// Matches returns true if a font's file name contains pattern.
func Matches(fontfilename, pattern string) bool {
	basename := filepath.Base(fontfilename)
	basename = strings.ToLower(basename[:len(basename)-len(filepath.Ext(basename))])
	return strings.Contains(basename, strings.ToLower(pattern))
}

func isFontFile(fpath string) bool {
	switch strings.ToLower(filepath.Ext(fpath)) {
	case ".ttf", ".otf":
		return true
	}
	return false // collections (.ttc) are not supported by sfnt.Parse
}

func systemDescriptor(fpath string) Descriptor {
	base := filepath.Base(fpath)
	return Descriptor{
		Family: strings.TrimSuffix(base, filepath.Ext(base)),
		Path:   fpath,
		Origin: font.OriginSystem.String(),
	}
}

// --- Promises --------------------------------------------------------------

// ResourcePromise delivers a font resource after loading has completed.
type ResourcePromise interface {
	Resource(ctx context.Context) (*font.Resource, error)
}

type resPlusErr struct {
	font *font.Resource
	err  error
}

type resourceLoader struct {
	await func(ctx context.Context) (*font.Resource, error)
}

func (loader resourceLoader) Resource(ctx context.Context) (*font.Resource, error) {
	return loader.await(ctx)
}

// Resolve starts loading a font resource in the background.
func Resolve(desc Descriptor) ResourcePromise {
	ch := make(chan resPlusErr, 1)
	go func(ch chan<- resPlusErr) {
		f, err := Load(desc)
		ch <- resPlusErr{font: f, err: err}
		close(ch)
	}(ch)
	return resourceLoader{
		await: func(ctx context.Context) (*font.Resource, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case r := <-ch:
				return r.font, r.err
			}
		},
	}
}

// LoadAll loads a list of descriptors concurrently and returns the font
// resources in descriptor order. The first error encountered, in descriptor
// order, is returned.
func LoadAll(ctx context.Context, descs []Descriptor) ([]*font.Resource, error) {
	promises := make([]ResourcePromise, len(descs))
	for i, d := range descs {
		promises[i] = Resolve(d)
	}
	fonts := make([]*font.Resource, 0, len(descs))
	for i, p := range promises {
		f, err := p.Resource(ctx)
		if err != nil {
			return nil, fmt.Errorf("font #%d (%s): %w", i+1, descs[i].Family, err)
		}
		fonts = append(fonts, f)
	}
	return fonts, nil
}
