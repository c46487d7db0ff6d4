package render

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/engine/layout"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/font/sfnt"
)

// pdfcpu keeps user fonts in a process wide directory and metrics table.
var installing sync.Mutex

// InstallFonts installs the fonts of an index, and the fallback font, as
// pdfcpu user fonts. It returns the PDF font names of the installed fonts.
// Fonts which cannot be installed, e.g. fonts without font data or CFF
// based OpenType fonts, are left out and will be set with core fonts.
func InstallFonts(index *fontindex.Index) map[font.ID]string {
	installing.Lock()
	defer installing.Unlock()
	model.NewDefaultConfiguration() // sets up pdfcpu's user font directory
	fonts := append(index.Fonts(), font.FallbackFont())
	names := make(map[font.ID]string, len(fonts))
	for _, f := range fonts {
		if _, ok := names[f.ID]; ok {
			continue
		}
		name, err := installFont(f)
		if err != nil {
			tracer().Infof("font %s will be set with a core font in PDF: %v", f.ID, err)
			continue
		}
		tracer().Debugf("font %s installed for PDF as %s", f.ID, name)
		names[f.ID] = name
	}
	return names
}

func installFont(f *font.Resource) (string, error) {
	data := f.Binary
	if len(data) == 0 && f.Path != "" {
		var err error
		if data, err = os.ReadFile(f.Path); err != nil {
			return "", core.WrapError(err, core.EMISSING, "cannot read font file %s", f.Path)
		}
	}
	if len(data) == 0 {
		return "", core.Error(core.EMISSING, "font %s has no font data", f.ID)
	}
	name, err := postScriptName(data)
	if err != nil {
		return "", err
	}
	if pdffont.IsUserFont(name) {
		return name, nil
	}
	if pdffont.UserFontDir == "" {
		return "", core.Error(core.EMISSING, "pdfcpu has no user font directory")
	}
	if err := pdffont.InstallFontFromBytes(pdffont.UserFontDir, name, data); err != nil {
		return "", core.WrapError(err, core.EINVALID, "cannot install font %s: %v", f.ID, err)
	}
	if err := pdffont.LoadUserFonts(); err != nil {
		return "", core.WrapError(err, core.EINTERNAL, "cannot load user fonts: %v", err)
	}
	if !pdffont.IsUserFont(name) {
		return "", core.Error(core.EINTERNAL, "font %s not installed as %s", f.ID, name)
	}
	return name, nil
}

// postScriptName returns the name pdfcpu installs a font with.
func postScriptName(data []byte) (string, error) {
	otf, err := sfnt.Parse(data)
	if err != nil {
		return "", core.WrapError(err, core.EINVALID, "cannot parse font: %v", err)
	}
	name, err := otf.Name(nil, sfnt.NameIDPostScript)
	if err != nil || name == "" {
		return "", core.Error(core.EINVALID, "font has no PostScript name")
	}
	return name, nil
}

// --- Code points lost to core fonts ----------------------------------------

// Warnings is part of interface Reporter. It reports code points of runs
// set with a core font which Windows-1252 cannot encode, per story and
// script. Substitute glyphs are not reported again.
func (pr *PDFRenderer) Warnings(doc *document.ReaderDocument) core.Warnings {
	type key struct{ story, script string }
	var order []key
	lost := make(map[key]map[rune]bool)
	for _, p := range doc.Pages {
		for _, pl := range p.Placements {
			for _, l := range pl.Lines {
				for _, r := range l.Runs {
					if _, ok := pr.names[pr.resource(r).ID]; ok {
						continue
					}
					for _, c := range pr.text(r) {
						if c == fontindex.SubstituteRune || encodable(c) {
							continue
						}
						k := key{storyOf(doc, pl.Block), font.ScriptOf(c).String()}
						if lost[k] == nil {
							lost[k] = make(map[rune]bool)
							order = append(order, k)
						}
						lost[k][c] = true
					}
				}
			}
		}
	}
	var ws core.Warnings
	for _, k := range order {
		cps := make([]rune, 0, len(lost[k]))
		for c := range lost[k] {
			cps = append(cps, c)
		}
		sort.Slice(cps, func(i, j int) bool { return cps[i] < cps[j] })
		ws = append(ws, core.Warning{
			Kind:       core.CoverageGap,
			StoryID:    k.story,
			Script:     k.script,
			CodePoints: cps,
			Message:    coreFontMessage(len(cps)),
		})
	}
	return ws
}

func coreFontMessage(n int) string {
	return fmt.Sprintf("%d code point(s) cannot be set with PDF core fonts", n)
}

// storyOf returns the ID of the story a block belongs to. Block IDs of
// stories are prefixed by the story ID.
func storyOf(doc *document.ReaderDocument, b layout.Block) string {
	if len(doc.Stories) == 1 {
		return doc.Stories[0]
	}
	for _, id := range doc.Stories {
		if strings.HasPrefix(string(b.ID), id+"/") {
			return id
		}
	}
	return ""
}
