package document

import (
	"fmt"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/engine/layout"
	"github.com/gradreader/readerpack/input/story"
	"golang.org/x/text/language"
)

// State is the assembly state of a document.
type State int8

// Assembly states, in order.
const (
	Draft State = iota
	SegmentsResolved
	LaidOut
	TocStable
	Final
)

func (s State) String() string {
	switch s {
	case Draft:
		return "draft"
	case SegmentsResolved:
		return "segments-resolved"
	case LaidOut:
		return "laid-out"
	case TocStable:
		return "toc-stable"
	case Final:
		return "final"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Defaults for options.
const (
	DefaultTocMaxPasses    = 5
	DefaultPageNumberWidth = 4
	TocLabelLength         = 90 // runes
)

// Options control the assembly of documents.
type Options struct {
	IncludeGlossary    bool
	IncludeAnnotations bool
	CombinedMode       bool            // one document for all stories, with a shared TOC
	GlossaryLanguage   language.Script // script of glossary definitions and translations
	Profile            story.Profile
	Topics             []string
	Geometry           layout.Geometry // zero value selects layout.A4Geometry
	TocMaxPasses       int             // zero value selects DefaultTocMaxPasses
	PageNumberWidth    int             // digits of fixed-width page numbers; zero selects the default
}

func (o Options) withDefaults() Options {
	if o.Geometry == (layout.Geometry{}) {
		o.Geometry = layout.A4Geometry
	}
	if o.TocMaxPasses <= 0 {
		o.TocMaxPasses = DefaultTocMaxPasses
	}
	if o.PageNumberWidth <= 0 {
		o.PageNumberWidth = DefaultPageNumberWidth
	}
	if o.Profile.Schema == "" {
		o.Profile.Schema = story.CEFR
	}
	return o
}

// TocEntry is an entry of a table of contents, resolved to a page number.
type TocEntry struct {
	Label   string         `json:"label"`
	StoryID string         `json:"story_id"`
	Target  layout.BlockID `json:"target"`
	Page    int            `json:"page"`
}

// ReaderDocument is a paginated document of one or more stories.
type ReaderDocument struct {
	ID          string
	Title       string
	Stories     []string // story IDs, in request order
	Pages       []layout.Page
	Toc         []TocEntry
	State       State
	Warnings    core.Warnings
	TocFallback bool // page numbers of the TOC are set in fixed-width fields
	Passes      int  // layout passes used to settle the TOC
}

// PageCount returns the number of pages of a document.
func (d *ReaderDocument) PageCount() int {
	return len(d.Pages)
}

// StoryPage returns the page a story starts on, or 0.
func (d *ReaderDocument) StoryPage(storyID string) int {
	for _, e := range d.Toc {
		if e.StoryID == storyID {
			return e.Page
		}
	}
	return 0
}

func (d *ReaderDocument) String() string {
	return fmt.Sprintf("document %s (%s, %d pages)", d.ID, d.State, len(d.Pages))
}

// CollectionID and CollectionTitle identify a document in combined mode.
const (
	CollectionID    = "collection"
	CollectionTitle = "Graded Reader Collection"
)
