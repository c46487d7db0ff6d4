package pack

import (
	"bytes"
	"sort"
	"sync"

	"github.com/gradreader/readerpack/backend/render"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/input/story"
)

// Options are the options of a pack, recorded in its manifest.
type Options struct {
	Profile            story.Profile
	Length             story.Length
	Topics             []string
	IncludeGlossary    bool
	IncludeAnnotations bool
	IncludeAudio       bool
	CombinedMode       bool
	Format             render.Format // format of the documents
}

// Document is a rendered reader document.
type Document struct {
	Doc      *document.ReaderDocument
	Data     []byte
	Warnings core.Warnings // raised while rendering
}

// File is an entry of a pack's archive.
type File struct {
	Name string
	Data []byte
}

// Pack is a complete reader pack: the manifest and the files it lists, in
// archive order.
type Pack struct {
	Manifest Manifest
	Files    []File
}

// ManifestBuilder collects the artifacts of a pack. It is safe for
// concurrent use; the resulting manifest is ordered by the stories it has
// been created for, independent of the order artifacts arrive in.
type ManifestBuilder struct {
	mu       sync.Mutex
	stories  []story.Story
	pos      map[string]int
	opts     Options
	docs     map[string]Document
	audio    map[string][]byte
	warnings core.Warnings
}

// NewManifestBuilder creates a manifest builder for stories, in request
// order.
func NewManifestBuilder(stories []story.Story, opts Options) *ManifestBuilder {
	mb := &ManifestBuilder{
		stories: append([]story.Story(nil), stories...),
		pos:     make(map[string]int, len(stories)),
		opts:    opts,
		docs:    make(map[string]Document),
		audio:   make(map[string][]byte),
	}
	for i, s := range stories {
		mb.pos[s.ID] = i
	}
	return mb
}

// AddDocument adds a rendered document. Documents are identified by their
// ID, which is a story ID or, in combined mode, document.CollectionID.
func (mb *ManifestBuilder) AddDocument(d Document) error {
	if d.Doc == nil {
		return core.Error(core.EINVALID, "document without content")
	}
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if _, ok := mb.docs[d.Doc.ID]; ok {
		return core.Error(core.EINVALID, "duplicate document %s", d.Doc.ID)
	}
	mb.docs[d.Doc.ID] = d
	tracer().Debugf("document %s added, %d bytes", d.Doc.ID, len(d.Data))
	return nil
}

// AddAudio adds the narration of a story.
func (mb *ManifestBuilder) AddAudio(storyID string, audio []byte) error {
	if len(audio) == 0 {
		return core.Error(core.EINVALID, "empty audio for story %s", storyID)
	}
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if _, ok := mb.pos[storyID]; !ok {
		return core.Error(core.EINVALID, "audio for unknown story %s", storyID)
	}
	if _, ok := mb.audio[storyID]; ok {
		return core.Error(core.EINVALID, "duplicate audio for story %s", storyID)
	}
	mb.audio[storyID] = audio
	tracer().Debugf("audio for %s added, %d bytes", storyID, len(audio))
	return nil
}

// AddWarnings adds non-fatal conditions to be recorded in the manifest.
func (mb *ManifestBuilder) AddWarnings(ws ...core.Warning) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.warnings = append(mb.warnings, ws...)
}

// Build creates the pack. Every story must have a document, or, in
// combined mode, the collection document must be present; audio is
// optional.
func (mb *ManifestBuilder) Build() (*Pack, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	ext := mb.opts.Format.Extension()
	m := Manifest{
		StoryLength:        string(mb.opts.Length),
		Topics:             mb.opts.Topics,
		IncludeGlossary:    mb.opts.IncludeGlossary,
		IncludeAnnotations: mb.opts.IncludeAnnotations,
		IncludeAudio:       mb.opts.IncludeAudio,
		Mode:               SplitMode,
		Format:             string(mb.opts.Format),
	}
	if m.Format == "" {
		m.Format = string(render.Layout)
	}
	m.profileFields(mb.opts.Profile)
	p := &Pack{}
	entries := make([]Entry, len(mb.stories))
	var warnings core.Warnings
	if mb.opts.CombinedMode {
		m.Mode = CombinedMode
		d, ok := mb.docs[document.CollectionID]
		if !ok {
			return nil, core.Error(core.EMISSING, "combined document is missing")
		}
		ref := p.add(CollectionBaseName+"."+ext, d.Data)
		warnings = append(warnings, d.Doc.Warnings...)
		warnings = append(warnings, d.Warnings...)
		for i, s := range mb.stories {
			entries[i] = Entry{Index: i + 1, StoryID: s.ID, Title: s.Title, Document: ref,
				Page: d.Doc.StoryPage(s.ID)}
			mb.addAudio(p, &entries[i], i, s)
		}
	} else {
		for i, s := range mb.stories {
			d, ok := mb.docs[s.ID]
			if !ok {
				return nil, core.Error(core.EMISSING, "document of story %s is missing", s.ID)
			}
			ref := p.add(StoryFileName(i+1, s.Title, ext), d.Data)
			warnings = append(warnings, d.Doc.Warnings...)
			warnings = append(warnings, d.Warnings...)
			entries[i] = Entry{Index: i + 1, StoryID: s.ID, Title: s.Title, Document: ref}
			mb.addAudio(p, &entries[i], i, s)
		}
	}
	extra := append(core.Warnings(nil), mb.warnings...)
	sort.SliceStable(extra, func(i, j int) bool {
		return mb.position(extra[i].StoryID) < mb.position(extra[j].StoryID)
	})
	m.Stories = entries
	m.Warnings = append(warnings, extra...)
	for _, f := range p.Files {
		m.Files = append(m.Files, refOf(f.Name, f.Data))
	}
	m.PackID = packID(m.Files)
	p.Manifest = m
	tracer().Infof("pack %s: %d stories, %d files, %d warnings", m.PackID, len(entries),
		len(p.Files), len(m.Warnings))
	return p, nil
}

// addAudio adds the audio of a story to the archive, right after the
// story's document, and completes its entry.
func (mb *ManifestBuilder) addAudio(p *Pack, e *Entry, i int, s story.Story) {
	if a, ok := mb.audio[s.ID]; ok {
		ref := p.add(StoryFileName(i+1, s.Title, AudioExtension), a)
		e.Audio = &ref
		e.HasAudio = true
	}
	e.Hash = entryHash(*e)
}

func (mb *ManifestBuilder) position(storyID string) int {
	if i, ok := mb.pos[storyID]; ok {
		return i
	}
	return len(mb.stories)
}

func (p *Pack) add(name string, data []byte) FileRef {
	p.Files = append(p.Files, File{Name: name, Data: data})
	return refOf(name, data)
}

// --- Builder ---------------------------------------------------------------

// Builder creates packs from assembled documents, rendering them
// sequentially.
type Builder struct {
	renderer render.Renderer
}

// NewBuilder creates a pack builder rendering documents with r.
func NewBuilder(r render.Renderer) *Builder {
	return &Builder{renderer: r}
}

// Build renders documents and pairs them with the optional audio of the
// stories, keyed by story ID.
func (b *Builder) Build(stories []story.Story, docs []*document.ReaderDocument,
	audio map[string][]byte, opts Options) (*Pack, error) {
	//
	if len(stories) == 0 {
		return nil, core.Error(core.EMISSING, "pack without stories")
	}
	opts.Format = b.renderer.Format()
	mb := NewManifestBuilder(stories, opts)
	for _, d := range docs {
		var buf bytes.Buffer
		if err := b.renderer.Render(&buf, d); err != nil {
			return nil, err
		}
		doc := Document{Doc: d, Data: buf.Bytes(), Warnings: render.WarningsOf(b.renderer, d)}
		if err := mb.AddDocument(doc); err != nil {
			return nil, err
		}
	}
	for _, s := range stories {
		if a, ok := audio[s.ID]; ok {
			if err := mb.AddAudio(s.ID, a); err != nil {
				return nil, err
			}
		}
	}
	return mb.Build()
}
