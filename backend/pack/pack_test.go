package pack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/gradreader/readerpack/backend/render"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/gradreader/readerpack/engine/document"
	"github.com/gradreader/readerpack/input/story"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profile = story.Profile{NativeLanguage: "en", LearningLanguage: "es", Schema: story.CEFR, Level: "A2"}

func fixture(t *testing.T, n int, combined bool) ([]story.Story, []*document.ReaderDocument, render.Renderer) {
	ix, err := fontindex.New(font.FallbackFont())
	require.NoError(t, err)
	var ss []story.Story
	for i := 1; i <= n; i++ {
		ss = append(ss, story.Story{ID: story.IDFor(i), Index: i, Title: fmt.Sprintf("¡Hola, Mundo %d!", i),
			Paragraphs: []story.Paragraph{{Text: "Ana compra pan."}, {Text: "Luego vuelve a casa."}}})
	}
	docs, err := document.NewAssembler(ix, nil).Assemble(ss, document.Options{Profile: profile, CombinedMode: combined})
	require.NoError(t, err)
	r, err := render.New(render.Layout, ix)
	require.NoError(t, err)
	return ss, docs, r
}

func names(files []File) []string {
	var ns []string
	for _, f := range files {
		ns = append(ns, f.Name)
	}
	return ns
}

func TestSlug(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	assert.Equal(t, "Hola-Mundo", Slug("¡Hola, Mundo!"))
	assert.Equal(t, "Un_día-en-Kyōto", Slug("  Un_día en Kyōto "))
	assert.Equal(t, "小さな猫", Slug("小さな猫"))
	assert.Equal(t, "story", Slug("?!"))
	assert.Equal(t, "story_3_a-b.mp3", StoryFileName(3, "a -- b", AudioExtension))
}

func TestPartialAudio(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	ss, docs, r := fixture(t, 5, false)
	audio := map[string][]byte{}
	for _, s := range ss {
		if s.ID != "story-3" {
			audio[s.ID] = []byte("mp3 of " + s.ID)
		}
	}
	p, err := NewBuilder(r).Build(ss, docs, audio, Options{Profile: profile, IncludeAudio: true})
	require.NoError(t, err)
	m := p.Manifest
	require.Len(t, m.Stories, 5)
	assert.Len(t, m.Files, 9)
	assert.Equal(t, "story_1_Hola-Mundo-1.json", m.Stories[0].Document.Name)
	for i, e := range m.Stories {
		assert.Equal(t, i+1, e.Index)
		assert.Equal(t, ss[i].ID, e.StoryID)
		assert.Equal(t, i != 2, e.HasAudio)
		assert.Len(t, e.Hash, 64)
	}
	assert.Nil(t, m.Stories[2].Audio)
	assert.Equal(t, "Spanish", m.LearningLanguage)
	assert.Equal(t, "English", m.NativeLanguage)
	assert.Equal(t, SplitMode, m.Mode)
	assert.Equal(t, "layout", m.Format)
	// each story's audio follows its document
	assert.Equal(t, []string{
		"story_1_Hola-Mundo-1.json", "story_1_Hola-Mundo-1.mp3",
		"story_2_Hola-Mundo-2.json", "story_2_Hola-Mundo-2.mp3",
		"story_3_Hola-Mundo-3.json",
		"story_4_Hola-Mundo-4.json", "story_4_Hola-Mundo-4.mp3",
		"story_5_Hola-Mundo-5.json", "story_5_Hola-Mundo-5.mp3",
	}, names(p.Files))
	for i, f := range p.Files {
		assert.Equal(t, f.Name, m.Files[i].Name, "manifest lists files in archive order")
	}
}

func TestRenderWarningsInManifest(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	ss, docs, _ := fixture(t, 2, false)
	mb := NewManifestBuilder(ss, Options{Profile: profile})
	lost := core.Warning{Kind: core.CoverageGap, StoryID: "story-2", Script: "Cyrl",
		CodePoints: []rune{'Ж'}, Message: "1 code point(s) cannot be set with PDF core fonts"}
	require.NoError(t, mb.AddDocument(Document{Doc: docs[1], Data: []byte("2"), Warnings: core.Warnings{lost}}))
	require.NoError(t, mb.AddDocument(Document{Doc: docs[0], Data: []byte("1")}))
	p, err := mb.Build()
	require.NoError(t, err)
	gaps := p.Manifest.Warnings.Of(core.CoverageGap)
	require.Len(t, gaps, 1)
	assert.Equal(t, lost, gaps[0])
}

func TestCombinedPack(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	ss, docs, r := fixture(t, 3, true)
	p, err := NewBuilder(r).Build(ss, docs, nil, Options{Profile: profile, CombinedMode: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"graded_reader_collection.json"}, names(p.Files))
	assert.Equal(t, CombinedMode, p.Manifest.Mode)
	for i, e := range p.Manifest.Stories {
		assert.Equal(t, p.Manifest.Files[0], e.Document)
		assert.Equal(t, docs[0].Toc[i].Page, e.Page)
	}
}

func TestDeterministicArchive(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	build := func() []byte {
		ss, docs, r := fixture(t, 2, false)
		p, err := NewBuilder(r).Build(ss, docs, map[string][]byte{"story-2": []byte("audio")}, Options{Profile: profile})
		require.NoError(t, err)
		b, err := p.Bytes()
		require.NoError(t, err)
		return b
	}
	first, second := build(), build()
	assert.Equal(t, first, second)
	m, err := Verify(first)
	require.NoError(t, err)
	assert.Len(t, m.Files, 3)
	zr, err := zip.NewReader(bytes.NewReader(first), int64(len(first)))
	require.NoError(t, err)
	assert.Equal(t, ManifestName, zr.File[len(zr.File)-1].Name)
	assert.Equal(t, ModTime.Unix(), zr.File[0].Modified.Unix())
}

func TestPackIDDependsOnContent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	ss, docs, r := fixture(t, 2, false)
	p1, err := NewBuilder(r).Build(ss, docs, nil, Options{Profile: profile})
	require.NoError(t, err)
	p2, err := NewBuilder(r).Build(ss, docs, map[string][]byte{"story-1": []byte("audio")}, Options{Profile: profile})
	require.NoError(t, err)
	assert.NotEqual(t, p1.Manifest.PackID, p2.Manifest.PackID)
	assert.Equal(t, p1.Manifest.PackID, packID(p1.Manifest.Files))
}

func TestConcurrentCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	ss, docs, r := fixture(t, 6, false)
	mb := NewManifestBuilder(ss, Options{Profile: profile, Format: r.Format()})
	var wg sync.WaitGroup
	for i := len(docs) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(d *document.ReaderDocument) {
			defer wg.Done()
			var buf bytes.Buffer
			assert.NoError(t, r.Render(&buf, d))
			assert.NoError(t, mb.AddDocument(Document{Doc: d, Data: buf.Bytes()}))
			if d.ID != "story-2" {
				assert.NoError(t, mb.AddAudio(d.ID, []byte(d.ID)))
			} else {
				mb.AddWarnings(core.Warning{Kind: core.SpeechSynthesis, StoryID: d.ID, Message: "timeout"})
			}
		}(docs[i])
	}
	wg.Wait()
	p, err := mb.Build()
	require.NoError(t, err)
	for i, e := range p.Manifest.Stories {
		assert.Equal(t, ss[i].ID, e.StoryID)
	}
	ws := p.Manifest.Warnings.Of(core.SpeechSynthesis)
	require.Len(t, ws, 1)
	assert.Equal(t, "story-2", ws[0].StoryID)
	_, err = Verify(mustBytes(t, p))
	assert.NoError(t, err)
}

func mustBytes(t *testing.T, p *Pack) []byte {
	b, err := p.Bytes()
	require.NoError(t, err)
	return b
}

func TestBuilderErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	ss, docs, _ := fixture(t, 2, false)
	mb := NewManifestBuilder(ss, Options{})
	require.NoError(t, mb.AddDocument(Document{Doc: docs[0], Data: []byte("{}")}))
	assert.Equal(t, core.EINVALID, core.Code(mb.AddDocument(Document{Doc: docs[0]})))
	assert.Equal(t, core.EINVALID, core.Code(mb.AddAudio("story-9", []byte("x"))))
	assert.Equal(t, core.EINVALID, core.Code(mb.AddAudio("story-1", nil)))
	_, err := mb.Build()
	assert.Equal(t, core.EMISSING, core.Code(err), "document of story-2 is missing")
	_, err = NewManifestBuilder(ss, Options{CombinedMode: true}).Build()
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestVerifyRejects(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "readerpack.pack")
	defer teardown()
	//
	ss, docs, r := fixture(t, 1, false)
	p, err := NewBuilder(r).Build(ss, docs, nil, Options{Profile: profile})
	require.NoError(t, err)
	manifest, err := p.ManifestJSON()
	require.NoError(t, err)
	archive := func(entries ...File) []byte {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for _, e := range entries {
			require.NoError(t, writeEntry(zw, e.Name, e.Data))
		}
		require.NoError(t, zw.Close())
		return buf.Bytes()
	}
	doc := p.Files[0]
	_, err = Verify(archive(doc, File{ManifestName, manifest}))
	assert.NoError(t, err)
	_, err = Verify(archive(File{ManifestName, manifest}, doc))
	assert.Error(t, err, "manifest must be last")
	_, err = Verify(archive(File{doc.Name, []byte("tampered")}, File{ManifestName, manifest}))
	assert.Error(t, err, "hash mismatch")
	_, err = Verify(archive(File{"other.json", doc.Data}, File{ManifestName, manifest}))
	assert.Error(t, err, "unexpected entry")
	_, err = Verify([]byte("not a zip"))
	assert.Equal(t, core.EINVALID, core.Code(err))
}
