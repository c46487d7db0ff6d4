package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/engine/layout"
	"github.com/gradreader/readerpack/engine/segment"
	"github.com/gradreader/readerpack/input/story"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// composer creates layout blocks from text, normalizing text to NFC and
// segmenting it into font runs.
type composer struct {
	segmenter *segment.Segmenter
	blocks    []layout.Block
	warnings  core.Warnings
	storyID   string
}

// span is a piece of block text, optionally hinted to be in a script.
type span struct {
	text   string
	script language.Script
}

func (c *composer) add(kind layout.Kind, id string, spans ...span) *layout.Block {
	var b strings.Builder
	var hints []segment.Hint
	var none language.Script
	for _, s := range spans {
		t := norm.NFC.String(s.text)
		if s.script != none && t != "" {
			hints = append(hints, segment.Hint{Start: b.Len(), End: b.Len() + len(t), Script: s.script})
		}
		b.WriteString(t)
	}
	text := b.String()
	segs, ws := c.segmenter.Segment(text, hints...)
	c.warnings = append(c.warnings, ws.ForStory(c.storyID)...)
	c.blocks = append(c.blocks, layout.Block{
		ID:       layout.BlockID(id),
		Kind:     kind,
		Text:     text,
		Segments: segs,
	})
	return &c.blocks[len(c.blocks)-1]
}

func plain(text string) span {
	return span{text: text}
}

func levelLine(p story.Profile) string {
	return fmt.Sprintf("Level: %s %s", p.Schema, p.Level)
}

// frontMatter creates the title page of a collection.
func (c *composer) frontMatter(opts Options) {
	p := opts.Profile
	h := c.add(layout.Heading, "front/title", plain(CollectionTitle))
	h.Level = 1
	c.add(layout.Paragraph, "front/level", plain(levelLine(p)))
	c.add(layout.Paragraph, "front/learning", plain("Learning: "+story.LanguageName(p.LearningLanguage)))
	c.add(layout.Paragraph, "front/native", plain("Native language: "+story.LanguageName(p.NativeLanguage)))
	if len(opts.Topics) > 0 {
		c.add(layout.Paragraph, "front/topics", plain("Topics: "+strings.Join(opts.Topics, ", ")))
	}
}

// titleID is the block ID of a story's heading, the target of its TOC entry.
func titleID(s story.Story) layout.BlockID {
	return layout.BlockID(s.ID + "/title")
}

// section creates the blocks of a story.
func (c *composer) section(s story.Story, opts Options) {
	c.storyID = s.ID
	defer func() { c.storyID = "" }()
	p := opts.Profile
	h := c.add(layout.Heading, string(titleID(s)), plain(s.Title))
	h.Level = 1
	h.BreakBefore = true
	c.add(layout.Paragraph, s.ID+"/level", plain(levelLine(p)))
	c.add(layout.Paragraph, s.ID+"/languages", plain(fmt.Sprintf("Languages: %s for %s speakers",
		story.LanguageName(p.LearningLanguage), story.LanguageName(p.NativeLanguage))))
	if len(opts.Topics) > 0 {
		c.add(layout.Paragraph, s.ID+"/topics", plain("Topics: "+strings.Join(opts.Topics, ", ")))
	}
	for i, para := range s.Paragraphs {
		id := fmt.Sprintf("%s/p-%d", s.ID, i+1)
		c.add(layout.Paragraph, id, plain(para.Text))
		if !opts.IncludeAnnotations {
			continue
		}
		if para.Phonetic != "" {
			c.add(layout.AnnotationLine, id+"/phonetic", plain("Pronunciation: "), plain(para.Phonetic))
		}
		if para.Translation != "" {
			c.add(layout.AnnotationLine, id+"/translation", plain("Translation: "),
				span{para.Translation, opts.GlossaryLanguage})
		}
		if para.GrammarNote != "" {
			c.add(layout.AnnotationLine, id+"/grammar", plain("Grammar: "),
				span{para.GrammarNote, opts.GlossaryLanguage})
		}
	}
	if opts.IncludeGlossary && len(s.Glossary) > 0 {
		g := c.add(layout.Heading, s.ID+"/glossary", plain("Glossary"))
		g.Level = 2
		for i, e := range s.Glossary {
			c.add(layout.GlossaryRow, fmt.Sprintf("%s/g-%d", s.ID, i+1),
				plain("• "+e.Term+": "), span{e.Definition, opts.GlossaryLanguage})
		}
	}
}

// --- Table of contents -----------------------------------------------------

// tocLabel is the label of the TOC entry of a story, without page number.
func tocLabel(s story.Story) string {
	label := fmt.Sprintf("%d. %s", s.Index, s.Title)
	if r := []rune(label); len(r) > TocLabelLength {
		label = string(r[:TocLabelLength])
	}
	return label
}

// pageField formats a page number for a TOC entry. With width > 0, the
// field is padded with leader dots to a fixed number of characters.
func pageField(page, width int) string {
	num := strconv.Itoa(page)
	if width > len(num) {
		num = strings.Repeat(".", width-len(num)) + num
	}
	return num
}

// toc creates the TOC page, with page numbers taken from pages.
func (c *composer) toc(entries []TocEntry, pages []int, width int) {
	h := c.add(layout.Heading, "toc/title", plain("Table of Contents"))
	h.Level = 1
	h.BreakBefore = true
	for i, e := range entries {
		text := e.Label + " ...... " + pageField(pages[i], width)
		t := c.add(layout.TocEntry, fmt.Sprintf("toc/%d", i+1), plain(text))
		t.Target = e.Target
	}
}
