package story

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gradreader/readerpack/core"
)

// Paragraph is a paragraph of a story with optional annotations.
type Paragraph struct {
	Text        string `json:"text"`
	Phonetic    string `json:"phonetic,omitempty"`
	Translation string `json:"translation,omitempty"`
	GrammarNote string `json:"grammar_note,omitempty"`
}

// Annotated is true if the paragraph carries at least one annotation.
func (p Paragraph) Annotated() bool {
	return p.Phonetic != "" || p.Translation != "" || p.GrammarNote != ""
}

// GlossaryEntry is a term of the learning language with its definition in
// the learner's native language.
type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Story is a generated story. Index is the 1-based position of the story
// in the request.
type Story struct {
	ID         string          `json:"id"`
	Index      int             `json:"index"`
	Title      string          `json:"title"`
	Paragraphs []Paragraph     `json:"paragraphs"`
	Glossary   []GlossaryEntry `json:"glossary,omitempty"`
}

// IDFor returns the story ID for the story at 1-based position index.
func IDFor(index int) string {
	return fmt.Sprintf("story-%d", index)
}

// Body returns the story text, paragraphs separated by blank lines.
func (s Story) Body() string {
	texts := make([]string, len(s.Paragraphs))
	for i, p := range s.Paragraphs {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}

// Paragraphs splits a story body into paragraphs, one per non-blank line.
func Paragraphs(body string) []Paragraph {
	var paras []Paragraph
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paras = append(paras, Paragraph{Text: line})
		}
	}
	return paras
}

// DefaultTitle is the title of a story the model did not name.
const DefaultTitle = "Untitled Story"

// modelOutput is the JSON a text generation model responds with.
type modelOutput struct {
	Title      string          `json:"title"`
	Story      string          `json:"story"`
	Paragraphs []Paragraph     `json:"paragraphs"`
	Glossary   json.RawMessage `json:"glossary"`
}

// ParseModelOutput parses the JSON response of a text generation model into
// the story at 1-based position index. Glossary entries lacking a term or a
// definition are dropped.
func ParseModelOutput(index int, payload []byte) (Story, error) {
	var out modelOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		return Story{}, core.WrapError(err, core.EINVALID, "Model response was not valid JSON.")
	}
	s := Story{ID: IDFor(index), Index: index, Title: DefaultTitle}
	if t := strings.TrimSpace(out.Title); t != "" {
		s.Title = t
	}
	if len(out.Paragraphs) > 0 {
		for _, p := range out.Paragraphs {
			p.Text = strings.TrimSpace(p.Text)
			if p.Text == "" {
				continue
			}
			p.Phonetic = strings.TrimSpace(p.Phonetic)
			p.Translation = strings.TrimSpace(p.Translation)
			p.GrammarNote = strings.TrimSpace(p.GrammarNote)
			s.Paragraphs = append(s.Paragraphs, p)
		}
	} else {
		s.Paragraphs = Paragraphs(out.Story)
	}
	if len(s.Paragraphs) == 0 {
		return Story{}, core.Error(core.EINVALID, "Model response for story %d contains no text.", index)
	}
	s.Glossary = parseGlossary(out.Glossary)
	return s, nil
}

func parseGlossary(raw json.RawMessage) []GlossaryEntry {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var glossary []GlossaryEntry
	for _, item := range items {
		var entry map[string]interface{}
		if json.Unmarshal(item, &entry) != nil {
			continue
		}
		term := strings.TrimSpace(stringOf(entry["term"]))
		def := strings.TrimSpace(stringOf(entry["definition"]))
		if term != "" && def != "" {
			glossary = append(glossary, GlossaryEntry{Term: term, Definition: def})
		}
	}
	return glossary
}

func stringOf(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	return fmt.Sprint(v)
}
