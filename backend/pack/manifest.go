package pack

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/input/story"
)

// ManifestName is the name of the manifest entry of an archive.
const ManifestName = "manifest.json"

// CollectionBaseName is the base file name of a combined document.
const CollectionBaseName = "graded_reader_collection"

// AudioExtension is the file name extension of narration audio.
const AudioExtension = "mp3"

// Namespace is the UUID namespace of pack IDs.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/gradreader/readerpack"))

// FileRef references an artifact of a pack.
type FileRef struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Size   int    `json:"size"`
}

func refOf(name string, data []byte) FileRef {
	sum := sha256.Sum256(data)
	return FileRef{Name: name, SHA256: hex.EncodeToString(sum[:]), Size: len(data)}
}

// Entry is the manifest entry of a story.
type Entry struct {
	Index    int      `json:"index"`
	StoryID  string   `json:"story_id"`
	Title    string   `json:"title"`
	Document FileRef  `json:"document"`
	Page     int      `json:"page,omitempty"` // start page in a combined document
	Audio    *FileRef `json:"audio,omitempty"`
	HasAudio bool     `json:"has_audio"`
	Hash     string   `json:"content_hash"`
}

// Manifest describes the content of a reader pack.
type Manifest struct {
	PackID             string        `json:"pack_id"`
	NativeLanguage     string        `json:"native_language"`
	LearningLanguage   string        `json:"learning_language"`
	LevelSchema        string        `json:"level_schema"`
	Level              string        `json:"level"`
	StoryLength        string        `json:"story_length,omitempty"`
	Topics             []string      `json:"topics,omitempty"`
	IncludeGlossary    bool          `json:"include_glossary"`
	IncludeAnnotations bool          `json:"include_annotations"`
	IncludeAudio       bool          `json:"include_audio"`
	Mode               string        `json:"pdf_mode"`
	Format             string        `json:"format"`
	Stories            []Entry       `json:"stories"`
	Files              []FileRef     `json:"files"`
	Warnings           core.Warnings `json:"warnings,omitempty"`
}

// Modes of a pack, named as the original options for PDF output.
const (
	CombinedMode = "combined"
	SplitMode    = "split"
)

// packID derives the ID of a pack from the content hashes of its files.
func packID(files []FileRef) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "%s:%s\n", f.Name, f.SHA256)
	}
	return uuid.NewSHA1(Namespace, []byte(b.String())).String()
}

// entryHash is the content hash of a story entry, over its document and
// audio hashes.
func entryHash(e Entry) string {
	h := sha256.New()
	h.Write([]byte(e.StoryID))
	h.Write([]byte(e.Document.SHA256))
	if e.Audio != nil {
		h.Write([]byte(e.Audio.SHA256))
	}
	return hex.EncodeToString(h.Sum(nil))
}

var (
	nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\-]+`)
	dashes  = regexp.MustCompile(`-+`)
)

// Slug turns a title into a part of a file name: runs of characters other
// than letters, digits, underscores and dashes become a single dash.
// Titles without any usable character give "story".
func Slug(title string) string {
	s := nonWord.ReplaceAllString(strings.TrimSpace(title), "-")
	s = strings.Trim(dashes.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "story"
	}
	return s
}

// StoryFileName returns the file name of an artifact of the story with
// 1-based index n.
func StoryFileName(n int, title, ext string) string {
	return fmt.Sprintf("story_%d_%s.%s", n, Slug(title), ext)
}

// profileFields fills the learner profile into a manifest, with display
// names for languages.
func (m *Manifest) profileFields(p story.Profile) {
	m.NativeLanguage = story.LanguageName(p.NativeLanguage)
	m.LearningLanguage = story.LanguageName(p.LearningLanguage)
	m.LevelSchema = string(p.Schema)
	m.Level = p.Level
}
