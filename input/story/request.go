package story

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gradreader/readerpack/core"
)

// LevelSchema is a proficiency framework.
type LevelSchema string

// Supported proficiency frameworks.
const (
	CEFR    LevelSchema = "CEFR"
	HSK     LevelSchema = "HSK"
	General LevelSchema = "General"
)

var levels = map[LevelSchema][]string{
	CEFR:    {"A1", "A2", "B1", "B2", "C1", "C2"},
	HSK:     {"1", "2", "3", "4", "5", "6"},
	General: {"Beginner", "Elementary", "Intermediate", "Advanced"},
}

// Levels returns the levels of a proficiency framework. Unknown frameworks
// yield the CEFR levels.
func Levels(schema LevelSchema) []string {
	if l, ok := levels[schema]; ok {
		return l
	}
	return levels[CEFR]
}

// Length is the approximate length of a story.
type Length string

// Story lengths.
const (
	Short  Length = "short"
	Medium Length = "medium"
	Long   Length = "long"
)

// Instruction returns the word count instruction for a text generator.
// Unknown lengths are treated as Medium.
func (l Length) Instruction() string {
	switch l {
	case Short:
		return "about 150-250 words"
	case Long:
		return "about 500-700 words"
	}
	return "about 300-450 words"
}

// Limits for requests.
const (
	MaxStories     = 10
	MaxTopics      = 5
	MaxTopicLength = 40  // runes
	MaxSeedLength  = 300 // runes
)

// Profile describes a learner.
type Profile struct {
	NativeLanguage   string      `json:"native_language" mapstructure:"native" yaml:"native"`
	LearningLanguage string      `json:"learning_language" mapstructure:"learning" yaml:"learning"`
	Schema           LevelSchema `json:"level_schema" mapstructure:"schema" yaml:"schema"`
	Level            string      `json:"level" mapstructure:"level" yaml:"level"`
}

// Request is a request to generate the stories of a reader pack.
type Request struct {
	Profile            Profile  `json:"profile"`
	StoryCount         int      `json:"story_count"`
	Length             Length   `json:"story_length"`
	Topics             []string `json:"topics,omitempty"`
	Goal               string   `json:"story_goal,omitempty"`
	PromptSeed         string   `json:"prompt_seed,omitempty"`
	IncludeGlossary    bool     `json:"include_glossary"`
	IncludeAnnotations bool     `json:"include_annotations"`
	IncludeAudio       bool     `json:"include_audio"`
	Voice              string   `json:"voice,omitempty"`
}

// ValidationError describes the first problem found with a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return core.WrapError(ValidationError{Field: field, Message: msg}, core.EINVALID, msg)
}

// Validate checks a request before any generation takes place. It returns
// an error of code core.EINVALID whose user message tells what to change.
func (r Request) Validate() error {
	if r.StoryCount < 1 || r.StoryCount > MaxStories {
		return invalid("story_count", "Please choose between 1 and 10 stories.")
	}
	p := r.Profile
	if !SupportedLanguage(p.LearningLanguage) {
		return invalid("learning_language", "Choose a supported learning language.")
	}
	if !SupportedLanguage(p.NativeLanguage) {
		return invalid("native_language", "Choose a supported native language.")
	}
	if p.LearningLanguage == p.NativeLanguage {
		return invalid("learning_language", "Learning and native languages should differ for best results.")
	}
	schema := p.Schema
	if schema == "" {
		schema = CEFR
	}
	lv, ok := levels[schema]
	if !ok {
		return invalid("level_schema", "Select a valid proficiency framework.")
	}
	if !contains(lv, p.Level) {
		return invalid("level", "Select a valid proficiency level.")
	}
	if len(r.Topics) > MaxTopics {
		return invalid("topics", "Limit topics to five short phrases.")
	}
	if utf8.RuneCountInString(r.PromptSeed) > MaxSeedLength {
		return invalid("prompt_seed", "Additional instructions are too long. Shorten to under 300 characters.")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

var whitespace = regexp.MustCompile(`\s+`)

// SanitizeTopics splits a comma-separated list of topics into clean labels.
// Whitespace is collapsed, empty topics are dropped, and topics longer than
// 40 runes are shortened and marked with an ellipsis. At most five topics
// are returned.
func SanitizeTopics(raw string) []string {
	var topics []string
	for _, chunk := range strings.Split(raw, ",") {
		t := strings.TrimSpace(whitespace.ReplaceAllString(chunk, " "))
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTopicLength {
			t = strings.TrimRight(string([]rune(t)[:MaxTopicLength]), " ") + "…"
		}
		topics = append(topics, t)
		if len(topics) >= MaxTopics {
			break
		}
	}
	return topics
}
