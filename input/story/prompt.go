package story

import (
	"fmt"
	"strings"
)

// SystemMessage is the system message sent along with every story prompt.
const SystemMessage = "You are a supportive language tutor and expert storyteller " +
	"who writes engaging graded readers."

// DefaultGoal is the storyline goal of requests without one.
const DefaultGoal = "Engage the reader with a positive tone."

// Prompt builds the user prompt for the story at 1-based position index.
func Prompt(r Request, index int) string {
	p := r.Profile
	learning := LanguageName(p.LearningLanguage)
	native := LanguageName(p.NativeLanguage)
	schema := p.Schema
	if schema == "" {
		schema = CEFR
	}
	topics := "None specified"
	if len(r.Topics) > 0 {
		topics = strings.Join(r.Topics, "\n- ")
	}
	goal := strings.TrimSpace(r.Goal)
	if goal == "" {
		goal = DefaultGoal
	}
	glossary := "Do not include a glossary."
	if r.IncludeGlossary {
		glossary = fmt.Sprintf("Include a short glossary of 5-8 important words translated into "+
			"the reader's native language (%s).", native)
	}

	var b strings.Builder
	b.WriteString("You are an expert language teacher creating graded readers for learners.\n")
	fmt.Fprintf(&b, "Write a story in %s that matches the following constraints:\n", learning)
	fmt.Fprintf(&b, "- Level schema: %s level %s\n", schema, p.Level)
	fmt.Fprintf(&b, "- Reader's native language: %s\n", native)
	fmt.Fprintf(&b, "- Story length: %s\n", r.Length.Instruction())
	fmt.Fprintf(&b, "- Topics: %s\n", topics)
	b.WriteString("- Number of paragraphs: 4-6 with short sentences for lower levels.\n")
	b.WriteString("- Maintain cultural neutrality and avoid idioms or slang unless it is level-appropriate.\n")
	b.WriteString("- Provide a concise and descriptive title.\n")
	fmt.Fprintf(&b, "- Ensure the language strictly uses %s without switching languages.\n", learning)
	fmt.Fprintf(&b, "- %s\n", goal)
	b.WriteString("- Keep paragraphs short (max 4 sentences) and add line breaks between paragraphs.\n")
	if r.StoryCount > 1 {
		fmt.Fprintf(&b, "- This is story %d of %d in a collection; choose a plot distinct from the others.\n",
			index, r.StoryCount)
	}
	if seed := strings.TrimSpace(r.PromptSeed); seed != "" {
		fmt.Fprintf(&b, "- Additional instructions: %s\n", seed)
	}
	b.WriteString(glossary)
	b.WriteString("\n\nRespond ONLY in valid JSON with the following structure:\n")
	if r.IncludeAnnotations {
		fmt.Fprintf(&b, `{
  "title": "...",
  "paragraphs": [
    {"text": "paragraph in %[1]s", "phonetic": "pronunciation guide", "translation": "translation in %[2]s", "grammar_note": "short note in %[2]s"}
  ],
  "glossary": [
    {"term": "", "definition": "translation in %[2]s"}
  ]
}`, learning, native)
	} else {
		fmt.Fprintf(&b, `{
  "title": "...",
  "story": "Story body in %[1]s with paragraph breaks",
  "glossary": [
    {"term": "", "definition": "translation in %[2]s"}
  ]
}`, learning, native)
	}
	b.WriteString("\nOmit the glossary or use [] if it is not requested.")
	return b.String()
}

// OutputSchema is the JSON schema a model's response has to satisfy.
const OutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "story": {"type": "string"},
    "paragraphs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text"],
        "properties": {
          "text": {"type": "string"},
          "phonetic": {"type": "string"},
          "translation": {"type": "string"},
          "grammar_note": {"type": "string"}
        }
      }
    },
    "glossary": {
      "type": "array",
      "items": {"type": "object"}
    }
  },
  "anyOf": [
    {"required": ["story"]},
    {"required": ["paragraphs"]}
  ]
}`
