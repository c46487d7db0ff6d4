package story

import (
	"sort"

	"golang.org/x/text/language"
)

// languageNames are the languages a reader pack may be created for.
var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"hi": "Hindi",
}

// Languages returns the codes of all supported languages, sorted.
func Languages() []string {
	codes := make([]string, 0, len(languageNames))
	for c := range languageNames {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// SupportedLanguage is true if code is a supported language code.
func SupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// LanguageName returns the English display name of a language. Unknown codes
// are returned unchanged.
func LanguageName(code string) string {
	if n, ok := languageNames[code]; ok {
		return n
	}
	return code
}

// LanguageScript returns the script a language is usually written in, e.g.
// Jpan for "ja" or Cyrl for "ru".
func LanguageScript(code string) language.Script {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Script{}
	}
	scr, _ := tag.Script()
	return scr
}
