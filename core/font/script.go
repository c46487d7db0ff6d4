package font

import (
	"unicode"

	"golang.org/x/text/language"
)

// Script tags for the neutral pseudo scripts. Code points of the Common and
// Inherited scripts (spaces, punctuation, digits, combining marks) do not
// decide on a writing system themselves.
var (
	Common    = language.MustParseScript("Zyyy")
	Inherited = language.MustParseScript("Zinh")
	Unknown   = language.MustParseScript("Zzzz")
)

type scriptTable struct {
	script language.Script
	table  *unicode.RangeTable
}

// scripts lists the writing systems we know a script tag for, most frequent
// first to keep lookups short for typical input.
var scripts = []scriptTable{
	{language.MustParseScript("Latn"), unicode.Latin},
	{language.MustParseScript("Hani"), unicode.Han},
	{language.MustParseScript("Cyrl"), unicode.Cyrillic},
	{language.MustParseScript("Arab"), unicode.Arabic},
	{language.MustParseScript("Hira"), unicode.Hiragana},
	{language.MustParseScript("Kana"), unicode.Katakana},
	{language.MustParseScript("Hang"), unicode.Hangul},
	{language.MustParseScript("Deva"), unicode.Devanagari},
	{language.MustParseScript("Grek"), unicode.Greek},
	{language.MustParseScript("Hebr"), unicode.Hebrew},
	{language.MustParseScript("Thai"), unicode.Thai},
	{language.MustParseScript("Beng"), unicode.Bengali},
	{language.MustParseScript("Taml"), unicode.Tamil},
	{language.MustParseScript("Armn"), unicode.Armenian},
	{language.MustParseScript("Geor"), unicode.Georgian},
	{language.MustParseScript("Ethi"), unicode.Ethiopic},
	{language.MustParseScript("Khmr"), unicode.Khmer},
	{language.MustParseScript("Laoo"), unicode.Lao},
	{language.MustParseScript("Tibt"), unicode.Tibetan},
	{language.MustParseScript("Mong"), unicode.Mongolian},
	{language.MustParseScript("Bopo"), unicode.Bopomofo},
}

// ScriptOf returns the script tag of a code point. Code points of scripts
// not listed in our table are reported as Unknown; Common and Inherited
// code points are reported as such.
func ScriptOf(r rune) language.Script {
	for _, s := range scripts {
		if unicode.Is(s.table, r) {
			return s.script
		}
	}
	if unicode.Is(unicode.Inherited, r) {
		return Inherited
	}
	if unicode.Is(unicode.Common, r) {
		return Common
	}
	return Unknown
}

// IsNeutral is true for code points which belong to no particular writing
// system: whitespace, punctuation, symbols, digits and combining marks.
func IsNeutral(r rune) bool {
	if unicode.IsSpace(r) || unicode.IsPunct(r) {
		return true
	}
	s := ScriptOf(r)
	return s == Common || s == Inherited
}

// KnownScripts returns the script tags for which ScriptTable returns a
// range table, in lookup order.
func KnownScripts() []language.Script {
	r := make([]language.Script, len(scripts))
	for i, s := range scripts {
		r[i] = s.script
	}
	return r
}

// ScriptTable returns the Unicode range table for a script tag, or nil.
func ScriptTable(scr language.Script) *unicode.RangeTable {
	for _, s := range scripts {
		if s.script == scr {
			return s.table
		}
	}
	return nil
}

// compound scripts are written with characters of more than one Unicode
// script.
var compound = map[string][]string{
	"Jpan": {"Hani", "Hira", "Kana"},
	"Kore": {"Hang", "Hani"},
	"Hans": {"Hani", "Bopo"},
	"Hant": {"Hani", "Bopo"},
	"Hrkt": {"Hira", "Kana"},
}

// ExpandScript resolves compound script tags (e.g., Jpan) to the Unicode
// scripts they consist of. Simple scripts are returned as a one-element
// slice.
func ExpandScript(scr language.Script) []language.Script {
	parts, ok := compound[scr.String()]
	if !ok {
		return []language.Script{scr}
	}
	r := make([]language.Script, len(parts))
	for i, p := range parts {
		r[i] = language.MustParseScript(p)
	}
	return r
}

// ScriptForLanguage returns the most likely script for a BCP 47 language
// tag, e.g. Jpan for "ja" or Cyrl for "ru".
func ScriptForLanguage(tag language.Tag) language.Script {
	scr, conf := tag.Script()
	if conf == language.No {
		return Unknown
	}
	return scr
}
