// Package display resolves the display string of a concept from its
// localized names.
package display

import (
	"strings"

	tx "github.com/gofhir/terminology"
)

// DefinitionType is the description usage type holding a concept definition.
const DefinitionType = "definition"

// Preferred returns names with locale-preferred entries first. Both buckets
// keep their original order.
func Preferred(names []tx.LocalizedText) []tx.LocalizedText {
	out := make([]tx.LocalizedText, 0, len(names))
	for _, n := range names {
		if n.LocalePreferred {
			out = append(out, n)
		}
	}
	for _, n := range names {
		if !n.LocalePreferred {
			out = append(out, n)
		}
	}
	return out
}

// Resolve picks the display from names. The first rule that matches wins:
// a name in requestedLanguage, a name in defaultLocale, then the first name.
// Preferred names are considered before the rest at every step.
func Resolve(names []tx.LocalizedText, requestedLanguage, defaultLocale string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	ordered := Preferred(names)

	if requestedLanguage != "" {
		if n, ok := firstInLocale(ordered, requestedLanguage); ok {
			return n.Name, true
		}
	}
	if defaultLocale != "" {
		if n, ok := firstInLocale(ordered, defaultLocale); ok {
			return n.Name, true
		}
	}
	return ordered[0].Name, true
}

// Designations returns the names in requestedLanguage, or every name when
// no language is requested, in their original order.
func Designations(names []tx.LocalizedText, requestedLanguage string) []tx.Designation {
	var out []tx.Designation
	for _, n := range names {
		if requestedLanguage != "" && n.Locale != requestedLanguage {
			continue
		}
		out = append(out, tx.Designation{
			Language: n.Locale,
			Use:      n.Type,
			Value:    n.Name,
		})
	}
	return out
}

// Match reports whether some name's text equals displayText exactly and,
// when requestedLanguage is given, that name is in that language.
func Match(names []tx.LocalizedText, displayText, requestedLanguage string) bool {
	for _, n := range names {
		if n.Name != displayText {
			continue
		}
		if requestedLanguage == "" || n.Locale == requestedLanguage {
			return true
		}
	}
	return false
}

// Definition resolves the definition from descriptions typed "definition".
func Definition(descriptions []tx.LocalizedText, defaultLocale string) (string, bool) {
	var defs []tx.LocalizedText
	for _, d := range descriptions {
		if strings.EqualFold(d.Type, DefinitionType) {
			defs = append(defs, d)
		}
	}
	return Resolve(defs, "", defaultLocale)
}

func firstInLocale(names []tx.LocalizedText, locale string) (tx.LocalizedText, bool) {
	for _, n := range names {
		if n.Locale == locale {
			return n, true
		}
	}
	return tx.LocalizedText{}, false
}
