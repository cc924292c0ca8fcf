package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Humanize turns a field or entity name into a display label: words split on
// '_', '-', '.' and spaces are title-cased, existing capitals are kept.
func Humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(words, " "))
}
