// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	invalidChars  = regexp.MustCompile(`[^a-z0-9\-_]`)
	separatorRun  = regexp.MustCompile(`[-_]{2,}`)
)

// Generate normalizes free text into a slug: lower-case, whitespace runs
// become single hyphens, characters outside [a-z0-9-_] are dropped, edge
// separators are trimmed and separator runs collapse to their last character.
// Diacritics are not transliterated. The result may be empty; callers must
// treat an empty slug as invalid.
func Generate(text string) string {
	value := strings.ToLower(text)
	value = whitespaceRun.ReplaceAllString(value, "-")
	value = invalidChars.ReplaceAllString(value, "")
	value = strings.Trim(value, "-_")
	value = separatorRun.ReplaceAllStringFunc(value, func(run string) string {
		return run[len(run)-1:]
	})
	return value
}
