package dialog

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Textbox glyphs the game renders but matching should ignore: the
// continue/selection arrows and the line-fill dashes of empty rows.
var glyphRE = regexp.MustCompile(`[▼▶►]`)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Normalize flattens raw textbox contents for matching: glyphs
// removed, whitespace runs (including line breaks) collapsed to one
// space, leading and trailing space trimmed.
func Normalize(text string) string {
	text = glyphRE.ReplaceAllString(text, " ")
	text = whitespaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Contains reports whether the normalized dialog contains the
// normalized substring, case-insensitively. An empty substring never
// matches: a trigger with no text must not fire on every frame.
func Contains(text, sub string) bool {
	sub = strings.ToLower(Normalize(sub))
	if sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(Normalize(text)), sub)
}

var titleCaser = cases.Title(language.English)

// DisplayName renders an all-caps game name for humans: "PIDGEY"
// becomes "Pidgey", "POKE BALL" becomes "Poke Ball".
func DisplayName(name string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(name)))
}
