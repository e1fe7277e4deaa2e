package species

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	invalidChars  = regexp.MustCompile(`[^a-z_]+`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// Normalize canonicalizes a free-text scientific name: trim, lowercase,
// whitespace runs to "_", drop everything outside [a-z_], collapse "_" runs.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = whitespaceRun.ReplaceAllString(s, "_")
	s = invalidChars.ReplaceAllString(s, "")
	return underscoreRun.ReplaceAllString(s, "_")
}
