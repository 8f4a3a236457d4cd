package helper

import (
	"regexp"
	"strings"
)

var IdentifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func IsValidIdentifier(s string) bool {
	return IdentifierRegex.MatchString(s)
}

// QuoteConnValue quotes a value for a libpq keyword/value connection string.
func QuoteConnValue(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of non-alphanumerics into a dash.
func Slugify(s string) string {
	s = slugRegex.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
