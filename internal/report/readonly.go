package report

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	queryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)^\s*SELECT\s+`),
		regexp.MustCompile(`(?is)^\s*WITH\s+.*\s+SELECT\s+`),
		regexp.MustCompile(`(?is)^\s*\(\s*SELECT\s+`),
	}

	// keywords that may not appear anywhere outside quoted text
	writeKeywords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|MERGE|UPSERT|TRUNCATE|CREATE|DROP|ALTER|GRANT|REVOKE|COPY|CALL|DO|VACUUM|LOCK)\b|\bFOR\s+(UPDATE|SHARE)\b|\bINTO\b`)

	quoted = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"`)
)

// CheckReadOnly reports an error unless query is a single SELECT statement.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if q == "" {
		return fmt.Errorf("empty query")
	}

	bare := quoted.ReplaceAllString(q, "''")
	if strings.Contains(bare, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	if strings.Contains(bare, "--") || strings.Contains(bare, "/*") {
		return fmt.Errorf("comments are not allowed")
	}

	matched := false
	for _, p := range queryPatterns {
		if p.MatchString(bare) {
			matched = true
			break
		}
	}
	if !matched {
		return fmt.Errorf("not a SELECT statement")
	}
	if kw := writeKeywords.FindString(bare); kw != "" {
		return fmt.Errorf("statement contains %q", strings.ToUpper(kw))
	}
	return nil
}
