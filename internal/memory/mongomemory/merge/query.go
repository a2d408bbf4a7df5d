package merge

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// BuildFullTextQuery tokenizes raw into [A-Za-z0-9_]+ groups, quotes each,
// and OR-joins them. This is a deliberate deviation from a naive AND-join:
// natural-language queries against an AND-joined compound query show
// dramatic recall collapse once the query grows past two or three terms.
func BuildFullTextQuery(raw string) string {
	tokens := tokenPattern.FindAllString(raw, -1)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}
	return strings.Join(quoted, " OR ")
}
