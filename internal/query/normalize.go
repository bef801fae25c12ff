package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// canonicalNamespaces maps lowercase namespace prefixes to their canonical
// spelling. Titles in other namespaces pass through with only case folding
// of the first rune.
var canonicalNamespaces = map[string]string{
	"category":  "Category",
	"template":  "Template",
	"file":      "File",
	"portal":    "Portal",
	"wikipedia": "Wikipedia",
	"help":      "Help",
	"talk":      "Talk",
	"user":      "User",
}

// NormalizeTitle applies wiki title normalization: underscores become
// spaces, whitespace runs collapse, the namespace prefix (if recognized)
// is canonicalized, and the first letter of the page name is upper-cased.
// The solver only ever sees normalized titles.
func NormalizeTitle(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}

	if i := strings.Index(s, ":"); i > 0 {
		prefix := strings.TrimSpace(s[:i])
		rest := strings.TrimSpace(s[i+1:])
		if canon, ok := canonicalNamespaces[strings.ToLower(prefix)]; ok && rest != "" {
			return canon + ":" + upperFirst(rest)
		}
	}
	return upperFirst(s)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
