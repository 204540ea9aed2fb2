package store

import "strings"

// needsQuoting reports whether term contains one of the operator
// characters the FTS5 query grammar reserves (§4.5): *, ", (, ), :, -,
// and whitespace.
func needsQuoting(term string) bool {
	for _, r := range term {
		switch r {
		case '*', '"', '(', ')', ':', '-', ' ', '\t', '\n':
			return true
		}
	}
	return false
}

// EscapeFTSTerm quotes a single term for the FTS5 query grammar so that
// it matches the exact token sequence it contains, regardless of any
// operator characters it carries (§4.5, §9).
func EscapeFTSTerm(term string) string {
	if term == "" {
		return `""`
	}
	if !needsQuoting(term) {
		return term
	}
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

// BuildFTSQuery tokenizes a user query into bare whitespace-separated
// terms, escapes each individually, and joins them with OR semantics for
// forgiving matching (§4.5).
func BuildFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeFTSTerm(f)
	}
	return strings.Join(escaped, " OR ")
}
