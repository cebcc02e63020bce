package report

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all HTML from s. Entities escaped by the policy are
// decoded again so plain text such as "R&D" survives unchanged.
func SanitizeText(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// SanitizeCell makes a value safe to write into a spreadsheet cell: values
// starting with a formula trigger are prefixed with a single quote. Plain
// negative numbers and all other text are left alone.
func SanitizeCell(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '@', '\t', '\r':
		return "'" + s
	case '-':
		if !looksNumeric(trimmed) {
			return "'" + s
		}
	}
	return s
}

func looksNumeric(s string) bool {
	digits := false
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '-' && i == 0, c == '.':
		default:
			return false
		}
	}
	return digits
}
