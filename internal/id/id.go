package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/auditai-dev/auditai/internal/model"
)

// identifierNames are normalized column names recognized as a row identifier,
// in order of preference.
var identifierNames = []string{"transactionid", "txnid", "txid", "id"}

// IdentifierColumn returns the column holding transaction identifiers, or ""
// if the dataset has none. Matching ignores case and punctuation, so
// "Transaction_ID" and "transaction id" both match.
func IdentifierColumn(columns []string) string {
	for _, want := range identifierNames {
		for _, c := range columns {
			if Normalize(c) == want {
				return c
			}
		}
	}
	return ""
}

// RowID returns the identifier for row i: the identifier column's value when
// present, otherwise "row-N" (1-based).
func RowID(column string, row model.Row, i int) string {
	if column != "" && !row.Missing(column) {
		if s := strings.TrimSpace(row.Get(column).String()); s != "" {
			return s
		}
	}
	return FormatRowRef(i)
}

// FormatRowRef returns a positional reference like "row-3" for index 2.
func FormatRowRef(i int) string {
	return fmt.Sprintf("row-%d", i+1)
}

// NewRunID returns a run identifier like "20250115-103000-1a2b3c4d".
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

// Normalize lowercases s and drops everything but letters and digits.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}
