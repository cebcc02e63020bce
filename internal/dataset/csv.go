package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/auditai-dev/auditai/internal/model"
)

// CSVParser parses delimited text with a header row.
type CSVParser struct {
	// Comma overrides the field delimiter. Zero means ','.
	Comma rune
}

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// Parse reads a CSV and returns its rows as a Dataset.
func (p *CSVParser) Parse(r io.Reader) (*model.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if p.Comma != 0 {
		cr.Comma = p.Comma
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return FromRecords(records)
}
