package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/auditai-dev/auditai/internal/model"
)

var (
	// ErrUnsupportedFormat is returned when no parser handles a file type.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader is returned when a file has no header row.
	ErrNoHeader = errors.New("no header row found")
)

// Parser converts a tabular file into a Dataset.
type Parser interface {
	Parse(r io.Reader) (*model.Dataset, error)
	Format() string
}

// Registry holds parsers keyed by format (file extension without the dot).
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(strings.TrimPrefix(format, "."))]
}

// ForFile returns the parser matching name's extension.
func (r *Registry) ForFile(name string) (Parser, error) {
	ext := filepath.Ext(name)
	if p := r.Get(ext); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVParser{})
	r.Register(&XLSXParser{})
	return r
}

// Load parses the file at path with the default registry.
func Load(path string) (*model.Dataset, error) {
	p, err := DefaultRegistry().ForFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	ds, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return ds, nil
}

// FromRecords builds a Dataset from a header row and data rows. Blank rows are
// skipped; header cells are trimmed and blank headers become "column_N".
// Short rows leave trailing fields null.
func FromRecords(records [][]string) (*model.Dataset, error) {
	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	header := records[start]
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		columns[i] = name
	}

	var rows []model.Row
	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		row := make(model.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = ParseCell(rec[i])
			} else {
				row[col] = model.Null()
			}
		}
		rows = append(rows, row)
	}
	return model.NewDataset(columns, rows), nil
}

// nullTokens are cell contents read as missing, matching common spreadsheet
// and dataframe exports.
var nullTokens = map[string]bool{
	"na": true, "n/a": true, "#n/a": true, "nan": true, "-nan": true,
	"null": true, "none": true, "<na>": true,
}

// ParseCell converts a raw cell into a Value: empty or a null token → null,
// finite number → number, otherwise trimmed string. Thousands separators are
// not interpreted.
func ParseCell(raw string) model.Value {
	s := strings.TrimSpace(raw)
	if s == "" || nullTokens[strings.ToLower(s)] {
		return model.Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return model.Number(f)
	}
	return model.String(s)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
