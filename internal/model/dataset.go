package model

// Row is one transaction record. A missing key and a null Value are both
// treated as missing.
type Row map[string]Value

// Get returns the value for field, or null if absent.
func (r Row) Get(field string) Value {
	return r[field]
}

// Missing reports whether field is absent or null.
func (r Row) Missing(field string) bool {
	v, ok := r[field]
	return !ok || v.IsNull()
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered sequence of rows sharing a column list.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset creates a Dataset.
func NewDataset(columns []string, rows []Row) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

// Len returns the number of rows. A nil dataset has no rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a copy whose column slice and rows can be changed without
// affecting d.
func (d *Dataset) Clone() *Dataset {
	cols := make([]string, len(d.Columns), len(d.Columns)+1)
	copy(cols, d.Columns)
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = r.Clone()
	}
	return &Dataset{Columns: cols, Rows: rows}
}

// WithColumn returns a copy of d with column name appended and set per row by
// fn. If the column already exists its values are replaced in place.
func (d *Dataset) WithColumn(name string, fn func(i int, r Row) Value) *Dataset {
	out := d.Clone()
	if !out.HasColumn(name) {
		out.Columns = append(out.Columns, name)
	}
	for i, r := range out.Rows {
		r[name] = fn(i, d.Rows[i])
	}
	return out
}
