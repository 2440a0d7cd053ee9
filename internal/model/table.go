package model

// Row is one accepted data row. Line is the 1-based physical line (CSV) or
// sheet row (XLSX) the values came from, so errors can point back at the file.
type Row struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
}

// Get returns the raw value of the named column, or "" when absent.
func (r Row) Get(column string) string {
	return r.Values[column]
}

// Table is the decoded contents of an uploaded file: the header row and
// every data row whose arity matched it.
type Table struct {
	Headers   []string            `json:"headers"`
	Rows      []Row               `json:"rows"`
	TotalRows int                 `json:"total_rows"`
	Rejected  []MalformedRowError `json:"rejected,omitempty"`
}

// Column is one source column after type inference. Immutable once built.
type Column struct {
	Name         string   `json:"name"`
	SampleValues []string `json:"sample_values"`
	InferredType DataType `json:"inferred_type"`
	RowCount     int      `json:"row_count"`
}
