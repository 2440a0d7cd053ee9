// Package tabular decodes uploaded CSV, TSV, and XLSX files into a uniform
// table of named columns and string-valued rows.
package tabular

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-importer/internal/model"
)

// Supported lists the file extensions Decode accepts.
var Supported = []string{".csv", ".tsv", ".xlsx"}

// Decode reads r as the file type implied by name's extension.
//
// Text cells may be double-quoted, so "Smith, Jane" is a single cell and a
// stray quote inside an unquoted cell is kept as written.
//
// A data row is accepted only when its cell count equals the header count.
// Spreadsheet rows are addressed by column, so short rows are first
// materialized to the header width; text rows are taken as written. Rows
// that fail the check are listed in Table.Rejected.
func Decode(name string, r io.Reader) (*model.Table, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var (
		t   *model.Table
		err error
	)
	switch ext {
	case ".csv":
		t, err = decodeText(name, r, ',')
	case ".tsv":
		t, err = decodeText(name, r, '\t')
	case ".xlsx":
		t, err = decodeXLSX(name, r)
	default:
		return nil, &model.UnsupportedFormatError{Extension: ext, Supported: Supported}
	}
	if err != nil {
		return nil, err
	}

	if len(t.Rejected) > 0 {
		zap.L().Warn("tabular: rows rejected for arity mismatch",
			zap.String("file", name),
			zap.Int("rejected", len(t.Rejected)),
			zap.Int("accepted", t.TotalRows),
		)
	}
	return t, nil
}

// DecodeFile opens path and decodes it by extension.
func DecodeFile(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Decode(filepath.Base(path), f)
}

// builder accumulates rows against a fixed header.
type builder struct {
	name  string
	table *model.Table
}

func newBuilder(name string, header []string) *builder {
	return &builder{
		name:  name,
		table: &model.Table{Headers: normalizeHeaders(header)},
	}
}

// add applies the arity rule and records the row or its rejection.
func (b *builder) add(line int, cells []string) {
	if isBlank(cells) {
		return
	}
	want := len(b.table.Headers)
	if len(cells) != want {
		b.table.Rejected = append(b.table.Rejected, model.MalformedRowError{
			Line: line,
			Got:  len(cells),
			Want: want,
		})
		return
	}
	values := make(map[string]string, want)
	for i, h := range b.table.Headers {
		values[h] = strings.TrimSpace(cells[i])
	}
	b.table.Rows = append(b.table.Rows, model.Row{Line: line, Values: values})
	b.table.TotalRows++
}

func (b *builder) finish() (*model.Table, error) {
	if b.table.TotalRows == 0 && len(b.table.Rejected) == 0 {
		return nil, &model.EmptyInputError{Name: b.name}
	}
	return b.table, nil
}

// normalizeHeaders trims header names, names blank headers by position, and
// suffixes repeated names so every column name is unique.
func normalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		key := strings.ToLower(h)
		seen[key]++
		if n := seen[key]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		out[i] = h
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
