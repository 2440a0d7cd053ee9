package tabular

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-importer/internal/model"
)

// decodeXLSX reads the first worksheet. Row 0 is the header.
func decodeXLSX(name string, r io.Reader) (*model.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: read %s", name)
	}

	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open workbook %s", name)
	}
	if len(f.Sheets) == 0 {
		return nil, &model.EmptyInputError{Name: name}
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, &model.EmptyInputError{Name: name}
	}

	header := trimTrailingEmpty(rowToStrings(sheet.Rows[0]))
	if isBlank(header) {
		return nil, &model.EmptyInputError{Name: name}
	}
	b := newBuilder(name, header)
	for i, row := range sheet.Rows[1:] {
		b.add(i+2, materialize(rowToStrings(row), len(header)))
	}
	return b.finish()
}

// materialize sizes a sheet row to width: missing trailing cells become
// empty strings and empty cells past the header are discarded. Non-empty
// cells past the header are kept so the row fails the arity check.
func materialize(cells []string, width int) []string {
	if len(cells) > width {
		cells = trimTrailingEmpty(cells)
	}
	for len(cells) < width {
		cells = append(cells, "")
	}
	return cells
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cell.String()
	}
	return cells
}
