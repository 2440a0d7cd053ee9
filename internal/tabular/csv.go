package tabular

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/lead-importer/internal/model"
)

// decodeText reads delimited text. A leading byte-order mark selects the
// encoding (UTF-8 or UTF-16); without one the input is read as UTF-8.
func decodeText(name string, r io.Reader, delim rune) (*model.Table, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.Comma = delim
	reader.FieldsPerRecord = -1 // arity is checked by the builder
	reader.LazyQuotes = true

	var b *builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: read %s", name)
		}
		line, _ := reader.FieldPos(0)

		if b == nil {
			if isBlank(record) {
				continue
			}
			b = newBuilder(name, record)
			continue
		}
		b.add(line, record)
	}

	if b == nil {
		return nil, &model.EmptyInputError{Name: name}
	}
	return b.finish()
}
