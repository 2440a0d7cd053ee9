package mapping

import (
	"fmt"
	"strings"

	"github.com/sells-group/lead-importer/internal/infer"
	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/transform"
)

// DefaultPreviewLimit is the number of rows Preview shows when limit <= 0.
const DefaultPreviewLimit = 20

// Preview transforms and checks the first limit rows. Cells follow source
// column order and only mapped columns appear. Preview never changes the
// session.
func (s *Session) Preview(rows []model.Row, limit int) []model.RowPreview {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if limit > len(rows) {
		limit = len(rows)
	}

	out := make([]model.RowPreview, 0, limit)
	for i := 0; i < limit; i++ {
		rp := model.RowPreview{Row: i + 1, Cells: []model.CellPreview{}}
		for j := range s.mappings {
			m := &s.mappings[j]
			if m.TargetFieldID == nil {
				continue
			}
			f := s.schema.ByID(*m.TargetFieldID)
			value := rows[i].Get(m.SourceColumnName)
			transformed := transform.Apply(m.Transforms, m.SourceColumnName, rows[i].Values)
			errs := CheckValue(f, transformed)
			rp.Cells = append(rp.Cells, model.CellPreview{
				Column:           m.SourceColumnName,
				TargetFieldID:    *m.TargetFieldID,
				Value:            value,
				TransformedValue: transformed,
				IsValid:          len(errs) == 0,
				Errors:           errs,
			})
		}
		out = append(out, rp)
	}
	return out
}

// CheckValue runs the field-level checks on a transformed value: empty when
// required, email format on unique email fields, and the field's pattern.
func CheckValue(f *model.TargetField, v string) []string {
	if f == nil {
		return nil
	}
	var errs []string
	if strings.TrimSpace(v) == "" {
		if f.Required {
			errs = append(errs, fmt.Sprintf("%s is required", f.Label))
		}
		return errs
	}
	if f.Unique && f.AcceptsType(model.TypeEmail) && !infer.Matches(model.TypeEmail, v) {
		errs = append(errs, fmt.Sprintf("%q is not a valid email address", v))
	}
	if f.PatternRegex != nil && !f.PatternRegex.MatchString(v) {
		errs = append(errs, fmt.Sprintf("%q does not match the %s format", v, f.Label))
	}
	return errs
}
