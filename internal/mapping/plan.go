package mapping

import (
	"fmt"
	"strings"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/transform"
)

// Plan transforms and checks every row. Rows that pass become planned rows
// keyed by target field ID; rows that fail are reported and left out. A
// value repeated in a unique field is reported on every row after the first.
func (s *Session) Plan(rows []model.Row) ([]model.PlannedRow, []model.RowError) {
	var (
		planned []model.PlannedRow
		rowErrs []model.RowError
	)
	unique := s.uniqueTargets()
	firstSeen := make(map[string]map[string]int, len(unique))
	for _, f := range unique {
		firstSeen[f.ID] = make(map[string]int)
	}

	for i, row := range rows {
		n := i + 1
		values := make(map[string]string, len(s.mappings))
		var errs []model.RowError

		for j := range s.mappings {
			m := &s.mappings[j]
			if m.TargetFieldID == nil {
				continue
			}
			f := s.schema.ByID(*m.TargetFieldID)
			v := transform.Apply(m.Transforms, m.SourceColumnName, row.Values)
			for _, msg := range CheckValue(f, v) {
				errs = append(errs, model.RowError{Row: n, Field: *m.TargetFieldID, Message: msg})
			}
			values[*m.TargetFieldID] = v
		}

		for _, f := range unique {
			v := strings.ToLower(strings.TrimSpace(values[f.ID]))
			if first, dup := firstSeen[f.ID][v]; v != "" && dup {
				errs = append(errs, model.RowError{
					Row:     n,
					Field:   f.ID,
					Message: fmt.Sprintf("duplicate %s %q (first seen in row %d)", f.Label, values[f.ID], first),
				})
			}
		}

		if len(errs) > 0 {
			rowErrs = append(rowErrs, errs...)
			continue
		}
		for _, f := range unique {
			if v := strings.ToLower(strings.TrimSpace(values[f.ID])); v != "" {
				firstSeen[f.ID][v] = n
			}
		}
		planned = append(planned, model.PlannedRow{Row: n, Line: row.Line, Values: values})
	}
	return planned, rowErrs
}

// uniqueTargets returns the mapped fields flagged unique, in column order.
func (s *Session) uniqueTargets() []*model.TargetField {
	var out []*model.TargetField
	for i := range s.mappings {
		m := &s.mappings[i]
		if m.TargetFieldID == nil {
			continue
		}
		if f := s.schema.ByID(*m.TargetFieldID); f != nil && f.Unique {
			out = append(out, f)
		}
	}
	return out
}
