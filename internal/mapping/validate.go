package mapping

import (
	"fmt"
	"strings"

	"github.com/sells-group/lead-importer/internal/model"
)

// Validate checks the whole mapping: required-field coverage, then
// duplicate targets, then per-mapping type compatibility. Any error makes
// the mapping invalid and blocks import.
func (s *Session) Validate() model.ValidationReport {
	s.RecomputeStatuses()

	report := model.ValidationReport{Errors: []model.Issue{}, Warnings: []model.Issue{}}

	claimants := make(map[string][]string)
	var order []string
	for i := range s.mappings {
		m := &s.mappings[i]
		if m.TargetFieldID == nil {
			continue
		}
		id := *m.TargetFieldID
		if _, seen := claimants[id]; !seen {
			order = append(order, id)
		}
		claimants[id] = append(claimants[id], m.SourceColumnName)
	}

	for _, f := range s.schema.Required() {
		if len(claimants[f.ID]) == 0 {
			report.Errors = append(report.Errors, model.Issue{
				Code:    model.IssueRequiredMissing,
				FieldID: f.ID,
				Message: fmt.Sprintf("required field %q is not mapped", f.Label),
			})
		}
	}

	for _, id := range order {
		cols := claimants[id]
		if len(cols) < 2 {
			continue
		}
		report.Errors = append(report.Errors, model.Issue{
			Code:    model.IssueDuplicateTarget,
			FieldID: id,
			Columns: cols,
			Message: fmt.Sprintf("field %q is mapped from more than one column: %s", s.label(id), strings.Join(cols, ", ")),
		})
	}

	for i := range s.mappings {
		m := &s.mappings[i]
		if m.TargetFieldID == nil {
			continue
		}
		code := model.IssueTypeMismatch
		if s.schema.ByID(*m.TargetFieldID) == nil {
			code = model.IssueUnknownField
		}
		for _, msg := range m.ValidationErrors {
			report.Errors = append(report.Errors, model.Issue{
				Code: code, FieldID: *m.TargetFieldID, Columns: []string{m.SourceColumnName}, Message: msg,
			})
		}
		for _, msg := range m.Warnings {
			report.Warnings = append(report.Warnings, model.Issue{
				Code: code, FieldID: *m.TargetFieldID, Columns: []string{m.SourceColumnName}, Message: msg,
			})
		}
	}

	report.IsValid = len(report.Errors) == 0
	return report
}

func (s *Session) label(id string) string {
	if f := s.schema.ByID(id); f != nil {
		return f.Label
	}
	return id
}

func typeMismatchMessage(col model.Column, f *model.TargetField) string {
	accepts := make([]string, len(f.Accepts))
	for i, a := range f.Accepts {
		accepts[i] = string(a)
	}
	return fmt.Sprintf("column %q looks like %s but field %q accepts %s",
		col.Name, col.InferredType, f.Label, strings.Join(accepts, ", "))
}

func unknownFieldMessage(id string) string {
	return fmt.Sprintf("unknown target field %q", id)
}
