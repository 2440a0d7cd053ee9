// Package mapping holds the editable association between source columns and
// target fields for one import, and validates, previews, and plans it.
package mapping

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/transform"
)

// Session is the mapping state for one import. It is not safe for
// concurrent use; callers own one session per import.
type Session struct {
	schema   *model.Schema
	columns  []model.Column
	headers  []string
	index    map[string]int
	mappings []model.FieldMapping
	template string
}

// NewSession creates a session with one mapping per column. Suggested
// targets are applied up front; when several columns are suggested for the
// same field, the strongest suggestion wins (higher confidence, then earlier
// rule, then earlier column) and the others start unmapped with their
// suggestion kept for display.
func NewSession(columns []model.Column, schema *model.Schema, suggestions map[string]model.Suggestion) *Session {
	if schema == nil {
		schema = model.NewSchema(nil)
	}
	s := &Session{
		schema:   schema,
		columns:  columns,
		headers:  make([]string, len(columns)),
		index:    make(map[string]int, len(columns)),
		mappings: make([]model.FieldMapping, len(columns)),
	}

	winner := make(map[string]int)
	for i, c := range columns {
		s.headers[i] = c.Name
		s.index[c.Name] = i
		s.mappings[i] = model.FieldMapping{SourceColumnName: c.Name}

		sg, ok := suggestions[c.Name]
		if !ok || schema.ByID(sg.TargetFieldID) == nil {
			continue
		}
		s.mappings[i].Suggestion = &sg

		prev, claimed := winner[sg.TargetFieldID]
		if !claimed || stronger(sg, *s.mappings[prev].Suggestion) {
			winner[sg.TargetFieldID] = i
		}
	}
	for fieldID, i := range winner {
		id := fieldID
		s.mappings[i].TargetFieldID = &id
		s.mappings[i].Source = model.SourceSuggested
	}

	s.RecomputeStatuses()
	return s
}

// stronger reports whether a outranks b for the same field. Equal
// suggestions keep the earlier column.
func stronger(a, b model.Suggestion) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Rank() < b.Rank()
}

// Schema returns the target schema the session maps onto.
func (s *Session) Schema() *model.Schema { return s.schema }

// Columns returns the source columns in file order.
func (s *Session) Columns() []model.Column { return s.columns }

// TemplateName returns the name of the last applied template, if any.
func (s *Session) TemplateName() string { return s.template }

// Mappings returns a copy of every mapping in column order.
func (s *Session) Mappings() []model.FieldMapping {
	out := make([]model.FieldMapping, len(s.mappings))
	for i := range s.mappings {
		out[i] = s.mappings[i].Clone()
	}
	return out
}

// Mapping returns a copy of the mapping for column.
func (s *Session) Mapping(column string) (model.FieldMapping, bool) {
	i, ok := s.index[column]
	if !ok {
		return model.FieldMapping{}, false
	}
	return s.mappings[i].Clone(), true
}

// SetMapping points column at targetFieldID. A nil target clears the
// mapping.
func (s *Session) SetMapping(column string, targetFieldID *string) error {
	i, ok := s.index[column]
	if !ok {
		return eris.Errorf("mapping: unknown column %q", column)
	}
	m := &s.mappings[i]
	if targetFieldID == nil {
		m.TargetFieldID = nil
		m.Source = ""
	} else {
		if s.schema.ByID(*targetFieldID) == nil {
			return eris.Errorf("mapping: unknown target field %q", *targetFieldID)
		}
		id := *targetFieldID
		m.TargetFieldID = &id
		m.Source = model.SourceUser
	}
	s.RecomputeStatuses()
	return nil
}

// SetTransform replaces the transforms of column. A nil spec removes them.
func (s *Session) SetTransform(column string, spec *model.TransformSpec) error {
	i, ok := s.index[column]
	if !ok {
		return eris.Errorf("mapping: unknown column %q", column)
	}
	if err := s.checkTransform(spec); err != nil {
		return eris.Wrapf(err, "mapping: transform for %q", column)
	}
	if spec.IsZero() {
		s.mappings[i].Transforms = nil
	} else {
		cp := *spec
		cp.JoinColumns = append([]string(nil), spec.JoinColumns...)
		s.mappings[i].Transforms = &cp
	}
	s.RecomputeStatuses()
	return nil
}

func (s *Session) checkTransform(spec *model.TransformSpec) error {
	return transform.Check(spec, s.headers)
}

// RecomputeStatuses re-derives every mapping's checks and status from the
// current targets. It runs after every mutation.
func (s *Session) RecomputeStatuses() {
	claims := s.claims()
	for i := range s.mappings {
		m := &s.mappings[i]
		m.ValidationErrors, m.Warnings = s.checkMapping(m)
		m.Status = deriveStatus(m, claims)
	}
}

func deriveStatus(m *model.FieldMapping, claims map[string]int) model.MappingStatus {
	switch {
	case m.TargetFieldID == nil:
		return model.StatusUnmapped
	case claims[*m.TargetFieldID] > 1:
		return model.StatusConflict
	case len(m.ValidationErrors) > 0:
		return model.StatusInvalid
	case m.Source == model.SourceSuggested:
		return model.StatusSuggested
	default:
		return model.StatusMapped
	}
}

// claims counts the mappings targeting each field.
func (s *Session) claims() map[string]int {
	claims := make(map[string]int, len(s.mappings))
	for i := range s.mappings {
		if id := s.mappings[i].TargetFieldID; id != nil {
			claims[*id]++
		}
	}
	return claims
}

// checkMapping runs the checks that concern one mapping in isolation.
func (s *Session) checkMapping(m *model.FieldMapping) (errs, warnings []string) {
	if m.TargetFieldID == nil {
		return nil, nil
	}
	f := s.schema.ByID(*m.TargetFieldID)
	if f == nil {
		return []string{unknownFieldMessage(*m.TargetFieldID)}, nil
	}
	col := s.columns[s.index[m.SourceColumnName]]
	if !f.AcceptsType(col.InferredType) {
		msg := typeMismatchMessage(col, f)
		if f.Required {
			return []string{msg}, nil
		}
		return nil, []string{msg}
	}
	return nil, nil
}
