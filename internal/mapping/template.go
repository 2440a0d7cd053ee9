package mapping

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/lead-importer/internal/model"
)

// Template captures the current targets and transforms as a named template.
// Only mapped columns are included.
func (s *Session) Template(name string) *model.ImportTemplate {
	now := time.Now().UTC()
	t := &model.ImportTemplate{
		ID:        uuid.New().String(),
		Name:      name,
		Mapping:   make(map[string]model.FieldMapping),
		Headers:   append([]string(nil), s.headers...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range s.mappings {
		if s.mappings[i].TargetFieldID == nil {
			continue
		}
		m := s.mappings[i].Clone()
		t.Mapping[m.SourceColumnName] = model.FieldMapping{
			SourceColumnName: m.SourceColumnName,
			TargetFieldID:    m.TargetFieldID,
			Transforms:       m.Transforms,
			Status:           model.StatusMapped,
		}
	}
	return t
}

// ApplyTemplate sets targets and transforms from t for every column the
// file shares with it. Suggested targets that collide with a template target
// are cleared. Template entries that name unknown fields or carry transforms
// invalid for this file are skipped and returned.
func (s *Session) ApplyTemplate(t *model.ImportTemplate) (skipped []string) {
	if t == nil {
		return nil
	}
	applied := make(map[string]bool)
	for i := range s.mappings {
		m := &s.mappings[i]
		saved, ok := t.Mapping[m.SourceColumnName]
		if !ok || saved.TargetFieldID == nil {
			continue
		}
		if s.schema.ByID(*saved.TargetFieldID) == nil || s.checkTransform(saved.Transforms) != nil {
			skipped = append(skipped, m.SourceColumnName)
			continue
		}
		c := saved.Clone()
		m.TargetFieldID = c.TargetFieldID
		m.Transforms = c.Transforms
		m.Source = model.SourceTemplate
		applied[*m.TargetFieldID] = true
	}
	for i := range s.mappings {
		m := &s.mappings[i]
		if m.Source == model.SourceSuggested && m.TargetFieldID != nil && applied[*m.TargetFieldID] {
			m.TargetFieldID = nil
			m.Source = ""
		}
	}
	s.template = t.Name
	s.RecomputeStatuses()
	return skipped
}
