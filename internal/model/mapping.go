package model

import (
	"strings"
	"time"
)

// CaseTransform changes the letter case of a value.
type CaseTransform string

const (
	CaseNone  CaseTransform = ""
	CaseUpper CaseTransform = "upper"
	CaseLower CaseTransform = "lower"
	CaseTitle CaseTransform = "title"
)

// NamePart selects one half of a full name.
type NamePart string

const (
	NamePartNone  NamePart = ""
	NamePartFirst NamePart = "first"
	NamePartLast  NamePart = "last"
)

// TransformSpec lists the per-column value transforms. They run in a fixed
// order: trim, case, split-name or join-columns, date reformat.
type TransformSpec struct {
	Trim          bool          `json:"trim,omitempty"`
	Case          CaseTransform `json:"case,omitempty"`
	SplitName     NamePart      `json:"split_name,omitempty"`
	JoinColumns   []string      `json:"join_columns,omitempty"`
	JoinSeparator string        `json:"join_separator,omitempty"`
	DateFormat    string        `json:"date_format,omitempty"`
}

// IsZero reports whether t applies no transform at all.
func (t *TransformSpec) IsZero() bool {
	return t == nil || (!t.Trim && t.Case == CaseNone && t.SplitName == NamePartNone &&
		len(t.JoinColumns) == 0 && t.DateFormat == "")
}

// Suggestion is the engine's proposed target for one column.
type Suggestion struct {
	TargetFieldID string     `json:"target_field_id"`
	Confidence    Confidence `json:"confidence"`
	Reason        string     `json:"reason"`
}

// Suggestion reasons, in the order the engine evaluates its rules. Type and
// synonym reasons carry the matched type or alias after the prefix.
const (
	ReasonExactName     = "exact name match"
	ReasonPartialName   = "partial name match"
	ReasonSimilarName   = "similar name match"
	ReasonTypePrefix    = "type match: "
	ReasonSynonymPrefix = "synonym match: "
)

var reasonOrder = []string{ReasonExactName, ReasonPartialName, ReasonSimilarName, ReasonTypePrefix, ReasonSynonymPrefix}

// Rank is the position of the rule that produced s; lower ranks are
// stronger evidence. Unknown reasons rank last.
func (s Suggestion) Rank() int {
	for i, r := range reasonOrder {
		if s.Reason == r || (strings.HasSuffix(r, ": ") && strings.HasPrefix(s.Reason, r)) {
			return i
		}
	}
	return len(reasonOrder)
}

// FieldMapping is the working state for one source column.
type FieldMapping struct {
	SourceColumnName string         `json:"source_column_name"`
	TargetFieldID    *string        `json:"target_field_id"`
	Transforms       *TransformSpec `json:"transforms,omitempty"`
	Suggestion       *Suggestion    `json:"suggestion,omitempty"`
	Source           MappingSource  `json:"source,omitempty"`
	Status           MappingStatus  `json:"status"`
	ValidationErrors []string       `json:"validation_errors,omitempty"`
	Warnings         []string       `json:"warnings,omitempty"`
}

// Target returns the mapped field ID, or "" when unmapped.
func (m FieldMapping) Target() string {
	if m.TargetFieldID == nil {
		return ""
	}
	return *m.TargetFieldID
}

// Clone returns a deep copy of the mapping.
func (m FieldMapping) Clone() FieldMapping {
	out := m
	if m.TargetFieldID != nil {
		id := *m.TargetFieldID
		out.TargetFieldID = &id
	}
	if m.Transforms != nil {
		t := *m.Transforms
		t.JoinColumns = append([]string(nil), m.Transforms.JoinColumns...)
		out.Transforms = &t
	}
	if m.Suggestion != nil {
		s := *m.Suggestion
		out.Suggestion = &s
	}
	out.ValidationErrors = append([]string(nil), m.ValidationErrors...)
	out.Warnings = append([]string(nil), m.Warnings...)
	return out
}

// ImportTemplate is a saved, named mapping keyed by source column name.
type ImportTemplate struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Mapping   map[string]FieldMapping `json:"mapping"`
	Headers   []string                `json:"headers,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	UseCount  int                     `json:"use_count"`
}

// Issue codes reported by mapping validation.
const (
	IssueRequiredMissing = "required_missing"
	IssueDuplicateTarget = "duplicate_target"
	IssueTypeMismatch    = "type_mismatch"
	IssueUnknownField    = "unknown_field"
)

// Issue is one finding from mapping validation.
type Issue struct {
	Code    string   `json:"code"`
	FieldID string   `json:"field_id,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Message string   `json:"message"`
}

// ValidationReport is the result of validating a mapping session.
type ValidationReport struct {
	IsValid  bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// CellPreview shows one mapped cell before and after transforms.
type CellPreview struct {
	Column           string   `json:"column"`
	TargetFieldID    string   `json:"target_field_id"`
	Value            string   `json:"value"`
	TransformedValue string   `json:"transformed_value"`
	IsValid          bool     `json:"is_valid"`
	Errors           []string `json:"errors,omitempty"`
}

// RowPreview is one previewed source row.
type RowPreview struct {
	Row   int           `json:"row"`
	Cells []CellPreview `json:"cells"`
}

// PlannedRow is a row ready for the executor: final values keyed by target
// field ID. Row is the 1-based data row index.
type PlannedRow struct {
	Row    int               `json:"row"`
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
}
