//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/service"
	"github.com/sells-group/lead-importer/internal/store"
)

func strPtr(s string) *string { return &s }

func TestFormatAnalysis(t *testing.T) {
	a := &service.Analysis{
		TotalRows: 2,
		Template:  "webinar",
		Columns: []model.Column{
			{Name: "Email Address", InferredType: model.TypeEmail},
			{Name: "Notes", InferredType: model.TypeText},
		},
		Mappings: []model.FieldMapping{
			{
				SourceColumnName: "Email Address",
				TargetFieldID:    strPtr("email"),
				Status:           model.StatusSuggested,
				Suggestion:       &model.Suggestion{TargetFieldID: "email", Confidence: model.ConfidenceHigh, Reason: "partial name match"},
			},
			{SourceColumnName: "Notes", Status: model.StatusUnmapped},
		},
		TemplateMatches: []store.TemplateMatch{
			{Template: model.ImportTemplate{Name: "webinar", UseCount: 4}, Score: 0.75},
		},
		Validation: model.ValidationReport{IsValid: true},
	}

	var buf bytes.Buffer
	formatAnalysis(&buf, a)
	out := buf.String()

	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "Email Address")
	assert.Contains(t, out, "email")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "partial name match")
	assert.Contains(t, out, "unmapped")
	assert.Contains(t, out, "Template:")
	assert.Contains(t, out, "0.75")
	assert.Contains(t, out, "Mapping is valid.")
}

func TestFormatValidation_Errors(t *testing.T) {
	var buf bytes.Buffer
	formatValidation(&buf, model.ValidationReport{
		Errors:   []model.Issue{{Code: model.IssueRequiredMissing, Message: `required field "Email" is not mapped`}},
		Warnings: []model.Issue{{Code: model.IssueTypeMismatch, Message: "column looks like a phone"}},
	})
	out := buf.String()

	assert.Contains(t, out, "1 error(s)")
	assert.Contains(t, out, "[required_missing]")
	assert.Contains(t, out, "warning: column looks like a phone")
}

func TestFormatPreview(t *testing.T) {
	var buf bytes.Buffer
	formatPreview(&buf, []model.RowPreview{{
		Row: 1,
		Cells: []model.CellPreview{
			{Column: "Email", TargetFieldID: "email", Value: " A@X.COM ", TransformedValue: "a@x.com", IsValid: true},
			{Column: "Phone", TargetFieldID: "phone", Value: "abc", TransformedValue: "abc", Errors: []string{"not a phone number"}},
		},
	}})
	out := buf.String()

	assert.Contains(t, out, "Row 1")
	assert.Contains(t, out, `"a@x.com"`)
	assert.Contains(t, out, "! not a phone number")
}

func TestFormatResult(t *testing.T) {
	var buf bytes.Buffer
	formatResult(&buf, &model.ImportResult{
		TotalRows: 3, NewLeads: 1, UpdatedLeads: 1, FailedLeads: 1,
		Duration: 1500 * time.Millisecond,
		Errors:   []model.RowError{{Row: 3, Field: "email", Message: "duplicate value"}},
	})
	out := buf.String()

	assert.Contains(t, out, "Created:")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "row 3 (email): duplicate value")
}

func TestFormatImports(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	formatImports(&buf, []model.ImportRun{{
		ID:           "abc12345-6789-0000-0000-000000000000",
		FileName:     "leads.csv",
		TemplateName: "webinar",
		Executor:     "salesforce",
		Status:       model.RunStatusPartial,
		Result:       &model.ImportResult{NewLeads: 5, FailedLeads: 2},
		CreatedAt:    now,
	}})
	out := buf.String()

	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "leads.csv")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "2025-06-15 10:30")
}

func TestFormatTemplates(t *testing.T) {
	var buf bytes.Buffer
	formatTemplates(&buf, []model.ImportTemplate{{
		Name:      "webinar",
		Mapping:   map[string]model.FieldMapping{"Email": {}, "Name": {}},
		UseCount:  3,
		UpdatedAt: time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC),
	}})
	out := buf.String()

	assert.Contains(t, out, "webinar")
	assert.Contains(t, out, "2025-01-02 03:04")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "12345678", truncateID("12345678-aaaa"))
	assert.Equal(t, "abc", truncateID("abc"))
}
