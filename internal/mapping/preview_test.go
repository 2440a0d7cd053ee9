package mapping

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-importer/internal/model"
)

func scenarioRows() []model.Row {
	return []model.Row{
		{Line: 2, Values: map[string]string{"Full Name": " alice smith ", "Email Address": "alice@x.com", "Phone": "555-123-4567"}},
		{Line: 3, Values: map[string]string{"Full Name": "", "Email Address": "not-an-email", "Phone": ""}},
		{Line: 4, Values: map[string]string{"Full Name": "Bob Jones", "Email Address": "ALICE@x.com", "Phone": ""}},
	}
}

func TestPreview(t *testing.T) {
	s := newScenarioA(t)
	require.NoError(t, s.SetTransform("Full Name", &model.TransformSpec{Trim: true, Case: model.CaseTitle}))

	previews := s.Preview(scenarioRows(), 2)
	require.Len(t, previews, 2)

	first := previews[0]
	assert.Equal(t, 1, first.Row)
	require.Len(t, first.Cells, 3)
	assert.Equal(t, "Full Name", first.Cells[0].Column)
	assert.Equal(t, " alice smith ", first.Cells[0].Value)
	assert.Equal(t, "Alice Smith", first.Cells[0].TransformedValue)
	for _, c := range first.Cells {
		assert.True(t, c.IsValid, c.Column)
	}

	second := previews[1]
	assert.False(t, second.Cells[0].IsValid)
	assert.Equal(t, []string{"Name is required"}, second.Cells[0].Errors)
	assert.False(t, second.Cells[1].IsValid)
	assert.Contains(t, second.Cells[1].Errors[0], "not a valid email")
	assert.True(t, second.Cells[2].IsValid, "optional empty phone is fine")
}

func TestPreview_Idempotent(t *testing.T) {
	s := newScenarioA(t)
	rows := scenarioRows()
	before := s.Mappings()

	a := s.Preview(rows, 20)
	b := s.Preview(rows, 20)
	assert.Equal(t, a, b)
	assert.Equal(t, before, s.Mappings())
	assert.Len(t, a, 3)
}

func TestPreview_DefaultLimit(t *testing.T) {
	s := newScenarioA(t)
	var rows []model.Row
	for i := 0; i < 30; i++ {
		rows = append(rows, model.Row{Values: map[string]string{"Full Name": "n", "Email Address": fmt.Sprintf("u%d@x.com", i)}})
	}
	assert.Len(t, s.Preview(rows, 0), DefaultPreviewLimit)
}

func TestPreview_SkipsUnmapped(t *testing.T) {
	s := newScenarioA(t)
	require.NoError(t, s.SetMapping("Phone", nil))
	p := s.Preview(scenarioRows(), 1)
	require.Len(t, p[0].Cells, 2)
	assert.Equal(t, "Email Address", p[0].Cells[1].Column)
}

func TestCheckValue(t *testing.T) {
	email := &model.TargetField{ID: "email", Label: "Email", Required: true, Unique: true, Accepts: []model.DataType{model.TypeEmail}}
	plainEmail := &model.TargetField{ID: "alt", Label: "Alt Email", Accepts: []model.DataType{model.TypeEmail}}
	zip := model.NewSchema([]model.TargetField{{ID: "zip", Label: "Zip", Pattern: `^\d{5}$`}}).ByID("zip")

	assert.Empty(t, CheckValue(nil, ""))
	assert.Equal(t, []string{"Email is required"}, CheckValue(email, "  "))
	assert.Len(t, CheckValue(email, "bad"), 1)
	assert.Empty(t, CheckValue(email, "a@b.co"))
	assert.Empty(t, CheckValue(plainEmail, "bad"), "format only enforced on unique email fields")
	assert.Empty(t, CheckValue(zip, "12345"))
	assert.Len(t, CheckValue(zip, "1234"), 1)
	assert.Empty(t, CheckValue(zip, ""))
}

func TestPlan(t *testing.T) {
	s := newScenarioA(t)
	require.NoError(t, s.SetTransform("Full Name", &model.TransformSpec{Trim: true}))

	planned, errs := s.Plan(scenarioRows())
	require.Len(t, planned, 1)
	assert.Equal(t, 1, planned[0].Row)
	assert.Equal(t, 2, planned[0].Line)
	assert.Equal(t, map[string]string{"name": "alice smith", "email": "alice@x.com", "phone": "555-123-4567"}, planned[0].Values)

	rowsWithErrors := map[int]bool{}
	for _, e := range errs {
		rowsWithErrors[e.Row] = true
	}
	assert.Equal(t, map[int]bool{2: true, 3: true}, rowsWithErrors)

	var dup *model.RowError
	for i := range errs {
		if errs[i].Row == 3 {
			dup = &errs[i]
		}
	}
	require.NotNil(t, dup)
	assert.Equal(t, "email", dup.Field)
	assert.Contains(t, dup.Message, "first seen in row 1")
}

func TestPlan_FailedRowDoesNotClaimUniqueValue(t *testing.T) {
	s := newScenarioA(t)
	rows := []model.Row{
		{Values: map[string]string{"Full Name": "", "Email Address": "a@x.com"}},
		{Values: map[string]string{"Full Name": "Ann", "Email Address": "a@x.com"}},
	}
	planned, errs := s.Plan(rows)
	require.Len(t, planned, 1)
	assert.Equal(t, 2, planned[0].Row)
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
}
