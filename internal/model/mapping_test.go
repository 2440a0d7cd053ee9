package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceOrdering(t *testing.T) {
	t.Parallel()
	assert.Less(t, ConfidenceLow, ConfidenceMedium)
	assert.Less(t, ConfidenceMedium, ConfidenceHigh)
	assert.Equal(t, "high", ConfidenceHigh.String())
	assert.Equal(t, "none", Confidence(0).String())
}

func TestConfidenceJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Suggestion{TargetFieldID: "email", Confidence: ConfidenceMedium})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"confidence":"medium"`)

	var s Suggestion
	require.NoError(t, json.Unmarshal(b, &s))
	assert.Equal(t, ConfidenceMedium, s.Confidence)
}

func TestParseDataType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, TypeEmail, ParseDataType("email"))
	assert.Equal(t, TypeURL, ParseDataType("url"))
	assert.Equal(t, TypeText, ParseDataType("currency"))
}

func TestFieldMappingClone(t *testing.T) {
	t.Parallel()

	id := "email"
	orig := FieldMapping{
		SourceColumnName: "E-mail",
		TargetFieldID:    &id,
		Transforms:       &TransformSpec{Trim: true, JoinColumns: []string{"a"}},
		Suggestion:       &Suggestion{TargetFieldID: "email"},
		ValidationErrors: []string{"x"},
	}
	c := orig.Clone()
	*c.TargetFieldID = "phone"
	c.Transforms.JoinColumns[0] = "b"
	c.ValidationErrors[0] = "y"

	assert.Equal(t, "email", orig.Target())
	assert.Equal(t, "a", orig.Transforms.JoinColumns[0])
	assert.Equal(t, "x", orig.ValidationErrors[0])
}

func TestTransformSpecIsZero(t *testing.T) {
	t.Parallel()
	var nilSpec *TransformSpec
	assert.True(t, nilSpec.IsZero())
	assert.True(t, (&TransformSpec{}).IsZero())
	assert.False(t, (&TransformSpec{Case: CaseUpper}).IsZero())
}

func TestStatusFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, RunStatusFailed, StatusFor(nil))
	assert.Equal(t, RunStatusComplete, StatusFor(&ImportResult{Success: true}))
	assert.Equal(t, RunStatusPartial, StatusFor(&ImportResult{NewLeads: 1, FailedLeads: 1}))
	assert.Equal(t, RunStatusFailed, StatusFor(&ImportResult{FailedLeads: 2}))
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "leads.csv: input has no data rows", (&EmptyInputError{Name: "leads.csv"}).Error())
	assert.Equal(t, "unsupported file format .pdf (supported: .csv, .xlsx)",
		(&UnsupportedFormatError{Extension: ".pdf", Supported: []string{".csv", ".xlsx"}}).Error())
	assert.Equal(t, "line 3: got 1 cells, want 2", MalformedRowError{Line: 3, Got: 1, Want: 2}.Error())
}

func TestSuggestionRank(t *testing.T) {
	t.Parallel()

	reasons := []string{
		ReasonExactName,
		ReasonPartialName,
		ReasonSimilarName,
		ReasonTypePrefix + "email",
		ReasonSynonymPrefix + "mobile",
		"",
	}
	for i := 1; i < len(reasons); i++ {
		assert.Less(t, Suggestion{Reason: reasons[i-1]}.Rank(), Suggestion{Reason: reasons[i]}.Rank(), reasons[i])
	}
	assert.Equal(t, Suggestion{Reason: ReasonTypePrefix + "url"}.Rank(), Suggestion{Reason: ReasonTypePrefix + "phone"}.Rank())
}
