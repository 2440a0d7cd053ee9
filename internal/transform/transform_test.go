package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lead-importer/internal/model"
)

func TestApply(t *testing.T) {
	t.Parallel()

	row := map[string]string{
		"Name":   "  alice MARY smith ",
		"First":  " Bob ",
		"Last":   "jones",
		"Middle": "",
		"Signup": "01/15/2024",
		"Bad":    "someday",
	}

	tests := []struct {
		name   string
		spec   *model.TransformSpec
		column string
		want   string
	}{
		{"nil spec", nil, "Name", "  alice MARY smith "},
		{"zero spec", &model.TransformSpec{}, "Name", "  alice MARY smith "},
		{"trim", &model.TransformSpec{Trim: true}, "Name", "alice MARY smith"},
		{"upper", &model.TransformSpec{Trim: true, Case: model.CaseUpper}, "Name", "ALICE MARY SMITH"},
		{"lower", &model.TransformSpec{Trim: true, Case: model.CaseLower}, "Name", "alice mary smith"},
		{"title", &model.TransformSpec{Trim: true, Case: model.CaseTitle}, "Name", "Alice Mary Smith"},
		{"split first after case", &model.TransformSpec{Case: model.CaseTitle, SplitName: model.NamePartFirst}, "Name", "Alice"},
		{"split last", &model.TransformSpec{SplitName: model.NamePartLast}, "Name", "MARY smith"},
		{"join with default separator", &model.TransformSpec{Trim: true, JoinColumns: []string{"Last"}}, "First", "Bob jones"},
		{"join skips blanks and self", &model.TransformSpec{Trim: true, Case: model.CaseTitle, JoinColumns: []string{"First", "Middle", "Last"}, JoinSeparator: "|"}, "First", "Bob|Jones"},
		{"date reformat", &model.TransformSpec{DateFormat: "YYYY-MM-DD"}, "Signup", "2024-01-15"},
		{"unparseable date passes through", &model.TransformSpec{DateFormat: "YYYY-MM-DD"}, "Bad", "someday"},
		{"missing column", &model.TransformSpec{Trim: true}, "Nope", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Apply(tt.spec, tt.column, row))
		})
	}
}

func TestApply_DoesNotMutateRow(t *testing.T) {
	t.Parallel()
	row := map[string]string{"a": " x "}
	_ = Apply(&model.TransformSpec{Trim: true, Case: model.CaseUpper}, "a", row)
	assert.Equal(t, " x ", row["a"])
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, first, last string
	}{
		{"Alice Smith", "Alice", "Smith"},
		{"Alice Mary Smith", "Alice", "Mary Smith"},
		{"Smith, Alice", "Alice", "Smith"},
		{"Cher", "Cher", ""},
		{"", "", ""},
		{"   ", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.first, SplitName(tt.in, model.NamePartFirst), tt.in)
		assert.Equal(t, tt.last, SplitName(tt.in, model.NamePartLast), tt.in)
	}
}

func TestReformatDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, format, want string
	}{
		{"2024-01-15", "MM/DD/YYYY", "01/15/2024"},
		{"1/5/2024", "YYYY-MM-DD", "2024-01-05"},
		{"15-01-2024", "YYYY-MM-DD", "2024-01-15"},
		{"Jan 5, 2024", "DD/MM/YYYY", "05/01/2024"},
		{"2024-01-15T10:30:00Z", "YYYY-MM-DD", "2024-01-15"},
		{"2024-01-15", "2006.01.02", "2024.01.15"},
		{"13/45/2024", "YYYY-MM-DD", "13/45/2024"},
		{"", "YYYY-MM-DD", ""},
		{"not a date", "YYYY-MM-DD", "not a date"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReformatDate(tt.in, tt.format), tt.in)
	}
}

func TestLayout(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2006-01-02", Layout("YYYY-MM-DD"))
	assert.Equal(t, "01/02/06", Layout("MM/DD/YY"))
	assert.Equal(t, "2006-01-02 15:04:05", Layout("YYYY-MM-DD HH:mm:ss"))
	assert.Equal(t, "Jan 2, 2006", Layout("Jan 2, 2006"))
}

func TestCheck(t *testing.T) {
	t.Parallel()

	headers := []string{"First", "Last"}
	assert.NoError(t, Check(nil, headers))
	assert.NoError(t, Check(&model.TransformSpec{Trim: true, JoinColumns: []string{"Last"}}, headers))
	assert.Error(t, Check(&model.TransformSpec{SplitName: model.NamePartFirst, JoinColumns: []string{"Last"}}, headers))
	assert.Error(t, Check(&model.TransformSpec{JoinColumns: []string{"Middle"}}, headers))
	assert.Error(t, Check(&model.TransformSpec{Case: "sentence"}, headers))
	assert.Error(t, Check(&model.TransformSpec{SplitName: "middle"}, headers))
}

func TestTotal(t *testing.T) {
	t.Parallel()
	inputs := []string{"", " ", "\x00", "日本語 テキスト", "a,b,c", "////"}
	spec := &model.TransformSpec{Trim: true, Case: model.CaseTitle, SplitName: model.NamePartLast, DateFormat: "YYYY-MM-DD"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { _ = Apply(spec, "c", map[string]string{"c": in}) })
	}
}
