package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-importer/internal/importer"
	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/store"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Name() string { return "mock" }

func (m *mockExecutor) Execute(ctx context.Context, batch importer.Batch) ([]importer.RowOutcome, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]importer.RowOutcome), args.Error(1)
}

func testSchema() *model.Schema {
	return model.NewSchema([]model.TargetField{
		{ID: "name", Label: "Name", Required: true, Accepts: []model.DataType{model.TypeText}},
		{ID: "email", Label: "Email", Required: true, Unique: true, Accepts: []model.DataType{model.TypeEmail}},
		{ID: "phone", Label: "Phone", Accepts: []model.DataType{model.TypePhone}},
		{ID: "company", Label: "Company", Accepts: []model.DataType{model.TypeText}},
	})
}

func testTable() *model.Table {
	headers := []string{"Full Name", "Email Address", "Phone"}
	rows := []model.Row{
		{Line: 2, Values: map[string]string{"Full Name": "Alice Smith", "Email Address": "alice@x.com", "Phone": "555-123-4567"}},
		{Line: 3, Values: map[string]string{"Full Name": "Bob Jones", "Email Address": "bob@x.com", "Phone": "555-987-6543"}},
	}
	return &model.Table{Headers: headers, Rows: rows, TotalRows: len(rows)}
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func target(m []model.FieldMapping, col string) string {
	for i := range m {
		if m[i].SourceColumnName == col {
			return m[i].Target()
		}
	}
	return ""
}

func TestAnalyze_SuggestsAndPreviews(t *testing.T) {
	svc := New(testSchema(), nil, Options{PreviewRows: 1})

	a, err := svc.Analyze(context.Background(), testTable(), Request{})
	require.NoError(t, err)

	assert.Equal(t, 2, a.TotalRows)
	assert.Len(t, a.Columns, 3)
	assert.Equal(t, "name", target(a.Mappings, "Full Name"))
	assert.Equal(t, "email", target(a.Mappings, "Email Address"))
	assert.Equal(t, "phone", target(a.Mappings, "Phone"))
	assert.True(t, a.Validation.IsValid)
	assert.Len(t, a.Preview, 1)
	assert.Empty(t, a.Template)
}

func TestAnalyze_UserEdits(t *testing.T) {
	svc := New(testSchema(), nil, Options{})

	a, err := svc.Analyze(context.Background(), testTable(), Request{
		Mappings:   map[string]string{"Full Name": "company", "Phone": ""},
		Transforms: map[string]*model.TransformSpec{"Email Address": {Trim: true, Case: model.CaseLower}},
	})
	require.NoError(t, err)

	assert.Equal(t, "company", target(a.Mappings, "Full Name"))
	assert.Empty(t, target(a.Mappings, "Phone"))
	assert.False(t, a.Validation.IsValid)
	require.NotEmpty(t, a.Validation.Errors)
	assert.Equal(t, model.IssueRequiredMissing, a.Validation.Errors[0].Code)
}

func TestAnalyze_UnknownColumn(t *testing.T) {
	svc := New(testSchema(), nil, Options{})

	_, err := svc.Analyze(context.Background(), testTable(), Request{
		Mappings: map[string]string{"Nope": "email"},
	})
	assert.Error(t, err)
}

func TestAnalyze_TemplateWithoutStore(t *testing.T) {
	svc := New(testSchema(), nil, Options{})

	_, err := svc.Analyze(context.Background(), testTable(), Request{Template: "hubspot"})
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestImport_DryRunRecordsHistory(t *testing.T) {
	st := newTestStore(t)
	svc := New(testSchema(), st, Options{}, importer.DryRun{})
	ctx := context.Background()

	res, a, err := svc.Import(ctx, testTable(), ImportRequest{
		FileName:     "leads.csv",
		Executor:     "none",
		SaveTemplate: "webinar",
	})
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.NewLeads)
	assert.Equal(t, "leads.csv", a.File)

	runs, err := st.ListImports(ctx, store.ImportFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "none", runs[0].Executor)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)

	tmpl, err := st.GetTemplate(ctx, "webinar")
	require.NoError(t, err)
	assert.Equal(t, "email", tmpl.Mapping["Email Address"].Target())
}

func TestImport_AutoAppliesMatchedTemplate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	saver := New(testSchema(), st, Options{})
	_, err := saver.SaveTemplate(ctx, testTable(), Request{
		Mappings: map[string]string{"Phone": ""},
	}, "no-phone")
	require.NoError(t, err)

	svc := New(testSchema(), st, Options{AutoApplyTemplate: true}, importer.DryRun{})
	res, a, err := svc.Import(ctx, testTable(), ImportRequest{Executor: "none"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.Equal(t, "no-phone", a.Template)
	require.NotEmpty(t, a.TemplateMatches)
	assert.InDelta(t, 1.0, a.TemplateMatches[0].Score, 0.001)

	tmpl, err := st.GetTemplate(ctx, "no-phone")
	require.NoError(t, err)
	assert.Equal(t, 1, tmpl.UseCount)

	runs, err := st.ListImports(ctx, store.ImportFilter{TemplateName: "no-phone"})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestImport_InvalidMappingReturnsAnalysis(t *testing.T) {
	exec := new(mockExecutor)
	svc := New(testSchema(), nil, Options{}, exec)

	res, a, err := svc.Import(context.Background(), testTable(), ImportRequest{
		Request:  Request{Mappings: map[string]string{"Email Address": ""}},
		Executor: "mock",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, importer.ErrMappingInvalid)
	assert.Nil(t, res)
	require.NotNil(t, a)
	assert.False(t, a.Validation.IsValid)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestImport_ExecutorErrorFailsRows(t *testing.T) {
	exec := new(mockExecutor)
	exec.On("Execute", mock.Anything, mock.Anything).Return(nil, errors.New("api down"))
	svc := New(testSchema(), nil, Options{}, exec)

	res, _, err := svc.Import(context.Background(), testTable(), ImportRequest{Executor: "mock"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.FailedLeads)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "api down", res.Errors[0].Message)
	exec.AssertExpectations(t)
}

func TestImport_UnknownExecutor(t *testing.T) {
	svc := New(testSchema(), nil, Options{}, importer.DryRun{})

	_, _, err := svc.Import(context.Background(), testTable(), ImportRequest{Executor: "salesforce"})
	assert.ErrorIs(t, err, ErrUnknownExecutor)
}

func TestExecutors_Sorted(t *testing.T) {
	svc := New(testSchema(), nil, Options{}, new(mockExecutor), importer.DryRun{})
	assert.Equal(t, []string{"mock", "none"}, svc.Executors())
}
