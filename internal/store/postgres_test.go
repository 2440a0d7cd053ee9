package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-importer/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var templateColumns = []string{"id", "name", "mapping", "headers", "use_count", "created_at", "updated_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS import_templates`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveTemplate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)INSERT INTO import_templates .* ON CONFLICT \(name\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), "hubspot", `{"Email":{"source_column_name":"Email","target_field_id":"email","status":"mapped"}}`, `["Email"]`, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "use_count", "created_at", "updated_at"}).
			AddRow("tmpl-1", 3, now, now))

	tmpl := &model.ImportTemplate{
		Name:    "hubspot",
		Headers: []string{"Email"},
		Mapping: map[string]model.FieldMapping{
			"Email": {SourceColumnName: "Email", TargetFieldID: ptr("email"), Status: model.StatusMapped},
		},
	}
	require.NoError(t, s.SaveTemplate(context.Background(), tmpl))
	assert.Equal(t, "tmpl-1", tmpl.ID)
	assert.Equal(t, 3, tmpl.UseCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetTemplate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, name, mapping, headers, use_count, created_at, updated_at FROM import_templates WHERE name = \$1`).
		WithArgs("hubspot").
		WillReturnRows(pgxmock.NewRows(templateColumns).
			AddRow("tmpl-1", "hubspot", []byte(`{"Email":{"source_column_name":"Email","target_field_id":"email","status":"mapped"}}`), []byte(`["Email"]`), 2, now, now))

	got, err := s.GetTemplate(context.Background(), "hubspot")
	require.NoError(t, err)
	assert.Equal(t, "tmpl-1", got.ID)
	assert.Equal(t, 2, got.UseCount)
	assert.Equal(t, []string{"Email"}, got.Headers)
	m := got.Mapping["Email"]
	assert.Equal(t, "email", m.Target())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetTemplate_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM import_templates WHERE name = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetTemplate(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MatchTemplates(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM import_templates ORDER BY name`).
		WillReturnRows(pgxmock.NewRows(templateColumns).
			AddRow("t1", "apollo", []byte(`{}`), []byte(`["Email","Phone"]`), 0, now, now).
			AddRow("t2", "zoho", []byte(`{}`), []byte(`["SKU"]`), 0, now, now))

	matches, err := s.MatchTemplates(context.Background(), []string{"email", "phone", "name"}, 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "apollo", matches[0].Template.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteTemplate_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM import_templates WHERE name = \$1`).
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteTemplate(context.Background(), "gone")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_TouchTemplate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE import_templates SET use_count = use_count \+ 1`).
		WithArgs(pgxmock.AnyArg(), "hubspot").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.TouchTemplate(context.Background(), "hubspot"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordImport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO import_runs`).
		WithArgs(pgxmock.AnyArg(), "leads.csv", "", "none", "complete", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run := &model.ImportRun{
		FileName: "leads.csv",
		Executor: "none",
		Status:   model.RunStatusComplete,
		Result:   &model.ImportResult{Success: true, TotalRows: 1, NewLeads: 1},
	}
	require.NoError(t, s.RecordImport(context.Background(), run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListImports_Filter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM import_runs WHERE true AND template_name = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("expo", 10, 20).
		WillReturnError(errors.New("connection reset"))

	_, err := s.ListImports(context.Background(), ImportFilter{TemplateName: "expo", Limit: 10, Offset: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list imports")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
