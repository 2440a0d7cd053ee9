package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-importer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS import_templates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	mapping    TEXT NOT NULL,
	headers    TEXT NOT NULL DEFAULT '[]',
	use_count  INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS import_runs (
	id            TEXT PRIMARY KEY,
	file_name     TEXT NOT NULL,
	template_name TEXT NOT NULL DEFAULT '',
	executor      TEXT NOT NULL,
	status        TEXT NOT NULL,
	result        TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_import_runs_created_at ON import_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_import_runs_template ON import_runs(template_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveTemplate inserts t or replaces the mapping of the template with the
// same name. t is updated with the stored ID, timestamps, and use count.
func (s *SQLiteStore) SaveTemplate(ctx context.Context, t *model.ImportTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	mappingJSON, headersJSON, err := marshalTemplate(t)
	if err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO import_templates (id, name, mapping, headers, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   mapping = excluded.mapping,
		   headers = excluded.headers,
		   updated_at = excluded.updated_at`,
		t.ID, t.Name, mappingJSON, headersJSON, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save template %s", t.Name)
	}

	stored, err := s.GetTemplate(ctx, t.Name)
	if err != nil {
		return err
	}
	*t = *stored
	return nil
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, name string) (*model.ImportTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, mapping, headers, use_count, created_at, updated_at
		 FROM import_templates WHERE name = ?`,
		name,
	)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "template %s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get template %s", name)
	}
	return t, nil
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]model.ImportTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, mapping, headers, use_count, created_at, updated_at
		 FROM import_templates ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list templates")
	}
	defer rows.Close() //nolint:errcheck

	templates := []model.ImportTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan template")
		}
		templates = append(templates, *t)
	}
	return templates, eris.Wrap(rows.Err(), "sqlite: list templates iterate")
}

func (s *SQLiteStore) DeleteTemplate(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM import_templates WHERE name = ?`, name)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete template %s", name)
	}
	return checkRowsAffected(res, "template", name)
}

// TouchTemplate increments the use count of a template.
func (s *SQLiteStore) TouchTemplate(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE import_templates SET use_count = use_count + 1, updated_at = ? WHERE name = ?`,
		time.Now().UTC(), name,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: touch template %s", name)
	}
	return checkRowsAffected(res, "template", name)
}

func (s *SQLiteStore) MatchTemplates(ctx context.Context, headers []string, threshold float64) ([]TemplateMatch, error) {
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return matchTemplates(templates, headers, threshold), nil
}

func (s *SQLiteStore) RecordImport(ctx context.Context, run *model.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	var resultJSON sql.NullString
	if run.Result != nil {
		b, err := json.Marshal(run.Result)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal import result")
		}
		resultJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, file_name, template_name, executor, status, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.FileName, run.TemplateName, run.Executor, string(run.Status), resultJSON, run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: record import")
}

func (s *SQLiteStore) ListImports(ctx context.Context, filter ImportFilter) ([]model.ImportRun, error) {
	query := `SELECT id, file_name, template_name, executor, status, result, created_at FROM import_runs WHERE 1=1`
	var args []any

	if filter.TemplateName != "" {
		query += ` AND template_name = ?`
		args = append(args, filter.TemplateName)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, pageLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list imports")
	}
	defer rows.Close() //nolint:errcheck

	runs := []model.ImportRun{}
	for rows.Next() {
		var (
			r          model.ImportRun
			resultJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.FileName, &r.TemplateName, &r.Executor, &r.Status, &resultJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import run")
		}
		if resultJSON.Valid {
			r.Result = &model.ImportResult{}
			if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal import result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list imports iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTemplate(row scannable) (*model.ImportTemplate, error) {
	var (
		t                        model.ImportTemplate
		mappingJSON, headersJSON string
	)
	if err := row.Scan(&t.ID, &t.Name, &mappingJSON, &headersJSON, &t.UseCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalTemplate(&t, []byte(mappingJSON), []byte(headersJSON)); err != nil {
		return nil, err
	}
	return &t, nil
}

func marshalTemplate(t *model.ImportTemplate) (string, string, error) {
	mapping := t.Mapping
	if mapping == nil {
		mapping = map[string]model.FieldMapping{}
	}
	m, err := json.Marshal(mapping)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal template mapping")
	}
	headers := t.Headers
	if headers == nil {
		headers = []string{}
	}
	h, err := json.Marshal(headers)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal template headers")
	}
	return string(m), string(h), nil
}

func unmarshalTemplate(t *model.ImportTemplate, mapping, headers []byte) error {
	if err := json.Unmarshal(mapping, &t.Mapping); err != nil {
		return eris.Wrap(err, "store: unmarshal template mapping")
	}
	if err := json.Unmarshal(headers, &t.Headers); err != nil {
		return eris.Wrap(err, "store: unmarshal template headers")
	}
	return nil
}
