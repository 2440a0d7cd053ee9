package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-importer/internal/db"
	"github.com/sells-group/lead-importer/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS import_templates (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	mapping    JSONB NOT NULL,
	headers    JSONB NOT NULL DEFAULT '[]',
	use_count  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS import_runs (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	file_name     TEXT NOT NULL,
	template_name TEXT NOT NULL DEFAULT '',
	executor      TEXT NOT NULL,
	status        TEXT NOT NULL,
	result        JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_import_runs_created_at ON import_runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_import_runs_template ON import_runs(template_name);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveTemplate upserts t by name. t is updated with the stored ID,
// timestamps, and use count.
func (s *PostgresStore) SaveTemplate(ctx context.Context, t *model.ImportTemplate) error {
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

	err = s.pool.QueryRow(ctx,
		`INSERT INTO import_templates (id, name, mapping, headers, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (name) DO UPDATE SET
		   mapping = EXCLUDED.mapping,
		   headers = EXCLUDED.headers,
		   updated_at = EXCLUDED.updated_at
		 RETURNING id, use_count, created_at, updated_at`,
		t.ID, t.Name, mappingJSON, headersJSON, now, now,
	).Scan(&t.ID, &t.UseCount, &t.CreatedAt, &t.UpdatedAt)
	return eris.Wrapf(err, "postgres: save template %s", t.Name)
}

func (s *PostgresStore) GetTemplate(ctx context.Context, name string) (*model.ImportTemplate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, mapping, headers, use_count, created_at, updated_at FROM import_templates WHERE name = $1`,
		name,
	)
	t, err := scanPGTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "template %s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get template %s", name)
	}
	return t, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]model.ImportTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, mapping, headers, use_count, created_at, updated_at FROM import_templates ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list templates")
	}
	defer rows.Close()

	templates := []model.ImportTemplate{}
	for rows.Next() {
		t, err := scanPGTemplate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan template")
		}
		templates = append(templates, *t)
	}
	return templates, eris.Wrap(rows.Err(), "postgres: list templates iterate")
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM import_templates WHERE name = $1`, name)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete template %s", name)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "template %s", name)
	}
	return nil
}

func (s *PostgresStore) TouchTemplate(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE import_templates SET use_count = use_count + 1, updated_at = $1 WHERE name = $2`,
		time.Now().UTC(), name,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: touch template %s", name)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "template %s", name)
	}
	return nil
}

func (s *PostgresStore) MatchTemplates(ctx context.Context, headers []string, threshold float64) ([]TemplateMatch, error) {
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return matchTemplates(templates, headers, threshold), nil
}

func (s *PostgresStore) RecordImport(ctx context.Context, run *model.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	var resultJSON []byte
	if run.Result != nil {
		var err error
		resultJSON, err = json.Marshal(run.Result)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal import result")
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_runs (id, file_name, template_name, executor, status, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.FileName, run.TemplateName, run.Executor, string(run.Status), resultJSON, run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: record import")
}

func (s *PostgresStore) ListImports(ctx context.Context, filter ImportFilter) ([]model.ImportRun, error) {
	query := `SELECT id, file_name, template_name, executor, status, result, created_at FROM import_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.TemplateName != "" {
		query += fmt.Sprintf(` AND template_name = $%d`, argIdx)
		args = append(args, filter.TemplateName)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, pageLimit(filter))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list imports")
	}
	defer rows.Close()

	runs := []model.ImportRun{}
	for rows.Next() {
		var (
			r          model.ImportRun
			status     string
			resultNull *[]byte
		)
		if err := rows.Scan(&r.ID, &r.FileName, &r.TemplateName, &r.Executor, &status, &resultNull, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import run")
		}
		r.Status = model.RunStatus(status)
		if resultNull != nil {
			r.Result = &model.ImportResult{}
			if err := json.Unmarshal(*resultNull, r.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal import result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list imports iterate")
}

func scanPGTemplate(row scannable) (*model.ImportTemplate, error) {
	var (
		t                        model.ImportTemplate
		mappingJSON, headersJSON []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &mappingJSON, &headersJSON, &t.UseCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalTemplate(&t, mappingJSON, headersJSON); err != nil {
		return nil, err
	}
	return &t, nil
}
