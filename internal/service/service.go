// Package service runs the analyze, preview, and import workflow over a
// decoded table. The CLI and the HTTP API both drive imports through it.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-importer/internal/importer"
	"github.com/sells-group/lead-importer/internal/infer"
	"github.com/sells-group/lead-importer/internal/mapping"
	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/store"
	"github.com/sells-group/lead-importer/internal/suggest"
)

// ErrUnknownExecutor is returned when an import names an executor that was
// not registered.
var ErrUnknownExecutor = eris.New("service: unknown executor")

// ErrNoStore is returned when a template is requested but no store is
// configured.
var ErrNoStore = eris.New("service: template store not configured")

// Options tunes analysis.
type Options struct {
	SampleSize        int
	PreviewRows       int
	MatchThreshold    float64
	AutoApplyTemplate bool
}

// Request carries the caller's edits on top of the suggested mapping.
// Mappings maps a column to a target field ID; an empty ID clears it.
type Request struct {
	Template   string                          `json:"template,omitempty"`
	Mappings   map[string]string               `json:"mappings,omitempty"`
	Transforms map[string]*model.TransformSpec `json:"transforms,omitempty"`
}

// ImportRequest is a Request plus commit settings.
type ImportRequest struct {
	Request
	FileName     string `json:"file_name,omitempty"`
	Executor     string `json:"executor,omitempty"`
	SaveTemplate string `json:"save_template,omitempty"`
}

// Analysis is everything a user needs to review a mapping before commit.
type Analysis struct {
	File            string                    `json:"file,omitempty"`
	TotalRows       int                       `json:"total_rows"`
	Rejected        []model.MalformedRowError `json:"rejected,omitempty"`
	Columns         []model.Column            `json:"columns"`
	Mappings        []model.FieldMapping      `json:"mappings"`
	Template        string                    `json:"template,omitempty"`
	SkippedColumns  []string                  `json:"skipped_columns,omitempty"`
	TemplateMatches []store.TemplateMatch     `json:"template_matches,omitempty"`
	Validation      model.ValidationReport    `json:"validation"`
	Preview         []model.RowPreview        `json:"preview,omitempty"`
}

// Service wires schema, store, and executors together.
type Service struct {
	schema    *model.Schema
	store     store.Store
	executors map[string]importer.Executor
	opts      Options
}

// New creates a Service. st may be nil, which disables templates and
// import history.
func New(schema *model.Schema, st store.Store, opts Options, executors ...importer.Executor) *Service {
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = store.DefaultMatchThreshold
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 10
	}
	s := &Service{
		schema:    schema,
		store:     st,
		executors: make(map[string]importer.Executor, len(executors)),
		opts:      opts,
	}
	for _, e := range executors {
		s.executors[e.Name()] = e
	}
	return s
}

// Schema returns the target schema.
func (s *Service) Schema() *model.Schema { return s.schema }

// Executors returns the registered executor names, sorted.
func (s *Service) Executors() []string {
	names := make([]string, 0, len(s.executors))
	for n := range s.executors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Session builds a mapping session for t: columns are inferred, targets
// suggested, a template applied (the named one, or the best match when
// auto-apply is on), and the caller's edits layered on top.
func (s *Service) Session(ctx context.Context, t *model.Table, req Request) (*mapping.Session, *Analysis, error) {
	cols := infer.Columns(t, s.opts.SampleSize)
	sess := mapping.NewSession(cols, s.schema, suggest.Suggest(cols, s.schema))

	a := &Analysis{
		TotalRows: t.TotalRows,
		Rejected:  t.Rejected,
		Columns:   cols,
	}

	tmpl, err := s.pickTemplate(ctx, t.Headers, req.Template, a)
	if err != nil {
		return nil, nil, err
	}
	if tmpl != nil {
		a.SkippedColumns = sess.ApplyTemplate(tmpl)
		a.Template = tmpl.Name
		if len(a.SkippedColumns) > 0 {
			zap.L().Warn("service: template entries skipped",
				zap.String("template", tmpl.Name),
				zap.Strings("columns", a.SkippedColumns),
			)
		}
	}

	for _, col := range sortedKeys(req.Mappings) {
		var target *string
		if id := req.Mappings[col]; id != "" {
			target = &id
		}
		if err := sess.SetMapping(col, target); err != nil {
			return nil, nil, err
		}
	}
	for _, col := range sortedKeys(req.Transforms) {
		if err := sess.SetTransform(col, req.Transforms[col]); err != nil {
			return nil, nil, err
		}
	}

	a.Validation = sess.Validate()
	a.Mappings = sess.Mappings()
	a.Preview = sess.Preview(t.Rows, s.opts.PreviewRows)
	return sess, a, nil
}

func (s *Service) pickTemplate(ctx context.Context, headers []string, name string, a *Analysis) (*model.ImportTemplate, error) {
	if s.store == nil {
		if name != "" {
			return nil, ErrNoStore
		}
		return nil, nil
	}

	matches, err := s.store.MatchTemplates(ctx, headers, s.opts.MatchThreshold)
	if err != nil {
		return nil, eris.Wrap(err, "service: match templates")
	}
	a.TemplateMatches = matches

	if name != "" {
		tmpl, err := s.store.GetTemplate(ctx, name)
		if err != nil {
			return nil, eris.Wrapf(err, "service: load template %q", name)
		}
		return tmpl, nil
	}
	if s.opts.AutoApplyTemplate && len(matches) > 0 {
		best := matches[0].Template
		zap.L().Info("service: applying matched template",
			zap.String("template", best.Name),
			zap.Float64("score", matches[0].Score),
		)
		return &best, nil
	}
	return nil, nil
}

// Analyze returns the reviewed mapping for t without committing anything.
func (s *Service) Analyze(ctx context.Context, t *model.Table, req Request) (*Analysis, error) {
	_, a, err := s.Session(ctx, t, req)
	return a, err
}

// Import commits t through the named executor. The analysis is returned
// alongside ErrMappingInvalid so callers can show what blocked the import.
// Successful commits bump the applied template's use count, optionally save
// the mapping as a template, and are recorded in the import history.
func (s *Service) Import(ctx context.Context, t *model.Table, req ImportRequest) (*model.ImportResult, *Analysis, error) {
	exec, ok := s.executors[req.Executor]
	if !ok {
		return nil, nil, eris.Wrapf(ErrUnknownExecutor, "%q", req.Executor)
	}

	sess, a, err := s.Session(ctx, t, req.Request)
	if err != nil {
		return nil, nil, err
	}
	a.File = req.FileName

	res, err := importer.Run(ctx, sess, t, exec)
	if err != nil {
		if errors.Is(err, importer.ErrMappingInvalid) {
			return nil, a, err
		}
		return nil, a, eris.Wrap(err, "service: run import")
	}

	if s.store == nil {
		return res, a, nil
	}

	if name := sess.TemplateName(); name != "" {
		if err := s.store.TouchTemplate(ctx, name); err != nil {
			zap.L().Warn("service: touch template failed", zap.String("template", name), zap.Error(err))
		}
	}
	if req.SaveTemplate != "" {
		if err := s.store.SaveTemplate(ctx, sess.Template(req.SaveTemplate)); err != nil {
			return res, a, eris.Wrap(err, "service: save template")
		}
	}

	run := &model.ImportRun{
		FileName:     req.FileName,
		TemplateName: sess.TemplateName(),
		Executor:     exec.Name(),
		Status:       model.StatusFor(res),
		Result:       res,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.RecordImport(ctx, run); err != nil {
		return res, a, eris.Wrap(err, "service: record import")
	}
	return res, a, nil
}

// SaveTemplate stores the session's current mapping under name.
func (s *Service) SaveTemplate(ctx context.Context, t *model.Table, req Request, name string) (*model.ImportTemplate, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	sess, _, err := s.Session(ctx, t, req)
	if err != nil {
		return nil, err
	}
	tmpl := sess.Template(name)
	if err := s.store.SaveTemplate(ctx, tmpl); err != nil {
		return nil, eris.Wrap(err, "service: save template")
	}
	return tmpl, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
