// Package importer commits a validated mapping session through an Executor
// and summarises the outcome.
package importer

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-importer/internal/mapping"
	"github.com/sells-group/lead-importer/internal/model"
)

// ErrMappingInvalid is returned when Run is asked to commit a session whose
// mapping does not validate.
var ErrMappingInvalid = eris.New("importer: mapping is not valid")

// OutcomeStatus is the per-row result reported by an Executor.
type OutcomeStatus string

const (
	OutcomeCreated OutcomeStatus = "created"
	OutcomeUpdated OutcomeStatus = "updated"
	OutcomeFailed  OutcomeStatus = "failed"
)

// RowOutcome is the executor's verdict for one planned row.
type RowOutcome struct {
	Row      int           `json:"row"`
	Status   OutcomeStatus `json:"status"`
	RecordID string        `json:"record_id,omitempty"`
	Field    string        `json:"field,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// Batch is everything an executor needs to upsert leads.
type Batch struct {
	Mappings []model.FieldMapping
	Rows     []model.PlannedRow
	Schema   *model.Schema
}

// Executor persists planned rows. Execute is called at most once per
// committed session. Retrying failed rows is the executor's concern.
type Executor interface {
	Name() string
	Execute(ctx context.Context, batch Batch) ([]RowOutcome, error)
}

// Run validates the session, plans every row of t, hands the valid rows to
// exec in a single call, and summarises the result. Rows that fail field
// checks are reported as failed without reaching the executor.
func Run(ctx context.Context, s *mapping.Session, t *model.Table, exec Executor) (*model.ImportResult, error) {
	start := time.Now()

	report := s.Validate()
	if !report.IsValid {
		return nil, eris.Wrapf(ErrMappingInvalid, "%d validation errors", len(report.Errors))
	}

	planned, rowErrs := s.Plan(t.Rows)
	log := zap.L().With(zap.String("executor", exec.Name()))
	log.Info("importer: executing batch",
		zap.Int("planned", len(planned)),
		zap.Int("rejected", countRows(rowErrs)),
	)

	var outcomes []RowOutcome
	if len(planned) > 0 {
		var err error
		outcomes, err = exec.Execute(ctx, Batch{Mappings: s.Mappings(), Rows: planned, Schema: s.Schema()})
		if err != nil {
			log.Error("importer: executor failed", zap.Error(err))
			outcomes = failAll(planned, err.Error())
		} else {
			outcomes = reconcile(planned, outcomes)
		}
	}

	result := Summarize(outcomes, rowErrs)
	result.TotalRows = t.TotalRows
	result.Duration = time.Since(start)

	log.Info("importer: batch complete",
		zap.Int("created", result.NewLeads),
		zap.Int("updated", result.UpdatedLeads),
		zap.Int("failed", result.FailedLeads),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// Summarize folds executor outcomes and pre-execution row errors into an
// ImportResult. Each failed row is counted once; errors are ordered by row.
func Summarize(outcomes []RowOutcome, rowErrs []model.RowError) *model.ImportResult {
	res := &model.ImportResult{Errors: []model.RowError{}}
	failed := make(map[int]bool)

	for _, o := range outcomes {
		switch o.Status {
		case OutcomeCreated:
			res.NewLeads++
		case OutcomeUpdated:
			res.UpdatedLeads++
		default:
			failed[o.Row] = true
			res.Errors = append(res.Errors, model.RowError{Row: o.Row, Field: o.Field, Message: o.Reason})
		}
	}
	for _, e := range rowErrs {
		failed[e.Row] = true
		res.Errors = append(res.Errors, e)
	}

	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Row < res.Errors[j].Row })
	res.FailedLeads = len(failed)
	res.Success = res.FailedLeads == 0
	return res
}

// failAll marks every planned row failed with the same reason.
func failAll(rows []model.PlannedRow, reason string) []RowOutcome {
	out := make([]RowOutcome, len(rows))
	for i, r := range rows {
		out[i] = RowOutcome{Row: r.Row, Status: OutcomeFailed, Reason: reason}
	}
	return out
}

// reconcile makes sure every planned row has exactly one outcome. Rows the
// executor did not report are failed; outcomes for unknown rows are dropped.
func reconcile(rows []model.PlannedRow, outcomes []RowOutcome) []RowOutcome {
	byRow := make(map[int]RowOutcome, len(outcomes))
	for _, o := range outcomes {
		if _, dup := byRow[o.Row]; !dup {
			byRow[o.Row] = o
		}
	}
	out := make([]RowOutcome, 0, len(rows))
	for _, r := range rows {
		o, ok := byRow[r.Row]
		if !ok {
			o = RowOutcome{Row: r.Row, Status: OutcomeFailed, Reason: "no result reported by executor"}
		}
		out = append(out, o)
	}
	return out
}

func countRows(errs []model.RowError) int {
	rows := make(map[int]bool, len(errs))
	for _, e := range errs {
		rows[e.Row] = true
	}
	return len(rows)
}
