package importer

import "context"

// DryRun reports every row as created without writing anywhere.
type DryRun struct{}

// Name implements Executor.
func (DryRun) Name() string { return "none" }

// Execute implements Executor.
func (DryRun) Execute(ctx context.Context, batch Batch) ([]RowOutcome, error) {
	out := make([]RowOutcome, 0, len(batch.Rows))
	for _, r := range batch.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, RowOutcome{Row: r.Row, Status: OutcomeCreated})
	}
	return out, nil
}
