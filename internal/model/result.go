package model

import "time"

// RowError is a row-level failure reported to the user. Row is the 1-based
// data row index; Field is empty when the failure is not tied to one field.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarises a committed import.
type ImportResult struct {
	Success      bool          `json:"success"`
	TotalRows    int           `json:"total_rows"`
	NewLeads     int           `json:"new_leads"`
	UpdatedLeads int           `json:"updated_leads"`
	FailedLeads  int           `json:"failed_leads"`
	Errors       []RowError    `json:"errors"`
	Duration     time.Duration `json:"duration"`
}

// RunStatus is the lifecycle state of a recorded import run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"
	RunStatusFailed   RunStatus = "failed"
)

// ImportRun is the persisted history entry for one committed import.
type ImportRun struct {
	ID           string        `json:"id"`
	FileName     string        `json:"file_name"`
	TemplateName string        `json:"template_name,omitempty"`
	Executor     string        `json:"executor"`
	Status       RunStatus     `json:"status"`
	Result       *ImportResult `json:"result,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// StatusFor derives the run status from an import result.
func StatusFor(r *ImportResult) RunStatus {
	switch {
	case r == nil:
		return RunStatusFailed
	case r.Success:
		return RunStatusComplete
	case r.NewLeads+r.UpdatedLeads > 0:
		return RunStatusPartial
	default:
		return RunStatusFailed
	}
}
