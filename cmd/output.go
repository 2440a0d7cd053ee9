package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/service"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatAnalysis writes columns, their mappings, and template matches to w.
func formatAnalysis(out io.Writer, a *service.Analysis) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Rows:\t%d\n", a.TotalRows)
	if len(a.Rejected) > 0 {
		_, _ = fmt.Fprintf(w, "Rejected:\t%d\n", len(a.Rejected))
	}
	if a.Template != "" {
		_, _ = fmt.Fprintf(w, "Template:\t%s\n", a.Template)
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "COLUMN\tTYPE\tTARGET\tSTATUS\tCONFIDENCE\tREASON")
	_, _ = fmt.Fprintln(w, "------\t----\t------\t------\t----------\t------")
	types := make(map[string]model.DataType, len(a.Columns))
	for _, c := range a.Columns {
		types[c.Name] = c.InferredType
	}
	for _, m := range a.Mappings {
		conf, reason := "", ""
		if m.Suggestion != nil {
			conf = m.Suggestion.Confidence.String()
			reason = m.Suggestion.Reason
		}
		target := m.Target()
		if target == "" {
			target = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(m.SourceColumnName, 30), types[m.SourceColumnName], target, m.Status, conf, reason)
	}
	_ = w.Flush()

	if len(a.TemplateMatches) > 0 {
		_, _ = fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TEMPLATE\tSCORE\tUSES")
		for _, m := range a.TemplateMatches {
			_, _ = fmt.Fprintf(w, "%s\t%.2f\t%d\n", m.Template.Name, m.Score, m.Template.UseCount)
		}
		_ = w.Flush()
	}

	formatValidation(out, a.Validation)
}

// formatValidation writes validation errors and warnings to w.
func formatValidation(out io.Writer, r model.ValidationReport) {
	_, _ = fmt.Fprintln(out)
	if r.IsValid {
		_, _ = fmt.Fprintln(out, "Mapping is valid.")
	} else {
		_, _ = fmt.Fprintf(out, "Mapping has %d error(s):\n", len(r.Errors))
		for _, e := range r.Errors {
			_, _ = fmt.Fprintf(out, "  [%s] %s\n", e.Code, e.Message)
		}
	}
	for _, wn := range r.Warnings {
		_, _ = fmt.Fprintf(out, "  warning: %s\n", wn.Message)
	}
}

// formatPreview writes transformed preview rows to w, one block per row.
func formatPreview(out io.Writer, rows []model.RowPreview) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "Row %d\n", r.Row)
		for _, c := range r.Cells {
			mark := ""
			if !c.IsValid {
				mark = "  ! " + strings.Join(c.Errors, "; ")
			}
			_, _ = fmt.Fprintf(w, "  %s\t-> %s\t%q\t%q%s\n",
				truncate(c.Column, 30), c.TargetFieldID, c.Value, c.TransformedValue, mark)
		}
	}
	_ = w.Flush()
}

// formatResult writes an import summary and its row errors to w.
func formatResult(out io.Writer, r *model.ImportResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total rows:\t%d\n", r.TotalRows)
	_, _ = fmt.Fprintf(w, "Created:\t%d\n", r.NewLeads)
	_, _ = fmt.Fprintf(w, "Updated:\t%d\n", r.UpdatedLeads)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", r.FailedLeads)
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", r.Duration.Round(time.Millisecond))
	_ = w.Flush()

	for _, e := range r.Errors {
		if e.Field != "" {
			_, _ = fmt.Fprintf(out, "  row %d (%s): %s\n", e.Row, e.Field, e.Message)
			continue
		}
		_, _ = fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Message)
	}
}

// formatTemplates writes a tabular list of templates to w.
func formatTemplates(out io.Writer, templates []model.ImportTemplate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCOLUMNS\tUSES\tUPDATED")
	_, _ = fmt.Fprintln(w, "----\t-------\t----\t-------")
	for _, t := range templates {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			t.Name, len(t.Mapping), t.UseCount, t.UpdatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// formatImports writes a tabular list of import runs to w.
func formatImports(out io.Writer, runs []model.ImportRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFILE\tTEMPLATE\tEXECUTOR\tSTATUS\tCREATED\tNEW\tUPDATED\tFAILED")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t--------\t------\t-------\t---\t-------\t------")
	for _, r := range runs {
		var created, updated, failed int
		if r.Result != nil {
			created, updated, failed = r.Result.NewLeads, r.Result.UpdatedLeads, r.Result.FailedLeads
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			truncateID(r.ID),
			truncate(r.FileName, 30),
			r.TemplateName,
			r.Executor,
			r.Status,
			r.CreatedAt.Format("2006-01-02 15:04"),
			created, updated, failed,
		)
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
