package salesforce

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-importer/internal/importer"
	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/transform"
)

// fullNameField is the built-in target that is split into FirstName and
// LastName when those are not mapped directly.
const fullNameField = "name"

// builtinLeadFields maps built-in schema field IDs to Lead API names.
var builtinLeadFields = map[string]string{
	"firstName":     "FirstName",
	"lastName":      "LastName",
	"email":         "Email",
	"phone":         "Phone",
	"mobilePhone":   "MobilePhone",
	"company":       "Company",
	"jobTitle":      "Title",
	"website":       "Website",
	"leadSource":    "LeadSource",
	"industry":      "Industry",
	"annualRevenue": "AnnualRevenue",
	"employees":     "NumberOfEmployees",
	"street":        "Street",
	"city":          "City",
	"state":         "State",
	"postalCode":    "PostalCode",
	"country":       "Country",
	"notes":         "Description",
}

// LeadExecutor upserts planned rows as Salesforce records, matching
// existing records on the batch's unique field.
type LeadExecutor struct {
	client     Client
	object     string
	fieldNames map[string]string
}

// LeadOption configures a LeadExecutor.
type LeadOption func(*LeadExecutor)

// WithObject sets the target SObject. Defaults to Lead.
func WithObject(name string) LeadOption {
	return func(e *LeadExecutor) {
		if name != "" {
			e.object = name
		}
	}
}

// WithFieldNames overrides the API name used for specific target field IDs.
func WithFieldNames(names map[string]string) LeadOption {
	return func(e *LeadExecutor) {
		for k, v := range names {
			e.fieldNames[k] = v
		}
	}
}

// NewLeadExecutor creates a LeadExecutor.
func NewLeadExecutor(c Client, opts ...LeadOption) *LeadExecutor {
	e := &LeadExecutor{client: c, object: "Lead", fieldNames: make(map[string]string)}
	for k, v := range builtinLeadFields {
		e.fieldNames[k] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements importer.Executor.
func (e *LeadExecutor) Name() string { return "salesforce" }

// APIName returns the SObject field name a target field is written to.
func (e *LeadExecutor) APIName(f *model.TargetField) string {
	if n, ok := e.fieldNames[f.ID]; ok {
		return n
	}
	if f.Ref.IsCustom() && !strings.HasSuffix(f.Ref.Name, "__c") {
		return f.Ref.Name + "__c"
	}
	return f.Ref.Name
}

// Execute implements importer.Executor.
func (e *LeadExecutor) Execute(ctx context.Context, batch importer.Batch) ([]importer.RowOutcome, error) {
	records := make([]map[string]any, len(batch.Rows))
	for i, r := range batch.Rows {
		records[i] = e.record(batch.Schema, r.Values)
	}

	existing := map[string]string{}
	keyField := uniqueField(batch)
	var keyName string
	if keyField != nil {
		keyName = e.APIName(keyField)
		values := make([]string, 0, len(batch.Rows))
		for _, r := range batch.Rows {
			values = append(values, r.Values[keyField.ID])
		}
		var err error
		existing, err = FindIDsByField(ctx, e.client, e.object, keyName, values)
		if err != nil {
			return nil, err
		}
	}

	var (
		inserts   []map[string]any
		insertIdx []int
		updates   []CollectionRecord
		updateIdx []int
	)
	for i, r := range batch.Rows {
		id := ""
		if keyField != nil {
			id = existing[strings.ToLower(strings.TrimSpace(r.Values[keyField.ID]))]
		}
		if id != "" {
			updates = append(updates, CollectionRecord{ID: id, Fields: records[i]})
			updateIdx = append(updateIdx, i)
			continue
		}
		inserts = append(inserts, records[i])
		insertIdx = append(insertIdx, i)
	}

	zap.L().Debug("sf: upserting leads",
		zap.String("object", e.object),
		zap.String("key", keyName),
		zap.Int("inserts", len(inserts)),
		zap.Int("updates", len(updates)),
	)

	outcomes := make([]importer.RowOutcome, len(batch.Rows))
	insRes, insFailed := BulkInsert(ctx, e.client, e.object, inserts)
	collect(outcomes, batch.Rows, insertIdx, insRes, insFailed, importer.OutcomeCreated)
	updRes, updFailed := BulkUpdate(ctx, e.client, e.object, updates)
	for j := range updRes {
		if updRes[j] != nil && updRes[j].ID == "" {
			updRes[j].ID = updates[j].ID
		}
	}
	collect(outcomes, batch.Rows, updateIdx, updRes, updFailed, importer.OutcomeUpdated)
	return outcomes, nil
}

// collect converts aligned collection results into row outcomes.
func collect(out []importer.RowOutcome, rows []model.PlannedRow, idx []int, results []*CollectionResult, failed []BatchError, ok importer.OutcomeStatus) {
	reasons := make(map[int]string)
	for _, f := range failed {
		for j := f.Start; j < f.End; j++ {
			reasons[j] = f.Err.Error()
		}
	}
	for j, i := range idx {
		o := importer.RowOutcome{Row: rows[i].Row}
		switch r := results[j]; {
		case r == nil:
			o.Status = importer.OutcomeFailed
			o.Reason = reasons[j]
			if o.Reason == "" {
				o.Reason = "sf: no result returned"
			}
		case r.Success:
			o.Status = ok
			o.RecordID = r.ID
		default:
			o.Status = importer.OutcomeFailed
			o.Reason = strings.Join(r.Errors, "; ")
			if o.Reason == "" {
				o.Reason = "sf: record rejected"
			}
		}
		out[i] = o
	}
}

// record builds the SObject field map for one planned row. Empty values are
// left out so updates never blank existing data.
func (e *LeadExecutor) record(schema *model.Schema, values map[string]string) map[string]any {
	rec := make(map[string]any, len(values))
	var fullName string
	for id, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if id == fullNameField {
			if _, mapped := e.fieldNames[fullNameField]; !mapped {
				fullName = v
				continue
			}
		}
		f := schema.ByID(id)
		if f == nil {
			continue
		}
		rec[e.APIName(f)] = convert(f, v)
	}
	if fullName != "" {
		if _, ok := rec["LastName"]; !ok {
			if last := transform.SplitName(fullName, model.NamePartLast); last != "" {
				rec["LastName"] = last
				if _, ok := rec["FirstName"]; !ok {
					rec["FirstName"] = transform.SplitName(fullName, model.NamePartFirst)
				}
			} else {
				rec["LastName"] = transform.SplitName(fullName, model.NamePartFirst)
			}
		}
	}
	return rec
}

// convert coerces a value to the JSON type the field expects.
func convert(f *model.TargetField, v string) any {
	switch {
	case f.AcceptsType(model.TypeNumber) && len(f.Accepts) == 1:
		clean := strings.NewReplacer(",", "", "$", "", " ", "").Replace(v)
		if n, err := strconv.ParseFloat(clean, 64); err == nil {
			return n
		}
	case f.AcceptsType(model.TypeDate) && len(f.Accepts) == 1:
		return transform.ReformatDate(v, "YYYY-MM-DD")
	}
	return v
}

// uniqueField returns the first mapped unique field of the batch.
func uniqueField(batch importer.Batch) *model.TargetField {
	for _, m := range batch.Mappings {
		if m.TargetFieldID == nil {
			continue
		}
		if f := batch.Schema.ByID(*m.TargetFieldID); f != nil && f.Unique {
			return f
		}
	}
	return nil
}
