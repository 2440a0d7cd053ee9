package notion

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-importer/internal/importer"
	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/transform"
)

// LeadExecutor writes planned rows as pages of a Notion leads database.
// Database columns are matched to target fields by label; the database's
// title column receives the lead's display name. Rows whose unique field
// matches an existing page update that page.
type LeadExecutor struct {
	client Client
	dbID   string
}

// NewLeadExecutor creates a LeadExecutor for the database dbID.
func NewLeadExecutor(c Client, dbID string) *LeadExecutor {
	return &LeadExecutor{client: c, dbID: dbID}
}

// Name implements importer.Executor.
func (e *LeadExecutor) Name() string { return "notion" }

// leadDB is the column layout of the leads database for one batch.
type leadDB struct {
	types map[string]notionapi.PropertyConfigType
	title string
}

// Execute implements importer.Executor. Notion has no batch write, so pages
// are written one at a time at the client's rate limit and a failed write
// fails only its row.
func (e *LeadExecutor) Execute(ctx context.Context, batch importer.Batch) ([]importer.RowOutcome, error) {
	types, err := PropertyTypes(ctx, e.client, e.dbID)
	if err != nil {
		return nil, eris.Wrap(err, "notion: read lead database")
	}
	db := leadDB{types: types, title: titleColumn(types)}
	if db.title == "" {
		return nil, eris.Errorf("notion: database %s has no title property", e.dbID)
	}
	if missing := db.unwritable(batch); len(missing) > 0 {
		zap.L().Warn("notion: mapped fields have no database column",
			zap.String("database", e.dbID), zap.Strings("labels", missing))
	}

	key := uniqueField(batch)
	existing := map[string]string{}
	if key != nil && db.types[key.Label] != "" {
		if existing, err = e.index(ctx, key.Label); err != nil {
			return nil, eris.Wrap(err, "notion: index existing leads")
		}
	} else {
		key = nil
	}

	outcomes := make([]importer.RowOutcome, 0, len(batch.Rows))
	for _, r := range batch.Rows {
		o := importer.RowOutcome{Row: r.Row}
		if err := ctx.Err(); err != nil {
			o.Status, o.Reason = importer.OutcomeFailed, err.Error()
			outcomes = append(outcomes, o)
			continue
		}

		props := db.properties(batch.Schema, r.Values)
		var lookup string
		if key != nil {
			lookup = normalizeKey(r.Values[key.ID])
		}

		var page *notionapi.Page
		if pageID := existing[lookup]; lookup != "" && pageID != "" {
			page, err = e.client.UpdatePage(ctx, pageID, props)
			o.Status = importer.OutcomeUpdated
		} else {
			page, err = e.client.CreatePage(ctx, e.dbID, props)
			o.Status = importer.OutcomeCreated
		}
		if err != nil {
			zap.L().Warn("notion: write lead failed",
				zap.String("database", e.dbID), zap.Int("row", r.Row), zap.Error(err))
			o.Status, o.Reason = importer.OutcomeFailed, err.Error()
			outcomes = append(outcomes, o)
			continue
		}
		if page != nil {
			o.RecordID = string(page.ID)
		}
		// Later rows with the same key update the page just created.
		if lookup != "" && o.RecordID != "" {
			if _, ok := existing[lookup]; !ok {
				existing[lookup] = o.RecordID
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// index maps the normalized value of property on every page to its page ID.
// The first page wins when values repeat.
func (e *LeadExecutor) index(ctx context.Context, property string) (map[string]string, error) {
	ids := map[string]string{}
	err := EachPage(ctx, e.client, e.dbID, nil, func(p notionapi.Page) error {
		prop, ok := p.Properties[property]
		if !ok {
			return nil
		}
		if v := normalizeKey(PropertyText(prop)); v != "" {
			if _, dup := ids[v]; !dup {
				ids[v] = string(p.ID)
			}
		}
		return nil
	})
	return ids, err
}

// unwritable lists the labels of mapped fields with no matching column.
func (db leadDB) unwritable(batch importer.Batch) []string {
	var out []string
	for _, m := range batch.Mappings {
		if m.TargetFieldID == nil {
			continue
		}
		f := batch.Schema.ByID(*m.TargetFieldID)
		if f != nil && f.Label != db.title && db.types[f.Label] == "" {
			out = append(out, f.Label)
		}
	}
	sort.Strings(out)
	return out
}

// properties converts one planned row into page properties. Values are
// typed by the database column; fields without a column are dropped.
func (db leadDB) properties(schema *model.Schema, values map[string]string) notionapi.Properties {
	props := make(notionapi.Properties, len(values)+1)
	for id, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		f := schema.ByID(id)
		if f == nil || f.Label == db.title {
			continue
		}
		if typ := db.types[f.Label]; typ != "" {
			props[f.Label] = property(typ, v)
		}
	}
	props[db.title] = titleProperty(displayName(values))
	return props
}

// titleColumn returns the name of the database's title property.
func titleColumn(types map[string]notionapi.PropertyConfigType) string {
	for name, t := range types {
		if t == notionapi.PropertyConfigTypeTitle {
			return name
		}
	}
	return ""
}

// displayName picks the page title: full name, then first and last name,
// then company, then email.
func displayName(values map[string]string) string {
	if v := strings.TrimSpace(values["name"]); v != "" {
		return v
	}
	if v := strings.TrimSpace(values["firstName"] + " " + values["lastName"]); v != "" {
		return v
	}
	if v := strings.TrimSpace(values["company"]); v != "" {
		return v
	}
	return strings.TrimSpace(values["email"])
}

// property builds a value for a column of type typ. Number and date values
// that do not parse are sent as rich text, which Notion rejects for that
// row alone.
func property(typ notionapi.PropertyConfigType, v string) notionapi.Property {
	switch typ {
	case notionapi.PropertyConfigTypeEmail:
		return notionapi.EmailProperty{Type: notionapi.PropertyTypeEmail, Email: v}
	case notionapi.PropertyConfigTypePhoneNumber:
		return notionapi.PhoneNumberProperty{Type: notionapi.PropertyTypePhoneNumber, PhoneNumber: v}
	case notionapi.PropertyConfigTypeURL:
		return notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: v}
	case notionapi.PropertyConfigTypeSelect:
		return notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: v}}
	case notionapi.PropertyConfigTypeNumber:
		clean := strings.NewReplacer(",", "", "$", "", " ", "").Replace(v)
		if n, err := strconv.ParseFloat(clean, 64); err == nil {
			return notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: n}
		}
	case notionapi.PropertyConfigTypeDate:
		if t, ok := transform.ParseDate(v); ok {
			return dateProperty(t)
		}
	}
	return textProperty(v)
}

func normalizeKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
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
