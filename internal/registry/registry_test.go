package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/pkg/salesforce"
)

// fakeSF implements salesforce.Client with a canned describe response.
type fakeSF struct {
	desc *salesforce.ObjectDescription
	err  error
}

func (f *fakeSF) Query(context.Context, string, any) error { return nil }

func (f *fakeSF) Insert(context.Context, string, []map[string]any) ([]salesforce.CollectionResult, error) {
	return nil, nil
}

func (f *fakeSF) Update(context.Context, string, []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error) {
	return nil, nil
}

func (f *fakeSF) Describe(context.Context, string) (*salesforce.ObjectDescription, error) {
	return f.desc, f.err
}

func TestDefaultLeadSchema(t *testing.T) {
	s := DefaultLeadSchema()

	email := s.ByID("email")
	require.NotNil(t, email)
	assert.True(t, email.Required)
	assert.True(t, email.Unique)
	assert.Equal(t, []model.DataType{model.TypeEmail}, email.Accepts)

	var required []string
	for _, f := range s.Required() {
		required = append(required, f.ID)
	}
	assert.Equal(t, []string{"name", "email"}, required)

	pos := map[string]int{}
	for i, f := range s.Fields {
		pos[f.ID] = i
	}
	assert.Less(t, pos["company"], pos["name"])
}

func TestLoadFieldsFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	content := `fields:
  - id: email
    label: Work Email
    required: true
    unique: true
    accepts: [email]
  - id: customFields.budget
    label: Budget
    accepts: [number, currency]
    pattern: "^[0-9]+$"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fields, err := LoadFieldsFromFile(path)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "email", fields[0].ID)
	assert.Equal(t, model.Standard("email"), fields[0].Ref)
	assert.True(t, fields[0].Unique)

	assert.True(t, fields[1].Ref.IsCustom())
	assert.Equal(t, "budget", fields[1].Ref.Name)
	assert.Equal(t, []model.DataType{model.TypeNumber, model.TypeText}, fields[1].Accepts)
	assert.Equal(t, "^[0-9]+$", fields[1].Pattern)
}

func TestLoadFieldsFromFile_PatternKeptVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	content := `fields:
  - id: website
    label: Website
    accepts: [url]
    pattern: "^https?://"
  - id: customFields.sku
    label: SKU
    pattern: "^sd+$"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fields, err := LoadFieldsFromFile(path)
	require.NoError(t, err)
	s := model.NewSchema(fields)

	site := s.ByID("website")
	assert.Equal(t, "^https?://", site.Pattern)
	require.NotNil(t, site.PatternRegex)
	assert.True(t, site.PatternRegex.MatchString("https://acme.example.com"))

	sku := s.ByID("customFields.sku")
	assert.Equal(t, "^sd+$", sku.Pattern)
	assert.True(t, sku.PatternRegex.MatchString("sddd"))
}

func TestFixNotionRegex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{`^\d+$`, `^\d+$`},
		{"^d+$", `^\d+$`},
		{"^d{5}$", `^\d{5}$`},
		{"[a-d]", "[a-d]"},
		{"[ds]", `[\d\s]`},
		{"[()-+]", `[()\-+]`},
		{"[0-9]", "[0-9]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fixNotionRegex(tt.in), tt.in)
	}
}

func TestLoadFieldsFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.json")
	content := `{"fields": [{"id": "phone", "label": "Phone", "accepts": ["phone"]}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fields, err := LoadFieldsFromFile(path)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, []model.DataType{model.TypePhone}, fields[0].Accepts)
}

func TestLoadFieldsFromFile_Errors(t *testing.T) {
	_, err := LoadFieldsFromFile("/nonexistent/fields.yaml")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fields: [unclosed"), 0o644))
	_, err = LoadFieldsFromFile(bad)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty-id.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("fields:\n  - label: No ID\n"), 0o644))
	_, err = LoadFieldsFromFile(empty)
	assert.Error(t, err)
}

func TestLoadCustomFields(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()

	mc.On("Query", ctx, "cf-db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		pf, ok := req.Filter.(notionapi.PropertyFilter)
		return ok && pf.Property == "Status" && pf.Status != nil && pf.Status.Equals == "Active"
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			makeFieldPage("p1", "budget", "Budget", "number", false, false, "", "^d+$"),
			makeFieldPage("p2", "", "Broken", "text", false, false, "", ""),
			makeFieldPage("p3", "crm_id", "CRM ID", "text, number", true, true, "integration", ""),
		},
	}, nil).Once()

	fields, err := LoadCustomFields(ctx, mc, "cf-db")
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "customFields.budget", fields[0].ID)
	assert.Equal(t, "Budget", fields[0].Label)
	assert.Equal(t, "custom", fields[0].Category)
	assert.Equal(t, []model.DataType{model.TypeNumber}, fields[0].Accepts)

	assert.Equal(t, "customFields.crm_id", fields[1].ID)
	assert.True(t, fields[1].Required)
	assert.True(t, fields[1].Unique)
	assert.Equal(t, "integration", fields[1].Category)
	assert.Equal(t, []model.DataType{model.TypeText, model.TypeNumber}, fields[1].Accepts)

	assert.Equal(t, `^\d+$`, fields[0].Pattern)
	s := model.NewSchema(fields)
	require.NotNil(t, s.ByID("customFields.budget").PatternRegex)
	assert.True(t, s.ByID("customFields.budget").PatternRegex.MatchString("123"))
	mc.AssertExpectations(t)
}

func TestLoadCustomFields_QueryError(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()
	mc.On("Query", ctx, "cf-db", mock.Anything).Return(nil, assert.AnError).Once()

	_, err := LoadCustomFields(ctx, mc, "cf-db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry: load custom fields")
}

func TestLoad_MergesSources(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()
	mc.On("Query", mock.Anything, "cf-db", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{makeFieldPage("p1", "budget", "Budget", "number", false, false, "", "")},
	}, nil).Once()

	sf := &fakeSF{desc: &salesforce.ObjectDescription{
		Name: "Lead",
		Fields: []salesforce.ObjectField{
			{Name: "Rating", Label: "Rating", Type: "picklist", Createable: true, Nillable: true},
			{Name: "email", Label: "Duplicate", Type: "email", Createable: true, Nillable: true},
		},
	}}

	schema, err := Load(ctx, Sources{
		Builtin:       true,
		Salesforce:    sf,
		Notion:        mc,
		NotionFieldDB: "cf-db",
	})
	require.NoError(t, err)

	assert.Equal(t, len(DefaultLeadFields())+2, schema.Len())
	assert.NotNil(t, schema.ByID("Rating"))
	assert.NotNil(t, schema.ByID("customFields.budget"))
	assert.Equal(t, "Email", schema.ByID("email").Label, "earlier source wins")
	mc.AssertExpectations(t)
}

func TestLoad_SalesforceError(t *testing.T) {
	_, err := Load(context.Background(), Sources{
		Builtin:    true,
		Salesforce: &fakeSF{err: errors.New("INVALID_SESSION_ID")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry: load salesforce fields")
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(context.Background(), Sources{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target fields")
}

func makeFieldPage(id, key, label, dataType string, required, unique bool, category, validation string) notionapi.Page {
	props := make(notionapi.Properties)

	props["Key"] = &notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{{PlainText: key}},
	}
	props["Label"] = &notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{{PlainText: label}},
	}
	props["DataType"] = &notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: dataType},
	}
	props["Required"] = &notionapi.CheckboxProperty{
		Type:     notionapi.PropertyTypeCheckbox,
		Checkbox: required,
	}
	props["Unique"] = &notionapi.CheckboxProperty{
		Type:     notionapi.PropertyTypeCheckbox,
		Checkbox: unique,
	}
	if category != "" {
		props["Category"] = &notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: category},
		}
	}
	props["Validation"] = &notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{{PlainText: validation}},
	}
	props["Status"] = &notionapi.StatusProperty{
		Type:   notionapi.PropertyTypeStatus,
		Status: notionapi.Status{Name: "Active"},
	}

	return notionapi.Page{
		ID:         notionapi.ObjectID(id),
		Properties: props,
	}
}
