package registry

import "github.com/sells-group/lead-importer/internal/model"

var (
	text  = []model.DataType{model.TypeText}
	email = []model.DataType{model.TypeEmail}
	phone = []model.DataType{model.TypePhone}
	url   = []model.DataType{model.TypeURL, model.TypeText}
	num   = []model.DataType{model.TypeNumber}
)

// DefaultLeadFields returns the standard lead attributes. Order matters: the
// suggestion engine breaks ties on schema order, so company precedes name.
func DefaultLeadFields() []model.TargetField {
	return []model.TargetField{
		{ID: "firstName", Label: "First Name", Accepts: text, Category: "contact"},
		{ID: "lastName", Label: "Last Name", Accepts: text, Category: "contact"},
		{ID: "company", Label: "Company", Accepts: text, Category: "company"},
		{ID: "name", Label: "Full Name", Required: true, Accepts: text, Category: "contact"},
		{ID: "email", Label: "Email", Required: true, Unique: true, Accepts: email, Category: "contact"},
		{ID: "phone", Label: "Phone", Accepts: phone, Category: "contact"},
		{ID: "mobilePhone", Label: "Mobile Phone", Accepts: phone, Category: "contact"},
		{ID: "jobTitle", Label: "Job Title", Accepts: text, Category: "contact"},
		{ID: "website", Label: "Website", Accepts: url, Category: "company"},
		{ID: "leadSource", Label: "Lead Source", Accepts: text, Category: "lead"},
		{ID: "industry", Label: "Industry", Accepts: text, Category: "company"},
		{ID: "annualRevenue", Label: "Annual Revenue", Accepts: num, Category: "company"},
		{ID: "employees", Label: "Employees", Accepts: num, Category: "company"},
		{ID: "street", Label: "Street", Accepts: text, Category: "address"},
		{ID: "city", Label: "City", Accepts: text, Category: "address"},
		{ID: "state", Label: "State", Accepts: text, Category: "address"},
		{ID: "postalCode", Label: "Postal Code", Accepts: text, Category: "address"},
		{ID: "country", Label: "Country", Accepts: text, Category: "address"},
		{ID: "notes", Label: "Notes", Accepts: text, Category: "lead"},
	}
}

// DefaultLeadSchema returns the standard lead attributes as a Schema.
func DefaultLeadSchema() *model.Schema {
	return model.NewSchema(DefaultLeadFields())
}
