package suggest

// synonym ties header words to a canonical label word. Aliases are stored in
// normalized form.
type synonym struct {
	canonical string
	aliases   []string
}

var synonyms = []synonym{
	{"email", []string{"e mail", "mail", "email address", "emailaddress"}},
	{"phone", []string{"mobile", "cell", "cellphone", "phone number", "tel", "telephone", "fax", "contact number"}},
	{"first name", []string{"fname", "first", "given name", "forename", "firstname"}},
	{"last name", []string{"lname", "last", "surname", "family name", "lastname"}},
	{"name", []string{"contact", "full name", "fullname", "person", "lead"}},
	{"company", []string{"organization", "organisation", "org", "employer", "business", "account", "firm"}},
	{"job title", []string{"title", "position", "role", "designation"}},
	{"website", []string{"url", "web", "site", "homepage", "domain"}},
	{"lead source", []string{"source", "channel", "origin", "campaign", "utm source"}},
	{"note", []string{"comment", "description", "remark", "memo"}},
	{"annual revenue", []string{"revenue", "turnover", "sale"}},
	{"last contacted", []string{"last contact", "contacted", "last activity", "last touch"}},
	{"zip", []string{"postal code", "postcode", "zipcode", "post code"}},
	{"city", []string{"town", "locality"}},
	{"state", []string{"province", "region"}},
	{"country", []string{"nation", "country code"}},
}
