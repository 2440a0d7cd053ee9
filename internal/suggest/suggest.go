// Package suggest proposes a target field for each source column.
package suggest

import (
	"sort"
	"strings"

	"github.com/sells-group/lead-importer/internal/model"
)

// rule is one step of the suggestion cascade. match returns the reason text
// when the column/field pair qualifies.
type rule struct {
	confidence model.Confidence
	match      func(col *column, f *field) (string, bool)
}

// rules is evaluated top to bottom for every column/field pair; the first
// satisfied rule sets the pair's confidence. The order matches
// model.Suggestion.Rank.
var rules = []rule{
	{model.ConfidenceHigh, exactName},
	{model.ConfidenceHigh, partialName},
	{model.ConfidenceHigh, similarName},
	{model.ConfidenceMedium, typeMatch},
	{model.ConfidenceMedium, synonymMatch},
}

// column and field carry each name twice: lower-cased for the exact and
// partial rules, and normalized into words for the others.
type column struct {
	src   *model.Column
	lower string
	name  string
}

type field struct {
	src    *model.TargetField
	lowers []string
	label  string
	id     string
}

// Candidate is one qualifying column/field pair.
type Candidate struct {
	model.Suggestion
	rule  int
	field int
}

// Suggest returns the best target for every column that has one. Columns
// with no qualifying field are absent from the result. The result depends
// only on the arguments.
func Suggest(columns []model.Column, schema *model.Schema) map[string]model.Suggestion {
	fields := prepareFields(schema)
	out := make(map[string]model.Suggestion, len(columns))
	for i := range columns {
		cands := candidates(&columns[i], fields)
		if len(cands) > 0 {
			out[columns[i].Name] = cands[0].Suggestion
		}
	}
	return out
}

// Candidates returns every qualifying field for col, best first: higher
// confidence, then earlier rule, then schema order.
func Candidates(col model.Column, schema *model.Schema) []model.Suggestion {
	cands := candidates(&col, prepareFields(schema))
	out := make([]model.Suggestion, len(cands))
	for i, c := range cands {
		out[i] = c.Suggestion
	}
	return out
}

func candidates(col *model.Column, fields []field) []Candidate {
	c := column{src: col, lower: lower(col.Name), name: normalize(col.Name)}

	var out []Candidate
	for fi := range fields {
		f := &fields[fi]
		for ri, r := range rules {
			reason, ok := r.match(&c, f)
			if !ok {
				continue
			}
			out = append(out, Candidate{
				Suggestion: model.Suggestion{
					TargetFieldID: f.src.ID,
					Confidence:    r.confidence,
					Reason:        reason,
				},
				rule:  ri,
				field: fi,
			})
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].rule != out[j].rule {
			return out[i].rule < out[j].rule
		}
		return out[i].field < out[j].field
	})
	return out
}

func prepareFields(schema *model.Schema) []field {
	if schema == nil {
		return nil
	}
	fields := make([]field, len(schema.Fields))
	for i := range schema.Fields {
		f := &schema.Fields[i]
		fields[i] = field{
			src:    f,
			lowers: nonEmpty(lower(f.Label), lower(f.Ref.Name)),
			label:  normalize(f.Label),
			id:     normalize(f.Ref.Name),
		}
	}
	return fields
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func nonEmpty(names ...string) []string {
	out := names[:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// exactName is case-insensitive equality with the label or API name.
func exactName(c *column, f *field) (string, bool) {
	if c.lower == "" {
		return "", false
	}
	for _, target := range f.lowers {
		if c.lower == target {
			return model.ReasonExactName, true
		}
	}
	return "", false
}

// partialName is case-insensitive substring containment in either
// direction, so "Phonenumber" and "Telephone" both reach "Phone".
func partialName(c *column, f *field) (string, bool) {
	if c.lower == "" {
		return "", false
	}
	for _, target := range f.lowers {
		if strings.Contains(c.lower, target) || strings.Contains(target, c.lower) {
			return model.ReasonPartialName, true
		}
	}
	return "", false
}

// similarName compares normalized words, catching separator, camelCase and
// plural differences such as "job_title" for "Job Title".
func similarName(c *column, f *field) (string, bool) {
	if c.name == "" {
		return "", false
	}
	for _, target := range []string{f.label, f.id} {
		if target == "" {
			continue
		}
		if containsWords(c.name, target) || containsWords(target, c.name) {
			return model.ReasonSimilarName, true
		}
	}
	return "", false
}

func typeMatch(c *column, f *field) (string, bool) {
	if f.src.AcceptsType(c.src.InferredType) {
		return model.ReasonTypePrefix + string(c.src.InferredType), true
	}
	return "", false
}

func synonymMatch(c *column, f *field) (string, bool) {
	for _, s := range synonyms {
		if !containsWords(f.label, s.canonical) && !containsWords(f.id, s.canonical) {
			continue
		}
		for _, alias := range s.aliases {
			if containsWords(c.name, alias) {
				return model.ReasonSynonymPrefix + alias, true
			}
		}
	}
	return "", false
}
