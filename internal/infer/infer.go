// Package infer classifies column values into semantic data types.
package infer

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-importer/internal/model"
)

// DefaultSampleSize is the number of non-blank values kept per column.
const DefaultSampleSize = 50

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)

	// NANP with optional country code and separators, or E.164-style.
	nanpRe = regexp.MustCompile(`^(\+?\d{1,3}[\s.\-]?)?(\(\d{3}\)|\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}$`)
	intlRe = regexp.MustCompile(`^\+\d{1,3}([\s.\-]?\d{2,5}){2,5}$`)

	isoDateRe = regexp.MustCompile(`^\d{4}-(0?[1-9]|1[0-2])-(0?[1-9]|[12]\d|3[01])$`)
	usDateRe  = regexp.MustCompile(`^(0?[1-9]|1[0-2])/(0?[1-9]|[12]\d|3[01])/\d{4}$`)
	euDateRe  = regexp.MustCompile(`^(0?[1-9]|[12]\d|3[01])-(0?[1-9]|1[0-2])-\d{4}$`)

	numberRe = regexp.MustCompile(`^[-+]?(\d{1,3}(,\d{3})+|\d+)?(\.\d+)?$`)

	urlRe = regexp.MustCompile(`^(?i)(https?://)?(www\.)?[a-z0-9]([a-z0-9\-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9\-]*[a-z0-9])?)*\.[a-z]{2,}(:\d{1,5})?(/\S*)?$`)
)

type pattern struct {
	typ   model.DataType
	match func(string) bool
}

// patterns is evaluated in order; the first match on the probe value is the
// candidate type.
var patterns = []pattern{
	{model.TypeEmail, emailRe.MatchString},
	{model.TypePhone, isPhone},
	{model.TypeDate, isDate},
	{model.TypeNumber, isNumber},
	{model.TypeURL, urlRe.MatchString},
}

// Infer returns the data type of values. The first non-blank value is the
// probe; its first matching pattern is kept only if every non-blank value
// matches it too. Anything else is text.
func Infer(values []string) model.DataType {
	probe := ""
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			probe = v
			break
		}
	}
	if probe == "" {
		return model.TypeText
	}

	for _, p := range patterns {
		if !p.match(probe) {
			continue
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v != "" && !p.match(v) {
				return model.TypeText
			}
		}
		return p.typ
	}
	return model.TypeText
}

// Matches reports whether v is a well-formed value of type t. Text accepts
// anything.
func Matches(t model.DataType, v string) bool {
	v = strings.TrimSpace(v)
	for _, p := range patterns {
		if p.typ == t {
			return p.match(v)
		}
	}
	return true
}

// Columns builds the typed columns of a decoded table. At most sampleSize
// non-blank values are kept per column; sampleSize <= 0 uses
// DefaultSampleSize.
func Columns(t *model.Table, sampleSize int) []model.Column {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	cols := make([]model.Column, 0, len(t.Headers))
	for _, h := range t.Headers {
		samples := make([]string, 0, sampleSize)
		for _, row := range t.Rows {
			if len(samples) == sampleSize {
				break
			}
			if v := row.Get(h); v != "" {
				samples = append(samples, v)
			}
		}
		cols = append(cols, model.Column{
			Name:         h,
			SampleValues: samples,
			InferredType: Infer(samples),
			RowCount:     t.TotalRows,
		})
	}
	return cols
}

func isPhone(v string) bool {
	return nanpRe.MatchString(v) || intlRe.MatchString(v)
}

func isDate(v string) bool {
	return isoDateRe.MatchString(v) || usDateRe.MatchString(v) || euDateRe.MatchString(v)
}

func isNumber(v string) bool {
	if v == "" || v == "-" || v == "+" || v == "." {
		return false
	}
	return numberRe.MatchString(v) && strings.ContainsAny(v, "0123456789")
}
