// Package transform applies per-column value transforms. Every function here
// is total: any input string yields an output string.
package transform

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/lead-importer/internal/model"
)

// DefaultJoinSeparator is used when a join transform sets no separator.
const DefaultJoinSeparator = " "

// Apply returns the transformed value of column in row. Transforms run in
// order: trim, case, split-name or join-columns, date reformat.
func Apply(spec *model.TransformSpec, column string, row map[string]string) string {
	v := row[column]
	if spec.IsZero() {
		return v
	}

	v = applyText(spec, v)

	switch {
	case spec.SplitName != model.NamePartNone:
		v = SplitName(v, spec.SplitName)
	case len(spec.JoinColumns) > 0:
		parts := make([]string, 0, len(spec.JoinColumns)+1)
		if v != "" {
			parts = append(parts, v)
		}
		for _, c := range spec.JoinColumns {
			if c == column {
				continue
			}
			if p := applyText(spec, row[c]); p != "" {
				parts = append(parts, p)
			}
		}
		sep := spec.JoinSeparator
		if sep == "" {
			sep = DefaultJoinSeparator
		}
		v = strings.Join(parts, sep)
	}

	if spec.DateFormat != "" {
		v = ReformatDate(v, spec.DateFormat)
	}
	return v
}

func applyText(spec *model.TransformSpec, v string) string {
	if spec.Trim {
		v = strings.TrimSpace(v)
	}
	return ChangeCase(v, spec.Case)
}

// ChangeCase converts v to the requested case.
func ChangeCase(v string, c model.CaseTransform) string {
	switch c {
	case model.CaseUpper:
		return cases.Upper(language.Und).String(v)
	case model.CaseLower:
		return cases.Lower(language.Und).String(v)
	case model.CaseTitle:
		return cases.Title(language.Und).String(v)
	default:
		return v
	}
}

// SplitName returns one part of a full name. "Last, First" input is
// recognised; otherwise the first word is the first name and the remaining
// words are the last name.
func SplitName(full string, part model.NamePart) string {
	full = strings.TrimSpace(full)
	var first, last string
	if i := strings.Index(full, ","); i >= 0 {
		last = strings.TrimSpace(full[:i])
		first = strings.TrimSpace(full[i+1:])
	} else {
		words := strings.Fields(full)
		if len(words) > 0 {
			first = words[0]
			last = strings.Join(words[1:], " ")
		}
	}
	switch part {
	case model.NamePartFirst:
		return first
	case model.NamePartLast:
		return last
	default:
		return full
	}
}

// Check reports spec problems that would make Apply ambiguous. headers is
// the set of columns in the file.
func Check(spec *model.TransformSpec, headers []string) error {
	if spec == nil {
		return nil
	}
	switch spec.Case {
	case model.CaseNone, model.CaseUpper, model.CaseLower, model.CaseTitle:
	default:
		return eris.Errorf("transform: unknown case %q", spec.Case)
	}
	switch spec.SplitName {
	case model.NamePartNone, model.NamePartFirst, model.NamePartLast:
	default:
		return eris.Errorf("transform: unknown name part %q", spec.SplitName)
	}
	if spec.SplitName != model.NamePartNone && len(spec.JoinColumns) > 0 {
		return eris.New("transform: split-name and join-columns cannot be combined")
	}
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for _, c := range spec.JoinColumns {
		if !known[c] {
			return eris.Errorf("transform: join column %q not in file", c)
		}
	}
	return nil
}
