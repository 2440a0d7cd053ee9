package registry

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/pkg/notion"
)

// LoadCustomFields queries the Notion custom-field database for all active
// field definitions. Each page becomes a custom target field whose ID is
// customFields.<Key>.
func LoadCustomFields(ctx context.Context, client notion.Client, dbID string) ([]model.TargetField, error) {
	pages, err := notion.QueryByStatus(ctx, client, dbID, "Active")
	if err != nil {
		return nil, eris.Wrap(err, "registry: load custom fields")
	}

	var fields []model.TargetField
	for _, p := range pages {
		f, err := parseFieldPage(p)
		if err != nil {
			zap.L().Warn("registry: skipping malformed field page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseFieldPage(p notionapi.Page) (model.TargetField, error) {
	var f model.TargetField

	var key string
	if prop, ok := p.Properties["Key"]; ok {
		key = strings.TrimSpace(notion.PropertyText(prop))
	}
	if key == "" {
		return f, eris.New("missing Key property")
	}
	f.Ref = model.Custom(key)
	f.ID = f.Ref.String()

	if prop, ok := p.Properties["Label"]; ok {
		f.Label = notion.PropertyText(prop)
	}

	// DataType (select) may hold a comma-separated list.
	if prop, ok := p.Properties["DataType"]; ok {
		for _, t := range strings.Split(notion.PropertyText(prop), ",") {
			if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
				f.Accepts = append(f.Accepts, model.ParseDataType(t))
			}
		}
	}

	if prop, ok := p.Properties["Required"]; ok {
		if cp, ok := prop.(*notionapi.CheckboxProperty); ok {
			f.Required = cp.Checkbox
		}
	}
	if prop, ok := p.Properties["Unique"]; ok {
		if cp, ok := prop.(*notionapi.CheckboxProperty); ok {
			f.Unique = cp.Checkbox
		}
	}

	f.Category = "custom"
	if prop, ok := p.Properties["Category"]; ok {
		if c := notion.PropertyText(prop); c != "" {
			f.Category = c
		}
	}

	if prop, ok := p.Properties["Validation"]; ok {
		f.Pattern = fixNotionRegex(notion.PropertyText(prop))
	}

	return f, nil
}

// fixNotionRegex restores backslash-escaped regex shorthand classes that
// Notion's RichText PlainText strips. For example, \d becomes d, \s becomes s.
// This function restores them when they appear inside character classes [...]
// or before quantifiers {n}, +, *, ?.
func fixNotionRegex(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsAny(s, "\\") {
		return s
	}
	var buf strings.Builder
	buf.Grow(len(s) + 8)
	inCharClass := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '[' {
			inCharClass = true
			buf.WriteByte(c)
			continue
		}
		if c == ']' && inCharClass {
			inCharClass = false
			buf.WriteByte(c)
			continue
		}
		restore := false
		if c == 'd' || c == 's' || c == 'w' {
			if inCharClass {
				// Keep ranges like a-d intact.
				if i == 0 || s[i-1] != '-' {
					restore = true
				}
			} else if i+1 < len(s) {
				next := s[i+1]
				if next == '{' || next == '+' || next == '*' || next == '?' {
					restore = true
				}
			}
		}
		// A stripped \- between symbols would otherwise parse as a range.
		if c == '-' && inCharClass && i > 0 && i+1 < len(s) && s[i+1] != ']' && s[i-1] != '[' {
			prev, next := s[i-1], s[i+1]
			isAlphaNum := func(b byte) bool {
				return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
			}
			if !isAlphaNum(prev) || !isAlphaNum(next) {
				buf.WriteByte('\\')
			}
		}
		if restore {
			buf.WriteByte('\\')
		}
		buf.WriteByte(c)
	}
	return buf.String()
}
