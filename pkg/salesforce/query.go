package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// lookupChunk bounds the IN list of one lookup query to stay under the SOQL
// length limit.
const lookupChunk = 100

// FindIDsByField returns the IDs of sObjectName records whose field equals
// one of values. Keys are the lower-cased field values.
func FindIDsByField(ctx context.Context, c Client, sObjectName, field string, values []string) (map[string]string, error) {
	ids := make(map[string]string, len(values))

	uniq := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		k := strings.ToLower(strings.TrimSpace(v))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, strings.TrimSpace(v))
	}

	for start := 0; start < len(uniq); start += lookupChunk {
		end := min(start+lookupChunk, len(uniq))
		soql := fmt.Sprintf("SELECT Id, %s FROM %s WHERE %s IN (%s)",
			field, sObjectName, field, soqlList(uniq[start:end]))

		var records []map[string]any
		if err := c.Query(ctx, soql, &records); err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("sf: find %s by %s", sObjectName, field))
		}
		for _, r := range records {
			id, _ := r["Id"].(string)
			v, _ := r[field].(string)
			k := strings.ToLower(v)
			if id == "" || k == "" {
				continue
			}
			if _, dup := ids[k]; !dup {
				ids[k] = id
			}
		}
	}
	return ids, nil
}

func soqlList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + escapeSoql(v) + "'"
	}
	return strings.Join(quoted, ", ")
}

// escapeSoql escapes backslashes and single quotes in SOQL string literals.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
