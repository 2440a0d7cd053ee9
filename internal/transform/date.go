package transform

import (
	"strings"
	"time"
)

// inputLayouts are tried in order when parsing a date for reformatting.
// Slash dates are read month-first, dash dates with a trailing year
// day-first.
var inputLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2-1-2006",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"01/02/06",
}

var tokenReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// Layout converts a token format such as "MM/DD/YYYY" to a Go time layout.
// Strings without tokens are returned unchanged and treated as Go layouts.
func Layout(format string) string {
	return tokenReplacer.Replace(format)
}

// ParseDate parses v with the known input layouts.
func ParseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range inputLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReformatDate renders v in format. Values that do not parse as a date are
// returned unchanged.
func ReformatDate(v, format string) string {
	t, ok := ParseDate(v)
	if !ok {
		return v
	}
	return t.Format(Layout(format))
}
