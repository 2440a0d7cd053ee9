// Package store persists import templates and import history.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-importer/internal/model"
)

// ErrNotFound is returned (wrapped) when a named template does not exist.
var ErrNotFound = eris.New("store: not found")

// DefaultMatchThreshold is the minimum header overlap for a template to be
// offered for a file.
const DefaultMatchThreshold = 0.7

// ImportFilter specifies criteria for listing import runs.
type ImportFilter struct {
	TemplateName string `json:"template_name,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// TemplateMatch is a saved template scored against a file's headers.
type TemplateMatch struct {
	Template model.ImportTemplate `json:"template"`
	Score    float64              `json:"score"`
}

// Store defines the persistence interface for templates and import runs.
type Store interface {
	// Templates
	SaveTemplate(ctx context.Context, t *model.ImportTemplate) error
	GetTemplate(ctx context.Context, name string) (*model.ImportTemplate, error)
	ListTemplates(ctx context.Context) ([]model.ImportTemplate, error)
	DeleteTemplate(ctx context.Context, name string) error
	TouchTemplate(ctx context.Context, name string) error
	MatchTemplates(ctx context.Context, headers []string, threshold float64) ([]TemplateMatch, error)

	// Import history
	RecordImport(ctx context.Context, run *model.ImportRun) error
	ListImports(ctx context.Context, filter ImportFilter) ([]model.ImportRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// MatchScore is the fraction of the template's headers present in headers,
// compared case-insensitively.
func MatchScore(templateHeaders, headers []string) float64 {
	if len(templateHeaders) == 0 {
		return 0
	}
	have := make(map[string]bool, len(headers))
	for _, h := range headers {
		have[strings.ToLower(strings.TrimSpace(h))] = true
	}
	matched := 0
	for _, h := range templateHeaders {
		if have[strings.ToLower(strings.TrimSpace(h))] {
			matched++
		}
	}
	return float64(matched) / float64(len(templateHeaders))
}

// matchTemplates scores templates against headers and keeps those at or
// above threshold, best first. Equal scores prefer the more used template.
func matchTemplates(templates []model.ImportTemplate, headers []string, threshold float64) []TemplateMatch {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	var matches []TemplateMatch
	for _, t := range templates {
		if score := MatchScore(t.Headers, headers); score >= threshold {
			matches = append(matches, TemplateMatch{Template: t, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Template.UseCount > matches[j].Template.UseCount
	})
	return matches
}

func validateTemplate(t *model.ImportTemplate) error {
	if t == nil || strings.TrimSpace(t.Name) == "" {
		return eris.New("store: template name is required")
	}
	return nil
}

func pageLimit(f ImportFilter) int {
	if f.Limit <= 0 {
		return 50
	}
	return f.Limit
}
