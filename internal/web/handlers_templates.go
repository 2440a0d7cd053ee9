package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/store"
)

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "template store not configured")
		return false
	}
	return true
}

// handleListTemplates returns all saved templates, or the templates
// matching repeated ?header= values when given.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	if headers := r.URL.Query()["header"]; len(headers) > 0 {
		threshold := store.DefaultMatchThreshold
		if v := r.URL.Query().Get("threshold"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 || f > 1 {
				writeError(w, http.StatusBadRequest, "threshold must be in (0, 1]")
				return
			}
			threshold = f
		}
		matches, err := s.store.MatchTemplates(r.Context(), headers, threshold)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, matches)
		return
	}

	templates, err := s.store.ListTemplates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	t, err := s.store.GetTemplate(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handlePutTemplate creates or replaces the named template. Field IDs are
// checked against the schema; unknown targets are rejected.
func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "name")

	var t model.ImportTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(t.Mapping) == 0 {
		writeError(w, http.StatusBadRequest, "mapping is required")
		return
	}

	schema := s.svc.Schema()
	for col, m := range t.Mapping {
		if m.TargetFieldID != nil && schema.ByID(*m.TargetFieldID) == nil {
			writeError(w, http.StatusBadRequest, "unknown target field "+strconv.Quote(*m.TargetFieldID)+" for column "+strconv.Quote(col))
			return
		}
		m.SourceColumnName = col
		m.Source = model.SourceTemplate
		m.Status = model.StatusMapped
		t.Mapping[col] = m
	}

	now := time.Now().UTC()
	t.Name = name
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if len(t.Headers) == 0 {
		for col := range t.Mapping {
			t.Headers = append(t.Headers, col)
		}
	}

	if err := s.store.SaveTemplate(r.Context(), &t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.DeleteTemplate(r.Context(), chi.URLParam(r, "name")); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query()
	filter := store.ImportFilter{TemplateName: q.Get("template")}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, key+" must be a non-negative integer")
				return
			}
			*dst = n
		}
	}

	runs, err := s.store.ListImports(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
