package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sells-group/lead-importer/internal/importer"
	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/service"
	"github.com/sells-group/lead-importer/internal/tabular"
)

// Uploads are multipart forms with a "file" part or a "location" field
// naming a remote file, plus an optional "request" field holding the JSON
// request body.

// loadUpload decodes the uploaded table and unmarshals the request field
// into req. It writes the error response itself and returns false on
// failure.
func (s *Server) loadUpload(w http.ResponseWriter, r *http.Request, req any) (*model.Table, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return nil, "", false
	}

	if raw := r.FormValue("request"); raw != "" {
		if err := json.Unmarshal([]byte(raw), req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request field")
			return nil, "", false
		}
	}

	var (
		name  string
		table *model.Table
		err   error
	)
	if f, hdr, ferr := r.FormFile("file"); ferr == nil {
		defer f.Close() //nolint:errcheck
		name = hdr.Filename
		table, err = tabular.Decode(name, f)
	} else if loc := strings.TrimSpace(r.FormValue("location")); loc != "" {
		if s.opener == nil || !strings.Contains(loc, "://") {
			writeError(w, http.StatusBadRequest, "location must be an http(s) or ftp url")
			return nil, "", false
		}
		file, oerr := s.opener.Open(r.Context(), loc)
		if oerr != nil {
			writeError(w, http.StatusBadGateway, oerr.Error())
			return nil, "", false
		}
		defer file.Body.Close() //nolint:errcheck
		name = file.Name
		table, err = tabular.Decode(name, file.Body)
	} else {
		writeError(w, http.StatusBadRequest, "file or location is required")
		return nil, "", false
	}

	if err != nil {
		writeError(w, decodeStatus(err), err.Error())
		return nil, "", false
	}
	return table, name, true
}

func decodeStatus(err error) int {
	var unsupported *model.UnsupportedFormatError
	var empty *model.EmptyInputError
	switch {
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &empty):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req service.Request
	table, name, ok := s.loadUpload(w, r, &req)
	if !ok {
		return
	}

	a, err := s.svc.Analyze(r.Context(), table, req)
	if err != nil {
		writeError(w, serviceStatus(err), err.Error())
		return
	}
	a.File = name
	writeJSON(w, http.StatusOK, a)
}

// previewResponse is the slice of an analysis shown while editing.
type previewResponse struct {
	Mappings   []model.FieldMapping   `json:"mappings"`
	Validation model.ValidationReport `json:"validation"`
	Preview    []model.RowPreview     `json:"preview"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req service.Request
	table, _, ok := s.loadUpload(w, r, &req)
	if !ok {
		return
	}

	a, err := s.svc.Analyze(r.Context(), table, req)
	if err != nil {
		writeError(w, serviceStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{
		Mappings:   a.Mappings,
		Validation: a.Validation,
		Preview:    a.Preview,
	})
}

type importResponse struct {
	Result   *model.ImportResult `json:"result,omitempty"`
	Analysis *service.Analysis   `json:"analysis,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req service.ImportRequest
	table, name, ok := s.loadUpload(w, r, &req)
	if !ok {
		return
	}
	if req.FileName == "" {
		req.FileName = name
	}
	if req.Executor == "" {
		req.Executor = "none"
	}

	res, a, err := s.svc.Import(r.Context(), table, req)
	switch {
	case errors.Is(err, importer.ErrMappingInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, importResponse{Analysis: a, Error: err.Error()})
	case err != nil && res != nil:
		// Committed, but history or template bookkeeping failed.
		writeJSON(w, http.StatusOK, importResponse{Result: res, Analysis: a, Error: err.Error()})
	case err != nil:
		writeError(w, serviceStatus(err), err.Error())
	default:
		writeJSON(w, http.StatusOK, importResponse{Result: res, Analysis: a})
	}
}

func serviceStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownExecutor):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoStore):
		return http.StatusServiceUnavailable
	case isNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
