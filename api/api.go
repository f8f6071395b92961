// Package api exposes the form service over HTTP: document upload and
// retrieval, template inspection, and the active rule set.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formgrid/formgrid/form"
	"github.com/formgrid/formgrid/store"
)

// Server holds the HTTP handlers for the form service.
type Server struct {
	svc       *form.Service
	logger    *slog.Logger
	maxUpload int64
}

// Option customises a Server.
type Option func(*Server)

// WithMaxUpload caps the accepted multipart upload size in bytes
// (default: 50 MB).
func WithMaxUpload(n int64) Option { return func(s *Server) { s.maxUpload = n } }

// New creates an API server around a form service.
func New(svc *form.Service, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger, maxUpload: 50 * 1024 * 1024}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RegisterHTTP registers the API endpoints on a chi router.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Post("/api/documents", s.handleIngest)
	r.Get("/api/documents/{id}", s.handleRetrieve)
	r.Get("/api/templates", s.handleListTemplates)
	r.Get("/api/templates/{id}", s.handleGetTemplate)
	r.Get("/api/rules", s.handleRules)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})
}

// handleIngest accepts a multipart upload: a "file" part plus "kind" and
// "template_name" form values.
// POST /api/documents
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, 400, errors.New("invalid multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, errors.New("file part required"))
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	templateName := r.FormValue("template_name")
	if kind == "" || templateName == "" {
		writeError(w, 400, errors.New("kind and template_name required"))
		return
	}

	buf, err := io.ReadAll(file)
	if err != nil {
		writeError(w, 400, err)
		return
	}

	res, err := s.svc.Ingest(r.Context(), buf, header.Filename, kind, templateName)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, 201, res)
}

// GET /api/documents/{id}
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Retrieve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, 200, res)
}

// GET /api/templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Templates(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []store.TemplateSummary{}
	}
	writeJSON(w, 200, list)
}

// GET /api/templates/{id}
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.svc.Template(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, 200, tpl)
}

// GET /api/rules
func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, s.svc.Rules())
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, form.ErrNotFound):
		writeError(w, 404, err)
	case errors.Is(err, form.ErrBadKind),
		errors.Is(err, store.ErrValidation):
		writeError(w, 400, err)
	case errors.Is(err, store.ErrNoStructure):
		writeError(w, 422, err)
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, 500, errors.New("internal error"))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
