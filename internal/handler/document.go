package handler

import (
	"log/slog"
	"net/http"
	"time"

	"pagecraft/internal/domain/models"
	"pagecraft/internal/httputil"
	"pagecraft/internal/service"
)

// DocumentHandler handles document HTTP requests for both kinds. Routes are
// registered twice, once per kind, with the kind bound at registration:
//
//	mux.HandleFunc("GET /api/projects", h.List(models.KindProject))
//	mux.HandleFunc("GET /api/templates", h.List(models.KindTemplate))
type DocumentHandler struct {
	docService *service.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService *service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// List retrieves all documents of the kind
// GET /api/projects | GET /api/templates
func (h *DocumentHandler) List(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := h.docService.List(r.Context(), kind)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		if docs == nil {
			docs = []models.Document{}
		}
		httputil.RespondJSON(w, http.StatusOK, docs)
	}
}

// Create creates a new document
// POST /api/projects | POST /api/templates
func (h *DocumentHandler) Create(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.CreateDocumentRequest
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		doc, err := h.docService.Create(r.Context(), kind, &req)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusCreated, doc)
	}
}

// Get retrieves a document by ID
// GET /api/projects/{id} | GET /api/templates/{id}
func (h *DocumentHandler) Get(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.docService.Get(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, doc)
	}
}

// GetElements retrieves a document's persisted element sequence
// GET /api/projects/{id}/elements | GET /api/templates/{id}/elements
func (h *DocumentHandler) GetElements(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		elements, err := h.docService.GetElements(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		if elements == nil {
			elements = []models.Element{}
		}
		httputil.RespondJSON(w, http.StatusOK, elements)
	}
}

// Update applies a partial metadata update
// PATCH /api/projects/{id} | PATCH /api/templates/{id}
func (h *DocumentHandler) Update(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch models.DocumentPatch
		if err := httputil.ParseJSON(w, r, &patch); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		doc, err := h.docService.Update(r.Context(), kind, r.PathValue("id"), &patch)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, doc)
	}
}

// Publish moves a document to published status
// POST /api/projects/{id}/publish | POST /api/templates/{id}/publish
func (h *DocumentHandler) Publish(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.docService.Publish(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, doc)
	}
}

// Unpublish moves a document back to draft status
// POST /api/projects/{id}/unpublish | POST /api/templates/{id}/unpublish
func (h *DocumentHandler) Unpublish(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.docService.Unpublish(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, doc)
	}
}

// Delete removes a document and its elements
// DELETE /api/projects/{id} | DELETE /api/templates/{id}
func (h *DocumentHandler) Delete(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.docService.Delete(r.Context(), kind, r.PathValue("id")); err != nil {
			handleError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now(),
	})
}
