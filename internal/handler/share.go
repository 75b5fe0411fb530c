package handler

import (
	"log/slog"
	"net/http"

	"pagecraft/internal/domain/models"
	"pagecraft/internal/httputil"
	"pagecraft/internal/service"
	"pagecraft/internal/share"
)

// ShareHandler handles share-credential HTTP requests: issuing, updating and
// revoking credentials for document owners, and resolving public slugs and
// tokens for anonymous rendering.
type ShareHandler struct {
	issuer     *share.Issuer
	docService *service.DocumentService
	logger     *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(issuer *share.Issuer, docService *service.DocumentService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		issuer:     issuer,
		docService: docService,
		logger:     logger,
	}
}

type issueShareRequest struct {
	CustomName string `json:"custom_name"`
	ExpiryDays *int   `json:"expiry_days,omitempty"`
}

type updateShareRequest struct {
	CustomName *string `json:"custom_name,omitempty"`
	ExpiryDays *int    `json:"expiry_days,omitempty"` // nil = unchanged, 0 = never expires
}

// Issue mints (or rotates) the document's share credential
// POST /api/projects/{id}/share | POST /api/templates/{id}/share
func (h *ShareHandler) Issue(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req issueShareRequest
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		record, err := h.issuer.Issue(r.Context(), kind, r.PathValue("id"), req.CustomName, req.ExpiryDays)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusCreated, record)
	}
}

// Get reads the document's current share credential
// GET /api/projects/{id}/share | GET /api/templates/{id}/share
func (h *ShareHandler) Get(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.docService.Get(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		if doc.Share == nil {
			httputil.RespondError(w, http.StatusNotFound, "document is not shared")
			return
		}
		httputil.RespondJSON(w, http.StatusOK, doc.Share)
	}
}

// Update rewrites parts of an existing credential
// PATCH /api/projects/{id}/share | PATCH /api/templates/{id}/share
func (h *ShareHandler) Update(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateShareRequest
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		record, err := h.issuer.Update(r.Context(), kind, r.PathValue("id"), req.CustomName, req.ExpiryDays)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, record)
	}
}

// Revoke clears the document's share credential (idempotent)
// DELETE /api/projects/{id}/share | DELETE /api/templates/{id}/share
func (h *ShareHandler) Revoke(kind models.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.issuer.Revoke(r.Context(), kind, r.PathValue("id")); err != nil {
			handleError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// sharedPageResponse is the anonymous-rendering payload: document metadata
// plus its full element sequence.
type sharedPageResponse struct {
	Document *models.Document `json:"document"`
	Elements []models.Element `json:"elements"`
}

// ResolveSlug resolves the canonical public share URL
// GET /share/{slug}
func (h *ShareHandler) ResolveSlug(w http.ResponseWriter, r *http.Request) {
	doc, err := h.issuer.ResolveBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.respondSharedPage(w, r, doc)
}

// ResolveToken resolves the token fallback URL. When the credential carries
// a slug the response redirects to the canonical slug form; the token stays
// valid as a fallback identifier.
// GET /share/token/{token}
func (h *ShareHandler) ResolveToken(w http.ResponseWriter, r *http.Request) {
	doc, err := h.issuer.ResolveByToken(r.Context(), r.PathValue("token"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if doc.Share != nil && doc.Share.Slug != "" {
		http.Redirect(w, r, "/share/"+doc.Share.Slug, http.StatusFound)
		return
	}
	h.respondSharedPage(w, r, doc)
}

func (h *ShareHandler) respondSharedPage(w http.ResponseWriter, r *http.Request, doc *models.Document) {
	elements, err := h.docService.GetElements(r.Context(), doc.Kind, doc.ID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if elements == nil {
		elements = []models.Element{}
	}
	httputil.RespondJSON(w, http.StatusOK, sharedPageResponse{
		Document: doc,
		Elements: elements,
	})
}
