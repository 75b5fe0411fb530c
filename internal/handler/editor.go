package handler

import (
	"log/slog"
	"net/http"

	"pagecraft/internal/domain/models"
	"pagecraft/internal/editor"
	"pagecraft/internal/httputil"
)

// editorIDHeader identifies the logical editor driving a session. Set by the
// frontend per browser tab; authentication of the editor is an external
// concern and happens before requests reach this handler.
const editorIDHeader = "X-Editor-ID"

// EditorHandler exposes the document session over HTTP: open/switch,
// element mutations, undo/redo, flush and clear. Each (editor, kind) pair
// gets its own session from the registry, so two tabs never share tree
// state.
type EditorHandler struct {
	registry *editor.Registry
	logger   *slog.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(registry *editor.Registry, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{
		registry: registry,
		logger:   logger,
	}
}

type openRequest struct {
	Kind       models.DocumentKind `json:"kind"`
	DocumentID string              `json:"document_id"`
}

// sessionState is the editor's view of the open session.
type sessionState struct {
	DocumentID string           `json:"document_id"`
	Elements   []models.Element `json:"elements"`
	Selected   *string          `json:"selected_id"`
	CanUndo    bool             `json:"can_undo"`
	CanRedo    bool             `json:"can_redo"`
	Dirty      bool             `json:"dirty"`
}

// Open switches the editor's session to a document
// POST /api/editor/open
func (h *EditorHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document_id is required")
		return
	}

	sess, ok := h.session(w, r, req.Kind)
	if !ok {
		return
	}
	if err := sess.Open(r.Context(), req.DocumentID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.respondState(w, sess)
}

// State returns the current session state
// GET /api/editor/{kind}/state
func (h *EditorHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	h.respondState(w, sess)
}

// AddElement appends a new element to the open document
// POST /api/editor/{kind}/elements
func (h *EditorHandler) AddElement(w http.ResponseWriter, r *http.Request) {
	var el models.Element
	if err := httputil.ParseJSON(w, r, &el); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if el.ID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "element id is required")
		return
	}

	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	if err := sess.AddElement(el); err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, el)
}

// UpdateElement applies a partial element update. The default is the
// permissive upsert the editor's paste/restore flows rely on; ?strict=true
// makes a missing id a 404 instead of a silent create.
// PATCH /api/editor/{kind}/elements/{id}
func (h *EditorHandler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	var patch models.ElementPatch
	if err := httputil.ParseJSON(w, r, &patch); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if r.URL.Query().Get("strict") == "true" {
		el, err := sess.UpdateElement(id, &patch)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, el)
		return
	}

	el, err := sess.UpsertElement(id, &patch)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, el)
}

// DeleteElement removes an element; a missing id is a no-op
// DELETE /api/editor/{kind}/elements/{id}
func (h *EditorHandler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	deleted := sess.DeleteElement(r.PathValue("id"))
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// Children lists child elements of a parent, or roots when parent is empty
// GET /api/editor/{kind}/elements?parent={id}
func (h *EditorHandler) Children(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}

	var elements []models.Element
	if parent := r.URL.Query().Get("parent"); parent != "" {
		elements = sess.Children(parent)
	} else {
		elements = sess.Roots()
	}
	if elements == nil {
		elements = []models.Element{}
	}
	httputil.RespondJSON(w, http.StatusOK, elements)
}

// Select marks an element as selected; an empty id clears the selection
// POST /api/editor/{kind}/select
func (h *EditorHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	sess.Select(req.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Undo steps the session back one history entry
// POST /api/editor/{kind}/undo
func (h *EditorHandler) Undo(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	sess.Undo() // no-op at the initial snapshot, reported via state
	h.respondState(w, sess)
}

// Redo steps the session forward one history entry
// POST /api/editor/{kind}/redo
func (h *EditorHandler) Redo(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	sess.Redo()
	h.respondState(w, sess)
}

// Flush persists pending mutations immediately
// POST /api/editor/{kind}/flush
func (h *EditorHandler) Flush(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	if err := sess.Flush(r.Context()); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear empties the open document's tree and persisted elements
// POST /api/editor/{kind}/clear
func (h *EditorHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	if err := sess.Clear(r.Context()); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.respondState(w, sess)
}

func (h *EditorHandler) respondState(w http.ResponseWriter, sess *editor.Session) {
	elements := sess.Elements()
	if elements == nil {
		elements = []models.Element{}
	}
	httputil.RespondJSON(w, http.StatusOK, sessionState{
		DocumentID: sess.DocumentID(),
		Elements:   elements,
		Selected:   sess.Selected(),
		CanUndo:    sess.CanUndo(),
		CanRedo:    sess.CanRedo(),
		Dirty:      sess.Dirty(),
	})
}

func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request, kind models.DocumentKind) (*editor.Session, bool) {
	editorID := r.Header.Get(editorIDHeader)
	if editorID == "" {
		httputil.RespondError(w, http.StatusBadRequest, editorIDHeader+" header is required")
		return nil, false
	}

	sess, err := h.registry.Session(editorID, kind)
	if err != nil {
		handleError(w, h.logger, err)
		return nil, false
	}
	return sess, true
}

func (h *EditorHandler) sessionFromPath(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	kind := models.DocumentKind(r.PathValue("kind"))
	if kind != models.KindProject && kind != models.KindTemplate {
		httputil.RespondError(w, http.StatusBadRequest, "unknown document kind")
		return nil, false
	}
	return h.session(w, r, kind)
}
