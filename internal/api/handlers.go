package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	sess *session.Session
	db   *index.DB
	// shutdown is invoked (asynchronously) after the close flow answers
	// proceed: the process is the session, so proceeding means exiting.
	shutdown func()
}

// NewHandler creates a new Handler.
func NewHandler(sess *session.Session, db *index.DB, shutdown func()) *Handler {
	if shutdown == nil {
		shutdown = func() {}
	}
	return &Handler{sess: sess, db: db, shutdown: shutdown}
}

// itemName extracts the item name from the URL, decoding percent escapes
// (item names may contain spaces).
func itemName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func writeItemError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrNotOpen):
		writeJSON(w, http.StatusConflict, errorBody("item not open"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// SessionStatus handles GET /api/session.
func (h *Handler) SessionStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Status())
}

// Save handles POST /api/session/save. The optional path in the body is
// the answer an untitled session's save-as prompt would collect; omitting
// it represents a dismissed prompt.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	prompt := session.NoPath()
	if req.Path != "" {
		prompt = session.FixedPath(req.Path)
	}

	out := h.sess.Save(prompt)
	body := map[string]any{"status": out.Status.String()}
	switch out.Status {
	case session.SaveFailed:
		if out.Err != nil {
			body["error"] = out.Err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
	default:
		// Cancelled is not an error: the session is simply still dirty
		// and untitled. Callers must check status, not the HTTP code.
		writeJSON(w, http.StatusOK, body)
	}
}

// CloseSession handles POST /api/session/close: the close-confirmation
// flow. The body carries the user's choice and, for choice "save" on an
// untitled notebook, the destination path.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Choice string `json:"choice"`
		Path   string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var choice session.CloseChoice
	switch req.Choice {
	case "save":
		choice = session.ChoiceSave
	case "discard":
		choice = session.ChoiceDiscard
	case "cancel":
		choice = session.ChoiceCancel
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("choice must be save, discard or cancel"))
		return
	}

	paths := session.NoPath()
	if req.Path != "" {
		paths = session.FixedPath(req.Path)
	}

	dec := h.sess.ConfirmClose(session.StaticChoice(choice), paths)
	writeJSON(w, http.StatusOK, map[string]string{"decision": dec.String()})
	if dec == session.Proceed {
		go h.shutdown()
	}
}

// MarkChanged handles POST /api/session/changed, the collaborator-reported
// "something changed" notification.
func (h *Handler) MarkChanged(w http.ResponseWriter, _ *http.Request) {
	h.sess.MarkChanged()
	w.WriteHeader(http.StatusNoContent)
}

// ListItems handles GET /api/items.
func (h *Handler) ListItems(w http.ResponseWriter, _ *http.Request) {
	items := h.sess.Items()
	if items == nil {
		items = []models.ItemView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateItem handles POST /api/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" || req.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name and type are required"))
		return
	}
	kind := models.ItemType(req.Type)
	if !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("type must be console, script or note"))
		return
	}
	if err := h.sess.AddItem(kind, req.Name, req.Text); err != nil {
		writeItemError(w, "create item", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// GetItem handles GET /api/items/{name}: the live text when the window is
// open, the stored text otherwise.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	name := itemName(r)
	text, err := h.sess.ItemText(name)
	if err != nil {
		writeItemError(w, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "text": text})
}

// OpenItem handles POST /api/items/{name}/open.
func (h *Handler) OpenItem(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.OpenItem(itemName(r)); err != nil {
		writeItemError(w, "open item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseItem handles POST /api/items/{name}/close.
func (h *Handler) CloseItem(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.CloseItem(itemName(r)); err != nil {
		writeItemError(w, "close item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameItem handles POST /api/items/{name}/rename.
func (h *Handler) RenameItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	if err := h.sess.RenameItem(itemName(r), req.Name); err != nil {
		writeItemError(w, "rename item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditItem handles PUT /api/items/{name}/text: replaces the open
// document's in-memory text. The notebook file is untouched until the next
// flush.
func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.sess.Edit(itemName(r), req.Text); err != nil {
		writeItemError(w, "edit item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem handles DELETE /api/items/{name}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.RemoveItem(itemName(r)); err != nil {
		writeItemError(w, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.db.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// OpenNotebook handles POST /api/notebooks/open: spawns an independent
// instance for another notebook (or a fresh untitled one when the path is
// empty). Sessions are never multiplexed within one process.
func (h *Handler) OpenNotebook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := session.OpenInNewProcess(req.Path); err != nil {
		slog.Error("spawn instance failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
