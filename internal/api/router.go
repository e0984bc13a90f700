package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all session API routes mounted.
// authEnabled controls whether Bearer token auth is enforced. sseHandler,
// if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Session state and the save / close protocols.
	r.Get("/session", h.SessionStatus)
	r.Post("/session/save", h.Save)
	r.Post("/session/close", h.CloseSession)
	r.Post("/session/changed", h.MarkChanged)

	// Item windows.
	r.Get("/items", h.ListItems)
	r.Post("/items", h.CreateItem)
	r.Get("/items/{name}", h.GetItem)
	r.Delete("/items/{name}", h.DeleteItem)
	r.Post("/items/{name}/open", h.OpenItem)
	r.Post("/items/{name}/close", h.CloseItem)
	r.Post("/items/{name}/rename", h.RenameItem)
	r.Put("/items/{name}/text", h.EditItem)

	// Search.
	r.Get("/search", h.Search)

	// Another notebook means another process.
	r.Post("/notebooks/open", h.OpenNotebook)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
