package projectsapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
)

// Routes returns a router with the project API endpoints. Reads are public
// with permissive CORS; writes require an admin session.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(apicors.Middleware())
		pr.Get("/", h.ListHandler)
		pr.Get("/{id}", h.GetHandler)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sessionMgr.RequireAdmin)
		ar.Put("/{id}", h.SaveHandler)
		ar.Delete("/{id}", h.DeleteHandler)
	})

	return r
}
