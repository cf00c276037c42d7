// internal/app/features/reports/routes.go
package reports

import (
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/export.xlsx", h.ServeExport)
	})
	return r
}
