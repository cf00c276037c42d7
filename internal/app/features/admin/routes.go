// internal/app/features/admin/routes.go
package admin

import (
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the command center. Every route requires the primary
// admin role.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(string(models.RolePrimaryAdmin)))

		pr.Get("/", h.ServeDashboard)
		pr.Post("/refresh", h.HandleRefresh)

		pr.Post("/reports", h.HandleCreateReport)
		pr.Post("/reports/{id}/edit", h.HandleUpdateReport)
		pr.Post("/reports/{id}/delete", h.HandleDeleteReport)

		pr.Post("/accounts", h.HandleCreateAccount)
		pr.Post("/accounts/{id}/role", h.HandleReassignRole)
		pr.Post("/accounts/{id}/delete", h.HandleDeleteAccount)
		pr.Get("/accounts/{id}/reports", h.ServeAuthorReports)
	})
	return r
}
