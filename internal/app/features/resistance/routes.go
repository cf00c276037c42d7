// internal/app/features/resistance/routes.go
package resistance

import (
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(string(models.RoleSubordinate)))
		pr.Get("/", h.ServeDashboard)
		pr.Post("/reports", h.HandleSubmit)
	})
	return r
}
