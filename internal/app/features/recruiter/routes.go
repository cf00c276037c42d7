// internal/app/features/recruiter/routes.go
package recruiter

import (
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(string(models.RoleRecruiter)))
		pr.Get("/", h.ServeDashboard)
		pr.Post("/subordinates", h.HandleRegisterSubordinate)
		pr.Post("/reports", h.HandleCreateReport)
		pr.Post("/assign/{id}", h.HandleAssignAction)
	})
	return r
}
