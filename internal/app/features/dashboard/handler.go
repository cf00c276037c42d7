// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	"github.com/chaosempire/chaospanel/internal/app/system/authz"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// ServeDashboard sends the user to their role's dashboard. A session whose
// role is not one of the panel roles goes home.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	profile, ok := authz.Profile(r)
	if !ok {
		h.Log.Debug("dashboard: no usable role in session")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, profile.Path, http.StatusSeeOther)
}
