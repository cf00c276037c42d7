// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/auditlog"
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Registry   *projection.Registry
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, reg *projection.Registry, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Registry:   reg,
		AuditLog:   audit,
	}
}

// ServeLogout clears the session, forgets the session's engine and its
// snapshot, and returns home.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	user, signedIn := auth.CurrentUser(r)

	key, err := h.SessionMgr.Logout(w, r)
	if err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if key == "" && signedIn {
		key = user.EngineKey
	}
	if key != "" && h.Registry != nil {
		h.Registry.Drop(key)
	}
	if signedIn {
		h.AuditLog.Logout(r.Context(), user.ID, user.Role)
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
