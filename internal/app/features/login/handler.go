// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/auditlog"
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/chaosempire/chaospanel/internal/app/system/flash"
	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/app/system/normalize"
	"github.com/chaosempire/chaospanel/internal/app/system/ratelimit"
	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"github.com/chaosempire/chaospanel/internal/app/system/viewdata"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// Authenticator exchanges credentials with the remote service.
// *gateway.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (gateway.LoginResult, error)
}

type Handler struct {
	Gateway    Authenticator
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.AuthLimiter
	AuditLog   *auditlog.Logger
	Flash      *flash.Store
	Log        *zap.Logger
}

func NewHandler(gw Authenticator, sessionMgr *auth.SessionManager, limiter *ratelimit.AuthLimiter, audit *auditlog.Logger, fl *flash.Store, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewAuthLimiter()
	}
	return &Handler{
		Gateway:    gw,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Flash:      fl,
		Log:        logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign in", "/"),
		Email:     query.Get(r, "email"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form data.", "", "")
		return
	}
	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if email == "" || password == "" {
		h.fail(w, r, "Enter your email and password.", email, ret)
		return
	}

	if ok, msg := h.Limiter.Check(r, email); !ok {
		h.AuditLog.LoginRateLimited(r.Context(), email)
		h.fail(w, r, msg, email, ret)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Read())
	defer cancel()

	res, err := h.Gateway.Login(ctx, email, password)
	if err != nil {
		msg := projection.Notice(err)
		if gateway.IsUnauthorized(err) {
			msg = "Invalid email or password."
		}
		h.Log.Info("login rejected", zap.String("email", email), zap.Error(err))
		h.AuditLog.LoginFailed(r.Context(), email, err.Error())
		h.fail(w, r, msg, email, ret)
		return
	}
	if strings.TrimSpace(res.Token) == "" {
		h.Log.Warn("login returned no token", zap.String("email", email))
		h.AuditLog.LoginFailed(r.Context(), email, "no token")
		h.fail(w, r, projection.NoticeGeneric, email, ret)
		return
	}

	// The service may omit the role from the body; the token claims are
	// consulted by the session manager in that case.
	user, err := h.SessionMgr.Login(w, r, auth.SessionUser{
		ID:    res.AccountID(),
		Email: firstNonEmpty(normalize.Email(res.Email), email),
		Role:  normalize.Role(res.Role),
		Token: res.Token,
	})
	if err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		h.fail(w, r, projection.NoticeGeneric, email, ret)
		return
	}

	if _, known := models.ParseRole(user.Role); !known || user.ID == "" {
		if _, err := h.SessionMgr.Logout(w, r); err != nil {
			h.Log.Warn("login: clear session", zap.Error(err))
		}
		h.AuditLog.LoginFailed(r.Context(), email, "no panel role: "+user.Role)
		h.fail(w, r, "This account has no access to the panel.", email, ret)
		return
	}

	h.Limiter.ResetEmail(email)
	h.AuditLog.LoginSuccess(r.Context(), user.ID, user.Role, user.Email)
	h.Log.Info("user signed in",
		zap.String("account_id", user.ID),
		zap.String("role", user.Role))

	http.Redirect(w, r, urlutil.SafeReturn(ret, "", "/dashboard"), http.StatusSeeOther)
}

// fail flashes msg and returns to the form, keeping the email and return
// target.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg, email, ret string) {
	if h.Flash != nil {
		h.Flash.Set(w, flash.Notice{Kind: flash.Error, Text: msg})
	}
	v := url.Values{}
	if email != "" {
		v.Set("email", email)
	}
	if ret != "" {
		v.Set("return", ret)
	}
	target := "/login"
	if len(v) > 0 {
		target += "?" + v.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
