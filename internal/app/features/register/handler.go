// internal/app/features/register/handler.go
package register

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/auditlog"
	"github.com/chaosempire/chaospanel/internal/app/system/flash"
	"github.com/chaosempire/chaospanel/internal/app/system/normalize"
	"github.com/chaosempire/chaospanel/internal/app/system/ratelimit"
	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"github.com/chaosempire/chaospanel/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// MinPasswordLength is the shortest password the form accepts.
const MinPasswordLength = 6

// Registrar creates accounts on the remote service without a credential.
// *gateway.Client implements it.
type Registrar interface {
	Register(ctx context.Context, email, password string) error
}

type Handler struct {
	Gateway  Registrar
	Limiter  *ratelimit.AuthLimiter
	AuditLog *auditlog.Logger
	Flash    *flash.Store
	Log      *zap.Logger
}

func NewHandler(gw Registrar, limiter *ratelimit.AuthLimiter, audit *auditlog.Logger, fl *flash.Store, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewAuthLimiter()
	}
	return &Handler{Gateway: gw, Limiter: limiter, AuditLog: audit, Flash: fl, Log: logger}
}

type registerFormData struct {
	viewdata.BaseVM
	Email       string
	MinPassword int
}

// ServeRegister renders the sign-up form.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM:      viewdata.NewBaseVM(r, "Register", "/"),
		Email:       query.Get(r, "email"),
		MinPassword: MinPasswordLength,
	})
}

// Validate checks a sign-up submission and returns the message to show, or
// "" when it is acceptable.
func Validate(email, password, confirm string) string {
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return "Enter a valid email address."
	case len(password) < MinPasswordLength:
		return "Password must be at least 6 characters."
	case password != confirm:
		return "Passwords do not match."
	}
	return ""
}

// HandleRegisterPost creates the account and sends the user to sign in.
func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form data.", "")
		return
	}
	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm")

	if msg := Validate(email, password, confirm); msg != "" {
		h.fail(w, r, msg, email)
		return
	}
	if ok, msg := h.Limiter.Check(r, email); !ok {
		h.fail(w, r, msg, email)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Mutation())
	defer cancel()

	err := h.Gateway.Register(ctx, email, password)
	h.AuditLog.Registered(r.Context(), email, err)
	if err != nil {
		h.Log.Info("registration rejected", zap.String("email", email), zap.Error(err))
		h.fail(w, r, projection.Notice(err), email)
		return
	}

	h.Log.Info("account registered", zap.String("email", email))
	if h.Flash != nil {
		h.Flash.Set(w, flash.Notice{Kind: flash.Success, Text: "Account created. Sign in to continue."})
	}
	http.Redirect(w, r, "/login?email="+url.QueryEscape(email), http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg, email string) {
	if h.Flash != nil {
		h.Flash.Set(w, flash.Notice{Kind: flash.Error, Text: msg})
	}
	target := "/register"
	if email != "" {
		target += "?email=" + url.QueryEscape(email)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
