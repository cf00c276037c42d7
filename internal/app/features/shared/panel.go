// internal/app/features/shared/panel.go
package shared

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/authz"
	"github.com/chaosempire/chaospanel/internal/app/system/flash"
	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Panel is what every role dashboard needs: the engine registry, the flash
// store for post-redirect notices, and the zone report dates are read in.
type Panel struct {
	Registry *projection.Registry
	Flash    *flash.Store
	Loc      *time.Location
	Log      *zap.Logger
}

// NewPanel bundles the dashboard dependencies.
func NewPanel(reg *projection.Registry, fl *flash.Store, loc *time.Location, logger *zap.Logger) *Panel {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Panel{Registry: reg, Flash: fl, Loc: loc, Log: logger}
}

// Session is the signed-in user's engine and the key it is held under.
type Session struct {
	Engine *projection.Engine
	Key    string
	Actor  projection.Actor
}

// Session returns the engine for the request's user.
func (p *Panel) Session(r *http.Request) (Session, bool) {
	actor, key, ok := authz.Actor(r)
	if !ok || key == "" {
		return Session{}, false
	}
	return Session{Engine: p.Registry.Engine(key, actor), Key: key, Actor: actor}, true
}

// Load makes sure s holds a snapshot for a page render. It returns the
// notice to show inline when loading failed and false when the request has
// already been answered (an authorization failure redirects to sign in).
func (p *Panel) Load(w http.ResponseWriter, r *http.Request, s Session) (string, bool) {
	return p.fetch(w, r, s, s.Engine.Ensure)
}

// Refresh reloads s ahead of a page render, for pages that must reflect
// changes made elsewhere. A failed reload keeps the held snapshot and is
// answered like Load.
func (p *Panel) Refresh(w http.ResponseWriter, r *http.Request, s Session) (string, bool) {
	return p.fetch(w, r, s, s.Engine.Reload)
}

func (p *Panel) fetch(w http.ResponseWriter, r *http.Request, s Session, load func(context.Context) error) (string, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Read())
	defer cancel()

	err := load(ctx)
	if err == nil {
		return "", true
	}
	if projection.Classify(err) == projection.ClassAuthorization {
		p.Fail(w, r, s, err, r.URL.RequestURI())
		return "", false
	}
	p.Log.Warn("dashboard load failed",
		zap.String("account_id", s.Actor.ID),
		zap.Error(err))
	return projection.Notice(err), true
}

// Fail answers a failed action with a flash notice and a redirect. An
// authorization failure drops the session's engine and sends the user to
// sign in again; anything else returns to back.
func (p *Panel) Fail(w http.ResponseWriter, r *http.Request, s Session, err error, back string) {
	class := projection.Classify(err)
	notice := flash.Notice{Kind: flash.Error, Text: projection.Notice(err)}

	switch class {
	case projection.ClassAuthorization:
		if s.Key != "" {
			p.Registry.Drop(s.Key)
		}
		notice.Reauth = true
		p.Log.Info("gateway rejected credential",
			zap.String("account_id", s.Actor.ID),
			zap.Error(err))
		p.setFlash(w, notice)
		http.Redirect(w, r, "/login?return="+url.QueryEscape(back), http.StatusSeeOther)
		return
	case projection.ClassValidation:
		// shown as-is
	default:
		var re *projection.ReloadError
		if errors.As(err, &re) {
			notice.Kind = flash.Info
		}
		p.Log.Warn("dashboard action failed",
			zap.String("account_id", s.Actor.ID),
			zap.String("class", class.String()),
			zap.Error(err))
	}
	p.setFlash(w, notice)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Done answers a successful action with a notice and a redirect to back.
func (p *Panel) Done(w http.ResponseWriter, r *http.Request, text, back string) {
	p.setFlash(w, flash.Notice{Kind: flash.Success, Text: text})
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (p *Panel) setFlash(w http.ResponseWriter, n flash.Notice) {
	if p.Flash != nil {
		p.Flash.Set(w, n)
	}
}

// Act runs one mutation for a form post and answers with a redirect to
// back: success flashes done, failure goes through Fail. The engine is
// loaded first so existence checks see current data.
func (p *Panel) Act(w http.ResponseWriter, r *http.Request, s Session, back, done string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Mutation())
	defer cancel()

	err := s.Engine.Ensure(ctx)
	if err == nil {
		err = fn(ctx)
	}
	if err != nil {
		p.Fail(w, r, s, err, back)
		return
	}
	p.Done(w, r, done, back)
}
