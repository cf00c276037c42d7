// internal/app/system/flash/flash.go
package flash

import (
	"context"
	"net/http"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// Kind selects how a notice is styled.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Notice is a one-shot message carried across a redirect.
type Notice struct {
	Kind Kind   `json:"k"`
	Text string `json:"t"`
	// Reauth asks the page to offer a sign-in link.
	Reauth bool `json:"r,omitempty"`
}

const cookieName = "chaospanel_flash"

type ctxKey struct{}

// Store signs notices into a short-lived cookie.
type Store struct {
	codec  *securecookie.SecureCookie
	secure bool
	log    *zap.Logger
}

// New returns a Store signing with hashKey.
func New(hashKey []byte, secure bool, logger *zap.Logger) *Store {
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(300)
	codec.SetSerializer(securecookie.JSONEncoder{})
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{codec: codec, secure: secure, log: logger}
}

// Set queues n for the next page load.
func (s *Store) Set(w http.ResponseWriter, n Notice) {
	v, err := s.codec.Encode(cookieName, n)
	if err != nil {
		s.log.Warn("flash encode failed", zap.Error(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    v,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Load moves a pending notice from its cookie into the request context and
// expires the cookie.
func (s *Store) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(cookieName)
		if err == nil {
			var n Notice
			if err := s.codec.Decode(cookieName, c.Value, &n); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, &n))
			} else {
				s.log.Debug("discarding unreadable flash", zap.Error(err))
			}
			http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
		}
		next.ServeHTTP(w, r)
	})
}

// From returns the notice loaded for this request, or nil.
func From(r *http.Request) *Notice {
	n, _ := r.Context().Value(ctxKey{}).(*Notice)
	return n
}

// WithNotice attaches n to the request context. Tests use it.
func WithNotice(r *http.Request, n Notice) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, &n))
}
