// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxKeys bounds how many distinct keys a Limiter remembers. The least
// recently seen key is forgotten first.
const maxKeys = 4096

// Limiter is a keyed token bucket: each key may spend burst requests at once
// and regains one every interval/burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
	every   rate.Limit
	burst   int
}

// New allows limit requests per key per interval.
func New(limit int, interval time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	buckets, _ := lru.New[string, *rate.Limiter](maxKeys)
	return &Limiter{
		buckets: buckets,
		every:   rate.Every(interval / time.Duration(limit)),
		burst:   limit,
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets.Add(key, b)
	}
	return b
}

// Allow spends one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Reset forgets key, restoring its full burst.
func (l *Limiter) Reset(key string) {
	l.buckets.Remove(key)
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// AuthLimiter throttles sign-in and sign-up attempts per client IP and per
// email address.
type AuthLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewAuthLimiter allows 10 attempts per IP per minute and 5 per email per
// 5 minutes.
func NewAuthLimiter() *AuthLimiter {
	return NewAuthLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewAuthLimiterWithConfig creates a limiter with custom limits.
func NewAuthLimiterWithConfig(ipLimit int, ipInterval time.Duration, emailLimit int, emailInterval time.Duration) *AuthLimiter {
	return &AuthLimiter{
		ip:    New(ipLimit, ipInterval),
		email: New(emailLimit, emailInterval),
	}
}

// Check reports whether an attempt for email from r may proceed and, when
// not, the message to show.
func (al *AuthLimiter) Check(r *http.Request, email string) (bool, string) {
	if !al.ip.Allow(ClientIP(r)) {
		return false, "Too many attempts. Please wait a minute before trying again."
	}
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" {
		if !al.email.Allow(key) {
			return false, "Too many attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the per-email budget after a successful sign-in.
func (al *AuthLimiter) ResetEmail(email string) {
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" {
		al.email.Reset(key)
	}
}
