// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/store/audit"
	"github.com/chaosempire/chaospanel/internal/app/system/ratelimit"
	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in, sign-out and registration events.
	Auth string
	// Mutations controls logging for report and account changes.
	Mutations string
}

// Store persists events. *audit.Store satisfies it.
type Store interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to the store and to zap. A nil *Logger is a
// no-op, and a nil store downgrades "all" and "db" to zap only.
type Logger struct {
	store  Store
	zapLog *zap.Logger
	config Config
}

var _ projection.Auditor = (*Logger)(nil)

// New creates a new audit Logger.
func New(store Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request metadata                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type requestInfo struct {
	ip        string
	userAgent string
}

type ctxKey struct{}

// RequestInfo stores the caller's IP and user agent in the request context
// so events recorded deeper in the stack (engine mutations) carry them.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := requestInfo{ip: ratelimit.ClientIP(r), userAgent: r.UserAgent()}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, info)))
	})
}

func infoFrom(ctx context.Context) requestInfo {
	info, _ := ctx.Value(ctxKey{}).(requestInfo)
	return info
}

/*─────────────────────────────────────────────────────────────────────────────*
| Core                                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryMutation:
		return l.config.Mutations
	}
	return All
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.ActorRole != "" {
		fields = append(fields, zap.String("actor_role", event.ActorRole))
	}
	if event.TargetID != "" {
		fields = append(fields, zap.String("target_id", event.TargetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's setting. Unknown
// categories log everywhere.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == Off {
		return
	}

	if event.IP == "" && event.UserAgent == "" {
		info := infoFrom(ctx)
		event.IP, event.UserAgent = info.ip, info.userAgent
	}

	if setting == All || setting == Log || l.store == nil {
		l.logToZap(event)
	}

	if (setting == All || setting == DB) && l.store != nil {
		// The write outlives a cancelled request so a late disconnect does
		// not lose the record.
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Audit())
		defer cancel()
		if err := l.store.Log(wctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, accountID, role, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   accountID,
		ActorRole: role,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a rejected sign-in. reason is the service's message.
func (l *Logger) LoginFailed(ctx context.Context, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

// LoginRateLimited logs a sign-in refused before reaching the service.
func (l *Logger) LoginRateLimited(ctx context.Context, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimited,
		Success:       false,
		FailureReason: "rate limited",
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, accountID, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ActorID:   accountID,
		ActorRole: role,
		Success:   true,
	})
}

// Registered logs a self-registration attempt.
func (l *Logger) Registered(ctx context.Context, email string, err error) {
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistered,
		Success:   err == nil,
		Details:   map[string]string{"email": email},
	}
	if err != nil {
		event.EventType = audit.EventRegisterFailed
		event.FailureReason = err.Error()
	}
	l.Log(ctx, event)
}

// --- Mutation Events ---

// Mutation records a report or account change sent by a projection engine.
func (l *Logger) Mutation(ctx context.Context, m projection.Mutation) {
	event := audit.Event{
		Category:  audit.CategoryMutation,
		EventType: m.Op,
		ActorID:   m.ActorID,
		ActorRole: string(m.ActorRole),
		TargetID:  m.TargetID,
		Success:   m.Err == nil,
		Details:   m.Details,
	}
	if m.Err != nil {
		event.FailureReason = m.Err.Error()
	}
	l.Log(ctx, event)
}
