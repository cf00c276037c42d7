// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, log level, CORS); everything the
// panel itself needs lives here.
type AppConfig struct {
	// Remote accounts/reports service
	GatewayURL     string        // base URL, e.g. http://localhost:8080
	GatewayTimeout time.Duration // per-request timeout

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: chaospanel-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session lifetime; the gateway token may expire sooner

	FlashKey string // signs one-shot notice cookies
	CSRFKey  string // 32+ bytes; first 32 are used

	// Audit store. An empty MongoURI disables persistence and audit events
	// go to the log only.
	MongoURI      string
	MongoDatabase string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth      string
	AuditLogMutations string

	EngineCacheSize int    // session engines held in memory
	ReportTimezone  string // IANA zone used to read and show report dates
	MetricsEnabled  bool   // serve /metrics
}
