// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minKeyLength applies to session, flash and CSRF keys.
const minKeyLength = 32

// appConfigKeys defines the configuration keys for the panel.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: gateway_url, session_name, etc.
//   - Environment variables: CHAOSPANEL_GATEWAY_URL, CHAOSPANEL_SESSION_NAME, etc.
//   - Command-line flags: --gateway_url, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "gateway_url", Default: "http://localhost:8080", Desc: "Base URL of the accounts/reports service"},
	{Name: "gateway_timeout", Default: "10s", Desc: "Per-request timeout for gateway calls"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "chaospanel-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session lifetime"},
	{Name: "flash_key", Default: "dev-only-flash-key-0123456789ABCDEF", Desc: "Flash cookie signing key"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-0123456789ABCDEF", Desc: "CSRF token key (at least 32 bytes)"},

	// Audit store
	{Name: "mongo_uri", Default: "", Desc: "MongoDB URI for the audit trail (blank disables it)"},
	{Name: "mongo_database", Default: "chaospanel", Desc: "MongoDB database name"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_mutations", Default: "all", Desc: "Report/account change logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "engine_cache_size", Default: 256, Desc: "Maximum number of signed-in sessions held in memory"},
	{Name: "report_timezone", Default: "UTC", Desc: "Time zone for report dates and filters"},
	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig reads .env and config files,
// CHAOSPANEL_* environment variables and flags, with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CHAOSPANEL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		GatewayURL:     appValues.String("gateway_url"),
		GatewayTimeout: appValues.Duration("gateway_timeout", 10*time.Second),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),
		FlashKey:      appValues.String("flash_key"),
		CSRFKey:       appValues.String("csrf_key"),

		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		AuditLogAuth:      appValues.String("audit_log_auth"),
		AuditLogMutations: appValues.String("audit_log_mutations"),

		EngineCacheSize: appValues.Int("engine_cache_size"),
		ReportTimezone:  appValues.String("report_timezone"),
		MetricsEnabled:  appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It rejects what would otherwise fail on first use: an unusable gateway
// URL, short signing keys, unknown audit modes, an unknown time zone and a
// malformed Mongo URI.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	u, err := url.Parse(appCfg.GatewayURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid gateway_url %q: must be an absolute http(s) URL", appCfg.GatewayURL)
	}

	for name, key := range map[string]string{
		"session_key": appCfg.SessionKey,
		"flash_key":   appCfg.FlashKey,
		"csrf_key":    appCfg.CSRFKey,
	} {
		if len(key) < minKeyLength {
			return fmt.Errorf("%s must be at least %d characters", name, minKeyLength)
		}
	}

	for name, mode := range map[string]string{
		"audit_log_auth":      appCfg.AuditLogAuth,
		"audit_log_mutations": appCfg.AuditLogMutations,
	} {
		switch mode {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("invalid %s %q: want all, db, log or off", name, mode)
		}
	}

	if _, err := time.LoadLocation(appCfg.ReportTimezone); err != nil {
		return fmt.Errorf("invalid report_timezone %q: %w", appCfg.ReportTimezone, err)
	}

	if appCfg.EngineCacheSize <= 0 {
		return fmt.Errorf("engine_cache_size must be positive")
	}

	if appCfg.MongoURI != "" {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	}

	return nil
}
