// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	adminfeature "github.com/chaosempire/chaospanel/internal/app/features/admin"
	dashboardfeature "github.com/chaosempire/chaospanel/internal/app/features/dashboard"
	errorsfeature "github.com/chaosempire/chaospanel/internal/app/features/errors"
	healthfeature "github.com/chaosempire/chaospanel/internal/app/features/health"
	homefeature "github.com/chaosempire/chaospanel/internal/app/features/home"
	loginfeature "github.com/chaosempire/chaospanel/internal/app/features/login"
	logoutfeature "github.com/chaosempire/chaospanel/internal/app/features/logout"
	recruiterfeature "github.com/chaosempire/chaospanel/internal/app/features/recruiter"
	registerfeature "github.com/chaosempire/chaospanel/internal/app/features/register"
	reportsfeature "github.com/chaosempire/chaospanel/internal/app/features/reports"
	resistancefeature "github.com/chaosempire/chaospanel/internal/app/features/resistance"
	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/store/audit"
	"github.com/chaosempire/chaospanel/internal/app/system/auditlog"
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/chaosempire/chaospanel/internal/app/system/flash"
	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/app/system/normalize"
	"github.com/chaosempire/chaospanel/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It wires the gateway client, the per-session
// engine registry and the audit logger, applies the global middleware, and
// mounts one router per feature.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"

	loc, err := time.LoadLocation(appCfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("report timezone: %w", err)
	}

	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	flashStore := flash.New([]byte(appCfg.FlashKey), secure, logger)

	// Metrics get their own registry so the handler can be built more than
	// once in a process.
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	var gwMetrics *gateway.Metrics
	if appCfg.MetricsEnabled {
		if gwMetrics, err = gateway.NewMetrics(promReg); err != nil {
			return nil, err
		}
	}

	gw, err := gateway.New(gateway.Options{
		BaseURL: appCfg.GatewayURL,
		Timeout: appCfg.GatewayTimeout,
		Metrics: gwMetrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("gateway client init failed", zap.Error(err))
		return nil, err
	}

	var auditStore auditlog.Store
	if deps.MongoDatabase != nil {
		auditStore = audit.New(deps.MongoDatabase)
	}
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Mutations: appCfg.AuditLogMutations,
	})

	registry, err := projection.NewRegistry(appCfg.EngineCacheSize, gw, projection.Options{
		Normalizer: normalize.New(loc, logger),
		Logger:     logger,
		Auditor:    auditLog,
	})
	if err != nil {
		return nil, err
	}
	panel := shared.NewPanel(registry, flashStore, loc, logger)
	authLimiter := ratelimit.NewAuthLimiter()

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	r := chi.NewRouter()

	r.Use(auditlog.RequestInfo)

	// Health and metrics sit outside CSRF and sessions.
	healthHandler := healthfeature.NewHandler(gw, deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	if appCfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	}

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(app chi.Router) {
		if !secure {
			app.Use(plaintextCSRF)
		}
		app.Use(csrf.Protect(
			[]byte(appCfg.CSRFKey)[:minKeyLength],
			csrf.Secure(secure),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(csrfFailure(logger))),
		))
		app.Use(flashStore.Load)

		// Global auth middleware: loads SessionUser into context if logged in.
		app.Use(sessionMgr.LoadSessionUser)

		homeHandler := homefeature.NewHandler(logger)
		app.Mount("/", homefeature.Routes(homeHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(gw, sessionMgr, authLimiter, auditLog, flashStore, logger)
		app.Mount("/login", loginfeature.Routes(loginHandler))

		registerHandler := registerfeature.NewHandler(gw, authLimiter, auditLog, flashStore, logger)
		app.Mount("/register", registerfeature.Routes(registerHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, registry, auditLog, logger)
		app.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		// Error pages
		errorsHandler := errorsfeature.NewHandler()
		app.Get("/forbidden", errorsHandler.Forbidden)
		app.Get("/unauthorized", errorsHandler.Unauthorized)

		// Role dashboards
		dashboardHandler := dashboardfeature.NewHandler(logger)
		app.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		adminHandler := adminfeature.NewHandler(panel, logger)
		app.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

		recruiterHandler := recruiterfeature.NewHandler(panel, logger)
		app.Mount("/recruiter", recruiterfeature.Routes(recruiterHandler, sessionMgr))

		resistanceHandler := resistancefeature.NewHandler(panel, logger)
		app.Mount("/resistance", resistancefeature.Routes(resistanceHandler, sessionMgr))

		// Reports
		reportsHandler := reportsfeature.NewHandler(panel, logger)
		app.Mount("/reports", reportsfeature.Routes(reportsHandler, sessionMgr))
	})

	r.NotFound(errorsfeature.NewHandler().NotFound)

	return r, nil
}

// plaintextCSRF marks requests as plain HTTP so the CSRF origin check does
// not demand a TLS referer outside production.
func plaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

func csrfFailure(logger *zap.Logger) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("csrf validation failed",
			zap.String("path", r.URL.Path),
			zap.Error(csrf.FailureReason(r)))
		http.Error(w, "Forbidden - invalid or missing CSRF token. Reload the page and try again.", http.StatusForbidden)
	}
}
