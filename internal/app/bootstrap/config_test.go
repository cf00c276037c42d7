package bootstrap

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chaosempire/chaospanel/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		GatewayURL:        "http://localhost:8080",
		GatewayTimeout:    10 * time.Second,
		SessionKey:        strings.Repeat("s", 32),
		SessionName:       "chaospanel-session",
		SessionMaxAge:     24 * time.Hour,
		FlashKey:          strings.Repeat("f", 32),
		CSRFKey:           strings.Repeat("c", 40),
		AuditLogAuth:      "all",
		AuditLogMutations: "log",
		EngineCacheSize:   16,
		ReportTimezone:    "Europe/Bucharest",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"relative gateway url", func(c *AppConfig) { c.GatewayURL = "/api" }, "gateway_url"},
		{"gateway url without scheme", func(c *AppConfig) { c.GatewayURL = "localhost:8080" }, "gateway_url"},
		{"short session key", func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"short csrf key", func(c *AppConfig) { c.CSRFKey = "short" }, "csrf_key"},
		{"unknown audit mode", func(c *AppConfig) { c.AuditLogMutations = "sometimes" }, "audit_log_mutations"},
		{"unknown time zone", func(c *AppConfig) { c.ReportTimezone = "Mars/Olympus" }, "report_timezone"},
		{"no engine cache", func(c *AppConfig) { c.EngineCacheSize = 0 }, "engine_cache_size"},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, "MongoDB URI"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := ValidateConfig(nil, cfg, testLogger())
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("got %v, want error mentioning %q", err, tc.wantErr)
			}
		})
	}
}

func TestConnectDB_Disabled(t *testing.T) {
	deps, err := ConnectDB(context.Background(), nil, validConfig(), testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if deps.MongoClient != nil || deps.MongoDatabase != nil {
		t.Error("no mongo_uri should leave DBDeps empty")
	}
	if err := EnsureSchema(context.Background(), nil, validConfig(), deps, testLogger()); err != nil {
		t.Errorf("EnsureSchema without a store: %v", err)
	}
	if err := Shutdown(context.Background(), nil, validConfig(), deps, testLogger()); err != nil {
		t.Errorf("Shutdown without a store: %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	if err := EnsureSchema(ctx, nil, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// Index creation is idempotent.
	if err := EnsureSchema(ctx, nil, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}
