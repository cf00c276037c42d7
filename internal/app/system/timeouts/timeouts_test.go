package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Read: 42 * time.Second})

	if got := timeouts.Read(); got != 42*time.Second {
		t.Errorf("Read = %v, want 42s", got)
	}
	if got := timeouts.Ping(); got != timeouts.DefaultPing {
		t.Errorf("Ping = %v, want default %v", got, timeouts.DefaultPing)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(timeouts.Reset)
	t.Setenv("CHAOSPANEL_TIMEOUT_MUTATION", "45s")
	t.Setenv("CHAOSPANEL_TIMEOUT_EXPORT", "nonsense")
	t.Setenv("CHAOSPANEL_TIMEOUT_AUDIT", "-1s")

	if n := timeouts.ConfigureFromEnv(); n != 1 {
		t.Errorf("configured %d values, want 1", n)
	}
	cur := timeouts.Current()
	if cur.Mutation != 45*time.Second {
		t.Errorf("Mutation = %v, want 45s", cur.Mutation)
	}
	if cur.Export != timeouts.DefaultExport || cur.Audit != timeouts.DefaultAudit {
		t.Errorf("invalid values should keep defaults, got %+v", cur)
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.New(core), "reload")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("got %d log entries, want 1", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["operation"]; got != "reload" {
		t.Errorf("operation = %v, want reload", got)
	}
}
