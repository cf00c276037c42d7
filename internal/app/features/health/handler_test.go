package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chaosempire/chaospanel/internal/app/features/health"
	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/testutil"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Gateway  string `json:"gateway"`
	Database string `json:"database"`
	Error    string `json:"error"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_GatewayReachable(t *testing.T) {
	fake := testutil.NewFakeGateway(t)
	gw, err := gateway.New(gateway.Options{BaseURL: fake.URL()})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}

	rec, body := serve(t, health.NewHandler(gw, nil, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Status != "ok" || body.Gateway != "reachable" || body.Database != "disabled" {
		t.Errorf("body = %+v", body)
	}
}

type downGateway struct{}

func (downGateway) Ping(context.Context) error { return errors.New("connection refused") }

func TestServe_GatewayDown(t *testing.T) {
	rec, body := serve(t, health.NewHandler(downGateway{}, nil, zap.NewNop()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Status != "error" || body.Gateway != "unreachable" || body.Error != "connection refused" {
		t.Errorf("body = %+v", body)
	}
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fake := testutil.NewFakeGateway(t)
	gw, err := gateway.New(gateway.Options{BaseURL: fake.URL()})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}

	_, body := serve(t, health.NewHandler(gw, db.Client(), zap.NewNop()))

	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("body = %+v", body)
	}
}
