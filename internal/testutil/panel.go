// internal/testutil/panel.go
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/flash"
	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"go.uber.org/zap"
)

// FlashKey signs flash cookies in tests.
var FlashKey = []byte("test-flash-key-0123456789abcdef0")

// NewTestPanel wires a dashboard panel to a fresh FakeGateway.
func NewTestPanel(t *testing.T) (*shared.Panel, *FakeGateway) {
	t.Helper()
	fake := NewFakeGateway(t)
	gw, err := gateway.New(gateway.Options{BaseURL: fake.URL()})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	reg, err := projection.NewRegistry(8, gw, projection.Options{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	fl := flash.New(FlashKey, false, zap.NewNop())
	return shared.NewPanel(reg, fl, time.UTC, zap.NewNop()), fake
}

// ReadFlash decodes the flash notice rec set, or nil.
func ReadFlash(fl *flash.Store, rec *ResponseRecorder) *flash.Notice {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	var got *flash.Notice
	fl.Load(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = flash.From(r)
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got
}
