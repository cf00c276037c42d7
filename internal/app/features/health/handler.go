// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger reaches the remote accounts/reports service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Gateway Pinger
	Client  *mongo.Client // audit store; nil when disabled
	Log     *zap.Logger
}

// NewHandler constructs a health Handler. client may be nil.
func NewHandler(gw Pinger, client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Gateway: gw,
		Client:  client,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Gateway  string `json:"gateway"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "gateway":"reachable", "database":"connected" }
//
// database is "disabled" when no audit store is configured. An unreachable
// gateway answers 503; an unreachable audit store only degrades the status,
// since the panel works without it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Gateway:  "reachable",
		Database: "disabled",
	}

	if err := h.Gateway.Ping(ctx); err != nil {
		h.Log.Error("health-check: gateway ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Gateway = "unreachable"
		resp.Message = "Gateway unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Client != nil {
		if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
			h.Log.Warn("health-check: mongo ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Database = "disconnected"
			resp.Error = err.Error()
		} else {
			resp.Database = "connected"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
