// internal/app/features/health/handler.go
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Store mongoconn.Availability
	Log   *zap.Logger
	Now   func() time.Time
}

// NewHandler constructs a health Handler over the store availability flag.
func NewHandler(store mongoconn.Availability, logger *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Log:   logger,
		Now:   time.Now,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// Serve handles GET /api/health.
//
// The service answers 200 even while the store is down, so the response
// reports the flag rather than failing:
//
//	{ "status":"OK", "message":"CWC Connect Backend is running", "database":"connected", "timestamp":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	database := "disconnected"
	if h.Store != nil && h.Store.IsAvailable() {
		database = "connected"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    "OK",
		Message:   "CWC Connect Backend is running",
		Database:  database,
		Timestamp: h.Now().UTC().Format(time.RFC3339),
	})
}
