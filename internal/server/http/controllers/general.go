package controllers

import (
	"net/http"
	"time"

	"github.com/rzbill/dispatchq/internal/runtime"
)

// GeneralController handles general HTTP endpoints like health and status.
type GeneralController struct {
	rt      *runtime.Runtime
	started time.Time
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt, started: time.Now()}
}

// RegisterRoutes registers general routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Health checks (/v1/healthz)
// - Service status (/v1/status)
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
	mux.HandleFunc("/v1/status", c.handleStatus)
}

// handleHealth returns the health status of the service.
//
// Returns 200 OK with {"status": "ok"} if healthy, 503 Service Unavailable otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleStatus reports liveness and uptime.
func (c *GeneralController) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResp{
		Status:   "ok",
		UptimeMs: time.Since(c.started).Milliseconds(),
	})
}
