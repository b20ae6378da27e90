package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/rzbill/dispatchq/internal/dispatch"
	"github.com/rzbill/dispatchq/internal/runtime"
)

// OptionsController exposes the queue timeout thresholds for inspection
// and live adjustment.
type OptionsController struct {
	rt *runtime.Runtime
}

func NewOptionsController(rt *runtime.Runtime) *OptionsController {
	return &OptionsController{rt: rt}
}

func (c *OptionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/options", c.handleOptions)
}

func (c *OptionsController) handleOptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c.handleGet(w, r)
	case http.MethodPut:
		c.handlePut(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (c *OptionsController) handleGet(w http.ResponseWriter, _ *http.Request) {
	opts, err := c.rt.QueueOptions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, opts)
}

// handlePut replaces both thresholds at once. A zero value disables the
// corresponding timeout.
func (c *OptionsController) handlePut(w http.ResponseWriter, r *http.Request) {
	var req optionsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.MaxEnqueuedTimeSecs < 0 || req.MaxProcessingTimeSecs < 0 {
		writeError(w, http.StatusBadRequest, "Thresholds must be >= 0")
		return
	}
	if err := c.rt.SetQueueOption(dispatch.OptionMaxEnqueuedTime, req.MaxEnqueuedTimeSecs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := c.rt.SetQueueOption(dispatch.OptionMaxProcessingTime, req.MaxProcessingTimeSecs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeNoContent(w)
}
