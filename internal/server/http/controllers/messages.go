package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rzbill/dispatchq/internal/dispatch"
	"github.com/rzbill/dispatchq/internal/runtime"
	"github.com/rzbill/dispatchq/pkg/log"
)

// MessagesController handles the dispatch surface: enqueueing, stats,
// drain and the completion archive.
type MessagesController struct {
	rt     *runtime.Runtime
	logger log.Logger
}

// NewMessagesController creates a new messages controller.
func NewMessagesController(rt *runtime.Runtime, logger log.Logger) *MessagesController {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &MessagesController{rt: rt, logger: logger}
}

// RegisterRoutes registers message routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Enqueueing messages (POST /v1/messages)
// - Queue statistics (GET /v1/stats)
// - Draining the queue (POST /v1/drain)
// - Archived completions (GET /v1/completions)
func (c *MessagesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/messages", c.handleEnqueue)
	mux.HandleFunc("/v1/stats", c.handleStats)
	mux.HandleFunc("/v1/drain", c.handleDrain)
	mux.HandleFunc("/v1/completions", c.handleCompletions)
}

// handleEnqueue accepts one message for dispatch.
//
// Expects a JSON body with "topic", optional base64 "body" and optional
// "headers". Returns 202 Accepted with the assigned message id.
func (c *MessagesController) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req enqueueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	msg, err := c.rt.Enqueue(req.Topic, req.Body, req.Headers)
	if err != nil {
		if errors.Is(err, dispatch.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "Queue closed")
			return
		}
		c.logger.Warn("enqueue rejected", log.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to enqueue message")
		return
	}
	writeJSONStatus(w, http.StatusAccepted, enqueueResp{ID: msg.ID.String(), Topic: msg.Topic, Attempt: msg.Attempt})
}

// handleStats returns queue depths, counters and archive totals.
func (c *MessagesController) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := c.rt.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to collect stats")
		return
	}
	writeJSON(w, st)
}

// handleDrain cancels every tracked message. Returns 204 No Content.
func (c *MessagesController) handleDrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	c.rt.Drain()
	writeNoContent(w)
}

// handleCompletions lists archived completions, newest first.
//
// Supports a "limit" query parameter; the archive default applies when
// absent.
func (c *MessagesController) handleCompletions(w http.ResponseWriter, r *http.Request) {
	entries, err := c.rt.RecentCompletions(r.Context(), parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read completions")
		return
	}
	writeJSON(w, map[string]any{"completions": entries})
}
