package controllers

import (
	"net/http"

	"github.com/rzbill/dispatchq/internal/runtime"
	"github.com/rzbill/dispatchq/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes
// and manages the lifecycle of individual controllers.
type ControllerRegistry struct {
	general  *GeneralController
	messages *MessagesController
	options  *OptionsController
	watch    *WatchController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, logger log.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general:  NewGeneralController(rt),
		messages: NewMessagesController(rt, logger),
		options:  NewOptionsController(rt),
		watch:    NewWatchController(rt, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
//
// This method sets up all HTTP endpoints for the DispatchQ service:
// general endpoints (health, status), message endpoints (enqueue, stats,
// drain, completions), queue options, and the event watch socket.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.messages.RegisterRoutes(mux)
	r.options.RegisterRoutes(mux)
	r.watch.RegisterRoutes(mux)
}
