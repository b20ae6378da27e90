package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rzbill/dispatchq/internal/runtime"
	"github.com/rzbill/dispatchq/pkg/log"
)

// WatchController streams completion events over a websocket. Clients may
// narrow the stream with a CEL filter expression passed as ?filter=.
type WatchController struct {
	rt       *runtime.Runtime
	logger   log.Logger
	upgrader websocket.Upgrader
}

func NewWatchController(rt *runtime.Runtime, logger log.Logger) *WatchController {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &WatchController{
		rt:     rt,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (c *WatchController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/events", c.handleWatch)
}

func (c *WatchController) handleWatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Subscribe before upgrading so a bad filter still gets a plain
	// HTTP error instead of a dropped websocket.
	filter := r.URL.Query().Get("filter")
	sub, err := c.rt.Events(filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter: "+err.Error())
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Cancel()
		c.logger.Warn("websocket upgrade failed", log.Err(err))
		return
	}
	defer conn.Close()

	c.logger.Debug("watch client connected", log.Str("remote", conn.RemoteAddr().String()), log.Str("filter", filter))

	// The reader exists only to notice the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				sub.Cancel()
				return
			}
		}
	}()

	for e := range sub.C() {
		if err := conn.WriteJSON(e); err != nil {
			sub.Cancel()
			break
		}
	}

	c.logger.Debug("watch client disconnected", log.Str("remote", conn.RemoteAddr().String()))
}
