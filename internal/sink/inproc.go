package sink

import (
	"context"

	"github.com/rzbill/dispatchq/internal/message"
	"github.com/rzbill/dispatchq/pkg/log"
)

// Handler consumes messages delivered by the in-process sink.
type Handler func(ctx context.Context, msg *message.Message) error

// InProc delivers messages to a handler in the same process. With no
// handler configured it accepts everything, which keeps a fresh node
// usable before any destination is wired up.
type InProc struct {
	handler Handler
	logger  log.Logger
}

// NewInProc creates the in-process sink. handler may be nil.
func NewInProc(handler Handler, logger log.Logger) *InProc {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &InProc{handler: handler, logger: logger.WithComponent("sink")}
}

func (s *InProc) Deliver(ctx context.Context, msg *message.Message) error {
	if s.handler == nil {
		s.logger.Debug("message accepted", log.Str("id", msg.ID.String()), log.Str("topic", msg.Topic))
		return nil
	}
	return s.handler(ctx, msg)
}

func (s *InProc) Close() error { return nil }
