package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rzbill/dispatchq/internal/message"
	"github.com/rzbill/dispatchq/pkg/log"
)

// AMQPOptions configures the RabbitMQ sink.
type AMQPOptions struct {
	URL string
	// Exchange to publish through. Empty publishes via the default
	// exchange straight to Queue.
	Exchange string
	// Queue is declared durable and, when Exchange is set, bound to it.
	Queue      string
	RoutingKey string
	Logger     log.Logger
}

// AMQPSink publishes dispatched messages to RabbitMQ as persistent
// JSON deliveries.
type AMQPSink struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	mu         sync.Mutex // amqp channels are not safe for concurrent publish
	exchange   string
	routingKey string
	logger     log.Logger
}

// NewAMQP dials the broker and declares the destination topology.
func NewAMQP(opts AMQPOptions) (*AMQPSink, error) {
	if opts.URL == "" {
		return nil, errors.New("sink: amqp URL is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	conn, err := amqp.Dial(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("sink: dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sink: open channel: %w", err)
	}

	queue := opts.Queue
	if queue == "" {
		queue = "dispatchq"
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("sink: declare queue: %w", err)
	}

	exchange := opts.Exchange
	routingKey := opts.RoutingKey
	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("sink: declare exchange: %w", err)
		}
		if routingKey == "" {
			routingKey = queue
		}
		if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("sink: bind queue: %w", err)
		}
	} else {
		routingKey = queue
	}

	s := &AMQPSink{
		conn:       conn,
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger.WithComponent("sink"),
	}
	s.logger.Debug("AMQP sink ready", log.Str("queue", queue), log.Str("exchange", exchange))
	return s, nil
}

func (s *AMQPSink) Deliver(ctx context.Context, msg *message.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("sink: encode message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.ch.PublishWithContext(ctx,
		s.exchange,
		s.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    msg.ID.String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return Retryable(fmt.Errorf("sink: publish: %w", err))
	}
	return nil
}

func (s *AMQPSink) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
