package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rzbill/dispatchq/internal/message"
	"github.com/rzbill/dispatchq/pkg/log"
)

// RedisOptions configures the Redis list sink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Key is the destination list. Consumers pop with BRPOP, so pushes
	// go to the left. Empty selects "dispatchq:out".
	Key    string
	Logger log.Logger
}

// RedisSink pushes dispatched messages onto a Redis list.
type RedisSink struct {
	client *redis.Client
	key    string
	logger log.Logger
}

// NewRedis connects and verifies the server is reachable.
func NewRedis(opts RedisOptions) (*RedisSink, error) {
	if opts.Addr == "" {
		return nil, errors.New("sink: redis address is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sink: connect redis: %w", err)
	}

	key := opts.Key
	if key == "" {
		key = "dispatchq:out"
	}
	s := &RedisSink{
		client: client,
		key:    key,
		logger: logger.WithComponent("sink"),
	}
	s.logger.Debug("Redis sink ready", log.Str("addr", opts.Addr), log.Str("key", key))
	return s, nil
}

func (s *RedisSink) Deliver(ctx context.Context, msg *message.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("sink: encode message: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, body).Err(); err != nil {
		return Retryable(fmt.Errorf("sink: lpush: %w", err))
	}
	return nil
}

func (s *RedisSink) Close() error { return s.client.Close() }
