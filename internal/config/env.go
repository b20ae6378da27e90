package config

import (
	"os"
	"strconv"
)

// FromEnv overlays DQ_* environment variables onto cfg. Unset or
// unparseable variables leave the current value untouched.
func FromEnv(cfg *Config) {
	envStr("DQ_HTTP_ADDR", &cfg.HTTPAddr)
	envStr("DQ_DATA_DIR", &cfg.DataDir)
	envStr("DQ_LOG_LEVEL", &cfg.Log.Level)
	envStr("DQ_LOG_FORMAT", &cfg.Log.Format)

	envFloat("DQ_QUEUE_MAX_ENQUEUED_TIME_SECS", &cfg.Queue.MaxEnqueuedTimeSecs)
	envFloat("DQ_QUEUE_MAX_PROCESSING_TIME_SECS", &cfg.Queue.MaxProcessingTimeSecs)
	envInt("DQ_QUEUE_TICK_MS", &cfg.Queue.TickMs)
	envInt("DQ_QUEUE_MAX_DELIVERY_ATTEMPTS", &cfg.Queue.MaxDeliveryAttempts)

	envStr("DQ_SINK_KIND", &cfg.Sink.Kind)
	envInt("DQ_SINK_WORKERS", &cfg.Sink.Workers)
	envInt("DQ_SINK_BUFFER", &cfg.Sink.Buffer)
	envStr("DQ_SINK_AMQP_URL", &cfg.Sink.AMQP.URL)
	envStr("DQ_SINK_AMQP_EXCHANGE", &cfg.Sink.AMQP.Exchange)
	envStr("DQ_SINK_AMQP_QUEUE", &cfg.Sink.AMQP.Queue)
	envStr("DQ_SINK_AMQP_ROUTING_KEY", &cfg.Sink.AMQP.RoutingKey)
	envStr("DQ_SINK_REDIS_ADDR", &cfg.Sink.Redis.Addr)
	envStr("DQ_SINK_REDIS_PASSWORD", &cfg.Sink.Redis.Password)
	envInt("DQ_SINK_REDIS_DB", &cfg.Sink.Redis.DB)
	envStr("DQ_SINK_REDIS_KEY", &cfg.Sink.Redis.Key)

	envStr("DQ_ARCHIVE_BACKEND", &cfg.Archive.Backend)
	envStr("DQ_ARCHIVE_POSTGRES_DSN", &cfg.Archive.Postgres.DSN)
	envStr("DQ_ARCHIVE_RETENTION", &cfg.Archive.Retention)
	envStr("DQ_ARCHIVE_TRIM_SCHEDULE", &cfg.Archive.TrimSchedule)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
