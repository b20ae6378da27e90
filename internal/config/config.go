package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/rzbill/dispatchq/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr string        `json:"httpAddr" yaml:"httpAddr"`
	DataDir  string        `json:"dataDir" yaml:"dataDir"`
	Log      log.Config    `json:"log" yaml:"log"`
	Queue    QueueConfig   `json:"queue" yaml:"queue"`
	Sink     SinkConfig    `json:"sink" yaml:"sink"`
	Archive  ArchiveConfig `json:"archive" yaml:"archive"`
}

// QueueConfig tunes the dispatch queue. The two *Secs thresholds map
// directly onto the queue's timeout options; zero disables a threshold.
type QueueConfig struct {
	MaxEnqueuedTimeSecs   float64 `json:"maxEnqueuedTimeSecs" yaml:"maxEnqueuedTimeSecs"`
	MaxProcessingTimeSecs float64 `json:"maxProcessingTimeSecs" yaml:"maxProcessingTimeSecs"`
	TickMs                int     `json:"tickMs" yaml:"tickMs"`
	MaxDeliveryAttempts   int     `json:"maxDeliveryAttempts" yaml:"maxDeliveryAttempts"`
}

// MaxEnqueuedTime returns the residency threshold as a duration.
func (q QueueConfig) MaxEnqueuedTime() time.Duration {
	return time.Duration(q.MaxEnqueuedTimeSecs * float64(time.Second))
}

// MaxProcessingTime returns the processing threshold as a duration.
func (q QueueConfig) MaxProcessingTime() time.Duration {
	return time.Duration(q.MaxProcessingTimeSecs * float64(time.Second))
}

// Tick returns the do-work interval.
func (q QueueConfig) Tick() time.Duration {
	return time.Duration(q.TickMs) * time.Millisecond
}

// SinkConfig selects and tunes the delivery sink.
type SinkConfig struct {
	Kind    string      `json:"kind" yaml:"kind"` // inproc | amqp | redis
	Workers int         `json:"workers" yaml:"workers"`
	Buffer  int         `json:"buffer" yaml:"buffer"`
	AMQP    AMQPConfig  `json:"amqp" yaml:"amqp"`
	Redis   RedisConfig `json:"redis" yaml:"redis"`
}

// AMQPConfig carries RabbitMQ connection settings.
type AMQPConfig struct {
	URL        string `json:"url" yaml:"url"`
	Exchange   string `json:"exchange" yaml:"exchange"`
	Queue      string `json:"queue" yaml:"queue"`
	RoutingKey string `json:"routingKey" yaml:"routingKey"`
}

// RedisConfig carries Redis connection settings.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Key      string `json:"key" yaml:"key"`
}

// ArchiveConfig selects the completion archive backend and retention.
type ArchiveConfig struct {
	Backend      string         `json:"backend" yaml:"backend"` // pebble | postgres
	Postgres     PostgresConfig `json:"postgres" yaml:"postgres"`
	Retention    string         `json:"retention" yaml:"retention"`       // Go duration, e.g. "24h"
	TrimSchedule string         `json:"trimSchedule" yaml:"trimSchedule"` // cron spec, e.g. "@every 5m"
}

// PostgresConfig carries the archive DSN for the postgres backend.
type PostgresConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

// RetentionDuration parses the retention window. Empty means keep
// everything.
func (a ArchiveConfig) RetentionDuration() (time.Duration, error) {
	if a.Retention == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Retention)
	if err != nil {
		return 0, fmt.Errorf("archive retention: %w", err)
	}
	return d, nil
}

// Default returns built-in defaults: HTTP on :8080, text logs at info,
// a 250ms tick, a 30s processing budget so stuck deliveries get
// reclaimed, the inproc sink, and a pebble archive trimmed to 24h.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Log:      log.Config{Level: "info", Format: "text"},
		Queue: QueueConfig{
			MaxProcessingTimeSecs: 30,
			TickMs:                250,
			MaxDeliveryAttempts:   3,
		},
		Sink: SinkConfig{
			Kind:    "inproc",
			Workers: 4,
			Buffer:  256,
		},
		Archive: ArchiveConfig{
			Backend:      "pebble",
			Retention:    "24h",
			TrimSchedule: "@every 5m",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension),
// layered over defaults. An empty path returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate rejects configurations the runtime cannot start from.
func (c Config) Validate() error {
	switch c.Sink.Kind {
	case "inproc", "amqp", "redis":
	default:
		return fmt.Errorf("unknown sink kind %q", c.Sink.Kind)
	}
	switch c.Archive.Backend {
	case "pebble", "postgres":
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}
	if c.Queue.TickMs <= 0 {
		return fmt.Errorf("queue tickMs must be positive")
	}
	if c.Queue.MaxDeliveryAttempts < 1 {
		return fmt.Errorf("queue maxDeliveryAttempts must be at least 1")
	}
	if _, err := c.Archive.RetentionDuration(); err != nil {
		return err
	}
	return nil
}
