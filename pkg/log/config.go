package log

import (
	"fmt"
	"strings"
)

// Config is the declarative logger configuration carried by the server
// config file and environment.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// ApplyConfig builds a logger from cfg. Empty fields fall back to the
// info level and the text formatter.
func ApplyConfig(cfg *Config) (Logger, error) {
	level := InfoLevel
	if cfg != nil && cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	var formatter Formatter = &TextFormatter{}
	if cfg != nil && cfg.Format != "" {
		switch strings.ToLower(cfg.Format) {
		case "json":
			formatter = &JSONFormatter{}
		case "text":
			formatter = &TextFormatter{}
		default:
			return nil, fmt.Errorf("unknown log format %q", cfg.Format)
		}
	}
	return NewLogger(WithLevel(level), WithFormatter(formatter)), nil
}
