package log

import (
	stdlog "log"
	"strings"
)

// RedirectStdLog routes the standard library's default logger into logger
// at Info level. Dependencies that log through package log (pebble's
// default event listener, net/http error paths) end up in the structured
// stream instead of raw stderr.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdLogWriter{logger: logger.WithComponent("stdlog")})
}

type stdLogWriter struct {
	logger Logger
}

func (w stdLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.Info(msg)
	}
	return len(p), nil
}
