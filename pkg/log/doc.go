// Package log provides DispatchQ's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Entries flow through a Formatter
// (text or JSON) into one or more Outputs. Loggers derived with With share
// their level with the parent, so a runtime level change applies to every
// component logger at once.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("server"))
//	l.Info("listening", log.Str("addr", ":8080"))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level and format
// strings), which is how file and environment configuration reach the
// logger.
//
// # Interop
//
// RedirectStdLog routes the standard library logger into a Logger, which
// captures output from dependencies that log through package log (pebble
// among them).
package log
