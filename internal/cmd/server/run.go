package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	cfgpkg "github.com/rzbill/dispatchq/internal/config"
	"github.com/rzbill/dispatchq/internal/runtime"
	httpserver "github.com/rzbill/dispatchq/internal/server/http"
	pebblestore "github.com/rzbill/dispatchq/internal/storage/pebble"
	logpkg "github.com/rzbill/dispatchq/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type Options struct {
	DataDir       string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Run starts the runtime and HTTP server and blocks until ctx is
// cancelled or the server fails.
func Run(ctx context.Context, opts Options) error {
	// Stop on SIGINT/SIGTERM as well as ctx cancellation.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCfg := &logpkg.Config{
		Level:  getenvDefault("DQ_LOG_LEVEL", "info"),
		Format: getenvDefault("DQ_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		procLogger = logpkg.NewLogger(logpkg.WithFormatter(&logpkg.TextFormatter{}))
		procLogger.Warn("Ignoring invalid log settings", logpkg.Err(err))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Logger:        procLogger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	httpAddr := opts.HTTPAddr
	if httpAddr == "" {
		httpAddr = opts.Config.HTTPAddr
	}

	procLogger.Info("Starting DispatchQ server",
		logpkg.Str("http", httpAddr),
		logpkg.Str("sink", opts.Config.Sink.Kind),
		logpkg.Str("archive", opts.Config.Archive.Backend),
		logpkg.Str("level", logCfg.Level),
		logpkg.Str("format", logCfg.Format),
	)

	hsrv := httpserver.New(rt, procLogger)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, httpAddr); err != nil && sctx.Err() == nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-sctx.Done():
	case runErr = <-errCh:
	}
	hsrv.Close()
	wg.Wait()
	return runErr
}
