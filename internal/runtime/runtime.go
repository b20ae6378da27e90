package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rzbill/dispatchq/internal/archive"
	cfgpkg "github.com/rzbill/dispatchq/internal/config"
	"github.com/rzbill/dispatchq/internal/dispatch"
	"github.com/rzbill/dispatchq/internal/events"
	"github.com/rzbill/dispatchq/internal/message"
	"github.com/rzbill/dispatchq/internal/sink"
	pebblestore "github.com/rzbill/dispatchq/internal/storage/pebble"
	"github.com/rzbill/dispatchq/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	// DataDir overrides the config data directory.
	DataDir string
	// Fsync selects the archive WAL sync policy.
	Fsync pebblestore.FsyncMode
	// FsyncInterval bounds group-commit latency when Fsync is interval.
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Logger        log.Logger
	// Sink overrides config-driven sink construction. Used by embedders
	// and tests.
	Sink sink.Sink
}

const (
	defaultDeliveryBuffer = 256
	completionBuffer      = 1024
)

// Runtime wires the queue, sink workers, archive and event hub for a
// single-node instance.
type Runtime struct {
	cfg    cfgpkg.Config
	logger log.Logger

	mu    sync.Mutex
	queue *dispatch.Queue[*message.Message]

	enqueued           uint64
	completedByOutcome map[string]uint64

	sink sink.Sink
	arch archive.Archive
	hub  *events.Hub
	cron *cron.Cron

	deliveries  chan *message.Message
	completions chan completionRecord

	baseCtx context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}

	tickWG    sync.WaitGroup
	workerWG  sync.WaitGroup
	archiveWG sync.WaitGroup

	closed bool
}

// Open builds the runtime and starts its background loops.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = logger.WithComponent("runtime")

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}

	s := opts.Sink
	if s == nil {
		var err error
		s, err = buildSink(cfg.Sink, logger)
		if err != nil {
			return nil, err
		}
	}

	arch, err := buildArchive(cfg.Archive, dataDir, opts.Fsync, opts.FsyncInterval, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	buffer := cfg.Sink.Buffer
	if buffer <= 0 {
		buffer = defaultDeliveryBuffer
	}
	workers := cfg.Sink.Workers
	if workers <= 0 {
		workers = 1
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		cfg:                cfg,
		logger:             logger,
		completedByOutcome: make(map[string]uint64),
		sink:               s,
		arch:               arch,
		hub:                events.NewHub(logger),
		deliveries:         make(chan *message.Message, buffer),
		completions:        make(chan completionRecord, completionBuffer),
		baseCtx:            baseCtx,
		cancel:             cancel,
		stopCh:             make(chan struct{}),
	}

	q, err := dispatch.New(dispatch.Config[*message.Message]{
		OnProcess:  rt.process,
		OnComplete: rt.onQueueComplete,
		Logger:     logger,
	})
	if err != nil {
		rt.cancel()
		_ = arch.Close()
		_ = s.Close()
		return nil, err
	}
	rt.queue = q

	if d := cfg.Queue.MaxEnqueuedTime(); d > 0 {
		if err := q.SetOption(dispatch.OptionMaxEnqueuedTime, d); err != nil {
			rt.cancel()
			_ = arch.Close()
			_ = s.Close()
			return nil, err
		}
	}
	if d := cfg.Queue.MaxProcessingTime(); d > 0 {
		if err := q.SetOption(dispatch.OptionMaxProcessingTime, d); err != nil {
			rt.cancel()
			_ = arch.Close()
			_ = s.Close()
			return nil, err
		}
	}

	if err := rt.startTrim(); err != nil {
		rt.cancel()
		_ = arch.Close()
		_ = s.Close()
		return nil, err
	}

	rt.tickWG.Add(1)
	go rt.tickLoop(cfg.Queue.Tick())
	for i := 0; i < workers; i++ {
		rt.workerWG.Add(1)
		go rt.deliveryWorker()
	}
	rt.archiveWG.Add(1)
	go rt.completionLoop()

	logger.Info("runtime started",
		log.Str("data_dir", dataDir),
		log.Str("sink", cfg.Sink.Kind),
		log.Str("archive", cfg.Archive.Backend),
		log.Int("workers", workers))
	return rt, nil
}

func buildSink(cfg cfgpkg.SinkConfig, logger log.Logger) (sink.Sink, error) {
	switch cfg.Kind {
	case "", "inproc":
		return sink.NewInProc(nil, logger), nil
	case "amqp":
		return sink.NewAMQP(sink.AMQPOptions{
			URL:        cfg.AMQP.URL,
			Exchange:   cfg.AMQP.Exchange,
			Queue:      cfg.AMQP.Queue,
			RoutingKey: cfg.AMQP.RoutingKey,
			Logger:     logger,
		})
	case "redis":
		return sink.NewRedis(sink.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("runtime: unknown sink kind %q", cfg.Kind)
	}
}

func buildArchive(cfg cfgpkg.ArchiveConfig, dataDir string, fsync pebblestore.FsyncMode, fsyncInterval time.Duration, logger log.Logger) (archive.Archive, error) {
	switch cfg.Backend {
	case "", "pebble":
		return archive.OpenPebble(archive.PebbleOptions{
			DataDir:       filepath.Join(dataDir, "archive"),
			Fsync:         fsync,
			FsyncInterval: fsyncInterval,
			Logger:        logger,
		})
	case "postgres":
		return archive.OpenPostgres(cfg.Postgres.DSN, logger)
	default:
		return nil, fmt.Errorf("runtime: unknown archive backend %q", cfg.Backend)
	}
}

// startTrim schedules the retention trim when retention is configured.
func (r *Runtime) startTrim() error {
	retention, err := r.cfg.Archive.RetentionDuration()
	if err != nil {
		return err
	}
	if retention <= 0 {
		return nil
	}
	schedule := r.cfg.Archive.TrimSchedule
	if schedule == "" {
		schedule = "@every 5m"
	}
	c := cron.New()
	_, err = c.AddFunc(schedule, func() {
		cutoff := time.Now().Add(-retention)
		n, err := r.arch.TrimBefore(context.Background(), cutoff)
		if err != nil {
			r.logger.Warn("archive trim failed", log.Err(err))
			return
		}
		if n > 0 {
			r.logger.Info("archive trimmed", log.Int("deleted", n))
		}
	})
	if err != nil {
		return fmt.Errorf("runtime: trim schedule: %w", err)
	}
	c.Start()
	r.cron = c
	return nil
}

// Close drains the queue, stops the loops and releases resources. Items
// still tracked complete with the cancelled outcome before shutdown.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if r.cron != nil {
		r.cron.Stop()
	}

	close(r.stopCh)
	r.tickWG.Wait()

	r.mu.Lock()
	r.queue.Close()
	r.mu.Unlock()

	r.cancel()
	close(r.deliveries)
	r.workerWG.Wait()

	close(r.completions)
	r.archiveWG.Wait()

	r.hub.Close()

	var errs []error
	if err := r.sink.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.arch.Close(); err != nil {
		errs = append(errs, err)
	}
	r.logger.Info("runtime stopped")
	return errors.Join(errs...)
}

// CheckHealth performs a simple liveness check against the archive.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return errRuntimeClosed
	}
	_, err := r.arch.Stats(ctx)
	return err
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.cfg }
