// Package server wires the product proxy together and runs it until the
// process is told to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/config"
	"github.com/shopmindai/profitshare/internal/config/db"
	"github.com/shopmindai/profitshare/internal/handler"
	"github.com/shopmindai/profitshare/internal/observers"
	"github.com/shopmindai/profitshare/internal/profitshare"
	"github.com/shopmindai/profitshare/internal/repository/dbstorage"
	"github.com/shopmindai/profitshare/internal/repository/memstorage"
	"github.com/shopmindai/profitshare/internal/repository/redisstorage"
	"github.com/shopmindai/profitshare/internal/service"
	"github.com/shopmindai/profitshare/internal/service/productservice"
	"github.com/shopmindai/profitshare/internal/service/warmer"
)

const (
	shutdownTimeout = 30 * time.Second
	drainTimeout    = 10 * time.Second
	sweepInterval   = time.Minute
)

type Server struct {
	cfg       *config.ServerFlags
	log       *zap.Logger
	resources *ResourceGroup
	storage   service.Storage
	handler   http.Handler
	registry  *prometheus.Registry
	warmer    *warmer.WorkerPool

	activeRequests sync.WaitGroup
	shutdownCh     chan struct{}
}

// NewApp builds storage, the audit pipeline, the signing client and the
// router. Everything opened here is released by Close.
func NewApp(ctx context.Context, cfg *config.ServerFlags, log *zap.Logger, opts ...profitshare.Option) (*Server, error) {
	app := &Server{
		cfg:        cfg,
		log:        log,
		resources:  NewResourceGroup(log),
		registry:   prometheus.NewRegistry(),
		shutdownCh: make(chan struct{}),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.storage = app.storageInitializer(ctx)
	app.resources.Register(app.storage)

	publisher, err := app.publisherInitializer()
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("audit initialization error: %w", err)
	}

	opts = append([]profitshare.Option{profitshare.WithPublisher(publisher)}, opts...)
	client, err := profitshare.NewClient(&cfg.Upstream, log, opts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("profitshare client initialization error: %w", err)
	}

	productService := productservice.NewProductService(client, app.storage, cfg.CacheTTL, log)

	if len(cfg.WarmAdvertisers) > 0 && cfg.CacheTTL > 0 {
		if err := cfg.ValidateWarming(); err != nil {
			_ = app.Close()
			return nil, err
		}
		queueSize := len(cfg.WarmAdvertisers) * cfg.WarmPages
		app.warmer = warmer.NewWorkerPool(productService, cfg.WarmWorkers, queueSize, log)
		app.resources.Register(app.warmer)
	}

	app.handler = handler.SetupHandler(
		app.storage,
		productService,
		app.registry,
		&app.activeRequests,
		log,
		app.shutdownCh,
		*cfg,
	)
	return app, nil
}

func (a *Server) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// stops accepting requests and waits for in-flight ones.
func (a *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.ServerAddr, err)
	}

	httpServer := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("addr", listener.Addr().String()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	a.warmCache()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	a.log.Info("graceful shutdown initiated")
	close(a.shutdownCh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server shutdown failed", zap.Error(err))
	}

	a.log.Info("waiting for active requests to complete...")
	waitDone := make(chan struct{})
	go func() {
		a.activeRequests.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		a.log.Info("all requests completed")
	case <-time.After(drainTimeout):
		a.log.Warn("timeout waiting for requests")
	}

	a.log.Info("server stopped gracefully")
	return nil
}

// warmCache queues the configured advertiser pages. Fetches run in the
// background and stop when the server is closed.
func (a *Server) warmCache() {
	if a.warmer == nil {
		return
	}

	a.warmer.Start()
	for _, params := range warmer.Plan(a.cfg.WarmAdvertisers, a.cfg.WarmPages) {
		a.warmer.Submit(params)
	}
}

func (a *Server) Close() error {
	return a.resources.CloseAll()
}

// storageInitializer prefers PostgreSQL, then Redis, and falls back to
// memory when neither is configured or reachable.
func (a *Server) storageInitializer(ctx context.Context) service.Storage {
	if a.cfg.DatabaseDSN == "" && a.cfg.RedisURL == "" {
		a.log.Info("No database DSN or redis URL provided, using in-memory storage")
		return memstorage.NewMemStorage(sweepInterval, a.log)
	}

	if a.cfg.DatabaseDSN == "" {
		storage, err := redisstorage.Connect(ctx, a.cfg.RedisURL, a.log)
		if err != nil {
			a.log.Warn("Failed to connect to redis, falling back to in-memory storage", zap.Error(err))
			return memstorage.NewMemStorage(sweepInterval, a.log)
		}
		return storage
	}

	dbase, err := db.Open(ctx, a.cfg.DatabaseDSN, db.DefaultPoolOptions, a.log)
	if err != nil {
		a.log.Warn("Failed to connect to DB, falling back to in-memory storage", zap.Error(err))
		return memstorage.NewMemStorage(sweepInterval, a.log)
	}

	if err := dbase.Migrate(a.cfg.Migrations); err != nil {
		a.log.Error("migration failed, falling back to in-memory storage", zap.Error(err))
		_ = dbase.Close()
		return memstorage.NewMemStorage(sweepInterval, a.log)
	}

	return dbstorage.NewDBStorage(dbase.Pool, a.log)
}

func (a *Server) publisherInitializer() (*observers.Publisher, error) {
	publisher := observers.NewEventPublisher(
		observers.NewLogObserver(a.log),
		observers.NewMetricsObserver(a.registry),
	)

	if path := a.cfg.Upstream.AuditFile; path != "" {
		fileObserver, err := observers.NewFileObserver(path, a.log)
		if err != nil {
			return nil, err
		}
		a.resources.Register(fileObserver)
		publisher.Register(fileObserver)
	}

	if url := a.cfg.Upstream.AuditURL; url != "" {
		httpObserver := observers.NewHTTPObserver(url, a.log)
		a.resources.Register(httpObserver)
		publisher.Register(httpObserver)
	}

	return publisher, nil
}
