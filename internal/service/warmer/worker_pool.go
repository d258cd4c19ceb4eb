// Package warmer pre-fills the product cache in the background so the
// first shoppers of a popular advertiser do not wait on the upstream.
package warmer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/model"
)

// Lister is the cached listing the pool warms.
type Lister interface {
	ListProducts(ctx context.Context, params model.ListProductsParams) (*model.ProductResponse, error)
}

// WorkerPool fetches submitted listings with a fixed number of workers.
type WorkerPool struct {
	lister         Lister
	tasks          chan model.ListProductsParams
	wg             sync.WaitGroup
	logger         *zap.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	workers        int
	activeWorkers  int32
	queueSize      int
	droppedTasks   uint64
	processedTasks uint64
	failedTasks    uint64

	mu     sync.RWMutex
	closed bool
}

func NewWorkerPool(lister Lister, workers int, queueSize int, logger *zap.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	return &WorkerPool{
		lister:    lister,
		tasks:     make(chan model.ListProductsParams, queueSize),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		workers:   workers,
		queueSize: queueSize,
	}
}

func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	wp.logger.Info("cache warmer started",
		zap.Int("workers", wp.workers),
		zap.Int("queue_size", wp.queueSize),
	)
}

func (wp *WorkerPool) closeQueue() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if !wp.closed {
		wp.closed = true
		close(wp.tasks)
	}
}

// Drain stops accepting tasks and waits for the queued ones to finish.
func (wp *WorkerPool) Drain() {
	wp.closeQueue()
	wp.wg.Wait()
	wp.cancel()
}

// Close abandons queued tasks, cancels in-flight fetches and waits for the
// workers to exit.
func (wp *WorkerPool) Close() error {
	wp.cancel()
	wp.closeQueue()
	wp.wg.Wait()

	active, queued, dropped, processed, failed := wp.Stats()
	wp.logger.Info("cache warmer stopped",
		zap.Int("active_workers", active),
		zap.Int("queue_length", queued),
		zap.Uint64("processed_tasks", processed),
		zap.Uint64("failed_tasks", failed),
		zap.Uint64("dropped_tasks", dropped),
	)
	return nil
}

func (wp *WorkerPool) Stats() (activeWorkers int, queueLength int, droppedTasks, processedTasks, failedTasks uint64) {
	return int(atomic.LoadInt32(&wp.activeWorkers)),
		len(wp.tasks),
		atomic.LoadUint64(&wp.droppedTasks),
		atomic.LoadUint64(&wp.processedTasks),
		atomic.LoadUint64(&wp.failedTasks)
}

// Submit queues params without blocking; it reports false when the queue
// is full or the pool is stopped.
func (wp *WorkerPool) Submit(params model.ListProductsParams) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed || wp.ctx.Err() != nil {
		atomic.AddUint64(&wp.droppedTasks, 1)
		return false
	}

	select {
	case wp.tasks <- params:
		return true
	default:
		atomic.AddUint64(&wp.droppedTasks, 1)
		wp.logger.Warn("cache warmer queue is full, dropping listing",
			zap.Int("page", params.Page),
			zap.String("advertiser", params.Advertisers),
		)
		return false
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case params, ok := <-wp.tasks:
			if !ok {
				return
			}
			wp.process(id, params)

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) process(id int, params model.ListProductsParams) {
	atomic.AddInt32(&wp.activeWorkers, 1)
	defer atomic.AddInt32(&wp.activeWorkers, -1)

	start := time.Now()
	_, err := wp.lister.ListProducts(wp.ctx, params)
	atomic.AddUint64(&wp.processedTasks, 1)

	if err != nil {
		atomic.AddUint64(&wp.failedTasks, 1)
		wp.logger.Warn("failed to warm listing",
			zap.Int("worker_id", id),
			zap.Int("page", params.Page),
			zap.String("advertiser", params.Advertisers),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	wp.logger.Debug("listing warmed",
		zap.Int("worker_id", id),
		zap.Int("page", params.Page),
		zap.String("advertiser", params.Advertisers),
		zap.Duration("duration", time.Since(start)),
	)
}

// Plan lists the first pages of every advertiser: pages 1..pages for each.
func Plan(advertisers []string, pages int) []model.ListProductsParams {
	if pages < 1 {
		return nil
	}
	plan := make([]model.ListProductsParams, 0, len(advertisers)*pages)
	for _, advertiser := range advertisers {
		for page := 1; page <= pages; page++ {
			plan = append(plan, model.ListProductsParams{Page: page, Advertisers: advertiser})
		}
	}
	return plan
}
