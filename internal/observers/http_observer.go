package observers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/shopmindai/profitshare/internal/model"
)

const (
	maxInFlightPosts = 8
	postTimeout      = 10 * time.Second
)

// HTTPObserver posts each event to a collector URL in the background. At
// most maxInFlightPosts requests run at once; events beyond that are dropped
// and counted rather than queued behind a slow collector.
type HTTPObserver struct {
	url     string
	log     *zap.Logger
	client  *http.Client
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	dropped atomic.Int64
}

func NewHTTPObserver(url string, log *zap.Logger) *HTTPObserver {
	return &HTTPObserver{
		url: url,
		log: log,
		client: &http.Client{
			Timeout: postTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxInFlightPosts,
				MaxIdleConnsPerHost: maxInFlightPosts,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		sem: semaphore.NewWeighted(maxInFlightPosts),
	}
}

func (h *HTTPObserver) OnSignedRequest(event model.SignedRequestEvent) {
	if !h.sem.TryAcquire(1) {
		if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
			h.log.Warn("audit collector busy, dropping events", zap.Int64("dropped", n))
		}
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
		defer cancel()

		if err := h.send(ctx, event); err != nil {
			h.log.Warn("failed to send audit event",
				zap.String("request_id", event.RequestID),
				zap.Error(err),
			)
		}
	}()
}

// Dropped reports how many events were discarded because too many posts
// were in flight.
func (h *HTTPObserver) Dropped() int64 {
	return h.dropped.Load()
}

// Close waits for in-flight posts.
func (h *HTTPObserver) Close() error {
	h.wg.Wait()
	if n := h.dropped.Load(); n > 0 {
		h.log.Info("http observer closed", zap.Int64("dropped", n))
	}
	return nil
}

func (h *HTTPObserver) send(ctx context.Context, event model.SignedRequestEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("collector replied %d: %s", resp.StatusCode, body)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
