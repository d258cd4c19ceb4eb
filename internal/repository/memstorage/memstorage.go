package memstorage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/service"
)

var _ service.Storage = (*memStorage)(nil)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

type memStorage struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	log     *zap.Logger

	ticker    *time.Ticker
	done      chan struct{}
	sweeper   sync.WaitGroup
	closeOnce sync.Once
}

// NewMemStorage returns an in-process cache. A positive sweepInterval
// starts a goroutine dropping expired entries until Close.
func NewMemStorage(sweepInterval time.Duration, log *zap.Logger) *memStorage {
	storage := &memStorage{
		entries: make(map[string]entry),
		now:     time.Now,
		log:     log,
		done:    make(chan struct{}),
	}

	if sweepInterval > 0 {
		storage.startSweeper(sweepInterval)
	}
	return storage
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		return nil, service.ErrCacheMiss
	}

	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out, nil
}

func (m *memStorage) Put(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{payload: stored, expiresAt: m.now().Add(ttl)}
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *memStorage) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *memStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *memStorage) startSweeper(interval time.Duration) {
	m.ticker = time.NewTicker(interval)

	m.sweeper.Add(1)
	go func() {
		defer m.sweeper.Done()
		for {
			select {
			case <-m.ticker.C:
				if n := m.Sweep(); n > 0 {
					m.log.Debug("expired cache entries removed", zap.Int("count", n))
				}
			case <-m.done:
				m.log.Info("cache sweeper stopped")
				return
			}
		}
	}()
}

func (m *memStorage) Close() error {
	m.closeOnce.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
		m.sweeper.Wait()
	})
	return nil
}
