// Package ping serves the liveness probe of the product proxy.
package ping

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/service"
)

const pingTimeout = 3 * time.Second

type PingHandler struct {
	log     *zap.Logger
	storage service.Storage
}

func NewPingHandler(log *zap.Logger, storage service.Storage) *PingHandler {
	return &PingHandler{
		log:     log,
		storage: storage,
	}
}

type pingResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// GetPing answers 200 when the cache backend is reachable and 503 when its
// health check fails. Backends without a health check (the in-memory cache)
// are always healthy.
func (h *PingHandler) GetPing(w http.ResponseWriter, r *http.Request) {
	hs, ok := h.storage.(service.HealthStorage)
	if !ok {
		h.write(w, http.StatusOK, pingResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := hs.Ping(ctx); err != nil {
		h.log.Warn("cache backend ping failed", zap.Error(err))
		h.write(w, http.StatusServiceUnavailable, pingResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	h.write(w, http.StatusOK, pingResponse{Status: "ok"})
}

func (h *PingHandler) write(w http.ResponseWriter, status int, body pingResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Debug("failed to write ping response", zap.Error(err))
	}
}
