package observers

import (
	"github.com/shopmindai/profitshare/internal/model"
	"go.uber.org/zap"
)

type LogObserver struct {
	logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (l *LogObserver) OnSignedRequest(event model.SignedRequestEvent) {
	l.logger.Debug("signed request",
		zap.String("request_id", event.RequestID),
		zap.String("method", event.Method),
		zap.String("route", event.Route),
		zap.Int("status", event.StatusCode),
		zap.Int64("duration_ms", event.DurationMs),
	)
}
