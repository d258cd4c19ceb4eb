package observers

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shopmindai/profitshare/internal/model"
)

// MetricsObserver exports signed upstream calls as Prometheus metrics.
// Status "0" marks calls that failed before a response arrived.
type MetricsObserver struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	factory := promauto.With(reg)

	return &MetricsObserver{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "profitshare",
				Name:      "signed_requests_total",
				Help:      "Signed requests sent to the ProfitShare API",
			},
			[]string{"method", "route", "status_code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "profitshare",
				Name:      "signed_request_duration_milliseconds",
				Help:      "Round trip time of signed requests in milliseconds",
				Buckets:   []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000},
			},
			[]string{"route"},
		),
	}
}

func (m *MetricsObserver) OnSignedRequest(event model.SignedRequestEvent) {
	m.requestsTotal.WithLabelValues(event.Method, event.Route, strconv.Itoa(event.StatusCode)).Inc()
	m.requestDuration.WithLabelValues(event.Route).Observe(float64(event.DurationMs))
}
