package observers

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsObserver(reg)

	ok := sampleEvent()
	failed := sampleEvent()
	failed.StatusCode = 0

	m.OnSignedRequest(ok)
	m.OnSignedRequest(ok)
	m.OnSignedRequest(failed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "affiliate-products/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "affiliate-products/", "0")))

	count, err := testutil.GatherAndCount(reg, "profitshare_signed_request_duration_milliseconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
