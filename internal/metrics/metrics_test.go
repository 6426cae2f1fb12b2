package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveQuery(t *testing.T) {
	m := New()
	m.ObserveQuery("ip_aggregates", time.Now(), nil)
	m.ObserveQuery("ip_aggregates", time.Now(), errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.queryDuration))
}

func TestObserveRequestAndCache(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/ips", 200)
	m.ObserveRequest("/api/ips", 200)
	m.ObserveRequest("", 404)
	m.ObserveCache("ip_aggregates", true)
	m.ObserveCache("ip_aggregates", false)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/ips", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheRequests.WithLabelValues("ip_aggregates", "hit")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveQuery("x", time.Now(), nil)
	m.ObserveRequest("/", 200)
	m.ObserveCache("x", true)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("/health", 200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "honeydash_http_requests_total"))
}
