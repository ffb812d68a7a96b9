package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSlotOperation(t *testing.T) {
	m := New()

	m.ObserveSlotOperation("add_offers", 3, nil)
	m.ObserveSlotOperation("add_offers", 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotOperations.WithLabelValues("add_offers", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotOperations.WithLabelValues("add_offers", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.slotTokens.WithLabelValues("add_offers")))
}

func TestHandlerExposesRequests(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/time-choices", http.StatusOK, 5*time.Millisecond)
	m.RecordCacheLookup(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/time-choices",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `calendar_cache_lookups_total{result="hit"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.ObserveSlotOperation("assign", 1, nil)
	m.RecordCacheLookup(false)
	m.ObserveTemplateCopy("staff", nil)
	m.ObserveNotification("sent")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
