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

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated("INR")
		m.Settlement("completed")
		m.Refund("completed")
		m.Commission("INR", 10)
		m.ObserveGateway("create_order", time.Now(), nil)
		m.SideEffectFailed("notify")
		m.Webhook("payment.captured", "ok")
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()
	m.Settlement("completed")
	m.Settlement("completed")
	m.Settlement("invalid_signature")
	m.Commission("INR", 29990)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Settlements.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Settlements.WithLabelValues("invalid_signature")))
	assert.Equal(t, 29990.0, testutil.ToFloat64(m.CommissionMinor.WithLabelValues("INR")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveGateway("refund", time.Now(), errors.New("down"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "vibepay_gateway_request_duration_seconds"))
	assert.True(t, strings.Contains(body, `operation="refund"`))
}
