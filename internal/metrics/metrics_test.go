package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CodeIssued()
	m.ReferralRegistered()
	m.ReferralRegistered()
	m.Settlement("settled", 40000)
	m.Settlement("not_pending", 0)
	m.CommissionPaid()
	m.ReconcileDrift(3)
	m.ObserveHTTP(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.codesIssued))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.referralsRegistered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("settled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("not_pending")))
	assert.Equal(t, 40000.0, testutil.ToFloat64(m.commissionCents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commissionsPaid))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconcileDrift))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/healthz", "200")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CodeIssued()
		m.Settlement("settled", 1)
		m.ObserveHTTP("GET", "/", 200, time.Second)
	})
}
