package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics captures referral ledger activity. A nil *Metrics records nothing.
type Metrics struct {
	codesIssued         prometheus.Counter
	referralsRegistered prometheus.Counter
	settlements         *prometheus.CounterVec
	commissionCents     prometheus.Counter
	commissionsPaid     prometheus.Counter
	reconcileDrift      prometheus.Gauge
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registers the ledger collectors on registerer (the default registerer when nil).
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referral_codes_issued_total",
			Help: "Referral codes issued",
		}),
		referralsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referrals_registered_total",
			Help: "Referrals registered against a code",
		}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_settlements_total",
			Help: "Settlement attempts by outcome",
		}, []string{"outcome"}),
		commissionCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referral_commission_cents_total",
			Help: "Commission credited by settlements, in minor units",
		}),
		commissionsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referral_commissions_paid_total",
			Help: "Commissions marked paid",
		}),
		reconcileDrift: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "referral_reconcile_drift_codes",
			Help: "Codes whose counters disagree with their referrals at the last reconciliation",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	registerer.MustRegister(
		m.codesIssued,
		m.referralsRegistered,
		m.settlements,
		m.commissionCents,
		m.commissionsPaid,
		m.reconcileDrift,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) CodeIssued() {
	if m == nil {
		return
	}
	m.codesIssued.Inc()
}

func (m *Metrics) ReferralRegistered() {
	if m == nil {
		return
	}
	m.referralsRegistered.Inc()
}

// Settlement records one settlement attempt and the commission it credited.
func (m *Metrics) Settlement(outcome string, commissionCents int64) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
	if commissionCents > 0 {
		m.commissionCents.Add(float64(commissionCents))
	}
}

func (m *Metrics) CommissionPaid() {
	if m == nil {
		return
	}
	m.commissionsPaid.Inc()
}

func (m *Metrics) ReconcileDrift(codes int) {
	if m == nil {
		return
	}
	m.reconcileDrift.Set(float64(codes))
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
