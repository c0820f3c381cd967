// Package metrics exposes the service's Prometheus collectors. All recording
// methods are safe on a nil *Metrics, so components can run without metrics
// in tests.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "loyalty"

type Metrics struct {
	redemptions   *prometheus.CounterVec
	verifications *prometheus.CounterVec
	awards        prometheus.Counter
	notifications *prometheus.CounterVec
	stock         *prometheus.GaugeVec
	rpcRequests   *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	throttles     *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	defaultReg  *Metrics
)

// Default returns the lazily registered metrics on the global Prometheus
// registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultReg = New(prometheus.DefaultRegisterer)
	})
	return defaultReg
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redemptions_total",
			Help:      "Coupon redemption attempts by class and outcome.",
		}, []string{"class", "outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Device binding attempts by outcome.",
		}, []string{"outcome"}),
		awards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referral_awards_total",
			Help:      "Referral bonuses credited.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outgoing notifications by outcome (sent, failed, dropped).",
		}, []string{"outcome"}),
		stock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coupon_stock",
			Help:      "Unused coupons per class at the last stock check.",
		}, []string{"class"}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "gRPC requests by method and status code.",
		}, []string{"method", "code"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "gRPC handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "throttles_total",
			Help:      "HTTP requests rejected by the rate limiter.",
		}, []string{"route"}),
	}
	reg.MustRegister(m.redemptions, m.verifications, m.awards, m.notifications,
		m.stock, m.rpcRequests, m.rpcLatency, m.throttles)
	return m
}

// Redemption records one redemption attempt. outcome is "ok" or an error
// kind such as "OutOfStock".
func (m *Metrics) Redemption(class, outcome string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(class, outcome).Inc()
}

func (m *Metrics) Verification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ReferralAward() {
	if m == nil {
		return
	}
	m.awards.Inc()
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Stock(class string, n int) {
	if m == nil {
		return
	}
	m.stock.WithLabelValues(class).Set(float64(n))
}

// RPC records a finished gRPC call.
func (m *Metrics) RPC(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, code).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) Throttle(route string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(route).Inc()
}
