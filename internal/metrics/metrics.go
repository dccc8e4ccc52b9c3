package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/service"
	"github.com/notifyhub/wishlist-watcher/internal/worker"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	Checks       *prometheus.CounterVec
	CheckLatency *prometheus.HistogramVec
	Anomalies    *prometheus.CounterVec
	NewItems     prometheus.Counter
	Deliveries   *prometheus.CounterVec
	QueueDepth   *prometheus.GaugeVec
	LockHeld     prometheus.Gauge
	FetchRetries prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_checks_total",
			Help: "Wishlist checks by tier and outcome.",
		}, []string{"tier", "outcome"}),

		CheckLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wishlist_check_seconds",
			Help:    "Duration of a single wishlist check including retries and delivery.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"tier"}),

		Anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_anomalies_total",
			Help: "Snapshots rejected by an anomaly guard.",
		}, []string{"guard"}),

		NewItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wishlist_new_items_total",
			Help: "New wishlist items announced to recipients.",
		}),

		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_deliveries_total",
			Help: "Notification deliveries by recipient kind and result.",
		}, []string{"kind", "result"}),

		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wishlist_queue_depth",
			Help: "Current number of queued checks per tier.",
		}, []string{"tier"}),

		LockHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wishlist_lock_held",
			Help: "1 while this instance holds the scheduler lock.",
		}),

		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wishlist_fetch_retries_total",
			Help: "Fetch attempts retried after a rate-limit response.",
		}),
	}

	reg.MustRegister(
		m.Checks,
		m.CheckLatency,
		m.Anomalies,
		m.NewItems,
		m.Deliveries,
		m.QueueDepth,
		m.LockHeld,
		m.FetchRetries,
	)

	return m
}

// SchedulerHooks returns the callbacks expected by worker.Hooks.
// Centralises the prometheus observation calls so the worker stays import-free.
func (m *Metrics) SchedulerHooks() worker.Hooks {
	return worker.Hooks{
		OnCheck: func(p domain.Priority, res service.Result, elapsed time.Duration) {
			tier := p.String()
			m.Checks.WithLabelValues(tier, string(res.Outcome)).Inc()
			m.CheckLatency.WithLabelValues(tier).Observe(elapsed.Seconds())
			if res.Outcome == service.OutcomeAnomaly {
				m.Anomalies.WithLabelValues(string(res.Guard)).Inc()
			}
			if res.Outcome == service.OutcomeNotified {
				m.NewItems.Add(float64(res.NewItems))
			}
		},
		OnQueueDepth: func(vip, high, normal int) {
			m.QueueDepth.WithLabelValues(domain.PriorityVIP.String()).Set(float64(vip))
			m.QueueDepth.WithLabelValues(domain.PriorityHigh.String()).Set(float64(high))
			m.QueueDepth.WithLabelValues(domain.PriorityNormal.String()).Set(float64(normal))
		},
	}
}

// OnDelivered is passed to service.NewFanout.
func (m *Metrics) OnDelivered(kind domain.RecipientKind, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Deliveries.WithLabelValues(string(kind), result).Inc()
}

// OnFetchRetry is passed to service.NewCheckService.
func (m *Metrics) OnFetchRetry() { m.FetchRetries.Inc() }

// OnLockHeld is passed to coordination.NewLeader.
func (m *Metrics) OnLockHeld(held bool) {
	if held {
		m.LockHeld.Set(1)
		return
	}
	m.LockHeld.Set(0)
}
