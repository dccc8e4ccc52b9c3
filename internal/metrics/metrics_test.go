package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/metrics"
	"github.com/notifyhub/wishlist-watcher/internal/policy"
	"github.com/notifyhub/wishlist-watcher/internal/service"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var out dto.Metric
	if err := (<-ch).Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestSchedulerHooks(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	hooks := m.SchedulerHooks()

	hooks.OnCheck(domain.PriorityVIP, service.Result{Outcome: service.OutcomeNotified, NewItems: 3}, time.Second)
	hooks.OnCheck(domain.PriorityNormal, service.Result{Outcome: service.OutcomeAnomaly, Guard: policy.GuardSevereShrink}, time.Second)
	hooks.OnQueueDepth(2, 1, 5)

	if got := counterValue(t, m.Checks.WithLabelValues("vip", "notified")); got != 1 {
		t.Fatalf("checks{vip,notified} = %v", got)
	}
	if got := counterValue(t, m.NewItems); got != 3 {
		t.Fatalf("new items = %v", got)
	}
	if got := counterValue(t, m.Anomalies.WithLabelValues("severe_shrink")); got != 1 {
		t.Fatalf("anomalies{severe_shrink} = %v", got)
	}
	if got := counterValue(t, m.QueueDepth.WithLabelValues("normal")); got != 5 {
		t.Fatalf("queue depth normal = %v", got)
	}
}

func TestDeliveryAndLockHooks(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.OnDelivered(domain.RecipientGroup, false)
	m.OnLockHeld(true)
	m.OnFetchRetry()

	if got := counterValue(t, m.Deliveries.WithLabelValues("group", "failed")); got != 1 {
		t.Fatalf("deliveries{group,failed} = %v", got)
	}
	if got := counterValue(t, m.LockHeld); got != 1 {
		t.Fatalf("lock held = %v", got)
	}
	m.OnLockHeld(false)
	if got := counterValue(t, m.LockHeld); got != 0 {
		t.Fatalf("lock held after release = %v", got)
	}
	if got := counterValue(t, m.FetchRetries); got != 1 {
		t.Fatalf("fetch retries = %v", got)
	}
}
