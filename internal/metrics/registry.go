// Package metrics exposes the prometheus counters the service publishes at
// /metrics — webhook duplicates absorbed, deadlock/serialization retries,
// and cache hits/misses — plus the in-process latency rings behind the
// hold and webhook average-latency figures.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a private prometheus.Registry rather than registering
// against the global default, so tests can spin up as many instances as
// they like without collector-already-registered panics.
type Registry struct {
	reg *prometheus.Registry

	webhookDuplicates prometheus.Counter
	deadlockRetries   prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter

	holdLatency    *Ring
	webhookLatency *Ring
}

// NewRegistry builds a Registry with all counters registered and zeroed.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		webhookDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashsale_webhook_duplicates_total",
			Help: "Webhook deliveries rejected or absorbed as duplicates of an already-processed idempotency key.",
		}),
		deadlockRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashsale_deadlock_retries_total",
			Help: "Transactions retried after a deadlock or serialization failure.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashsale_cache_hits_total",
			Help: "Available-stock reads served from cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashsale_cache_misses_total",
			Help: "Available-stock reads that fell through to the database.",
		}),
		holdLatency:    NewRing(1000),
		webhookLatency: NewRing(1000),
	}

	reg.MustRegister(r.webhookDuplicates, r.deadlockRetries, r.cacheHits, r.cacheMisses)
	return r
}

func (r *Registry) IncWebhookDuplicate() { r.webhookDuplicates.Inc() }
func (r *Registry) IncDeadlockRetry()    { r.deadlockRetries.Inc() }
func (r *Registry) IncCacheHit()         { r.cacheHits.Inc() }
func (r *Registry) IncCacheMiss()        { r.cacheMisses.Inc() }

// RecordHoldLatency samples how long a hold-creation transaction took.
func (r *Registry) RecordHoldLatency(d time.Duration) { r.holdLatency.Record(d) }

// RecordWebhookLatency samples how long webhook processing took end to end.
func (r *Registry) RecordWebhookLatency(d time.Duration) { r.webhookLatency.Record(d) }

// HoldLatencyAverage returns the mean of recently recorded hold latencies.
func (r *Registry) HoldLatencyAverage() time.Duration { return r.holdLatency.Average() }

// WebhookLatencyAverage returns the mean of recently recorded webhook latencies.
func (r *Registry) WebhookLatencyAverage() time.Duration { return r.webhookLatency.Average() }

// Handler serves the Prometheus text exposition format for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
