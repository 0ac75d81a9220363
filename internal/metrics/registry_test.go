package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRegistry_CountersIncrementIndependently(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.IncWebhookDuplicate()
	r.IncWebhookDuplicate()
	r.IncDeadlockRetry()
	r.IncCacheHit()
	r.IncCacheMiss()
	r.IncCacheMiss()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()

	for metric, want := range map[string]string{
		"flashsale_webhook_duplicates_total": "2",
		"flashsale_deadlock_retries_total":   "1",
		"flashsale_cache_hits_total":         "1",
		"flashsale_cache_misses_total":       "2",
	} {
		if !strings.Contains(body, metric+" "+want) {
			t.Fatalf("expected %s to read %s, got body:\n%s", metric, want, body)
		}
	}
}

func TestRegistry_LatencyRingsAreIndependent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if got := r.HoldLatencyAverage(); got != 0 {
		t.Fatalf("expected 0 hold latency average before any sample, got %v", got)
	}
	if got := r.WebhookLatencyAverage(); got != 0 {
		t.Fatalf("expected 0 webhook latency average before any sample, got %v", got)
	}

	r.RecordHoldLatency(10 * time.Millisecond)
	r.RecordHoldLatency(30 * time.Millisecond)
	r.RecordWebhookLatency(100 * time.Millisecond)

	if got, want := r.HoldLatencyAverage(), 20*time.Millisecond; got != want {
		t.Fatalf("expected hold latency average %v, got %v", want, got)
	}
	if got, want := r.WebhookLatencyAverage(), 100*time.Millisecond; got != want {
		t.Fatalf("expected webhook latency average %v, got %v", want, got)
	}
}
