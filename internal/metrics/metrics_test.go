package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePoll("dashboard", ResultOK, time.Second)
	m.ScheduleAttached("dashboard")
	m.ScheduleDetached("dashboard")
	m.IncAction("campaign", "start", "ok")
	m.ObserveAPIRequest("GET", "/campaigns", 200, time.Millisecond)
	m.IncListProcessed("completed")
	m.AddEmailsSent(3)
}

func TestObservePoll(t *testing.T) {
	m := New()

	m.ObservePoll("campaign_detail", ResultOK, 10*time.Millisecond)
	m.ObservePoll("campaign_detail", ResultOK, 10*time.Millisecond)
	m.ObservePoll("campaign_detail", ResultStale, 0)

	if got := testutil.ToFloat64(m.PollFetchesTotal.WithLabelValues("campaign_detail", ResultOK)); got != 2 {
		t.Errorf("expected 2 ok fetches, got %v", got)
	}
	if got := testutil.ToFloat64(m.PollFetchesTotal.WithLabelValues("campaign_detail", ResultStale)); got != 1 {
		t.Errorf("expected 1 stale fetch, got %v", got)
	}
}

func TestSchedulesGauge(t *testing.T) {
	m := New()

	m.ScheduleAttached("lists")
	m.ScheduleAttached("lists")
	m.ScheduleDetached("lists")

	if got := testutil.ToFloat64(m.PollSchedulesActive.WithLabelValues("lists")); got != 1 {
		t.Errorf("expected 1 active schedule, got %v", got)
	}
}

func TestObserveAPIRequest(t *testing.T) {
	m := New()

	m.ObserveAPIRequest("GET", "/campaigns/{id}", 404, time.Millisecond)
	m.ObserveAPIRequest("GET", "/campaigns/{id}", 0, time.Millisecond)
	m.ObserveAPIRequest("GET", "/campaigns/{id}", 200, time.Millisecond)

	if got := testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("GET", "/campaigns/{id}", "404")); got != 1 {
		t.Errorf("expected 1 request with 404, got %v", got)
	}
	if got := testutil.ToFloat64(m.APIErrorsTotal.WithLabelValues("not_found")); got != 1 {
		t.Errorf("expected 1 not_found error, got %v", got)
	}
	if got := testutil.ToFloat64(m.APIErrorsTotal.WithLabelValues("transport")); got != 1 {
		t.Errorf("expected 1 transport error, got %v", got)
	}
}

func TestCategorizeStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{0, "transport"},
		{500, "server_error"},
		{503, "server_error"},
		{429, "rate_limited"},
		{401, "auth_error"},
		{403, "auth_error"},
		{404, "not_found"},
		{400, "bad_request"},
		{422, "client_error"},
		{200, "unknown"},
	}

	for _, tt := range tests {
		if got := categorizeStatus(tt.status); got != tt.want {
			t.Errorf("categorizeStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
