package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded by PollFetchesTotal and ActionsTotal
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultStale    = "stale"
	ResultCanceled = "canceled"
)

// Metrics holds all Prometheus metrics for disparo.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Polling
	PollFetchesTotal         *prometheus.CounterVec
	PollFetchDurationSeconds *prometheus.HistogramVec
	PollSchedulesActive      *prometheus.GaugeVec

	// Actions
	ActionsTotal *prometheus.CounterVec

	// Remote API as seen by the client
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	// Development backend
	DevListsProcessedTotal *prometheus.CounterVec
	DevEmailsSentTotal     prometheus.Counter

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		PollFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disparo_poll_fetches_total",
				Help: "Total number of view refreshes by outcome",
			},
			[]string{"view", "result"},
		),
		PollFetchDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "disparo_poll_fetch_duration_seconds",
				Help:    "Time taken by a view refresh",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"view"},
		),
		PollSchedulesActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "disparo_poll_schedules_active",
				Help: "Number of attached polling schedules",
			},
			[]string{"view"},
		),

		ActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disparo_actions_total",
				Help: "Total number of dispatched user actions by outcome",
			},
			[]string{"target", "action", "result"},
		),

		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disparo_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "disparo_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disparo_api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"error_type"},
		),

		DevListsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disparo_devserver_lists_processed_total",
				Help: "Total number of uploaded lists processed by the development backend",
			},
			[]string{"status"},
		),
		DevEmailsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "disparo_devserver_emails_sent_total",
				Help: "Total number of simulated campaign sends",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.PollFetchesTotal,
		m.PollFetchDurationSeconds,
		m.PollSchedulesActive,
		m.ActionsTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.DevListsProcessedTotal,
		m.DevEmailsSentTotal,
	)

	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePoll records the outcome of one view refresh
func (m *Metrics) ObservePoll(view, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.PollFetchesTotal.WithLabelValues(view, result).Inc()
	if result != ResultStale {
		m.PollFetchDurationSeconds.WithLabelValues(view).Observe(d.Seconds())
	}
}

// ScheduleAttached tracks an attached schedule for a view
func (m *Metrics) ScheduleAttached(view string) {
	if m == nil {
		return
	}
	m.PollSchedulesActive.WithLabelValues(view).Inc()
}

// ScheduleDetached tracks a detached schedule for a view
func (m *Metrics) ScheduleDetached(view string) {
	if m == nil {
		return
	}
	m.PollSchedulesActive.WithLabelValues(view).Dec()
}

// IncAction records a dispatched action
func (m *Metrics) IncAction(target, action, result string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(target, action, result).Inc()
}

// ObserveAPIRequest records one API request. status is 0 for transport failures.
func (m *Metrics) ObserveAPIRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.APIRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.APIRequestDurationSeconds.WithLabelValues(method, path).Observe(d.Seconds())
	if status == 0 || status >= 400 {
		m.APIErrorsTotal.WithLabelValues(categorizeStatus(status)).Inc()
	}
}

// IncListProcessed records a list processed by the development backend
func (m *Metrics) IncListProcessed(status string) {
	if m == nil {
		return
	}
	m.DevListsProcessedTotal.WithLabelValues(status).Inc()
}

// AddEmailsSent records simulated sends of the development backend
func (m *Metrics) AddEmailsSent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DevEmailsSentTotal.Add(float64(n))
}
