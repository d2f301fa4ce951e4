// Package metrics exposes Prometheus instrumentation for the HTTP layer and
// the group engine. All recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rosca"

// Metrics holds the registered collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	groupMutations   *prometheus.CounterVec
	versionConflicts prometheus.Counter
	ledgerReleases   *prometheus.CounterVec
	contributions    prometheus.Counter
	payoutAmount     *prometheus.CounterVec
	overdueRounds    prometheus.Counter
	schedulerRuns    *prometheus.CounterVec
}

// New creates a Metrics instance on its own registry, including Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		groupMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "group_mutations_total",
			Help: "Group mutations by operation and outcome kind.",
		}, []string{"operation", "outcome"}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "version_conflicts_total",
			Help: "Optimistic concurrency conflicts retried by the engine.",
		}),
		ledgerReleases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "releases_total",
			Help: "Ledger release calls by outcome.",
		}, []string{"outcome"}),
		contributions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "contributions_total",
			Help: "Contributions recorded.",
		}),
		payoutAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "payout_minor_units_total",
			Help: "Amount released to recipients in minor units, by currency.",
		}, []string{"currency"}),
		overdueRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "overdue_rounds_total",
			Help: "Rounds flagged overdue.",
		}),
		schedulerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "runs_total",
			Help: "Scheduler sweeps by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.groupMutations, m.versionConflicts,
		m.ledgerReleases, m.contributions, m.payoutAmount, m.overdueRounds, m.schedulerRuns,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveMutation records a group mutation and its outcome.
func (m *Metrics) ObserveMutation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	m.groupMutations.WithLabelValues(operation, outcome).Inc()
}

// VersionConflict counts one retried optimistic conflict.
func (m *Metrics) VersionConflict() {
	if m == nil {
		return
	}
	m.versionConflicts.Inc()
}

// LedgerRelease records a ledger call.
func (m *Metrics) LedgerRelease(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ledgerReleases.WithLabelValues(outcome).Inc()
}

// Contribution counts one recorded contribution.
func (m *Metrics) Contribution() {
	if m == nil {
		return
	}
	m.contributions.Inc()
}

// Payout records a completed payout.
func (m *Metrics) Payout(currency string, amount int64) {
	if m == nil {
		return
	}
	m.payoutAmount.WithLabelValues(currency).Add(float64(amount))
}

// OverdueRound counts a round flagged overdue.
func (m *Metrics) OverdueRound() {
	if m == nil {
		return
	}
	m.overdueRounds.Inc()
}

// SchedulerRun records one scheduler sweep.
func (m *Metrics) SchedulerRun(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.schedulerRuns.WithLabelValues(outcome).Inc()
}
