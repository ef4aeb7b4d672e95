// Package metrics exposes poll-cycle counters on a private Prometheus registry.
package metrics

import (
	"time"

	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "pagemonitor"

// Recorder holds the service metrics. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	outcomes      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	fetchDur      prometheus.Histogram
	cycleDur      prometheus.Histogram
	lastCycleTS   prometheus.Gauge
	targets       prometheus.Gauge
}

// NewRecorder creates and registers the metrics, plus the Go runtime and
// process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.outcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "target_outcomes_total",
		Help:      "Poll outcomes by kind",
	}, []string{"outcome"})
	r.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification chunks by delivery status",
	}, []string{"status"})
	r.fetchDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Time spent fetching one target",
		Buckets:   prometheus.DefBuckets,
	})
	r.cycleDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Time spent on one full poll cycle",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	r.lastCycleTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_cycle_timestamp_seconds",
		Help:      "Unix timestamp of the last completed poll cycle",
	})
	r.targets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "targets",
		Help:      "Number of targets polled in the last cycle",
	})

	r.registry.MustRegister(
		r.outcomes, r.notifications, r.fetchDur, r.cycleDur, r.lastCycleTS, r.targets,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Outcomes start at zero so rate() works from the first scrape.
	for _, outcome := range models.AllOutcomes {
		r.outcomes.WithLabelValues(string(outcome))
	}
	return r
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveOutcome counts one target's outcome.
func (r *Recorder) ObserveOutcome(outcome models.Outcome) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(string(outcome)).Inc()
}

// ObserveFetch records how long one fetch took.
func (r *Recorder) ObserveFetch(d time.Duration) {
	if r == nil {
		return
	}
	r.fetchDur.Observe(d.Seconds())
}

// ObserveNotifications counts delivered and failed chunks.
func (r *Recorder) ObserveNotifications(sent, failed int) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues("sent").Add(float64(sent))
	r.notifications.WithLabelValues("failed").Add(float64(failed))
}

// ObserveCycle records a finished cycle.
func (r *Recorder) ObserveCycle(targets int, d time.Duration, finishedAt time.Time) {
	if r == nil {
		return
	}
	r.targets.Set(float64(targets))
	r.cycleDur.Observe(d.Seconds())
	r.lastCycleTS.Set(float64(finishedAt.Unix()))
}
