// Package metrics exposes prometheus counters for scoring, ranking and monitoring.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"priorityline/internal/domain"
)

var (
	// projectsScored counts score computations by resulting level
	projectsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priorityline_projects_scored_total",
		Help: "Projects scored by priority level",
	}, []string{"level"})

	// decisions counts ranked projects by recommended action
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priorityline_decisions_total",
		Help: "Ranked projects by recommended action",
	}, []string{"action"})

	alerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priorityline_alerts_total",
		Help: "Alerts raised by type",
	}, []string{"type"})

	progressChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priorityline_progress_checks_total",
		Help: "Progress checks by delay severity",
	}, []string{"severity"})

	monitorTick = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "priorityline_monitor_tick_duration_seconds",
		Help:    "Duration of one monitoring pass over active projects",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	})

	monitorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "priorityline_monitor_failures_total",
		Help: "Per-project failures during monitoring passes",
	})
)

func ObserveScore(b domain.ScoreBreakdown) {
	projectsScored.WithLabelValues(string(b.PriorityLevel)).Inc()
}

func ObserveDecision(d domain.Decision) {
	for _, r := range d.Ranked {
		projectsScored.WithLabelValues(string(r.Score.PriorityLevel)).Inc()
		decisions.WithLabelValues(string(r.Action)).Inc()
	}
	observeAlerts(d.Alerts)
}

func ObserveProgress(r domain.ProgressReport) {
	progressChecks.WithLabelValues(string(r.DelayRisk.Severity)).Inc()
	observeAlerts(r.Alerts)
}

func ObserveMonitorTick(d time.Duration, failures int) {
	monitorTick.Observe(d.Seconds())
	monitorFailures.Add(float64(failures))
}

func observeAlerts(list []domain.Alert) {
	for _, a := range list {
		alerts.WithLabelValues(string(a.Type)).Inc()
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
