// Package metrics holds the Prometheus instruments of the audit pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lighthouse_audit_service"

// Pipeline stages reported in StageFailures.
const (
	StageLiveness   = "liveness"
	StageBrowser    = "browser"
	StageLighthouse = "lighthouse"
	StagePersist    = "persist"
	StagePublish    = "publish"
)

type Metrics struct {
	AuditsTriggered prometheus.Counter
	AuditsFinished  *prometheus.CounterVec
	AuditDuration   prometheus.Histogram
	AuditsRunning   prometheus.Gauge
	StageFailures   *prometheus.CounterVec
}

// New creates and registers the audit metrics on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		AuditsTriggered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_triggered_total",
			Help:      "Total number of audits accepted for execution",
		}),
		AuditsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_finished_total",
			Help:      "Total number of audits that reached a terminal status",
		}, []string{"status"}),
		AuditDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Duration of the audit pipeline in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17min
		}),
		AuditsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audits_running",
			Help:      "Number of audit pipelines currently executing",
		}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_stage_failures_total",
			Help:      "Total number of audit pipeline failures per stage",
		}, []string{"stage"}),
	}
}
