package status

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the gateway's Prometheus instruments.
type Metrics struct {
	// SerialBytes counts raw bytes over the modem link, by direction.
	SerialBytes *prometheus.CounterVec
	// Triggers counts served triggers, by kind and outcome.
	Triggers *prometheus.CounterVec
	// Rejections counts triggers refused because a trigger was already
	// in service.
	Rejections prometheus.Counter
	// WorkflowSteps counts finished workflow steps, by state and
	// outcome.
	WorkflowSteps *prometheus.CounterVec
	// WorkflowSeconds observes the wall time of complete workflow runs.
	WorkflowSeconds prometheus.Histogram
	// LogEvictions counts transcript lines dropped to respect the log
	// byte cap.
	LogEvictions prometheus.Counter
}

// NewMetrics builds the instrument set and registers it with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SerialBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cellgw_serial_bytes_total",
				Help: "Bytes moved over the modem serial link",
			},
			[]string{"direction"},
		),
		Triggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cellgw_triggers_total",
				Help: "Triggers served, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Rejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cellgw_trigger_rejections_total",
				Help: "Triggers rejected because the dispatcher was busy",
			},
		),
		WorkflowSteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cellgw_workflow_steps_total",
				Help: "Workflow steps finished, by state and outcome",
			},
			[]string{"state", "outcome"},
		),
		WorkflowSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cellgw_workflow_duration_seconds",
				Help:    "Wall time of complete workflow runs",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		LogEvictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cellgw_status_log_evictions_total",
				Help: "Transcript lines evicted to respect the log byte cap",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.SerialBytes,
			m.Triggers,
			m.Rejections,
			m.WorkflowSteps,
			m.WorkflowSeconds,
			m.LogEvictions,
		)
	}
	return m
}
