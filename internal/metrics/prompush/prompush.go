// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A batch job has no scrape surface, so collected metrics
// are pushed once at the end of the run instead of exposed over HTTP. All
// Prometheus-specific dependencies live here; the rest of the pipeline only
// sees metrics.Backend.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string // Pushgateway "job" grouping key
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // warehouse_stage_total
	stageDuration *prometheus.SummaryVec // warehouse_stage_duration_seconds
	tableRows     *prometheus.CounterVec // warehouse_table_rows_total
	findings      prometheus.Counter     // warehouse_quality_findings_total
}

// NewBackend constructs a Pushgateway backend. jobName doubles as the
// Pushgateway grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "warehouse"
	}

	reg := prometheus.NewRegistry()

	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_stage_total",
			Help: "Total pipeline stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "warehouse_stage_duration_seconds",
			Help:       "Duration of pipeline stages in seconds, partitioned by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)
	tableRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_table_rows_total",
			Help: "Rows published per warehouse table.",
		},
		[]string{"table"},
	)
	findings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warehouse_quality_findings_total",
			Help: "Quality-gate findings reported for this run.",
		},
	)

	for _, c := range []prometheus.Collector{stageCounter, stageDuration, tableRows, findings} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
		tableRows:     tableRows,
		findings:      findings,
	}, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "warehouse_stage_total":
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
	case "warehouse_table_rows_total":
		b.tableRows.WithLabelValues(labels["table"]).Add(delta)
	case "warehouse_quality_findings_total":
		b.findings.Add(delta)
	default:
		// unknown metric name: ignore
	}
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, seconds float64, labels metrics.Labels) {
	if name != "warehouse_stage_duration_seconds" {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(seconds)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
