// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the warehouse pipeline.
//
// It exposes a narrow Backend interface focused on counters and durations,
// with a global, pluggable backend defaulting to a no-op implementation so
// metric calls are always safe even when nothing is configured. Concrete
// systems (Prometheus Pushgateway) live in subpackages, keeping the pipeline
// decoupled from any one metrics stack.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style observation in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes metrics if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStage measures one pipeline stage: latency plus success/failure.
// Stages are read_sales, read_holidays, read_weather, build, quality, write.
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "stage": stage, "status": status}
	backend.IncCounter("warehouse_stage_total", 1, lbls)
	backend.ObserveDuration("warehouse_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordTableRows counts rows published per table.
func RecordTableRows(job, table string, rows int) {
	if rows < 0 {
		return
	}
	backend.IncCounter("warehouse_table_rows_total", float64(rows), Labels{
		"job":   job,
		"table": table,
	})
}

// RecordFindings counts quality-gate findings for the run.
func RecordFindings(job string, n int) {
	if n <= 0 {
		return
	}
	backend.IncCounter("warehouse_quality_findings_total", float64(n), Labels{"job": job})
}
