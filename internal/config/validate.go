package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that is surfaced to
	// users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline. Path is a
// dotted path into the config (e.g. "sources.sales.location").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where convenient.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownTables are the valid fan-out override keys.
var knownTables = map[string]bool{
	"items": true, "vendors": true, "counties": true,
	"stores": true, "time": true, "liquor_sales": true,
}

// Validate performs static validation of a Pipeline without mutating it.
// Callers decide whether warnings are fatal.
func Validate(p Pipeline) []Issue {
	var issues []Issue
	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(p.Job) == "" {
		errf("job", "job must not be empty; it labels metrics and identifies runs")
	}

	for _, src := range []struct {
		path string
		loc  string
	}{
		{"sources.sales.location", p.Sources.Sales.Location},
		{"sources.holidays.location", p.Sources.Holidays.Location},
		{"sources.weather.location", p.Sources.Weather.Location},
	} {
		if strings.TrimSpace(src.loc) == "" {
			errf(src.path, "staging location must not be empty")
		}
	}

	if strings.TrimSpace(p.Output.Root) == "" {
		errf("output.root", "output root must not be empty")
	}
	for table, n := range p.Output.Fanout {
		if !knownTables[table] {
			warnf("output.fanout."+table, "unknown table; override ignored")
		}
		if n < 1 {
			errf("output.fanout."+table, "fan-out must be >= 1, got %d", n)
		}
	}

	switch p.OnError {
	case "", "continue", "abort":
	default:
		errf("on_error", "must be \"continue\" or \"abort\", got %q", p.OnError)
	}

	if p.Postgres.DSN == "" && p.Postgres.Schema != "" {
		warnf("postgres.schema", "schema set but dsn empty; relational load stays disabled")
	}

	hasS3 := false
	for _, loc := range []string{
		p.Sources.Sales.Location, p.Sources.Holidays.Location,
		p.Sources.Weather.Location, p.Output.Root,
	} {
		if strings.HasPrefix(loc, "s3://") || strings.HasPrefix(loc, "s3a://") {
			hasS3 = true
		}
	}
	if hasS3 && p.AWS.AccessKeyID == "" {
		warnf("aws.access_key_id", "s3 locations configured without explicit credentials; the SDK default chain will be used")
	}

	return issues
}
