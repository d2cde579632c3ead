package config

import (
	"strings"
	"testing"
)

func validPipeline() Pipeline {
	return Pipeline{
		Job: "iowa_liquor_warehouse",
		Sources: Sources{
			Sales:    Source{Location: "testdata/sales.csv"},
			Holidays: Source{Location: "testdata/holidays.json"},
			Weather:  Source{Location: "testdata/weather.csv"},
		},
		Output: Output{Root: "out/warehouse"},
	}
}

func TestDecode(t *testing.T) {
	in := `{
  "job": "test_run",
  "sources": {
    "sales": {"location": "s3://bucket/sales.csv"},
    "holidays": {"location": "s3://bucket/holidays.json"},
    "weather": {"location": "s3://bucket/weather.csv"}
  },
  "output": {"root": "s3://bucket/warehouse", "fanout": {"liquor_sales": 5}},
  "quality": {"enforce": true},
  "on_error": "abort"
}`
	p, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.Job != "test_run" {
		t.Errorf("Job = %q, want test_run", p.Job)
	}
	if p.Sources.Sales.Location != "s3://bucket/sales.csv" {
		t.Errorf("sales location = %q", p.Sources.Sales.Location)
	}
	if p.Output.Fanout["liquor_sales"] != 5 {
		t.Errorf("fanout = %v, want liquor_sales 5", p.Output.Fanout)
	}
	if !p.Quality.Enforce {
		t.Error("Quality.Enforce = false, want true")
	}
	if p.ContinueOnError() {
		t.Error("ContinueOnError() = true with on_error abort")
	}
}

func TestContinueOnErrorDefault(t *testing.T) {
	if !(Pipeline{}).ContinueOnError() {
		t.Error("ContinueOnError() = false for zero value, want true")
	}
}

func countSeverity(issues []Issue, s IssueSeverity) int {
	n := 0
	for _, i := range issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Pipeline)
		wantErrs  int
		wantWarns int
	}{
		{
			name:   "valid config",
			mutate: func(*Pipeline) {},
		},
		{
			name:     "empty job",
			mutate:   func(p *Pipeline) { p.Job = " " },
			wantErrs: 1,
		},
		{
			name:     "missing staging location",
			mutate:   func(p *Pipeline) { p.Sources.Weather.Location = "" },
			wantErrs: 1,
		},
		{
			name:     "missing output root",
			mutate:   func(p *Pipeline) { p.Output.Root = "" },
			wantErrs: 1,
		},
		{
			name:     "zero fanout",
			mutate:   func(p *Pipeline) { p.Output.Fanout = map[string]int{"items": 0} },
			wantErrs: 1,
		},
		{
			name:      "unknown fanout table",
			mutate:    func(p *Pipeline) { p.Output.Fanout = map[string]int{"nope": 2} },
			wantWarns: 1,
		},
		{
			name:     "bad on_error",
			mutate:   func(p *Pipeline) { p.OnError = "retry" },
			wantErrs: 1,
		},
		{
			name:      "schema without dsn",
			mutate:    func(p *Pipeline) { p.Postgres.Schema = "warehouse" },
			wantWarns: 1,
		},
		{
			name:      "s3 output without credentials",
			mutate:    func(p *Pipeline) { p.Output.Root = "s3://bucket/warehouse" },
			wantWarns: 1,
		},
		{
			name: "s3 with credentials is quiet",
			mutate: func(p *Pipeline) {
				p.Output.Root = "s3a://bucket/warehouse"
				p.AWS.AccessKeyID = "AKIA..."
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPipeline()
			tt.mutate(&p)
			issues := Validate(p)
			if got := countSeverity(issues, SeverityError); got != tt.wantErrs {
				t.Errorf("errors = %d, want %d (%v)", got, tt.wantErrs, issues)
			}
			if got := countSeverity(issues, SeverityWarning); got != tt.wantWarns {
				t.Errorf("warnings = %d, want %d (%v)", got, tt.wantWarns, issues)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	i := Issue{Severity: SeverityError, Path: "job", Message: "must not be empty"}
	want := "error at job: must not be empty"
	if i.Error() != want {
		t.Errorf("Error() = %q, want %q", i.Error(), want)
	}
}
