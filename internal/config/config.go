// Package config defines the canonical, JSON-serializable configuration
// model for the warehouse pipeline. It is intentionally small, explicit, and
// dependency-free so a run can be described by a single file checked into the
// deployment, decoded by the standard library, and statically validated
// before anything touches storage.
package config

import (
	"encoding/json"
	"io"
	"os"
)

// Pipeline is the top-level object decoded from a run config file.
type Pipeline struct {
	// Job names the run; it labels metrics and log lines.
	Job string `json:"job"`

	// Sources locate the three staging datasets.
	Sources Sources `json:"sources"`

	// Output configures the warehouse destination.
	Output Output `json:"output"`

	// Postgres optionally configures a secondary relational load of the six
	// tables. Left empty, no relational load happens.
	Postgres Postgres `json:"postgres"`

	// AWS carries object-storage credentials for s3:// locations.
	AWS AWS `json:"aws"`

	// Quality controls the data-quality gate policy.
	Quality Quality `json:"quality"`

	// OnError selects the stage-failure policy: "continue" (default) keeps
	// running after a failed stage, "abort" stops at the first failure.
	OnError string `json:"on_error"`
}

// Sources locates the staging inputs. Each location is a local path or an
// s3:// URI.
type Sources struct {
	Sales    Source `json:"sales"`
	Holidays Source `json:"holidays"`
	Weather  Source `json:"weather"`
}

// Source is one staging dataset location.
type Source struct {
	Location string `json:"location"`
}

// Output configures the columnar warehouse destination.
type Output struct {
	// Root is the destination prefix; each table lands under Root/{table}.
	Root string `json:"root"`

	// Fanout overrides the per-table part-file count. Missing tables use the
	// built-in defaults (items 2, vendors 2, counties 1, stores 2, time 1,
	// liquor_sales 5).
	Fanout map[string]int `json:"fanout,omitempty"`
}

// Postgres configures the optional relational sink.
type Postgres struct {
	// DSN is the pgx connection string. Empty disables the sink.
	DSN string `json:"dsn"`

	// Schema is the target schema for the six tables (default "public").
	Schema string `json:"schema"`
}

// AWS is the explicit credential struct handed to the object-store client.
// Empty fields defer to the SDK default chain.
type AWS struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Region          string `json:"region"`
}

// Quality configures the gate policy.
type Quality struct {
	// Enforce turns findings into run failures. Default false: the gate
	// reports and the write stage still runs.
	Enforce bool `json:"enforce"`
}

// Load decodes a Pipeline from the file at path.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes a Pipeline from r.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

// ContinueOnError reports the resolved stage-failure policy.
func (p Pipeline) ContinueOnError() bool {
	return p.OnError != "abort"
}
