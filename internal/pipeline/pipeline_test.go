package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/config"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/objstore"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/quality"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/sink"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/sink/parquetsink"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/warehouse"
)

const salesCSV = `INV-1,2/1/2017,2633,Hy-Vee,123 Main St (41.5 -93.6),Des Moines,50314,123 Main St (41.5 -93.6),77,POLK,1031100,American Vodkas,260,Diageo Americas,38176,Vodka 80 Prf,6,750,5.50,8.25,12,99.00,9.00,2.37
INV-2,15/3/2017,2634,Central Mart,1 Elm St,Cedar Rapids,52401,1 Elm St,57,linn,1011200,Canadian Whiskies,115,Northern Dist,11296,Rye Whisky,12,1000,10.00,15.00,2,30.00,2.00,0.53
`

const holidaysJSON = `[
  {"Date": "02/01/17", "Holiday": "New Year's Day"},
  {"Date": "16/01/17", "Holiday": "Martin Luther King Jr. Day"}
]`

const weatherCSV = `County,State,Average Temperature,Latitude (generated),Longitude (generated),Year,Month
Polk,Iowa,21.5,41.6,-93.6,2017,1
Linn,Iowa,18.0,42.0,-91.6,2017,3
`

// stage writes the three staging files into dir and returns a config
// pointing at them.
func stage(t *testing.T, dir string) config.Pipeline {
	t.Helper()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	return config.Pipeline{
		Job: "test_run",
		Sources: config.Sources{
			Sales:    config.Source{Location: write("sales.csv", salesCSV)},
			Holidays: config.Source{Location: write("holidays.json", holidaysJSON)},
			Weather:  config.Source{Location: write("weather.csv", weatherCSV)},
		},
		Output: config.Output{Root: filepath.Join(dir, "out")},
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := stage(t, dir)
	store := objstore.NewRouter(objstore.Credentials{})
	writer := parquetsink.New(store, cfg.Output.Root, nil)

	rep, err := Run(context.Background(), cfg, store, writer, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if failed := rep.StageErrors(); len(failed) != 0 {
		t.Fatalf("failed stages = %v", failed)
	}
	if len(rep.Findings) != 0 {
		t.Errorf("findings = %v, want none", rep.Findings)
	}
	if len(rep.TableErrors) != 0 {
		t.Errorf("table errors = %v, want none", rep.TableErrors)
	}

	// Every table landed with its full part fan-out.
	wantParts := map[string]int{
		"items": 2, "vendors": 2, "counties": 1,
		"stores": 2, "time": 1, "liquor_sales": 5,
	}
	for _, table := range warehouse.TableNames {
		entries, err := os.ReadDir(filepath.Join(cfg.Output.Root, table))
		if err != nil {
			t.Fatalf("table dir %s: %v", table, err)
		}
		if len(entries) != wantParts[table] {
			t.Errorf("%s part files = %d, want %d", table, len(entries), wantParts[table])
		}
	}

	// Stage accounting covers the three reads plus build, quality, write.
	if len(rep.Stages) != 6 {
		t.Errorf("stages = %d, want 6", len(rep.Stages))
	}
}

func TestRunContinuesPastMissingSource(t *testing.T) {
	dir := t.TempDir()
	cfg := stage(t, dir)
	cfg.Sources.Weather.Location = filepath.Join(dir, "absent.csv")
	store := objstore.NewRouter(objstore.Credentials{})
	writer := parquetsink.New(store, cfg.Output.Root, nil)

	rep, err := Run(context.Background(), cfg, store, writer, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil under continue policy", err)
	}

	failed := rep.StageErrors()
	names := map[string]bool{}
	for _, s := range failed {
		names[s.Name] = true
	}
	if !names["read_weather"] || !names["build"] {
		t.Errorf("failed stages = %v, want read_weather and build", failed)
	}

	// Facts never materialized, so the gate flags the empty fact table while
	// the other tables still get written.
	foundEmpty := false
	for _, f := range rep.Findings {
		if f.Table == "liquor_sales" && f.Check == quality.CheckNonEmpty {
			foundEmpty = true
		}
	}
	if !foundEmpty {
		t.Errorf("findings = %v, want non_empty for liquor_sales", rep.Findings)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Root, "items", "part-00000.parquet")); err != nil {
		t.Errorf("items not written despite weather failure: %v", err)
	}
}

func TestRunAbortPolicy(t *testing.T) {
	dir := t.TempDir()
	cfg := stage(t, dir)
	cfg.Sources.Sales.Location = filepath.Join(dir, "absent.csv")
	cfg.OnError = "abort"
	store := objstore.NewRouter(objstore.Credentials{})
	writer := parquetsink.New(store, cfg.Output.Root, nil)

	_, err := Run(context.Background(), cfg, store, writer, zerolog.Nop())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("Run() error = %v, want ErrAborted", err)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Output.Root)); !os.IsNotExist(statErr) {
		t.Errorf("output root exists after aborted run")
	}
}

func TestRunQualityEnforcement(t *testing.T) {
	dir := t.TempDir()
	cfg := stage(t, dir)
	cfg.Quality.Enforce = true
	// A null invoice number in the staging data trips the gate.
	salesWithNull := salesCSV + ",2/1/2017,2633,Hy-Vee,1 Oak St,Des Moines,50314,1 Oak St,77,POLK,1031100,American Vodkas,260,Diageo Americas,38176,Vodka 80 Prf,6,750,5.50,8.25,12,99.00,9.00,2.37\n"
	if err := os.WriteFile(cfg.Sources.Sales.Location, []byte(salesWithNull), 0o644); err != nil {
		t.Fatal(err)
	}
	store := objstore.NewRouter(objstore.Credentials{})
	writer := parquetsink.New(store, cfg.Output.Root, nil)

	rep, err := Run(context.Background(), cfg, store, writer, zerolog.Nop())
	if !errors.Is(err, ErrQualityGate) {
		t.Fatalf("Run() error = %v, want ErrQualityGate", err)
	}
	if len(rep.Findings) == 0 {
		t.Error("no findings despite gate failure")
	}
	// Enforcement blocks the write stage.
	if _, statErr := os.Stat(cfg.Output.Root); !os.IsNotExist(statErr) {
		t.Error("output root exists despite enforced gate failure")
	}
}

func TestRunWeatherDuplicateKeyBecomesFinding(t *testing.T) {
	dir := t.TempDir()
	cfg := stage(t, dir)
	dupWeather := weatherCSV + "Polk,Iowa,30.0,41.6,-93.6,2017,1\n"
	if err := os.WriteFile(cfg.Sources.Weather.Location, []byte(dupWeather), 0o644); err != nil {
		t.Fatal(err)
	}
	store := objstore.NewRouter(objstore.Credentials{})
	writer := parquetsink.New(store, cfg.Output.Root, nil)

	rep, err := Run(context.Background(), cfg, store, writer, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if failed := rep.StageErrors(); len(failed) != 0 {
		t.Fatalf("failed stages = %v, want none (precondition is a finding, not a failure)", failed)
	}
	found := false
	for _, f := range rep.Findings {
		if f.Check == quality.CheckJoinPrecondition {
			found = true
		}
	}
	if !found {
		t.Errorf("findings = %v, want a join_precondition entry", rep.Findings)
	}
}

// countingWriter records how often it ran; used to check sink plumbing.
type countingWriter struct{ calls int }

func (c *countingWriter) Write(context.Context, *warehouse.Tables) []sink.TableError {
	c.calls++
	return nil
}

func TestRunMultiSink(t *testing.T) {
	dir := t.TempDir()
	cfg := stage(t, dir)
	store := objstore.NewRouter(objstore.Credentials{})
	first := &countingWriter{}
	second := &countingWriter{}

	if _, err := Run(context.Background(), cfg, store, sink.Multi{first, second}, zerolog.Nop()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("writer calls = (%d, %d), want (1, 1)", first.calls, second.calls)
	}
}
