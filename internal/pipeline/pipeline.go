// Package pipeline wires the warehouse run end to end: read and cleanse the
// three staging sources, derive the dimensional model, run the quality gate,
// and publish through the configured sink.
//
// Error handling is explicit rather than caught-and-forgotten: every stage
// produces a StageResult, failures accumulate in the run Report, and the
// continue/abort decision is a config policy instead of an accident of
// control flow. A failed read leaves its relation nil, and the derivations
// that need it short-circuit with an upstream-failure error instead of
// working on missing data.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/cleanse"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/config"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/metrics"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/objstore"
	csvparser "github.com/Sarwan-S/udacity-nanodegree-capstone/internal/parser/csv"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/parser/jsonrec"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/quality"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/relation"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/sink"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/warehouse"
)

// ErrAborted is returned when a stage fails under the "abort" policy.
var ErrAborted = errors.New("pipeline aborted on stage failure")

// ErrQualityGate is returned when quality.enforce is set and the gate
// reported findings.
var ErrQualityGate = errors.New("quality gate findings with enforcement enabled")

// StageResult records one stage's outcome.
type StageResult struct {
	Name     string
	Rows     int
	Duration time.Duration
	Err      error
}

// Report is the structured outcome of a run. It is returned to the caller
// instead of printed, so the entry point decides how to surface it.
type Report struct {
	Stages      []StageResult
	Findings    []quality.Finding
	TableErrors []sink.TableError
}

// StageErrors returns the failed stages.
func (r *Report) StageErrors() []StageResult {
	var out []StageResult
	for _, s := range r.Stages {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Run executes the full pipeline. The returned Report is always populated as
// far as the run got; the error is non-nil only when the run aborted under
// the abort policy or failed the enforced quality gate.
func Run(ctx context.Context, cfg config.Pipeline, store objstore.Store, writer sink.Writer, log zerolog.Logger) (*Report, error) {
	rep := &Report{}

	// Read and cleanse the three sources concurrently. Each ingest is
	// independent; a failure leaves that relation nil.
	var sales, holidays, weather *relation.Relation
	var ingest [3]StageResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales, ingest[0] = ingestSales(gctx, cfg.Sources.Sales.Location, store, log)
		return nil
	})
	g.Go(func() error {
		holidays, ingest[1] = ingestHolidays(gctx, cfg.Sources.Holidays.Location, store, log)
		return nil
	})
	g.Go(func() error {
		weather, ingest[2] = ingestWeather(gctx, cfg.Sources.Weather.Location, store, log)
		return nil
	})
	_ = g.Wait()

	for _, s := range ingest {
		rep.Stages = append(rep.Stages, s)
		metrics.RecordStage(cfg.Job, s.Name, s.Err, s.Duration)
		if s.Err != nil && !cfg.ContinueOnError() {
			return rep, fmt.Errorf("%w: stage %s: %v", ErrAborted, s.Name, s.Err)
		}
	}

	// Dimensional build. Derivations are individually fault-isolated; the
	// weather-key precondition problem becomes a quality finding.
	buildStart := time.Now()
	tables, problems := warehouse.Build(sales, holidays, weather)
	var buildErr error
	for _, p := range problems {
		if !errors.Is(p.Err, warehouse.ErrJoinPrecondition) {
			log.Error().Str("derivation", p.Derivation).Err(p.Err).Msg("derivation failed")
			buildErr = errors.Join(buildErr, fmt.Errorf("%s: %w", p.Derivation, p.Err))
			continue
		}
		log.Warn().Str("derivation", p.Derivation).Err(p.Err).Msg("join precondition violated")
		rep.Findings = append(rep.Findings, quality.Finding{
			Table:   p.Derivation,
			Check:   quality.CheckJoinPrecondition,
			Message: p.Err.Error(),
		})
	}
	buildResult := StageResult{Name: "build", Rows: len(tables.Facts), Duration: time.Since(buildStart), Err: buildErr}
	rep.Stages = append(rep.Stages, buildResult)
	metrics.RecordStage(cfg.Job, "build", buildErr, buildResult.Duration)
	for table, n := range tables.Counts() {
		log.Info().Str("table", table).Int("rows", n).Msg("table derived")
		metrics.RecordTableRows(cfg.Job, table, n)
	}
	if buildErr != nil && !cfg.ContinueOnError() {
		return rep, fmt.Errorf("%w: stage build: %v", ErrAborted, buildErr)
	}

	// Quality gate: observe, never mutate. Enforcement is a policy switch.
	qStart := time.Now()
	findings := quality.Check(tables)
	rep.Findings = append(rep.Findings, findings...)
	for _, f := range rep.Findings {
		log.Warn().Str("table", f.Table).Str("check", f.Check).Msg(f.Message)
	}
	if len(rep.Findings) == 0 {
		log.Info().Msg("no issues with quality checks")
	}
	metrics.RecordStage(cfg.Job, "quality", nil, time.Since(qStart))
	metrics.RecordFindings(cfg.Job, len(rep.Findings))
	rep.Stages = append(rep.Stages, StageResult{Name: "quality", Rows: len(rep.Findings), Duration: time.Since(qStart)})
	if cfg.Quality.Enforce && len(rep.Findings) > 0 {
		return rep, fmt.Errorf("%w: %d findings", ErrQualityGate, len(rep.Findings))
	}

	// Publish. Table writes are fault-isolated inside the writer.
	wStart := time.Now()
	tableErrs := writer.Write(ctx, tables)
	rep.TableErrors = tableErrs
	counts := tables.Counts()
	var writeErr error
	for _, te := range tableErrs {
		log.Error().Str("table", te.Table).Int("rows", counts[te.Table]).Err(te.Err).Msg("table write failed")
		writeErr = errors.Join(writeErr, fmt.Errorf("%s: %w", te.Table, te.Err))
	}
	writeResult := StageResult{Name: "write", Rows: len(warehouse.TableNames) - len(tableErrs), Duration: time.Since(wStart), Err: writeErr}
	rep.Stages = append(rep.Stages, writeResult)
	metrics.RecordStage(cfg.Job, "write", writeErr, writeResult.Duration)
	if writeErr != nil && !cfg.ContinueOnError() {
		return rep, fmt.Errorf("%w: stage write: %v", ErrAborted, writeErr)
	}

	log.Info().Msg("processing complete")
	return rep, nil
}

// ingestSales reads and cleanses the liquor sales staging extract.
func ingestSales(ctx context.Context, location string, store objstore.Store, log zerolog.Logger) (*relation.Relation, StageResult) {
	start := time.Now()
	log.Info().Str("location", location).Msg("reading liquor sales staging data")

	rc, err := store.Open(ctx, location)
	if err != nil {
		return nil, StageResult{Name: "read_sales", Duration: time.Since(start), Err: err}
	}
	defer rc.Close()

	p := csvparser.NewParser(csvparser.Options{
		Schema:     cleanse.SalesSchema(),
		DateFormat: cleanse.SalesDateFormat,
		TrimSpace:  true,
	})
	rel, soft, err := p.Parse(rc)
	if err != nil {
		return nil, StageResult{Name: "read_sales", Duration: time.Since(start), Err: err}
	}
	if soft > 0 {
		log.Warn().Int("soft_failures", soft).Msg("sales rows with width or coercion defects")
	}

	rel = cleanse.Sales().Apply(rel, ruleLogger(log, "sales"))
	log.Info().Int("rows", rel.Count()).Msg("cleansing of liquor sales data complete")
	return rel, StageResult{Name: "read_sales", Rows: rel.Count(), Duration: time.Since(start)}
}

// ingestHolidays reads and cleanses the holidays staging feed.
func ingestHolidays(ctx context.Context, location string, store objstore.Store, log zerolog.Logger) (*relation.Relation, StageResult) {
	start := time.Now()
	log.Info().Str("location", location).Msg("reading holidays staging data")

	rc, err := store.Open(ctx, location)
	if err != nil {
		return nil, StageResult{Name: "read_holidays", Duration: time.Since(start), Err: err}
	}
	defer rc.Close()

	rel, _, err := jsonrec.NewParser().Parse(rc)
	if err != nil {
		return nil, StageResult{Name: "read_holidays", Duration: time.Since(start), Err: err}
	}

	rel = cleanse.Holidays().Apply(rel, ruleLogger(log, "holidays"))
	log.Info().Int("rows", rel.Count()).Msg("cleansing of holidays data complete")
	return rel, StageResult{Name: "read_holidays", Rows: rel.Count(), Duration: time.Since(start)}
}

// ingestWeather reads and cleanses the regional weather extract.
func ingestWeather(ctx context.Context, location string, store objstore.Store, log zerolog.Logger) (*relation.Relation, StageResult) {
	start := time.Now()
	log.Info().Str("location", location).Msg("reading weather staging data")

	rc, err := store.Open(ctx, location)
	if err != nil {
		return nil, StageResult{Name: "read_weather", Duration: time.Since(start), Err: err}
	}
	defer rc.Close()

	p := csvparser.NewParser(csvparser.Options{
		HasHeader:  true,
		InferTypes: true,
		TrimSpace:  true,
	})
	rel, soft, err := p.Parse(rc)
	if err != nil {
		return nil, StageResult{Name: "read_weather", Duration: time.Since(start), Err: err}
	}
	if soft > 0 {
		log.Warn().Int("soft_failures", soft).Msg("weather rows with width or coercion defects")
	}

	rel = cleanse.Weather().Apply(rel, ruleLogger(log, "weather"))
	log.Info().Int("rows", rel.Count()).Msg("cleansing of weather data complete")
	return rel, StageResult{Name: "read_weather", Rows: rel.Count(), Duration: time.Since(start)}
}

// ruleLogger adapts the cleansing chains' error callback onto the run logger.
// A failed rule is skipped, not fatal; the log line is the operator's signal.
func ruleLogger(log zerolog.Logger, stage string) func(rule string, err error) {
	return func(rule string, err error) {
		log.Error().Str("stage", stage).Str("rule", rule).Err(err).Msg("cleansing rule skipped")
	}
}
