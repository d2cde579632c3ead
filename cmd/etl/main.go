// Command etl runs the liquor sales warehouse pipeline: it reads the three
// staging sources, cleanses them, derives the dimensional model, runs the
// quality gate, and publishes the six tables to the configured destination.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/config"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/logging"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/metrics"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/metrics/prompush"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/objstore"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/pipeline"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/sink"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/sink/parquetsink"
	pgsink "github.com/Sarwan-S/udacity-nanodegree-capstone/internal/sink/postgres"
)

func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipeline.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "console output with debug level")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if validate {
		fmt.Fprintf(os.Stderr, "configuration is valid: %v\n", cfgPath)
		os.Exit(0)
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	log := logging.New(logging.Options{Job: cfg.Job, Level: level, Console: *verbose})

	// Metrics backend: flag, then env, then disabled.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(cfg.Job, gwURL)
		if err != nil {
			log.Warn().Err(err).Msg("metrics backend init failed; metrics disabled")
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Warn().Err(err).Msg("metrics flush failed")
				}
			}()
		}
	case "", "none":
		// metrics disabled; nop backend remains
	default:
		log.Warn().Str("backend", backendName).Msg("unknown metrics backend; metrics disabled")
	}

	ctx := context.Background()
	store := objstore.NewRouter(objstore.Credentials{
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Region:          cfg.AWS.Region,
	})

	writers := sink.Multi{parquetsink.New(store, cfg.Output.Root, cfg.Output.Fanout)}
	if cfg.Postgres.DSN != "" {
		pg, closePg, err := pgsink.New(ctx, pgsink.Config{DSN: cfg.Postgres.DSN, Schema: cfg.Postgres.Schema})
		if err != nil {
			fatalf("postgres sink: %v", err)
		}
		defer closePg()
		writers = append(writers, pg)
	}

	start := time.Now()
	rep, err := pipeline.Run(ctx, cfg, store, writers, log)
	for _, s := range rep.StageErrors() {
		log.Error().Str("stage", s.Name).Err(s.Err).Msg("stage failed")
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
	log.Info().Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).
		Int("findings", len(rep.Findings)).
		Int("table_errors", len(rep.TableErrors)).
		Msg("run complete")
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
