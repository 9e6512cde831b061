/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Command medallion drives the analytics platform: generate source data, run
// the refresh pipeline, or serve the analytics API.
//
// Usage:
//
//	medallion generate
//	medallion run [-skip-generate] [-compare] [-engine buffered|streaming]
//	medallion serve
//	medallion -version
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clansou/medallion"
	"github.com/clansou/medallion/api"
	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/ctxlog"
	"github.com/clansou/medallion/datagen"
	"github.com/clansou/medallion/docstore"
	"github.com/clansou/medallion/docstore/ddb"
	"github.com/clansou/medallion/docstore/mongo"
	"github.com/clansou/medallion/objectstore/s3"
	"github.com/clansou/medallion/pipeline"
)

// sinks holds the publish backends this binary ships with; openSink resolves
// the configured one by key.
var sinks = medallion.NewSinkRegistry()

func init() {
	if err := sinks.Register(config.SinkMongo, openMongoSink); err != nil {
		panic(err)
	}
	if err := sinks.Register(config.SinkDynamoDB, openDynamoSink); err != nil {
		panic(err)
	}
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		info := medallion.GetVersionInfo()
		fmt.Printf("medallion %s (commit %s, built %s)\n", info.Version, info.GitCommit, info.BuildDate)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: medallion <generate|run|serve> [flags]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = ctxlog.WithLogger(ctx, log)

	switch cmd := flag.Arg(0); cmd {
	case "generate":
		err = runGenerate(ctx, cfg)
	case "run":
		err = runPipeline(ctx, cfg, flag.Args()[1:], log)
	case "serve":
		err = runServe(ctx, cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func runGenerate(ctx context.Context, cfg config.Config) error {
	store, err := s3.New(cfg.ObjectStore)
	if err != nil {
		return err
	}
	return datagen.Seed(ctx, store, cfg.Buckets.Sources, cfg.Generate)
}

func runPipeline(ctx context.Context, cfg config.Config, args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	skipGenerate := fs.Bool("skip-generate", false, "reuse existing source objects")
	compare := fs.Bool("compare", false, "run both silver engines and report timings")
	engineName := fs.String("engine", "buffered", "silver engine: buffered or streaming")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var engine pipeline.SilverEngine
	switch *engineName {
	case "buffered":
		engine = pipeline.BufferedEngine{}
	case "streaming":
		engine = pipeline.StreamingEngine{}
	default:
		return fmt.Errorf("unknown engine %q", *engineName)
	}

	store, err := s3.New(cfg.ObjectStore)
	if err != nil {
		return err
	}
	sink, cleanup, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := &pipeline.Runner{Store: store, Sink: sink, Config: cfg}
	report, err := runner.Run(ctx, pipeline.Options{SkipGenerate: *skipGenerate, Engine: engine})
	if err != nil {
		return err
	}

	log.Info("refresh complete",
		"run_id", report.RunID,
		"records", report.Refresh.TotalRecords,
		"total_seconds", fmt.Sprintf("%.2f", report.TotalSeconds))
	for _, stage := range report.Stages {
		log.Info("stage timing", "stage", stage.Stage, "seconds", fmt.Sprintf("%.2f", stage.Seconds))
	}

	if *compare {
		// The comparison is advisory; the refresh already succeeded.
		cmp, err := runner.CompareEngines(ctx)
		if err != nil {
			log.Warn("engine comparison failed", "error", err)
		}
		for _, e := range cmp.Engines {
			log.Info("engine comparison",
				"engine", e.Engine,
				"seconds", fmt.Sprintf("%.2f", e.Seconds),
				"clients", e.ClientRows,
				"purchases", e.PurchaseRows)
		}
	}
	return nil
}

func runServe(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, err := mongo.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	server := api.NewServer(cfg.API.Addr(), store, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// openSink resolves the configured publish backend through the registry.
func openSink(ctx context.Context, cfg config.Config) (docstore.Sink, func(), error) {
	return sinks.Open(ctx, cfg.Sink, cfg)
}

func openMongoSink(ctx context.Context, cfg config.Config) (docstore.Sink, func(), error) {
	store, err := mongo.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}
	return store, cleanup, nil
}

func openDynamoSink(ctx context.Context, cfg config.Config) (docstore.Sink, func(), error) {
	sink, err := ddb.NewSink(ctx, cfg.DynamoDB)
	if err != nil {
		return nil, nil, err
	}
	return sink, func() {}, nil
}
