/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package pipeline orchestrates the medallion refresh: raw sources are copied
// to bronze, cleaned into silver, aggregated into gold, and published to the
// serving store. Stages run sequentially; each stage's outputs feed the next.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/ctxlog"
	"github.com/clansou/medallion/datagen"
	"github.com/clansou/medallion/dataset"
	"github.com/clansou/medallion/docstore"
	"github.com/clansou/medallion/objectstore"
	"github.com/clansou/medallion/storagemodels"
)

// Options tunes one pipeline run.
type Options struct {
	// SkipGenerate reuses existing source objects instead of regenerating.
	SkipGenerate bool
	// Engine selects the silver cleaning engine; nil means buffered.
	Engine SilverEngine
}

// StageTiming records one stage's wall time.
type StageTiming struct {
	Stage   string  `json:"stage"`
	Seconds float64 `json:"seconds"`
}

// Report summarizes a full pipeline run.
type Report struct {
	RunID        string                        `json:"run_id"`
	Stages       []StageTiming                 `json:"stages"`
	Silver       SilverResult                  `json:"silver"`
	Refresh      storagemodels.RefreshMetadata `json:"refresh"`
	TotalSeconds float64                       `json:"total_seconds"`
}

// Runner wires the stages against an object store and a serving sink.
type Runner struct {
	Store  objectstore.Store
	Sink   docstore.Sink
	Config config.Config
}

// Run executes the full refresh and returns its report.
func (r *Runner) Run(ctx context.Context, opts Options) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log := ctxlog.FromContext(ctx).With("run_id", report.RunID)
	ctx = ctxlog.WithLogger(ctx, log)
	start := time.Now()

	timeStage := func(name string, fn func() error) error {
		stageStart := time.Now()
		if err := fn(); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
		elapsed := time.Since(stageStart).Seconds()
		report.Stages = append(report.Stages, StageTiming{Stage: name, Seconds: elapsed})
		log.Info("stage complete", "stage", name, "seconds", fmt.Sprintf("%.2f", elapsed))
		return nil
	}

	if !opts.SkipGenerate {
		if err := timeStage("generate", func() error {
			return datagen.Seed(ctx, r.Store, r.Config.Buckets.Sources, r.Config.Generate)
		}); err != nil {
			return report, err
		}
	}

	bronze := &BronzeStage{Store: r.Store, Buckets: r.Config.Buckets}
	if err := timeStage("bronze", func() error { return bronze.Run(ctx) }); err != nil {
		return report, err
	}

	silver := &SilverStage{
		Store:    r.Store,
		Buckets:  r.Config.Buckets,
		Cleaning: r.Config.Cleaning,
		Engine:   opts.Engine,
	}
	var clients []dataset.Client
	var purchases []dataset.Purchase
	if err := timeStage("silver", func() error {
		var err error
		clients, purchases, report.Silver, err = silver.Run(ctx)
		return err
	}); err != nil {
		return report, err
	}

	gold := &GoldStage{Store: r.Store, Buckets: r.Config.Buckets}
	var tables GoldTables
	if err := timeStage("gold", func() error {
		var err error
		tables, err = gold.Run(ctx, clients, purchases)
		return err
	}); err != nil {
		return report, err
	}

	publish := &PublishStage{Sink: r.Sink}
	if err := timeStage("publish", func() error {
		var err error
		report.Refresh, err = publish.Run(ctx, tables, report.RunID)
		return err
	}); err != nil {
		return report, err
	}

	report.TotalSeconds = time.Since(start).Seconds()
	log.Info("pipeline complete", "total_seconds", fmt.Sprintf("%.2f", report.TotalSeconds))
	return report, nil
}

// EngineTiming is one engine's result in a comparison run.
type EngineTiming struct {
	Engine       string  `json:"engine"`
	Seconds      float64 `json:"seconds"`
	ClientRows   int     `json:"client_rows"`
	PurchaseRows int     `json:"purchase_rows"`
}

// Comparison reports the silver engines side by side over the same bronze
// data.
type Comparison struct {
	Engines []EngineTiming `json:"engines"`
}

// CompareEngines runs the silver stage once per engine against the current
// bronze objects and reports timings. Both engines must produce identical
// cleaned records; a divergence is reported as an error.
func (r *Runner) CompareEngines(ctx context.Context) (Comparison, error) {
	return r.compareEngines(ctx, []SilverEngine{BufferedEngine{}, StreamingEngine{}})
}

type engineOutput struct {
	clients   []dataset.Client
	purchases []dataset.Purchase
}

func (r *Runner) compareEngines(ctx context.Context, engines []SilverEngine) (Comparison, error) {
	log := ctxlog.FromContext(ctx)
	var cmp Comparison
	var outputs []engineOutput

	for _, engine := range engines {
		stage := &SilverStage{
			Store:    r.Store,
			Buckets:  r.Config.Buckets,
			Cleaning: r.Config.Cleaning,
			Engine:   engine,
		}
		start := time.Now()
		clients, purchases, _, err := stage.Run(ctx)
		if err != nil {
			return cmp, fmt.Errorf("engine %s: %w", engine.Name(), err)
		}
		timing := EngineTiming{
			Engine:       engine.Name(),
			Seconds:      time.Since(start).Seconds(),
			ClientRows:   len(clients),
			PurchaseRows: len(purchases),
		}
		cmp.Engines = append(cmp.Engines, timing)
		outputs = append(outputs, engineOutput{clients: clients, purchases: purchases})
		log.Info("engine run complete",
			"engine", timing.Engine,
			"seconds", fmt.Sprintf("%.2f", timing.Seconds),
			"clients", timing.ClientRows,
			"purchases", timing.PurchaseRows)
	}

	for i := 1; i < len(outputs); i++ {
		if !slices.Equal(outputs[0].clients, outputs[i].clients) ||
			!slices.Equal(outputs[0].purchases, outputs[i].purchases) {
			return cmp, fmt.Errorf("engine outputs diverge: %s and %s produced different cleaned records",
				cmp.Engines[0].Engine, cmp.Engines[i].Engine)
		}
	}
	return cmp, nil
}
