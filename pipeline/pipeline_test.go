/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/dataset"
	docmem "github.com/clansou/medallion/docstore/memory"
	mederrors "github.com/clansou/medallion/errors"
	objmem "github.com/clansou/medallion/objectstore/memory"
	"github.com/clansou/medallion/storagemodels"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Generate.Clients = 40
	cfg.Generate.Purchases = 400
	return cfg
}

func TestFullPipelineRun(t *testing.T) {
	ctx := context.Background()
	store := objmem.New()
	sink := docmem.New()

	runner := &Runner{Store: store, Sink: sink, Config: testConfig()}
	report, err := runner.Run(ctx, Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	stages := make([]string, 0, len(report.Stages))
	for _, s := range report.Stages {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []string{"generate", "bronze", "silver", "gold", "publish"}, stages)

	// Generated data is clean, so cleaning should keep nearly everything;
	// only IQR trimming may drop a handful of rows.
	assert.Equal(t, 40, report.Silver.ClientsInitial.Rows)
	assert.Equal(t, 400, report.Silver.PurchasesInitial.Rows)
	assert.Empty(t, report.Silver.ClientsInitial.MissingValues)
	assert.Equal(t, 40, report.Silver.Clients.InitialRows)
	assert.Greater(t, report.Silver.Purchases.FinalRows, 350)

	// Silver objects decode back to the reported row counts.
	raw, err := store.Get(ctx, config.BucketSilver, SilverClientsObject)
	require.NoError(t, err)
	clients, err := dataset.ReadJSONLines[dataset.Client](bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Len(t, clients, report.Silver.Clients.FinalRows)

	// Gold serving objects exist.
	for _, key := range []string{GoldClientSummaryObject, GoldProductStatsObject, GoldMonthlySalesObject} {
		_, err := store.Get(ctx, config.BucketGold, key)
		require.NoError(t, err, key)
	}

	// Sink received the loads and the refresh record. Only clients with at
	// least one purchase get a summary.
	summaries, err := sink.ListClients(ctx, storagemodels.ClientFilter{Limit: 1000})
	require.NoError(t, err)
	assert.NotEmpty(t, summaries)
	assert.LessOrEqual(t, len(summaries), report.Silver.Clients.FinalRows)

	meta, err := sink.RefreshInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, meta.RunID)
	assert.ElementsMatch(t, []string{"clients", "products", "monthly_sales"}, meta.Collections)
	assert.Equal(t, meta.TotalRecords, sumLoadCounts(meta.Details))
}

func sumLoadCounts(details []storagemodels.CollectionLoad) int {
	var n int
	for _, d := range details {
		n += d.Count
	}
	return n
}

func TestSkipGenerateRequiresSources(t *testing.T) {
	ctx := context.Background()
	runner := &Runner{Store: objmem.New(), Sink: docmem.New(), Config: testConfig()}

	_, err := runner.Run(ctx, Options{SkipGenerate: true})
	require.Error(t, err)
	assert.True(t, mederrors.IsNotFound(err))
}

func TestCompareEngines(t *testing.T) {
	ctx := context.Background()
	store := objmem.New()
	sink := docmem.New()
	cfg := testConfig()

	runner := &Runner{Store: store, Sink: sink, Config: cfg}
	_, err := runner.Run(ctx, Options{})
	require.NoError(t, err)

	cmp, err := runner.CompareEngines(ctx)
	require.NoError(t, err)
	require.Len(t, cmp.Engines, 2)
	assert.Equal(t, "buffered", cmp.Engines[0].Engine)
	assert.Equal(t, "streaming", cmp.Engines[1].Engine)
	assert.Equal(t, cmp.Engines[0].ClientRows, cmp.Engines[1].ClientRows)
	assert.Equal(t, cmp.Engines[0].PurchaseRows, cmp.Engines[1].PurchaseRows)
}

// skewedEngine cleans like the buffered engine but perturbs one amount, so
// row counts match while the records do not.
type skewedEngine struct{ BufferedEngine }

func (skewedEngine) Name() string { return "skewed" }

func (e skewedEngine) CleanPurchases(ctx context.Context, r io.Reader, validClients map[int]bool, iqrMultiplier float64, now time.Time) ([]dataset.Purchase, CleaningStats, error) {
	purchases, stats, err := e.BufferedEngine.CleanPurchases(ctx, r, validClients, iqrMultiplier, now)
	if len(purchases) > 0 {
		purchases[0].Amount += 0.01
	}
	return purchases, stats, err
}

func TestCompareEnginesDetectsRecordDivergence(t *testing.T) {
	ctx := context.Background()
	runner := &Runner{Store: objmem.New(), Sink: docmem.New(), Config: testConfig()}
	_, err := runner.Run(ctx, Options{})
	require.NoError(t, err)

	_, err = runner.compareEngines(ctx, []SilverEngine{BufferedEngine{}, skewedEngine{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diverge")
}

func TestPublishFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	sink := docmem.New().WithReplaceError(errors.New("mongo down"))

	runner := &Runner{Store: objmem.New(), Sink: sink, Config: testConfig()}
	_, err := runner.Run(ctx, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish")
}

func TestDataLossGuard(t *testing.T) {
	ctx := context.Background()
	store := objmem.New()

	// Bronze clients where most rows are invalid.
	bronze := "client_id,name,email,date_inscription,country\n" +
		"1,Ok Person,ok@example.com,2024-01-01,France\n" +
		"2,Bad Email,nope,2024-01-01,France\n" +
		"3,Bad Date,x@example.com,not-a-date,France\n"
	require.NoError(t, store.Put(ctx, config.BucketBronze, "clients.csv", bytes.NewReader([]byte(bronze)), "text/csv"))

	stage := &SilverStage{
		Store:    store,
		Buckets:  config.Default().Buckets,
		Cleaning: config.Cleaning{IQRMultiplier: 3, MaxDataLossPct: 10},
	}
	_, _, _, err := stage.Run(ctx)
	require.Error(t, err)
	assert.True(t, mederrors.IsQualityCheck(err))
}
