/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/ctxlog"
	"github.com/clansou/medallion/datagen"
	"github.com/clansou/medallion/dataset"
	mederrors "github.com/clansou/medallion/errors"
	"github.com/clansou/medallion/objectstore"
)

// Silver object keys.
const (
	SilverClientsObject   = "clients.jsonl"
	SilverPurchasesObject = "purchases.jsonl"
)

// SilverEngine cleans one dataset pair. Two implementations exist: a buffered
// engine that materializes the raw rows before cleaning, and a streaming
// engine that validates rows as they are decoded.
type SilverEngine interface {
	Name() string
	CleanClients(ctx context.Context, r io.Reader, now time.Time) ([]dataset.Client, CleaningStats, error)
	CleanPurchases(ctx context.Context, r io.Reader, validClients map[int]bool, iqrMultiplier float64, now time.Time) ([]dataset.Purchase, CleaningStats, error)
}

// BufferedEngine loads all raw rows into memory, then cleans.
type BufferedEngine struct{}

func (BufferedEngine) Name() string { return "buffered" }

func (BufferedEngine) CleanClients(ctx context.Context, r io.Reader, now time.Time) ([]dataset.Client, CleaningStats, error) {
	var stats CleaningStats
	rows, err := dataset.ReadClientRows(r)
	if err != nil {
		return nil, stats, err
	}
	stats.InitialRows = len(rows)

	clients := make([]dataset.Client, 0, len(rows))
	for _, row := range rows {
		if c, ok := cleanClientRow(row, now, &stats); ok {
			clients = append(clients, c)
		}
	}
	return finalizeClients(clients, &stats), stats, nil
}

func (BufferedEngine) CleanPurchases(ctx context.Context, r io.Reader, validClients map[int]bool, iqrMultiplier float64, now time.Time) ([]dataset.Purchase, CleaningStats, error) {
	var stats CleaningStats
	rows, err := dataset.ReadPurchaseRows(r)
	if err != nil {
		return nil, stats, err
	}
	stats.InitialRows = len(rows)

	purchases := make([]dataset.Purchase, 0, len(rows))
	for _, row := range rows {
		if p, ok := cleanPurchaseRow(row, validClients, now, &stats); ok {
			purchases = append(purchases, p)
		}
	}
	return finalizePurchases(purchases, iqrMultiplier, &stats), stats, nil
}

// StreamingEngine validates rows as they come off the decoder, so raw string
// rows are never held all at once. Outlier trimming and deduplication still
// need the surviving rows in memory.
type StreamingEngine struct {
	// Options are forwarded to the row streams, for progress reporting.
	Options []dataset.StreamOption
}

func (StreamingEngine) Name() string { return "streaming" }

func (e StreamingEngine) CleanClients(ctx context.Context, r io.Reader, now time.Time) ([]dataset.Client, CleaningStats, error) {
	var stats CleaningStats
	var clients []dataset.Client

	for res := range dataset.StreamClientRows(ctx, r, e.Options...) {
		if res.Error != nil {
			return nil, stats, fmt.Errorf("stream client row %d: %w", res.Meta.Index, res.Error)
		}
		stats.InitialRows++
		if c, ok := cleanClientRow(res.Item, now, &stats); ok {
			clients = append(clients, c)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return finalizeClients(clients, &stats), stats, nil
}

func (e StreamingEngine) CleanPurchases(ctx context.Context, r io.Reader, validClients map[int]bool, iqrMultiplier float64, now time.Time) ([]dataset.Purchase, CleaningStats, error) {
	var stats CleaningStats
	var purchases []dataset.Purchase

	for res := range dataset.StreamPurchaseRows(ctx, r, e.Options...) {
		if res.Error != nil {
			return nil, stats, fmt.Errorf("stream purchase row %d: %w", res.Meta.Index, res.Error)
		}
		stats.InitialRows++
		if p, ok := cleanPurchaseRow(res.Item, validClients, now, &stats); ok {
			purchases = append(purchases, p)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return finalizePurchases(purchases, iqrMultiplier, &stats), stats, nil
}

// SilverResult reports the pre-clean quality checks and both cleaning passes.
type SilverResult struct {
	ClientsInitial   QualityReport `json:"clients_initial_quality"`
	Clients          CleaningStats `json:"clients"`
	PurchasesInitial QualityReport `json:"purchases_initial_quality"`
	Purchases        CleaningStats `json:"purchases"`
}

// SilverStage cleans bronze CSVs into validated silver JSON Lines objects.
type SilverStage struct {
	Store    objectstore.Store
	Buckets  config.Buckets
	Cleaning config.Cleaning
	Engine   SilverEngine

	// Now anchors future-date validation; zero means time.Now.
	Now time.Time
}

// Run cleans both datasets and writes them to the silver bucket. The cleaned
// records are returned so the gold stage can reuse them without a re-read.
func (s *SilverStage) Run(ctx context.Context) ([]dataset.Client, []dataset.Purchase, SilverResult, error) {
	log := ctxlog.FromContext(ctx)
	var result SilverResult

	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}
	engine := s.Engine
	if engine == nil {
		engine = BufferedEngine{}
	}

	if err := s.Store.EnsureBucket(ctx, s.Buckets.Silver); err != nil {
		return nil, nil, result, fmt.Errorf("ensure bucket %s: %w", s.Buckets.Silver, err)
	}

	rawClients, err := s.Store.Get(ctx, s.Buckets.Bronze, datagen.ClientsObject)
	if err != nil {
		return nil, nil, result, fmt.Errorf("load bronze clients: %w", err)
	}
	clientRows, err := dataset.ReadClientRows(bytes.NewReader(rawClients))
	if err != nil {
		return nil, nil, result, fmt.Errorf("inspect bronze clients: %w", err)
	}
	result.ClientsInitial = inspectClientRows(clientRows)
	log.Info("initial quality check",
		"dataset", "clients",
		"rows", result.ClientsInitial.Rows,
		"duplicate_ids", result.ClientsInitial.DuplicateIDs,
		"missing_values", result.ClientsInitial.MissingValues)

	clients, clientStats, err := engine.CleanClients(ctx, bytes.NewReader(rawClients), now)
	if err != nil {
		return nil, nil, result, fmt.Errorf("clean clients: %w", err)
	}
	result.Clients = clientStats
	if err := s.checkDataLoss("clients", clientStats); err != nil {
		return nil, nil, result, err
	}
	if err := verifyClients(clients); err != nil {
		return nil, nil, result, err
	}
	log.Info("cleaned clients",
		"engine", engine.Name(),
		"initial", clientStats.InitialRows,
		"final", clientStats.FinalRows,
		"loss_pct", fmt.Sprintf("%.2f", clientStats.DataLossPct))

	validClients := make(map[int]bool, len(clients))
	for _, c := range clients {
		validClients[c.ID] = true
	}

	rawPurchases, err := s.Store.Get(ctx, s.Buckets.Bronze, datagen.PurchasesObject)
	if err != nil {
		return nil, nil, result, fmt.Errorf("load bronze purchases: %w", err)
	}
	purchaseRows, err := dataset.ReadPurchaseRows(bytes.NewReader(rawPurchases))
	if err != nil {
		return nil, nil, result, fmt.Errorf("inspect bronze purchases: %w", err)
	}
	result.PurchasesInitial = inspectPurchaseRows(purchaseRows)
	log.Info("initial quality check",
		"dataset", "purchases",
		"rows", result.PurchasesInitial.Rows,
		"duplicate_ids", result.PurchasesInitial.DuplicateIDs,
		"missing_values", result.PurchasesInitial.MissingValues)

	purchases, purchaseStats, err := engine.CleanPurchases(ctx, bytes.NewReader(rawPurchases), validClients, s.Cleaning.IQRMultiplier, now)
	if err != nil {
		return nil, nil, result, fmt.Errorf("clean purchases: %w", err)
	}
	result.Purchases = purchaseStats
	if err := s.checkDataLoss("purchases", purchaseStats); err != nil {
		return nil, nil, result, err
	}
	if err := verifyPurchases(purchases); err != nil {
		return nil, nil, result, err
	}
	log.Info("cleaned purchases",
		"engine", engine.Name(),
		"initial", purchaseStats.InitialRows,
		"final", purchaseStats.FinalRows,
		"loss_pct", fmt.Sprintf("%.2f", purchaseStats.DataLossPct))

	if err := putJSONLines(ctx, s.Store, s.Buckets.Silver, SilverClientsObject, clients); err != nil {
		return nil, nil, result, err
	}
	if err := putJSONLines(ctx, s.Store, s.Buckets.Silver, SilverPurchasesObject, purchases); err != nil {
		return nil, nil, result, err
	}

	return clients, purchases, result, nil
}

// checkDataLoss aborts the stage when a cleaning pass removed more rows than
// the configured threshold allows.
func (s *SilverStage) checkDataLoss(name string, stats CleaningStats) error {
	if s.Cleaning.MaxDataLossPct <= 0 {
		return nil
	}
	if stats.DataLossPct > s.Cleaning.MaxDataLossPct {
		return mederrors.NewQualityCheckError(name,
			fmt.Sprintf("data loss %.2f%% exceeds limit %.2f%%", stats.DataLossPct, s.Cleaning.MaxDataLossPct))
	}
	return nil
}

// verifyClients asserts the cleaned set holds no duplicate ids or emails and
// no empty criticals.
func verifyClients(clients []dataset.Client) error {
	ids := make(map[int]bool, len(clients))
	emails := make(map[string]bool, len(clients))
	for _, c := range clients {
		if c.ID == 0 || c.Email == "" {
			return mederrors.NewQualityCheckError("clients", "cleaned row with missing critical field")
		}
		if ids[c.ID] || emails[c.Email] {
			return mederrors.NewQualityCheckError("clients", fmt.Sprintf("duplicate survived cleaning: client %d", c.ID))
		}
		ids[c.ID] = true
		emails[c.Email] = true
	}
	return nil
}

// verifyPurchases asserts no duplicate ids and positive amounts remain.
func verifyPurchases(purchases []dataset.Purchase) error {
	ids := make(map[int]bool, len(purchases))
	for _, p := range purchases {
		if p.ID == 0 || p.Amount <= 0 {
			return mederrors.NewQualityCheckError("purchases", "cleaned row with missing or invalid critical field")
		}
		if ids[p.ID] {
			return mederrors.NewQualityCheckError("purchases", fmt.Sprintf("duplicate survived cleaning: purchase %d", p.ID))
		}
		ids[p.ID] = true
	}
	return nil
}

// putJSONLines encodes records and uploads them as one JSON Lines object.
func putJSONLines[T any](ctx context.Context, store objectstore.Store, bucket, key string, records []T) error {
	var buf bytes.Buffer
	if err := dataset.WriteJSONLines(&buf, records); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Put(ctx, bucket, key, &buf, "application/x-ndjson"); err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	return nil
}
