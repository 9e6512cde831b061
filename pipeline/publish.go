/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"golang.org/x/sync/errgroup"

	"github.com/clansou/medallion/ctxlog"
	"github.com/clansou/medallion/docstore"
	"github.com/clansou/medallion/storagemodels"
)

// PublishStage loads the gold serving tables into the configured sink. The
// three collection loads run concurrently; the refresh metadata record is
// written once all of them succeed.
type PublishStage struct {
	Sink docstore.Sink
}

// Run replaces every serving collection and records the refresh.
func (s *PublishStage) Run(ctx context.Context, tables GoldTables, runID string) (storagemodels.RefreshMetadata, error) {
	log := ctxlog.FromContext(ctx)
	start := time.Now()

	var mu sync.Mutex
	var loads []storagemodels.CollectionLoad
	record := func(load storagemodels.CollectionLoad) {
		mu.Lock()
		defer mu.Unlock()
		loads = append(loads, load)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		load, err := s.Sink.ReplaceClients(gctx, tables.ClientSummaries)
		if err != nil {
			return fmt.Errorf("load clients: %w", err)
		}
		record(load)
		return nil
	})
	g.Go(func() error {
		load, err := s.Sink.ReplaceProducts(gctx, tables.Products)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		record(load)
		return nil
	})
	g.Go(func() error {
		load, err := s.Sink.ReplaceMonthlySales(gctx, tables.Monthly)
		if err != nil {
			return fmt.Errorf("load monthly sales: %w", err)
		}
		record(load)
		return nil
	})
	if err := g.Wait(); err != nil {
		return storagemodels.RefreshMetadata{}, err
	}

	var totalRecords int
	var totalSeconds float64
	collections := make([]string, 0, len(loads))
	for _, l := range loads {
		totalRecords += l.Count
		totalSeconds += l.ElapsedSeconds
		collections = append(collections, l.Collection)
	}

	meta := storagemodels.RefreshMetadata{
		LastRefresh:         strfmt.DateTime(time.Now().UTC()),
		TotalRefreshSeconds: round2(totalSeconds),
		TotalRecords:        totalRecords,
		Collections:         collections,
		Details:             loads,
		RunID:               runID,
	}
	if err := s.Sink.PutRefreshMetadata(ctx, meta); err != nil {
		return meta, fmt.Errorf("record refresh metadata: %w", err)
	}

	log.Info("published to serving store",
		"records", totalRecords,
		"collections", len(collections),
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return meta, nil
}
