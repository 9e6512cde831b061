/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/ctxlog"
	"github.com/clansou/medallion/datagen"
	"github.com/clansou/medallion/objectstore"
)

const (
	ioRetries    = 2
	ioRetryDelay = 500 * time.Millisecond
)

// BronzeStage copies the raw source CSVs verbatim into the bronze bucket.
type BronzeStage struct {
	Store   objectstore.Store
	Buckets config.Buckets
}

// Run ingests both source objects. Each copy is retried on transient
// failures.
func (s *BronzeStage) Run(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)

	if err := s.Store.EnsureBucket(ctx, s.Buckets.Bronze); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.Buckets.Bronze, err)
	}

	for _, key := range []string{datagen.ClientsObject, datagen.PurchasesObject} {
		err := withRetry(ctx, func() error {
			data, err := s.Store.Get(ctx, s.Buckets.Sources, key)
			if err != nil {
				return fmt.Errorf("load source %s: %w", key, err)
			}
			if err := s.Store.Put(ctx, s.Buckets.Bronze, key, bytes.NewReader(data), "text/csv"); err != nil {
				return fmt.Errorf("copy %s to bronze: %w", key, err)
			}
			log.Info("ingested to bronze", "key", key, "bytes", len(data))
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// withRetry runs an IO operation with linear-backoff retries.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= ioRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * ioRetryDelay):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", ioRetries+1, lastErr)
}
